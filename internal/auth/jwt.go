// Package auth validates the session tokens issued by the dashboard's
// identity provider.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "atlasdash"

// Claims holds the JWT token payload.
type Claims struct {
	jwt.RegisteredClaims
	UserID    string `json:"uid"`
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
	Role      string `json:"role"`
	TokenType string `json:"typ"` // "access" or "refresh"
}

// Identity is the subject a token is issued for.
type Identity struct {
	UserID uuid.UUID
	Name   string
	Email  string
	Role   string
}

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// ErrInvalidToken is returned when a JWT cannot be parsed or has expired.
var ErrInvalidToken = errors.New("auth: invalid or expired token")

// IssueAccessToken creates a signed JWT access token.
func IssueAccessToken(secret string, id Identity, ttl time.Duration) (string, error) {
	return issueToken(secret, id, tokenTypeAccess, ttl)
}

// IssueRefreshToken creates a signed JWT refresh token.
func IssueRefreshToken(secret string, id Identity, ttl time.Duration) (string, error) {
	return issueToken(secret, id, tokenTypeRefresh, ttl)
}

func issueToken(secret string, id Identity, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    issuer,
			Subject:   id.UserID.String(),
		},
		UserID:    id.UserID.String(),
		Name:      id.Name,
		Email:     id.Email,
		Role:      id.Role,
		TokenType: tokenType,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("auth.issueToken: %w", err)
	}

	return signed, nil
}

// ValidateToken parses and validates a JWT token string. Returns the embedded claims.
func ValidateToken(secret, tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, fmt.Errorf("auth.ValidateToken: %w", ErrInvalidToken)
	}

	if !token.Valid {
		return nil, fmt.Errorf("auth.ValidateToken: %w", ErrInvalidToken)
	}

	return claims, nil
}

// ValidateAccessToken is ValidateToken restricted to access tokens with a
// well-formed user id.
func ValidateAccessToken(secret, tokenString string) (*Claims, uuid.UUID, error) {
	claims, err := ValidateToken(secret, tokenString)
	if err != nil {
		return nil, uuid.Nil, err
	}
	if claims.TokenType != tokenTypeAccess {
		return nil, uuid.Nil, fmt.Errorf("auth.ValidateAccessToken: %w", ErrInvalidToken)
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("auth.ValidateAccessToken: %w", ErrInvalidToken)
	}

	return claims, userID, nil
}
