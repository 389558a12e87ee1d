package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/atlasdash/internal/auth"
	"github.com/gosuda/atlasdash/internal/domain"
)

// Auth validates the session bearer token and stores the user id and role in
// the request context. Browsers cannot set headers on WebSocket upgrades, so
// the access_token query parameter is accepted as a fallback.
//
// When the token carries a display name or email the user's profile is
// upserted so audit listings can show it. Profile failures never block the
// request.
func Auth(jwtSecret string, users domain.UserRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := extractBearer(r)
			if tok == "" {
				tok = r.URL.Query().Get("access_token")
			}
			if tok == "" {
				http.Error(w, `{"title":"Unauthorized","status":401,"detail":"missing or invalid credentials"}`, http.StatusUnauthorized)
				return
			}

			claims, userID, err := auth.ValidateAccessToken(jwtSecret, tok)
			if err != nil {
				http.Error(w, `{"title":"Unauthorized","status":401,"detail":"missing or invalid credentials"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyUserID, userID)
			ctx = context.WithValue(ctx, ContextKeyUserRole, claims.Role)

			syncProfile(ctx, users, userID, claims)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractBearer(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return header[7:]
	}
	return ""
}

func syncProfile(ctx context.Context, users domain.UserRepository, userID uuid.UUID, claims *auth.Claims) {
	if users == nil || (claims.Name == "" && claims.Email == "") {
		return
	}

	u := &domain.User{ID: userID, Name: claims.Name, Email: claims.Email, Role: claims.Role}
	if stored, err := users.GetByID(ctx, userID); err == nil &&
		stored.Name == u.Name && stored.Email == u.Email && stored.Role == u.Role {
		return
	}
	if err := users.Upsert(ctx, u); err != nil {
		log.Warn().Err(err).Str("user_id", userID.String()).Msg("auth: failed to sync user profile")
	}
}
