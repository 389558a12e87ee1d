package middleware

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	ContextKeyUserID    contextKey = "user_id"
	ContextKeyUserRole  contextKey = "role"
	ContextKeyIPAddress contextKey = "ip_address"
	ContextKeyUserAgent contextKey = "user_agent"
)

func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	v, ok := ctx.Value(ContextKeyUserID).(uuid.UUID)
	return v, ok
}

func RoleFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ContextKeyUserRole).(string)
	return v, ok
}

// ProvenanceFromContext returns the client address and user agent stored by
// Provenance. Missing values are returned empty.
func ProvenanceFromContext(ctx context.Context) (ip, userAgent string) {
	ip, _ = ctx.Value(ContextKeyIPAddress).(string)
	userAgent, _ = ctx.Value(ContextKeyUserAgent).(string)
	return ip, userAgent
}
