package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// User is the display profile of an actor. Identities are issued by the
// session provider; this table only mirrors name and email for audit views.
type User struct {
	ID        uuid.UUID
	Name      string
	Email     string
	Role      string // "admin", "member", or "viewer"
	UpdatedAt time.Time
}

type UserRepository interface {
	Upsert(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
}
