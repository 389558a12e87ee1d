package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gosuda/atlasdash/internal/domain"
)

type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) Upsert(ctx context.Context, u *domain.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, name, email, role, updated_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name, email = excluded.email,
		     role = excluded.role, updated_at = excluded.updated_at`,
		u.ID.String(), u.Name, u.Email, u.Role, time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("userRepo.Upsert: %w", err)
	}

	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var (
		u       domain.User
		rawID   string
		updated int64
	)

	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, email, role, updated_at FROM users WHERE id = ?`,
		id.String(),
	).Scan(&rawID, &u.Name, &u.Email, &u.Role, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("userRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("userRepo.GetByID: %w", err)
	}

	u.ID, err = uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("userRepo.GetByID: parse id: %w", err)
	}
	u.UpdatedAt = time.Unix(0, updated).UTC()

	return &u, nil
}
