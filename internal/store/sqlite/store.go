// Package sqlite is the single-file audit store used for self-hosted
// deployments and tests. It mirrors the postgres store's contract.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/gosuda/atlasdash/internal/domain"
)

// Timestamps are stored as unix nanoseconds so ordering is numeric.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS users (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL DEFAULT '',
	email      TEXT NOT NULL DEFAULT '',
	role       TEXT NOT NULL DEFAULT 'member',
	updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS audit_logs (
	id               TEXT PRIMARY KEY,
	user_id          TEXT NOT NULL,
	action           TEXT NOT NULL,
	resource_type    TEXT NOT NULL,
	resource_id      TEXT NOT NULL,
	details          TEXT NOT NULL DEFAULT '{}',
	backup_data      TEXT,
	restore_possible INTEGER NOT NULL DEFAULT 0,
	restored_at      INTEGER,
	restored_by      TEXT,
	ip_address       TEXT NOT NULL DEFAULT 'unknown',
	user_agent       TEXT NOT NULL DEFAULT 'unknown',
	timestamp        INTEGER NOT NULL,
	success          INTEGER NOT NULL,
	error_message    TEXT
);

CREATE INDEX IF NOT EXISTS idx_audit_logs_timestamp ON audit_logs(timestamp DESC);
CREATE INDEX IF NOT EXISTS idx_audit_logs_resource ON audit_logs(resource_type, resource_id, timestamp DESC);
CREATE INDEX IF NOT EXISTS idx_audit_logs_action ON audit_logs(action);
`

type Store struct {
	db    *sql.DB
	users *UserRepo
	audit *AuditRepo
}

// New opens (creating if needed) the database at path and applies the schema.
func New(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite.New: path is required")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("sqlite.New: create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open: %w", err)
	}
	// One writer keeps SQLite from returning SQLITE_BUSY under concurrent requests.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, stmt := range []string{"PRAGMA busy_timeout=5000;", "PRAGMA journal_mode=WAL;", schemaSQL} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite.New: init schema: %w", err)
		}
	}

	return NewWithDB(db), nil
}

// NewWithDB wraps an already-initialised database handle.
func NewWithDB(db *sql.DB) *Store {
	return &Store{
		db:    db,
		users: NewUserRepo(db),
		audit: NewAuditRepo(db),
	}
}

func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("sqlite.Close: %w", err)
	}
	return nil
}

func (s *Store) Users() domain.UserRepository  { return s.users }
func (s *Store) Audit() domain.AuditRepository { return s.audit }
