package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/atlasdash/internal/domain"
	"github.com/gosuda/atlasdash/internal/store/sqlfilter"
)

const auditColumns = `a.id, a.user_id, a.action, a.resource_type, a.resource_id, a.details, a.backup_data,
	a.restore_possible, a.restored_at, a.restored_by, a.ip_address, a.user_agent, a.timestamp,
	a.success, a.error_message`

type AuditRepo struct {
	pool *pgxpool.Pool
}

func NewAuditRepo(pool *pgxpool.Pool) *AuditRepo {
	return &AuditRepo{pool: pool}
}

func (r *AuditRepo) Record(ctx context.Context, entry *domain.AuditEntry) error {
	details, err := json.Marshal(entry.Details)
	if err != nil {
		return fmt.Errorf("auditRepo.Record: marshal details: %w", err)
	}

	var backup any
	if len(entry.BackupData) > 0 {
		backup = []byte(entry.BackupData)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO audit_logs (id, user_id, action, resource_type, resource_id, details, backup_data,
		     restore_possible, ip_address, user_agent, timestamp, success, error_message)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		entry.ID, entry.UserID, entry.Action, string(entry.ResourceType), entry.ResourceID,
		details, backup, entry.RestorePossible, entry.IPAddress, entry.UserAgent,
		entry.Timestamp, entry.Success, nilIfEmpty(entry.ErrorMessage),
	)
	if err != nil {
		return fmt.Errorf("auditRepo.Record: %w", err)
	}

	return nil
}

func (r *AuditRepo) GetRestorable(ctx context.Context, id uuid.UUID) (*domain.AuditEntry, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+auditColumns+`
		 FROM audit_logs a
		 WHERE a.id = $1 AND a.restore_possible AND a.restored_at IS NULL AND a.success`,
		id,
	)

	var v domain.AuditLogView
	err := scanAuditRow(row, &v, false)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("auditRepo.GetRestorable: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("auditRepo.GetRestorable: %w", err)
	}

	return &v.AuditEntry, nil
}

func (r *AuditRepo) MarkRestored(ctx context.Context, id, restoredBy uuid.UUID, at time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE audit_logs SET restored_at = $1, restored_by = $2
		 WHERE id = $3 AND restored_at IS NULL AND restore_possible AND success`,
		at, restoredBy, id,
	)
	if err != nil {
		return fmt.Errorf("auditRepo.MarkRestored: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("auditRepo.MarkRestored: %w", domain.ErrConflict)
	}

	return nil
}

func (r *AuditRepo) ClearRestored(ctx context.Context, id, restoredBy uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE audit_logs SET restored_at = NULL, restored_by = NULL
		 WHERE id = $1 AND restored_by = $2`,
		id, restoredBy,
	)
	if err != nil {
		return fmt.Errorf("auditRepo.ClearRestored: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("auditRepo.ClearRestored: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *AuditRepo) List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLogView, error) {
	where, args := sqlfilter.Where(sqlfilter.Postgres, filter)
	n := len(args)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.pool.Query(ctx,
		`SELECT `+auditColumns+`, COALESCE(u.name, ''), COALESCE(u.email, '')
		 FROM audit_logs a LEFT JOIN users u ON u.id = a.user_id`+where+`
		 ORDER BY a.timestamp DESC, a.id DESC
		 LIMIT `+sqlfilter.Postgres.Placeholder(n+1)+` OFFSET `+sqlfilter.Postgres.Placeholder(n+2),
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("auditRepo.List: %w", err)
	}
	defer rows.Close()

	logs := make([]*domain.AuditLogView, 0)
	for rows.Next() {
		var v domain.AuditLogView
		if err := scanAuditRow(rows, &v, true); err != nil {
			return nil, fmt.Errorf("auditRepo.List: %w", err)
		}
		logs = append(logs, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("auditRepo.List: rows: %w", err)
	}

	return logs, nil
}

func (r *AuditRepo) Count(ctx context.Context, filter domain.AuditFilter) (int64, error) {
	where, args := sqlfilter.Where(sqlfilter.Postgres, filter)

	var total int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM audit_logs a`+where, args...).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("auditRepo.Count: %w", err)
	}

	return total, nil
}

func scanAuditRow(row pgx.Row, v *domain.AuditLogView, withProfile bool) error {
	var (
		details, backup []byte
		resourceType    string
		errMsg          *string
	)

	dest := []any{
		&v.ID, &v.UserID, &v.Action, &resourceType, &v.ResourceID, &details, &backup,
		&v.RestorePossible, &v.RestoredAt, &v.RestoredBy, &v.IPAddress, &v.UserAgent, &v.Timestamp,
		&v.Success, &errMsg,
	}
	if withProfile {
		dest = append(dest, &v.UserName, &v.UserEmail)
	}

	if err := row.Scan(dest...); err != nil {
		return err
	}

	v.ResourceType = domain.ResourceType(resourceType)
	v.ErrorMessage = derefStr(errMsg)
	if len(backup) > 0 {
		v.BackupData = backup
	}
	if err := json.Unmarshal(details, &v.Details); err != nil {
		return fmt.Errorf("unmarshal details: %w", err)
	}

	return nil
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefStr(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
