package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gosuda/atlasdash/internal/domain"
	"github.com/gosuda/atlasdash/internal/store/sqlfilter"
)

const auditColumns = `a.id, a.user_id, a.action, a.resource_type, a.resource_id, a.details, a.backup_data,
	a.restore_possible, a.restored_at, a.restored_by, a.ip_address, a.user_agent, a.timestamp,
	a.success, a.error_message`

type AuditRepo struct {
	db *sql.DB
}

func NewAuditRepo(db *sql.DB) *AuditRepo {
	return &AuditRepo{db: db}
}

func (r *AuditRepo) Record(ctx context.Context, entry *domain.AuditEntry) error {
	details, err := json.Marshal(entry.Details)
	if err != nil {
		return fmt.Errorf("auditRepo.Record: marshal details: %w", err)
	}

	var backup sql.NullString
	if len(entry.BackupData) > 0 {
		backup = sql.NullString{String: string(entry.BackupData), Valid: true}
	}

	var errMsg sql.NullString
	if entry.ErrorMessage != "" {
		errMsg = sql.NullString{String: entry.ErrorMessage, Valid: true}
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO audit_logs (id, user_id, action, resource_type, resource_id, details, backup_data,
		     restore_possible, ip_address, user_agent, timestamp, success, error_message)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID.String(), entry.UserID.String(), entry.Action, string(entry.ResourceType), entry.ResourceID,
		string(details), backup, entry.RestorePossible, entry.IPAddress, entry.UserAgent,
		entry.Timestamp.UnixNano(), entry.Success, errMsg,
	)
	if err != nil {
		return fmt.Errorf("auditRepo.Record: %w", err)
	}

	return nil
}

func (r *AuditRepo) GetRestorable(ctx context.Context, id uuid.UUID) (*domain.AuditEntry, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+auditColumns+`
		 FROM audit_logs a
		 WHERE a.id = ? AND a.restore_possible = 1 AND a.restored_at IS NULL AND a.success = 1`,
		id.String(),
	)

	var v domain.AuditLogView
	err := scanAuditRow(row, &v, false)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("auditRepo.GetRestorable: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("auditRepo.GetRestorable: %w", err)
	}

	return &v.AuditEntry, nil
}

func (r *AuditRepo) MarkRestored(ctx context.Context, id, restoredBy uuid.UUID, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE audit_logs SET restored_at = ?, restored_by = ?
		 WHERE id = ? AND restored_at IS NULL AND restore_possible = 1 AND success = 1`,
		at.UnixNano(), restoredBy.String(), id.String(),
	)
	if err != nil {
		return fmt.Errorf("auditRepo.MarkRestored: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("auditRepo.MarkRestored: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("auditRepo.MarkRestored: %w", domain.ErrConflict)
	}

	return nil
}

func (r *AuditRepo) ClearRestored(ctx context.Context, id, restoredBy uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE audit_logs SET restored_at = NULL, restored_by = NULL
		 WHERE id = ? AND restored_by = ?`,
		id.String(), restoredBy.String(),
	)
	if err != nil {
		return fmt.Errorf("auditRepo.ClearRestored: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("auditRepo.ClearRestored: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("auditRepo.ClearRestored: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *AuditRepo) List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLogView, error) {
	where, args := sqlfilter.Where(sqlfilter.SQLite, filter)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+auditColumns+`, COALESCE(u.name, ''), COALESCE(u.email, '')
		 FROM audit_logs a LEFT JOIN users u ON u.id = a.user_id`+where+`
		 ORDER BY a.timestamp DESC, a.rowid DESC
		 LIMIT ? OFFSET ?`,
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
	where, args := sqlfilter.Where(sqlfilter.SQLite, filter)

	var total int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_logs a`+where, args...).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("auditRepo.Count: %w", err)
	}

	return total, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAuditRow(row rowScanner, v *domain.AuditLogView, withProfile bool) error {
	var (
		id, userID, resourceType, details string
		backup, restoredBy, errMsg        sql.NullString
		restoredAt                        sql.NullInt64
		ts                                int64
	)

	dest := []any{
		&id, &userID, &v.Action, &resourceType, &v.ResourceID, &details, &backup,
		&v.RestorePossible, &restoredAt, &restoredBy, &v.IPAddress, &v.UserAgent, &ts,
		&v.Success, &errMsg,
	}
	if withProfile {
		dest = append(dest, &v.UserName, &v.UserEmail)
	}

	if err := row.Scan(dest...); err != nil {
		return err
	}

	var err error
	if v.ID, err = uuid.Parse(id); err != nil {
		return fmt.Errorf("parse id: %w", err)
	}
	if v.UserID, err = uuid.Parse(userID); err != nil {
		return fmt.Errorf("parse user_id: %w", err)
	}
	v.ResourceType = domain.ResourceType(resourceType)
	v.Timestamp = time.Unix(0, ts).UTC()
	v.ErrorMessage = errMsg.String

	if backup.Valid && backup.String != "" {
		v.BackupData = json.RawMessage(backup.String)
	}
	if restoredAt.Valid {
		t := time.Unix(0, restoredAt.Int64).UTC()
		v.RestoredAt = &t
	}
	if restoredBy.Valid {
		by, parseErr := uuid.Parse(restoredBy.String)
		if parseErr != nil {
			return fmt.Errorf("parse restored_by: %w", parseErr)
		}
		v.RestoredBy = &by
	}
	if err := json.Unmarshal([]byte(details), &v.Details); err != nil {
		return fmt.Errorf("unmarshal details: %w", err)
	}

	return nil
}
