package audit

import (
	"bytes"
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/atlasdash/internal/domain"
	"github.com/gosuda/atlasdash/internal/telemetry"
)

// Restore result messages. Already restored and never restorable entries
// share MsgNotRestorable.
const (
	MsgUnauthorized      = "Unauthorized"
	MsgNotRestorable     = "Audit log not found or not restorable"
	MsgNoBackup          = "No backup data available"
	MsgUnsupportedAction = "Unsupported restore action: "
	MsgRestoreFailed     = "Restore failed: "
	MsgRestored          = "Action restored successfully"
)

type RestoreResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// RestoreAction reverses the operation recorded by auditLogID.
//
// The entry is claimed with a conditional update before the revert is
// replayed, so concurrent calls for one entry replay at most once. A failed
// replay releases the claim and the entry stays restorable.
func (s *Service) RestoreAction(ctx context.Context, auditLogID string) RestoreResult {
	actor, ok := s.actor(ctx)
	if !ok {
		return rejected("unknown", MsgUnauthorized)
	}

	id, err := uuid.Parse(auditLogID)
	if err != nil {
		return rejected("unknown", MsgNotRestorable)
	}

	entry, err := s.repo.GetRestorable(ctx, id)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			log.Error().Err(err).Str("audit_id", auditLogID).Msg("audit: restore lookup failed")
		}
		return rejected("unknown", MsgNotRestorable)
	}

	raw := bytes.TrimSpace(entry.BackupData)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return rejected(entry.Action, MsgNoBackup)
	}

	handler, ok := registry[entry.Action]
	if !ok {
		return rejected(entry.Action, MsgUnsupportedAction+entry.Action)
	}

	replay := Replay{Details: entry.Details}
	if handler.serverScoped() {
		replay.ServerID, err = s.resolver.ResolveServerID(ctx, entry.ResourceID)
		if err != nil {
			return failed(entry.Action, err)
		}
	}

	if err := s.repo.MarkRestored(ctx, id, actor, s.now().UTC()); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return rejected(entry.Action, MsgNotRestorable)
		}
		return failed(entry.Action, err)
	}

	if err := handler.revert(ctx, s.atlas, replay, raw); err != nil {
		if clearErr := s.repo.ClearRestored(context.WithoutCancel(ctx), id, actor); clearErr != nil {
			log.Error().Err(clearErr).Str("audit_id", auditLogID).Msg("audit: failed to release restore claim")
		}
		return failed(entry.Action, err)
	}

	notRestorable := false
	s.LogAction(ctx, Record{
		Action:       RestorePrefix + entry.Action,
		ResourceType: entry.ResourceType,
		ResourceID:   entry.ResourceID,
		Details: map[string]any{
			"originalAuditLogId": entry.ID.String(),
			"originalAction":     entry.Action,
			"originalDetails":    entry.Details,
		},
		RestorePossible: &notRestorable,
		Success:         true,
	})

	telemetry.RestoresTotal.WithLabelValues(entry.Action, telemetry.RestoreOK).Inc()
	return RestoreResult{Success: true, Message: MsgRestored}
}

func rejected(action, msg string) RestoreResult {
	telemetry.RestoresTotal.WithLabelValues(action, telemetry.RestoreRejected).Inc()
	return RestoreResult{Message: msg}
}

func failed(action string, err error) RestoreResult {
	log.Warn().Err(err).Str("action", action).Msg("audit: restore failed")
	telemetry.RestoresTotal.WithLabelValues(action, telemetry.RestoreFailed).Inc()
	return RestoreResult{Message: MsgRestoreFailed + err.Error()}
}
