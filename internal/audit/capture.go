package audit

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/gosuda/atlasdash/internal/telemetry"
)

// CaptureBackup snapshots the state action is about to change. Actions
// without a registered revert yield Ok(nil). A failed fetch yields a degraded
// nil backup and never blocks the mutation that follows.
func (s *Service) CaptureBackup(ctx context.Context, action string, t Target) Outcome[json.RawMessage] {
	handler, ok := registry[action]
	if !ok {
		return Ok[json.RawMessage](nil)
	}

	raw, err := handler.capture(ctx, s.atlas, t)
	if err != nil {
		log.Warn().Err(err).
			Str("action", action).
			Str("server", t.ServerID).
			Str("path", t.Path).
			Msg("audit: backup capture failed, continuing without backup")
		telemetry.BackupCaptureTotal.WithLabelValues(telemetry.CaptureDegraded).Inc()
		return Degraded[json.RawMessage](nil, err.Error())
	}

	telemetry.BackupCaptureTotal.WithLabelValues(telemetry.CaptureOK).Inc()
	return Ok(raw)
}
