package audit

import (
	"context"
	"encoding/json"
	"maps"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/atlasdash/internal/domain"
	"github.com/gosuda/atlasdash/internal/telemetry"
)

// Record is a single LogAction request.
type Record struct {
	Action       string
	ResourceType domain.ResourceType
	ResourceID   string
	// Details is the operation input. A "server" key triggers identity
	// enrichment for server and file entries.
	Details map[string]any
	Backup  json.RawMessage
	// RestorePossible overrides the registry when set.
	RestorePossible *bool
	Success         bool
	ErrorMessage    string
}

// Operation describes one audited Atlas call for Track.
type Operation struct {
	Action       string
	ResourceType domain.ResourceType
	ResourceID   string
	Details      map[string]any
	Target       Target // backup locator, used for restorable actions only
}

// LogAction writes one audit entry. It never fails the caller: a missing
// actor is a no-op returning Ok(nil), a storage failure is logged and
// returned as a degraded outcome. A written entry whose server identity
// could not be resolved is returned degraded as well.
func (s *Service) LogAction(ctx context.Context, rec Record) Outcome[*domain.AuditEntry] {
	actor, ok := s.actor(ctx)
	if !ok {
		return Ok[*domain.AuditEntry](nil)
	}

	details := make(map[string]any, len(rec.Details)+3)
	maps.Copy(details, rec.Details)

	entry := &domain.AuditEntry{
		ID:           uuid.New(),
		UserID:       actor,
		Action:       rec.Action,
		ResourceType: rec.ResourceType,
		ResourceID:   rec.ResourceID,
		Details:      details,
		Timestamp:    s.now().UTC(),
		Success:      rec.Success,
		ErrorMessage: rec.ErrorMessage,
	}
	// Backups only exist for actions the registry can replay.
	if len(rec.Backup) > 0 && IsRestorable(rec.Action) {
		entry.BackupData = rec.Backup
	}

	var identityReason string
	switch rec.ResourceType {
	case domain.ResourceServer, domain.ResourceFile:
		if locator, ok := details["server"].(string); ok && locator != "" {
			identityReason = s.enrichServer(ctx, entry, locator)
		}
	case domain.ResourceTemplate:
		entry.ResourceID = TemplateResourceID
	}

	entry.RestorePossible = IsRestorable(rec.Action)
	if rec.RestorePossible != nil {
		entry.RestorePossible = *rec.RestorePossible
	}

	prov := s.provenance(ctx)
	entry.IPAddress = orUnknown(prov.IPAddress)
	entry.UserAgent = orUnknown(prov.UserAgent)

	if err := s.repo.Record(ctx, entry); err != nil {
		log.Error().Err(err).
			Str("action", entry.Action).
			Str("resource_type", string(entry.ResourceType)).
			Str("resource_id", entry.ResourceID).
			Msg("audit: failed to write audit entry")
		telemetry.AuditWriteFailuresTotal.Inc()
		return Degraded[*domain.AuditEntry](nil, "write audit entry: "+err.Error())
	}

	telemetry.ObserveAuditEntry(entry.Action, entry.Success)
	s.publish(ctx, entry)

	if identityReason != "" {
		return Degraded(entry, identityReason)
	}
	return Ok(entry)
}

// enrichServer sets the canonical resource id and the serverId, serverName
// and serverType details. On lookup failure the raw locator becomes the
// resource id and the reason is returned.
func (s *Service) enrichServer(ctx context.Context, entry *domain.AuditEntry, locator string) string {
	out := s.resolver.Resolve(ctx, locator)
	if out.IsDegraded() {
		entry.ResourceID = locator
		return out.Reason()
	}

	id := out.Value()
	entry.ResourceID = id.Canonical()
	entry.Details["serverId"] = id.ID
	entry.Details["serverName"] = id.Name
	entry.Details["serverType"] = string(id.Type)
	return ""
}

func (s *Service) publish(ctx context.Context, entry *domain.AuditEntry) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishAudit(ctx, entry); err != nil {
		log.Warn().Err(err).Str("audit_id", entry.ID.String()).Msg("audit: failed to publish entry")
	}
}

// Track runs call as an audited operation: capture a backup when the action
// is restorable, run call, then log the result. The error returned is always
// call's own; audit failures are only logged. Without an actor, call runs
// unaudited.
func (s *Service) Track(ctx context.Context, op Operation, call func(ctx context.Context) error) error {
	if _, ok := s.actor(ctx); !ok {
		return call(ctx)
	}

	var backup json.RawMessage
	if IsRestorable(op.Action) {
		backup = s.CaptureBackup(ctx, op.Action, op.Target).Value()
	}

	callErr := call(ctx)

	rec := Record{
		Action:       op.Action,
		ResourceType: op.ResourceType,
		ResourceID:   op.ResourceID,
		Details:      op.Details,
		Backup:       backup,
		Success:      callErr == nil,
	}
	if callErr != nil {
		rec.ErrorMessage = callErr.Error()
	}

	// The caller may already be gone; the entry is written regardless.
	s.LogAction(context.WithoutCancel(ctx), rec)

	return callErr
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return unknownProvenance
	}
	return s
}
