// Package audit records every mutating Atlas operation, snapshots the state
// needed to reverse the restorable ones, and replays those reversals on
// request.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/gosuda/atlasdash/internal/domain"
)

// AtlasAPI is the subset of the Atlas client used for identity resolution,
// backup capture and restore replay. *atlas.Client satisfies this interface.
type AtlasAPI interface {
	GetServer(ctx context.Context, locator string) (*domain.Server, error)
	ListServers(ctx context.Context) ([]*domain.Server, error)

	GetServerFileContents(ctx context.Context, server, path string) (string, error)
	WriteServerFileContents(ctx context.Context, server, path, content string) error
	RenameServerFile(ctx context.Context, server, oldPath, newPath string) error

	GetTemplateFileContents(ctx context.Context, path string) (string, error)
	WriteTemplateFileContents(ctx context.Context, path, content string) error
	RenameTemplateFile(ctx context.Context, oldPath, newPath string) error
}

// Publisher fans recorded entries out to live subscribers.
type Publisher interface {
	PublishAudit(ctx context.Context, entry *domain.AuditEntry) error
}

// ActorFunc returns the authenticated user of ctx. Operations without an
// actor are not audited.
type ActorFunc func(ctx context.Context) (uuid.UUID, bool)

// Provenance is the request origin stored with each entry.
type Provenance struct {
	IPAddress string
	UserAgent string
}

type ProvenanceFunc func(ctx context.Context) Provenance

const (
	// TemplateResourceID is the resource id of every template entry;
	// templates are global.
	TemplateResourceID = "global"

	unknownProvenance = "unknown"

	defaultPageLimit = 50
	maxPageLimit     = 100
)

type Config struct {
	Actor      ActorFunc
	Provenance ProvenanceFunc
	Publisher  Publisher // optional
	// PageLimitMax caps the page size of the query service. Defaults to 100.
	PageLimitMax int
	Now          func() time.Time
}

// Service is the audit engine: logger, backup capture, restore executor and
// query service over one AuditRepository.
type Service struct {
	repo       domain.AuditRepository
	atlas      AtlasAPI
	resolver   *Resolver
	actor      ActorFunc
	provenance ProvenanceFunc
	publisher  Publisher
	limitMax   int
	now        func() time.Time
}

func NewService(repo domain.AuditRepository, api AtlasAPI, cfg Config) *Service {
	s := &Service{
		repo:       repo,
		atlas:      api,
		resolver:   NewResolver(api),
		actor:      cfg.Actor,
		provenance: cfg.Provenance,
		publisher:  cfg.Publisher,
		limitMax:   cfg.PageLimitMax,
		now:        cfg.Now,
	}

	if s.actor == nil {
		s.actor = func(context.Context) (uuid.UUID, bool) { return uuid.Nil, false }
	}
	if s.provenance == nil {
		s.provenance = func(context.Context) Provenance { return Provenance{} }
	}
	if s.limitMax <= 0 {
		s.limitMax = maxPageLimit
	}
	if s.now == nil {
		s.now = time.Now
	}

	return s
}

// Resolver returns the identity resolver used by the service.
func (s *Service) Resolver() *Resolver { return s.resolver }
