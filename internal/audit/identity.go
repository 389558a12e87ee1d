package audit

import (
	"context"
	"fmt"
	"regexp"

	"github.com/rs/zerolog/log"

	"github.com/gosuda/atlasdash/internal/domain"
	"github.com/gosuda/atlasdash/internal/telemetry"
)

// Durable server ids are always UUID-shaped. Anything else is a display name.
var uuidPattern = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

func IsUUID(s string) bool {
	return uuidPattern.MatchString(s)
}

// ServerIdentity is a server as seen at audit time.
type ServerIdentity struct {
	ID     string
	Name   string
	Type   domain.ServerType
	Static bool
}

// Canonical is the form persisted as resourceId: the display name for
// static servers, the durable id for dynamic ones.
func (id ServerIdentity) Canonical() string {
	if id.Static {
		return id.Name
	}
	return id.ID
}

// ServerLookup is the part of the Atlas API the resolver needs.
type ServerLookup interface {
	GetServer(ctx context.Context, locator string) (*domain.Server, error)
	ListServers(ctx context.Context) ([]*domain.Server, error)
}

type Resolver struct {
	api ServerLookup
}

func NewResolver(api ServerLookup) *Resolver {
	return &Resolver{api: api}
}

// Resolve fetches the server behind locator. When Atlas cannot be reached the
// outcome is degraded and the identity carries the unresolved locator as both
// id and name.
func (r *Resolver) Resolve(ctx context.Context, locator string) Outcome[ServerIdentity] {
	srv, err := r.api.GetServer(ctx, locator)
	if err != nil {
		log.Warn().Err(err).Str("server", locator).Msg("audit: server identity lookup failed, using raw locator")
		telemetry.IdentityFallbacksTotal.Inc()
		return Degraded(ServerIdentity{ID: locator, Name: locator, Static: true},
			fmt.Sprintf("resolve server %q: %v", locator, err))
	}

	return Ok(ServerIdentity{
		ID:     srv.ID,
		Name:   srv.Name,
		Type:   srv.Type,
		Static: srv.Type.IsStatic(),
	})
}

// ServerIDFromName scans the server list for name. The lookup fails for good
// once the server has been renamed or removed.
func (r *Resolver) ServerIDFromName(ctx context.Context, name string) (string, error) {
	servers, err := r.api.ListServers(ctx)
	if err != nil {
		return "", fmt.Errorf("audit.ServerIDFromName: %w", err)
	}

	for _, srv := range servers {
		if srv.Name == name {
			return srv.ID, nil
		}
	}

	return "", fmt.Errorf("audit.ServerIDFromName: no server named %q: %w", name, domain.ErrNotFound)
}

// ResolveServerID turns a stored resourceId back into a durable id.
func (r *Resolver) ResolveServerID(ctx context.Context, resourceID string) (string, error) {
	if IsUUID(resourceID) {
		return resourceID, nil
	}
	return r.ServerIDFromName(ctx, resourceID)
}
