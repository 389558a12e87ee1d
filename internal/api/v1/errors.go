package v1

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/atlasdash/internal/domain"
	"github.com/gosuda/atlasdash/internal/server/middleware"
)

// requireWrite rejects callers whose role may only read. Every audited
// mutation checks it before touching Atlas.
func requireWrite(ctx context.Context) error {
	if !middleware.HasRole(ctx, middleware.WriteRoles...) {
		return huma.Error403Forbidden("insufficient permissions")
	}
	return nil
}

// atlasError maps an Atlas client error onto a problem response. Errors the
// client could not attribute to a request problem surface as 502.
func atlasError(err error, what string) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return huma.Error404NotFound(what + " not found")
	case errors.Is(err, domain.ErrInvalidInput):
		return huma.Error400BadRequest(err.Error())
	case errors.Is(err, domain.ErrConflict):
		return huma.Error409Conflict(err.Error())
	default:
		return huma.Error502BadGateway("atlas request failed", err)
	}
}

func queryError(err error) error {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return huma.Error401Unauthorized("authentication required")
	case errors.Is(err, domain.ErrInvalidInput):
		return huma.Error400BadRequest(err.Error())
	default:
		return huma.Error500InternalServerError("failed to list audit logs", err)
	}
}
