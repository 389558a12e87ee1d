package server

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	v1 "github.com/gosuda/atlasdash/internal/api/v1"
	"github.com/gosuda/atlasdash/internal/api/ws"
)

func registerAPIRoutes(api huma.API, deps Deps, opts v1.Options) {
	v1.RegisterServerRoutes(api, deps.Atlas, deps.Audit)
	v1.RegisterFileRoutes(api, deps.Atlas, deps.Audit, opts)
	v1.RegisterTemplateRoutes(api, deps.Atlas, deps.Audit, opts)
	v1.RegisterGroupRoutes(api, deps.Atlas, deps.Audit)
	v1.RegisterAuditRoutes(api, deps.Audit)
}

func registerWSRoutes(r chi.Router, hub *ws.Hub) {
	r.Get("/audit", hub.ServeAudit)
	r.Get("/audit/{resourceType}/{resourceID}", hub.ServeResourceAudit)
}
