package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	v1 "github.com/gosuda/atlasdash/internal/api/v1"
	"github.com/gosuda/atlasdash/internal/api/ws"
	"github.com/gosuda/atlasdash/internal/config"
	"github.com/gosuda/atlasdash/internal/domain"
	"github.com/gosuda/atlasdash/internal/server/middleware"
	"github.com/gosuda/atlasdash/internal/telemetry"
)

// Deps are the collaborators the routes are wired to.
type Deps struct {
	Users domain.UserRepository
	Atlas v1.AtlasClient
	Audit v1.AuditService
	// PubSub feeds the live audit streams. The /ws routes are not mounted
	// when it is nil.
	PubSub ws.Subscriber
	// WebAssets holds the built dashboard. When set it is served on every
	// unmatched route.
	WebAssets fs.FS
}

// Server is the HTTP server that wires all application routes and middleware.
type Server struct {
	router     chi.Router
	httpServer *http.Server
}

// New creates a Server with all routes wired. ctx bounds the background
// sweepers of the rate limiters.
func New(ctx context.Context, cfg *config.Config, deps Deps) *Server {
	router := chi.NewRouter()

	// Global middleware stack.
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(middleware.Provenance())
	router.Use(chimw.Recoverer)
	router.Use(telemetry.Middleware)
	router.Use(cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler)

	s := &Server{
		router: router,
		httpServer: &http.Server{
			Addr:         cfg.Server.Addr,
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
	}

	opts := v1.Options{LogReads: cfg.Audit.LogReads}

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimitByIP(ctx, cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst))
		r.Use(middleware.Auth(cfg.JWT.Secret, deps.Users))
		r.Use(middleware.RequireRole(middleware.RoleAdmin, middleware.RoleMember, middleware.RoleViewer))
		r.Use(middleware.RateLimit(ctx, cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst))

		apiConfig := huma.DefaultConfig("Atlas Dashboard API", "1.0.0")
		apiConfig.Servers = []*huma.Server{
			{URL: "/api/v1"},
		}
		api := humachi.New(r, apiConfig)
		registerAPIRoutes(api, deps, opts)
	})

	if deps.PubSub != nil {
		hub := ws.NewHub(deps.PubSub)
		router.Route("/ws", func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT.Secret, deps.Users))
			registerWSRoutes(r, hub)
		})
	}

	// Health check (unauthenticated).
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	router.Handle("/metrics", promhttp.Handler())

	// Must stay last so the API and WS routes take priority.
	if deps.WebAssets != nil {
		router.NotFound(spaFileServer(deps.WebAssets).ServeHTTP)
		log.Info().Msg("dashboard assets enabled")
	}

	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Start begins listening for HTTP requests.
func (s *Server) Start(_ context.Context) error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.Start: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}
