package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/atlasdash/internal/atlas"
	"github.com/gosuda/atlasdash/internal/audit"
	"github.com/gosuda/atlasdash/internal/config"
	"github.com/gosuda/atlasdash/internal/domain"
	"github.com/gosuda/atlasdash/internal/server"
	"github.com/gosuda/atlasdash/internal/server/middleware"
	"github.com/gosuda/atlasdash/internal/store/postgres"
	redisstore "github.com/gosuda/atlasdash/internal/store/redis"
	"github.com/gosuda/atlasdash/internal/store/sqlite"
)

// auditStore is what both store drivers provide.
type auditStore interface {
	Users() domain.UserRepository
	Audit() domain.AuditRepository
	Close() error
}

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
}

func run() error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	setupLogging(cfg.Log)

	store, err := openStore(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("closing audit store")
		}
	}()

	atlasClient, err := atlas.New(atlas.Config{
		BaseURL: cfg.Atlas.BaseURL,
		Token:   cfg.Atlas.APIToken,
		Timeout: cfg.Atlas.Timeout,
		RPS:     cfg.Atlas.RPS,
		Burst:   cfg.Atlas.Burst,
	})
	if err != nil {
		return err
	}

	auditCfg := audit.Config{
		Actor: middleware.UserIDFromContext,
		Provenance: func(ctx context.Context) audit.Provenance {
			ip, ua := middleware.ProvenanceFromContext(ctx)
			return audit.Provenance{IPAddress: ip, UserAgent: ua}
		},
		PageLimitMax: cfg.Audit.PageLimitMax,
	}

	deps := server.Deps{
		Users: store.Users(),
		Atlas: atlasClient,
	}

	if cfg.Redis.Enabled {
		pubsub, redisErr := redisstore.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if redisErr != nil {
			return redisErr
		}
		defer pubsub.Close()

		auditCfg.Publisher = pubsub
		deps.PubSub = pubsub
	} else {
		log.Info().Msg("redis disabled, live audit streams are off")
	}

	deps.Audit = audit.NewService(store.Audit(), atlasClient, auditCfg)

	if cfg.Server.WebDir != "" {
		if _, statErr := os.Stat(cfg.Server.WebDir); statErr != nil {
			return fmt.Errorf("web dir: %w", statErr)
		}
		deps.WebAssets = os.DirFS(cfg.Server.WebDir)
	}

	// Graceful shutdown on SIGINT / SIGTERM.
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	srv := server.New(ctx, cfg, deps)

	go func() {
		log.Info().
			Str("addr", cfg.Server.Addr).
			Str("atlas", cfg.Atlas.BaseURL).
			Str("db_driver", cfg.Database.Driver).
			Msg("starting server")
		if startErr := srv.Start(ctx); startErr != nil {
			log.Error().Err(startErr).Msg("server error")
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		return shutdownErr
	}

	log.Info().Msg("stopped")
	return nil
}

func setupLogging(cfg config.LogConfig) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "text" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
}

func openStore(ctx context.Context, cfg config.DatabaseConfig) (auditStore, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		store, err := sqlite.New(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		if cfg.MaxConns < 0 || cfg.MaxConns > math.MaxInt32 {
			return nil, fmt.Errorf("database max_conns %d out of int32 range", cfg.MaxConns)
		}

		store, err := postgres.New(ctx, cfg.DSN(), int32(cfg.MaxConns)) //nolint:gosec // bounds checked above
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close()
			return nil, err
		}
		return store, nil
	}
}
