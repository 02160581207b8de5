// Copyright (c) 2026 Sonora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the Sonora HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool).
//  4. Run database migrations (idempotent).
//  5. Select the grant store (Postgres, Redis, or memory).
//  6. Wire the token codec, authorization policy, and domain handlers.
//  7. Run the HTTP server and the grant sweeper until a signal arrives.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/taibuivan/sonora/internal/api"
	"github.com/taibuivan/sonora/internal/catalog/song"
	"github.com/taibuivan/sonora/internal/download"
	"github.com/taibuivan/sonora/internal/platform/authz"
	"github.com/taibuivan/sonora/internal/platform/config"
	"github.com/taibuivan/sonora/internal/platform/constants"
	"github.com/taibuivan/sonora/internal/platform/events"
	"github.com/taibuivan/sonora/internal/platform/metrics"
	"github.com/taibuivan/sonora/internal/platform/migration"
	pgstore "github.com/taibuivan/sonora/internal/platform/postgres"
	redisstore "github.com/taibuivan/sonora/internal/platform/redis"
	"github.com/taibuivan/sonora/internal/platform/sec"
	"github.com/taibuivan/sonora/internal/users/account"
	"github.com/taibuivan/sonora/internal/users/auth"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	log := newLogger(slog.LevelInfo)
	slog.SetDefault(log)

	log.Info("service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		log = newLogger(slog.LevelDebug)
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.String("grant_store", cfg.GrantStore),
		slog.Bool("events_enabled", cfg.EventsEnabled()),
	)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing_postgres_pool")
		pool.Close()
	}()

	// ── 4. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 5. Grant Store ────────────────────────────────────────────────────
	health := api.HealthDependencies{
		CheckDatabase: pgstore.Check(pool),
	}

	grantStore, closeStore := openGrantStore(startupCtx, cfg, pool, log, &health)
	defer closeStore()

	// ── 6. Security ───────────────────────────────────────────────────────
	codec, err := sec.NewTokenCodec(cfg.JWTSecret, constants.AuthIssuer, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)
	must(log, err, "initialize token codec")

	// ── 7. Events & Metrics ───────────────────────────────────────────────
	var publisher events.Publisher = events.Noop{}
	if cfg.EventsEnabled() {
		publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, log)
	}
	defer func() {
		if cerr := publisher.Close(); cerr != nil {
			log.Error("event_publisher_close_failed", slog.Any("error", cerr))
		}
	}()

	telemetry := metrics.New()

	// ── 8. Domain Wiring ──────────────────────────────────────────────────
	accountService := account.NewService(account.NewAccountRepository(pool), log)
	authService := auth.NewService(auth.NewUserRepository(pool), codec)
	songService := song.NewService(song.NewPostgresRepository(pool))

	policy, err := authz.NewPolicy(authz.DefaultRules(constants.APIPrefix), accountService)
	must(log, err, "build authorization policy")

	grantManager := download.NewManager(grantStore, accountService, songService, cfg.GrantTTL,
		download.WithPublisher(publisher),
		download.WithRecorder(telemetry),
		download.WithBaseURL(cfg.PublicBaseURL),
	)

	liveness, readiness := api.NewHealthHandlers(health, log)

	server := api.NewServer(cfg, log, api.Guards{Verifier: codec, Policy: policy}, telemetry, api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Auth:      auth.NewHandler(authService),
		Songs:     song.NewHandler(songService),
		Accounts:  account.NewHandler(accountService),
		Download:  download.NewHandler(grantManager, download.NewHTTPFetcher(cfg.AssetFetchTimeout)),
	})

	sweeper := download.NewSweeper(grantManager, cfg.GrantSweepInterval, log)

	// ── 9. Run & Graceful Shutdown ────────────────────────────────────────
	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	group, groupCtx := errgroup.WithContext(runCtx)

	group.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		return sweeper.Run(groupCtx)
	})

	group.Go(func() error {
		<-groupCtx.Done()
		log.Info("shutting_down_server", slog.Duration("timeout", constants.ShutdownTimeout))
		return server.Shutdown(constants.ShutdownTimeout)
	})

	if err := group.Wait(); err != nil {
		log.Error("server_stopped_with_error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server_stopped_cleanly")
}

// newLogger builds the JSON logger every entry of which carries the app name.
func newLogger(level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With(slog.String("app", "sonora"))
}

// openGrantStore selects the configured [download.GrantStore].
//
// A Redis store also registers its readiness probe. The returned func
// releases the store's resources.
func openGrantStore(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, log *slog.Logger, health *api.HealthDependencies) (download.GrantStore, func()) {
	switch cfg.GrantStore {
	case config.GrantStoreRedis:
		client, err := redisstore.NewClient(ctx, cfg.RedisURL, log, download.RedisScripts()...)
		must(log, err, "connect to redis")

		health.CheckCache = redisstore.Check(client)

		return download.NewRedisStore(client), func() { closeRedis(log, client) }

	case config.GrantStoreMemory:
		log.Warn("grant_store_in_memory", slog.String("note", "grants do not survive a restart"))
		return download.NewMemoryStore(), func() {}

	default:
		return download.NewPostgresStore(pool), func() {}
	}
}

func closeRedis(log *slog.Logger, client *goredis.Client) {
	log.Info("closing_redis_client")
	if cerr := client.Close(); cerr != nil {
		log.Error("redis_close_failed", slog.Any("error", cerr))
	}
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is limited to startup wiring. After startup, all errors are returned
// and handled explicitly.
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup_failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
