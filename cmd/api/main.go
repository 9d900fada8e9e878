// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the bookshelf user service.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from the environment (and an optional .env file).
//  3. Select the account store: PostgreSQL with migrations, or in-memory.
//  4. Build the password hasher and token codec.
//  5. Start the purchase listener under a supervisor when a bus is configured.
//  6. Wire HTTP handlers.
//  7. Start HTTP server with graceful shutdown.
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

	goredis "github.com/redis/go-redis/v9"
	"github.com/thejerf/suture/v4"

	"github.com/taibuivan/bookshelf-users/internal/api"
	"github.com/taibuivan/bookshelf-users/internal/platform/config"
	"github.com/taibuivan/bookshelf-users/internal/platform/constants"
	"github.com/taibuivan/bookshelf-users/internal/platform/middleware"
	"github.com/taibuivan/bookshelf-users/internal/platform/migration"
	pgstore "github.com/taibuivan/bookshelf-users/internal/platform/postgres"
	redisstore "github.com/taibuivan/bookshelf-users/internal/platform/redis"
	"github.com/taibuivan/bookshelf-users/internal/platform/sec"
	"github.com/taibuivan/bookshelf-users/internal/users/account"
	"github.com/taibuivan/bookshelf-users/internal/users/auth"
	"github.com/taibuivan/bookshelf-users/internal/users/purchase"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	log := newLogger(slog.LevelInfo)
	slog.SetDefault(log)

	log.Info("service_initializing", slog.String("version", constants.AppVersion))

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
		slog.Bool("postgres", cfg.UsesPostgres()),
		slog.Bool("message_bus", cfg.UsesMessageBus()),
	)

	// Misconfigured backends fail fast instead of hanging startup.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), constants.StartupTimeout)
	defer startupCancel()

	health := api.HealthDependencies{}

	// ── 3. Account Store ──────────────────────────────────────────────────
	var store *account.Store
	if cfg.UsesPostgres() {
		must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

		pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
		must(log, err, "connect to postgres")
		defer func() {
			log.Info("closing_postgres_pool")
			pool.Close()
		}()

		store = account.NewPostgresStore(pool)
		health.CheckDatabase = func(ctx context.Context) error {
			return pgstore.Ping(ctx, pool)
		}
	} else {
		log.Warn("account_store_in_memory", slog.String("reason", "DATABASE_URL not set"))
		store = account.NewMemoryStore()
	}

	// ── 4. Security ───────────────────────────────────────────────────────
	hasher := sec.NewBcryptHasher(cfg.BcryptCost)

	codec, err := sec.NewTokenCodec(cfg.JWTSecret, cfg.TokenTTL())
	must(log, err, "initialize token codec")
	log.Info("token_codec_ready", slog.Duration("ttl", codec.TTL()))

	// ── 5. Purchase Listener ──────────────────────────────────────────────
	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	var supervisorDone <-chan error
	if cfg.UsesMessageBus() {
		client, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
		must(log, err, "connect to redis")
		defer closeRedis(log, client)

		health.CheckMessageBus = func(ctx context.Context) error {
			return redisstore.Ping(ctx, client)
		}

		supervisor := suture.New("purchase supervisor", suture.Spec{
			EventHook: func(event suture.Event) {
				log.Warn("supervisor_event", slog.String("event", event.String()))
			},
		})
		supervisor.Add(purchase.NewConsumer(
			client,
			cfg.PurchaseChannel,
			purchase.NewUserLookupHandler(store.Users, log),
			log,
		))
		supervisorDone = supervisor.ServeBackground(rootCtx)
	}

	// ── 6. Domain Wiring ──────────────────────────────────────────────────
	registrationService := auth.NewRegistrationService(store, hasher, log)
	loginService := auth.NewLoginService(store.Users, hasher, codec, log)
	usersHandler := auth.NewHandler(registrationService, loginService)

	liveness, readiness := api.NewHealthHandlers(health, log)

	// ── 7. HTTP Server ────────────────────────────────────────────────────
	server := api.NewServer(cfg, log, codec, middleware.DefaultPolicy(), api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Users:     usersHandler,
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown_signal_received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server_startup_error", slog.Any("error", err))
	}

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting_down_server", slog.Duration("timeout", shutdownTimeout))

	shutdownErr := server.Shutdown(shutdownTimeout)

	rootCancel()
	if supervisorDone != nil {
		if err := <-supervisorDone; err != nil && !errors.Is(err, context.Canceled) {
			log.Error("supervisor_stopped_with_error", slog.Any("error", err))
		}
	}

	if shutdownErr != nil {
		log.Error("shutdown_error", slog.Any("error", shutdownErr))
		os.Exit(1)
	}

	log.Info("server_stopped_cleanly")
}

// newLogger builds the process-wide JSON logger at the given level.
func newLogger(level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With(slog.String("app", constants.AppName))
}

func closeRedis(log *slog.Logger, client *goredis.Client) {
	log.Info("closing_redis_client")
	if err := client.Close(); err != nil {
		log.Error("redis_close_error", slog.Any("error", err))
	}
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is limited to startup wiring. After startup, all errors are returned and
// handled explicitly.
func must(log *slog.Logger, err error, step string) {
	if err != nil {
		log.Error("startup_failure",
			slog.String("step", step),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
