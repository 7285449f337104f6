// Package main is the entry point for the Atlas Nomad API server.
// Its sole responsibility is wiring dependencies together and starting the
// server. No business logic belongs here.
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

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"

	"github.com/atlasnomad/backend/internal/config"
	"github.com/atlasnomad/backend/internal/extractor"
	"github.com/atlasnomad/backend/internal/handler"
	"github.com/atlasnomad/backend/internal/ingest"
	"github.com/atlasnomad/backend/internal/mailbox"
	"github.com/atlasnomad/backend/internal/middleware"
	"github.com/atlasnomad/backend/internal/repo"
	"github.com/atlasnomad/backend/internal/service"
	"github.com/atlasnomad/backend/migrations"
)

// maxBodySize limits request bodies to 1 MiB; no endpoint accepts uploads.
const maxBodySize = 1 << 20

func main() {
	// --- Config -----------------------------------------------------------
	// .env is a local-development convenience; absence is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	// JSON handler writes machine-readable output suitable for log aggregators.
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// --- Database ---------------------------------------------------------
	// pgxpool manages a pool of Postgres connections.
	// New() does not open connections immediately; the first query does.
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Verify the DB is reachable before accepting traffic.
	if err := pool.Ping(context.Background()); err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	slog.Info("database connection established")

	// --- Migrations -------------------------------------------------------
	// Applied at boot from the embedded FS so the binary is self-contained.
	if err := migrate(context.Background(), pool); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// --- Services ---------------------------------------------------------
	tripRepo := repo.NewTripRepo(pool)
	segmentRepo := repo.NewSegmentRepo(pool)
	tripSvc := service.NewTripService(tripRepo)
	segmentSvc := service.NewSegmentService(tripRepo, segmentRepo)

	// --- Email sync -------------------------------------------------------
	// The ingestor is optional: the API runs fine without mailbox or oracle
	// credentials, and POST /sync then reports what is missing.
	ctx, cancelIngest := context.WithCancel(context.Background())
	defer cancelIngest()

	runner := buildRunner(ctx, cfg, tripRepo, segmentRepo, logger)
	if ingestor, ok := runner.(*ingest.Ingestor); ok {
		sched := ingest.NewScheduler(ingestor, cfg.SyncInterval, logger)
		go sched.Start(ctx)
	}

	// --- Router -----------------------------------------------------------
	// Middleware order: RequestID, RealIP, Logger, Recoverer, CORS, body cap.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(maxBodySize))

	server := handler.NewServer(tripSvc, segmentSvc, runner)
	r.Mount("/", server.Routes())

	// --- HTTP Server ------------------------------------------------------
	// Explicit timeouts prevent slowloris and resource exhaustion attacks.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown: wait for OS signal, then give in-flight requests
	// up to 15 seconds to complete before forcefully closing.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("shutting down server")
	cancelIngest()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// migrate applies all pending goose migrations using a database/sql
// connection borrowed from the pgx pool.
func migrate(ctx context.Context, pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		return err
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return err
	}
	for _, res := range results {
		slog.Info("migration applied", "source", res.Source.Path)
	}
	return nil
}

// buildRunner wires the email sync pipeline if mailbox and oracle credentials
// are configured, otherwise returns a Disabled runner carrying the diagnostic.
func buildRunner(ctx context.Context, cfg config.Config, trips repo.TripRepo, segments repo.SegmentRepo, logger *slog.Logger) ingest.Runner {
	if err := cfg.Mailbox.Validate(); err != nil {
		logger.Warn("email sync disabled", "reason", err)
		return ingest.Disabled{Reason: "Email sync is not configured: " + err.Error()}
	}
	if err := cfg.Oracle.Validate(); err != nil {
		logger.Warn("email sync disabled", "reason", err)
		return ingest.Disabled{Reason: "Email sync is not configured: " + err.Error()}
	}

	gm, err := mailbox.NewGmailClient(ctx, cfg.Mailbox.Address,
		cfg.Mailbox.ClientID, cfg.Mailbox.ClientSecret, cfg.Mailbox.RefreshToken, logger)
	if err != nil {
		logger.Error("email sync disabled", "reason", err)
		return ingest.Disabled{Reason: "Email sync is not available: mail client failed to initialize."}
	}

	oracle := extractor.NewOpenAIExtractor(cfg.Oracle.APIKey, cfg.Oracle.BaseURL, cfg.Oracle.Model, logger)
	return ingest.New(gm, oracle, trips, segments, cfg.IngestTimeout, logger)
}
