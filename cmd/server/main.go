package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/technomatra/missions/internal/config"
	"github.com/technomatra/missions/internal/database"
	"github.com/technomatra/missions/internal/handler/health"
	"github.com/technomatra/missions/internal/handler/live"
	"github.com/technomatra/missions/internal/migrations"
	"github.com/technomatra/missions/internal/missions"
	"github.com/technomatra/missions/internal/server"
	"github.com/technomatra/missions/internal/sessions"
	"github.com/technomatra/missions/internal/store"
	"github.com/technomatra/missions/internal/timers"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	checks := map[string]health.Checker{}

	// --- Document store ---
	var (
		docs missions.Store
		db   *sql.DB
	)
	switch cfg.StoreBackend {
	case config.BackendLibSQL:
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return fmt.Errorf("creating db dir: %w", err)
		}
		db, err = database.Open(ctx, cfg.DBPath)
		if err != nil {
			return fmt.Errorf("connecting to libsql: %w", err)
		}
		defer db.Close()

		if err := migrations.Run(db); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		s := store.NewLibSQLStore(db)
		docs, checks["store"] = s, s
		logger.Info("using libsql store", "path", cfg.DBPath)
	default:
		s, err := store.NewFileStore(cfg.DataFile, logger)
		if err != nil {
			return fmt.Errorf("opening data file: %w", err)
		}
		docs, checks["store"] = s, s
		logger.Info("using file store", "path", cfg.DataFile)
	}

	if cfg.SeedDemo {
		if err := store.SeedDemo(ctx, logger, docs); err != nil {
			return fmt.Errorf("seeding demo missions: %w", err)
		}
	}

	// --- Timer store ---
	var (
		deadlines missions.TimerStore = timers.NewMemoryStore()
		rdb       *redis.Client
	)
	if cfg.RedisURL != "" {
		rdb, err = timers.Open(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer rdb.Close()

		rs := timers.NewRedisStore(rdb, "missions:")
		deadlines, checks["timers"] = rs, rs
		logger.Info("connected to redis")
	}

	// --- Admin sessions ---
	var adminSessions server.SessionStore = sessions.NewMemoryStore(server.AdminSessionTTL)
	switch {
	case rdb != nil:
		adminSessions = sessions.NewRedisStore(rdb, "missions:", server.AdminSessionTTL)
	case db != nil:
		adminSessions = sessions.NewLibSQLStore(db, server.AdminSessionTTL)
	}

	if err := os.MkdirAll(cfg.UploadsDir, 0o755); err != nil {
		return fmt.Errorf("creating uploads dir: %w", err)
	}

	creds, err := missions.NewCredentials(cfg.AdminUsername, cfg.AdminPassword, cfg.OperativePassphrase)
	if err != nil {
		return err
	}

	broker := server.NewBroker()
	svc := missions.NewService(docs, deadlines, creds, missions.Rules{
		MaxWrongAttempts:   cfg.MaxWrongAttempts,
		ExtractionDuration: cfg.ExtractionDuration(),
	}, missions.WithPublisher(broker))

	// --- HTTP Server ---
	srv := server.New(cfg.HTTPAddr, logger, server.Deps{
		Service:    svc,
		Sessions:   adminSessions,
		Live:       live.NewHandler(logger, broker),
		PublicDir:  cfg.PublicDir,
		UploadsDir: cfg.UploadsDir,
	}, func(r chi.Router) {
		r.Mount("/healthz", health.NewHandler(logger, checks).Routes())
		r.Handle("/metrics", promhttp.Handler())
	})

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}
