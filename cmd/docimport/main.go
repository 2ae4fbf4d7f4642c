// Command docimport copies an existing data.json document into the libSQL
// backend, replacing whatever document the database holds.
//
//	DB_PATH=data/missions.db docimport [path/to/data.json]
//
// Without an argument the file named by DATA_FILE is imported.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/technomatra/missions/internal/config"
	"github.com/technomatra/missions/internal/database"
	"github.com/technomatra/missions/internal/migrations"
	"github.com/technomatra/missions/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	src := cfg.DataFile
	if len(args) > 0 {
		src = args[0]
	}
	if _, err := os.Stat(src); err != nil {
		return fmt.Errorf("reading %s: %w", src, err)
	}

	fs, err := store.NewFileStore(src, logger)
	if err != nil {
		return err
	}
	doc, err := fs.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading %s: %w", src, err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return fmt.Errorf("creating db dir: %w", err)
	}
	db, err := database.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("connecting to libsql: %w", err)
	}
	defer db.Close()

	if err := migrations.Run(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	if err := store.NewLibSQLStore(db).Replace(ctx, doc); err != nil {
		return fmt.Errorf("writing document: %w", err)
	}

	logger.Info("document imported",
		"from", src,
		"to", cfg.DBPath,
		"users", len(doc.Users),
		"tasks", len(doc.Tasks),
	)
	return nil
}
