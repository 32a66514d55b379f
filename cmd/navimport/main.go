// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Command navimport copies the navigation table of the legacy MySQL
// database into the navcms database.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/olegiv/navcms/internal/cache"
	"github.com/olegiv/navcms/internal/config"
	"github.com/olegiv/navcms/internal/legacy"
	"github.com/olegiv/navcms/internal/navigation"
	"github.com/olegiv/navcms/internal/store"
)

// itemSource yields legacy navigation items.
type itemSource interface {
	Items(ctx context.Context) ([]navigation.ImportItem, error)
}

// importer stores a batch of items.
type importer interface {
	Import(ctx context.Context, items []navigation.ImportItem, opts navigation.ImportOptions) (navigation.ImportResult, error)
}

func main() {
	dsn := flag.String("dsn", "", "Legacy MySQL DSN, e.g. user:pass@tcp(host:3306)/db (required)")
	table := flag.String("table", legacy.DefaultTable, "Legacy navigation table")
	dryRun := flag.Bool("dry-run", false, "Validate and report without writing")
	flag.Parse()

	if *dsn == "" {
		flag.Usage()
		os.Exit(2)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *dsn, *table, *dryRun, logger); err != nil {
		slog.Error("import failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, dsn, table string, dryRun bool, logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	reader, err := legacy.NewReader(ctx, dsn, table)
	if err != nil {
		return err
	}
	defer func() { _ = reader.Close() }()

	trees, closeTrees := sharedTreeCache(cfg)
	defer closeTrees()
	svc := navigation.NewService(db, trees, logger)

	result, err := importItems(ctx, reader, svc, dryRun)
	if err != nil {
		return err
	}
	return printResult(os.Stdout, result)
}

// sharedTreeCache connects to the Redis cache of the running servers so an
// import drops their cached trees. Without Redis there is nothing shared to
// invalidate and it returns nil.
func sharedTreeCache(cfg *config.Config) (navigation.Invalidator, func()) {
	if !cfg.UseRedisCache() {
		return nil, func() {}
	}
	backend, name := cache.NewCache(cache.Config{
		RedisURL:   cfg.RedisURL,
		Prefix:     cfg.CachePrefix,
		DefaultTTL: cfg.CacheTTLDuration(),
	})
	if name != "redis" {
		_ = backend.Close()
		slog.Warn("servers keep their cached navigation until it expires", "ttl", cfg.CacheTTLDuration())
		return nil, func() {}
	}
	trees := cache.NewNavigationCache[[]*navigation.Node](backend, cfg.CacheTTLDuration())
	return trees, func() { _ = backend.Close() }
}

func importItems(ctx context.Context, src itemSource, dst importer, dryRun bool) (navigation.ImportResult, error) {
	items, err := src.Items(ctx)
	if err != nil {
		return navigation.ImportResult{}, err
	}
	slog.Info("read legacy navigation", "items", len(items), "dry_run", dryRun)

	result, err := dst.Import(ctx, items, navigation.ImportOptions{DryRun: dryRun})
	if err != nil {
		return navigation.ImportResult{}, fmt.Errorf("importing %d items: %w", len(items), err)
	}
	return result, nil
}

func printResult(w io.Writer, result navigation.ImportResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
