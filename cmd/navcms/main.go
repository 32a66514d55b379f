// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/olegiv/navcms/internal/cache"
	"github.com/olegiv/navcms/internal/config"
	"github.com/olegiv/navcms/internal/handler"
	"github.com/olegiv/navcms/internal/handler/api"
	"github.com/olegiv/navcms/internal/i18n"
	"github.com/olegiv/navcms/internal/logging"
	"github.com/olegiv/navcms/internal/metrics"
	"github.com/olegiv/navcms/internal/middleware"
	"github.com/olegiv/navcms/internal/navigation"
	"github.com/olegiv/navcms/internal/scheduler"
	"github.com/olegiv/navcms/internal/store"
	"github.com/olegiv/navcms/internal/version"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

// requestTimeout bounds every request.
const requestTimeout = 30 * time.Second

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "navcms - bilingual navigation manager\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  NAVCMS_SECRET_KEY      Secret key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  NAVCMS_DB_PATH         SQLite database path (default: ./data/navcms.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  NAVCMS_SERVER_PORT     Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  NAVCMS_ENV             Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  NAVCMS_REDIS_URL       Redis URL for the tree cache (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  NAVCMS_DO_SEED         Create the admin user and default menu\n")
	}
	flag.Parse()

	info := version.New(appVersion, appGitCommit, appBuildTime)
	if *showVersion {
		_, _ = fmt.Printf("navcms %s\n", info.String())
		os.Exit(0)
	}

	if err := run(info); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run(info version.Info) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	if err := i18n.Init(logger); err != nil {
		return fmt.Errorf("initializing i18n: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	// WARN and above also go to the event log from here on
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})
	logger = slog.New(logging.NewEventLogHandler(textHandler, db))
	slog.SetDefault(logger)

	ctx := context.Background()
	if cfg.DoSeed {
		if err := store.Seed(ctx, db, store.SeedOptions{
			AdminEmail:    cfg.AdminEmail,
			AdminPassword: cfg.AdminPassword,
		}); err != nil {
			return fmt.Errorf("seeding database: %w", err)
		}
	}

	backend, backendName := cache.NewCache(cache.Config{
		RedisURL:   cfg.RedisURL,
		Prefix:     cfg.CachePrefix,
		DefaultTTL: cfg.CacheTTLDuration(),
		MaxSize:    cfg.CacheMaxSize,
	})
	defer func() { _ = backend.Close() }()
	metrics.SetCacheBackend(backendName)

	login := middleware.NewLoginProtection(middleware.LoginProtectionConfig{
		IPRateLimit: cfg.LoginRateLimit,
		IPBurst:     cfg.LoginRateBurst,
	})
	defer login.Close()

	sched, err := scheduler.New(db, logger, scheduler.Options{EventRetention: cfg.EventRetention()})
	if err != nil {
		return fmt.Errorf("creating scheduler: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	r := newRouter(routerDeps{
		cfg:     cfg,
		db:      db,
		backend: backend,
		login:   login,
		version: info,
		logger:  logger,
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      requestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env, "version", info.Version, "cache", backendName)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serveErr:
		return fmt.Errorf("server error: %w", err)
	}

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

// routerDeps holds what newRouter wires together.
type routerDeps struct {
	cfg     *config.Config
	db      *sql.DB
	backend cache.Cacher
	login   *middleware.LoginProtection
	version version.Info
	logger  *slog.Logger
}

func newRouter(d routerDeps) chi.Router {
	trees := cache.NewNavigationCache[[]*navigation.Node](d.backend, d.cfg.CacheTTLDuration())
	nav := navigation.NewService(d.db, trees, d.logger)

	health := handler.NewHealthHandler(d.db, d.backend, d.version)

	apiHandler := api.NewHandler(api.Config{
		DB:         d.db,
		Navigation: nav,
		TreeCache:  trees,
		Login:      d.login,
		TokenTTL:   d.cfg.TokenTTL,
	})
	ipLimiter := middleware.NewGlobalRateLimiter(d.cfg.IPRateLimit, d.cfg.IPRateBurst)

	securityCfg := middleware.DefaultSecurityHeadersConfig(d.cfg.IsDevelopment())
	securityCfg.ExcludePaths = []string{"/metrics"}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(requestTimeout))
	r.Use(metrics.Middleware)
	r.Use(middleware.RequestInfo)
	r.Use(middleware.Language)
	r.Use(middleware.SecurityHeaders(securityCfg))

	r.Get("/health", health.Health)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)
	r.Handle("/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(ipLimiter.Middleware())
		apiHandler.Routes(r, api.RouteOptions{
			RateLimit: d.cfg.APIRateLimit,
			RateBurst: d.cfg.APIRateBurst,
			CSRF: middleware.CSRF(middleware.DefaultCSRFConfig(
				[]byte(d.cfg.SecretKey), d.cfg.TrustedOrigins, d.cfg.IsDevelopment())),
		})
	})

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		middleware.WriteAPIError(w, req, http.StatusNotFound, "request.not_found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		middleware.WriteAPIError(w, req, http.StatusMethodNotAllowed, "request.method_not_allowed")
	})

	return r
}
