// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler provides the service health endpoints.
package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/olegiv/navcms/internal/cache"
	"github.com/olegiv/navcms/internal/model"
	"github.com/olegiv/navcms/internal/store"
	"github.com/olegiv/navcms/internal/version"
)

// Check statuses.
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
	StatusDegraded  = "degraded"
)

// checkTimeout bounds each dependency check.
const checkTimeout = 2 * time.Second

// Pinger is a dependency that can report its reachability, such as the
// Redis cache.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	db         *sql.DB
	cache      Pinger
	cacheStats cache.StatsProvider
	version    version.Info
	startTime  time.Time
}

// NewHealthHandler creates a new health handler. backend may be nil. A
// backend that can be pinged gets a cache check, and one that keeps
// statistics has them reported.
func NewHealthHandler(db *sql.DB, backend cache.Cacher, info version.Info) *HealthHandler {
	h := &HealthHandler{
		db:        db,
		version:   info,
		startTime: time.Now(),
	}
	if p, ok := backend.(Pinger); ok {
		h.cache = p
	}
	if sp, ok := backend.(cache.StatsProvider); ok {
		h.cacheStats = sp
	}
	return h
}

// HealthStatus represents the overall health status.
type HealthStatus struct {
	Status    string           `json:"status"`
	Timestamp time.Time        `json:"timestamp"`
	Uptime    string           `json:"uptime"`
	Version   string           `json:"version"`
	Checks    map[string]Check `json:"checks"`
	Cache     *cache.Stats     `json:"cache,omitempty"`
}

// Check represents a single health check result.
type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// Health handles GET /health. The database is required; an unreachable
// cache only degrades the service.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	checks := map[string]Check{
		"database": h.checkDatabase(r.Context()),
	}
	if h.cache != nil {
		checks["cache"] = h.checkCache(r.Context())
	}

	overall := StatusHealthy
	statusCode := http.StatusOK
	switch {
	case checks["database"].Status != StatusHealthy:
		overall = StatusUnhealthy
		statusCode = http.StatusServiceUnavailable
	case h.cache != nil && checks["cache"].Status != StatusHealthy:
		overall = StatusDegraded
	}

	resp := HealthStatus{
		Status:    overall,
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Version:   h.version.Version,
		Checks:    checks,
	}
	if h.cacheStats != nil {
		stats := h.cacheStats.Stats()
		resp.Cache = &stats
	}
	writeJSON(w, statusCode, resp)
}

// Liveness handles GET /health/live - simple liveness check.
func (h *HealthHandler) Liveness(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "alive",
	})
}

// Readiness handles GET /health/ready - checks if the service is ready to accept traffic.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.checkDatabase(r.Context()).Status != StatusHealthy {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}

// checkDatabase verifies database connectivity and reports the schema version.
func (h *HealthHandler) checkDatabase(ctx context.Context) Check {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	start := time.Now()
	err := h.db.PingContext(ctx)
	latency := time.Since(start)

	if err != nil {
		slog.ErrorContext(ctx, "health check: database unreachable", "category", model.EventCategorySystem, "error", err)
		return Check{Status: StatusUnhealthy, Message: "unreachable", Latency: latency.String()}
	}

	message := "connected"
	if v, err := store.MigrationVersion(h.db); err == nil {
		message = fmt.Sprintf("connected, schema version %d", v)
	}
	return Check{Status: StatusHealthy, Message: message, Latency: latency.String()}
}

// checkCache verifies the cache backend.
func (h *HealthHandler) checkCache(ctx context.Context) Check {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	start := time.Now()
	err := h.cache.Ping(ctx)
	latency := time.Since(start)

	if err != nil {
		slog.WarnContext(ctx, "health check: cache unreachable", "category", model.EventCategoryCache, "error", err)
		return Check{Status: StatusUnhealthy, Message: "unreachable", Latency: latency.String()}
	}
	return Check{Status: StatusHealthy, Message: "connected", Latency: latency.String()}
}

func writeJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}
