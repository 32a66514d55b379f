// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Navigation mutation results.
const (
	ResultOK       = "ok"
	ResultRejected = "rejected"
	ResultError    = "error"
)

var (
	navigationMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "navcms",
		Subsystem: "navigation",
		Name:      "mutations_total",
		Help:      "Total number of navigation mutations broken down by operation and result.",
	}, []string{"operation", "result"})

	cacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "navcms",
		Subsystem: "cache",
		Name:      "requests_total",
		Help:      "Total number of navigation tree cache lookups broken down by hit/miss.",
	}, []string{"cache", "result"})

	cacheInvalidations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "navcms",
		Subsystem: "cache",
		Name:      "invalidate_total",
		Help:      "Total number of cache invalidations broken down by reason.",
	}, []string{"reason"})

	cacheBackend = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "navcms",
		Subsystem: "cache",
		Name:      "backend",
		Help:      "Selected cache backend (value is always 1 per backend label).",
	}, []string{"backend"})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "navcms",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests broken down by route, method and status class.",
	}, []string{"route", "method", "result"})

	httpLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "navcms",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Latency distribution of HTTP requests.",
		Buckets: []float64{
			0.001, 0.005, 0.01, 0.025,
			0.05, 0.1, 0.25, 0.5,
			1, 2.5, 5,
		},
	}, []string{"route", "method"})
)

// RecordNavigationMutation counts one create/update/delete/reorder/import.
func RecordNavigationMutation(operation, result string) {
	navigationMutations.WithLabelValues(operation, result).Inc()
}

// RecordCacheRequest counts one cache lookup.
func RecordCacheRequest(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheRequests.WithLabelValues(cache, result).Inc()
}

// RecordCacheInvalidate counts one cache invalidation.
func RecordCacheInvalidate(reason string) {
	if reason == "" {
		reason = "manual"
	}
	cacheInvalidations.WithLabelValues(reason).Inc()
}

// SetCacheBackend exposes the selected cache backend as a gauge label.
func SetCacheBackend(backend string) {
	cacheBackend.WithLabelValues(backend).Set(1)
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request counts and latency labelled by the chi route
// pattern, so ids in paths do not create new series.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		httpRequests.WithLabelValues(route, r.Method, statusClass(ww.Status())).Inc()
		httpLatency.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

func statusClass(status int) string {
	switch {
	case status == 0 || status < 300:
		return "2xx"
	case status < 400:
		return "3xx"
	case status < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
