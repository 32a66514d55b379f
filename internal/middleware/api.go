// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"golang.org/x/time/rate"

	"github.com/olegiv/navcms/internal/i18n"
	"github.com/olegiv/navcms/internal/model"
	"github.com/olegiv/navcms/internal/util"
)

// APIError is the JSON error body of every API response. Error is always
// English; LocalizedError is added when the request language is not.
type APIError struct {
	Error          string `json:"error"`
	LocalizedError string `json:"localizedError,omitempty"`
}

// NewAPIError builds the error body for a message key in lang.
func NewAPIError(lang, key string) APIError {
	apiErr := APIError{Error: i18n.T(i18n.LangEnglish, key)}
	if lang != i18n.LangEnglish {
		if localized := i18n.T(lang, key); localized != apiErr.Error {
			apiErr.LocalizedError = localized
		}
	}
	return apiErr
}

// WriteAPIError writes a JSON error response for a message key.
func WriteAPIError(w http.ResponseWriter, r *http.Request, statusCode int, key string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(NewAPIError(GetLanguage(r), key))
}

// limiterCache is a generic rate limiter cache with double-check locking.
type limiterCache[K comparable] struct {
	limiters map[K]*rate.Limiter
	mu       sync.RWMutex
	rate     rate.Limit
	burst    int
}

// newLimiterCache creates a new limiter cache.
func newLimiterCache[K comparable](rps float64, burst int) *limiterCache[K] {
	return &limiterCache[K]{
		limiters: make(map[K]*rate.Limiter),
		rate:     rate.Limit(rps),
		burst:    burst,
	}
}

// get returns the rate limiter for a specific key, creating one if needed.
func (lc *limiterCache[K]) get(key K) *rate.Limiter {
	lc.mu.RLock()
	limiter, exists := lc.limiters[key]
	lc.mu.RUnlock()

	if exists {
		return limiter
	}

	lc.mu.Lock()
	defer lc.mu.Unlock()

	// Double-check after acquiring write lock
	if limiter, exists = lc.limiters[key]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(lc.rate, lc.burst)
	lc.limiters[key] = limiter
	return limiter
}

// clearIfExceeds clears all entries if the cache exceeds maxSize.
// Returns true if the cache was cleared.
func (lc *limiterCache[K]) clearIfExceeds(maxSize int) bool {
	lc.mu.Lock()
	defer lc.mu.Unlock()

	if len(lc.limiters) > maxSize {
		lc.limiters = make(map[K]*rate.Limiter)
		return true
	}
	return false
}

// maxTrackedLimiters bounds the per-token limiter map.
const maxTrackedLimiters = 10000

// APIRateLimit creates middleware that rate limits requests per access token.
// It must run after BearerAuth; requests without a token pass through.
// rps is requests per second, burst is the maximum burst size.
func APIRateLimit(rps float64, burst int) func(http.Handler) http.Handler {
	cache := newLimiterCache[string](rps, burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := GetAccessToken(r)
			if token == nil {
				next.ServeHTTP(w, r)
				return
			}

			cache.clearIfExceeds(maxTrackedLimiters)
			if !cache.get(token.ID).Allow() {
				slog.WarnContext(r.Context(), "api rate limit exceeded",
					"category", model.EventCategoryAuth,
					"token_prefix", token.TokenPrefix,
				)
				WriteAPIError(w, r, http.StatusTooManyRequests, "auth.rate_limit")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GlobalRateLimiter rate limits requests per client IP.
type GlobalRateLimiter struct {
	cache *limiterCache[string]
}

// NewGlobalRateLimiter creates a new per-IP rate limiter.
func NewGlobalRateLimiter(rps float64, burst int) *GlobalRateLimiter {
	return &GlobalRateLimiter{
		cache: newLimiterCache[string](rps, burst),
	}
}

// Middleware returns the rate limiting middleware (JSON errors).
func (rl *GlobalRateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := util.ClientIP(r)
			rl.cache.clearIfExceeds(maxTrackedLimiters)
			if !rl.cache.get(ip).Allow() {
				slog.WarnContext(r.Context(), "rate limit exceeded",
					"category", model.EventCategoryAuth, "ip", ip, "path", r.URL.Path)
				WriteAPIError(w, r, http.StatusTooManyRequests, "auth.rate_limit")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
