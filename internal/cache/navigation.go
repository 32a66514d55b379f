// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/olegiv/navcms/internal/metrics"
)

// NavigationPrefix is the key prefix of every cached navigation tree.
const NavigationPrefix = "navigation:tree:"

// navigationGenerationKey holds the counter bumped by every invalidation.
const navigationGenerationKey = "navigation:generation"

// navigationMetric labels tree lookups in the cache request counter.
const navigationMetric = "navigation"

// NavigationCache caches rendered navigation trees per language and
// active-only flag. Entries are keyed by a generation counter that every
// invalidation bumps, so a tree loaded before an invalidation can never be
// served after it.
type NavigationCache[T any] struct {
	backend Cacher
	typed   *TypedCache[T]
}

// NewNavigationCache creates a navigation tree cache on top of backend.
func NewNavigationCache[T any](backend Cacher, ttl time.Duration) *NavigationCache[T] {
	return &NavigationCache[T]{
		backend: backend,
		typed:   NewTypedCache[T](backend, ttl),
	}
}

// NavigationKey returns the cache key of one tree variant in a generation.
func NavigationKey(generation int64, lang string, activeOnly bool) string {
	if lang == "" {
		lang = "all"
	}
	return NavigationPrefix + strconv.FormatInt(generation, 10) + ":" + lang + ":" + strconv.FormatBool(activeOnly)
}

// generation returns the current invalidation counter, zero before the
// first invalidation.
func (c *NavigationCache[T]) generation(ctx context.Context) (int64, error) {
	data, err := c.backend.Get(ctx, navigationGenerationKey)
	if errors.Is(err, ErrCacheMiss) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(string(data), 10, 64)
}

// Tree returns the cached tree variant or builds it with load. A tree whose
// load overlapped an invalidation is returned but not stored.
func (c *NavigationCache[T]) Tree(ctx context.Context, lang string, activeOnly bool, load func() (T, error)) (T, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		// backend unavailable, serve straight from the store
		metrics.RecordCacheRequest(navigationMetric, false)
		return load()
	}

	key := NavigationKey(gen, lang, activeOnly)
	if value, ok := c.typed.Get(ctx, key); ok {
		metrics.RecordCacheRequest(navigationMetric, true)
		return value, nil
	}
	metrics.RecordCacheRequest(navigationMetric, false)

	value, err := load()
	if err != nil {
		return value, err
	}

	if current, err := c.generation(ctx); err == nil && current == gen {
		// A failed write is ignored because the loaded value is still valid.
		_ = c.typed.Set(ctx, key, value)
	}
	return value, nil
}

// Invalidate starts a new generation and removes every cached tree.
func (c *NavigationCache[T]) Invalidate(ctx context.Context) error {
	if _, err := c.backend.Incr(ctx, navigationGenerationKey); err != nil {
		return err
	}
	return c.backend.DeleteByPrefix(ctx, NavigationPrefix)
}
