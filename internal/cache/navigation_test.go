// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

type treeNode struct {
	ID       string     `json:"id"`
	Label    string     `json:"label"`
	Children []treeNode `json:"children"`
}

// treeRequests reads navcms_cache_requests_total for the navigation cache.
func treeRequests(t *testing.T, result string) float64 {
	t.Helper()
	mfs, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	for _, mf := range mfs {
		if mf.GetName() != "navcms_cache_requests_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			if hasLabels(m, map[string]string{"cache": navigationMetric, "result": result}) {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func hasLabels(m *dto.Metric, want map[string]string) bool {
	matched := 0
	for _, lp := range m.GetLabel() {
		if v, ok := want[lp.GetName()]; ok && v == lp.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}

func TestNavigationKey(t *testing.T) {
	tests := []struct {
		gen    int64
		lang   string
		active bool
		want   string
	}{
		{0, "ar", true, "navigation:tree:0:ar:true"},
		{7, "en", false, "navigation:tree:7:en:false"},
		{1, "", false, "navigation:tree:1:all:false"},
	}
	for _, tt := range tests {
		if got := NavigationKey(tt.gen, tt.lang, tt.active); got != tt.want {
			t.Errorf("NavigationKey(%d, %q, %v) = %q, want %q", tt.gen, tt.lang, tt.active, got, tt.want)
		}
	}
}

func TestNavigationCache_LoadsOnceUntilInvalidated(t *testing.T) {
	backend := newTestMemoryCache(t, time.Hour, 0)
	nc := NewNavigationCache[[]treeNode](backend, time.Hour)
	ctx := context.Background()

	loads := 0
	load := func() ([]treeNode, error) {
		loads++
		return []treeNode{{ID: "1", Label: "Home", Children: []treeNode{{ID: "2", Label: "Team"}}}}, nil
	}

	for i := 0; i < 3; i++ {
		tree, err := nc.Tree(ctx, "en", true, load)
		if err != nil {
			t.Fatalf("Tree failed: %v", err)
		}
		if len(tree) != 1 || len(tree[0].Children) != 1 {
			t.Fatalf("unexpected tree: %+v", tree)
		}
	}
	if loads != 1 {
		t.Errorf("loads = %d, want 1", loads)
	}

	// A different variant has its own entry.
	if _, err := nc.Tree(ctx, "ar", true, load); err != nil {
		t.Fatalf("Tree failed: %v", err)
	}
	if loads != 2 {
		t.Errorf("loads = %d, want 2", loads)
	}

	if err := nc.Invalidate(ctx); err != nil {
		t.Fatalf("Invalidate failed: %v", err)
	}
	if _, err := nc.Tree(ctx, "en", true, load); err != nil {
		t.Fatalf("Tree failed: %v", err)
	}
	if loads != 3 {
		t.Errorf("loads = %d after invalidation, want 3", loads)
	}
}

func TestNavigationCache_InvalidationDuringLoad(t *testing.T) {
	backend := newTestMemoryCache(t, time.Hour, 0)
	nc := NewNavigationCache[[]treeNode](backend, time.Hour)
	ctx := context.Background()

	label := "Home"
	// The tree is read, then a mutation commits and invalidates before the
	// read returns.
	racing := func() ([]treeNode, error) {
		tree := []treeNode{{ID: "1", Label: label}}
		label = "Renamed"
		if err := nc.Invalidate(ctx); err != nil {
			return nil, err
		}
		return tree, nil
	}

	tree, err := nc.Tree(ctx, "en", false, racing)
	if err != nil {
		t.Fatalf("Tree failed: %v", err)
	}
	if tree[0].Label != "Home" {
		t.Fatalf("first read = %q, want the tree it loaded", tree[0].Label)
	}

	loads := 0
	tree, err = nc.Tree(ctx, "en", false, func() ([]treeNode, error) {
		loads++
		return []treeNode{{ID: "1", Label: label}}, nil
	})
	if err != nil {
		t.Fatalf("Tree failed: %v", err)
	}
	if loads != 1 || tree[0].Label != "Renamed" {
		t.Errorf("got %q after %d loads, want Renamed from a fresh load", tree[0].Label, loads)
	}
}

func TestNavigationCache_StaleGenerationNeverRead(t *testing.T) {
	backend := newTestMemoryCache(t, time.Hour, 0)
	nc := NewNavigationCache[[]treeNode](backend, time.Hour)
	ctx := context.Background()

	if err := nc.Invalidate(ctx); err != nil {
		t.Fatalf("Invalidate failed: %v", err)
	}
	// A slow writer of the previous generation lands after the invalidation.
	_ = backend.Set(ctx, NavigationKey(0, "en", false), []byte(`[{"id":"1","label":"Old"}]`), 0)

	tree, err := nc.Tree(ctx, "en", false, func() ([]treeNode, error) {
		return []treeNode{{ID: "1", Label: "New"}}, nil
	})
	if err != nil {
		t.Fatalf("Tree failed: %v", err)
	}
	if tree[0].Label != "New" {
		t.Errorf("label = %q, want New", tree[0].Label)
	}
}

func TestNavigationCache_RecordsHitsAndMisses(t *testing.T) {
	backend := newTestMemoryCache(t, time.Hour, 0)
	nc := NewNavigationCache[[]treeNode](backend, time.Hour)
	ctx := context.Background()

	hits, misses := treeRequests(t, "hit"), treeRequests(t, "miss")
	load := func() ([]treeNode, error) { return []treeNode{{ID: "1"}}, nil }

	for i := 0; i < 3; i++ {
		if _, err := nc.Tree(ctx, "ar", false, load); err != nil {
			t.Fatalf("Tree failed: %v", err)
		}
	}

	if got := treeRequests(t, "miss") - misses; got != 1 {
		t.Errorf("misses = %v, want 1", got)
	}
	if got := treeRequests(t, "hit") - hits; got != 2 {
		t.Errorf("hits = %v, want 2", got)
	}
}

func TestNavigationCache_LoadErrorNotCached(t *testing.T) {
	backend := newTestMemoryCache(t, time.Hour, 0)
	nc := NewNavigationCache[[]treeNode](backend, time.Hour)
	ctx := context.Background()

	boom := errors.New("boom")
	if _, err := nc.Tree(ctx, "en", false, func() ([]treeNode, error) { return nil, boom }); !errors.Is(err, boom) {
		t.Fatalf("Tree error = %v, want boom", err)
	}
	if _, err := backend.Get(ctx, NavigationKey(0, "en", false)); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("failed load must not be cached, got %v", err)
	}
}

func TestNavigationCache_ClosedBackendServesLoad(t *testing.T) {
	backend := NewMemoryCache(MemoryCacheOptions{DefaultTTL: time.Hour})
	_ = backend.Close()
	nc := NewNavigationCache[[]treeNode](backend, time.Hour)

	tree, err := nc.Tree(context.Background(), "en", false, func() ([]treeNode, error) {
		return []treeNode{{ID: "1"}}, nil
	})
	if err != nil || len(tree) != 1 {
		t.Errorf("Tree = %+v, %v; want the loaded tree", tree, err)
	}
}
