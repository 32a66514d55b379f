// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package navigation

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/olegiv/navcms/internal/model"
	"github.com/olegiv/navcms/internal/store"
)

// ImportItem is one row of a flat legacy navigation list. IDs are kept.
type ImportItem struct {
	ID        string
	LabelAr   string
	LabelEn   string
	URL       string
	ParentID  *string
	SortOrder int64
	IsActive  bool
	Target    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ImportOptions controls an import run.
type ImportOptions struct {
	// DryRun validates and counts without committing.
	DryRun bool
}

// ImportResult summarizes an import run.
type ImportResult struct {
	Inserted int      `json:"inserted"`
	Skipped  int      `json:"skipped"`
	Orphaned int      `json:"orphaned"`
	DryRun   bool     `json:"dryRun"`
	Order    []string `json:"order"`
}

// visit states of the import cycle check
const (
	unvisited = iota
	visiting
	done
)

// Import inserts a flat list of items in one transaction, parents before
// children. Ids already stored are skipped, references to parents that
// exist nowhere become top-level, and any cycle in the list rejects the
// whole batch.
func (s *Service) Import(ctx context.Context, items []ImportItem, opts ImportOptions) (result ImportResult, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() {
		if opts.DryRun {
			return
		}
		s.record(ctx, OpImport, err)
	}()

	result = ImportResult{DryRun: opts.DryRun, Order: []string{}}

	byID := make(map[string]*ImportItem, len(items))
	for i := range items {
		item := &items[i]
		if _, dup := byID[item.ID]; dup {
			return ImportResult{}, fmt.Errorf("%w: %s", ErrDuplicateImport, item.ID)
		}
		byID[item.ID] = item
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ImportResult{}, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	queries := s.queries.WithTx(tx)

	// Split into stored (skipped) and pending items, and resolve parents.
	pending := make(map[string]*ImportItem, len(items))
	parents := make(map[string]sql.NullString, len(items))
	for i := range items {
		item := &items[i]
		exists, err := queries.NavigationItemExists(ctx, item.ID)
		if err != nil {
			return ImportResult{}, fmt.Errorf("checking navigation item %s: %w", item.ID, err)
		}
		if exists {
			result.Skipped++
			continue
		}
		pending[item.ID] = item
	}

	for i := range items {
		item := &items[i]
		if _, ok := pending[item.ID]; !ok {
			continue
		}
		parent, orphaned, err := resolveImportParent(ctx, queries, item, byID)
		if err != nil {
			return ImportResult{}, err
		}
		if orphaned {
			result.Orphaned++
		}
		parents[item.ID] = parent
	}

	order, err := importOrder(items, pending, parents)
	if err != nil {
		return ImportResult{}, err
	}

	now := s.now()
	for _, id := range order {
		item := pending[id]
		f, err := normalize(Input{
			LabelAr:   item.LabelAr,
			LabelEn:   item.LabelEn,
			URL:       &item.URL,
			SortOrder: &item.SortOrder,
			IsActive:  &item.IsActive,
			Target:    &item.Target,
		})
		if err != nil {
			return ImportResult{}, fmt.Errorf("navigation item %s: %w", id, err)
		}

		createdAt := item.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}
		updatedAt := item.UpdatedAt
		if updatedAt.IsZero() {
			updatedAt = createdAt
		}

		if _, err := queries.CreateNavigationItem(ctx, store.CreateNavigationItemParams{
			ID:        id,
			LabelAr:   f.labelAr,
			LabelEn:   f.labelEn,
			Url:       f.url,
			ParentID:  parents[id],
			SortOrder: f.sortOrder,
			IsActive:  f.isActive,
			Target:    f.target,
			CreatedAt: createdAt.UTC(),
			UpdatedAt: updatedAt.UTC(),
		}); err != nil {
			return ImportResult{}, fmt.Errorf("importing navigation item %s: %w", id, err)
		}
		result.Inserted++
		result.Order = append(result.Order, id)
	}

	if opts.DryRun {
		return result, nil
	}

	if err := tx.Commit(); err != nil {
		return ImportResult{}, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.InfoContext(ctx, "navigation imported",
		"category", model.EventCategoryNavigation,
		"inserted", result.Inserted,
		"skipped", result.Skipped,
		"orphaned", result.Orphaned,
	)
	return result, nil
}

// resolveImportParent returns the parent to store for item. A parent that
// is neither in the batch nor stored is dropped and reported as orphaned.
func resolveImportParent(ctx context.Context, queries *store.Queries, item *ImportItem, batch map[string]*ImportItem) (sql.NullString, bool, error) {
	if item.ParentID == nil || *item.ParentID == "" {
		return sql.NullString{}, false, nil
	}
	parentID := *item.ParentID
	if _, ok := batch[parentID]; ok {
		return sql.NullString{String: parentID, Valid: true}, false, nil
	}
	exists, err := queries.NavigationItemExists(ctx, parentID)
	if err != nil {
		return sql.NullString{}, false, fmt.Errorf("checking parent navigation item %s: %w", parentID, err)
	}
	if !exists {
		return sql.NullString{}, true, nil
	}
	return sql.NullString{String: parentID, Valid: true}, false, nil
}

// importOrder sorts the pending items so every parent precedes its
// children, keeping input order otherwise. It fails with ErrCircular when
// the parent links among pending items form a cycle.
func importOrder(items []ImportItem, pending map[string]*ImportItem, parents map[string]sql.NullString) ([]string, error) {
	state := make(map[string]int, len(pending))
	order := make([]string, 0, len(pending))

	var visit func(id string) error
	visit = func(id string) error {
		switch state[id] {
		case visiting:
			return fmt.Errorf("%w: %s", ErrCircular, id)
		case done:
			return nil
		}
		state[id] = visiting
		if parent := parents[id]; parent.Valid {
			// Parents outside the pending set are already stored.
			if _, ok := pending[parent.String]; ok {
				if err := visit(parent.String); err != nil {
					return err
				}
			}
		}
		state[id] = done
		order = append(order, id)
		return nil
	}

	for _, item := range items {
		if _, ok := pending[item.ID]; !ok {
			continue
		}
		if err := visit(item.ID); err != nil {
			return nil, err
		}
	}
	return order, nil
}
