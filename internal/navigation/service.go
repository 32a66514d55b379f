// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package navigation manages the bilingual navigation tree. It validates
// every structural edit (self-parenting, cycles, deletion of items with
// sub-items) before anything is persisted.
package navigation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/navcms/internal/metrics"
	"github.com/olegiv/navcms/internal/model"
	"github.com/olegiv/navcms/internal/store"
	"github.com/olegiv/navcms/internal/util"
)

// Mutation names used in metrics and cache invalidation reasons.
const (
	OpCreate  = "create"
	OpUpdate  = "update"
	OpDelete  = "delete"
	OpReorder = "reorder"
	OpImport  = "import"
)

// Service implements the navigation tree operations.
type Service struct {
	db      *sql.DB
	queries *store.Queries
	cache   Invalidator
	logger  *slog.Logger

	// mu serializes mutations so validate-then-write is atomic in-process.
	mu sync.Mutex

	now   func() time.Time
	newID func() string
}

// NewService creates a navigation service. cache may be nil.
func NewService(db *sql.DB, cache Invalidator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		db:      db,
		queries: store.New(db),
		cache:   cache,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
		newID:   uuid.NewString,
	}
}

// Exists reports whether an item with id exists.
func (s *Service) Exists(ctx context.Context, id string) (bool, error) {
	return s.queries.NavigationItemExists(ctx, id)
}

// Get returns the item with its parent summary and ordered children.
func (s *Service) Get(ctx context.Context, id string) (Detail, error) {
	row, err := s.queries.GetNavigationItem(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Detail{}, ErrNotFound
		}
		return Detail{}, fmt.Errorf("loading navigation item: %w", err)
	}
	return s.detail(ctx, row)
}

// Create validates in and inserts a new top-level or nested item.
func (s *Service) Create(ctx context.Context, in Input) (detail Detail, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.record(ctx, OpCreate, err) }()

	f, err := normalize(in)
	if err != nil {
		return Detail{}, err
	}

	if f.parentID.Valid {
		if err := s.requireParent(ctx, f.parentID.String); err != nil {
			return Detail{}, err
		}
	}

	now := s.now()
	row, err := s.queries.CreateNavigationItem(ctx, store.CreateNavigationItemParams{
		ID:        s.newID(),
		LabelAr:   f.labelAr,
		LabelEn:   f.labelEn,
		Url:       f.url,
		ParentID:  f.parentID,
		SortOrder: f.sortOrder,
		IsActive:  f.isActive,
		Target:    f.target,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return Detail{}, fmt.Errorf("creating navigation item: %w", err)
	}

	s.logger.InfoContext(ctx, "navigation item created", "category", model.EventCategoryNavigation, "id", row.ID)
	return s.detail(ctx, row)
}

// Update replaces every writable field of the item. Checks run in order:
// existence, labels, target, self-parent, parent existence, cycle. The
// children of the item keep their parent.
func (s *Service) Update(ctx context.Context, id string, in Input) (detail Detail, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.record(ctx, OpUpdate, err) }()

	exists, err := s.queries.NavigationItemExists(ctx, id)
	if err != nil {
		return Detail{}, fmt.Errorf("checking navigation item: %w", err)
	}
	if !exists {
		return Detail{}, ErrNotFound
	}

	f, err := normalize(in)
	if err != nil {
		return Detail{}, err
	}

	if f.parentID.Valid {
		parentID := f.parentID.String
		if parentID == id {
			return Detail{}, ErrSelfParent
		}
		if err := s.requireParent(ctx, parentID); err != nil {
			return Detail{}, err
		}
		cyclic, err := s.isDescendant(ctx, id, parentID)
		if err != nil {
			return Detail{}, fmt.Errorf("checking navigation hierarchy: %w", err)
		}
		if cyclic {
			return Detail{}, ErrCircular
		}
	}

	row, err := s.queries.UpdateNavigationItem(ctx, store.UpdateNavigationItemParams{
		LabelAr:   f.labelAr,
		LabelEn:   f.labelEn,
		Url:       f.url,
		ParentID:  f.parentID,
		SortOrder: f.sortOrder,
		IsActive:  f.isActive,
		Target:    f.target,
		UpdatedAt: s.now(),
		ID:        id,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Detail{}, ErrNotFound
		}
		return Detail{}, fmt.Errorf("updating navigation item: %w", err)
	}

	s.logger.InfoContext(ctx, "navigation item updated", "category", model.EventCategoryNavigation, "id", id)
	return s.detail(ctx, row)
}

// Delete removes a childless item. Items with sub-items are rejected and
// nothing cascades.
func (s *Service) Delete(ctx context.Context, id string) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.record(ctx, OpDelete, err) }()

	exists, err := s.queries.NavigationItemExists(ctx, id)
	if err != nil {
		return fmt.Errorf("checking navigation item: %w", err)
	}
	if !exists {
		return ErrNotFound
	}

	children, err := s.queries.CountNavigationChildren(ctx, id)
	if err != nil {
		return fmt.Errorf("counting sub-items: %w", err)
	}
	if children > 0 {
		return ErrHasChildren
	}

	if err := s.queries.DeleteNavigationItem(ctx, id); err != nil {
		return fmt.Errorf("deleting navigation item: %w", err)
	}

	s.logger.InfoContext(ctx, "navigation item deleted", "category", model.EventCategoryNavigation, "id", id)
	return nil
}

// Reorder sets the sort order of a batch of items in one transaction.
// Parents are untouched. An unknown id rolls back the whole batch.
func (s *Service) Reorder(ctx context.Context, positions []Position) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.record(ctx, OpReorder, err) }()

	if len(positions) == 0 {
		return ErrEmptyReorder
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	queries := s.queries.WithTx(tx)
	now := s.now()
	for _, p := range positions {
		affected, err := queries.UpdateNavigationItemSortOrder(ctx, store.UpdateNavigationItemSortOrderParams{
			SortOrder: p.SortOrder,
			UpdatedAt: now,
			ID:        p.ID,
		})
		if err != nil {
			return fmt.Errorf("reordering navigation item %s: %w", p.ID, err)
		}
		if affected == 0 {
			return fmt.Errorf("%w: %s", ErrNotFound, p.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.InfoContext(ctx, "navigation reordered", "category", model.EventCategoryNavigation, "count", len(positions))
	return nil
}

func (s *Service) requireParent(ctx context.Context, parentID string) error {
	exists, err := s.queries.NavigationItemExists(ctx, parentID)
	if err != nil {
		return fmt.Errorf("checking parent navigation item: %w", err)
	}
	if !exists {
		return ErrParentNotFound
	}
	return nil
}

// isDescendant walks the current children of rootID depth-first, one read
// per visited node, and reports whether candidate is among them.
func (s *Service) isDescendant(ctx context.Context, rootID, candidate string) (bool, error) {
	visited := map[string]bool{rootID: true}
	stack := []string{rootID}

	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		childIDs, err := s.queries.ListNavigationChildIDs(ctx, id)
		if err != nil {
			return false, err
		}
		for _, childID := range childIDs {
			if childID == candidate {
				return true, nil
			}
			if !visited[childID] {
				visited[childID] = true
				stack = append(stack, childID)
			}
		}
	}
	return false, nil
}

func (s *Service) detail(ctx context.Context, row store.NavigationItem) (Detail, error) {
	d := Detail{Item: itemFromStore(row)}

	if row.ParentID.Valid {
		parent, err := s.queries.GetNavigationItem(ctx, row.ParentID.String)
		switch {
		case err == nil:
			d.Parent = &ParentSummary{ID: parent.ID, LabelAr: parent.LabelAr, LabelEn: parent.LabelEn}
		case !errors.Is(err, sql.ErrNoRows):
			return Detail{}, fmt.Errorf("loading parent navigation item: %w", err)
		}
	}

	children, err := s.queries.ListNavigationChildren(ctx, row.ID)
	if err != nil {
		return Detail{}, fmt.Errorf("loading sub-items: %w", err)
	}
	d.Children = itemsFromStore(children)
	return d, nil
}

// record counts the mutation and drops cached trees after a success.
func (s *Service) record(ctx context.Context, op string, err error) {
	switch {
	case err == nil:
		metrics.RecordNavigationMutation(op, metrics.ResultOK)
		s.invalidate(ctx, op)
	case IsRejection(err):
		metrics.RecordNavigationMutation(op, metrics.ResultRejected)
	default:
		metrics.RecordNavigationMutation(op, metrics.ResultError)
	}
}

func (s *Service) invalidate(ctx context.Context, reason string) {
	if s.cache == nil {
		return
	}
	metrics.RecordCacheInvalidate("navigation_" + reason)
	if err := s.cache.Invalidate(context.WithoutCancel(ctx)); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate navigation cache",
			"category", model.EventCategoryCache, "error", err)
	}
}

type fields struct {
	labelAr   string
	labelEn   string
	url       string
	parentID  sql.NullString
	sortOrder int64
	isActive  bool
	target    string
}

// normalize applies the input defaults and validates labels and target.
func normalize(in Input) (fields, error) {
	f := fields{
		labelAr:   util.NormalizeLabel(in.LabelAr),
		labelEn:   util.NormalizeLabel(in.LabelEn),
		url:       util.NormalizeURL(util.ValueOr(in.URL, ""), model.DefaultNavigationURL),
		parentID:  util.NullStringFromPtr(in.ParentID),
		sortOrder: util.ValueOr(in.SortOrder, 0),
		isActive:  util.ValueOr(in.IsActive, true),
		target:    util.ValueOr(in.Target, ""),
	}
	if f.labelAr == "" || f.labelEn == "" {
		return fields{}, ErrLabelsRequired
	}
	if f.target == "" {
		f.target = model.TargetSelf
	}
	if !model.IsValidTarget(f.target) {
		return fields{}, ErrInvalidTarget
	}
	return f, nil
}
