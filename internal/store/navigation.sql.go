// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const navigationColumns = `id, label_ar, label_en, url, parent_id, sort_order, is_active, target, created_at, updated_at`

func scanNavigationItem(row interface{ Scan(...any) error }) (NavigationItem, error) {
	var i NavigationItem
	err := row.Scan(
		&i.ID,
		&i.LabelAr,
		&i.LabelEn,
		&i.Url,
		&i.ParentID,
		&i.SortOrder,
		&i.IsActive,
		&i.Target,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

func collectNavigationItems(rows *sql.Rows) ([]NavigationItem, error) {
	defer func() { _ = rows.Close() }()
	items := []NavigationItem{}
	for rows.Next() {
		i, err := scanNavigationItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getNavigationItem = `-- name: GetNavigationItem :one
SELECT ` + navigationColumns + ` FROM navigation_items WHERE id = ?
`

func (q *Queries) GetNavigationItem(ctx context.Context, id string) (NavigationItem, error) {
	row := q.db.QueryRowContext(ctx, getNavigationItem, id)
	return scanNavigationItem(row)
}

const navigationExists = `-- name: NavigationItemExists :one
SELECT EXISTS(SELECT 1 FROM navigation_items WHERE id = ?)
`

func (q *Queries) NavigationItemExists(ctx context.Context, id string) (bool, error) {
	row := q.db.QueryRowContext(ctx, navigationExists, id)
	var exists bool
	err := row.Scan(&exists)
	return exists, err
}

const listNavigationItems = `-- name: ListNavigationItems :many
SELECT ` + navigationColumns + ` FROM navigation_items
ORDER BY sort_order, created_at, id
`

// ListNavigationItems returns every item in sibling order.
func (q *Queries) ListNavigationItems(ctx context.Context) ([]NavigationItem, error) {
	rows, err := q.db.QueryContext(ctx, listNavigationItems)
	if err != nil {
		return nil, err
	}
	return collectNavigationItems(rows)
}

const listNavigationChildren = `-- name: ListNavigationChildren :many
SELECT ` + navigationColumns + ` FROM navigation_items
WHERE parent_id = ?
ORDER BY sort_order, created_at, id
`

func (q *Queries) ListNavigationChildren(ctx context.Context, parentID string) ([]NavigationItem, error) {
	rows, err := q.db.QueryContext(ctx, listNavigationChildren, parentID)
	if err != nil {
		return nil, err
	}
	return collectNavigationItems(rows)
}

const listNavigationChildIDs = `-- name: ListNavigationChildIDs :many
SELECT id FROM navigation_items WHERE parent_id = ?
`

func (q *Queries) ListNavigationChildIDs(ctx context.Context, parentID string) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listNavigationChildIDs, parentID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

const countNavigationChildren = `-- name: CountNavigationChildren :one
SELECT COUNT(*) FROM navigation_items WHERE parent_id = ?
`

func (q *Queries) CountNavigationChildren(ctx context.Context, parentID string) (int64, error) {
	row := q.db.QueryRowContext(ctx, countNavigationChildren, parentID)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const countNavigationItems = `-- name: CountNavigationItems :one
SELECT COUNT(*) FROM navigation_items
`

func (q *Queries) CountNavigationItems(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countNavigationItems)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const createNavigationItem = `-- name: CreateNavigationItem :one
INSERT INTO navigation_items (id, label_ar, label_en, url, parent_id, sort_order, is_active, target, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + navigationColumns + `
`

type CreateNavigationItemParams struct {
	ID        string         `json:"id"`
	LabelAr   string         `json:"label_ar"`
	LabelEn   string         `json:"label_en"`
	Url       string         `json:"url"`
	ParentID  sql.NullString `json:"parent_id"`
	SortOrder int64          `json:"sort_order"`
	IsActive  bool           `json:"is_active"`
	Target    string         `json:"target"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (q *Queries) CreateNavigationItem(ctx context.Context, arg CreateNavigationItemParams) (NavigationItem, error) {
	row := q.db.QueryRowContext(ctx, createNavigationItem,
		arg.ID,
		arg.LabelAr,
		arg.LabelEn,
		arg.Url,
		arg.ParentID,
		arg.SortOrder,
		arg.IsActive,
		arg.Target,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return scanNavigationItem(row)
}

const updateNavigationItem = `-- name: UpdateNavigationItem :one
UPDATE navigation_items
SET label_ar = ?, label_en = ?, url = ?, parent_id = ?, sort_order = ?, is_active = ?, target = ?, updated_at = ?
WHERE id = ?
RETURNING ` + navigationColumns + `
`

type UpdateNavigationItemParams struct {
	LabelAr   string         `json:"label_ar"`
	LabelEn   string         `json:"label_en"`
	Url       string         `json:"url"`
	ParentID  sql.NullString `json:"parent_id"`
	SortOrder int64          `json:"sort_order"`
	IsActive  bool           `json:"is_active"`
	Target    string         `json:"target"`
	UpdatedAt time.Time      `json:"updated_at"`
	ID        string         `json:"id"`
}

func (q *Queries) UpdateNavigationItem(ctx context.Context, arg UpdateNavigationItemParams) (NavigationItem, error) {
	row := q.db.QueryRowContext(ctx, updateNavigationItem,
		arg.LabelAr,
		arg.LabelEn,
		arg.Url,
		arg.ParentID,
		arg.SortOrder,
		arg.IsActive,
		arg.Target,
		arg.UpdatedAt,
		arg.ID,
	)
	return scanNavigationItem(row)
}

const updateNavigationItemSortOrder = `-- name: UpdateNavigationItemSortOrder :execrows
UPDATE navigation_items SET sort_order = ?, updated_at = ? WHERE id = ?
`

type UpdateNavigationItemSortOrderParams struct {
	SortOrder int64     `json:"sort_order"`
	UpdatedAt time.Time `json:"updated_at"`
	ID        string    `json:"id"`
}

func (q *Queries) UpdateNavigationItemSortOrder(ctx context.Context, arg UpdateNavigationItemSortOrderParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateNavigationItemSortOrder, arg.SortOrder, arg.UpdatedAt, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteNavigationItem = `-- name: DeleteNavigationItem :exec
DELETE FROM navigation_items WHERE id = ?
`

func (q *Queries) DeleteNavigationItem(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, deleteNavigationItem, id)
	return err
}
