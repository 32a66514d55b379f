// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package navigation

import (
	"context"
	"time"

	"github.com/olegiv/navcms/internal/store"
	"github.com/olegiv/navcms/internal/util"
)

// Item is a single navigation entry as exposed by the API.
type Item struct {
	ID        string    `json:"id"`
	LabelAr   string    `json:"labelAr"`
	LabelEn   string    `json:"labelEn"`
	URL       string    `json:"url"`
	ParentID  *string   `json:"parentId"`
	SortOrder int64     `json:"sortOrder"`
	IsActive  bool      `json:"isActive"`
	Target    string    `json:"target"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ParentSummary identifies the parent of an item.
type ParentSummary struct {
	ID      string `json:"id"`
	LabelAr string `json:"labelAr"`
	LabelEn string `json:"labelEn"`
}

// Detail is an item together with its parent summary and its direct
// children in sibling order.
type Detail struct {
	Item
	Parent   *ParentSummary `json:"parent"`
	Children []Item         `json:"children"`
}

// Node is an item placed in the navigation forest.
type Node struct {
	Item
	Label    string  `json:"label"`
	Children []*Node `json:"children"`
}

// Input carries the writable fields of an item. Nil pointers take the
// defaults: url "#", sort order 0, active, target _self, no parent.
type Input struct {
	LabelAr   string  `json:"labelAr"`
	LabelEn   string  `json:"labelEn"`
	URL       *string `json:"url"`
	ParentID  *string `json:"parentId"`
	SortOrder *int64  `json:"sortOrder"`
	IsActive  *bool   `json:"isActive"`
	Target    *string `json:"target"`
}

// Position assigns a sort order to one item.
type Position struct {
	ID        string `json:"id"`
	SortOrder int64  `json:"sortOrder"`
}

// TreeOptions controls which items Tree returns and how they are labelled.
type TreeOptions struct {
	ActiveOnly bool
	Lang       string
}

// Invalidator drops cached navigation trees after a mutation.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

func itemFromStore(row store.NavigationItem) Item {
	return Item{
		ID:        row.ID,
		LabelAr:   row.LabelAr,
		LabelEn:   row.LabelEn,
		URL:       row.Url,
		ParentID:  util.PtrFromNullString(row.ParentID),
		SortOrder: row.SortOrder,
		IsActive:  row.IsActive,
		Target:    row.Target,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

func itemsFromStore(rows []store.NavigationItem) []Item {
	items := make([]Item, 0, len(rows))
	for _, row := range rows {
		items = append(items, itemFromStore(row))
	}
	return items
}
