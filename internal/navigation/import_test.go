// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package navigation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func legacyItem(id string, parent *string, sortOrder int64) ImportItem {
	return ImportItem{
		ID:        id,
		LabelAr:   "عنصر " + id,
		LabelEn:   "Item " + id,
		URL:       "/" + id,
		ParentID:  parent,
		SortOrder: sortOrder,
		IsActive:  true,
		Target:    "_self",
	}
}

func TestImportInsertsParentsBeforeChildren(t *testing.T) {
	svc, inv, _ := newTestService(t)
	ctx := context.Background()

	items := []ImportItem{
		legacyItem("3", strPtr("2"), 0),
		legacyItem("2", strPtr("1"), 0),
		legacyItem("1", nil, 0),
		legacyItem("4", nil, 1),
	}

	result, err := svc.Import(ctx, items, ImportOptions{})
	require.NoError(t, err)
	assert.Equal(t, 4, result.Inserted)
	assert.Equal(t, []string{"1", "2", "3", "4"}, result.Order)
	assert.Equal(t, 1, inv.calls)

	team, err := svc.Get(ctx, "3")
	require.NoError(t, err)
	require.NotNil(t, team.Parent)
	assert.Equal(t, "2", team.Parent.ID)
}

func TestImportCycleInsertsNothing(t *testing.T) {
	svc, inv, _ := newTestService(t)
	ctx := context.Background()

	items := []ImportItem{
		legacyItem("ok", nil, 0),
		legacyItem("a", strPtr("b"), 0),
		legacyItem("b", strPtr("c"), 0),
		legacyItem("c", strPtr("a"), 0),
	}

	_, err := svc.Import(ctx, items, ImportOptions{})
	require.ErrorIs(t, err, ErrCircular)
	assert.Zero(t, inv.calls)

	tree, err := svc.Tree(ctx, TreeOptions{})
	require.NoError(t, err)
	assert.Empty(t, tree)
}

func TestImportSelfReferenceIsACycle(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Import(context.Background(), []ImportItem{legacyItem("a", strPtr("a"), 0)}, ImportOptions{})
	require.ErrorIs(t, err, ErrCircular)
}

func TestImportSkipsExistingAndOrphansDanglingParents(t *testing.T) {
	svc, _, ids := newTestService(t)
	ctx := context.Background()
	mustCreate(t, svc, ids, "1", "Home", nil, 0)

	items := []ImportItem{
		legacyItem("1", nil, 0),
		legacyItem("2", strPtr("1"), 0),
		legacyItem("3", strPtr("99"), 0),
	}

	result, err := svc.Import(ctx, items, ImportOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Inserted)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 1, result.Orphaned)

	home, err := svc.Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "Home", home.LabelEn, "existing item must not be overwritten")
	require.Len(t, home.Children, 1)
	assert.Equal(t, "2", home.Children[0].ID)

	orphan, err := svc.Get(ctx, "3")
	require.NoError(t, err)
	assert.Nil(t, orphan.ParentID)
}

func TestImportDryRunCommitsNothing(t *testing.T) {
	svc, inv, _ := newTestService(t)
	ctx := context.Background()

	result, err := svc.Import(ctx, []ImportItem{legacyItem("1", nil, 0), legacyItem("2", strPtr("1"), 0)}, ImportOptions{DryRun: true})
	require.NoError(t, err)
	assert.True(t, result.DryRun)
	assert.Equal(t, 2, result.Inserted)
	assert.Zero(t, inv.calls)

	_, err = svc.Get(ctx, "1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestImportValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	dup := []ImportItem{legacyItem("1", nil, 0), legacyItem("1", nil, 1)}
	_, err := svc.Import(ctx, dup, ImportOptions{})
	assert.ErrorIs(t, err, ErrDuplicateImport)

	noLabel := legacyItem("2", nil, 0)
	noLabel.LabelAr = ""
	_, err = svc.Import(ctx, []ImportItem{legacyItem("1", nil, 0), noLabel}, ImportOptions{})
	assert.ErrorIs(t, err, ErrLabelsRequired)

	badTarget := legacyItem("3", nil, 0)
	badTarget.Target = "_top"
	_, err = svc.Import(ctx, []ImportItem{badTarget}, ImportOptions{})
	assert.ErrorIs(t, err, ErrInvalidTarget)

	_, err = svc.Get(ctx, "1")
	assert.ErrorIs(t, err, ErrNotFound, "failed batch must be rolled back")
}
