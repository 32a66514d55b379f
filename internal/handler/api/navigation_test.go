// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/navcms/internal/middleware"
	"github.com/olegiv/navcms/internal/navigation"
)

// homeAboutTeam builds Home > About > Team.
func homeAboutTeam(e *testEnv) (home, about, team navigation.Detail) {
	home = e.mustCreate("Home", "")
	about = e.mustCreate("About", home.ID)
	team = e.mustCreate("Team", about.ID)
	return home, about, team
}

func TestGetItem(t *testing.T) {
	e := newTestEnv(t)
	home, about, team := homeAboutTeam(e)

	rec := e.do(http.MethodGet, "/api/navigation/"+about.ID, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got navigation.Detail
	decodeBody(t, rec, &got)
	assert.Equal(t, about.ID, got.ID)
	require.NotNil(t, got.Parent)
	assert.Equal(t, home.ID, got.Parent.ID)
	assert.Equal(t, "Home", got.Parent.LabelEn)
	require.Len(t, got.Children, 1)
	assert.Equal(t, team.ID, got.Children[0].ID)

	assertError(t, e.do(http.MethodGet, "/api/navigation/missing", nil, ""),
		http.StatusNotFound, "Navigation item not found")
}

func TestMutationsRequireAdmin(t *testing.T) {
	e := newTestEnv(t)
	home := e.mustCreate("Home", "")
	body := map[string]string{"labelAr": "بيت", "labelEn": "Home"}

	tests := []struct {
		name    string
		method  string
		path    string
		token   string
		status  int
		message string
	}{
		{"create without token", http.MethodPost, "/api/navigation", "", http.StatusUnauthorized, "Authentication required"},
		{"update with bad token", http.MethodPut, "/api/navigation/" + home.ID, "bogus", http.StatusUnauthorized, "Invalid or expired token"},
		{"update as editor", http.MethodPut, "/api/navigation/" + home.ID, e.editorToken, http.StatusForbidden, "Insufficient permissions"},
		{"delete as editor", http.MethodDelete, "/api/navigation/" + home.ID, e.editorToken, http.StatusForbidden, "Insufficient permissions"},
		{"reorder as editor", http.MethodPost, "/api/navigation/reorder", e.editorToken, http.StatusForbidden, "Insufficient permissions"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertError(t, e.do(tt.method, tt.path, body, tt.token), tt.status, tt.message)
		})
	}

	// Nothing changed.
	got, err := e.nav.Get(context.Background(), home.ID)
	require.NoError(t, err)
	assert.Equal(t, "Home", got.LabelEn)
}

func TestCreateItem(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(http.MethodPost, "/api/navigation", map[string]any{
		"labelAr": "أخبار",
		"labelEn": "News",
	}, e.adminToken)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var got navigation.Detail
	decodeBody(t, rec, &got)
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, "#", got.URL)
	assert.Equal(t, int64(0), got.SortOrder)
	assert.True(t, got.IsActive)
	assert.Equal(t, "_self", got.Target)
	assert.Nil(t, got.ParentID)
	assert.Nil(t, got.Parent)
	assert.Empty(t, got.Children)
}

func TestCreateItemRejections(t *testing.T) {
	e := newTestEnv(t)

	tests := []struct {
		name    string
		body    any
		message string
	}{
		{"invalid json", `{"labelAr":`, "Invalid request body"},
		{"trailing data", `{"labelAr":"a","labelEn":"b"} {}`, "Invalid request body"},
		{"missing label", map[string]string{"labelAr": "", "labelEn": "News"}, "Label in both languages is required"},
		{"bad target", map[string]string{"labelAr": "أ", "labelEn": "A", "target": "_top"}, "Link target must be _self or _blank"},
		{"unknown parent", map[string]string{"labelAr": "أ", "labelEn": "A", "parentId": "nope"}, "Parent navigation item not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertError(t, e.do(http.MethodPost, "/api/navigation", tt.body, e.adminToken), http.StatusBadRequest, tt.message)
		})
	}
}

// Scenario: moving Home under its grandchild Team is a cycle.
func TestUpdateRejectsCycle(t *testing.T) {
	e := newTestEnv(t)
	home, _, team := homeAboutTeam(e)

	rec := e.do(http.MethodPut, "/api/navigation/"+home.ID, map[string]any{
		"labelAr": "الرئيسية", "labelEn": "Home", "parentId": team.ID,
	}, e.adminToken)
	assertError(t, rec, http.StatusBadRequest, "Cannot create circular dependency in navigation hierarchy")

	got, err := e.nav.Get(context.Background(), home.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ParentID)
}

// Scenario: detaching About from Home keeps Team under About.
func TestUpdateDetachKeepsChildren(t *testing.T) {
	e := newTestEnv(t)
	_, about, team := homeAboutTeam(e)

	rec := e.do(http.MethodPut, "/api/navigation/"+about.ID, map[string]any{
		"labelAr": "من نحن", "labelEn": "About", "parentId": nil,
	}, e.adminToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got navigation.Detail
	decodeBody(t, rec, &got)
	assert.Nil(t, got.ParentID)
	require.Len(t, got.Children, 1)
	assert.Equal(t, team.ID, got.Children[0].ID)
}

func TestUpdateRejections(t *testing.T) {
	e := newTestEnv(t)
	home, _, _ := homeAboutTeam(e)

	tests := []struct {
		name    string
		body    map[string]any
		message string
	}{
		{"empty arabic label", map[string]any{"labelAr": "", "labelEn": "News"}, "Label in both languages is required"},
		{"self parent", map[string]any{"labelAr": "أ", "labelEn": "A", "parentId": home.ID}, "Navigation item cannot be parent of itself"},
		{"unknown parent", map[string]any{"labelAr": "أ", "labelEn": "A", "parentId": "nope"}, "Parent navigation item not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := e.do(http.MethodPut, "/api/navigation/"+home.ID, tt.body, e.adminToken)
			assertError(t, rec, http.StatusBadRequest, tt.message)
		})
	}

	got, err := e.nav.Get(context.Background(), home.ID)
	require.NoError(t, err)
	assert.Equal(t, "Home", got.LabelEn)
}

func TestUpdateMissingItemBeforeBody(t *testing.T) {
	e := newTestEnv(t)

	// An unparsable body still yields 404 for a missing item.
	rec := e.do(http.MethodPut, "/api/navigation/missing", `not json`, e.adminToken)
	assertError(t, rec, http.StatusNotFound, "Navigation item not found")

	home := e.mustCreate("Home", "")
	rec = e.do(http.MethodPut, "/api/navigation/"+home.ID, `not json`, e.adminToken)
	assertError(t, rec, http.StatusBadRequest, "Invalid request body")
}

// Scenario: omitted optional fields take their defaults.
func TestUpdateAppliesDefaults(t *testing.T) {
	e := newTestEnv(t)
	news := e.mustCreate("News", "")

	// Give the item non-default values first.
	_, err := e.nav.Update(context.Background(), news.ID, navigation.Input{
		LabelAr: "أخبار", LabelEn: "News",
		URL:       strPtr("/news"),
		SortOrder: int64Ptr(7),
		IsActive:  boolPtr(false),
		Target:    strPtr("_blank"),
	})
	require.NoError(t, err)

	rec := e.do(http.MethodPut, "/api/navigation/"+news.ID, map[string]any{
		"labelAr": "أخبار", "labelEn": "News",
	}, e.adminToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got navigation.Detail
	decodeBody(t, rec, &got)
	assert.Equal(t, "#", got.URL)
	assert.Equal(t, int64(0), got.SortOrder)
	assert.True(t, got.IsActive)
	assert.Equal(t, "_self", got.Target)
}

// Scenarios: deleting a leaf succeeds, deleting a parent is refused.
func TestDeleteItem(t *testing.T) {
	e := newTestEnv(t)
	_, about, team := homeAboutTeam(e)
	events := e.mustCreate("Events", "")

	rec := e.do(http.MethodDelete, "/api/navigation/"+events.ID, nil, e.adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	var msg MessageResponse
	decodeBody(t, rec, &msg)
	assert.Equal(t, "Navigation item deleted successfully", msg.Message)

	rec = e.do(http.MethodDelete, "/api/navigation/"+about.ID, nil, e.adminToken)
	assertError(t, rec, http.StatusBadRequest,
		"Cannot delete navigation item that has sub-items. Please delete or move the sub-items first.")

	rec = e.do(http.MethodGet, "/api/navigation/"+about.ID, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got navigation.Detail
	decodeBody(t, rec, &got)
	require.Len(t, got.Children, 1)
	assert.Equal(t, team.ID, got.Children[0].ID)

	assertError(t, e.do(http.MethodDelete, "/api/navigation/"+events.ID, nil, e.adminToken),
		http.StatusNotFound, "Navigation item not found")
}

func TestReorder(t *testing.T) {
	e := newTestEnv(t)
	a := e.mustCreate("A", "")
	b := e.mustCreate("B", "")

	rec := e.do(http.MethodPost, "/api/navigation/reorder", map[string]any{
		"items": []map[string]any{{"id": a.ID, "sortOrder": 2}, {"id": b.ID, "sortOrder": 1}},
	}, e.adminToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var tree []*navigation.Node
	decodeBody(t, e.do(http.MethodGet, "/api/navigation", nil, ""), &tree)
	require.Len(t, tree, 2)
	assert.Equal(t, b.ID, tree[0].ID)
	assert.Equal(t, a.ID, tree[1].ID)

	assertError(t, e.do(http.MethodPost, "/api/navigation/reorder", map[string]any{"items": []any{}}, e.adminToken),
		http.StatusBadRequest, "At least one item is required")

	rec = e.do(http.MethodPost, "/api/navigation/reorder", map[string]any{
		"items": []map[string]any{{"id": a.ID, "sortOrder": 9}, {"id": "missing", "sortOrder": 1}},
	}, e.adminToken)
	assertError(t, rec, http.StatusNotFound, "Navigation item not found")

	got, err := e.nav.Get(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.SortOrder, "failed reorder must not change anything")
}

func TestTree(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(http.MethodGet, "/api/navigation", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	home, about, _ := homeAboutTeam(e)
	_, err := e.nav.Update(context.Background(), about.ID, navigation.Input{
		LabelAr: "من نحن", LabelEn: "About", ParentID: &home.ID, IsActive: boolPtr(false),
	})
	require.NoError(t, err)

	var tree []*navigation.Node
	decodeBody(t, e.do(http.MethodGet, "/api/navigation?lang=ar", nil, ""), &tree)
	require.Len(t, tree, 1)
	assert.Equal(t, "Home (ar)", tree[0].Label)
	require.Len(t, tree[0].Children, 1)
	require.Len(t, tree[0].Children[0].Children, 1)

	var active []*navigation.Node
	decodeBody(t, e.do(http.MethodGet, "/api/navigation?active=true", nil, ""), &active)
	require.Len(t, active, 1)
	assert.Equal(t, "Home", active[0].Label)
	assert.Empty(t, active[0].Children, "inactive About and its subtree are pruned")
}

func TestTreeReflectsMutations(t *testing.T) {
	for _, tc := range []struct {
		name string
		opts []envOption
	}{
		{"cached", nil},
		{"uncached", []envOption{withoutTreeCache()}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			e := newTestEnv(t, tc.opts...)
			e.mustCreate("Home", "")

			var tree []*navigation.Node
			decodeBody(t, e.do(http.MethodGet, "/api/navigation", nil, ""), &tree)
			require.Len(t, tree, 1)

			rec := e.do(http.MethodPost, "/api/navigation", map[string]string{"labelAr": "اتصل", "labelEn": "Contact"}, e.adminToken)
			require.Equal(t, http.StatusCreated, rec.Code)

			var after []*navigation.Node
			decodeBody(t, e.do(http.MethodGet, "/api/navigation", nil, ""), &after)
			assert.Len(t, after, 2)
		})
	}
}

func TestLocalizedError(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(http.MethodGet, "/api/navigation/missing?lang=ar", nil, "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	var apiErr middleware.APIError
	decodeBody(t, rec, &apiErr)
	assert.Equal(t, "Navigation item not found", apiErr.Error)
	assert.NotEmpty(t, apiErr.LocalizedError)
	assert.NotEqual(t, apiErr.Error, apiErr.LocalizedError)
	assert.Equal(t, "ar", rec.Header().Get("Content-Language"))
}

func strPtr(s string) *string { return &s }
func int64Ptr(i int64) *int64 { return &i }
func boolPtr(b bool) *bool    { return &b }
