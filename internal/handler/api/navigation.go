// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/navcms/internal/middleware"
	"github.com/olegiv/navcms/internal/navigation"
)

// navigationErrors maps rejections of the navigation service to responses.
var navigationErrors = []struct {
	err    error
	status int
	key    string
}{
	{navigation.ErrNotFound, http.StatusNotFound, "navigation.not_found"},
	{navigation.ErrLabelsRequired, http.StatusBadRequest, "navigation.labels_required"},
	{navigation.ErrSelfParent, http.StatusBadRequest, "navigation.self_parent"},
	{navigation.ErrParentNotFound, http.StatusBadRequest, "navigation.parent_not_found"},
	{navigation.ErrCircular, http.StatusBadRequest, "navigation.circular"},
	{navigation.ErrHasChildren, http.StatusBadRequest, "navigation.has_children"},
	{navigation.ErrInvalidTarget, http.StatusBadRequest, "navigation.invalid_target"},
	{navigation.ErrEmptyReorder, http.StatusBadRequest, "navigation.reorder_empty"},
}

// writeNavigationError answers with the response of a navigation rejection,
// or a logged 500 for anything else.
func writeNavigationError(w http.ResponseWriter, r *http.Request, err error) {
	for _, e := range navigationErrors {
		if errors.Is(err, e.err) {
			WriteError(w, r, e.status, e.key)
			return
		}
	}
	writeInternalError(w, r, "navigation operation failed", err)
}

// ReorderRequest is the body of POST /api/navigation/reorder.
type ReorderRequest struct {
	Items []navigation.Position `json:"items"`
}

// Tree handles GET /api/navigation.
// Query: active=true limits the tree to active items; lang selects the
// localized label.
func (h *Handler) Tree(w http.ResponseWriter, r *http.Request) {
	activeOnly, _ := strconv.ParseBool(r.URL.Query().Get("active"))
	opts := navigation.TreeOptions{
		ActiveOnly: activeOnly,
		Lang:       middleware.GetLanguage(r),
	}

	load := func() ([]*navigation.Node, error) {
		return h.nav.Tree(r.Context(), opts)
	}

	var (
		tree []*navigation.Node
		err  error
	)
	if h.trees != nil {
		tree, err = h.trees.Tree(r.Context(), opts.Lang, opts.ActiveOnly, load)
	} else {
		tree, err = load()
	}
	if err != nil {
		writeInternalError(w, r, "failed to load navigation tree", err)
		return
	}
	if tree == nil {
		tree = []*navigation.Node{}
	}

	WriteJSON(w, http.StatusOK, tree)
}

// GetItem handles GET /api/navigation/{id}.
func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	detail, err := h.nav.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeNavigationError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, detail)
}

// CreateItem handles POST /api/navigation.
func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var in navigation.Input
	if !decodeJSON(w, r, &in) {
		return
	}

	detail, err := h.nav.Create(r.Context(), in)
	if err != nil {
		writeNavigationError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, detail)
}

// UpdateItem handles PUT /api/navigation/{id}. A missing item answers 404
// before the body is looked at.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	exists, err := h.nav.Exists(r.Context(), id)
	if err != nil {
		writeInternalError(w, r, "failed to look up navigation item", err)
		return
	}
	if !exists {
		WriteError(w, r, http.StatusNotFound, "navigation.not_found")
		return
	}

	var in navigation.Input
	if !decodeJSON(w, r, &in) {
		return
	}

	detail, err := h.nav.Update(r.Context(), id, in)
	if err != nil {
		writeNavigationError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, detail)
}

// DeleteItem handles DELETE /api/navigation/{id}.
func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := h.nav.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeNavigationError(w, r, err)
		return
	}
	WriteMessage(w, r, "navigation.deleted")
}

// Reorder handles POST /api/navigation/reorder.
func (h *Handler) Reorder(w http.ResponseWriter, r *http.Request) {
	var req ReorderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.nav.Reorder(r.Context(), req.Items); err != nil {
		writeNavigationError(w, r, err)
		return
	}
	WriteMessage(w, r, "navigation.reordered")
}
