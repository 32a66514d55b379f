// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/olegiv/navcms/internal/store"
)

// Event log paging.
const (
	EventsPerPage    = 25
	MaxEventsPerPage = 100
)

// EventResponse is one entry of the persisted event log.
type EventResponse struct {
	ID         int64           `json:"id"`
	Level      string          `json:"level"`
	Category   string          `json:"category"`
	Message    string          `json:"message"`
	UserID     string          `json:"userId,omitempty"`
	IPAddress  string          `json:"ipAddress,omitempty"`
	RequestURL string          `json:"requestUrl,omitempty"`
	Metadata   json.RawMessage `json:"metadata,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// EventListResponse is the body of GET /api/events.
type EventListResponse struct {
	Events  []EventResponse `json:"events"`
	Page    int             `json:"page"`
	PerPage int             `json:"perPage"`
}

func toEventResponse(e store.Event) EventResponse {
	resp := EventResponse{
		ID:         e.ID,
		Level:      e.Level,
		Category:   e.Category,
		Message:    e.Message,
		UserID:     e.UserID.String,
		IPAddress:  e.IpAddress,
		RequestURL: e.RequestUrl,
		CreatedAt:  e.CreatedAt,
	}
	if e.Metadata != "" && e.Metadata != "{}" && json.Valid([]byte(e.Metadata)) {
		resp.Metadata = json.RawMessage(e.Metadata)
	}
	return resp
}

// ListEvents handles GET /api/events: the event log, newest first.
// Query: page (from 1) and per_page (up to MaxEventsPerPage).
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	page := 1
	perPage := EventsPerPage
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		page = p
	}
	if pp, err := strconv.Atoi(r.URL.Query().Get("per_page")); err == nil && pp > 0 && pp <= MaxEventsPerPage {
		perPage = pp
	}

	events, err := h.queries.ListEvents(r.Context(), store.ListEventsParams{
		Limit:  int64(perPage),
		Offset: int64((page - 1) * perPage),
	})
	if err != nil {
		writeInternalError(w, r, "failed to list events", err)
		return
	}

	resp := EventListResponse{
		Events:  make([]EventResponse, 0, len(events)),
		Page:    page,
		PerPage: perPage,
	}
	for _, e := range events {
		resp.Events = append(resp.Events, toEventResponse(e))
	}
	WriteJSON(w, http.StatusOK, resp)
}
