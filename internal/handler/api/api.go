// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package api provides the JSON API handlers: access tokens, the navigation
// tree and the event log.
package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/olegiv/navcms/internal/i18n"
	"github.com/olegiv/navcms/internal/middleware"
	"github.com/olegiv/navcms/internal/model"
	"github.com/olegiv/navcms/internal/navigation"
	"github.com/olegiv/navcms/internal/store"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// TreeCache serves navigation tree variants, building missing ones with load.
type TreeCache interface {
	Tree(ctx context.Context, lang string, activeOnly bool, load func() ([]*navigation.Node, error)) ([]*navigation.Node, error)
}

// Config holds the dependencies of the API handlers.
type Config struct {
	DB         *sql.DB
	Navigation *navigation.Service
	// TreeCache is optional; without it every tree request reads the store.
	TreeCache TreeCache
	Login     *middleware.LoginProtection
	TokenTTL  time.Duration
}

// Handler holds shared dependencies for all API handlers.
type Handler struct {
	db       *sql.DB
	queries  *store.Queries
	nav      *navigation.Service
	trees    TreeCache
	login    *middleware.LoginProtection
	tokenTTL time.Duration
	validate *validator.Validate
	now      func() time.Time
}

// NewHandler creates a new API handler.
func NewHandler(cfg Config) *Handler {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &Handler{
		db:       cfg.DB,
		queries:  store.New(cfg.DB),
		nav:      cfg.Navigation,
		trees:    cfg.TreeCache,
		login:    cfg.Login,
		tokenTTL: ttl,
		validate: v,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// MessageResponse is the body of successful operations without a resource.
type MessageResponse struct {
	Message          string `json:"message"`
	LocalizedMessage string `json:"localizedMessage,omitempty"`
}

// ValidationErrorResponse is the 422 body listing the failing fields.
type ValidationErrorResponse struct {
	middleware.APIError
	Fields map[string]string `json:"fields"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteError writes a localized JSON error for a message key.
func WriteError(w http.ResponseWriter, r *http.Request, statusCode int, key string) {
	middleware.WriteAPIError(w, r, statusCode, key)
}

// WriteMessage writes a 200 response carrying a localized message.
func WriteMessage(w http.ResponseWriter, r *http.Request, key string) {
	resp := MessageResponse{Message: i18n.T(i18n.LangEnglish, key)}
	if lang := middleware.GetLanguage(r); lang != i18n.LangEnglish {
		if localized := i18n.T(lang, key); localized != resp.Message {
			resp.LocalizedMessage = localized
		}
	}
	WriteJSON(w, http.StatusOK, resp)
}

// writeInternalError logs err and answers with a generic 500.
func writeInternalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	slog.ErrorContext(r.Context(), msg, "category", model.EventCategorySystem, "error", err, "path", r.URL.Path)
	WriteError(w, r, http.StatusInternalServerError, "server.internal_error")
}

// decodeJSON decodes the request body into dst. It answers 400 and returns
// false when the body is not valid JSON.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		WriteError(w, r, http.StatusBadRequest, "request.invalid_body")
		return false
	}
	// Reject trailing data after the first value.
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		WriteError(w, r, http.StatusBadRequest, "request.invalid_body")
		return false
	}
	return true
}

// validateRequest validates req with struct tags. It answers 422 with the
// failing fields and returns false when validation fails.
func (h *Handler) validateRequest(w http.ResponseWriter, r *http.Request, req any) bool {
	err := h.validate.Struct(req)
	if err == nil {
		return true
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		writeInternalError(w, r, "request validation failed", err)
		return false
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fieldMessage(fe)
	}
	WriteJSON(w, http.StatusUnprocessableEntity, ValidationErrorResponse{
		APIError: middleware.NewAPIError(middleware.GetLanguage(r), "request.validation_failed"),
		Fields:   fields,
	})
	return false
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	default:
		return "is invalid"
	}
}
