// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for authentication,
// authorization, and request context handling.
package middleware

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/olegiv/navcms/internal/logging"
	"github.com/olegiv/navcms/internal/model"
	"github.com/olegiv/navcms/internal/store"
	"github.com/olegiv/navcms/internal/util"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// Context keys for authenticated request data.
const (
	ContextKeyUser        ContextKey = "user"
	ContextKeyAccessToken ContextKey = "access_token"
)

// BearerAuth creates middleware that requires a valid access token in the
// Authorization header. Missing, malformed, unknown and expired tokens, and
// tokens of inactive users, are answered with 401.
func BearerAuth(db *sql.DB) func(http.Handler) http.Handler {
	queries := store.New(db)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rawToken, ok := bearerToken(r)
			if !ok {
				WriteAPIError(w, r, http.StatusUnauthorized, "auth.unauthorized")
				return
			}

			token, err := queries.GetAccessTokenByHash(r.Context(), model.HashAccessToken(rawToken))
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					WriteAPIError(w, r, http.StatusUnauthorized, "auth.invalid_token")
				} else {
					slog.ErrorContext(r.Context(), "failed to validate access token", "category", model.EventCategoryAuth, "error", err)
					WriteAPIError(w, r, http.StatusInternalServerError, "server.internal_error")
				}
				return
			}

			if !time.Now().Before(token.ExpiresAt) {
				WriteAPIError(w, r, http.StatusUnauthorized, "auth.invalid_token")
				return
			}

			user, err := queries.GetUserByID(r.Context(), token.UserID)
			if err != nil || !user.IsActive {
				if err != nil && !errors.Is(err, sql.ErrNoRows) {
					slog.ErrorContext(r.Context(), "failed to load token owner", "category", model.EventCategoryAuth, "error", err)
				}
				WriteAPIError(w, r, http.StatusUnauthorized, "auth.invalid_token")
				return
			}

			updateAccessTokenLastUsed(queries, token.ID)

			ctx := context.WithValue(r.Context(), ContextKeyUser, user)
			ctx = context.WithValue(ctx, ContextKeyAccessToken, token)
			ctx = logging.WithUserID(ctx, user.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the token of an "Authorization: Bearer <token>" header.
func bearerToken(r *http.Request) (string, bool) {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// updateAccessTokenLastUsed updates the last used timestamp in a background goroutine.
func updateAccessTokenLastUsed(queries *store.Queries, tokenID string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = queries.UpdateAccessTokenLastUsed(ctx, store.UpdateAccessTokenLastUsedParams{
			LastUsedAt: util.NullTimeFromValue(time.Now().UTC()),
			ID:         tokenID,
		})
	}()
}

// RequireAnyRole creates middleware that only lets users with one of roles
// through. It must run after BearerAuth. Denials are logged as warnings.
func RequireAnyRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetUser(r)
			if user == nil {
				WriteAPIError(w, r, http.StatusUnauthorized, "auth.unauthorized")
				return
			}

			if !model.HasAnyRole(user.Role, roles...) {
				slog.WarnContext(r.Context(), "access denied",
					"category", model.EventCategoryAuth,
					"user_id", user.ID,
					"role", user.Role,
					"method", r.Method,
					"path", r.URL.Path,
				)
				WriteAPIError(w, r, http.StatusForbidden, "auth.forbidden")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GetUser retrieves the current user from the request context.
// Returns nil if no user is in context.
func GetUser(r *http.Request) *store.User {
	user, ok := r.Context().Value(ContextKeyUser).(store.User)
	if !ok {
		return nil
	}
	return &user
}

// GetUserID returns the current user's ID from context, or "" if not found.
func GetUserID(r *http.Request) string {
	if user := GetUser(r); user != nil {
		return user.ID
	}
	return ""
}

// GetAccessToken retrieves the presented access token from the request context.
func GetAccessToken(r *http.Request) *store.AccessToken {
	token, ok := r.Context().Value(ContextKeyAccessToken).(store.AccessToken)
	if !ok {
		return nil
	}
	return &token
}

// RequestInfo creates middleware that stores the request path and client IP
// in the context. The event log handler reads them from there.
func RequestInfo(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.WithRequestInfo(r.Context(), logging.RequestInfo{
			Path: r.URL.Path,
			IP:   util.ClientIP(r),
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
