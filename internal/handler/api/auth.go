// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/navcms/internal/auth"
	"github.com/olegiv/navcms/internal/middleware"
	"github.com/olegiv/navcms/internal/model"
	"github.com/olegiv/navcms/internal/store"
	"github.com/olegiv/navcms/internal/util"
)

// TokenRequest is the body of POST /api/auth/token.
type TokenRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=1024"`
}

// TokenResponse carries a newly issued access token. The raw token is
// returned only here.
type TokenResponse struct {
	Token       string       `json:"token"`
	TokenPrefix string       `json:"tokenPrefix"`
	ExpiresAt   time.Time    `json:"expiresAt"`
	User        UserResponse `json:"user"`
}

// UserResponse represents the token owner.
type UserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// CreateToken handles POST /api/auth/token: exchanges email and password
// for a bearer token.
func (h *Handler) CreateToken(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if !h.validateRequest(w, r, req) {
		return
	}

	if h.login != nil {
		if locked, remaining := h.login.IsAccountLocked(req.Email); locked {
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(remaining.Seconds()))))
			WriteError(w, r, http.StatusTooManyRequests, "auth.account_locked")
			return
		}
	}

	user, err := h.queries.GetUserByEmail(r.Context(), req.Email)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		writeInternalError(w, r, "failed to look up user", err)
		return
	}
	if err != nil || !user.IsActive {
		auth.DummyCheck(req.Password)
		h.rejectLogin(w, r, req.Email, "unknown or inactive user")
		return
	}

	ok, err := auth.CheckPassword(req.Password, user.PasswordHash)
	if err != nil {
		writeInternalError(w, r, "failed to verify password", err)
		return
	}
	if !ok {
		h.rejectLogin(w, r, req.Email, "wrong password")
		return
	}

	if h.login != nil {
		h.login.RecordSuccessfulLogin(req.Email)
	}

	// Upgrade hashes made with older argon2 parameters.
	if auth.NeedsRehash(user.PasswordHash) {
		h.rehashPassword(r, user.ID, req.Password)
	}

	rawToken, prefix, err := model.GenerateAccessToken()
	if err != nil {
		writeInternalError(w, r, "failed to generate access token", err)
		return
	}

	now := h.now()
	token, err := h.queries.CreateAccessToken(r.Context(), store.CreateAccessTokenParams{
		ID:          uuid.NewString(),
		UserID:      user.ID,
		TokenHash:   model.HashAccessToken(rawToken),
		TokenPrefix: prefix,
		ExpiresAt:   now.Add(h.tokenTTL),
		CreatedAt:   now,
	})
	if err != nil {
		writeInternalError(w, r, "failed to store access token", err)
		return
	}

	if err := h.queries.UpdateUserLastLogin(r.Context(), store.UpdateUserLastLoginParams{
		LastLoginAt: util.NullTimeFromValue(now),
		ID:          user.ID,
	}); err != nil {
		slog.WarnContext(r.Context(), "failed to update last login", "category", model.EventCategoryAuth, "user_id", user.ID, "error", err)
	}

	slog.InfoContext(r.Context(), "access token issued",
		"category", model.EventCategoryAuth,
		"user_id", user.ID,
		"token_prefix", prefix,
	)

	WriteJSON(w, http.StatusCreated, TokenResponse{
		Token:       rawToken,
		TokenPrefix: prefix,
		ExpiresAt:   token.ExpiresAt,
		User: UserResponse{
			ID:    user.ID,
			Email: user.Email,
			Name:  user.Name,
			Role:  user.Role,
		},
	})
}

func (h *Handler) rehashPassword(r *http.Request, userID, password string) {
	hash, err := auth.HashPassword(password)
	if err == nil {
		err = h.queries.UpdateUserPassword(r.Context(), store.UpdateUserPasswordParams{
			PasswordHash: hash,
			UpdatedAt:    h.now(),
			ID:           userID,
		})
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to re-hash password", "category", model.EventCategoryAuth, "user_id", userID, "error", err)
		return
	}
	slog.InfoContext(r.Context(), "password re-hashed with updated parameters", "category", model.EventCategoryAuth, "user_id", userID)
}

// rejectLogin records a failed attempt and answers 401. The response does
// not reveal whether the account exists or is now locked.
func (h *Handler) rejectLogin(w http.ResponseWriter, r *http.Request, email, reason string) {
	if h.login != nil {
		h.login.RecordFailedAttempt(email)
	}
	slog.WarnContext(r.Context(), "login failed",
		"category", model.EventCategoryAuth,
		"email", email,
		"reason", reason,
		"ip", util.ClientIP(r),
	)
	WriteError(w, r, http.StatusUnauthorized, "auth.invalid_credentials")
}

// RevokeToken handles DELETE /api/auth/token: revokes the presented token.
func (h *Handler) RevokeToken(w http.ResponseWriter, r *http.Request) {
	token := middleware.GetAccessToken(r)
	if token == nil {
		WriteError(w, r, http.StatusUnauthorized, "auth.unauthorized")
		return
	}

	if err := h.queries.DeleteAccessToken(r.Context(), token.ID); err != nil {
		writeInternalError(w, r, "failed to revoke access token", err)
		return
	}

	slog.InfoContext(r.Context(), "access token revoked",
		"category", model.EventCategoryAuth,
		"user_id", token.UserID,
		"token_prefix", token.TokenPrefix,
	)
	WriteMessage(w, r, "auth.token_revoked")
}
