// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/olegiv/navcms/internal/model"
	"github.com/olegiv/navcms/internal/store"
)

// okHandler answers 200 with an empty body.
var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

// createTestUser inserts a user with the given role.
func createTestUser(t *testing.T, db *sql.DB, id, role string, active bool) store.User {
	t.Helper()

	now := time.Now().UTC()
	user, err := store.New(db).CreateUser(context.Background(), store.CreateUserParams{
		ID:           id,
		Email:        id + "@example.com",
		Name:         id,
		PasswordHash: "unused",
		Role:         role,
		IsActive:     active,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return user
}

// createTestToken issues an access token for userID and returns the raw value.
func createTestToken(t *testing.T, db *sql.DB, userID string, expiresAt time.Time) string {
	t.Helper()

	raw, prefix, err := model.GenerateAccessToken()
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}
	_, err = store.New(db).CreateAccessToken(context.Background(), store.CreateAccessTokenParams{
		ID:          "tok-" + prefix,
		UserID:      userID,
		TokenHash:   model.HashAccessToken(raw),
		TokenPrefix: prefix,
		ExpiresAt:   expiresAt,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateAccessToken: %v", err)
	}
	return raw
}

// decodeAPIError decodes the JSON error body of rec.
func decodeAPIError(t *testing.T, rec *httptest.ResponseRecorder) APIError {
	t.Helper()

	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	var apiErr APIError
	if err := json.NewDecoder(rec.Body).Decode(&apiErr); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return apiErr
}
