// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/navcms/internal/auth"
	"github.com/olegiv/navcms/internal/cache"
	"github.com/olegiv/navcms/internal/middleware"
	"github.com/olegiv/navcms/internal/model"
	"github.com/olegiv/navcms/internal/navigation"
	"github.com/olegiv/navcms/internal/store"
	"github.com/olegiv/navcms/internal/testutil"
)

const testPassword = "correct horse battery staple"

// testEnv is a fully wired API on an in-memory database.
type testEnv struct {
	t      *testing.T
	db     *sql.DB
	nav    *navigation.Service
	login  *middleware.LoginProtection
	router chi.Router

	adminToken  string
	editorToken string
}

type envOption func(*Config, *RouteOptions)

func withCSRF() envOption {
	return func(_ *Config, ro *RouteOptions) {
		ro.CSRF = middleware.CSRF(middleware.DefaultCSRFConfig([]byte("12345678901234567890123456789012"), nil, false))
	}
}

func withoutTreeCache() envOption {
	return func(c *Config, _ *RouteOptions) { c.TreeCache = nil }
}

// newTestEnv wires the API with an admin and an editor account, each
// holding a valid token.
func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	db := testutil.MemoryDB(t)

	mem := cache.NewMemoryCache(cache.MemoryCacheOptions{DefaultTTL: time.Minute})
	t.Cleanup(func() { _ = mem.Close() })
	trees := cache.NewNavigationCache[[]*navigation.Node](mem, time.Minute)

	nav := navigation.NewService(db, trees, testutil.TestLogger())
	login := middleware.NewLoginProtection(middleware.LoginProtectionConfig{
		IPRateLimit:       1000,
		IPBurst:           1000,
		MaxFailedAttempts: 3,
	})
	t.Cleanup(login.Close)

	cfg := Config{
		DB:         db,
		Navigation: nav,
		TreeCache:  trees,
		Login:      login,
		TokenTTL:   time.Hour,
	}
	routeOpts := RouteOptions{RateLimit: 1000, RateBurst: 1000}
	for _, opt := range opts {
		opt(&cfg, &routeOpts)
	}

	r := chi.NewRouter()
	r.Use(middleware.Language)
	NewHandler(cfg).Routes(r, routeOpts)

	env := &testEnv{t: t, db: db, nav: nav, login: login, router: r}
	env.createUser("admin@example.com", model.RoleAdmin, true)
	env.createUser("editor@example.com", model.RoleEditor, true)
	env.createUser("disabled@example.com", model.RoleAdmin, false)
	env.adminToken = env.issueToken("admin@example.com")
	env.editorToken = env.issueToken("editor@example.com")
	return env
}

func (e *testEnv) createUser(email, role string, active bool) store.User {
	e.t.Helper()

	hash, err := auth.HashPassword(testPassword)
	if err != nil {
		e.t.Fatalf("HashPassword: %v", err)
	}
	now := time.Now().UTC()
	user, err := store.New(e.db).CreateUser(context.Background(), store.CreateUserParams{
		ID:           "user-" + email,
		Email:        email,
		Name:         email,
		PasswordHash: hash,
		Role:         role,
		IsActive:     active,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		e.t.Fatalf("CreateUser: %v", err)
	}
	return user
}

// issueToken logs in through the API and returns the raw token.
func (e *testEnv) issueToken(email string) string {
	e.t.Helper()

	rec := e.do(http.MethodPost, "/api/auth/token", map[string]string{
		"email":    email,
		"password": testPassword,
	}, "")
	if rec.Code != http.StatusCreated {
		e.t.Fatalf("issue token for %s: status %d: %s", email, rec.Code, rec.Body.String())
	}
	var resp TokenResponse
	decodeBody(e.t, rec, &resp)
	return resp.Token
}

// do performs a request against the router. body is JSON encoded unless it
// is a string, which is sent verbatim.
func (e *testEnv) do(method, path string, body any, token string, headers ...string) *httptest.ResponseRecorder {
	e.t.Helper()

	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		if err := json.NewEncoder(&buf).Encode(b); err != nil {
			e.t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// mustCreate creates an item through the service.
func (e *testEnv) mustCreate(labelEn string, parentID string) navigation.Detail {
	e.t.Helper()

	in := navigation.Input{LabelAr: labelEn + " (ar)", LabelEn: labelEn}
	if parentID != "" {
		in.ParentID = &parentID
	}
	detail, err := e.nav.Create(context.Background(), in)
	if err != nil {
		e.t.Fatalf("Create(%s): %v", labelEn, err)
	}
	return detail
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()

	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
}

// assertError checks the status and English error message of rec.
func assertError(t *testing.T, rec *httptest.ResponseRecorder, status int, message string) {
	t.Helper()

	if rec.Code != status {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, status, rec.Body.String())
	}
	var apiErr middleware.APIError
	decodeBody(t, rec, &apiErr)
	if apiErr.Error != message {
		t.Errorf("error = %q, want %q", apiErr.Error, message)
	}
}
