// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// fakeClock is a manually advanced clock for lockout tests.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

// newTestLoginProtection returns a LoginProtection driven by a fake clock.
func newTestLoginProtection(t *testing.T, maxAttempts int, lockout, window time.Duration) (*LoginProtection, *fakeClock) {
	t.Helper()

	lp := NewLoginProtection(LoginProtectionConfig{
		IPRateLimit:       10,  // High rate for testing
		IPBurst:           100, // High burst for testing
		MaxFailedAttempts: maxAttempts,
		LockoutDuration:   lockout,
		AttemptWindow:     window,
	})
	t.Cleanup(lp.Close)

	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	lp.now = clock.now
	return lp, clock
}

func TestNewLoginProtectionDefaultValues(t *testing.T) {
	lp := NewLoginProtection(LoginProtectionConfig{})
	defer lp.Close()

	if lp.maxFailedAttempts != 5 {
		t.Errorf("maxFailedAttempts = %d, want 5 (default)", lp.maxFailedAttempts)
	}
	if lp.lockoutDuration != 15*time.Minute {
		t.Errorf("lockoutDuration = %v, want 15m (default)", lp.lockoutDuration)
	}
	if lp.attemptWindow != 15*time.Minute {
		t.Errorf("attemptWindow = %v, want 15m (default)", lp.attemptWindow)
	}
}

func TestLoginProtectionLockout(t *testing.T) {
	lp, clock := newTestLoginProtection(t, 3, time.Minute, 10*time.Minute)
	email := "Admin@Example.com"

	if locked, _ := lp.IsAccountLocked(email); locked {
		t.Fatal("account should not be locked initially")
	}

	for i := 0; i < 2; i++ {
		if locked, _ := lp.RecordFailedAttempt(email); locked {
			t.Fatalf("attempt %d should not lock", i+1)
		}
	}

	locked, d := lp.RecordFailedAttempt(email)
	if !locked || d != time.Minute {
		t.Fatalf("third attempt: locked=%v duration=%v, want true 1m", locked, d)
	}

	// Lookups are case-insensitive.
	if locked, remaining := lp.IsAccountLocked("admin@example.com"); !locked || remaining != time.Minute {
		t.Errorf("IsAccountLocked() = %v %v, want true 1m", locked, remaining)
	}

	clock.advance(time.Minute + time.Second)
	if locked, _ := lp.IsAccountLocked(email); locked {
		t.Error("account should be unlocked after lockout expires")
	}
}

func TestLoginProtectionExponentialBackoff(t *testing.T) {
	lp, clock := newTestLoginProtection(t, 1, time.Minute, time.Hour)
	email := "backoff@example.com"

	want := []time.Duration{time.Minute, 2 * time.Minute, 4 * time.Minute}
	for i, w := range want {
		locked, d := lp.RecordFailedAttempt(email)
		if !locked || d != w {
			t.Fatalf("lockout %d: locked=%v duration=%v, want %v", i+1, locked, d, w)
		}
		clock.advance(d + time.Second)
	}
}

func TestLoginProtectionBackoffCap(t *testing.T) {
	lp, clock := newTestLoginProtection(t, 1, 10*time.Hour, 48*time.Hour)
	email := "cap@example.com"

	var d time.Duration
	for i := 0; i < 4; i++ {
		_, d = lp.RecordFailedAttempt(email)
		clock.advance(d + time.Second)
	}
	if d != 24*time.Hour {
		t.Errorf("lock duration = %v, want 24h cap", d)
	}
}

func TestLoginProtectionWindowReset(t *testing.T) {
	lp, clock := newTestLoginProtection(t, 3, time.Minute, time.Minute)
	email := "window@example.com"

	lp.RecordFailedAttempt(email)
	lp.RecordFailedAttempt(email)
	clock.advance(2 * time.Minute)

	for i := 0; i < 2; i++ {
		if locked, _ := lp.RecordFailedAttempt(email); locked {
			t.Fatalf("attempt %d after window should restart the count", i+1)
		}
	}
	if locked, _ := lp.RecordFailedAttempt(email); !locked {
		t.Error("third attempt within the new window should lock")
	}
}

func TestLoginProtectionSuccessfulLoginClears(t *testing.T) {
	lp, _ := newTestLoginProtection(t, 3, time.Minute, time.Minute)
	email := "ok@example.com"

	lp.RecordFailedAttempt(email)
	lp.RecordFailedAttempt(email)
	lp.RecordSuccessfulLogin(email)

	for i := 0; i < 2; i++ {
		if locked, _ := lp.RecordFailedAttempt(email); locked {
			t.Fatalf("attempt %d after a successful login should not lock", i+1)
		}
	}
}

func TestLoginProtectionCleanupStaleEntries(t *testing.T) {
	lp, clock := newTestLoginProtection(t, 5, time.Minute, time.Minute)

	lp.RecordFailedAttempt("stale@example.com")
	clock.advance(5 * time.Minute)
	lp.RecordFailedAttempt("fresh@example.com")

	lp.cleanupStaleEntries()

	lp.attemptsMu.RLock()
	defer lp.attemptsMu.RUnlock()
	if _, ok := lp.failedAttempts["stale@example.com"]; ok {
		t.Error("stale entry should be removed")
	}
	if _, ok := lp.failedAttempts["fresh@example.com"]; !ok {
		t.Error("fresh entry should be kept")
	}
}

func TestLoginProtectionMiddleware(t *testing.T) {
	lp := NewLoginProtection(LoginProtectionConfig{IPRateLimit: 0.001, IPBurst: 2})
	defer lp.Close()
	handler := lp.Middleware()(okHandler)

	post := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/token", nil)
		req.RemoteAddr = "198.51.100.7:5555"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	for i := 0; i < 2; i++ {
		if rec := post(); rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i+1, rec.Code)
		}
	}

	rec := post()
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if got := decodeAPIError(t, rec).Error; got != "Too many requests. Please try again later." {
		t.Errorf("error = %q", got)
	}

	// Only POST is limited.
	req := httptest.NewRequest(http.MethodDelete, "/api/auth/token", nil)
	req.RemoteAddr = "198.51.100.7:5555"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("DELETE status = %d, want 200", rec.Code)
	}
}
