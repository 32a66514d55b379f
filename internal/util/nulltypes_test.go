// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"database/sql"
	"testing"
)

func ptr[T any](v T) *T {
	return &v
}

func TestNullStringFromPtr(t *testing.T) {
	tests := []struct {
		name     string
		input    *string
		expected sql.NullString
	}{
		{name: "nil pointer", input: nil, expected: sql.NullString{}},
		{name: "empty string", input: ptr(""), expected: sql.NullString{}},
		{name: "value", input: ptr("abc"), expected: sql.NullString{String: "abc", Valid: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := NullStringFromPtr(tt.input); result != tt.expected {
				t.Errorf("NullStringFromPtr() = %v, expected %v", result, tt.expected)
			}
		})
	}
}

func TestPtrFromNullString(t *testing.T) {
	if got := PtrFromNullString(sql.NullString{}); got != nil {
		t.Errorf("PtrFromNullString(invalid) = %v, want nil", *got)
	}
	got := PtrFromNullString(sql.NullString{String: "x", Valid: true})
	if got == nil || *got != "x" {
		t.Errorf("PtrFromNullString(valid) = %v, want pointer to \"x\"", got)
	}
}

func TestValueOr(t *testing.T) {
	if got := ValueOr[int64](nil, 0); got != 0 {
		t.Errorf("ValueOr(nil, 0) = %d, want 0", got)
	}
	if got := ValueOr(ptr(int64(7)), 0); got != 7 {
		t.Errorf("ValueOr(7, 0) = %d, want 7", got)
	}
	if got := ValueOr[bool](nil, true); !got {
		t.Error("ValueOr(nil, true) = false, want true")
	}
	if got := ValueOr(ptr(false), true); got {
		t.Error("ValueOr(false, true) = true, want false")
	}
}
