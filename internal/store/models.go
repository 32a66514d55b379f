// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"database/sql"
	"time"
)

type AccessToken struct {
	ID          string       `json:"id"`
	UserID      string       `json:"user_id"`
	TokenHash   string       `json:"token_hash"`
	TokenPrefix string       `json:"token_prefix"`
	ExpiresAt   time.Time    `json:"expires_at"`
	LastUsedAt  sql.NullTime `json:"last_used_at"`
	CreatedAt   time.Time    `json:"created_at"`
}

type Event struct {
	ID         int64          `json:"id"`
	Level      string         `json:"level"`
	Category   string         `json:"category"`
	Message    string         `json:"message"`
	UserID     sql.NullString `json:"user_id"`
	IpAddress  string         `json:"ip_address"`
	RequestUrl string         `json:"request_url"`
	Metadata   string         `json:"metadata"`
	CreatedAt  time.Time      `json:"created_at"`
}

type NavigationItem struct {
	ID        string         `json:"id"`
	LabelAr   string         `json:"label_ar"`
	LabelEn   string         `json:"label_en"`
	Url       string         `json:"url"`
	ParentID  sql.NullString `json:"parent_id"`
	SortOrder int64          `json:"sort_order"`
	IsActive  bool           `json:"is_active"`
	Target    string         `json:"target"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

type User struct {
	ID           string       `json:"id"`
	Email        string       `json:"email"`
	Name         string       `json:"name"`
	PasswordHash string       `json:"password_hash"`
	Role         string       `json:"role"`
	IsActive     bool         `json:"is_active"`
	LastLoginAt  sql.NullTime `json:"last_login_at"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}
