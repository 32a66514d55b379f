// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const accessTokenColumns = `id, user_id, token_hash, token_prefix, expires_at, last_used_at, created_at`

func scanAccessToken(row interface{ Scan(...any) error }) (AccessToken, error) {
	var i AccessToken
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.TokenHash,
		&i.TokenPrefix,
		&i.ExpiresAt,
		&i.LastUsedAt,
		&i.CreatedAt,
	)
	return i, err
}

const createAccessToken = `-- name: CreateAccessToken :one
INSERT INTO access_tokens (id, user_id, token_hash, token_prefix, expires_at, created_at)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING ` + accessTokenColumns + `
`

type CreateAccessTokenParams struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	TokenHash   string    `json:"token_hash"`
	TokenPrefix string    `json:"token_prefix"`
	ExpiresAt   time.Time `json:"expires_at"`
	CreatedAt   time.Time `json:"created_at"`
}

func (q *Queries) CreateAccessToken(ctx context.Context, arg CreateAccessTokenParams) (AccessToken, error) {
	row := q.db.QueryRowContext(ctx, createAccessToken,
		arg.ID,
		arg.UserID,
		arg.TokenHash,
		arg.TokenPrefix,
		arg.ExpiresAt,
		arg.CreatedAt,
	)
	return scanAccessToken(row)
}

const getAccessTokenByHash = `-- name: GetAccessTokenByHash :one
SELECT ` + accessTokenColumns + ` FROM access_tokens WHERE token_hash = ?
`

func (q *Queries) GetAccessTokenByHash(ctx context.Context, tokenHash string) (AccessToken, error) {
	return scanAccessToken(q.db.QueryRowContext(ctx, getAccessTokenByHash, tokenHash))
}

const updateAccessTokenLastUsed = `-- name: UpdateAccessTokenLastUsed :exec
UPDATE access_tokens SET last_used_at = ? WHERE id = ?
`

type UpdateAccessTokenLastUsedParams struct {
	LastUsedAt sql.NullTime `json:"last_used_at"`
	ID         string       `json:"id"`
}

func (q *Queries) UpdateAccessTokenLastUsed(ctx context.Context, arg UpdateAccessTokenLastUsedParams) error {
	_, err := q.db.ExecContext(ctx, updateAccessTokenLastUsed, arg.LastUsedAt, arg.ID)
	return err
}

const deleteAccessToken = `-- name: DeleteAccessToken :exec
DELETE FROM access_tokens WHERE id = ?
`

func (q *Queries) DeleteAccessToken(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, deleteAccessToken, id)
	return err
}

const deleteExpiredAccessTokens = `-- name: DeleteExpiredAccessTokens :execrows
DELETE FROM access_tokens WHERE expires_at < ?
`

func (q *Queries) DeleteExpiredAccessTokens(ctx context.Context, now time.Time) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteExpiredAccessTokens, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
