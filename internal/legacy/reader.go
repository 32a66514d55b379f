// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package legacy reads the navigation table of the legacy MySQL database.
package legacy

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/olegiv/navcms/internal/navigation"
)

// DefaultTable is the name of the legacy navigation table.
const DefaultTable = "NavigationItem"

// ErrInvalidTable is returned for table names that are not plain identifiers.
var ErrInvalidTable = errors.New("invalid table name")

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,63}$`)

// Reader reads navigation items from a legacy MySQL database.
type Reader struct {
	db    *sql.DB
	table string
}

// NewReader opens the legacy database and checks the connection. Times are
// always parsed, whatever the DSN says.
func NewReader(ctx context.Context, dsn, table string) (*Reader, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connector: %w", err)
	}
	db := sql.OpenDB(connector)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	r, err := NewReaderFromDB(db, table)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

// NewReaderFromDB creates a reader on an open connection. An empty table
// selects DefaultTable.
func NewReaderFromDB(db *sql.DB, table string) (*Reader, error) {
	if table == "" {
		table = DefaultTable
	}
	if !identifier.MatchString(table) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTable, table)
	}
	return &Reader{db: db, table: table}, nil
}

// Close closes the database connection.
func (r *Reader) Close() error {
	return r.db.Close()
}

// Items returns every row of the navigation table, parents first where the
// legacy ids allow it.
func (r *Reader) Items(ctx context.Context) ([]navigation.ImportItem, error) {
	// The table name is a checked identifier; it cannot be a placeholder.
	query := fmt.Sprintf("SELECT `id`, `labelAr`, `labelEn`, `url`, `parentId`, `sortOrder`, `isActive`, `target`, `createdAt`, `updatedAt` "+
		"FROM `%s` ORDER BY `parentId` IS NOT NULL, `sortOrder`, `createdAt`, `id`", r.table)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query navigation items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var items []navigation.ImportItem
	for rows.Next() {
		var (
			item      navigation.ImportItem
			url       sql.NullString
			parentID  sql.NullString
			sortOrder sql.NullInt64
			target    sql.NullString
			createdAt sql.NullTime
			updatedAt sql.NullTime
		)
		if err := rows.Scan(&item.ID, &item.LabelAr, &item.LabelEn, &url, &parentID,
			&sortOrder, &item.IsActive, &target, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan navigation item: %w", err)
		}

		item.URL = url.String
		item.SortOrder = sortOrder.Int64
		item.Target = target.String
		item.CreatedAt = createdAt.Time
		item.UpdatedAt = updatedAt.Time
		if parentID.Valid && parentID.String != "" {
			p := parentID.String
			item.ParentID = &p
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating navigation items: %w", err)
	}
	return items, nil
}
