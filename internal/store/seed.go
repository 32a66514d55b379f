// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/navcms/internal/auth"
	"github.com/olegiv/navcms/internal/model"
)

// DefaultAdminName is the display name of the seeded super admin.
const DefaultAdminName = "Administrator"

// SeedOptions holds the credentials of the initial super admin.
type SeedOptions struct {
	AdminEmail    string
	AdminPassword string
}

type seedNavigationItem struct {
	labelAr  string
	labelEn  string
	url      string
	children []seedNavigationItem
}

// defaultNavigation is inserted when the navigation table is empty.
var defaultNavigation = []seedNavigationItem{
	{labelAr: "الرئيسية", labelEn: "Home", url: "/"},
	{labelAr: "من نحن", labelEn: "About", url: "/about", children: []seedNavigationItem{
		{labelAr: "فريق العمل", labelEn: "Team", url: "/about/team"},
	}},
	{labelAr: "البرامج", labelEn: "Programs", url: "/programs"},
	{labelAr: "الأخبار", labelEn: "News", url: "/news"},
	{labelAr: "الفعاليات", labelEn: "Events", url: "/events"},
	{labelAr: "اتصل بنا", labelEn: "Contact", url: "/contact"},
}

// Seed creates the super admin user and the default navigation menu.
// Both steps are skipped when their data already exists.
func Seed(ctx context.Context, db *sql.DB, opts SeedOptions) error {
	if err := seedAdmin(ctx, New(db), opts); err != nil {
		return err
	}
	return seedNavigation(ctx, db)
}

func seedAdmin(ctx context.Context, queries *Queries, opts SeedOptions) error {
	if opts.AdminEmail == "" || opts.AdminPassword == "" {
		return errors.New("seeding requires admin email and password")
	}

	_, err := queries.GetUserByEmail(ctx, opts.AdminEmail)
	if err == nil {
		slog.Info("admin user already exists, skipping seed", "email", opts.AdminEmail)
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("checking for admin user: %w", err)
	}

	passwordHash, err := auth.HashPassword(opts.AdminPassword)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	now := time.Now().UTC()
	user, err := queries.CreateUser(ctx, CreateUserParams{
		ID:           uuid.NewString(),
		Email:        opts.AdminEmail,
		Name:         DefaultAdminName,
		PasswordHash: passwordHash,
		Role:         model.RoleSuperAdmin,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return fmt.Errorf("creating admin user: %w", err)
	}

	slog.Info("created super admin user", "id", user.ID, "email", user.Email)
	return nil
}

func seedNavigation(ctx context.Context, db *sql.DB) error {
	count, err := New(db).CountNavigationItems(ctx)
	if err != nil {
		return fmt.Errorf("counting navigation items: %w", err)
	}
	if count > 0 {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	inserted, err := insertSeedItems(ctx, New(db).WithTx(tx), defaultNavigation, sql.NullString{})
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing navigation seed: %w", err)
	}

	slog.Info("seeded default navigation", "items", inserted)
	return nil
}

func insertSeedItems(ctx context.Context, q *Queries, items []seedNavigationItem, parentID sql.NullString) (int, error) {
	inserted := 0
	for i, item := range items {
		now := time.Now().UTC()
		created, err := q.CreateNavigationItem(ctx, CreateNavigationItemParams{
			ID:        uuid.NewString(),
			LabelAr:   item.labelAr,
			LabelEn:   item.labelEn,
			Url:       item.url,
			ParentID:  parentID,
			SortOrder: int64(i),
			IsActive:  true,
			Target:    model.TargetSelf,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			return inserted, fmt.Errorf("creating navigation item %q: %w", item.labelEn, err)
		}
		inserted++

		n, err := insertSeedItems(ctx, q, item.children, sql.NullString{String: created.ID, Valid: true})
		inserted += n
		if err != nil {
			return inserted, err
		}
	}
	return inserted, nil
}
