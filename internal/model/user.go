// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines domain constants and small value helpers shared by
// the store, navigation and HTTP layers.
package model

// User roles.
const (
	RoleSuperAdmin = "SUPER_ADMIN"
	RoleAdmin      = "ADMIN"
	RoleEditor     = "EDITOR"
)

// NavigationManagerRoles lists the roles allowed to change the navigation tree.
var NavigationManagerRoles = []string{RoleSuperAdmin, RoleAdmin}

// HasAnyRole reports whether role is contained in allowed.
// Roles are compared case-sensitively.
func HasAnyRole(role string, allowed ...string) bool {
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}
