// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Link target values.
const (
	TargetSelf  = "_self"
	TargetBlank = "_blank"
)

// DefaultNavigationURL is stored when an item is saved without a URL.
const DefaultNavigationURL = "#"

// ValidTargets contains all valid link target values.
var ValidTargets = []string{TargetSelf, TargetBlank}

// IsValidTarget checks if a target value is valid.
func IsValidTarget(target string) bool {
	for _, t := range ValidTargets {
		if t == target {
			return true
		}
	}
	return false
}
