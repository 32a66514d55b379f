// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package navigation

import "errors"

// Validation and lookup errors returned by Service. Every one of them is
// detected before anything is written.
var (
	ErrNotFound        = errors.New("navigation item not found")
	ErrLabelsRequired  = errors.New("label in both languages is required")
	ErrSelfParent      = errors.New("navigation item cannot be parent of itself")
	ErrParentNotFound  = errors.New("parent navigation item not found")
	ErrCircular        = errors.New("circular dependency in navigation hierarchy")
	ErrHasChildren     = errors.New("navigation item has sub-items")
	ErrInvalidTarget   = errors.New("link target must be _self or _blank")
	ErrEmptyReorder    = errors.New("no items to reorder")
	ErrDuplicateImport = errors.New("duplicate id in import")
)

// IsRejection reports whether err is a client error rather than a failure
// of the service itself.
func IsRejection(err error) bool {
	for _, target := range []error{
		ErrNotFound,
		ErrLabelsRequired,
		ErrSelfParent,
		ErrParentNotFound,
		ErrCircular,
		ErrHasChildren,
		ErrInvalidTarget,
		ErrEmptyReorder,
		ErrDuplicateImport,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
