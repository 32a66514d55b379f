// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package navigation

import (
	"context"
	"fmt"

	"github.com/olegiv/navcms/internal/i18n"
	"github.com/olegiv/navcms/internal/store"
)

// Tree returns the navigation forest. Roots and every children list are in
// sibling order; an item whose parent is missing is treated as a root.
func (s *Service) Tree(ctx context.Context, opts TreeOptions) ([]*Node, error) {
	rows, err := s.queries.ListNavigationItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing navigation items: %w", err)
	}
	return buildTree(rows, opts), nil
}

// buildTree resolves parents through an id index. rows must already be in
// sibling order, so appending in row order keeps every list sorted.
func buildTree(rows []store.NavigationItem, opts TreeOptions) []*Node {
	index := make(map[string]*Node, len(rows))
	for _, row := range rows {
		item := itemFromStore(row)
		index[row.ID] = &Node{
			Item:     item,
			Label:    localizedLabel(item, opts.Lang),
			Children: []*Node{},
		}
	}

	roots := []*Node{}
	for _, row := range rows {
		node := index[row.ID]
		if row.ParentID.Valid {
			if parent, ok := index[row.ParentID.String]; ok && parent != node {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}

	if opts.ActiveOnly {
		roots = pruneInactive(roots)
	}
	return roots
}

// pruneInactive drops inactive nodes together with their subtrees.
func pruneInactive(nodes []*Node) []*Node {
	kept := make([]*Node, 0, len(nodes))
	for _, node := range nodes {
		if !node.IsActive {
			continue
		}
		node.Children = pruneInactive(node.Children)
		kept = append(kept, node)
	}
	return kept
}

func localizedLabel(item Item, lang string) string {
	if lang == i18n.LangArabic {
		return item.LabelAr
	}
	return item.LabelEn
}
