// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/unicode/norm"
)

// labelPolicy strips every tag; labels are plain text in both languages.
var labelPolicy = bluemonday.StrictPolicy()

// markupPattern matches comments and well-formed start or end tags.
var markupPattern = regexp.MustCompile(`<!--[\s\S]*?-->|</?[A-Za-z][A-Za-z0-9-]*(?:\s[^<>]*)?/?>`)

var bracketEscaper = strings.NewReplacer("<", "&lt;", ">", "&gt;")

// escapeStrayBrackets escapes angle brackets outside markup so that text
// such as "a<b" or "C<C++>" survives sanitizing.
func escapeStrayBrackets(s string) string {
	matches := markupPattern.FindAllStringIndex(s, -1)
	if len(matches) == 0 {
		return bracketEscaper.Replace(s)
	}
	var b strings.Builder
	b.Grow(len(s))
	last := 0
	for _, m := range matches {
		b.WriteString(bracketEscaper.Replace(s[last:m[0]]))
		b.WriteString(s[m[0]:m[1]])
		last = m[1]
	}
	b.WriteString(bracketEscaper.Replace(s[last:]))
	return b.String()
}

// NormalizeLabel removes markup from s, applies Unicode NFC normalization
// and trims surrounding whitespace. An empty result means the label is
// missing.
func NormalizeLabel(s string) string {
	cleaned := labelPolicy.Sanitize(escapeStrayBrackets(s))
	// bluemonday escapes entities; labels are stored unescaped and escaped on output.
	cleaned = html.UnescapeString(cleaned)
	cleaned = norm.NFC.String(cleaned)
	return strings.Join(strings.Fields(cleaned), " ")
}

// NormalizeURL trims s and substitutes fallback when nothing remains.
func NormalizeURL(s, fallback string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback
	}
	return s
}
