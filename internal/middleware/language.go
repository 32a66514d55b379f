// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"net/http"

	"github.com/olegiv/navcms/internal/i18n"
)

// ContextKeyLanguage is the context key for the negotiated response language.
const ContextKeyLanguage ContextKey = "language"

// Language creates middleware that negotiates the response language.
// Priority order:
// 1. Query parameter ?lang=XX
// 2. Accept-Language header
// 3. Default language
func Language(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lang := ResolveLanguage(r)
		w.Header().Set("Content-Language", lang)
		ctx := context.WithValue(r.Context(), ContextKeyLanguage, lang)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ResolveLanguage picks the supported language requested by r.
func ResolveLanguage(r *http.Request) string {
	if q := r.URL.Query().Get("lang"); q != "" {
		return i18n.MatchLanguage(q)
	}
	return i18n.MatchLanguage(r.Header.Get("Accept-Language"))
}

// GetLanguage returns the language stored by Language, or resolves it from
// the request when the middleware did not run.
func GetLanguage(r *http.Request) string {
	if lang, ok := r.Context().Value(ContextKeyLanguage).(string); ok && lang != "" {
		return lang
	}
	return ResolveLanguage(r)
}
