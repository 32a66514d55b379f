// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/navcms/internal/middleware"
	"github.com/olegiv/navcms/internal/model"
)

// RouteOptions configures the middleware of the API routes.
type RouteOptions struct {
	// RateLimit and RateBurst limit authenticated requests per token.
	RateLimit float64
	RateBurst int
	// CSRF protects the token endpoint; nil disables it.
	CSRF func(http.Handler) http.Handler
}

// Routes registers the API under /api.
func (h *Handler) Routes(r chi.Router, opts RouteOptions) {
	if opts.RateLimit <= 0 {
		opts.RateLimit = 10
	}
	if opts.RateBurst <= 0 {
		opts.RateBurst = 20
	}

	bearer := middleware.BearerAuth(h.db)
	tokenLimit := middleware.APIRateLimit(opts.RateLimit, opts.RateBurst)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if h.login != nil {
				r.Use(h.login.Middleware())
			}
			if opts.CSRF != nil {
				r.Use(opts.CSRF)
			}
			r.Post("/auth/token", h.CreateToken)
		})
		r.With(bearer, tokenLimit).Delete("/auth/token", h.RevokeToken)
		r.With(bearer, tokenLimit, middleware.RequireAnyRole(model.RoleSuperAdmin)).Get("/events", h.ListEvents)

		r.Route("/navigation", func(r chi.Router) {
			r.Get("/", h.Tree)
			r.Get("/{id}", h.GetItem)

			r.Group(func(r chi.Router) {
				r.Use(bearer, tokenLimit, middleware.RequireAnyRole(model.NavigationManagerRoles...))
				r.Post("/", h.CreateItem)
				r.Post("/reorder", h.Reorder)
				r.Put("/{id}", h.UpdateItem)
				r.Delete("/{id}", h.DeleteItem)
			})
		})
	})
}
