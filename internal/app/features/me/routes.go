// internal/app/features/me/routes.go
package me

import (
	"github.com/dalemusser/clubhub/internal/app/system/auth"
	"github.com/dalemusser/clubhub/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// Routes returns the /me router.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/", h.ServeMe)
	r.Get("/capabilities", h.ServeCapabilities)
	r.With(authz.Require(sm, authz.EditOwnProfile)).Post("/", h.HandleUpdate)

	return r
}
