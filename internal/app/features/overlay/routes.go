// internal/app/features/overlay/routes.go
package overlay

import (
	"github.com/dalemusser/clubhub/internal/app/system/auth"
	"github.com/dalemusser/clubhub/internal/app/system/authz"
	"github.com/dalemusser/clubhub/internal/app/system/realtime"
	"github.com/go-chi/chi/v5"
)

// Routes returns the /overlay router for the scoreboard control.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Use(authz.Require(sm, authz.ControlOverlay))

	r.Get("/", h.ServeOverlay)
	r.Post("/", h.HandleUpdate)

	return r
}

// PublicRoutes returns the anonymous scoreboard routes mounted under
// /public/overlay.
func PublicRoutes(h *Handler, events realtime.Subscriber) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeOverlay)
	r.Get("/stream", h.ServeLive(events))
	return r
}
