// internal/app/features/calendar/routes.go
package calendar

import (
	"github.com/dalemusser/clubhub/internal/app/system/auth"
	"github.com/dalemusser/clubhub/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// Routes returns the /calendar router. Every member can read; coaches and
// admins schedule.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/", h.ServeList)
	r.Group(func(pr chi.Router) {
		pr.Use(authz.Require(sm, authz.ManageCalendar))
		pr.Post("/", h.HandleCreate)
		pr.Delete("/{id}", h.HandleDelete)
	})

	return r
}
