// internal/app/features/roster/routes.go
package roster

import (
	"github.com/dalemusser/clubhub/internal/app/system/auth"
	"github.com/dalemusser/clubhub/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// Routes returns the /roster router. Every route requires ManageRoster.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Use(authz.Require(sm, authz.ManageRoster))

	r.Get("/", h.ServeList)
	r.Post("/{id}", h.HandleEdit)
	r.Post("/{id}/role", h.HandleAssignRole)
	r.Delete("/{id}", h.HandleDelete)

	return r
}
