// internal/app/features/comms/routes.go
package comms

import (
	"github.com/dalemusser/clubhub/internal/app/system/auth"
	"github.com/dalemusser/clubhub/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// Routes returns the /comms router.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/{channel}", h.ServeChannel)
	r.Post("/{channel}", h.HandlePost)
	r.With(authz.Require(sm, authz.DeleteAnyMessage)).Delete("/messages/{id}", h.HandleDelete)

	return r
}
