// internal/app/features/inbox/routes.go
package inbox

import (
	"github.com/dalemusser/clubhub/internal/app/system/auth"
	"github.com/dalemusser/clubhub/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// Routes returns the /inbox router. Every route requires ReviewApplications.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Use(authz.Require(sm, authz.ReviewApplications))

	r.Get("/", h.ServeList)
	r.Post("/{id}/tryout", h.HandleTryout)
	r.Post("/{id}/approve", h.HandleApprove)

	return r
}
