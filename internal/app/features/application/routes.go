// internal/app/features/application/routes.go
package application

import (
	"github.com/dalemusser/clubhub/internal/app/system/auth"
	"github.com/dalemusser/clubhub/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// Routes returns the /application router.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/", h.ServeStatus)
	r.With(authz.Require(sm, authz.SubmitApplication)).Post("/", h.HandleSubmit)

	return r
}
