// internal/app/features/financials/routes.go
package financials

import (
	"github.com/dalemusser/clubhub/internal/app/system/auth"
	"github.com/dalemusser/clubhub/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// Routes returns the /financials router.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Group(func(pr chi.Router) {
		pr.Use(authz.Require(sm, authz.ManageLedger))
		pr.Get("/", h.ServeList)
		pr.Post("/", h.HandleCreate)
	})
	r.With(authz.Require(sm, authz.DeleteLedgerEntry)).Delete("/{id}", h.HandleDelete)

	return r
}
