// internal/app/features/register/routes.go
package register

import (
	"github.com/dalemusser/clubhub/internal/app/system/auth"
	"github.com/dalemusser/clubhub/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// Routes returns the /register router. OperateRegister is held by every
// role, so the gate amounts to being signed in.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.With(authz.Require(sm, authz.OperateRegister)).Post("/sales", h.HandleSale)
	return r
}
