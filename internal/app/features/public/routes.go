// internal/app/features/public/routes.go
package public

import "github.com/go-chi/chi/v5"

// Routes returns the /public router. No session is required.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/roster", h.ServeRoster)
	r.Get("/matches", h.ServeMatches)
	return r
}
