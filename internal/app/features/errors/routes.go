// internal/app/features/errors/routes.go
package errors

import "github.com/go-chi/chi/v5"

// Routes mounts /forbidden and /unauthorized at the router root.
func Routes(r chi.Router, h *Handler) {
	r.Get("/forbidden", h.Forbidden)
	r.Get("/unauthorized", h.Unauthorized)
}
