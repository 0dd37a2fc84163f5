// internal/app/features/errors/errors.go
package errors

import (
	"net/http"

	"github.com/dalemusser/clubhub/internal/app/system/authz"
)

// Handler serves the landing endpoints the session gates redirect to.
// No DB needed.
type Handler struct{}

// NewHandler constructs an errors Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// Forbidden reports that the caller lacks permission.
// GET /forbidden
func (h *Handler) Forbidden(w http.ResponseWriter, r *http.Request) {
	msg := "You don't have permission to view this page."
	if role, ok := authz.Role(r); ok {
		msg = "Your role (" + string(role) + ") doesn't have permission to view this page."
	}
	RenderForbidden(w, r, msg)
}

// Unauthorized reports that the caller must sign in.
// GET /unauthorized
func (h *Handler) Unauthorized(w http.ResponseWriter, r *http.Request) {
	RenderUnauthorized(w, r)
}
