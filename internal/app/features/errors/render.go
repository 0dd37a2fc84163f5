// internal/app/features/errors/render.go
package errors

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dalemusser/clubhub/internal/app/system/inputval"
	"github.com/dalemusser/clubhub/internal/domain/models"
)

// Error codes carried in the response envelope.
const (
	CodeBadRequest        = "bad_request"
	CodeUnauthorized      = "unauthorized"
	CodeForbidden         = "forbidden"
	CodeNotFound          = "not_found"
	CodeInvalidTransition = "invalid_transition"
	CodeInvalidInput      = "invalid_input"
	CodeInternal          = "internal_error"
)

// APIError is the body of every error response.
type APIError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// ErrorResponse wraps an APIError.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// WriteJSON writes data as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// NoContent writes a 204.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

func writeError(w http.ResponseWriter, status int, apiErr APIError) {
	WriteJSON(w, status, ErrorResponse{Error: apiErr})
}

// RenderBadRequest writes a 400 with msg.
func RenderBadRequest(w http.ResponseWriter, _ *http.Request, msg string) {
	writeError(w, http.StatusBadRequest, APIError{Code: CodeBadRequest, Message: msg})
}

// RenderUnauthorized writes a 401 asking the caller to sign in.
func RenderUnauthorized(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusUnauthorized, APIError{Code: CodeUnauthorized, Message: "Please sign in to continue."})
}

// RenderForbidden writes a 403 with msg.
func RenderForbidden(w http.ResponseWriter, _ *http.Request, msg string) {
	if msg == "" {
		msg = "You don't have permission to do that."
	}
	writeError(w, http.StatusForbidden, APIError{Code: CodeForbidden, Message: msg})
}

// RenderNotFound writes a 404 with msg.
func RenderNotFound(w http.ResponseWriter, _ *http.Request, msg string) {
	if msg == "" {
		msg = "Not found."
	}
	writeError(w, http.StatusNotFound, APIError{Code: CodeNotFound, Message: msg})
}

// RenderInvalidInput writes a 422 carrying the per-field messages.
func RenderInvalidInput(w http.ResponseWriter, _ *http.Request, fields map[string]string) {
	writeError(w, http.StatusUnprocessableEntity, APIError{
		Code:    CodeInvalidInput,
		Message: "Please correct the highlighted fields.",
		Fields:  fields,
	})
}

// Status returns the HTTP status for a domain error.
//
//	ErrNotFound          → 404
//	ErrInvalidTransition → 409
//	ErrUnauthorized      → 403
//	ErrInvalidInput      → 422
//	anything else        → 500
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, models.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, models.ErrInvalidInput):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// fieldsOf extracts field messages from a validation error. An invalid-input
// error without a field map yields a single "_" entry.
func fieldsOf(err error) map[string]string {
	var ve inputval.Errors
	if errors.As(err, &ve) {
		return ve
	}
	return map[string]string{"_": err.Error()}
}
