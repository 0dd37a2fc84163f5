// internal/app/features/errors/logger.go
package errors

import (
	"net/http"

	"go.uber.org/zap"
)

// ErrorLogger writes error responses and logs the ones the client can't fix.
type ErrorLogger struct {
	Log *zap.Logger
}

// NewErrorLogger constructs an ErrorLogger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	return &ErrorLogger{Log: logger}
}

// LogServerError logs err with the request's method and path and writes a
// 500 with userMsg. The underlying error is never sent to the client.
func (e *ErrorLogger) LogServerError(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg string) {
	e.Log.Error(msg,
		zap.Error(err),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path))
	if userMsg == "" {
		userMsg = "Something went wrong. Please try again."
	}
	writeError(w, http.StatusInternalServerError, APIError{Code: CodeInternal, Message: userMsg})
}

// LogBadRequest logs a malformed request at info level and writes a 400.
func (e *ErrorLogger) LogBadRequest(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg string) {
	e.Log.Info(msg,
		zap.Error(err),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path))
	RenderBadRequest(w, r, userMsg)
}

// Write maps a domain error onto its response. msg labels the log entry
// when the error is a server failure.
func (e *ErrorLogger) Write(w http.ResponseWriter, r *http.Request, msg string, err error) {
	switch Status(err) {
	case http.StatusNotFound:
		RenderNotFound(w, r, "")
	case http.StatusConflict:
		writeError(w, http.StatusConflict, APIError{
			Code:    CodeInvalidTransition,
			Message: "That application is not in the expected state. Refresh and try again.",
		})
	case http.StatusForbidden:
		RenderForbidden(w, r, "")
	case http.StatusUnprocessableEntity:
		RenderInvalidInput(w, r, fieldsOf(err))
	default:
		e.LogServerError(w, r, msg, err, "A database error occurred.")
	}
}
