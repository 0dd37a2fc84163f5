package errors_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	uierrors "github.com/dalemusser/clubhub/internal/app/features/errors"
	"github.com/dalemusser/clubhub/internal/app/system/inputval"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) uierrors.APIError {
	t.Helper()
	var body uierrors.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v (body %s)", err, rec.Body.String())
	}
	return body.Error
}

func TestStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{models.ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("approve: %w", models.ErrInvalidTransition), http.StatusConflict},
		{fmt.Errorf("%w: reviewApplications", models.ErrUnauthorized), http.StatusForbidden},
		{inputval.Errors{"gpa": "gpa is required"}, http.StatusUnprocessableEntity},
		{fmt.Errorf("%w: users.update: boom", models.ErrPersistence), http.StatusInternalServerError},
		{fmt.Errorf("anything"), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		if got := uierrors.Status(tc.err); got != tc.want {
			t.Errorf("Status(%v): got %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestErrorLogger_Write_InvalidInputCarriesFields(t *testing.T) {
	el := uierrors.NewErrorLogger(zap.NewNop())
	rec := httptest.NewRecorder()
	el.Write(rec, httptest.NewRequest("POST", "/application", nil), "submit", inputval.Errors{"grade": "grade must be 9 or greater"})

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status: got %d, want 422", rec.Code)
	}
	apiErr := decode(t, rec)
	if apiErr.Code != uierrors.CodeInvalidInput {
		t.Errorf("code: got %q", apiErr.Code)
	}
	if apiErr.Fields["grade"] == "" {
		t.Errorf("expected grade field message, got %v", apiErr.Fields)
	}
}

func TestErrorLogger_Write_ServerErrorIsLoggedNotLeaked(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	el := uierrors.NewErrorLogger(zap.New(core))
	rec := httptest.NewRecorder()
	secret := fmt.Errorf("%w: users.find: connection refused 10.0.0.5", models.ErrPersistence)
	el.Write(rec, httptest.NewRequest("GET", "/roster", nil), "list roster", secret)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status: got %d, want 500", rec.Code)
	}
	apiErr := decode(t, rec)
	if apiErr.Message == secret.Error() {
		t.Error("server error detail leaked to client")
	}
	entries := logs.FilterMessage("list roster").All()
	if len(entries) != 1 {
		t.Fatalf("expected one log entry, got %d", len(entries))
	}
	if entries[0].ContextMap()["path"] != "/roster" {
		t.Errorf("path field: got %v", entries[0].ContextMap()["path"])
	}
}

func TestErrorLogger_Write_Conflict(t *testing.T) {
	el := uierrors.NewErrorLogger(zap.NewNop())
	rec := httptest.NewRecorder()
	el.Write(rec, httptest.NewRequest("POST", "/inbox/x/approve", nil), "approve", models.ErrInvalidTransition)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status: got %d, want 409", rec.Code)
	}
	if decode(t, rec).Code != uierrors.CodeInvalidTransition {
		t.Error("expected invalid_transition code")
	}
}

func TestRenderForbidden_Message(t *testing.T) {
	rec := httptest.NewRecorder()
	uierrors.RenderForbidden(rec, httptest.NewRequest("POST", "/comms/announcements", nil), "Only staff can post in announcements.")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status: got %d", rec.Code)
	}
	if got := decode(t, rec).Message; got != "Only staff can post in announcements." {
		t.Errorf("message: got %q", got)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q", ct)
	}
}

func TestHandler_Forbidden(t *testing.T) {
	h := uierrors.NewHandler()
	rec := httptest.NewRecorder()
	h.Forbidden(rec, httptest.NewRequest("GET", "/forbidden", nil))
	if rec.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want 403", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.Unauthorized(rec, httptest.NewRequest("GET", "/unauthorized", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want 401", rec.Code)
	}
}
