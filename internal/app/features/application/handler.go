// internal/app/features/application/handler.go
package application

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/clubhub/internal/app/features/errors"
	"github.com/dalemusser/clubhub/internal/app/system/authz"
	"github.com/dalemusser/clubhub/internal/app/system/timeouts"
	"github.com/dalemusser/clubhub/internal/app/system/workflow"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"go.uber.org/zap"
)

// Handler serves the caller's own team application.
type Handler struct {
	Service *workflow.Service
	ErrLog  *uierrors.ErrorLogger
	Log     *zap.Logger
}

func NewHandler(svc *workflow.Service, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Service: svc, ErrLog: errLog, Log: logger}
}

type statusResponse struct {
	Status    models.ApplicationStatus `json:"status"`
	Role      models.Role              `json:"role"`
	CanSubmit bool                     `json:"can_submit"`
	Profile   *models.User             `json:"profile"`
}

func respond(w http.ResponseWriter, status int, u *models.User) {
	uierrors.WriteJSON(w, status, statusResponse{
		Status:    u.Status(),
		Role:      u.Role,
		CanSubmit: u.Status() == models.StatusNone && authz.CanPerform(u.Role, authz.SubmitApplication),
		Profile:   u,
	})
}

// ServeStatus handles GET /application.
func (h *Handler) ServeStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.ActorFrom(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Service.Profiles().GetByID(ctx, actor.ID)
	if err != nil {
		h.ErrLog.Write(w, r, "load application failed", err)
		return
	}
	respond(w, http.StatusOK, u)
}

// HandleSubmit handles POST /application.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.ActorFrom(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r)
		return
	}

	var form workflow.ApplicationForm
	if err := uierrors.DecodeJSON(w, r, &form); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode application failed", err, "Invalid application data.")
		return
	}

	u, err := h.Service.Submit(r.Context(), actor, form)
	if err != nil {
		h.ErrLog.Write(w, r, "submit application failed", err)
		return
	}
	respond(w, http.StatusOK, u)
}
