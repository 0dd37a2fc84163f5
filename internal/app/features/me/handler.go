// internal/app/features/me/handler.go
package me

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

// Handler serves the signed-in user's own profile.
type Handler struct {
	Service *workflow.Service
	ErrLog  *uierrors.ErrorLogger
	Log     *zap.Logger
}

func NewHandler(svc *workflow.Service, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Service: svc, ErrLog: errLog, Log: logger}
}

// meResponse is the profile plus what the caller may do. The capability
// map lets the client hide controls; the server still enforces every write.
type meResponse struct {
	Profile      *models.User    `json:"profile"`
	Capabilities map[string]bool `json:"capabilities"`
}

// ServeMe handles GET /me.
func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.ActorFrom(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Service.Profiles().GetByID(ctx, actor.ID)
	if err != nil {
		h.ErrLog.Write(w, r, "load own profile failed", err)
		return
	}

	uierrors.WriteJSON(w, http.StatusOK, meResponse{
		Profile:      u,
		Capabilities: authz.CapabilityMap(u.Role),
	})
}

// ServeCapabilities handles GET /me/capabilities.
func (h *Handler) ServeCapabilities(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.ActorFrom(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, map[string]any{
		"role":         actor.Role,
		"capabilities": authz.CapabilityMap(actor.Role),
	})
}

// HandleUpdate handles POST /me. Role and application status are not
// part of the form and cannot be changed here.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.ActorFrom(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r)
		return
	}

	var form workflow.ProfileForm
	if err := uierrors.DecodeJSON(w, r, &form); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode profile form failed", err, "Invalid profile data.")
		return
	}

	u, err := h.Service.UpdateOwnProfile(r.Context(), actor, form)
	if err != nil {
		h.ErrLog.Write(w, r, "update own profile failed", err)
		return
	}

	uierrors.WriteJSON(w, http.StatusOK, meResponse{
		Profile:      u,
		Capabilities: authz.CapabilityMap(u.Role),
	})
}
