// internal/app/features/roster/handler.go
package roster

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/clubhub/internal/app/features/errors"
	userstore "github.com/dalemusser/clubhub/internal/app/store/users"
	"github.com/dalemusser/clubhub/internal/app/system/authz"
	"github.com/dalemusser/clubhub/internal/app/system/normalize"
	"github.com/dalemusser/clubhub/internal/app/system/timeouts"
	"github.com/dalemusser/clubhub/internal/app/system/workflow"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler serves the coaches' roster management screens.
type Handler struct {
	Service *workflow.Service
	ErrLog  *uierrors.ErrorLogger
	Log     *zap.Logger
}

func NewHandler(svc *workflow.Service, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Service: svc, ErrLog: errLog, Log: logger}
}

type listResponse struct {
	Users      []models.User `json:"users"`
	HasPrev    bool          `json:"has_prev"`
	HasNext    bool          `json:"has_next"`
	PrevCursor string        `json:"prev_cursor,omitempty"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

// ServeList handles GET /roster?q=&game=&after=&before=.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	page, err := h.Service.Profiles().List(ctx, userstore.ListFilter{
		Q:      normalize.QueryParam(query.Get(r, "q")),
		Game:   normalize.QueryParam(query.Get(r, "game")),
		After:  query.Get(r, "after"),
		Before: query.Get(r, "before"),
	})
	if err != nil {
		h.ErrLog.Write(w, r, "list roster failed", err)
		return
	}

	users := page.Users
	if users == nil {
		users = []models.User{}
	}
	uierrors.WriteJSON(w, http.StatusOK, listResponse{
		Users:      users,
		HasPrev:    page.HasPrev,
		HasNext:    page.HasNext,
		PrevCursor: page.PrevCursor,
		NextCursor: page.NextCursor,
	})
}

// HandleEdit handles POST /roster/{id}.
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	actor, target, ok := h.params(w, r)
	if !ok {
		return
	}

	var form workflow.RosterForm
	if err := uierrors.DecodeJSON(w, r, &form); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode roster form failed", err, "Invalid member data.")
		return
	}

	u, err := h.Service.EditMember(r.Context(), actor, target, form)
	if err != nil {
		h.ErrLog.Write(w, r, "edit member failed", err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, u)
}

type roleRequest struct {
	Role string `json:"role"`
}

// HandleAssignRole handles POST /roster/{id}/role.
func (h *Handler) HandleAssignRole(w http.ResponseWriter, r *http.Request) {
	actor, target, ok := h.params(w, r)
	if !ok {
		return
	}

	var req roleRequest
	if err := uierrors.DecodeJSON(w, r, &req); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode role failed", err, "Invalid role data.")
		return
	}
	role, valid := models.ParseRole(req.Role)
	if !valid {
		uierrors.RenderInvalidInput(w, r, map[string]string{"role": "role must be one of guest, student, player, staff, coach, admin"})
		return
	}

	u, err := h.Service.AssignRole(r.Context(), actor, target, role)
	if err != nil {
		h.ErrLog.Write(w, r, "assign role failed", err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, u)
}

// HandleDelete handles DELETE /roster/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	actor, target, ok := h.params(w, r)
	if !ok {
		return
	}
	if target == actor.ID {
		uierrors.RenderBadRequest(w, r, "You can't remove yourself from the roster.")
		return
	}

	if err := h.Service.RemoveMember(r.Context(), actor, target); err != nil {
		h.ErrLog.Write(w, r, "remove member failed", err)
		return
	}
	uierrors.NoContent(w)
}

func (h *Handler) params(w http.ResponseWriter, r *http.Request) (authz.Actor, primitive.ObjectID, bool) {
	actor, ok := authz.ActorFrom(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r)
		return authz.Actor{}, primitive.NilObjectID, false
	}
	target, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		uierrors.RenderBadRequest(w, r, "Invalid user id.")
		return authz.Actor{}, primitive.NilObjectID, false
	}
	return actor, target, true
}
