// internal/app/features/inbox/handler.go
package inbox

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/clubhub/internal/app/features/errors"
	"github.com/dalemusser/clubhub/internal/app/system/authz"
	"github.com/dalemusser/clubhub/internal/app/system/timeouts"
	"github.com/dalemusser/clubhub/internal/app/system/workflow"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler serves the coaches' application inbox.
type Handler struct {
	Service *workflow.Service
	ErrLog  *uierrors.ErrorLogger
	Log     *zap.Logger
}

func NewHandler(svc *workflow.Service, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Service: svc, ErrLog: errLog, Log: logger}
}

type listResponse struct {
	Submitted []models.User `json:"submitted"`
	Tryout    []models.User `json:"tryout"`
}

// ServeList handles GET /inbox: every profile awaiting a decision.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	users, err := h.Service.Profiles().ListByStatus(ctx, models.StatusSubmitted, models.StatusTryout)
	if err != nil {
		h.ErrLog.Write(w, r, "list inbox failed", err)
		return
	}

	resp := listResponse{Submitted: []models.User{}, Tryout: []models.User{}}
	for _, u := range users {
		if u.Status() == models.StatusTryout {
			resp.Tryout = append(resp.Tryout, u)
		} else {
			resp.Submitted = append(resp.Submitted, u)
		}
	}
	uierrors.WriteJSON(w, http.StatusOK, resp)
}

// HandleTryout handles POST /inbox/{id}/tryout.
func (h *Handler) HandleTryout(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "schedule tryout failed", h.Service.ScheduleTryout)
}

// HandleApprove handles POST /inbox/{id}/approve.
func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "approve application failed", h.Service.Approve)
}

type transitionFunc func(ctx context.Context, actor authz.Actor, target primitive.ObjectID) (*models.User, error)

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, failMsg string, fn transitionFunc) {
	actor, ok := authz.ActorFrom(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r)
		return
	}
	target, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		uierrors.RenderBadRequest(w, r, "Invalid user id.")
		return
	}

	u, err := fn(r.Context(), actor, target)
	if err != nil {
		h.ErrLog.Write(w, r, failMsg, err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, u)
}
