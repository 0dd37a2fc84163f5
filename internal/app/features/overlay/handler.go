// internal/app/features/overlay/handler.go
package overlay

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	uierrors "github.com/dalemusser/clubhub/internal/app/features/errors"
	overlaystore "github.com/dalemusser/clubhub/internal/app/store/overlay"
	"github.com/dalemusser/clubhub/internal/app/system/auditlog"
	"github.com/dalemusser/clubhub/internal/app/system/authz"
	"github.com/dalemusser/clubhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/clubhub/internal/app/system/inputval"
	"github.com/dalemusser/clubhub/internal/app/system/realtime"
	"github.com/dalemusser/clubhub/internal/app/system/timeouts"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"go.uber.org/zap"
)

// Handler serves the scoreboard control used during broadcasts.
type Handler struct {
	Overlay  *overlaystore.Store
	Pub      realtime.Publisher
	AuditLog *auditlog.Logger
	ErrLog   *uierrors.ErrorLogger
	Log      *zap.Logger
}

func NewHandler(overlay *overlaystore.Store, pub realtime.Publisher, audit *auditlog.Logger, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	if pub == nil {
		pub = realtime.Nop{}
	}
	return &Handler{Overlay: overlay, Pub: pub, AuditLog: audit, ErrLog: errLog, Log: logger}
}

// updateForm is a partial edit. Score fields are deltas.
type updateForm struct {
	TeamA       *string `json:"team_a" validate:"omitnil,notblank,max=40"`
	TeamB       *string `json:"team_b" validate:"omitnil,notblank,max=40"`
	Game        *string `json:"game" validate:"omitnil,notblank,max=60"`
	Status      *string `json:"status" validate:"omitnil,overlay_status"`
	ScoreADelta int     `json:"score_a_delta" validate:"min=-100,max=100"`
	ScoreBDelta int     `json:"score_b_delta" validate:"min=-100,max=100"`
}

func (f updateForm) clean() updateForm {
	f.TeamA = htmlsanitize.TextPtr(f.TeamA)
	f.TeamB = htmlsanitize.TextPtr(f.TeamB)
	f.Game = htmlsanitize.TextPtr(f.Game)
	if f.Status != nil {
		s := strings.TrimSpace(*f.Status)
		f.Status = &s
	}
	return f
}

func (f updateForm) empty() bool {
	return f.TeamA == nil && f.TeamB == nil && f.Game == nil && f.Status == nil &&
		f.ScoreADelta == 0 && f.ScoreBDelta == 0
}

func (f updateForm) details() map[string]string {
	d := map[string]string{}
	if f.TeamA != nil {
		d["team_a"] = *f.TeamA
	}
	if f.TeamB != nil {
		d["team_b"] = *f.TeamB
	}
	if f.Game != nil {
		d["game"] = *f.Game
	}
	if f.Status != nil {
		d["status"] = *f.Status
	}
	if f.ScoreADelta != 0 {
		d["score_a_delta"] = strconv.Itoa(f.ScoreADelta)
	}
	if f.ScoreBDelta != 0 {
		d["score_b_delta"] = strconv.Itoa(f.ScoreBDelta)
	}
	return d
}

// ServeOverlay handles GET /overlay and GET /public/overlay.
func (h *Handler) ServeOverlay(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	o, err := h.Overlay.Get(ctx)
	if err != nil {
		h.ErrLog.Write(w, r, "load overlay failed", err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, o)
}

// HandleUpdate handles POST /overlay.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.ActorFrom(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r)
		return
	}

	var form updateForm
	if err := uierrors.DecodeJSON(w, r, &form); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode overlay update failed", err, "Invalid scoreboard update.")
		return
	}
	form = form.clean()
	if form.empty() {
		uierrors.RenderBadRequest(w, r, "Nothing to update.")
		return
	}
	if err := inputval.Check(form); err != nil {
		h.ErrLog.Write(w, r, "validate overlay update failed", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	o, err := h.Overlay.Apply(ctx, overlaystore.Update{
		TeamA:  form.TeamA,
		TeamB:  form.TeamB,
		Game:   form.Game,
		Status: form.Status,
		DeltaA: form.ScoreADelta,
		DeltaB: form.ScoreBDelta,
	}, actor.ID)
	if err != nil {
		h.ErrLog.Write(w, r, "update overlay failed", err)
		return
	}

	h.AuditLog.OverlayUpdated(ctx, actor.ID, form.details())
	if err := h.Pub.Publish(ctx, realtime.NewEvent(realtime.CollOverlay, realtime.OpUpdate, models.LiveOverlayID, o)); err != nil {
		h.Log.Warn("publish overlay event failed", zap.Error(err))
	}
	uierrors.WriteJSON(w, http.StatusOK, o)
}

// ServeLive handles GET /public/overlay/stream: an anonymous SSE feed of
// scoreboard changes for the broadcast page.
func (h *Handler) ServeLive(events realtime.Subscriber) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ch, cancel := events.Subscribe(realtime.InCollection(realtime.CollOverlay))
		realtime.ServeSSE(w, r, ch, cancel, nil)
	}
}
