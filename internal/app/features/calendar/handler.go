// internal/app/features/calendar/handler.go
package calendar

import (
	"context"
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/clubhub/internal/app/features/errors"
	"github.com/dalemusser/clubhub/internal/app/store/audit"
	calendarstore "github.com/dalemusser/clubhub/internal/app/store/calendar"
	"github.com/dalemusser/clubhub/internal/app/system/auditlog"
	"github.com/dalemusser/clubhub/internal/app/system/authz"
	"github.com/dalemusser/clubhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/clubhub/internal/app/system/inputval"
	"github.com/dalemusser/clubhub/internal/app/system/realtime"
	"github.com/dalemusser/clubhub/internal/app/system/timeouts"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type Handler struct {
	Events   *calendarstore.Store
	Pub      realtime.Publisher
	AuditLog *auditlog.Logger
	ErrLog   *uierrors.ErrorLogger
	Log      *zap.Logger
}

func NewHandler(events *calendarstore.Store, pub realtime.Publisher, audit *auditlog.Logger, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	if pub == nil {
		pub = realtime.Nop{}
	}
	return &Handler{Events: events, Pub: pub, AuditLog: audit, ErrLog: errLog, Log: logger}
}

type eventForm struct {
	Title    string `json:"title" validate:"notblank,max=120"`
	Date     string `json:"date" validate:"datetime=2006-01-02"`
	Time     string `json:"time" validate:"omitempty,datetime=15:04"`
	Location string `json:"location" validate:"max=200"`
	Type     string `json:"type" validate:"oneof=Match Practice Meeting"`
}

func (f eventForm) clean() eventForm {
	f.Title = htmlsanitize.Text(f.Title)
	f.Location = htmlsanitize.Text(f.Location)
	f.Date = strings.TrimSpace(f.Date)
	f.Time = strings.TrimSpace(f.Time)
	f.Type = strings.TrimSpace(f.Type)
	return f
}

// ServeList handles GET /calendar?type=&from=.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	f := calendarstore.ListFilter{Type: query.Get(r, "type"), From: query.Get(r, "from")}
	if f.Type != "" && !inputval.Var(f.Type, "oneof=Match Practice Meeting") {
		uierrors.RenderBadRequest(w, r, "Unknown event type.")
		return
	}
	if f.From != "" && !inputval.Var(f.From, "datetime=2006-01-02") {
		uierrors.RenderBadRequest(w, r, "from must be a YYYY-MM-DD date.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	events, err := h.Events.List(ctx, f)
	if err != nil {
		h.ErrLog.Write(w, r, "list calendar failed", err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, map[string]any{"events": events})
}

// HandleCreate handles POST /calendar.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.ActorFrom(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r)
		return
	}

	var form eventForm
	if err := uierrors.DecodeJSON(w, r, &form); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode calendar event failed", err, "Invalid event.")
		return
	}
	form = form.clean()
	if err := inputval.Check(form); err != nil {
		h.ErrLog.Write(w, r, "validate calendar event failed", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	ev, err := h.Events.Create(ctx, models.CalendarEvent{
		Title:     form.Title,
		Date:      form.Date,
		Time:      form.Time,
		Location:  form.Location,
		Type:      form.Type,
		CreatedBy: actor.ID,
	})
	if err != nil {
		h.ErrLog.Write(w, r, "create calendar event failed", err)
		return
	}

	h.AuditLog.RecordChanged(ctx, audit.EventCalendarCreated, actor.ID, ev.ID, map[string]string{
		"title": ev.Title,
		"date":  ev.Date,
		"type":  ev.Type,
	})
	if err := h.Pub.Publish(ctx, realtime.NewEvent(realtime.CollCalendar, realtime.OpInsert, ev.ID.Hex(), ev)); err != nil {
		h.Log.Warn("publish calendar event failed", zap.Error(err))
	}
	uierrors.WriteJSON(w, http.StatusCreated, ev)
}

// HandleDelete handles DELETE /calendar/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.ActorFrom(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r)
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		uierrors.RenderBadRequest(w, r, "Invalid event id.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	ev, err := h.Events.GetByID(ctx, id)
	if err != nil {
		h.ErrLog.Write(w, r, "load calendar event failed", err)
		return
	}
	if err := h.Events.Delete(ctx, id); err != nil {
		h.ErrLog.Write(w, r, "delete calendar event failed", err)
		return
	}

	h.AuditLog.RecordChanged(ctx, audit.EventCalendarDeleted, actor.ID, id, map[string]string{
		"title": ev.Title,
		"date":  ev.Date,
	})
	if err := h.Pub.Publish(ctx, realtime.NewEvent(realtime.CollCalendar, realtime.OpDelete, id.Hex(), nil)); err != nil {
		h.Log.Warn("publish calendar event failed", zap.Error(err))
	}
	uierrors.NoContent(w)
}
