// internal/app/features/comms/handler.go
package comms

import (
	"context"
	"net/http"
	"strconv"

	uierrors "github.com/dalemusser/clubhub/internal/app/features/errors"
	"github.com/dalemusser/clubhub/internal/app/store/audit"
	messagestore "github.com/dalemusser/clubhub/internal/app/store/messages"
	"github.com/dalemusser/clubhub/internal/app/system/auditlog"
	"github.com/dalemusser/clubhub/internal/app/system/auth"
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

// AnnouncementsDenied is shown to members who try to post in the
// read-only announcements channel.
const AnnouncementsDenied = "Only staff can post in announcements."

// maxListLimit caps the ?limit= a client may ask for.
const maxListLimit = 500

// Handler serves the comms channels.
type Handler struct {
	Messages *messagestore.Store
	Pub      realtime.Publisher
	AuditLog *auditlog.Logger
	ErrLog   *uierrors.ErrorLogger
	Log      *zap.Logger
}

func NewHandler(messages *messagestore.Store, pub realtime.Publisher, audit *auditlog.Logger, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	if pub == nil {
		pub = realtime.Nop{}
	}
	return &Handler{Messages: messages, Pub: pub, AuditLog: audit, ErrLog: errLog, Log: logger}
}

type postForm struct {
	Text string `json:"text" validate:"notblank,max=2000"`
}

// ServeChannel handles GET /comms/{channel}?limit=.
func (h *Handler) ServeChannel(w http.ResponseWriter, r *http.Request) {
	channel := chi.URLParam(r, "channel")
	if !models.IsChannel(channel) {
		uierrors.RenderNotFound(w, r, "Unknown channel.")
		return
	}

	limit := int64(messagestore.DefaultLimit)
	if raw := query.Get(r, "limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 {
			uierrors.RenderBadRequest(w, r, "limit must be a positive number.")
			return
		}
		limit = min(n, maxListLimit)
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	msgs, err := h.Messages.ListByChannel(ctx, channel, limit)
	if err != nil {
		h.ErrLog.Write(w, r, "list messages failed", err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, map[string]any{
		"channel":  channel,
		"messages": msgs,
	})
}

// HandlePost handles POST /comms/{channel}. Any signed-in member may post;
// the announcements channel additionally requires PostAnnouncements.
func (h *Handler) HandlePost(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.ActorFrom(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r)
		return
	}
	channel := chi.URLParam(r, "channel")
	if !models.IsChannel(channel) {
		uierrors.RenderNotFound(w, r, "Unknown channel.")
		return
	}
	if channel == models.ChannelAnnouncements && !actor.Can(authz.PostAnnouncements) {
		h.Log.Info("announcement post denied",
			zap.String("actor_id", actor.ID.Hex()),
			zap.String("role", actor.Role.String()))
		h.AuditLog.PermissionDenied(r.Context(), actor.ID, actor.Role, authz.PostAnnouncements.String())
		uierrors.RenderForbidden(w, r, AnnouncementsDenied)
		return
	}

	var form postForm
	if err := uierrors.DecodeJSON(w, r, &form); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode message failed", err, "Invalid message.")
		return
	}
	form.Text = htmlsanitize.Text(form.Text)
	if err := inputval.Check(form); err != nil {
		h.ErrLog.Write(w, r, "validate message failed", err)
		return
	}

	msg := models.Message{
		Channel:    channel,
		Text:       form.Text,
		AuthorID:   actor.ID,
		AuthorName: actor.Name,
		AuthorRole: actor.Role,
	}
	if u, ok := auth.CurrentUser(r); ok {
		msg.PhotoURL = u.PhotoURL
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	msg, err := h.Messages.Create(ctx, msg)
	if err != nil {
		h.ErrLog.Write(w, r, "create message failed", err)
		return
	}

	if err := h.Pub.Publish(ctx, realtime.NewEvent(realtime.CollMessages, realtime.OpInsert, msg.ID.Hex(), msg)); err != nil {
		h.Log.Warn("publish message event failed", zap.Error(err))
	}
	uierrors.WriteJSON(w, http.StatusCreated, msg)
}

// HandleDelete handles DELETE /comms/messages/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.ActorFrom(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r)
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		uierrors.RenderBadRequest(w, r, "Invalid message id.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	msg, err := h.Messages.GetByID(ctx, id)
	if err != nil {
		h.ErrLog.Write(w, r, "load message failed", err)
		return
	}
	if err := h.Messages.Delete(ctx, id); err != nil {
		h.ErrLog.Write(w, r, "delete message failed", err)
		return
	}

	h.AuditLog.RecordChanged(ctx, audit.EventMessageDeleted, actor.ID, id, map[string]string{
		"channel":   msg.Channel,
		"author_id": msg.AuthorID.Hex(),
	})
	if err := h.Pub.Publish(ctx, realtime.NewEvent(realtime.CollMessages, realtime.OpDelete, id.Hex(), nil)); err != nil {
		h.Log.Warn("publish message event failed", zap.Error(err))
	}
	uierrors.NoContent(w)
}
