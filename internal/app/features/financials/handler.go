// internal/app/features/financials/handler.go
package financials

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/clubhub/internal/app/features/errors"
	"github.com/dalemusser/clubhub/internal/app/store/audit"
	ledgerstore "github.com/dalemusser/clubhub/internal/app/store/ledger"
	"github.com/dalemusser/clubhub/internal/app/system/auditlog"
	"github.com/dalemusser/clubhub/internal/app/system/authz"
	"github.com/dalemusser/clubhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/clubhub/internal/app/system/inputval"
	"github.com/dalemusser/clubhub/internal/app/system/realtime"
	"github.com/dalemusser/clubhub/internal/app/system/timeouts"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler serves the club ledger.
type Handler struct {
	Ledger   *ledgerstore.Store
	Pub      realtime.Publisher
	AuditLog *auditlog.Logger
	ErrLog   *uierrors.ErrorLogger
	Log      *zap.Logger
}

func NewHandler(ledger *ledgerstore.Store, pub realtime.Publisher, audit *auditlog.Logger, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	if pub == nil {
		pub = realtime.Nop{}
	}
	return &Handler{Ledger: ledger, Pub: pub, AuditLog: audit, ErrLog: errLog, Log: logger}
}

type entryForm struct {
	Description string      `json:"description" validate:"notblank,max=200"`
	Amount      json.Number `json:"amount" validate:"required,amount"`
	Type        string      `json:"type" validate:"oneof=incoming outgoing"`
	Category    string      `json:"category" validate:"ledger_category"`
	Date        string      `json:"date" validate:"datetime=2006-01-02"`
}

func (f entryForm) clean() entryForm {
	f.Description = htmlsanitize.Text(f.Description)
	f.Type = strings.ToLower(strings.TrimSpace(f.Type))
	f.Category = strings.TrimSpace(f.Category)
	f.Date = strings.TrimSpace(f.Date)
	return f
}

// ServeList handles GET /financials: every entry newest first plus totals.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	entries, err := h.Ledger.List(ctx)
	if err != nil {
		h.ErrLog.Write(w, r, "list ledger failed", err)
		return
	}
	totals, err := h.Ledger.Totals(ctx)
	if err != nil {
		h.ErrLog.Write(w, r, "ledger totals failed", err)
		return
	}

	views := make([]models.LedgerView, 0, len(entries))
	for _, e := range entries {
		views = append(views, e.View())
	}
	uierrors.WriteJSON(w, http.StatusOK, map[string]any{
		"entries": views,
		"totals":  totals,
	})
}

// HandleCreate handles POST /financials.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.ActorFrom(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r)
		return
	}

	var form entryForm
	if err := uierrors.DecodeJSON(w, r, &form); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode ledger entry failed", err, "Invalid ledger entry.")
		return
	}
	form = form.clean()
	if err := inputval.Check(form); err != nil {
		h.ErrLog.Write(w, r, "validate ledger entry failed", err)
		return
	}

	amount, _ := inputval.ParseAmount(form.Amount.String())
	d128, err := models.ToDecimal128(amount)
	if err != nil {
		uierrors.RenderInvalidInput(w, r, map[string]string{"amount": "amount is out of range"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	entry, err := h.Ledger.Create(ctx, models.LedgerEntry{
		Description: form.Description,
		Amount:      d128,
		Type:        form.Type,
		Category:    form.Category,
		Date:        form.Date,
		CreatedBy:   actor.ID,
	})
	if err != nil {
		h.ErrLog.Write(w, r, "create ledger entry failed", err)
		return
	}

	h.AuditLog.RecordChanged(ctx, audit.EventLedgerEntryCreated, actor.ID, entry.ID, map[string]string{
		"type":     entry.Type,
		"category": entry.Category,
		"amount":   amount.StringFixed(2),
	})
	view := entry.View()
	if err := h.Pub.Publish(ctx, realtime.NewEvent(realtime.CollLedger, realtime.OpInsert, entry.ID.Hex(), view)); err != nil {
		h.Log.Warn("publish ledger event failed", zap.Error(err))
	}
	uierrors.WriteJSON(w, http.StatusCreated, view)
}

// HandleDelete handles DELETE /financials/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.ActorFrom(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r)
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		uierrors.RenderBadRequest(w, r, "Invalid entry id.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	entry, err := h.Ledger.GetByID(ctx, id)
	if err != nil {
		h.ErrLog.Write(w, r, "load ledger entry failed", err)
		return
	}
	if err := h.Ledger.Delete(ctx, id); err != nil {
		h.ErrLog.Write(w, r, "delete ledger entry failed", err)
		return
	}

	h.AuditLog.RecordChanged(ctx, audit.EventLedgerEntryDeleted, actor.ID, id, map[string]string{
		"description": entry.Description,
		"amount":      entry.AmountDecimal().StringFixed(2),
	})
	if err := h.Pub.Publish(ctx, realtime.NewEvent(realtime.CollLedger, realtime.OpDelete, id.Hex(), nil)); err != nil {
		h.Log.Warn("publish ledger event failed", zap.Error(err))
	}
	uierrors.NoContent(w)
}
