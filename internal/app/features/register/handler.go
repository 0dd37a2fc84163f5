// internal/app/features/register/handler.go
package register

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	uierrors "github.com/dalemusser/clubhub/internal/app/features/errors"
	"github.com/dalemusser/clubhub/internal/app/store/audit"
	ledgerstore "github.com/dalemusser/clubhub/internal/app/store/ledger"
	"github.com/dalemusser/clubhub/internal/app/system/auditlog"
	"github.com/dalemusser/clubhub/internal/app/system/auth"
	"github.com/dalemusser/clubhub/internal/app/system/authz"
	"github.com/dalemusser/clubhub/internal/app/system/inputval"
	"github.com/dalemusser/clubhub/internal/app/system/realtime"
	"github.com/dalemusser/clubhub/internal/app/system/timeouts"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"go.uber.org/zap"
)

// Handler records concession stand sales.
type Handler struct {
	Ledger   *ledgerstore.Store
	Pub      realtime.Publisher
	AuditLog *auditlog.Logger
	ErrLog   *uierrors.ErrorLogger
	Log      *zap.Logger

	// now is replaced in tests.
	now func() time.Time
}

func NewHandler(ledger *ledgerstore.Store, pub realtime.Publisher, audit *auditlog.Logger, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	if pub == nil {
		pub = realtime.Nop{}
	}
	return &Handler{Ledger: ledger, Pub: pub, AuditLog: audit, ErrLog: errLog, Log: logger, now: time.Now}
}

type saleForm struct {
	Total     json.Number `json:"total" validate:"required,amount"`
	ItemCount int         `json:"item_count" validate:"min=1,max=500"`
}

// HandleSale handles POST /register/sales. The sale is written as an
// incoming Concessions entry dated today with the cashier's email.
func (h *Handler) HandleSale(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.ActorFrom(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r)
		return
	}

	var form saleForm
	if err := uierrors.DecodeJSON(w, r, &form); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode sale failed", err, "Invalid sale.")
		return
	}
	if err := inputval.Check(form); err != nil {
		h.ErrLog.Write(w, r, "validate sale failed", err)
		return
	}
	total, _ := inputval.ParseAmount(form.Total.String())
	d128, err := models.ToDecimal128(total)
	if err != nil {
		uierrors.RenderInvalidInput(w, r, map[string]string{"total": "total is out of range"})
		return
	}

	cashier := actor.Name
	if u, ok := auth.CurrentUser(r); ok && u.Email != "" {
		cashier = u.Email
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	entry, err := h.Ledger.Create(ctx, models.LedgerEntry{
		Description: fmt.Sprintf("POS Sale: %d items", form.ItemCount),
		Amount:      d128,
		Type:        models.LedgerIncoming,
		Category:    models.CategoryConcessions,
		Date:        h.now().UTC().Format("2006-01-02"),
		CreatedBy:   actor.ID,
		Cashier:     cashier,
	})
	if err != nil {
		h.ErrLog.Write(w, r, "record sale failed", err)
		return
	}

	h.Log.Info("sale recorded",
		zap.String("entry_id", entry.ID.Hex()),
		zap.String("cashier", cashier),
		zap.String("total", total.StringFixed(2)))
	h.AuditLog.RecordChanged(ctx, audit.EventSaleRecorded, actor.ID, entry.ID, map[string]string{
		"total":      total.StringFixed(2),
		"item_count": fmt.Sprint(form.ItemCount),
	})
	view := entry.View()
	if err := h.Pub.Publish(ctx, realtime.NewEvent(realtime.CollLedger, realtime.OpInsert, entry.ID.Hex(), view)); err != nil {
		h.Log.Warn("publish ledger event failed", zap.Error(err))
	}
	uierrors.WriteJSON(w, http.StatusCreated, view)
}
