// internal/app/features/auditlog/list.go
package auditlog

import (
	"net/http"
	"slices"
	"strconv"
	"time"

	uierrors "github.com/dalemusser/clubhub/internal/app/features/errors"
	"github.com/dalemusser/clubhub/internal/app/store/audit"
	"github.com/dalemusser/clubhub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const pageSize = 50

// ServeList handles GET /audit?category=&event_type=&start_date=&end_date=&page=.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	category := query.Get(r, "category")
	eventType := query.Get(r, "event_type")
	if category != "" && eventTypesForCategory(category) == nil {
		uierrors.RenderBadRequest(w, r, "Unknown category.")
		return
	}
	if eventType != "" && !slices.Contains(eventTypesForCategory(category), eventType) {
		uierrors.RenderBadRequest(w, r, "Unknown event type.")
		return
	}

	page := 1
	if p, err := strconv.Atoi(query.Get(r, "page")); err == nil && p > 0 {
		page = p
	}

	filter := audit.QueryFilter{
		Category:  category,
		EventType: eventType,
		Limit:     pageSize,
		Offset:    int64((page - 1) * pageSize),
	}
	if s := query.Get(r, "start_date"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			uierrors.RenderBadRequest(w, r, "start_date must be a YYYY-MM-DD date.")
			return
		}
		filter.StartTime = &t
	}
	if s := query.Get(r, "end_date"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			uierrors.RenderBadRequest(w, r, "end_date must be a YYYY-MM-DD date.")
			return
		}
		// End of day
		endOfDay := t.Add(24*time.Hour - time.Nanosecond)
		filter.EndTime = &endOfDay
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "audit log list")
	defer cancel()

	events, err := h.Events.Query(ctx, filter)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "query audit events failed", err, "A database error occurred.")
		return
	}
	total, err := h.Events.CountByFilter(ctx, filter)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "count audit events failed", err, "A database error occurred.")
		return
	}

	// Resolve each distinct actor and target once.
	names := make(map[primitive.ObjectID]string)
	resolve := func(id *primitive.ObjectID) string {
		if id == nil {
			return ""
		}
		if name, ok := names[*id]; ok {
			return name
		}
		name := id.Hex()
		if u, err := h.Profiles.GetByID(ctx, *id); err == nil {
			name = u.DisplayName
		} else {
			h.Log.Debug("audit name lookup failed", zap.String("user_id", id.Hex()), zap.Error(err))
		}
		names[*id] = name
		return name
	}

	items := make([]listItem, 0, len(events))
	for _, e := range events {
		items = append(items, listItem{
			ID:         e.ID.Hex(),
			Timestamp:  e.Timestamp,
			Category:   e.Category,
			EventType:  e.EventType,
			ActorName:  resolve(e.ActorID),
			TargetName: resolve(e.UserID),
			IP:         e.IP,
			Success:    e.Success,
			Reason:     e.FailureReason,
			Details:    e.Details,
		})
	}

	totalPages := int((total + pageSize - 1) / pageSize)
	if totalPages < 1 {
		totalPages = 1
	}

	uierrors.WriteJSON(w, http.StatusOK, listData{
		Items:      items,
		Category:   category,
		EventType:  eventType,
		Page:       page,
		TotalPages: totalPages,
		Total:      total,
		HasPrev:    page > 1,
		HasNext:    page < totalPages,
		EventTypes: eventTypesForCategory(category),
	})
}
