// internal/app/features/public/handler.go
package public

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/clubhub/internal/app/features/errors"
	userstore "github.com/dalemusser/clubhub/internal/app/store/users"
	"github.com/dalemusser/clubhub/internal/app/system/timeouts"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"go.uber.org/zap"
)

// MatchLister returns upcoming and past matches. *calendarstore.Store
// implements it.
type MatchLister interface {
	ListMatches(ctx context.Context) ([]models.CalendarEvent, error)
}

// Handler serves the anonymous team pages.
type Handler struct {
	Profiles userstore.Profiles
	Matches  MatchLister
	ErrLog   *uierrors.ErrorLogger
	Log      *zap.Logger
}

func NewHandler(profiles userstore.Profiles, matches MatchLister, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Profiles: profiles, Matches: matches, ErrLog: errLog, Log: logger}
}

// ServeRoster handles GET /public/roster. Only the public projection of
// each player is returned.
func (h *Handler) ServeRoster(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	players, err := h.Profiles.ListPlayers(ctx)
	if err != nil {
		h.ErrLog.Write(w, r, "list players failed", err)
		return
	}
	out := make([]models.PublicPlayer, 0, len(players))
	for i := range players {
		out = append(out, players[i].Public())
	}
	uierrors.WriteJSON(w, http.StatusOK, map[string]any{"players": out})
}

// ServeMatches handles GET /public/matches.
func (h *Handler) ServeMatches(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	matches, err := h.Matches.ListMatches(ctx)
	if err != nil {
		h.ErrLog.Write(w, r, "list matches failed", err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, map[string]any{"matches": matches})
}
