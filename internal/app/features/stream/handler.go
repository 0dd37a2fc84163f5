// internal/app/features/stream/handler.go
package stream

import (
	"context"
	"net/http"
	"slices"

	uierrors "github.com/dalemusser/clubhub/internal/app/features/errors"
	"github.com/dalemusser/clubhub/internal/app/system/authz"
	"github.com/dalemusser/clubhub/internal/app/system/realtime"
	"github.com/dalemusser/clubhub/internal/app/system/timeouts"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ProfileReader loads a profile by ID. userstore.Profiles implements it.
type ProfileReader interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// Handler serves the change stream.
type Handler struct {
	Events   realtime.Subscriber
	Profiles ProfileReader
	Log      *zap.Logger
}

func NewHandler(events realtime.Subscriber, profiles ProfileReader, logger *zap.Logger) *Handler {
	return &Handler{Events: events, Profiles: profiles, Log: logger}
}

// readCapabilities returns the capabilities, any one of which lets a member
// see ev. Nil means every signed-in member may. These mirror the gates on
// the matching read routes.
func readCapabilities(ev realtime.Event, self string) []authz.Capability {
	switch ev.Collection {
	case realtime.CollUsers:
		if ev.DocID == self {
			return nil
		}
		return []authz.Capability{authz.ReviewApplications, authz.ManageRoster}
	case realtime.CollLedger:
		return []authz.Capability{authz.ManageLedger}
	}
	return nil
}

func inCollection(collection string) realtime.Predicate {
	if collection == "" {
		return func(realtime.Event) bool { return true }
	}
	return realtime.InCollection(collection)
}

// allow checks each gated event against the member's current role. The role
// is re-read from the store every time, so a role change applies to the
// next event on an open stream.
func (h *Handler) allow(ctx context.Context, actor authz.Actor) func(realtime.Event) bool {
	self := actor.ID.Hex()
	return func(ev realtime.Event) bool {
		need := readCapabilities(ev, self)
		if len(need) == 0 {
			return true
		}

		rctx, cancel := context.WithTimeout(ctx, timeouts.Short())
		u, err := h.Profiles.GetByID(rctx, actor.ID)
		cancel()
		if err != nil {
			h.Log.Info("stream role check failed",
				zap.String("user_id", self),
				zap.String("collection", ev.Collection),
				zap.Error(err))
			return false
		}
		for _, c := range need {
			if authz.CanPerform(u.Role, c) {
				return true
			}
		}
		return false
	}
}

// ServeStream handles GET /stream?collection=. Without a collection every
// event the member may see is streamed.
func (h *Handler) ServeStream(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.ActorFrom(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r)
		return
	}
	collection := query.Get(r, "collection")
	if collection != "" && !slices.Contains(realtime.Collections, collection) {
		uierrors.RenderBadRequest(w, r, "Unknown collection.")
		return
	}
	if collection == realtime.CollLedger && !actor.Can(authz.ManageLedger) {
		uierrors.RenderForbidden(w, r, "You do not have access to the ledger.")
		return
	}

	events, cancel := h.Events.Subscribe(inCollection(collection))
	h.Log.Debug("stream opened",
		zap.String("user_id", actor.ID.Hex()),
		zap.String("collection", collection))
	realtime.ServeSSE(w, r, events, cancel, h.allow(r.Context(), actor))
	h.Log.Debug("stream closed", zap.String("user_id", actor.ID.Hex()))
}
