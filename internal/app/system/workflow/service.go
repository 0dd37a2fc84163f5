// Package workflow moves profiles through the team application
// (none → submitted → tryout → approved) and applies the coach-only roster
// edits. Every operation checks the actor's capability before it touches
// the store, and every transition is a compare-and-set on the expected
// from-status.
package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/clubhub/internal/app/store/audit"
	userstore "github.com/dalemusser/clubhub/internal/app/store/users"
	"github.com/dalemusser/clubhub/internal/app/system/auditlog"
	"github.com/dalemusser/clubhub/internal/app/system/authz"
	"github.com/dalemusser/clubhub/internal/app/system/inputval"
	"github.com/dalemusser/clubhub/internal/app/system/realtime"
	"github.com/dalemusser/clubhub/internal/app/system/timeouts"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Service applies application transitions and roster edits.
type Service struct {
	profiles userstore.Profiles
	pub      realtime.Publisher
	audit    *auditlog.Logger
	log      *zap.Logger
}

// New builds a Service. pub may be realtime.Nop{} and audit may be nil.
func New(profiles userstore.Profiles, pub realtime.Publisher, audit *auditlog.Logger, logger *zap.Logger) *Service {
	if pub == nil {
		pub = realtime.Nop{}
	}
	return &Service{profiles: profiles, pub: pub, audit: audit, log: logger}
}

// Profiles exposes the underlying store for read paths.
func (s *Service) Profiles() userstore.Profiles {
	return s.profiles
}

// require returns models.ErrUnauthorized when the actor lacks c.
func (s *Service) require(ctx context.Context, actor authz.Actor, c authz.Capability) error {
	if actor.Can(c) {
		return nil
	}
	s.log.Info("capability denied",
		zap.String("actor_id", actor.ID.Hex()),
		zap.String("role", actor.Role.String()),
		zap.String("capability", c.String()))
	s.audit.PermissionDenied(ctx, actor.ID, actor.Role, c.String())
	return fmt.Errorf("%w: %s requires %s", models.ErrUnauthorized, actor.Role, c)
}

func (s *Service) publish(ctx context.Context, op string, u *models.User) {
	if err := s.pub.Publish(ctx, realtime.NewEvent(realtime.CollUsers, op, u.ID.Hex(), u)); err != nil {
		s.log.Warn("publish user event failed",
			zap.String("user_id", u.ID.Hex()),
			zap.String("op", op),
			zap.Error(err))
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Transitions                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

// Submit records the actor's own application and moves their profile from
// none to submitted in one write. The role is unchanged.
func (s *Service) Submit(ctx context.Context, actor authz.Actor, form ApplicationForm) (*models.User, error) {
	if err := s.require(ctx, actor, authz.SubmitApplication); err != nil {
		return nil, err
	}
	form = form.clean()
	if err := inputval.Check(form); err != nil {
		return nil, err
	}
	return s.transition(ctx, actor, actor.ID, audit.EventApplicationSubmitted, userstore.Transition{
		From:        models.StatusNone,
		To:          models.StatusSubmitted,
		Application: form.application(),
	})
}

// ScheduleTryout moves target from submitted to tryout.
func (s *Service) ScheduleTryout(ctx context.Context, actor authz.Actor, target primitive.ObjectID) (*models.User, error) {
	if err := s.require(ctx, actor, authz.ReviewApplications); err != nil {
		return nil, err
	}
	return s.transition(ctx, actor, target, audit.EventTryoutScheduled, userstore.Transition{
		From: models.StatusSubmitted,
		To:   models.StatusTryout,
	})
}

// Approve moves target from tryout to approved and makes them a player.
// Status and role change in the same write.
func (s *Service) Approve(ctx context.Context, actor authz.Actor, target primitive.ObjectID) (*models.User, error) {
	if err := s.require(ctx, actor, authz.ReviewApplications); err != nil {
		return nil, err
	}
	return s.transition(ctx, actor, target, audit.EventApplicationApproved, userstore.Transition{
		From: models.StatusTryout,
		To:   models.StatusApproved,
		Role: models.RolePlayer,
	})
}

func (s *Service) transition(ctx context.Context, actor authz.Actor, target primitive.ObjectID, eventType string, t userstore.Transition) (*models.User, error) {
	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Short(), s.log, "workflow."+eventType)
	defer cancel()

	u, err := s.profiles.Transition(ctx, target, t)
	if err != nil {
		if errors.Is(err, models.ErrInvalidTransition) {
			s.log.Info("transition rejected",
				zap.String("user_id", target.Hex()),
				zap.String("from", t.From.String()),
				zap.String("to", t.To.String()))
		}
		return nil, err
	}

	s.log.Info("application status changed",
		zap.String("user_id", u.ID.Hex()),
		zap.String("actor_id", actor.ID.Hex()),
		zap.String("status", u.ApplicationStatus.String()),
		zap.String("role", u.Role.String()))
	s.audit.Transition(ctx, eventType, actor.ID, u.ID, t.From, t.To)
	s.publish(ctx, realtime.OpUpdate, u)
	return u, nil
}
