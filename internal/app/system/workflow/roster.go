package workflow

import (
	"context"
	"fmt"

	"github.com/dalemusser/clubhub/internal/app/system/authz"
	"github.com/dalemusser/clubhub/internal/app/system/inputval"
	"github.com/dalemusser/clubhub/internal/app/system/realtime"
	"github.com/dalemusser/clubhub/internal/app/system/timeouts"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// AssignRole sets target's role outside the application workflow.
// The application status is left as it is, so an approved player keeps the
// player role; remove the member instead.
func (s *Service) AssignRole(ctx context.Context, actor authz.Actor, target primitive.ObjectID, role models.Role) (*models.User, error) {
	if err := s.require(ctx, actor, authz.ManageRoster); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, inputval.Errors{"role": fmt.Sprintf("role %q is not one of the club roles", role)}
	}

	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Short(), s.log, "workflow.assign_role")
	defer cancel()

	before, err := s.profiles.GetByID(ctx, target)
	if err != nil {
		return nil, err
	}
	u, err := s.setRole(ctx, actor, before, role)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, realtime.OpUpdate, u)
	return u, nil
}

// checkRoleChange refuses role changes that would leave an approved
// application on a non-player profile.
func checkRoleChange(before *models.User, role models.Role) error {
	if before.Status() == models.StatusApproved && role != models.RolePlayer {
		return fmt.Errorf("%w: approved players keep the player role", models.ErrInvalidTransition)
	}
	return nil
}

func (s *Service) setRole(ctx context.Context, actor authz.Actor, before *models.User, role models.Role) (*models.User, error) {
	if err := checkRoleChange(before, role); err != nil {
		return nil, err
	}
	u, err := s.profiles.SetRole(ctx, before.ID, role)
	if err != nil {
		return nil, err
	}

	s.log.Info("role assigned",
		zap.String("user_id", u.ID.Hex()),
		zap.String("actor_id", actor.ID.Hex()),
		zap.String("from", before.Role.String()),
		zap.String("to", u.Role.String()))
	s.audit.RoleAssigned(ctx, actor.ID, u.ID, actor.Role, before.Role, u.Role)
	return u, nil
}

// EditMember applies a coach's edit to another member's profile. A role in
// the form is checked and written before the field edits, so a refused role
// change leaves the profile untouched.
func (s *Service) EditMember(ctx context.Context, actor authz.Actor, target primitive.ObjectID, form RosterForm) (*models.User, error) {
	if err := s.require(ctx, actor, authz.ManageRoster); err != nil {
		return nil, err
	}
	form = form.clean()
	if err := inputval.Check(form); err != nil {
		return nil, err
	}

	tctx, cancel := timeouts.WithTimeout(ctx, timeouts.Short(), s.log, "workflow.edit_member")
	defer cancel()

	if form.Role != nil {
		role, _ := models.ParseRole(*form.Role)
		before, err := s.profiles.GetByID(tctx, target)
		if err != nil {
			return nil, err
		}
		if role != before.Role {
			if _, err := s.setRole(tctx, actor, before, role); err != nil {
				return nil, err
			}
		}
	}

	u, err := s.profiles.UpdateRoster(tctx, target, form.update())
	if err != nil {
		return nil, err
	}
	if changed := form.changed(); changed != "" {
		s.audit.UserUpdated(ctx, actor.ID, u.ID, actor.Role, changed)
	}
	s.publish(ctx, realtime.OpUpdate, u)
	return u, nil
}

// RemoveMember deletes target's profile. Profiles are never removed any
// other way.
func (s *Service) RemoveMember(ctx context.Context, actor authz.Actor, target primitive.ObjectID) error {
	if err := s.require(ctx, actor, authz.ManageRoster); err != nil {
		return err
	}

	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Short(), s.log, "workflow.remove_member")
	defer cancel()

	if err := s.profiles.Delete(ctx, target); err != nil {
		return err
	}
	s.log.Info("member removed",
		zap.String("user_id", target.Hex()),
		zap.String("actor_id", actor.ID.Hex()))
	s.audit.UserDeleted(ctx, actor.ID, target, actor.Role)
	if err := s.pub.Publish(ctx, realtime.NewEvent(realtime.CollUsers, realtime.OpDelete, target.Hex(), nil)); err != nil {
		s.log.Warn("publish user event failed", zap.String("user_id", target.Hex()), zap.Error(err))
	}
	return nil
}

// UpdateOwnProfile applies a self-service edit to the actor's own profile.
// Role and status can never change through it.
func (s *Service) UpdateOwnProfile(ctx context.Context, actor authz.Actor, form ProfileForm) (*models.User, error) {
	if err := s.require(ctx, actor, authz.EditOwnProfile); err != nil {
		return nil, err
	}
	form = form.clean()
	if err := inputval.Check(form); err != nil {
		return nil, err
	}

	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Short(), s.log, "workflow.update_profile")
	defer cancel()

	u, err := s.profiles.UpdateProfile(ctx, actor.ID, form.update())
	if err != nil {
		return nil, err
	}
	s.publish(ctx, realtime.OpUpdate, u)
	return u, nil
}
