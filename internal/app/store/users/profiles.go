package userstore

import (
	"context"

	"github.com/dalemusser/clubhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Profiles is the persistence boundary for user profiles. Store (MongoDB)
// and MemStore both satisfy it, and both report failures with the sentinel
// errors in models: ErrNotFound, ErrInvalidTransition and ErrPersistence.
type Profiles interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetByPrincipalID(ctx context.Context, principalID string) (*models.User, error)

	// CreateIfAbsent inserts u keyed by u.PrincipalID unless a profile for
	// that principal already exists. It returns the stored profile and
	// whether this call created it. At most one caller ever sees created=true
	// for a principal.
	CreateIfAbsent(ctx context.Context, u models.User) (*models.User, bool, error)

	UpdateProfile(ctx context.Context, id primitive.ObjectID, upd ProfileUpdate) (*models.User, error)
	UpdateRoster(ctx context.Context, id primitive.ObjectID, upd RosterUpdate) (*models.User, error)

	// Transition moves a profile from t.From to t.To in a single write,
	// applying t.Role and t.Application in the same write. The write only
	// happens if the stored status still equals t.From.
	Transition(ctx context.Context, id primitive.ObjectID, t Transition) (*models.User, error)
	SetRole(ctx context.Context, id primitive.ObjectID, role models.Role) (*models.User, error)

	Delete(ctx context.Context, id primitive.ObjectID) error

	ListByStatus(ctx context.Context, statuses ...models.ApplicationStatus) ([]models.User, error)
	ListPlayers(ctx context.Context) ([]models.User, error)
	List(ctx context.Context, f ListFilter) (ListPage, error)
}

// ProfileUpdate carries self-service edits. Nil fields are left unchanged.
// Role and status are not part of it.
type ProfileUpdate struct {
	DisplayName *string
	Gamertag    *string
	Discord     *string
	Bio         *string
	JerseySize  *string
	Games       *[]string
}

func (u ProfileUpdate) empty() bool {
	return u.DisplayName == nil && u.Gamertag == nil && u.Discord == nil &&
		u.Bio == nil && u.JerseySize == nil && u.Games == nil
}

// RosterUpdate carries edits a coach makes to another member's profile.
type RosterUpdate struct {
	Gamertag *string
	Discord  *string
	Stats    map[string]int // nil = unchanged; replaces the whole map otherwise
}

func (u RosterUpdate) empty() bool {
	return u.Gamertag == nil && u.Discord == nil && u.Stats == nil
}

// Application is the team application form as stored on the profile.
type Application struct {
	Gamertag      string
	Discord       string
	Grade         int
	GPA           float64
	GuardianName  string
	GuardianEmail string
	JerseySize    string
	Games         []string
}

// Transition describes one compare-and-set status change.
type Transition struct {
	From        models.ApplicationStatus
	To          models.ApplicationStatus
	Role        models.Role  // "" leaves the role unchanged
	Application *Application // written together with the status when set
}

// ListFilter selects profiles for the roster list.
type ListFilter struct {
	Q      string // prefix over display name, gamertag and email
	Game   string
	Before string // keyset cursors on (display_name_ci, _id)
	After  string
}

// ListPage is one keyset page of profiles.
type ListPage struct {
	Users      []models.User
	HasPrev    bool
	HasNext    bool
	PrevCursor string
	NextCursor string
}
