package userstore

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dalemusser/clubhub/internal/app/system/normalize"
	"github.com/dalemusser/clubhub/internal/app/system/paging"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemStore is an in-process Profiles implementation. It backs the workflow
// and handler tests and local runs without MongoDB. A single mutex
// serializes every operation, so CreateIfAbsent and Transition are atomic.
type MemStore struct {
	mu          sync.Mutex
	byID        map[primitive.ObjectID]*models.User
	byPrincipal map[string]primitive.ObjectID
	now         func() time.Time
}

var _ Profiles = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{
		byID:        make(map[primitive.ObjectID]*models.User),
		byPrincipal: make(map[string]primitive.ObjectID),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Put stores u as-is, replacing any profile with the same ID. Tests use it
// to seed profiles in a given state.
func (m *MemStore) Put(u models.User) models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	if u.DisplayNameCI == "" {
		u.DisplayNameCI = text.Fold(u.DisplayName)
	}
	if u.ApplicationStatus == "" {
		u.ApplicationStatus = models.StatusNone
	}
	cp := clone(&u)
	m.byID[u.ID] = cp
	if u.PrincipalID != "" {
		m.byPrincipal[u.PrincipalID] = u.ID
	}
	return *clone(cp)
}

func (m *MemStore) GetByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return clone(u), nil
}

func (m *MemStore) GetByPrincipalID(_ context.Context, principalID string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byPrincipal[principalID]
	if !ok {
		return nil, models.ErrNotFound
	}
	return clone(m.byID[id]), nil
}

func (m *MemStore) CreateIfAbsent(_ context.Context, u models.User) (*models.User, bool, error) {
	if u.PrincipalID == "" {
		return nil, false, fmt.Errorf("%w: principal id is required", models.ErrInvalidInput)
	}
	if !u.Role.Valid() {
		return nil, false, fmt.Errorf("%w: role %q", models.ErrInvalidInput, u.Role)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.byPrincipal[u.PrincipalID]; ok {
		return clone(m.byID[id]), false, nil
	}

	now := m.now()
	nu := &models.User{
		ID:                primitive.NewObjectID(),
		PrincipalID:       u.PrincipalID,
		Email:             normalize.Email(u.Email),
		DisplayName:       normalize.Name(u.DisplayName),
		PhotoURL:          u.PhotoURL,
		Role:              u.Role,
		ApplicationStatus: models.StatusNone,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	nu.DisplayNameCI = text.Fold(nu.DisplayName)
	m.byID[nu.ID] = nu
	m.byPrincipal[nu.PrincipalID] = nu.ID
	return clone(nu), true, nil
}

func (m *MemStore) UpdateProfile(_ context.Context, id primitive.ObjectID, upd ProfileUpdate) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if upd.empty() {
		return clone(u), nil
	}
	if upd.DisplayName != nil {
		u.DisplayName = normalize.Name(*upd.DisplayName)
		u.DisplayNameCI = text.Fold(u.DisplayName)
	}
	if upd.Gamertag != nil {
		u.Gamertag = *upd.Gamertag
		u.GamertagCI = text.Fold(u.Gamertag)
	}
	if upd.Discord != nil {
		u.Discord = *upd.Discord
	}
	if upd.Bio != nil {
		u.Bio = *upd.Bio
	}
	if upd.JerseySize != nil {
		u.JerseySize = *upd.JerseySize
	}
	if upd.Games != nil {
		u.Games = normalize.Games(*upd.Games)
	}
	u.UpdatedAt = m.now()
	return clone(u), nil
}

func (m *MemStore) UpdateRoster(_ context.Context, id primitive.ObjectID, upd RosterUpdate) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if upd.empty() {
		return clone(u), nil
	}
	if upd.Gamertag != nil {
		u.Gamertag = *upd.Gamertag
		u.GamertagCI = text.Fold(u.Gamertag)
	}
	if upd.Discord != nil {
		u.Discord = *upd.Discord
	}
	if upd.Stats != nil {
		u.Stats = maps.Clone(upd.Stats)
	}
	u.UpdatedAt = m.now()
	return clone(u), nil
}

func (m *MemStore) Transition(_ context.Context, id primitive.ObjectID, t Transition) (*models.User, error) {
	if !t.From.Valid() || !t.To.Valid() {
		return nil, models.ErrInvalidTransition
	}
	if t.Role != "" && !t.Role.Valid() {
		return nil, fmt.Errorf("%w: role %q", models.ErrInvalidInput, t.Role)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if u.Status() != t.From {
		return nil, models.ErrInvalidTransition
	}

	u.ApplicationStatus = t.To
	if t.Role != "" {
		u.Role = t.Role
	}
	if a := t.Application; a != nil {
		gpa := a.GPA
		u.Gamertag = a.Gamertag
		u.GamertagCI = text.Fold(a.Gamertag)
		u.Discord = a.Discord
		u.Grade = a.Grade
		u.GPA = &gpa
		u.GuardianName = a.GuardianName
		u.GuardianEmail = normalize.Email(a.GuardianEmail)
		u.JerseySize = a.JerseySize
		u.Games = normalize.Games(a.Games)
	}
	u.UpdatedAt = m.now()
	return clone(u), nil
}

func (m *MemStore) SetRole(_ context.Context, id primitive.ObjectID, role models.Role) (*models.User, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: role %q", models.ErrInvalidInput, role)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	u.Role = role
	u.UpdatedAt = m.now()
	return clone(u), nil
}

func (m *MemStore) Delete(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return models.ErrNotFound
	}
	delete(m.byPrincipal, u.PrincipalID)
	delete(m.byID, id)
	return nil
}

func (m *MemStore) ListByStatus(_ context.Context, statuses ...models.ApplicationStatus) ([]models.User, error) {
	out := m.collect(func(u *models.User) bool {
		return slices.Contains(statuses, u.Status())
	})
	slices.SortFunc(out, func(a, b models.User) int {
		if c := a.UpdatedAt.Compare(b.UpdatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID.Hex(), b.ID.Hex())
	})
	return out, nil
}

func (m *MemStore) ListPlayers(_ context.Context) ([]models.User, error) {
	out := m.collect(func(u *models.User) bool { return u.Role == models.RolePlayer })
	sortByName(out)
	return out, nil
}

func (m *MemStore) List(_ context.Context, lf ListFilter) (ListPage, error) {
	cfg := paging.ConfigureKeyset(lf.Before, lf.After)
	lo, hi := text.PrefixRange(lf.Q)
	inRange := func(s string) bool { return s >= lo && s < hi }

	rows := m.collect(func(u *models.User) bool {
		if lf.Game != "" && !slices.Contains(u.Games, lf.Game) {
			return false
		}
		if lo != "" && !inRange(u.DisplayNameCI) && !inRange(u.GamertagCI) && !inRange(u.Email) {
			return false
		}
		return cfg.Admits(u.DisplayNameCI, u.ID)
	})
	sortByName(rows)

	limit := int(paging.LimitPlusOne())
	if cfg.Direction == paging.Backward {
		if len(rows) > limit {
			rows = rows[len(rows)-limit:]
		}
	} else if len(rows) > limit {
		rows = rows[:limit]
	}
	return pageOf(rows, lf), nil
}

func (m *MemStore) collect(keep func(*models.User) bool) []models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.User{}
	for _, u := range m.byID {
		if keep(u) {
			out = append(out, *clone(u))
		}
	}
	return out
}

func sortByName(rows []models.User) {
	slices.SortFunc(rows, func(a, b models.User) int {
		return paging.Compare(a.DisplayNameCI, a.ID, b.DisplayNameCI, b.ID)
	})
}

func clone(u *models.User) *models.User {
	cp := *u
	cp.Games = slices.Clone(u.Games)
	cp.Stats = maps.Clone(u.Stats)
	if u.GPA != nil {
		g := *u.GPA
		cp.GPA = &g
	}
	return &cp
}
