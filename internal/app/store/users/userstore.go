package userstore

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/dalemusser/clubhub/internal/app/system/normalize"
	"github.com/dalemusser/clubhub/internal/app/system/paging"
	"github.com/dalemusser/clubhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the MongoDB collection holding user profiles.
const Collection = "users"

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

var _ Profiles = (*Store)(nil)

func persistErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", models.ErrPersistence, op, err)
}

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// GetByPrincipalID loads a user by the identity provider's subject id.
func (s *Store) GetByPrincipalID(ctx context.Context, principalID string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"principal_id": principalID})
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, filter).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrNotFound
		}
		return nil, persistErr("find user", err)
	}
	return &u, nil
}

// CreateIfAbsent upserts with $setOnInsert on principal_id, so an existing
// profile is never modified. Two concurrent upserts for a new principal can
// both miss the filter; the unique index rejects the loser with a duplicate
// key error, which is then read back as "already exists".
func (s *Store) CreateIfAbsent(ctx context.Context, u models.User) (*models.User, bool, error) {
	if u.PrincipalID == "" {
		return nil, false, fmt.Errorf("%w: principal id is required", models.ErrInvalidInput)
	}
	if !u.Role.Valid() {
		return nil, false, fmt.Errorf("%w: role %q", models.ErrInvalidInput, u.Role)
	}

	now := time.Now().UTC()
	u.DisplayName = normalize.Name(u.DisplayName)
	onInsert := bson.M{
		"_id":                primitive.NewObjectID(),
		"email":              normalize.Email(u.Email),
		"display_name":       u.DisplayName,
		"display_name_ci":    text.Fold(u.DisplayName),
		"role":               u.Role,
		"application_status": models.StatusNone,
		"created_at":         now,
		"updated_at":         now,
	}
	if u.PhotoURL != "" {
		onInsert["photo_url"] = u.PhotoURL
	}

	created := false
	res, err := s.c.UpdateOne(ctx,
		bson.M{"principal_id": u.PrincipalID},
		bson.M{"$setOnInsert": onInsert},
		options.Update().SetUpsert(true),
	)
	switch {
	case err == nil:
		created = res.UpsertedCount == 1
	case wafflemongo.IsDup(err):
		// lost the race; fall through to the read
	default:
		return nil, false, persistErr("upsert user", err)
	}

	got, err := s.GetByPrincipalID(ctx, u.PrincipalID)
	if err != nil {
		return nil, false, err
	}
	return got, created, nil
}

// UpdateProfile applies self-service edits.
func (s *Store) UpdateProfile(ctx context.Context, id primitive.ObjectID, upd ProfileUpdate) (*models.User, error) {
	if upd.empty() {
		return s.GetByID(ctx, id)
	}
	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.DisplayName != nil {
		name := normalize.Name(*upd.DisplayName)
		set["display_name"] = name
		set["display_name_ci"] = text.Fold(name)
	}
	if upd.Gamertag != nil {
		set["gamertag"] = *upd.Gamertag
		set["gamertag_ci"] = text.Fold(*upd.Gamertag)
	}
	if upd.Discord != nil {
		set["discord"] = *upd.Discord
	}
	if upd.Bio != nil {
		set["bio"] = *upd.Bio
	}
	if upd.JerseySize != nil {
		set["jersey_size"] = *upd.JerseySize
	}
	if upd.Games != nil {
		set["games"] = normalize.Games(*upd.Games)
	}
	return s.updateOne(ctx, bson.M{"_id": id}, set)
}

// UpdateRoster applies a coach's edits to a member's profile.
func (s *Store) UpdateRoster(ctx context.Context, id primitive.ObjectID, upd RosterUpdate) (*models.User, error) {
	if upd.empty() {
		return s.GetByID(ctx, id)
	}
	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.Gamertag != nil {
		set["gamertag"] = *upd.Gamertag
		set["gamertag_ci"] = text.Fold(*upd.Gamertag)
	}
	if upd.Discord != nil {
		set["discord"] = *upd.Discord
	}
	if upd.Stats != nil {
		set["stats"] = upd.Stats
	}
	return s.updateOne(ctx, bson.M{"_id": id}, set)
}

// Transition is a FindOneAndUpdate filtered on the expected from-status.
// A miss is disambiguated with a read: no document means ErrNotFound,
// otherwise the status moved underneath us and it is ErrInvalidTransition.
func (s *Store) Transition(ctx context.Context, id primitive.ObjectID, t Transition) (*models.User, error) {
	if !t.From.Valid() || !t.To.Valid() {
		return nil, models.ErrInvalidTransition
	}
	if t.Role != "" && !t.Role.Valid() {
		return nil, fmt.Errorf("%w: role %q", models.ErrInvalidInput, t.Role)
	}

	set := bson.M{
		"application_status": t.To,
		"updated_at":         time.Now().UTC(),
	}
	if t.Role != "" {
		set["role"] = t.Role
	}
	if a := t.Application; a != nil {
		set["gamertag"] = a.Gamertag
		set["gamertag_ci"] = text.Fold(a.Gamertag)
		set["discord"] = a.Discord
		set["grade"] = a.Grade
		set["gpa"] = a.GPA
		set["guardian_name"] = a.GuardianName
		set["guardian_email"] = normalize.Email(a.GuardianEmail)
		set["jersey_size"] = a.JerseySize
		set["games"] = normalize.Games(a.Games)
	}

	u, err := s.updateOne(ctx, bson.M{"_id": id, "application_status": statusMatch(t.From)}, set)
	if errors.Is(err, models.ErrNotFound) {
		if _, gerr := s.GetByID(ctx, id); gerr != nil {
			return nil, gerr
		}
		return nil, models.ErrInvalidTransition
	}
	return u, err
}

// statusMatch matches documents written before application_status existed
// as StatusNone.
func statusMatch(st models.ApplicationStatus) any {
	if st == models.StatusNone {
		return bson.M{"$in": bson.A{models.StatusNone, nil}}
	}
	return st
}

// SetRole changes a user's role without touching the application status.
func (s *Store) SetRole(ctx context.Context, id primitive.ObjectID, role models.Role) (*models.User, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: role %q", models.ErrInvalidInput, role)
	}
	return s.updateOne(ctx, bson.M{"_id": id}, bson.M{
		"role":       role,
		"updated_at": time.Now().UTC(),
	})
}

func (s *Store) updateOne(ctx context.Context, filter, set bson.M) (*models.User, error) {
	var u models.User
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := s.c.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrNotFound
		}
		return nil, persistErr("update user", err)
	}
	return &u, nil
}

// Delete removes a profile. Only the roster's explicit delete calls it.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return persistErr("delete user", err)
	}
	if res.DeletedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ListByStatus returns profiles in any of the given statuses, oldest
// update first (the coach inbox order).
func (s *Store) ListByStatus(ctx context.Context, statuses ...models.ApplicationStatus) ([]models.User, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	find := options.Find().SetSort(bson.D{{Key: "updated_at", Value: 1}, {Key: "_id", Value: 1}})
	return s.find(ctx, bson.M{"application_status": bson.M{"$in": statuses}}, find)
}

// ListPlayers returns every profile with role=player, sorted by name.
func (s *Store) ListPlayers(ctx context.Context) ([]models.User, error) {
	find := options.Find().SetSort(bson.D{{Key: "display_name_ci", Value: 1}, {Key: "_id", Value: 1}})
	return s.find(ctx, bson.M{"role": models.RolePlayer}, find)
}

// List returns one keyset page of profiles ordered by folded display name.
func (s *Store) List(ctx context.Context, lf ListFilter) (ListPage, error) {
	const sortField = "display_name_ci"

	base := bson.M{}
	if lf.Game != "" {
		base["games"] = lf.Game
	}
	var searchOr []bson.M
	if lo, hi := text.PrefixRange(lf.Q); lo != "" {
		searchOr = []bson.M{
			{"display_name_ci": bson.M{"$gte": lo, "$lt": hi}},
			{"gamertag_ci": bson.M{"$gte": lo, "$lt": hi}},
			{"email": bson.M{"$gte": lo, "$lt": hi}},
		}
		base["$or"] = searchOr
	}

	f := maps.Clone(base)
	find := options.Find()
	cfg := paging.ConfigureKeyset(lf.Before, lf.After)
	cfg.ApplyToFind(find, sortField)

	if ks := cfg.KeysetWindow(sortField); ks != nil {
		if len(searchOr) > 0 {
			f["$and"] = []bson.M{{"$or": searchOr}, ks}
			delete(f, "$or")
		} else {
			maps.Copy(f, ks)
		}
	}

	rows, err := s.find(ctx, f, find)
	if err != nil {
		return ListPage{}, err
	}
	if cfg.Direction == paging.Backward {
		paging.Reverse(rows)
	}
	return pageOf(rows, lf), nil
}

func pageOf(rows []models.User, lf ListFilter) ListPage {
	page := paging.TrimPage(&rows, lf.Before, lf.After)
	prev, next := paging.BuildCursors(rows,
		func(u models.User) string { return u.DisplayNameCI },
		func(u models.User) primitive.ObjectID { return u.ID },
	)
	return ListPage{
		Users:      rows,
		HasPrev:    page.HasPrev,
		HasNext:    page.HasNext,
		PrevCursor: prev,
		NextCursor: next,
	}
}

func (s *Store) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.User, error) {
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, persistErr("find users", err)
	}
	defer cur.Close(ctx)

	out := []models.User{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, persistErr("decode users", err)
	}
	return out, nil
}
