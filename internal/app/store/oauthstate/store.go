// internal/app/store/oauthstate/store.go
package oauthstate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/clubhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Collection holds pending OAuth2 state tokens. Its unique and TTL indexes
// are created by indexes.EnsureAll.
const Collection = "oauth_states"

// State represents an OAuth2 state token stored for CSRF protection.
type State struct {
	State     string    `bson:"state"`
	ReturnURL string    `bson:"return_url,omitempty"` // Where to redirect after auth
	ExpiresAt time.Time `bson:"expires_at"`
	CreatedAt time.Time `bson:"created_at"`
}

// States is the state-token persistence used by the Google sign-in flow
// and the cleanup worker.
type States interface {
	Save(ctx context.Context, state, returnURL string, expiresAt time.Time) error
	Validate(ctx context.Context, state string) (returnURL string, valid bool, err error)
	CleanupExpired(ctx context.Context) (int64, error)
}

// Store manages OAuth2 state tokens in MongoDB.
type Store struct {
	c *mongo.Collection
}

var _ States = (*Store)(nil)

// New creates a new OAuth state Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// Save stores a state token with the given expiration time and the
// in-app path to return to after sign-in.
func (s *Store) Save(ctx context.Context, state, returnURL string, expiresAt time.Time) error {
	st := State{
		State:     state,
		ReturnURL: returnURL,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, st); err != nil {
		return fmt.Errorf("%w: save oauth state: %w", models.ErrPersistence, err)
	}
	return nil
}

// Validate checks if a state token exists and is not expired.
// If valid, it deletes the token (one-time use) and returns the associated return URL.
func (s *Store) Validate(ctx context.Context, state string) (string, bool, error) {
	var st State
	err := s.c.FindOneAndDelete(ctx, bson.M{
		"state":      state,
		"expires_at": bson.M{"$gt": time.Now().UTC()},
	}).Decode(&st)

	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: validate oauth state: %w", models.ErrPersistence, err)
	}
	return st.ReturnURL, true, nil
}

// CleanupExpired removes expired state tokens.
// This is a backup for when TTL index cleanup is delayed.
func (s *Store) CleanupExpired(ctx context.Context) (int64, error) {
	result, err := s.c.DeleteMany(ctx, bson.M{
		"expires_at": bson.M{"$lt": time.Now().UTC()},
	})
	if err != nil {
		return 0, fmt.Errorf("%w: cleanup oauth states: %w", models.ErrPersistence, err)
	}
	return result.DeletedCount, nil
}
