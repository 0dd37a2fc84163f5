package userstore

import (
	"context"

	"github.com/dalemusser/clubhub/internal/app/system/auth"
	"github.com/dalemusser/clubhub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Fetcher implements auth.UserFetcher to load fresh user data on each request,
// so a role change is visible on the user's very next request.
type Fetcher struct {
	profiles Profiles
}

// NewFetcher creates a UserFetcher over the given profile store.
func NewFetcher(p Profiles) *Fetcher {
	return &Fetcher{profiles: p}
}

// FetchUser retrieves a user by ID and returns nil if the ID is malformed,
// the user is not found, or any error occurs.
func (f *Fetcher) FetchUser(ctx context.Context, userID string) *auth.SessionUser {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	u, err := f.profiles.GetByID(ctx, oid)
	if err != nil {
		return nil
	}
	return &auth.SessionUser{
		ID:       u.ID.Hex(),
		Name:     u.DisplayName,
		Email:    u.Email,
		Role:     string(u.Role),
		PhotoURL: u.PhotoURL,
	}
}
