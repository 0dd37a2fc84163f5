package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/clubhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that read chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser inserts a profile with the given role and status.
func (f *Fixtures) CreateUser(ctx context.Context, name, email string, role models.Role, status models.ApplicationStatus) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	u := models.User{
		ID:                primitive.NewObjectID(),
		PrincipalID:       "test-" + primitive.NewObjectID().Hex(),
		Email:             email,
		DisplayName:       name,
		DisplayNameCI:     text.Fold(name),
		Role:              role,
		ApplicationStatus: status,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateMessage inserts a chat message in channel.
func (f *Fixtures) CreateMessage(ctx context.Context, channel, body string, author models.User) models.Message {
	f.t.Helper()

	m := models.Message{
		ID:         primitive.NewObjectID(),
		Channel:    channel,
		Text:       body,
		AuthorID:   author.ID,
		AuthorName: author.DisplayName,
		AuthorRole: author.Role,
		CreatedAt:  time.Now().UTC(),
	}
	if _, err := f.db.Collection("messages").InsertOne(ctx, m); err != nil {
		f.t.Fatalf("failed to create test message: %v", err)
	}
	return m
}

// CreateLedgerEntry inserts a ledger entry. amount is a decimal string.
func (f *Fixtures) CreateLedgerEntry(ctx context.Context, description, amount, typ, category, date string) models.LedgerEntry {
	f.t.Helper()

	d128, err := models.ToDecimal128(decimal.RequireFromString(amount))
	if err != nil {
		f.t.Fatalf("bad fixture amount %q: %v", amount, err)
	}
	e := models.LedgerEntry{
		ID:          primitive.NewObjectID(),
		Description: description,
		Amount:      d128,
		Type:        typ,
		Category:    category,
		Date:        date,
		CreatedAt:   time.Now().UTC(),
	}
	if _, err := f.db.Collection("ledger_entries").InsertOne(ctx, e); err != nil {
		f.t.Fatalf("failed to create test ledger entry: %v", err)
	}
	return e
}

// CreateEvent inserts a calendar event.
func (f *Fixtures) CreateEvent(ctx context.Context, title, date, typ string) models.CalendarEvent {
	f.t.Helper()

	ev := models.CalendarEvent{
		ID:        primitive.NewObjectID(),
		Title:     title,
		Date:      date,
		Type:      typ,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := f.db.Collection("calendar_events").InsertOne(ctx, ev); err != nil {
		f.t.Fatalf("failed to create test event: %v", err)
	}
	return ev
}
