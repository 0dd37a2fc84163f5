package calendarstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/clubhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection holds scheduled club events.
const Collection = "calendar_events"

// ListFilter narrows a calendar read. Zero values match everything.
type ListFilter struct {
	Type string // one of models.EventTypes
	From string // YYYY-MM-DD, inclusive
}

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

func persistErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", models.ErrPersistence, op, err)
}

// Create inserts ev, assigning its ID and creation time.
func (s *Store) Create(ctx context.Context, ev models.CalendarEvent) (models.CalendarEvent, error) {
	if ev.ID.IsZero() {
		ev.ID = primitive.NewObjectID()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	if _, err := s.c.InsertOne(ctx, ev); err != nil {
		return models.CalendarEvent{}, persistErr("insert calendar event", err)
	}
	return ev, nil
}

// GetByID loads one event.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.CalendarEvent, error) {
	var ev models.CalendarEvent
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&ev); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrNotFound
		}
		return nil, persistErr("find calendar event", err)
	}
	return &ev, nil
}

// List returns events matching f in ascending date and time order.
func (s *Store) List(ctx context.Context, f ListFilter) ([]models.CalendarEvent, error) {
	filter := bson.M{}
	if f.Type != "" {
		filter["type"] = f.Type
	}
	if f.From != "" {
		filter["date"] = bson.M{"$gte": f.From}
	}
	opts := options.Find().SetSort(bson.D{
		{Key: "date", Value: 1},
		{Key: "time", Value: 1},
		{Key: "_id", Value: 1},
	})

	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, persistErr("find calendar events", err)
	}
	defer cur.Close(ctx)

	out := []models.CalendarEvent{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, persistErr("decode calendar events", err)
	}
	return out, nil
}

// ListMatches returns every Match event in ascending date order.
func (s *Store) ListMatches(ctx context.Context) ([]models.CalendarEvent, error) {
	return s.List(ctx, ListFilter{Type: models.EventTypeMatch})
}

// Delete removes one event.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return persistErr("delete calendar event", err)
	}
	if res.DeletedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}
