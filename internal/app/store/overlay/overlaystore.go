package overlaystore

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/clubhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection holds the live-stream scoreboard.
const Collection = "stream"

// Update is one scoreboard edit. Nil text fields are left unchanged and the
// deltas are added to the scores, which stop at zero.
type Update struct {
	TeamA  *string
	TeamB  *string
	Game   *string
	Status *string
	DeltaA int
	DeltaB int
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

// Get returns the scoreboard, creating the default one if none exists yet.
func (s *Store) Get(ctx context.Context) (models.StreamOverlay, error) {
	def := models.DefaultOverlay()
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	upd := bson.M{"$setOnInsert": bson.M{
		"team_a":  def.TeamA,
		"team_b":  def.TeamB,
		"score_a": 0,
		"score_b": 0,
		"game":    def.Game,
		"status":  def.Status,
	}}

	var o models.StreamOverlay
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": models.LiveOverlayID}, upd, opts).Decode(&o)
	if wafflemongo.IsDup(err) {
		// A concurrent first read inserted it.
		err = s.c.FindOne(ctx, bson.M{"_id": models.LiveOverlayID}).Decode(&o)
	}
	if err != nil {
		return models.StreamOverlay{}, persistErr("load overlay", err)
	}
	return o, nil
}

// Apply performs u in a single pipeline update, so concurrent score changes
// never lose an increment and a score never drops below zero.
func (s *Store) Apply(ctx context.Context, u Update, actor primitive.ObjectID) (models.StreamOverlay, error) {
	def := models.DefaultOverlay()
	set := bson.M{
		"team_a":     text(u.TeamA, "team_a", def.TeamA),
		"team_b":     text(u.TeamB, "team_b", def.TeamB),
		"game":       text(u.Game, "game", def.Game),
		"status":     text(u.Status, "status", def.Status),
		"score_a":    score("score_a", u.DeltaA),
		"score_b":    score("score_b", u.DeltaB),
		"updated_by": actor,
		"updated_at": time.Now().UTC(),
	}
	pipeline := mongo.Pipeline{{{Key: "$set", Value: set}}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var o models.StreamOverlay
	if err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": models.LiveOverlayID}, pipeline, opts).Decode(&o); err != nil {
		return models.StreamOverlay{}, persistErr("update overlay", err)
	}
	return o, nil
}

// text sets field to v, or keeps the stored value (falling back to def).
func text(v *string, field, def string) any {
	if v != nil {
		return bson.M{"$literal": *v}
	}
	return bson.M{"$ifNull": bson.A{"$" + field, def}}
}

func score(field string, delta int) any {
	return bson.M{"$max": bson.A{0, bson.M{"$add": bson.A{bson.M{"$ifNull": bson.A{"$" + field, 0}}, delta}}}}
}
