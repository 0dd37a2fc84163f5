package ledgerstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/clubhub/internal/domain/models"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection holds the club's financial ledger.
const Collection = "ledger_entries"

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

func persistErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", models.ErrPersistence, op, err)
}

// Create inserts e, assigning its ID and creation time.
func (s *Store) Create(ctx context.Context, e models.LedgerEntry) (models.LedgerEntry, error) {
	if e.ID.IsZero() {
		e.ID = primitive.NewObjectID()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if _, err := s.c.InsertOne(ctx, e); err != nil {
		return models.LedgerEntry{}, persistErr("insert ledger entry", err)
	}
	return e, nil
}

// GetByID loads one entry.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.LedgerEntry, error) {
	var e models.LedgerEntry
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&e); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrNotFound
		}
		return nil, persistErr("find ledger entry", err)
	}
	return &e, nil
}

// List returns every entry, newest date first.
func (s *Store) List(ctx context.Context) ([]models.LedgerEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, persistErr("find ledger entries", err)
	}
	defer cur.Close(ctx)

	out := []models.LedgerEntry{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, persistErr("decode ledger entries", err)
	}
	return out, nil
}

// Totals sums the ledger by direction on the server. Amounts are
// Decimal128, so the sums are exact.
func (s *Store) Totals(ctx context.Context) (models.LedgerTotals, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$type"},
			{Key: "total", Value: bson.D{{Key: "$sum", Value: "$amount"}}},
		}}},
	}
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return models.LedgerTotals{}, persistErr("aggregate ledger totals", err)
	}
	defer cur.Close(ctx)

	var rows []struct {
		Type  string               `bson:"_id"`
		Total primitive.Decimal128 `bson:"total"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return models.LedgerTotals{}, persistErr("decode ledger totals", err)
	}

	t := models.LedgerTotals{Income: decimal.Zero, Expense: decimal.Zero}
	for _, r := range rows {
		d, err := decimal.NewFromString(r.Total.String())
		if err != nil {
			return models.LedgerTotals{}, persistErr("parse ledger total", err)
		}
		if r.Type == models.LedgerOutgoing {
			t.Expense = t.Expense.Add(d)
		} else {
			t.Income = t.Income.Add(d)
		}
	}
	t.Balance = t.Income.Sub(t.Expense)
	return t, nil
}

// Delete removes one entry.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return persistErr("delete ledger entry", err)
	}
	if res.DeletedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}
