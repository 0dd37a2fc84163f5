// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called from the EnsureSchema hook. Each collection set is
idempotent. Problems are aggregated so every failing index is reported and
startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database, log *zap.Logger) error {
	sets := []struct {
		coll   string
		models []mongo.IndexModel
	}{
		{"users", usersIndexes()},
		{"messages", messagesIndexes()},
		{"ledger_entries", ledgerIndexes()},
		{"calendar_events", calendarIndexes()},
		{"audit_events", auditIndexes()},
		{"oauth_states", oauthStateIndexes()},
	}

	var problems []string
	for _, s := range sets {
		r := reconciler{coll: db.Collection(s.coll), log: log}
		if err := r.ensure(ctx, s.models); err != nil {
			problems = append(problems, s.coll+": "+err.Error())
		}
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Reconciling a desired index set against what exists                         |
*─────────────────────────────────────────────────────────────────────────────*/

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func sameBoolPtr(a, b *bool) bool {
	return (a != nil && *a) == (b != nil && *b)
}

// Best-effort duplicate detector (works across vendors).
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

// Mongo/DocDB return IndexOptionsConflict when the same keys already exist
// under a different name or with different options.
func isOptionsConflictErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "IndexOptionsConflict")
}

type reconciler struct {
	coll *mongo.Collection
	log  *zap.Logger
}

type desired struct {
	model  mongo.IndexModel
	name   string
	unique *bool
	sig    string
}

func describe(m mongo.IndexModel) desired {
	d := desired{model: m, sig: keySig(m.Keys.(bson.D))}
	if m.Options != nil {
		if m.Options.Name != nil {
			d.name = *m.Options.Name
		}
		d.unique = m.Options.Unique
	}
	return d
}

func (r reconciler) fields(d desired, extra ...zap.Field) []zap.Field {
	return append([]zap.Field{
		zap.String("collection", r.coll.Name()),
		zap.String("name", d.name),
		zap.String("keys", d.sig),
		zap.Bool("unique", d.unique != nil && *d.unique),
	}, extra...)
}

func (r reconciler) ensure(ctx context.Context, models []mongo.IndexModel) error {
	var errs []string
	for _, m := range models {
		if err := r.ensureOne(ctx, describe(m)); err != nil {
			errs = append(errs, fmt.Sprintf("%s(%s): %v", r.coll.Name(), describe(m).name, err))
		}
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func (r reconciler) existing(ctx context.Context) map[string]existingIndex {
	out := map[string]existingIndex{}
	cur, err := r.coll.Indexes().List(ctx)
	if err != nil {
		return out
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			r.log.Warn("failed to decode existing index",
				zap.String("collection", r.coll.Name()), zap.Error(err))
			continue
		}
		out[keySig(idx.Key)] = idx
	}
	return out
}

func (r reconciler) ensureOne(ctx context.Context, d desired) error {
	start := time.Now()
	r.log.Debug("ensuring index", r.fields(d)...)

	if ex, ok := r.existing(ctx)[d.sig]; ok {
		return r.align(ctx, d, ex, start)
	}

	created, err := r.coll.Indexes().CreateOne(ctx, d.model)
	if err == nil {
		r.log.Info("index ensured", r.fields(d,
			zap.String("created_name", created),
			zap.Duration("took", time.Since(start)))...)
		return nil
	}
	if isOptionsConflictErr(err) {
		// Someone created the same keys between List and CreateOne.
		if ex, ok := r.existing(ctx)[d.sig]; ok {
			return r.align(ctx, d, ex, start)
		}
	}
	r.log.Warn("index ensure failed", r.fields(d, zap.Error(err))...)
	return err
}

// align makes an index with the same key pattern match the desired name
// and uniqueness, dropping and recreating it when they differ.
func (r reconciler) align(ctx context.Context, d desired, ex existingIndex, start time.Time) error {
	sameUnique := sameBoolPtr(d.unique, ex.Unique)
	if sameUnique && (d.name == "" || ex.Name == d.name) {
		r.log.Debug("reusing existing index", r.fields(d, zap.String("existing_name", ex.Name))...)
		return nil
	}

	if _, err := r.coll.Indexes().DropOne(ctx, ex.Name); err != nil {
		r.log.Warn("drop existing index failed", r.fields(d, zap.String("existing_name", ex.Name), zap.Error(err))...)
		return fmt.Errorf("drop %s: %w", ex.Name, err)
	}
	if _, err := r.coll.Indexes().CreateOne(ctx, d.model); err != nil {
		if isDuplicateKeyErr(err) && d.unique != nil && *d.unique {
			return fmt.Errorf("cannot create unique index on %s (duplicates present)", d.sig)
		}
		return err
	}
	r.log.Info("index dropped and recreated", r.fields(d,
		zap.String("from", ex.Name),
		zap.Duration("took", time.Since(start)))...)
	return nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Collection index sets                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

func usersIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		// One profile per identity-provider subject. First-login creation
		// relies on this to stay at-most-once under concurrent upserts.
		{
			Keys:    bson.D{{Key: "principal_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_users_principal"),
		},
		// Roster list: keyset on folded name.
		{
			Keys:    bson.D{{Key: "display_name_ci", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_users_namecci_id"),
		},
		// Coach inbox.
		{
			Keys:    bson.D{{Key: "application_status", Value: 1}, {Key: "updated_at", Value: 1}},
			Options: options.Index().SetName("idx_users_status_updated"),
		},
		// Public roster (role=player).
		{
			Keys:    bson.D{{Key: "role", Value: 1}, {Key: "display_name_ci", Value: 1}},
			Options: options.Index().SetName("idx_users_role_nameci"),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("idx_users_email"),
		},
		{
			Keys:    bson.D{{Key: "gamertag_ci", Value: 1}},
			Options: options.Index().SetName("idx_users_gamertagci"),
		},
		{
			Keys:    bson.D{{Key: "games", Value: 1}},
			Options: options.Index().SetName("idx_users_games"),
		},
	}
}

func messagesIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "channel", Value: 1}, {Key: "created_at", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_messages_channel_created_id"),
		},
	}
}

func ledgerIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: -1}},
			Options: options.Index().SetName("idx_ledger_date_id"),
		},
	}
}

func calendarIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "date", Value: 1}, {Key: "time", Value: 1}},
			Options: options.Index().SetName("idx_calendar_date_time"),
		},
		{
			Keys:    bson.D{{Key: "type", Value: 1}, {Key: "date", Value: 1}},
			Options: options.Index().SetName("idx_calendar_type_date"),
		},
	}
}

func auditIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_timestamp"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_user_timestamp"),
		},
		{
			Keys:    bson.D{{Key: "category", Value: 1}, {Key: "event_type", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_category_type_timestamp"),
		},
	}
}

func oauthStateIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "state", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_oauth_states_state"),
		},
		// TTL: MongoDB removes expired states.
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0).SetName("ttl_oauth_states_expires"),
		},
	}
}
