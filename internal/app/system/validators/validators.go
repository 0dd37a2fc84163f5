// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/clubhub/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates collections (if missing) and tries to attach JSON-Schema
// validators. The users validator restates the role and status enums so a
// write that bypasses the service still cannot store an unknown value.
// On servers that don't support collMod/validators (e.g. some DocumentDB
// versions), we log and skip gracefully.
func EnsureAll(ctx context.Context, db *mongo.Database, log *zap.Logger) error {
	var problems []string

	// helper: ensure collection exists (with truthful logging) and then validator (if provided)
	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, coll, log); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema, log); err != nil {
			// DocumentDB or other deployments may not support collMod/validators.
			if isNoSuchCommand(err) || isNotImplemented(err) {
				log.Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	ensure("users", usersSchema())
	ensure("messages", messagesSchema())
	ensure("ledger_entries", ledgerSchema())
	ensure("calendar_events", calendarSchema())
	ensure("stream", overlaySchema())

	// These don't need validators; we still ensure the collections exist.
	ensure("audit_events", nil)
	ensure("oauth_states", nil)

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers & logging ---------------------- */

// collectionExists returns true when <name> already exists.
// Uses ListCollectionNames to avoid "created collection" log when it didn't.
func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// ensureCollection idempotently makes sure <name> exists.
// Returns created==true only if we actually created it.
func ensureCollection(ctx context.Context, db *mongo.Database, name string, log *zap.Logger) (created bool, err error) {
	exists, listErr := collectionExists(ctx, db, name)
	if listErr == nil && exists {
		log.Info("collection exists", zap.String("collection", name))
		return false, nil
	}
	// If listing failed, fall back to create-and-handle-race.
	if err := db.CreateCollection(ctx, name); err != nil {
		// NamespaceExists / already exists is fine (race or prior run).
		if isNamespaceExistsErr(err) {
			log.Info("collection exists", zap.String("collection", name))
			return false, nil
		}
		log.Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	log.Info("created collection", zap.String("collection", name))
	return true, nil
}

/* ------------------------------ validators ------------------------------- */

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M, log *zap.Logger) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	if err := db.RunCommand(ctx, cmd).Decode(&out); err != nil {
		return err
	}
	log.Info("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

func isNamespaceExistsErr(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 48 || strings.Contains(strings.ToLower(ce.Message), "already exists")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "already exists") || strings.Contains(s, "namespace exists")
}

func isNoSuchCommand(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 59 || strings.Contains(strings.ToLower(ce.Message), "no such command")) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such command")
}

func isNotImplemented(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 115 ||
		strings.Contains(strings.ToLower(ce.Message), "not implemented") ||
		strings.Contains(strings.ToLower(ce.Message), "not supported")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "not implemented") || strings.Contains(s, "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

// enum turns a typed string list into a bson array.
func enum[T ~string](vals []T) bson.A {
	out := make(bson.A, 0, len(vals))
	for _, v := range vals {
		out = append(out, string(v))
	}
	return out
}

const datePattern = "^[0-9]{4}-[0-9]{2}-[0-9]{2}$"

func usersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"principal_id", "role", "application_status"},
			"properties": bson.M{
				"principal_id":       bson.M{"bsonType": "string", "minLength": 1},
				"email":              bson.M{"bsonType": "string"},
				"display_name":       bson.M{"bsonType": "string"},
				"display_name_ci":    bson.M{"bsonType": "string"},
				"role":               bson.M{"enum": enum(models.AllRoles)},
				"application_status": bson.M{"enum": enum(models.AllStatuses)},
				"grade":              bson.M{"bsonType": "number", "minimum": 9, "maximum": 12},
				"gpa":                bson.M{"bsonType": "number", "minimum": 0, "maximum": 5},
				"guardian_email":     bson.M{"bsonType": "string"},
				"games":              bson.M{"bsonType": "array", "items": bson.M{"bsonType": "string"}},
				"stats":              bson.M{"bsonType": "object"},
			},
		},
	}
}

func messagesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"channel", "text", "author_id", "created_at"},
			"properties": bson.M{
				"channel":     bson.M{"enum": enum(models.Channels)},
				"text":        bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
				"author_id":   bson.M{"bsonType": "objectId"},
				"author_role": bson.M{"enum": enum(models.AllRoles)},
				"created_at":  bson.M{"bsonType": "date"},
			},
		},
	}
}

func ledgerSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"description", "amount", "type", "category", "date"},
			"properties": bson.M{
				"description": bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
				"amount":      bson.M{"bsonType": "decimal"},
				"type":        bson.M{"enum": bson.A{models.LedgerIncoming, models.LedgerOutgoing}},
				"category":    bson.M{"enum": enum(models.LedgerCategories)},
				"date":        bson.M{"bsonType": "string", "pattern": datePattern},
			},
		},
	}
}

func calendarSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"title", "date", "type"},
			"properties": bson.M{
				"title": bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
				"date":  bson.M{"bsonType": "string", "pattern": datePattern},
				"type":  bson.M{"enum": enum(models.EventTypes)},
			},
		},
	}
}

func overlaySchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"score_a", "score_b", "status"},
			"properties": bson.M{
				"score_a": bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 0},
				"score_b": bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 0},
				"status":  bson.M{"enum": enum(models.OverlayStatuses)},
			},
		},
	}
}
