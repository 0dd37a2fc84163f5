// internal/app/system/paging/paging.go
package paging

import (
	"strings"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PageSize is the number of rows returned per list page.
// Kept as an int since callers do arithmetic with it before casting to
// int64 for Find().SetLimit().
const PageSize = 50

// LimitPlusOne returns PageSize+1 as int64 for look-ahead pagination
// (fetch one extra document to detect hasNext).
func LimitPlusOne() int64 { return int64(PageSize + 1) }

// Result holds the output of TrimPage for keyset pagination.
type Result struct {
	HasPrev bool
	HasNext bool
}

// TrimPage trims a fetched slice for keyset pagination.
// Call this after fetching PageSize+1 rows (already in display order).
//
// When going backwards (before != ""):
//   - If len > PageSize, trim the first element (older page exists)
//   - HasNext is always true (we came from somewhere)
//
// When going forwards or on first page:
//   - If len > PageSize, trim to PageSize (next page exists)
//   - HasPrev is true only if after != ""
func TrimPage[T any](rows *[]T, before, after string) Result {
	return TrimPageSize(rows, before, after, PageSize)
}

// TrimPageSize is TrimPage with an explicit page size.
func TrimPageSize[T any](rows *[]T, before, after string, pageSize int) Result {
	var res Result
	if before != "" {
		if len(*rows) > pageSize {
			*rows = (*rows)[1:]
			res.HasPrev = true
		}
		res.HasNext = true
		return res
	}
	if len(*rows) > pageSize {
		*rows = (*rows)[:pageSize]
		res.HasNext = true
	}
	res.HasPrev = after != ""
	return res
}

// Direction indicates the pagination direction.
type Direction int

const (
	Forward  Direction = iota // sort ascending, "gt" cursor
	Backward                  // sort descending, "lt" cursor
)

// KeysetConfig holds the result of configuring keyset pagination.
type KeysetConfig struct {
	Direction Direction
	SortOrder int // 1 ascending, -1 descending
	Cursor    *wafflemongo.Cursor
}

// ConfigureKeyset determines pagination direction and decodes the cursor.
// An undecodable cursor is ignored and the first page is returned.
func ConfigureKeyset(before, after string) KeysetConfig {
	cfg := KeysetConfig{Direction: Forward, SortOrder: 1}

	if before != "" {
		cfg.Direction = Backward
		cfg.SortOrder = -1
		if c, ok := wafflemongo.DecodeCursor(before); ok {
			cfg.Cursor = &c
		}
	} else if after != "" {
		if c, ok := wafflemongo.DecodeCursor(after); ok {
			cfg.Cursor = &c
		}
	}
	return cfg
}

// ApplyToFind configures FindOptions with sort and limit for keyset pagination.
func (cfg KeysetConfig) ApplyToFind(find *options.FindOptions, sortField string) {
	find.SetSort(bson.D{
		{Key: sortField, Value: cfg.SortOrder},
		{Key: "_id", Value: cfg.SortOrder},
	}).SetLimit(LimitPlusOne())
}

// KeysetWindow returns the cursor condition for the query filter,
// or nil if no cursor is set.
func (cfg KeysetConfig) KeysetWindow(sortField string) bson.M {
	if cfg.Cursor == nil {
		return nil
	}
	dir := "gt"
	if cfg.Direction == Backward {
		dir = "lt"
	}
	return wafflemongo.KeysetWindow(sortField, dir, cfg.Cursor.CI, cfg.Cursor.ID)
}

// Admits reports whether a row keyed (ci, id) lies inside the cursor
// window. It is the in-memory twin of KeysetWindow and orders ties on
// the ObjectID the same way MongoDB does.
func (cfg KeysetConfig) Admits(ci string, id primitive.ObjectID) bool {
	if cfg.Cursor == nil {
		return true
	}
	c := Compare(ci, id, cfg.Cursor.CI, cfg.Cursor.ID)
	if cfg.Direction == Backward {
		return c < 0
	}
	return c > 0
}

// Compare orders two (ci, id) keys: -1, 0 or +1.
func Compare(aCI string, aID primitive.ObjectID, bCI string, bID primitive.ObjectID) int {
	if c := strings.Compare(aCI, bCI); c != 0 {
		return c
	}
	return strings.Compare(aID.Hex(), bID.Hex())
}

// Reverse reverses a slice in place. Use this after fetching results
// when paging backwards to restore the display order.
func Reverse[T any](rows []T) {
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
}

// BuildCursors creates prev/next cursor strings from the first and last elements.
func BuildCursors[T any](rows []T, keyFn func(T) string, idFn func(T) primitive.ObjectID) (prev, next string) {
	if len(rows) == 0 {
		return "", ""
	}
	first := rows[0]
	last := rows[len(rows)-1]
	prev = wafflemongo.EncodeCursor(keyFn(first), idFn(first))
	next = wafflemongo.EncodeCursor(keyFn(last), idFn(last))
	return prev, next
}
