// Package realtime fans out change notifications to interested subscribers.
//
// A Hub delivers events within one process. A RedisRelay publishes events
// over Redis pub/sub so every instance's Hub sees changes made elsewhere.
// Delivery is best-effort: a subscriber whose buffer is full misses the
// event and picks up the current state on its next read.
package realtime

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Collections that publish change events.
const (
	CollUsers    = "users"
	CollMessages = "messages"
	CollLedger   = "ledger_entries"
	CollCalendar = "calendar_events"
	CollOverlay  = "stream"
)

// Collections lists every collection a client may subscribe to.
var Collections = []string{CollUsers, CollMessages, CollLedger, CollCalendar, CollOverlay}

// Change operations.
const (
	OpInsert = "insert"
	OpUpdate = "update"
	OpDelete = "delete"
)

// Event describes one change to one document.
type Event struct {
	ID         string          `json:"id"`
	Collection string          `json:"collection"`
	Op         string          `json:"op"`
	DocID      string          `json:"doc_id"`
	Data       json.RawMessage `json:"data,omitempty"`
	At         time.Time       `json:"at"`
}

// NewEvent builds an event for doc. A doc that cannot be encoded is sent
// without data; subscribers re-read by DocID.
func NewEvent(collection, op, docID string, doc any) Event {
	ev := Event{
		ID:         uuid.NewString(),
		Collection: collection,
		Op:         op,
		DocID:      docID,
		At:         time.Now().UTC(),
	}
	if doc != nil {
		if b, err := json.Marshal(doc); err == nil {
			ev.Data = b
		}
	}
	return ev
}

// Predicate selects the events a subscriber receives.
type Predicate func(Event) bool

// InCollection matches events on a single collection.
func InCollection(coll string) Predicate {
	return func(ev Event) bool { return ev.Collection == coll }
}

// Publisher accepts events for delivery.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Subscriber opens filtered event streams.
type Subscriber interface {
	Subscribe(pred Predicate) (<-chan Event, func())
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
