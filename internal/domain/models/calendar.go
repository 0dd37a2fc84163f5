// internal/domain/models/calendar.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Calendar event types.
const (
	EventTypeMatch    = "Match"
	EventTypePractice = "Practice"
	EventTypeMeeting  = "Meeting"
)

// EventTypes is the allowed event type set.
var EventTypes = []string{EventTypeMatch, EventTypePractice, EventTypeMeeting}

// CalendarEvent is a scheduled club event.
type CalendarEvent struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title     string             `bson:"title" json:"title"`
	Date      string             `bson:"date" json:"date"` // YYYY-MM-DD
	Time      string             `bson:"time,omitempty" json:"time,omitempty"`
	Location  string             `bson:"location,omitempty" json:"location,omitempty"`
	Type      string             `bson:"type" json:"type"`
	CreatedBy primitive.ObjectID `bson:"created_by" json:"created_by"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
