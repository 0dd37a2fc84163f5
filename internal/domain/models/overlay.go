// internal/domain/models/overlay.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LiveOverlayID is the _id of the single scoreboard document.
const LiveOverlayID = "live"

// Overlay statuses shown on the broadcast scoreboard.
const (
	OverlayOffline      = "OFFLINE"
	OverlayStartingSoon = "STARTING SOON"
	OverlayLive         = "LIVE"
	OverlayIntermission = "INTERMISSION"
	OverlayGGWP         = "GG WP"
)

// OverlayStatuses is the allowed status set.
var OverlayStatuses = []string{OverlayOffline, OverlayStartingSoon, OverlayLive, OverlayIntermission, OverlayGGWP}

// StreamOverlay is the live-stream scoreboard. Scores never go below zero.
type StreamOverlay struct {
	ID        string             `bson:"_id" json:"-"`
	TeamA     string             `bson:"team_a" json:"team_a"`
	TeamB     string             `bson:"team_b" json:"team_b"`
	ScoreA    int                `bson:"score_a" json:"score_a"`
	ScoreB    int                `bson:"score_b" json:"score_b"`
	Game      string             `bson:"game" json:"game"`
	Status    string             `bson:"status" json:"status"`
	UpdatedBy primitive.ObjectID `bson:"updated_by,omitempty" json:"-"`
	UpdatedAt time.Time          `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}

// DefaultOverlay is the scoreboard created on first read.
func DefaultOverlay() StreamOverlay {
	return StreamOverlay{
		ID:     LiveOverlayID,
		TeamA:  "MJHS",
		TeamB:  "GUEST",
		Game:   "Rocket League",
		Status: OverlayOffline,
	}
}
