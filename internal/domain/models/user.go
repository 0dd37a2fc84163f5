// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// JerseySizes lists the sizes offered on the application form.
var JerseySizes = []string{"XS", "S", "M", "L", "XL", "XXL"}

// StatKeys names the season counters a coach can record for a player.
var StatKeys = []string{"goals", "assists", "wins", "mvps"}

// User is a club member's profile. One document exists per principal
// (the identity provider's subject id), created on first sign-in.
//
// Role and ApplicationStatus are only written by the workflow and roster
// operations; self-service profile edits never touch them.
type User struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PrincipalID string             `bson:"principal_id" json:"-"`

	Email         string `bson:"email" json:"email"`
	DisplayName   string `bson:"display_name" json:"display_name"`
	DisplayNameCI string `bson:"display_name_ci" json:"-"` // folded for sort/search
	PhotoURL      string `bson:"photo_url,omitempty" json:"photo_url,omitempty"`

	Role              Role              `bson:"role" json:"role"`
	ApplicationStatus ApplicationStatus `bson:"application_status" json:"application_status"`

	Gamertag      string         `bson:"gamertag,omitempty" json:"gamertag,omitempty"`
	GamertagCI    string         `bson:"gamertag_ci,omitempty" json:"-"`
	Discord       string         `bson:"discord,omitempty" json:"discord,omitempty"`
	Grade         int            `bson:"grade,omitempty" json:"grade,omitempty"`
	GPA           *float64       `bson:"gpa,omitempty" json:"gpa,omitempty"`
	GuardianName  string         `bson:"guardian_name,omitempty" json:"guardian_name,omitempty"`
	GuardianEmail string         `bson:"guardian_email,omitempty" json:"guardian_email,omitempty"`
	JerseySize    string         `bson:"jersey_size,omitempty" json:"jersey_size,omitempty"`
	Games         []string       `bson:"games,omitempty" json:"games,omitempty"`
	Bio           string         `bson:"bio,omitempty" json:"bio,omitempty"`
	Stats         map[string]int `bson:"stats,omitempty" json:"stats,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Status returns the application status, treating an unset field as StatusNone.
func (u *User) Status() ApplicationStatus {
	if u.ApplicationStatus == "" {
		return StatusNone
	}
	return u.ApplicationStatus
}

// PublicPlayer is the subset of a player profile shown on the public roster.
type PublicPlayer struct {
	ID          primitive.ObjectID `json:"id"`
	DisplayName string             `json:"display_name"`
	Gamertag    string             `json:"gamertag,omitempty"`
	PhotoURL    string             `json:"photo_url,omitempty"`
	Games       []string           `json:"games,omitempty"`
	Stats       map[string]int     `json:"stats,omitempty"`
}

// Public projects u onto the fields safe to show anonymously.
func (u *User) Public() PublicPlayer {
	return PublicPlayer{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		Gamertag:    u.Gamertag,
		PhotoURL:    u.PhotoURL,
		Games:       u.Games,
		Stats:       u.Stats,
	}
}
