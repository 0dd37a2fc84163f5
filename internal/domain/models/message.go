// internal/domain/models/message.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Comms channels. ChannelAnnouncements is read-only for roles without the
// post-announcements capability.
const (
	ChannelGeneral       = "general"
	ChannelAnnouncements = "announcements"
	ChannelRocketLeague  = "rocket-league"
	ChannelSmashBros     = "smash-bros"
	ChannelMinecraft     = "minecraft"
)

// Channels is the fixed set of comms channels.
var Channels = []string{
	ChannelGeneral,
	ChannelAnnouncements,
	ChannelRocketLeague,
	ChannelSmashBros,
	ChannelMinecraft,
}

// IsChannel reports whether name is a known channel.
func IsChannel(name string) bool {
	for _, c := range Channels {
		if c == name {
			return true
		}
	}
	return false
}

// Message is a single chat message in a comms channel.
type Message struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Channel    string             `bson:"channel" json:"channel"`
	Text       string             `bson:"text" json:"text"`
	AuthorID   primitive.ObjectID `bson:"author_id" json:"author_id"`
	AuthorName string             `bson:"author_name" json:"author_name"`
	AuthorRole Role               `bson:"author_role" json:"author_role"`
	PhotoURL   string             `bson:"photo_url,omitempty" json:"photo_url,omitempty"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
}
