package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Chat kinds.
const (
	ChatDirect = "direct"
	ChatGroup  = "group"
)

// Chat is a conversation document. Direct chats hold exactly two
// participants, groups hold two or more plus a name.
type Chat struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Kind         string               `bson:"kind" json:"type"`
	Name         string               `bson:"name,omitempty" json:"name,omitempty"`
	Participants []primitive.ObjectID `bson:"participants" json:"participants"`
	CreatedAt    time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time            `bson:"updated_at" json:"updated_at"`
}

// HasParticipant reports whether the user belongs to the chat.
func (c Chat) HasParticipant(userID primitive.ObjectID) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// ChatSummary is the listing projection for one user: the chat plus the
// latest activity timestamp and that user's unread counter.
type ChatSummary struct {
	Chat            `bson:",inline"`
	LastMessageTime *time.Time `json:"last_message_time,omitempty"`
	UnreadCount     int        `json:"unread_count"`
}

// ChatDetails is a chat with its participants resolved to public profiles.
type ChatDetails struct {
	ID           primitive.ObjectID `json:"id"`
	Kind         string             `json:"type"`
	Name         string             `json:"name,omitempty"`
	Participants []UserSummary      `json:"participants"`
	CreatedAt    time.Time          `json:"created_at"`
}
