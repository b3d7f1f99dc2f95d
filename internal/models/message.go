package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message kinds.
const (
	MessageText  = "text"
	MessageMedia = "media"
)

// Content encodings. The encoding is decided once at write time so reads
// never have to guess whether stored content is ciphertext. Documents
// predating the field carry an empty encoding and pass through untouched.
const (
	EncodingPlain  = "plain"
	EncodingAESGCM = "aes-gcm"
)

// Reaction is one (user, type) entry on a message. The pair acts as a
// toggle: reacting twice with the same type removes it.
type Reaction struct {
	UserID primitive.ObjectID `bson:"user_id" json:"user_id"`
	Type   string             `bson:"type" json:"type"`
}

// Message is a chat message document. Deleted messages are tombstoned via
// DeletedAt, never removed.
type Message struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ChatID     primitive.ObjectID `bson:"chat_id" json:"chat_id"`
	SenderID   primitive.ObjectID `bson:"sender_id" json:"sender_id"`
	Content    string             `bson:"content" json:"content"`
	ContentEnc string             `bson:"content_enc,omitempty" json:"-"`
	Kind       string             `bson:"kind" json:"type"`
	MediaURL   string             `bson:"media_url,omitempty" json:"media_url,omitempty"`
	Edited     bool               `bson:"edited" json:"edited"`
	DeletedAt  *time.Time         `bson:"deleted_at,omitempty" json:"deleted_at,omitempty"`
	Reactions  []Reaction         `bson:"reactions,omitempty" json:"reactions,omitempty"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time          `bson:"updated_at" json:"updated_at"`
}

// MessageView is the wire shape for fetches and broadcasts: plaintext
// content and the sender resolved to a public profile.
type MessageView struct {
	ID        primitive.ObjectID `json:"id"`
	ChatID    primitive.ObjectID `json:"chat_id"`
	Sender    UserSummary        `json:"sender"`
	Content   string             `json:"content"`
	Kind      string             `json:"type"`
	MediaURL  string             `json:"media_url,omitempty"`
	Edited    bool               `json:"edited"`
	Reactions []ReactionView     `json:"reactions,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
}

// ReactionView is a reaction with the reacting user resolved.
type ReactionView struct {
	User UserSummary `json:"user"`
	Type string      `json:"type"`
}
