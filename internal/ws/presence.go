package ws

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"chatapp/internal/chat"
	"chatapp/internal/repositories"
)

// Presence flips the persisted online flag and broadcasts the change to
// every live connection. Presence is global fanout, not room-scoped.
type Presence struct {
	users repositories.UserRepository
	hub   *Hub
}

// NewPresence builds a Presence tracker.
func NewPresence(users repositories.UserRepository, hub *Hub) *Presence {
	return &Presence{users: users, hub: hub}
}

// SetOnline marks the user online. Runs once per successful connection.
func (p *Presence) SetOnline(ctx context.Context, userID primitive.ObjectID) {
	if err := p.users.SetOnline(ctx, userID, true); err != nil {
		log.Printf("set online failed for user %s: %v", userID.Hex(), err)
	}
	p.hub.ToAll(chat.EventUserOnline, map[string]any{"userId": userID, "online": true})
}

// SetOffline marks the user offline and stamps last-seen. Runs exactly
// once per disconnect: the connection's read loop is the only caller.
func (p *Presence) SetOffline(ctx context.Context, userID primitive.ObjectID) {
	if err := p.users.SetOnline(ctx, userID, false); err != nil {
		log.Printf("set offline failed for user %s: %v", userID.Hex(), err)
	}
	p.hub.ToAll(chat.EventUserOffline, map[string]any{
		"userId":   userID,
		"online":   false,
		"lastSeen": time.Now().UTC(),
	})
}
