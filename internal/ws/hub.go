package ws

import (
	"encoding/json"
	"log"
	"sync"

	"chatapp/internal/observability"
)

// Event is the wire envelope for every server-to-client push.
type Event struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// Hub is the connection registry: live clients keyed by connection id
// and named rooms ("user:<id>", "chat:<id>") keyed by room name. All
// state is process-local; there is no backplane.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	rooms   map[string]map[string]*Client
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		rooms:   make(map[string]map[string]*Client),
	}
}

// Register adds a client to the registry and starts its writer.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	h.clients[client.ID] = client
	h.mu.Unlock()
	go client.writePump()
}

// Unregister removes a client from the registry and every room it
// joined, and closes its send channel. Idempotent.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client.ID]; !ok {
		return
	}
	delete(h.clients, client.ID)
	for room := range client.rooms {
		h.leaveLocked(client, room)
	}
	close(client.send)
}

// Join adds the client to a room. Idempotent.
func (h *Hub) Join(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client.ID]; !ok {
		return
	}
	if _, ok := h.rooms[room]; !ok {
		h.rooms[room] = make(map[string]*Client)
	}
	h.rooms[room][client.ID] = client
	client.rooms[room] = struct{}{}
}

// Leave removes the client from a room.
func (h *Hub) Leave(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(client, room)
}

func (h *Hub) leaveLocked(client *Client, room string) {
	if members, ok := h.rooms[room]; ok {
		delete(members, client.ID)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	delete(client.rooms, room)
}

// ToRoom delivers an event to every connection currently joined to the
// room, including the originating user's own connections.
func (h *Hub) ToRoom(room, event string, data any) {
	payload, err := json.Marshal(Event{Event: event, Data: data})
	if err != nil {
		log.Printf("marshal event %s: %v", event, err)
		return
	}

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.rooms[room]))
	for _, client := range h.rooms[room] {
		targets = append(targets, client)
	}
	h.mu.RUnlock()

	h.deliver(targets, payload)
}

// ToAll delivers an event to every live connection. Used for presence.
func (h *Hub) ToAll(event string, data any) {
	payload, err := json.Marshal(Event{Event: event, Data: data})
	if err != nil {
		log.Printf("marshal event %s: %v", event, err)
		return
	}

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for _, client := range h.clients {
		targets = append(targets, client)
	}
	h.mu.RUnlock()

	h.deliver(targets, payload)
}

// SendTo delivers an event to a single connection, e.g. a fetch reply
// or an error notice.
func (h *Hub) SendTo(client *Client, event string, data any) {
	payload, err := json.Marshal(Event{Event: event, Data: data})
	if err != nil {
		log.Printf("marshal event %s: %v", event, err)
		return
	}
	h.deliver([]*Client{client}, payload)
}

// deliver pushes the payload to each target without blocking. A client
// whose send buffer is full is dropped: a stuck connection must not
// stall the broadcast for the rest of the room.
func (h *Hub) deliver(targets []*Client, payload []byte) {
	var stale []*Client
	for _, client := range targets {
		select {
		case client.send <- payload:
		default:
			stale = append(stale, client)
		}
	}
	for _, client := range stale {
		log.Printf("dropping slow websocket client conn=%s user=%s", client.ID, client.UserID.Hex())
		observability.IncWSEvent("chat", "ws_slow_drop")
		h.Unregister(client)
	}
}

// RoomSize reports the number of connections joined to a room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}
