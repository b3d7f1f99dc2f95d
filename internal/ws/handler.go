package ws

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel"

	"chatapp/internal/chat"
	"chatapp/internal/observability"
	"chatapp/internal/repositories"
	"chatapp/internal/session"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler authenticates the websocket handshake and owns the connection
// lifecycle: registry entry, room auto-join, presence, and the read loop.
type Handler struct {
	hub        *Hub
	users      repositories.UserRepository
	chats      *chat.ChatService
	sessions   *session.Manager
	presence   *Presence
	dispatcher *Dispatcher
}

// NewHandler constructs a Handler.
func NewHandler(hub *Hub, users repositories.UserRepository, chats *chat.ChatService, sessions *session.Manager, presence *Presence, dispatcher *Dispatcher) *Handler {
	return &Handler{hub: hub, users: users, chats: chats, sessions: sessions, presence: presence, dispatcher: dispatcher}
}

// Handle validates the bearer token, upgrades the connection, joins the
// user room and all participant chat rooms, then serves events until
// the client disconnects. Authentication failures reject the handshake
// before any event handler runs.
func (h *Handler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("chatapp/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	token := c.GetHeader("Authorization")
	if token == "" {
		token = c.Query("token")
	}
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	userHex, err := h.sessions.Validate(session.StripBearer(token))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	userID, err := primitive.ObjectIDFromHex(userHex)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	user, err := h.users.GetByID(ctx, userID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrUserNotFound) {
			status = http.StatusUnauthorized
		}
		c.JSON(status, gin.H{"error": "user not found"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	client := NewClient(conn, user.Summary(), ConnInfo{
		DeviceID:  observability.DeviceIDFromRequest(c.Request),
		IP:        observability.IPFromRequest(c.Request),
		RequestID: observability.RequestIDFromRequest(c.Request),
		TraceID:   span.SpanContext().TraceID().String(),
	})
	h.hub.Register(client)
	h.hub.Join(client, chat.UserRoom(userID))
	h.autoJoinChats(ctx, client)
	h.presence.SetOnline(ctx, userID)

	observability.IncWSActive("chat")
	observability.IncWSEvent("chat", "ws_connect")
	publishConnEvent(ctx, "ws_connect", client, "")

	go h.readLoop(client)
}

// autoJoinChats joins the connection to every chat room the user is a
// participant of, so live messages arrive without explicit subscribes.
func (h *Handler) autoJoinChats(ctx context.Context, client *Client) {
	ids, err := h.chats.ChatIDs(ctx, client.UserID)
	if err != nil {
		log.Printf("auto-join failed for user %s: %v", client.UserID.Hex(), err)
		return
	}
	for _, id := range ids {
		h.hub.Join(client, chat.ChatRoom(id))
	}
}

// readLoop serves inbound events until the connection closes. The
// deferred teardown is the single disconnect entrypoint: it unregisters
// the client and emits exactly one offline broadcast.
func (h *Handler) readLoop(client *Client) {
	// The handshake request context dies with the HTTP handler; the
	// connection outlives it.
	ctx := context.Background()

	var closeReason string
	defer func() {
		h.hub.Unregister(client)
		h.presence.SetOffline(ctx, client.UserID)
		observability.DecWSActive("chat")
		observability.IncWSEvent("chat", "ws_disconnect")
		publishConnEvent(ctx, "ws_disconnect", client, closeReason)
	}()

	for {
		_, raw, err := client.conn.ReadMessage()
		if err != nil {
			closeReason = err.Error()
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				observability.IncWSEvent("chat", "ws_error")
				publishConnEvent(ctx, "ws_error", client, closeReason)
			}
			return
		}
		h.dispatcher.Dispatch(ctx, client, raw)
	}
}

func publishConnEvent(ctx context.Context, name string, client *Client, reason string) {
	payload := map[string]any{
		"ws": map[string]any{
			"event":       name,
			"conn_id":     client.Info.ConnID,
			"duration_ms": time.Since(client.Info.ConnectedAt).Milliseconds(),
			"reason":      reason,
		},
		"identity": map[string]any{
			"user_id":   client.Info.UserID,
			"device_id": client.Info.DeviceID,
			"ip":        client.Info.IP,
		},
	}
	headers := observability.BuildHeaders(client.Info.RequestID, client.Info.TraceID)
	_ = observability.PublishEvent(ctx, "ws_events.connections", observability.EventEnvelope{
		EventType: "ws_events",
		EventName: name,
		Payload:   payload,
	}, headers)
}
