package ws

import (
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"chatapp/internal/models"
)

// sendBuffer bounds how far a client may fall behind before it is dropped.
const sendBuffer = 64

// ConnInfo captures handshake metadata for audit events.
type ConnInfo struct {
	ConnID      string
	UserID      string
	DeviceID    string
	IP          string
	RequestID   string
	TraceID     string
	ConnectedAt time.Time
}

// Client is one live websocket connection with its authenticated user
// bound for the lifetime of the connection.
type Client struct {
	ID     string
	UserID primitive.ObjectID
	User   models.UserSummary
	Info   ConnInfo

	conn *websocket.Conn
	send chan []byte

	// rooms this client joined; guarded by the hub mutex.
	rooms map[string]struct{}
}

// NewClient wraps an upgraded connection with its resolved user.
func NewClient(conn *websocket.Conn, user models.UserSummary, info ConnInfo) *Client {
	info.ConnID = uuid.NewString()
	info.UserID = user.ID.Hex()
	info.ConnectedAt = time.Now()
	return &Client{
		ID:     info.ConnID,
		UserID: user.ID,
		User:   user,
		Info:   info,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		rooms:  make(map[string]struct{}),
	}
}

// writePump drains the send channel onto the socket. It exits when the
// hub closes the channel on unregister, then closes the connection so
// the read loop unblocks.
func (c *Client) writePump() {
	defer c.conn.Close()
	for payload := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Printf("websocket write error: %v", err)
			return
		}
	}
}
