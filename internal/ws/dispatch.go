package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"chatapp/internal/chat"
	"chatapp/internal/observability"
)

// Reply event names for pull-style fetches over the socket.
const (
	eventMessagesFetched         = "messagesFetched"
	eventChatsFetched            = "chatsFetched"
	eventChatDetailsFetched      = "chatDetailsFetched"
	eventChatCreatedReply        = chat.EventChatCreated
	eventFriendRequestSent       = "friendRequestSent"
	eventFriendsListFetched      = "friendsListFetched"
	eventIncomingRequestsFetched = "incomingRequestsFetched"
)

// Dispatcher decodes inbound socket events and routes each to the same
// service call the REST adapter uses. One handler per event; a failed
// operation emits an error event and never closes the connection.
type Dispatcher struct {
	chats    *chat.ChatService
	messages *chat.MessageService
	friends  *chat.FriendService
	hub      *Hub
}

// NewDispatcher builds a Dispatcher.
func NewDispatcher(chats *chat.ChatService, messages *chat.MessageService, friends *chat.FriendService, hub *Hub) *Dispatcher {
	return &Dispatcher{chats: chats, messages: messages, friends: friends, hub: hub}
}

type inbound struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Dispatch handles one raw inbound frame.
func (d *Dispatcher) Dispatch(ctx context.Context, client *Client, raw []byte) {
	var msg inbound
	if err := json.Unmarshal(raw, &msg); err != nil {
		d.sendError(client, fmt.Errorf("%w: malformed frame", chat.ErrValidation))
		return
	}

	observability.IncWSEvent("chat", msg.Event)

	if err := d.handle(ctx, client, msg); err != nil {
		d.sendError(client, err)
	}
}

func (d *Dispatcher) handle(ctx context.Context, client *Client, msg inbound) error {
	switch msg.Event {
	case "sendMessage":
		var p struct {
			ChatID   string `json:"chatId"`
			Content  string `json:"content"`
			Type     string `json:"type"`
			MediaURL string `json:"mediaUrl"`
		}
		if err := decode(msg.Data, &p); err != nil {
			return err
		}
		chatID, err := parseID(p.ChatID)
		if err != nil {
			return err
		}
		_, err = d.messages.Send(ctx, client.UserID, chat.SendParams{
			ChatID:   chatID,
			Content:  p.Content,
			Kind:     p.Type,
			MediaURL: p.MediaURL,
		})
		return err

	case "editMessage":
		var p struct {
			MessageID string `json:"messageId"`
			Content   string `json:"content"`
		}
		if err := decode(msg.Data, &p); err != nil {
			return err
		}
		messageID, err := parseID(p.MessageID)
		if err != nil {
			return err
		}
		return d.messages.Edit(ctx, client.UserID, messageID, p.Content)

	case "deleteMessage":
		var p struct {
			MessageID string `json:"messageId"`
		}
		if err := decode(msg.Data, &p); err != nil {
			return err
		}
		messageID, err := parseID(p.MessageID)
		if err != nil {
			return err
		}
		return d.messages.Delete(ctx, client.UserID, messageID)

	case "reactMessage":
		var p struct {
			MessageID string `json:"messageId"`
			Type      string `json:"type"`
		}
		if err := decode(msg.Data, &p); err != nil {
			return err
		}
		messageID, err := parseID(p.MessageID)
		if err != nil {
			return err
		}
		_, err = d.messages.React(ctx, client.UserID, messageID, p.Type)
		return err

	case "getMessages":
		var p struct {
			ChatID string `json:"chatId"`
			Limit  int    `json:"limit"`
			Offset int    `json:"offset"`
		}
		if err := decode(msg.Data, &p); err != nil {
			return err
		}
		chatID, err := parseID(p.ChatID)
		if err != nil {
			return err
		}
		msgs, hasMore, err := d.messages.List(ctx, client.UserID, chatID, p.Limit, p.Offset)
		if err != nil {
			return err
		}
		d.hub.SendTo(client, eventMessagesFetched, map[string]any{
			"chatId":   chatID,
			"messages": msgs,
			"hasMore":  hasMore,
		})
		return nil

	case "getChats":
		var p struct {
			Limit  int `json:"limit"`
			Offset int `json:"offset"`
		}
		if err := decode(msg.Data, &p); err != nil {
			return err
		}
		chats, err := d.chats.List(ctx, client.UserID, p.Limit, p.Offset)
		if err != nil {
			return err
		}
		d.hub.SendTo(client, eventChatsFetched, map[string]any{"chats": chats})
		return nil

	case "getChatDetails":
		var p struct {
			ChatID string `json:"chatId"`
		}
		if err := decode(msg.Data, &p); err != nil {
			return err
		}
		chatID, err := parseID(p.ChatID)
		if err != nil {
			return err
		}
		details, err := d.chats.Details(ctx, client.UserID, chatID)
		if err != nil {
			return err
		}
		d.hub.SendTo(client, eventChatDetailsFetched, map[string]any{"chat": details})
		return nil

	case "createChat":
		var p struct {
			Type         string   `json:"type"`
			Name         string   `json:"name"`
			Participants []string `json:"participants"`
		}
		if err := decode(msg.Data, &p); err != nil {
			return err
		}
		participants, err := parseIDs(p.Participants)
		if err != nil {
			return err
		}
		created, fresh, err := d.chats.Create(ctx, client.UserID, chat.CreateParams{
			Kind:         p.Type,
			Name:         p.Name,
			Participants: participants,
		})
		if err != nil {
			return err
		}
		if fresh {
			d.hub.Join(client, chat.ChatRoom(created.ID))
		} else {
			// Existing direct chat: nothing was broadcast, reply directly.
			d.hub.SendTo(client, eventChatCreatedReply, map[string]any{"chatId": created.ID})
		}
		return nil

	case "joinChat":
		var p struct {
			ChatID string `json:"chatId"`
		}
		if err := decode(msg.Data, &p); err != nil {
			return err
		}
		chatID, err := parseID(p.ChatID)
		if err != nil {
			return err
		}
		if err := d.chats.Authorize(ctx, client.UserID, chatID); err != nil {
			return err
		}
		d.hub.Join(client, chat.ChatRoom(chatID))
		return nil

	case "joinMyChats":
		ids, err := d.chats.ChatIDs(ctx, client.UserID)
		if err != nil {
			return err
		}
		for _, id := range ids {
			d.hub.Join(client, chat.ChatRoom(id))
		}
		return nil

	case "markRead":
		var p struct {
			ChatID string `json:"chatId"`
		}
		if err := decode(msg.Data, &p); err != nil {
			return err
		}
		chatID, err := parseID(p.ChatID)
		if err != nil {
			return err
		}
		return d.chats.MarkRead(ctx, client.UserID, chatID)

	case "typing":
		var p struct {
			ChatID   string `json:"chatId"`
			IsTyping bool   `json:"isTyping"`
		}
		if err := decode(msg.Data, &p); err != nil {
			return err
		}
		chatID, err := parseID(p.ChatID)
		if err != nil {
			return err
		}
		return d.messages.Typing(ctx, client.UserID, chatID, p.IsTyping)

	case "sendFriendRequest":
		var p struct {
			ReceiverID string `json:"receiverId"`
		}
		if err := decode(msg.Data, &p); err != nil {
			return err
		}
		receiverID, err := parseID(p.ReceiverID)
		if err != nil {
			return err
		}
		req, err := d.friends.SendRequest(ctx, client.UserID, receiverID)
		if err != nil {
			return err
		}
		d.hub.SendTo(client, eventFriendRequestSent, map[string]any{"requestId": req.ID})
		return nil

	case "acceptFriendRequest":
		requestID, err := requestIDOf(msg.Data)
		if err != nil {
			return err
		}
		return d.friends.Accept(ctx, client.UserID, requestID)

	case "declineFriendRequest":
		requestID, err := requestIDOf(msg.Data)
		if err != nil {
			return err
		}
		return d.friends.Decline(ctx, client.UserID, requestID)

	case "removeFriend":
		var p struct {
			FriendID string `json:"friendId"`
		}
		if err := decode(msg.Data, &p); err != nil {
			return err
		}
		friendID, err := parseID(p.FriendID)
		if err != nil {
			return err
		}
		return d.friends.Remove(ctx, client.UserID, friendID)

	case "getFriendsList":
		friends, err := d.friends.Friends(ctx, client.UserID)
		if err != nil {
			return err
		}
		d.hub.SendTo(client, eventFriendsListFetched, map[string]any{"friends": friends})
		return nil

	case "getIncomingRequests":
		requests, err := d.friends.IncomingRequests(ctx, client.UserID)
		if err != nil {
			return err
		}
		d.hub.SendTo(client, eventIncomingRequestsFetched, map[string]any{"requests": requests})
		return nil

	default:
		return fmt.Errorf("%w: unknown event %q", chat.ErrValidation, msg.Event)
	}
}

// sendError reports a failed operation to the client without closing
// the connection. Internal errors are logged and masked.
func (d *Dispatcher) sendError(client *Client, err error) {
	message := "server error"
	switch {
	case errors.Is(err, chat.ErrValidation),
		errors.Is(err, chat.ErrNotAuthorized),
		errors.Is(err, chat.ErrNotFound),
		errors.Is(err, chat.ErrConflict):
		message = err.Error()
	default:
		log.Printf("socket operation failed for user %s: %v", client.UserID.Hex(), err)
	}
	d.hub.SendTo(client, chat.EventError, map[string]any{"message": message})
}

func decode(data json.RawMessage, dst any) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: missing payload", chat.ErrValidation)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("%w: malformed payload", chat.ErrValidation)
	}
	return nil
}

func parseID(hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: invalid id %q", chat.ErrValidation, hex)
	}
	return id, nil
}

func parseIDs(hexes []string) ([]primitive.ObjectID, error) {
	ids := make([]primitive.ObjectID, 0, len(hexes))
	for _, h := range hexes {
		id, err := parseID(h)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func requestIDOf(data json.RawMessage) (primitive.ObjectID, error) {
	var p struct {
		RequestID string `json:"requestId"`
	}
	if err := decode(data, &p); err != nil {
		return primitive.NilObjectID, err
	}
	return parseID(p.RequestID)
}
