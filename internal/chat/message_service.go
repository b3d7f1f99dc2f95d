package chat

import (
	"context"
	"errors"
	"fmt"
	"log"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"chatapp/internal/models"
	"chatapp/internal/observability"
	"chatapp/internal/repositories"
)

// Cipher encrypts text message bodies at rest.
type Cipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// MessageService implements the message lifecycle: send, fetch, edit,
// tombstone, react. Every mutation persists first and then broadcasts
// to the chat room.
type MessageService struct {
	chats    repositories.ChatRepository
	messages repositories.MessageRepository
	users    repositories.UserRepository
	cipher   Cipher
	hub      Broadcaster
}

// NewMessageService builds a MessageService.
func NewMessageService(chats repositories.ChatRepository, messages repositories.MessageRepository, users repositories.UserRepository, cipher Cipher, hub Broadcaster) *MessageService {
	return &MessageService{chats: chats, messages: messages, users: users, cipher: cipher, hub: hub}
}

// SendParams are the arguments to Send.
type SendParams struct {
	ChatID   primitive.ObjectID
	Content  string
	Kind     string
	MediaURL string
}

// Send persists a message and broadcasts it to the chat room. Text
// content is encrypted at rest and tagged with its encoding; the
// broadcast carries the original plaintext. Unread counters of the
// other participants are bumped best-effort.
func (s *MessageService) Send(ctx context.Context, senderID primitive.ObjectID, params SendParams) (models.MessageView, error) {
	if params.Content == "" && params.MediaURL == "" {
		return models.MessageView{}, fmt.Errorf("%w: empty message", ErrValidation)
	}
	if params.Kind == "" {
		params.Kind = models.MessageText
	}
	if params.Kind != models.MessageText && params.Kind != models.MessageMedia {
		return models.MessageView{}, fmt.Errorf("%w: unknown message type %q", ErrValidation, params.Kind)
	}

	c, err := s.chats.GetByID(ctx, params.ChatID)
	if errors.Is(err, repositories.ErrChatNotFound) {
		return models.MessageView{}, fmt.Errorf("%w: chat", ErrNotFound)
	}
	if err != nil {
		return models.MessageView{}, err
	}
	if !c.HasParticipant(senderID) {
		return models.MessageView{}, fmt.Errorf("%w: not a chat participant", ErrNotAuthorized)
	}

	stored, enc, err := s.encode(params.Content, params.Kind)
	if err != nil {
		return models.MessageView{}, err
	}

	msg, err := s.messages.Create(ctx, models.Message{
		ChatID:     params.ChatID,
		SenderID:   senderID,
		Content:    stored,
		ContentEnc: enc,
		Kind:       params.Kind,
		MediaURL:   params.MediaURL,
	})
	if err != nil {
		return models.MessageView{}, err
	}
	observability.IncMessageSent(msg.Kind)

	// Best-effort: a failed increment must not fail the send.
	for _, p := range c.Participants {
		if p == senderID {
			continue
		}
		if err := s.users.IncrementUnread(ctx, p, params.ChatID, 1); err != nil {
			log.Printf("unread increment failed for user %s: %v", p.Hex(), err)
		}
	}

	sender, err := s.users.GetByID(ctx, senderID)
	if err != nil {
		return models.MessageView{}, err
	}

	view := models.MessageView{
		ID:        msg.ID,
		ChatID:    msg.ChatID,
		Sender:    sender.Summary(),
		Content:   params.Content,
		Kind:      msg.Kind,
		MediaURL:  msg.MediaURL,
		CreatedAt: msg.CreatedAt,
	}
	s.hub.ToRoom(ChatRoom(params.ChatID), EventNewMessage, view)
	return view, nil
}

// List returns one page of live messages, oldest first within the page,
// and whether older messages remain. The caller must be a participant.
func (s *MessageService) List(ctx context.Context, callerID, chatID primitive.ObjectID, limit, offset int) ([]models.MessageView, bool, error) {
	limit = clampLimit(limit, 50)

	c, err := s.chats.GetByID(ctx, chatID)
	if errors.Is(err, repositories.ErrChatNotFound) {
		return nil, false, fmt.Errorf("%w: chat", ErrNotFound)
	}
	if err != nil {
		return nil, false, err
	}
	if !c.HasParticipant(callerID) {
		return nil, false, fmt.Errorf("%w: not a chat participant", ErrNotAuthorized)
	}

	msgs, err := s.messages.ListForChat(ctx, chatID, limit, offset)
	if err != nil {
		return nil, false, err
	}
	hasMore := len(msgs) == limit

	senders, err := s.senderSummaries(ctx, msgs)
	if err != nil {
		return nil, false, err
	}

	views := make([]models.MessageView, 0, len(msgs))
	// Reverse: repository returns newest first, clients render oldest first.
	for i := len(msgs) - 1; i >= 0; i-- {
		m := msgs[i]
		reactions, err := s.resolveReactions(ctx, m.Reactions)
		if err != nil {
			return nil, false, err
		}
		views = append(views, models.MessageView{
			ID:        m.ID,
			ChatID:    m.ChatID,
			Sender:    senders[m.SenderID],
			Content:   s.decode(m),
			Kind:      m.Kind,
			MediaURL:  m.MediaURL,
			Edited:    m.Edited,
			Reactions: reactions,
			CreatedAt: m.CreatedAt,
		})
	}
	return views, hasMore, nil
}

// Edit replaces the content of the caller's own message and broadcasts
// the new plaintext to the chat room.
func (s *MessageService) Edit(ctx context.Context, callerID, messageID primitive.ObjectID, content string) error {
	if content == "" {
		return fmt.Errorf("%w: empty content", ErrValidation)
	}
	msg, err := s.ownMessage(ctx, callerID, messageID)
	if err != nil {
		return err
	}

	stored, enc, err := s.encode(content, msg.Kind)
	if err != nil {
		return err
	}
	if err := s.messages.SetContent(ctx, messageID, stored, enc); err != nil {
		return err
	}

	s.hub.ToRoom(ChatRoom(msg.ChatID), EventMessageEdited, map[string]any{
		"messageId": messageID,
		"content":   content,
	})
	return nil
}

// Delete tombstones the caller's own message and broadcasts the id.
func (s *MessageService) Delete(ctx context.Context, callerID, messageID primitive.ObjectID) error {
	msg, err := s.ownMessage(ctx, callerID, messageID)
	if err != nil {
		return err
	}
	if err := s.messages.SoftDelete(ctx, messageID); err != nil {
		return err
	}

	s.hub.ToRoom(ChatRoom(msg.ChatID), EventMessageDeleted, map[string]any{"messageId": messageID})
	return nil
}

// React toggles the (caller, type) reaction on a message and broadcasts
// the full resolved reaction list. The caller must be a chat participant.
func (s *MessageService) React(ctx context.Context, callerID, messageID primitive.ObjectID, reactionType string) ([]models.ReactionView, error) {
	if reactionType == "" {
		return nil, fmt.Errorf("%w: empty reaction type", ErrValidation)
	}

	msg, err := s.messages.GetByID(ctx, messageID)
	if errors.Is(err, repositories.ErrMessageNotFound) {
		return nil, fmt.Errorf("%w: message", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	c, err := s.chats.GetByID(ctx, msg.ChatID)
	if err != nil {
		return nil, err
	}
	if !c.HasParticipant(callerID) {
		return nil, fmt.Errorf("%w: not a chat participant", ErrNotAuthorized)
	}

	reactions := toggleReaction(msg.Reactions, callerID, reactionType)
	if err := s.messages.SetReactions(ctx, messageID, reactions); err != nil {
		return nil, err
	}

	resolved, err := s.resolveReactions(ctx, reactions)
	if err != nil {
		return nil, err
	}
	s.hub.ToRoom(ChatRoom(msg.ChatID), EventMessageReaction, map[string]any{
		"messageId": messageID,
		"reactions": resolved,
	})
	return resolved, nil
}

// Typing relays a typing indicator to the chat room. Nothing is persisted.
func (s *MessageService) Typing(ctx context.Context, userID, chatID primitive.ObjectID, isTyping bool) error {
	c, err := s.chats.GetByID(ctx, chatID)
	if errors.Is(err, repositories.ErrChatNotFound) {
		return fmt.Errorf("%w: chat", ErrNotFound)
	}
	if err != nil {
		return err
	}
	if !c.HasParticipant(userID) {
		return fmt.Errorf("%w: not a chat participant", ErrNotAuthorized)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	s.hub.ToRoom(ChatRoom(chatID), EventUserTyping, map[string]any{
		"userId":   userID,
		"username": user.Username,
		"isTyping": isTyping,
	})
	return nil
}

// ownMessage loads a message and enforces sender ownership.
func (s *MessageService) ownMessage(ctx context.Context, callerID, messageID primitive.ObjectID) (models.Message, error) {
	msg, err := s.messages.GetByID(ctx, messageID)
	if errors.Is(err, repositories.ErrMessageNotFound) {
		return models.Message{}, fmt.Errorf("%w: message", ErrNotFound)
	}
	if err != nil {
		return models.Message{}, err
	}
	if msg.SenderID != callerID {
		return models.Message{}, fmt.Errorf("%w: not the message sender", ErrNotAuthorized)
	}
	return msg, nil
}

// encode returns the stored content and its encoding tag. Only text
// bodies are encrypted; media references stay plain.
func (s *MessageService) encode(content, kind string) (string, string, error) {
	if kind != models.MessageText || content == "" {
		return content, models.EncodingPlain, nil
	}
	encrypted, err := s.cipher.Encrypt(content)
	if err != nil {
		return "", "", err
	}
	return encrypted, models.EncodingAESGCM, nil
}

// decode returns the plaintext for a stored message. Records without an
// encoding tag predate it and are passed through untouched.
func (s *MessageService) decode(m models.Message) string {
	if m.ContentEnc != models.EncodingAESGCM {
		return m.Content
	}
	plaintext, err := s.cipher.Decrypt(m.Content)
	if err != nil {
		log.Printf("decrypt failed for message %s: %v", m.ID.Hex(), err)
		return m.Content
	}
	return plaintext
}

func (s *MessageService) senderSummaries(ctx context.Context, msgs []models.Message) (map[primitive.ObjectID]models.UserSummary, error) {
	seen := map[primitive.ObjectID]struct{}{}
	ids := make([]primitive.ObjectID, 0, len(msgs))
	for _, m := range msgs {
		if _, ok := seen[m.SenderID]; !ok {
			seen[m.SenderID] = struct{}{}
			ids = append(ids, m.SenderID)
		}
	}
	users, err := s.users.BulkUsers(ctx, ids)
	if err != nil {
		return nil, err
	}
	summaries := make(map[primitive.ObjectID]models.UserSummary, len(users))
	for _, u := range users {
		summaries[u.ID] = u.Summary()
	}
	return summaries, nil
}

func (s *MessageService) resolveReactions(ctx context.Context, reactions []models.Reaction) ([]models.ReactionView, error) {
	if len(reactions) == 0 {
		return []models.ReactionView{}, nil
	}
	ids := make([]primitive.ObjectID, 0, len(reactions))
	for _, r := range reactions {
		ids = append(ids, r.UserID)
	}
	users, err := s.users.BulkUsers(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]models.UserSummary, len(users))
	for _, u := range users {
		byID[u.ID] = u.Summary()
	}
	views := make([]models.ReactionView, 0, len(reactions))
	for _, r := range reactions {
		views = append(views, models.ReactionView{User: byID[r.UserID], Type: r.Type})
	}
	return views, nil
}

// toggleReaction removes the (user, type) pair if present, appends otherwise.
func toggleReaction(reactions []models.Reaction, userID primitive.ObjectID, reactionType string) []models.Reaction {
	for i, r := range reactions {
		if r.UserID == userID && r.Type == reactionType {
			return append(reactions[:i:i], reactions[i+1:]...)
		}
	}
	return append(reactions, models.Reaction{UserID: userID, Type: reactionType})
}
