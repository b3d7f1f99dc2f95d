package chat

import (
	"context"
	"errors"
	"fmt"
	"log"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"chatapp/internal/models"
	"chatapp/internal/repositories"
)

// ChatService implements the chat lifecycle: create, list, details,
// invite, delete, unread reset. Both the REST handlers and the socket
// dispatcher call into it.
type ChatService struct {
	chats    repositories.ChatRepository
	messages repositories.MessageRepository
	users    repositories.UserRepository
	hub      Broadcaster
}

// NewChatService builds a ChatService.
func NewChatService(chats repositories.ChatRepository, messages repositories.MessageRepository, users repositories.UserRepository, hub Broadcaster) *ChatService {
	return &ChatService{chats: chats, messages: messages, users: users, hub: hub}
}

// CreateParams are the arguments to Create.
type CreateParams struct {
	Kind         string
	Name         string
	Participants []primitive.ObjectID
}

// Create creates a chat. Direct chats require exactly one other
// participant who is already a friend, and are idempotent on the pair:
// an existing direct chat is returned unchanged. Group chats require a
// name and at least two other participants and are always inserted.
// Fresh chats are announced to every participant's user room.
func (s *ChatService) Create(ctx context.Context, callerID primitive.ObjectID, params CreateParams) (models.Chat, bool, error) {
	participants := dedupe(params.Participants, callerID)

	switch params.Kind {
	case models.ChatDirect:
		if len(participants) != 1 {
			return models.Chat{}, false, fmt.Errorf("%w: direct chat needs exactly one other participant", ErrValidation)
		}
		other := participants[0]

		caller, err := s.users.GetByID(ctx, callerID)
		if err != nil {
			return models.Chat{}, false, err
		}
		if !caller.HasFriend(other) {
			return models.Chat{}, false, fmt.Errorf("%w: users are not friends", ErrNotAuthorized)
		}

		existing, err := s.chats.FindDirect(ctx, callerID, other)
		if err == nil {
			return existing, false, nil
		}
		if !errors.Is(err, repositories.ErrChatNotFound) {
			return models.Chat{}, false, err
		}
	case models.ChatGroup:
		if params.Name == "" {
			return models.Chat{}, false, fmt.Errorf("%w: group chat needs a name", ErrValidation)
		}
		if len(participants) < 2 {
			return models.Chat{}, false, fmt.Errorf("%w: group chat needs at least two other participants", ErrValidation)
		}
	default:
		return models.Chat{}, false, fmt.Errorf("%w: unknown chat type %q", ErrValidation, params.Kind)
	}

	chat := models.Chat{
		Kind:         params.Kind,
		Name:         params.Name,
		Participants: append(participants, callerID),
	}
	if chat.Kind == models.ChatDirect {
		chat.Name = ""
	}

	created, err := s.chats.Create(ctx, chat)
	if err != nil {
		return models.Chat{}, false, err
	}

	for _, p := range created.Participants {
		s.hub.ToRoom(UserRoom(p), EventChatCreated, map[string]any{"chatId": created.ID})
	}
	return created, true, nil
}

// List returns the caller's chats annotated with last-message time and
// the caller's unread counter, paginated via limit/offset.
func (s *ChatService) List(ctx context.Context, callerID primitive.ObjectID, limit, offset int) ([]models.ChatSummary, error) {
	limit = clampLimit(limit, 20)

	chats, err := s.chats.ListForUser(ctx, callerID, limit, offset)
	if err != nil {
		return nil, err
	}

	caller, err := s.users.GetByID(ctx, callerID)
	if err != nil {
		return nil, err
	}

	summaries := make([]models.ChatSummary, 0, len(chats))
	for _, c := range chats {
		summary := models.ChatSummary{Chat: c, UnreadCount: caller.UnreadCounts[c.ID.Hex()]}
		last, err := s.messages.LastMessageTime(ctx, c.ID)
		if err != nil {
			log.Printf("last message lookup failed for chat %s: %v", c.ID.Hex(), err)
		} else {
			summary.LastMessageTime = last
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// Details returns the chat with participant profiles resolved. The
// caller must be a participant.
func (s *ChatService) Details(ctx context.Context, callerID, chatID primitive.ObjectID) (models.ChatDetails, error) {
	c, err := s.authorizedChat(ctx, callerID, chatID)
	if err != nil {
		return models.ChatDetails{}, err
	}

	users, err := s.users.BulkUsers(ctx, c.Participants)
	if err != nil {
		return models.ChatDetails{}, err
	}
	participants := make([]models.UserSummary, 0, len(users))
	for _, u := range users {
		participants = append(participants, u.Summary())
	}

	return models.ChatDetails{
		ID:           c.ID,
		Kind:         c.Kind,
		Name:         c.Name,
		Participants: participants,
		CreatedAt:    c.CreatedAt,
	}, nil
}

// Invite adds users to a group chat and notifies each invitee's user room.
func (s *ChatService) Invite(ctx context.Context, callerID, chatID primitive.ObjectID, userIDs []primitive.ObjectID) error {
	c, err := s.authorizedChat(ctx, callerID, chatID)
	if err != nil {
		return err
	}
	if c.Kind != models.ChatGroup {
		return fmt.Errorf("%w: can only invite to group chats", ErrValidation)
	}
	invitees := dedupe(userIDs, callerID)
	if len(invitees) == 0 {
		return fmt.Errorf("%w: no users to invite", ErrValidation)
	}

	if err := s.chats.AddParticipants(ctx, chatID, invitees); err != nil {
		return err
	}
	for _, id := range invitees {
		s.hub.ToRoom(UserRoom(id), EventChatInvite, map[string]any{"chatId": chatID})
	}
	return nil
}

// Delete removes the chat and all its messages, then notifies every
// participant's user room so open chat windows can reset.
func (s *ChatService) Delete(ctx context.Context, callerID, chatID primitive.ObjectID) error {
	c, err := s.authorizedChat(ctx, callerID, chatID)
	if err != nil {
		return err
	}

	if err := s.messages.DeleteForChat(ctx, chatID); err != nil {
		return err
	}
	if err := s.chats.Delete(ctx, chatID); err != nil {
		return err
	}

	for _, p := range c.Participants {
		s.hub.ToRoom(UserRoom(p), EventChatDeleted, map[string]any{"chatId": chatID})
	}
	return nil
}

// Authorize verifies that the caller may access the chat.
func (s *ChatService) Authorize(ctx context.Context, callerID, chatID primitive.ObjectID) error {
	_, err := s.authorizedChat(ctx, callerID, chatID)
	return err
}

// ChatIDs returns the ids of every chat the user participates in. Used
// by the socket layer for room auto-join.
func (s *ChatService) ChatIDs(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	return s.chats.ListIDsForUser(ctx, userID)
}

// MarkRead clears the caller's unread counter for the chat.
func (s *ChatService) MarkRead(ctx context.Context, callerID, chatID primitive.ObjectID) error {
	if _, err := s.authorizedChat(ctx, callerID, chatID); err != nil {
		return err
	}
	return s.users.ResetUnread(ctx, callerID, chatID)
}

// authorizedChat loads the chat and enforces participancy.
func (s *ChatService) authorizedChat(ctx context.Context, callerID, chatID primitive.ObjectID) (models.Chat, error) {
	c, err := s.chats.GetByID(ctx, chatID)
	if errors.Is(err, repositories.ErrChatNotFound) {
		return models.Chat{}, fmt.Errorf("%w: chat", ErrNotFound)
	}
	if err != nil {
		return models.Chat{}, err
	}
	if !c.HasParticipant(callerID) {
		return models.Chat{}, fmt.Errorf("%w: not a chat participant", ErrNotAuthorized)
	}
	return c, nil
}

// dedupe removes duplicates and the excluded id from the list.
func dedupe(ids []primitive.ObjectID, exclude primitive.ObjectID) []primitive.ObjectID {
	seen := map[primitive.ObjectID]struct{}{exclude: {}}
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func clampLimit(limit, fallback int) int {
	if limit <= 0 || limit > 100 {
		return fallback
	}
	return limit
}
