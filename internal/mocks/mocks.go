package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"chatapp/internal/models"
)

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) Create(ctx context.Context, user models.User) (models.User, error) {
	args := m.Called(ctx, user)
	var u models.User
	if val := args.Get(0); val != nil {
		u = val.(models.User)
	}
	return u, args.Error(1)
}

func (m *UserRepositoryMock) GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	args := m.Called(ctx, id)
	var u models.User
	if val := args.Get(0); val != nil {
		u = val.(models.User)
	}
	return u, args.Error(1)
}

func (m *UserRepositoryMock) GetByUsername(ctx context.Context, username string) (models.User, error) {
	args := m.Called(ctx, username)
	var u models.User
	if val := args.Get(0); val != nil {
		u = val.(models.User)
	}
	return u, args.Error(1)
}

func (m *UserRepositoryMock) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	args := m.Called(ctx, username, email)
	return args.Bool(0), args.Error(1)
}

func (m *UserRepositoryMock) BulkUsers(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	args := m.Called(ctx, ids)
	var users []models.User
	if val := args.Get(0); val != nil {
		users = val.([]models.User)
	}
	return users, args.Error(1)
}

func (m *UserRepositoryMock) Search(ctx context.Context, prefix string, limit int) ([]models.User, error) {
	args := m.Called(ctx, prefix, limit)
	var users []models.User
	if val := args.Get(0); val != nil {
		users = val.([]models.User)
	}
	return users, args.Error(1)
}

func (m *UserRepositoryMock) UpdateProfile(ctx context.Context, id primitive.ObjectID, fullName, avatar string) error {
	args := m.Called(ctx, id, fullName, avatar)
	return args.Error(0)
}

func (m *UserRepositoryMock) SetOnline(ctx context.Context, id primitive.ObjectID, online bool) error {
	args := m.Called(ctx, id, online)
	return args.Error(0)
}

func (m *UserRepositoryMock) AddFriend(ctx context.Context, userID, friendID primitive.ObjectID) error {
	args := m.Called(ctx, userID, friendID)
	return args.Error(0)
}

func (m *UserRepositoryMock) RemoveFriend(ctx context.Context, userID, friendID primitive.ObjectID) error {
	args := m.Called(ctx, userID, friendID)
	return args.Error(0)
}

func (m *UserRepositoryMock) IncrementUnread(ctx context.Context, userID, chatID primitive.ObjectID, delta int) error {
	args := m.Called(ctx, userID, chatID, delta)
	return args.Error(0)
}

func (m *UserRepositoryMock) ResetUnread(ctx context.Context, userID, chatID primitive.ObjectID) error {
	args := m.Called(ctx, userID, chatID)
	return args.Error(0)
}

type ChatRepositoryMock struct {
	mock.Mock
}

func (m *ChatRepositoryMock) Create(ctx context.Context, chat models.Chat) (models.Chat, error) {
	args := m.Called(ctx, chat)
	var c models.Chat
	if val := args.Get(0); val != nil {
		c = val.(models.Chat)
	}
	return c, args.Error(1)
}

func (m *ChatRepositoryMock) GetByID(ctx context.Context, id primitive.ObjectID) (models.Chat, error) {
	args := m.Called(ctx, id)
	var c models.Chat
	if val := args.Get(0); val != nil {
		c = val.(models.Chat)
	}
	return c, args.Error(1)
}

func (m *ChatRepositoryMock) FindDirect(ctx context.Context, a, b primitive.ObjectID) (models.Chat, error) {
	args := m.Called(ctx, a, b)
	var c models.Chat
	if val := args.Get(0); val != nil {
		c = val.(models.Chat)
	}
	return c, args.Error(1)
}

func (m *ChatRepositoryMock) ListForUser(ctx context.Context, userID primitive.ObjectID, limit, offset int) ([]models.Chat, error) {
	args := m.Called(ctx, userID, limit, offset)
	var chats []models.Chat
	if val := args.Get(0); val != nil {
		chats = val.([]models.Chat)
	}
	return chats, args.Error(1)
}

func (m *ChatRepositoryMock) ListIDsForUser(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	args := m.Called(ctx, userID)
	var ids []primitive.ObjectID
	if val := args.Get(0); val != nil {
		ids = val.([]primitive.ObjectID)
	}
	return ids, args.Error(1)
}

func (m *ChatRepositoryMock) AddParticipants(ctx context.Context, chatID primitive.ObjectID, userIDs []primitive.ObjectID) error {
	args := m.Called(ctx, chatID, userIDs)
	return args.Error(0)
}

func (m *ChatRepositoryMock) Delete(ctx context.Context, chatID primitive.ObjectID) error {
	args := m.Called(ctx, chatID)
	return args.Error(0)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) Create(ctx context.Context, msg models.Message) (models.Message, error) {
	args := m.Called(ctx, msg)
	var message models.Message
	if val := args.Get(0); val != nil {
		message = val.(models.Message)
	}
	return message, args.Error(1)
}

func (m *MessageRepositoryMock) GetByID(ctx context.Context, id primitive.ObjectID) (models.Message, error) {
	args := m.Called(ctx, id)
	var message models.Message
	if val := args.Get(0); val != nil {
		message = val.(models.Message)
	}
	return message, args.Error(1)
}

func (m *MessageRepositoryMock) ListForChat(ctx context.Context, chatID primitive.ObjectID, limit, offset int) ([]models.Message, error) {
	args := m.Called(ctx, chatID, limit, offset)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) LastMessageTime(ctx context.Context, chatID primitive.ObjectID) (*time.Time, error) {
	args := m.Called(ctx, chatID)
	var ts *time.Time
	if val := args.Get(0); val != nil {
		ts = val.(*time.Time)
	}
	return ts, args.Error(1)
}

func (m *MessageRepositoryMock) SetContent(ctx context.Context, id primitive.ObjectID, content, contentEnc string) error {
	args := m.Called(ctx, id, content, contentEnc)
	return args.Error(0)
}

func (m *MessageRepositoryMock) SoftDelete(ctx context.Context, id primitive.ObjectID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MessageRepositoryMock) SetReactions(ctx context.Context, id primitive.ObjectID, reactions []models.Reaction) error {
	args := m.Called(ctx, id, reactions)
	return args.Error(0)
}

func (m *MessageRepositoryMock) DeleteForChat(ctx context.Context, chatID primitive.ObjectID) error {
	args := m.Called(ctx, chatID)
	return args.Error(0)
}

type FriendRequestRepositoryMock struct {
	mock.Mock
}

func (m *FriendRequestRepositoryMock) Create(ctx context.Context, senderID, receiverID primitive.ObjectID) (models.FriendRequest, error) {
	args := m.Called(ctx, senderID, receiverID)
	var req models.FriendRequest
	if val := args.Get(0); val != nil {
		req = val.(models.FriendRequest)
	}
	return req, args.Error(1)
}

func (m *FriendRequestRepositoryMock) GetByID(ctx context.Context, id primitive.ObjectID) (models.FriendRequest, error) {
	args := m.Called(ctx, id)
	var req models.FriendRequest
	if val := args.Get(0); val != nil {
		req = val.(models.FriendRequest)
	}
	return req, args.Error(1)
}

func (m *FriendRequestRepositoryMock) PendingExists(ctx context.Context, senderID, receiverID primitive.ObjectID) (bool, error) {
	args := m.Called(ctx, senderID, receiverID)
	return args.Bool(0), args.Error(1)
}

func (m *FriendRequestRepositoryMock) ListIncoming(ctx context.Context, receiverID primitive.ObjectID) ([]models.FriendRequest, error) {
	args := m.Called(ctx, receiverID)
	var reqs []models.FriendRequest
	if val := args.Get(0); val != nil {
		reqs = val.([]models.FriendRequest)
	}
	return reqs, args.Error(1)
}

func (m *FriendRequestRepositoryMock) SetStatus(ctx context.Context, id primitive.ObjectID, status string) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *FriendRequestRepositoryMock) Delete(ctx context.Context, id primitive.ObjectID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *FriendRequestRepositoryMock) DeleteBetween(ctx context.Context, a, b primitive.ObjectID) error {
	args := m.Called(ctx, a, b)
	return args.Error(0)
}
