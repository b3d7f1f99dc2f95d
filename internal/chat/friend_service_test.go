package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"chatapp/internal/mocks"
	"chatapp/internal/models"
	"chatapp/internal/repositories"
)

func TestSendRequestToSelf(t *testing.T) {
	svc := NewFriendService(new(mocks.UserRepositoryMock), new(mocks.FriendRequestRepositoryMock), new(mocks.BroadcasterMock))

	me := primitive.NewObjectID()
	_, err := svc.SendRequest(context.Background(), me, me)
	require.ErrorIs(t, err, ErrValidation)
}

func TestSendRequestUnknownReceiver(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	svc := NewFriendService(userRepo, new(mocks.FriendRequestRepositoryMock), new(mocks.BroadcasterMock))

	receiver := primitive.NewObjectID()
	userRepo.On("GetByID", mock.Anything, receiver).Return(models.User{}, repositories.ErrUserNotFound).Once()

	_, err := svc.SendRequest(context.Background(), primitive.NewObjectID(), receiver)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSendRequestDuplicatePending(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	requestRepo := new(mocks.FriendRequestRepositoryMock)
	svc := NewFriendService(userRepo, requestRepo, new(mocks.BroadcasterMock))

	sender := primitive.NewObjectID()
	receiver := primitive.NewObjectID()

	userRepo.On("GetByID", mock.Anything, receiver).Return(models.User{ID: receiver}, nil).Once()
	requestRepo.On("PendingExists", mock.Anything, sender, receiver).Return(true, nil).Once()

	_, err := svc.SendRequest(context.Background(), sender, receiver)
	require.ErrorIs(t, err, ErrConflict)
	requestRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestSendRequestNotifiesReceiver(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	requestRepo := new(mocks.FriendRequestRepositoryMock)
	hub := new(mocks.BroadcasterMock)
	svc := NewFriendService(userRepo, requestRepo, hub)

	sender := primitive.NewObjectID()
	receiver := primitive.NewObjectID()
	created := models.FriendRequest{ID: primitive.NewObjectID(), SenderID: sender, ReceiverID: receiver, Status: models.RequestPending}

	userRepo.On("GetByID", mock.Anything, receiver).Return(models.User{ID: receiver}, nil).Once()
	requestRepo.On("PendingExists", mock.Anything, sender, receiver).Return(false, nil).Once()
	requestRepo.On("Create", mock.Anything, sender, receiver).Return(created, nil).Once()
	userRepo.On("GetByID", mock.Anything, sender).Return(models.User{ID: sender, Username: "alice"}, nil).Once()
	hub.On("ToRoom", UserRoom(receiver), EventFriendRequestReceived, mock.Anything).Once()

	req, err := svc.SendRequest(context.Background(), sender, receiver)
	require.NoError(t, err)
	assert.Equal(t, created.ID, req.ID)
	hub.AssertExpectations(t)
}

func TestAcceptAddsBothFriends(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	requestRepo := new(mocks.FriendRequestRepositoryMock)
	hub := new(mocks.BroadcasterMock)
	svc := NewFriendService(userRepo, requestRepo, hub)

	sender := primitive.NewObjectID()
	receiver := primitive.NewObjectID()
	requestID := primitive.NewObjectID()

	requestRepo.On("GetByID", mock.Anything, requestID).Return(models.FriendRequest{
		ID:         requestID,
		SenderID:   sender,
		ReceiverID: receiver,
		Status:     models.RequestPending,
	}, nil).Once()
	requestRepo.On("SetStatus", mock.Anything, requestID, models.RequestAccepted).Return(nil).Once()
	userRepo.On("AddFriend", mock.Anything, receiver, sender).Return(nil).Once()
	userRepo.On("AddFriend", mock.Anything, sender, receiver).Return(nil).Once()
	userRepo.On("GetByID", mock.Anything, receiver).Return(models.User{ID: receiver, Username: "bob"}, nil).Once()
	hub.On("ToRoom", UserRoom(sender), EventFriendRequestAccepted, mock.Anything).Once()
	hub.On("ToRoom", UserRoom(receiver), EventFriendRequestAccepted, mock.Anything).Once()

	require.NoError(t, svc.Accept(context.Background(), receiver, requestID))
	userRepo.AssertExpectations(t)
	requestRepo.AssertExpectations(t)
	hub.AssertExpectations(t)
}

func TestAcceptOmitsAccepterWhenLookupFails(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	requestRepo := new(mocks.FriendRequestRepositoryMock)
	hub := new(mocks.BroadcasterMock)
	svc := NewFriendService(userRepo, requestRepo, hub)

	sender := primitive.NewObjectID()
	receiver := primitive.NewObjectID()
	requestID := primitive.NewObjectID()

	requestRepo.On("GetByID", mock.Anything, requestID).Return(models.FriendRequest{
		ID:         requestID,
		SenderID:   sender,
		ReceiverID: receiver,
		Status:     models.RequestPending,
	}, nil).Once()
	requestRepo.On("SetStatus", mock.Anything, requestID, models.RequestAccepted).Return(nil).Once()
	userRepo.On("AddFriend", mock.Anything, receiver, sender).Return(nil).Once()
	userRepo.On("AddFriend", mock.Anything, sender, receiver).Return(nil).Once()
	userRepo.On("GetByID", mock.Anything, receiver).Return(models.User{}, errors.New("lookup down")).Once()
	hub.On("ToRoom", UserRoom(sender), EventFriendRequestAccepted, mock.MatchedBy(func(data any) bool {
		payload, ok := data.(map[string]any)
		if !ok {
			return false
		}
		_, hasAccepter := payload["accepter"]
		return !hasAccepter
	})).Once()
	hub.On("ToRoom", UserRoom(receiver), EventFriendRequestAccepted, mock.Anything).Once()

	require.NoError(t, svc.Accept(context.Background(), receiver, requestID))
	hub.AssertExpectations(t)
}

func TestAcceptOnlyReceiver(t *testing.T) {
	requestRepo := new(mocks.FriendRequestRepositoryMock)
	svc := NewFriendService(new(mocks.UserRepositoryMock), requestRepo, new(mocks.BroadcasterMock))

	requestID := primitive.NewObjectID()
	requestRepo.On("GetByID", mock.Anything, requestID).Return(models.FriendRequest{
		ID:         requestID,
		SenderID:   primitive.NewObjectID(),
		ReceiverID: primitive.NewObjectID(),
		Status:     models.RequestPending,
	}, nil).Once()

	err := svc.Accept(context.Background(), primitive.NewObjectID(), requestID)
	require.ErrorIs(t, err, ErrNotAuthorized)
	requestRepo.AssertNotCalled(t, "SetStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestAcceptAlreadyResolved(t *testing.T) {
	requestRepo := new(mocks.FriendRequestRepositoryMock)
	svc := NewFriendService(new(mocks.UserRepositoryMock), requestRepo, new(mocks.BroadcasterMock))

	receiver := primitive.NewObjectID()
	requestID := primitive.NewObjectID()
	requestRepo.On("GetByID", mock.Anything, requestID).Return(models.FriendRequest{
		ID:         requestID,
		SenderID:   primitive.NewObjectID(),
		ReceiverID: receiver,
		Status:     models.RequestAccepted,
	}, nil).Once()

	err := svc.Accept(context.Background(), receiver, requestID)
	require.ErrorIs(t, err, ErrConflict)
}

func TestDeclineDeletesRequest(t *testing.T) {
	requestRepo := new(mocks.FriendRequestRepositoryMock)
	hub := new(mocks.BroadcasterMock)
	svc := NewFriendService(new(mocks.UserRepositoryMock), requestRepo, hub)

	sender := primitive.NewObjectID()
	receiver := primitive.NewObjectID()
	requestID := primitive.NewObjectID()

	requestRepo.On("GetByID", mock.Anything, requestID).Return(models.FriendRequest{
		ID:         requestID,
		SenderID:   sender,
		ReceiverID: receiver,
		Status:     models.RequestPending,
	}, nil).Once()
	requestRepo.On("Delete", mock.Anything, requestID).Return(nil).Once()
	hub.On("ToRoom", UserRoom(sender), EventFriendRequestDeclined, mock.Anything).Once()
	hub.On("ToRoom", UserRoom(receiver), EventFriendRequestDeclined, mock.Anything).Once()

	require.NoError(t, svc.Decline(context.Background(), receiver, requestID))
	requestRepo.AssertExpectations(t)
	hub.AssertExpectations(t)
}

func TestRemoveSeversBothWaysAndPurgesRequests(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	requestRepo := new(mocks.FriendRequestRepositoryMock)
	hub := new(mocks.BroadcasterMock)
	svc := NewFriendService(userRepo, requestRepo, hub)

	caller := primitive.NewObjectID()
	friend := primitive.NewObjectID()

	userRepo.On("RemoveFriend", mock.Anything, caller, friend).Return(nil).Once()
	userRepo.On("RemoveFriend", mock.Anything, friend, caller).Return(nil).Once()
	requestRepo.On("DeleteBetween", mock.Anything, caller, friend).Return(nil).Once()
	hub.On("ToRoom", UserRoom(friend), EventFriendRemoved, mock.Anything).Once()
	hub.On("ToRoom", UserRoom(caller), EventFriendRemoved, mock.Anything).Once()

	require.NoError(t, svc.Remove(context.Background(), caller, friend))
	userRepo.AssertExpectations(t)
	requestRepo.AssertExpectations(t)
	hub.AssertExpectations(t)
}

func TestFriendsResolvesSummaries(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	svc := NewFriendService(userRepo, new(mocks.FriendRequestRepositoryMock), new(mocks.BroadcasterMock))

	me := primitive.NewObjectID()
	friend := primitive.NewObjectID()

	userRepo.On("GetByID", mock.Anything, me).Return(models.User{ID: me, Friends: []primitive.ObjectID{friend}}, nil).Once()
	userRepo.On("BulkUsers", mock.Anything, []primitive.ObjectID{friend}).Return([]models.User{{ID: friend, Username: "bob"}}, nil).Once()

	friends, err := svc.Friends(context.Background(), me)
	require.NoError(t, err)
	require.Len(t, friends, 1)
	assert.Equal(t, "bob", friends[0].Username)
}

func TestIncomingRequestsResolvesSenders(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	requestRepo := new(mocks.FriendRequestRepositoryMock)
	svc := NewFriendService(userRepo, requestRepo, new(mocks.BroadcasterMock))

	me := primitive.NewObjectID()
	sender := primitive.NewObjectID()
	requestID := primitive.NewObjectID()

	requestRepo.On("ListIncoming", mock.Anything, me).Return([]models.FriendRequest{
		{ID: requestID, SenderID: sender, ReceiverID: me, Status: models.RequestPending},
	}, nil).Once()
	userRepo.On("BulkUsers", mock.Anything, []primitive.ObjectID{sender}).Return([]models.User{{ID: sender, Username: "alice"}}, nil).Once()

	views, err := svc.IncomingRequests(context.Background(), me)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, requestID, views[0].ID)
	assert.Equal(t, "alice", views[0].Sender.Username)
}
