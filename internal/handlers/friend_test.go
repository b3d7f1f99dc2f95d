package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"chatapp/internal/chat"
	"chatapp/internal/mocks"
	"chatapp/internal/models"
)

type friendHandlerDeps struct {
	userRepo    *mocks.UserRepositoryMock
	requestRepo *mocks.FriendRequestRepositoryMock
	hub         *mocks.BroadcasterMock
}

func setupFriendRouter(userID primitive.ObjectID) (*gin.Engine, friendHandlerDeps) {
	gin.SetMode(gin.TestMode)
	deps := friendHandlerDeps{
		userRepo:    new(mocks.UserRepositoryMock),
		requestRepo: new(mocks.FriendRequestRepositoryMock),
		hub:         new(mocks.BroadcasterMock),
	}
	svc := chat.NewFriendService(deps.userRepo, deps.requestRepo, deps.hub)
	handler := NewFriendHandler(svc)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", userID)
		c.Next()
	})
	r.GET("/api/friends", handler.List)
	r.DELETE("/api/friends/:friend_id", handler.Remove)
	r.GET("/api/friends/requests", handler.ListRequests)
	r.POST("/api/friends/requests", handler.SendRequest)
	r.POST("/api/friends/requests/:request_id/accept", handler.Accept)
	r.POST("/api/friends/requests/:request_id/decline", handler.Decline)
	return r, deps
}

func TestListFriendsSuccess(t *testing.T) {
	userID := primitive.NewObjectID()
	router, deps := setupFriendRouter(userID)

	friend := primitive.NewObjectID()
	deps.userRepo.On("GetByID", mock.Anything, userID).Return(models.User{
		ID:      userID,
		Friends: []primitive.ObjectID{friend},
	}, nil).Once()
	deps.userRepo.On("BulkUsers", mock.Anything, []primitive.ObjectID{friend}).Return([]models.User{{ID: friend, Username: "bob"}}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/friends", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Friends []models.UserSummary `json:"friends"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Friends, 1)
	assert.Equal(t, "bob", resp.Friends[0].Username)
}

func TestSendFriendRequestCreated(t *testing.T) {
	userID := primitive.NewObjectID()
	router, deps := setupFriendRouter(userID)

	receiver := primitive.NewObjectID()
	created := models.FriendRequest{ID: primitive.NewObjectID(), SenderID: userID, ReceiverID: receiver}

	deps.userRepo.On("GetByID", mock.Anything, receiver).Return(models.User{ID: receiver}, nil).Once()
	deps.requestRepo.On("PendingExists", mock.Anything, userID, receiver).Return(false, nil).Once()
	deps.requestRepo.On("Create", mock.Anything, userID, receiver).Return(created, nil).Once()
	deps.userRepo.On("GetByID", mock.Anything, userID).Return(models.User{ID: userID, Username: "alice"}, nil).Once()
	deps.hub.On("ToRoom", chat.UserRoom(receiver), chat.EventFriendRequestReceived, mock.Anything).Once()

	body := bytes.NewBufferString(`{"receiver_id":"` + receiver.Hex() + `"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/friends/requests", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	deps.hub.AssertExpectations(t)
}

func TestSendFriendRequestConflict(t *testing.T) {
	userID := primitive.NewObjectID()
	router, deps := setupFriendRouter(userID)

	receiver := primitive.NewObjectID()
	deps.userRepo.On("GetByID", mock.Anything, receiver).Return(models.User{ID: receiver}, nil).Once()
	deps.requestRepo.On("PendingExists", mock.Anything, userID, receiver).Return(true, nil).Once()

	body := bytes.NewBufferString(`{"receiver_id":"` + receiver.Hex() + `"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/friends/requests", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestAcceptFriendRequestNoContent(t *testing.T) {
	userID := primitive.NewObjectID()
	router, deps := setupFriendRouter(userID)

	sender := primitive.NewObjectID()
	requestID := primitive.NewObjectID()
	deps.requestRepo.On("GetByID", mock.Anything, requestID).Return(models.FriendRequest{
		ID:         requestID,
		SenderID:   sender,
		ReceiverID: userID,
		Status:     models.RequestPending,
	}, nil).Once()
	deps.requestRepo.On("SetStatus", mock.Anything, requestID, models.RequestAccepted).Return(nil).Once()
	deps.userRepo.On("AddFriend", mock.Anything, userID, sender).Return(nil).Once()
	deps.userRepo.On("AddFriend", mock.Anything, sender, userID).Return(nil).Once()
	deps.userRepo.On("GetByID", mock.Anything, userID).Return(models.User{ID: userID, Username: "bob"}, nil).Once()
	deps.hub.On("ToRoom", mock.Anything, chat.EventFriendRequestAccepted, mock.Anything).Twice()

	req := httptest.NewRequest(http.MethodPost, "/api/friends/requests/"+requestID.Hex()+"/accept", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	deps.userRepo.AssertExpectations(t)
}

func TestAcceptFriendRequestWrongReceiver(t *testing.T) {
	userID := primitive.NewObjectID()
	router, deps := setupFriendRouter(userID)

	requestID := primitive.NewObjectID()
	deps.requestRepo.On("GetByID", mock.Anything, requestID).Return(models.FriendRequest{
		ID:         requestID,
		SenderID:   primitive.NewObjectID(),
		ReceiverID: primitive.NewObjectID(),
		Status:     models.RequestPending,
	}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/friends/requests/"+requestID.Hex()+"/accept", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRemoveFriendNoContent(t *testing.T) {
	userID := primitive.NewObjectID()
	router, deps := setupFriendRouter(userID)

	friend := primitive.NewObjectID()
	deps.userRepo.On("RemoveFriend", mock.Anything, userID, friend).Return(nil).Once()
	deps.userRepo.On("RemoveFriend", mock.Anything, friend, userID).Return(nil).Once()
	deps.requestRepo.On("DeleteBetween", mock.Anything, userID, friend).Return(nil).Once()
	deps.hub.On("ToRoom", mock.Anything, chat.EventFriendRemoved, mock.Anything).Twice()

	req := httptest.NewRequest(http.MethodDelete, "/api/friends/"+friend.Hex(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestListIncomingRequests(t *testing.T) {
	userID := primitive.NewObjectID()
	router, deps := setupFriendRouter(userID)

	sender := primitive.NewObjectID()
	requestID := primitive.NewObjectID()
	deps.requestRepo.On("ListIncoming", mock.Anything, userID).Return([]models.FriendRequest{
		{ID: requestID, SenderID: sender, ReceiverID: userID, Status: models.RequestPending},
	}, nil).Once()
	deps.userRepo.On("BulkUsers", mock.Anything, []primitive.ObjectID{sender}).Return([]models.User{{ID: sender, Username: "alice"}}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/friends/requests", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Requests []models.FriendRequestView `json:"requests"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Requests, 1)
	assert.Equal(t, "alice", resp.Requests[0].Sender.Username)
}
