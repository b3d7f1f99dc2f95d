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

	"chatapp/internal/mocks"
	"chatapp/internal/models"
	"chatapp/internal/repositories"
)

func setupUserRouter(userID primitive.ObjectID) (*gin.Engine, *mocks.UserRepositoryMock) {
	gin.SetMode(gin.TestMode)
	userRepo := new(mocks.UserRepositoryMock)
	handler := NewUserHandler(userRepo)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", userID)
		c.Next()
	})
	r.GET("/api/users/me", handler.Me)
	r.PATCH("/api/users/me", handler.UpdateMe)
	r.GET("/api/users/search", handler.Search)
	return r, userRepo
}

func TestMeReturnsOwnDocument(t *testing.T) {
	userID := primitive.NewObjectID()
	router, userRepo := setupUserRouter(userID)

	userRepo.On("GetByID", mock.Anything, userID).Return(models.User{ID: userID, Username: "alice"}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		User models.User `json:"user"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "alice", resp.User.Username)
}

func TestMeUnknownUserNotFound(t *testing.T) {
	userID := primitive.NewObjectID()
	router, userRepo := setupUserRouter(userID)

	userRepo.On("GetByID", mock.Anything, userID).Return(models.User{}, repositories.ErrUserNotFound).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSearchRequiresQuery(t *testing.T) {
	router, userRepo := setupUserRouter(primitive.NewObjectID())

	req := httptest.NewRequest(http.MethodGet, "/api/users/search", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	userRepo.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything)
}

func TestSearchReturnsSummaries(t *testing.T) {
	router, userRepo := setupUserRouter(primitive.NewObjectID())

	userRepo.On("Search", mock.Anything, "al", 20).Return([]models.User{
		{ID: primitive.NewObjectID(), Username: "alice", Password: "hash"},
	}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/users/search?q=al", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "hash")
	var resp struct {
		Users []models.UserSummary `json:"users"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Users, 1)
	assert.Equal(t, "alice", resp.Users[0].Username)
}

func TestUpdateMeNothingToUpdate(t *testing.T) {
	router, userRepo := setupUserRouter(primitive.NewObjectID())

	req := httptest.NewRequest(http.MethodPatch, "/api/users/me", bytes.NewBufferString(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	userRepo.AssertNotCalled(t, "UpdateProfile", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateMePatchesProfile(t *testing.T) {
	userID := primitive.NewObjectID()
	router, userRepo := setupUserRouter(userID)

	userRepo.On("UpdateProfile", mock.Anything, userID, "Alice A.", "").Return(nil).Once()
	userRepo.On("GetByID", mock.Anything, userID).Return(models.User{ID: userID, FullName: "Alice A."}, nil).Once()

	req := httptest.NewRequest(http.MethodPatch, "/api/users/me", bytes.NewBufferString(`{"full_name":"Alice A."}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	userRepo.AssertExpectations(t)
}
