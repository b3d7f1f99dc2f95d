package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"chatapp/internal/mocks"
	"chatapp/internal/models"
	"chatapp/internal/repositories"
	"chatapp/internal/session"
	"chatapp/internal/telemetry"
)

func setupAuthRouter(userRepo *mocks.UserRepositoryMock) (*gin.Engine, *session.Manager) {
	gin.SetMode(gin.TestMode)
	sessions := session.NewManager("test_secret", time.Minute, time.Hour)
	audit := telemetry.NewAuditEmitter(nil, "audit.test", "chatapp", "test")
	handler := NewAuthHandler(userRepo, sessions, audit, time.Hour)

	r := gin.New()
	r.POST("/api/auth/register", handler.Register)
	r.POST("/api/auth/login", handler.Login)
	r.POST("/api/auth/refresh", handler.Refresh)
	r.POST("/api/auth/logout", handler.Logout)
	return r, sessions
}

func TestRegisterSuccess(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	router, sessions := setupAuthRouter(userRepo)

	created := models.User{ID: primitive.NewObjectID(), Username: "alice", Email: "a@example.com"}
	userRepo.On("ExistsByUsernameOrEmail", mock.Anything, "alice", "a@example.com").Return(false, nil).Once()
	userRepo.On("Create", mock.Anything, mock.MatchedBy(func(u models.User) bool {
		return u.Username == "alice" && u.Password != "password123"
	})).Return(created, nil).Once()

	body := bytes.NewBufferString(`{"username":"alice","email":"a@example.com","password":"password123"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	token, ok := resp["access_token"].(string)
	require.True(t, ok)

	userID, err := sessions.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, created.ID.Hex(), userID)
	userRepo.AssertExpectations(t)
}

func TestRegisterUsernameTaken(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	router, _ := setupAuthRouter(userRepo)

	userRepo.On("ExistsByUsernameOrEmail", mock.Anything, "alice", "a@example.com").Return(true, nil).Once()

	body := bytes.NewBufferString(`{"username":"alice","email":"a@example.com","password":"password123"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	userRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRegisterValidation(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	router, _ := setupAuthRouter(userRepo)

	// Password below minimum length.
	body := bytes.NewBufferString(`{"username":"alice","email":"a@example.com","password":"short"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginSuccess(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	router, _ := setupAuthRouter(userRepo)

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	userRepo.On("GetByUsername", mock.Anything, "alice").Return(models.User{
		ID:       primitive.NewObjectID(),
		Username: "alice",
		Password: string(hash),
	}, nil).Once()

	body := bytes.NewBufferString(`{"username":"alice","password":"password123"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	var found bool
	for _, c := range cookies {
		if c.Name == refreshCookie && c.Value != "" {
			found = true
		}
	}
	assert.True(t, found, "refresh cookie must be set")
}

func TestLoginWrongPassword(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	router, _ := setupAuthRouter(userRepo)

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	userRepo.On("GetByUsername", mock.Anything, "alice").Return(models.User{
		ID:       primitive.NewObjectID(),
		Username: "alice",
		Password: string(hash),
	}, nil).Once()

	body := bytes.NewBufferString(`{"username":"alice","password":"wrong-password"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginUnknownUser(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	router, _ := setupAuthRouter(userRepo)

	userRepo.On("GetByUsername", mock.Anything, "ghost").Return(models.User{}, repositories.ErrUserNotFound).Once()

	body := bytes.NewBufferString(`{"username":"ghost","password":"password123"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefreshRotatesTokens(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	router, sessions := setupAuthRouter(userRepo)

	userID := primitive.NewObjectID().Hex()
	refresh, err := sessions.IssueRefresh(userID)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: refreshCookie, Value: refresh})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	token, ok := resp["access_token"].(string)
	require.True(t, ok)

	got, err := sessions.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestRefreshMissingCookie(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	router, _ := setupAuthRouter(userRepo)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutClearsCookie(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	router, _ := setupAuthRouter(userRepo)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, refreshCookie, cookies[0].Name)
	assert.Less(t, cookies[0].MaxAge, 0)
}
