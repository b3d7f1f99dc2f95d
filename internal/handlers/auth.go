package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"chatapp/internal/models"
	"chatapp/internal/repositories"
	"chatapp/internal/session"
	"chatapp/internal/telemetry"
)

const refreshCookie = "refresh_token"

// AuthHandler manages account registration and token issuance.
type AuthHandler struct {
	users      repositories.UserRepository
	sessions   *session.Manager
	audit      *telemetry.AuditEmitter
	refreshTTL time.Duration
}

// NewAuthHandler builds an AuthHandler.
func NewAuthHandler(users repositories.UserRepository, sessions *session.Manager, audit *telemetry.AuditEmitter, refreshTTL time.Duration) *AuthHandler {
	return &AuthHandler{users: users, sessions: sessions, audit: audit, refreshTTL: refreshTTL}
}

// Register creates an account and signs the user in.
func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required,min=3,max=32"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=8"`
		FullName string `json:"full_name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	taken, err := h.users.ExistsByUsernameOrEmail(c.Request.Context(), req.Username, req.Email)
	if err != nil {
		respondError(c, err)
		return
	}
	if taken {
		c.JSON(http.StatusConflict, gin.H{"error": "username or email already in use"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(c, err)
		return
	}

	user, err := h.users.Create(c.Request.Context(), models.User{
		Username: req.Username,
		Email:    req.Email,
		Password: string(hash),
		FullName: req.FullName,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	userHex := user.ID.Hex()
	h.audit.Emit(c.Request.Context(), "info", "auth.register", "user registered", requestIDFromContext(c), &userHex)

	h.issueTokens(c, userHex, http.StatusCreated, user.Summary())
}

// Login verifies credentials and signs the user in.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.GetByUsername(c.Request.Context(), req.Username)
	if errors.Is(err, repositories.ErrUserNotFound) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		h.audit.Emit(c.Request.Context(), "warn", "auth.login_failed", "login failed", requestIDFromContext(c), nil)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	userHex := user.ID.Hex()
	h.audit.Emit(c.Request.Context(), "info", "auth.login", "user logged in", requestIDFromContext(c), &userHex)

	h.issueTokens(c, userHex, http.StatusOK, user.Summary())
}

// Refresh rotates the refresh cookie and returns a fresh access token.
func (h *AuthHandler) Refresh(c *gin.Context) {
	token, err := c.Cookie(refreshCookie)
	if err != nil || token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing refresh token"})
		return
	}

	userHex, err := h.sessions.Validate(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}

	h.issueTokens(c, userHex, http.StatusOK, nil)
}

// Logout clears the refresh cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetCookie(refreshCookie, "", -1, "/", "", false, true)
	c.Status(http.StatusNoContent)
}

// issueTokens signs an access/refresh pair, sets the refresh cookie and
// writes the response body.
func (h *AuthHandler) issueTokens(c *gin.Context, userHex string, status int, user any) {
	access, err := h.sessions.IssueAccess(userHex)
	if err != nil {
		respondError(c, err)
		return
	}
	refresh, err := h.sessions.IssueRefresh(userHex)
	if err != nil {
		respondError(c, err)
		return
	}

	c.SetCookie(refreshCookie, refresh, int(h.refreshTTL.Seconds()), "/", "", false, true)

	body := gin.H{"access_token": access}
	if user != nil {
		body["user"] = user
	}
	c.JSON(status, body)
}
