package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"chatapp/internal/chat"
	"chatapp/internal/middleware"
)

// ChatHandler serves the chat lifecycle endpoints.
type ChatHandler struct {
	chats *chat.ChatService
}

// NewChatHandler builds a ChatHandler.
func NewChatHandler(chats *chat.ChatService) *ChatHandler {
	return &ChatHandler{chats: chats}
}

// Create creates a direct or group chat. Recreating an existing direct
// chat returns the existing one with 200 instead of 201.
func (h *ChatHandler) Create(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	var req struct {
		Type         string   `json:"type" binding:"required"`
		Name         string   `json:"name"`
		Participants []string `json:"participants" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	participants := make([]primitive.ObjectID, 0, len(req.Participants))
	for _, hex := range req.Participants {
		id, err := primitive.ObjectIDFromHex(hex)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid participant id"})
			return
		}
		participants = append(participants, id)
	}

	created, fresh, err := h.chats.Create(c.Request.Context(), userID, chat.CreateParams{
		Kind:         req.Type,
		Name:         req.Name,
		Participants: participants,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusOK
	if fresh {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"chat": created})
}

// List returns the caller's chats with unread counters.
func (h *ChatHandler) List(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	chats, err := h.chats.List(c.Request.Context(), userID, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"chats": chats})
}

// Details returns one chat with resolved participants.
func (h *ChatHandler) Details(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	chatID, ok := pathID(c, "chat_id")
	if !ok {
		return
	}

	details, err := h.chats.Details(c.Request.Context(), userID, chatID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"chat": details})
}

// Invite adds users to a group chat.
func (h *ChatHandler) Invite(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	chatID, ok := pathID(c, "chat_id")
	if !ok {
		return
	}

	var req struct {
		UserIDs []string `json:"user_ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	invitees := make([]primitive.ObjectID, 0, len(req.UserIDs))
	for _, hex := range req.UserIDs {
		id, err := primitive.ObjectIDFromHex(hex)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
			return
		}
		invitees = append(invitees, id)
	}

	if err := h.chats.Invite(c.Request.Context(), userID, chatID, invitees); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Delete removes a chat and its history.
func (h *ChatHandler) Delete(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	chatID, ok := pathID(c, "chat_id")
	if !ok {
		return
	}

	if err := h.chats.Delete(c.Request.Context(), userID, chatID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// MarkRead clears the caller's unread counter for the chat.
func (h *ChatHandler) MarkRead(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	chatID, ok := pathID(c, "chat_id")
	if !ok {
		return
	}

	if err := h.chats.MarkRead(c.Request.Context(), userID, chatID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
