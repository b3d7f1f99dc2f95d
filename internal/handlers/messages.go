package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"chatapp/internal/chat"
	"chatapp/internal/middleware"
)

// MessageHandler serves the message endpoints.
type MessageHandler struct {
	messages *chat.MessageService
}

// NewMessageHandler builds a MessageHandler.
func NewMessageHandler(messages *chat.MessageService) *MessageHandler {
	return &MessageHandler{messages: messages}
}

// Send stores a message in the chat and broadcasts it.
func (h *MessageHandler) Send(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	chatID, ok := pathID(c, "chat_id")
	if !ok {
		return
	}

	var req struct {
		Content  string `json:"content"`
		Type     string `json:"type"`
		MediaURL string `json:"media_url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	view, err := h.messages.Send(c.Request.Context(), userID, chat.SendParams{
		ChatID:   chatID,
		Content:  req.Content,
		Kind:     req.Type,
		MediaURL: req.MediaURL,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": view})
}

// List returns one page of chat messages, oldest first.
func (h *MessageHandler) List(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	chatID, ok := pathID(c, "chat_id")
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	views, hasMore, err := h.messages.List(c.Request.Context(), userID, chatID, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": views, "has_more": hasMore})
}

// Edit replaces the content of the caller's own message.
func (h *MessageHandler) Edit(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	messageID, ok := pathID(c, "message_id")
	if !ok {
		return
	}

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.messages.Edit(c.Request.Context(), userID, messageID, req.Content); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Delete tombstones the caller's own message.
func (h *MessageHandler) Delete(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	messageID, ok := pathID(c, "message_id")
	if !ok {
		return
	}

	if err := h.messages.Delete(c.Request.Context(), userID, messageID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// React toggles the caller's reaction on a message and returns the
// updated reaction list.
func (h *MessageHandler) React(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	messageID, ok := pathID(c, "message_id")
	if !ok {
		return
	}

	var req struct {
		Type string `json:"type" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reactions, err := h.messages.React(c.Request.Context(), userID, messageID, req.Type)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reactions": reactions})
}
