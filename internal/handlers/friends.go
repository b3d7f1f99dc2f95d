package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"chatapp/internal/chat"
	"chatapp/internal/middleware"
)

// FriendHandler serves the friend graph endpoints.
type FriendHandler struct {
	friends *chat.FriendService
}

// NewFriendHandler builds a FriendHandler.
func NewFriendHandler(friends *chat.FriendService) *FriendHandler {
	return &FriendHandler{friends: friends}
}

// List returns the caller's friends.
func (h *FriendHandler) List(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	friends, err := h.friends.Friends(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"friends": friends})
}

// Remove severs the friendship both ways.
func (h *FriendHandler) Remove(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	friendID, ok := pathID(c, "friend_id")
	if !ok {
		return
	}

	if err := h.friends.Remove(c.Request.Context(), userID, friendID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListRequests returns the caller's pending incoming requests.
func (h *FriendHandler) ListRequests(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	requests, err := h.friends.IncomingRequests(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

// SendRequest creates a pending friend request.
func (h *FriendHandler) SendRequest(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	var req struct {
		ReceiverID string `json:"receiver_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	receiverID, err := primitive.ObjectIDFromHex(req.ReceiverID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid receiver id"})
		return
	}

	request, err := h.friends.SendRequest(c.Request.Context(), userID, receiverID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"request_id": request.ID})
}

// Accept accepts a pending request addressed to the caller.
func (h *FriendHandler) Accept(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	requestID, ok := pathID(c, "request_id")
	if !ok {
		return
	}

	if err := h.friends.Accept(c.Request.Context(), userID, requestID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Decline rejects a pending request addressed to the caller.
func (h *FriendHandler) Decline(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	requestID, ok := pathID(c, "request_id")
	if !ok {
		return
	}

	if err := h.friends.Decline(c.Request.Context(), userID, requestID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
