package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"campus-connect/internal/repositories"
	"campus-connect/internal/services"
)

// ChatHandler manages private chat reads.
type ChatHandler struct {
	chatRepo    repositories.ChatRepository
	messageRepo repositories.MessageRepository
}

// NewChatHandler builds a ChatHandler.
func NewChatHandler(chatRepo repositories.ChatRepository, messageRepo repositories.MessageRepository) *ChatHandler {
	return &ChatHandler{
		chatRepo:    chatRepo,
		messageRepo: messageRepo,
	}
}

// ListChats returns the caller's chats, most recently active first.
func (h *ChatHandler) ListChats(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	chats, err := h.chatRepo.ListSummaries(c.Request.Context(), userID)
	if err != nil {
		respondError(c, fmt.Errorf("failed to load chats: %w", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "chats": chats})
}

// GetChatMessages returns a chat's messages oldest first.
func (h *ChatHandler) GetChatMessages(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	chatID := c.Param("chat_id")

	if !h.requireParticipant(c, chatID, userID) {
		return
	}

	messages, err := h.messageRepo.ListMessageViews(c.Request.Context(), chatID)
	if err != nil {
		respondError(c, fmt.Errorf("failed to load messages: %w", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "messages": messages})
}

// MarkSeen adds the caller to a message's seenBy set.
func (h *ChatHandler) MarkSeen(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	chatID := c.Param("chat_id")
	messageID := c.Param("message_id")

	if !h.requireParticipant(c, chatID, userID) {
		return
	}

	msg, err := h.messageRepo.GetMessageView(c.Request.Context(), messageID)
	if errors.Is(err, repositories.ErrMessageNotFound) {
		respondError(c, fmt.Errorf("message %s: %w", messageID, services.ErrNotFound))
		return
	}
	if err != nil {
		respondError(c, fmt.Errorf("failed to load message: %w", err))
		return
	}
	if msg.ChatID != chatID {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "message does not belong to chat"})
		return
	}

	if err := h.messageRepo.MarkSeen(c.Request.Context(), messageID, userID); err != nil {
		if errors.Is(err, repositories.ErrMessageNotFound) {
			respondError(c, fmt.Errorf("message %s: %w", messageID, services.ErrNotFound))
			return
		}
		respondError(c, fmt.Errorf("failed to mark seen: %w", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *ChatHandler) requireParticipant(c *gin.Context, chatID, userID string) bool {
	member, err := h.chatRepo.IsParticipant(c.Request.Context(), chatID, userID)
	if err != nil {
		respondError(c, fmt.Errorf("failed to check chat access: %w", err))
		return false
	}
	if !member {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "not a participant of this chat"})
		return false
	}
	return true
}

// callerID resolves the acting user for chat reads.
func callerID(c *gin.Context) (string, bool) {
	if id := userIDFromContext(c); id != nil {
		return *id, true
	}
	c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "missing user"})
	return "", false
}
