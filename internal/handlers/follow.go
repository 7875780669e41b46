package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"campus-connect/internal/observability"
	"campus-connect/internal/services"
	"campus-connect/internal/telemetry"
)

type followEngine interface {
	RequestFollow(ctx context.Context, followerID, targetID string) (services.FollowResult, error)
	Unfollow(ctx context.Context, followerID, targetID string) (services.FollowResult, error)
	ApproveFollow(ctx context.Context, userID, followerID string) (services.FollowResult, error)
}

// FollowHandler exposes the follow transitions over HTTP.
type FollowHandler struct {
	follows followEngine
	audit   *telemetry.AuditEmitter
}

// NewFollowHandler builds a FollowHandler.
func NewFollowHandler(follows followEngine, audit *telemetry.AuditEmitter) *FollowHandler {
	return &FollowHandler{follows: follows, audit: audit}
}

type followRequest struct {
	FollowerID string `json:"followerId" binding:"required"`
	TargetID   string `json:"targetId" binding:"required"`
}

type approveRequest struct {
	UserID     string `json:"userId" binding:"required"`
	FollowerID string `json:"followerId" binding:"required"`
}

// RequestFollow handles POST /follows/request.
func (h *FollowHandler) RequestFollow(c *gin.Context) {
	var req followRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}
	if !actingAs(c, req.FollowerID) {
		return
	}

	result, err := h.follows.RequestFollow(h.requestContext(c), req.FollowerID, req.TargetID)
	if err != nil {
		respondError(c, err)
		return
	}

	h.emitAudit(c, "INFO", fmt.Sprintf("follow request follower=%s target=%s", req.FollowerID, req.TargetID))
	c.JSON(http.StatusOK, result)
}

// Unfollow handles POST /follows/unfollow. The target rejecting a request
// calls this with the requester as follower.
func (h *FollowHandler) Unfollow(c *gin.Context) {
	var req followRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}
	if !actingAs(c, req.FollowerID, req.TargetID) {
		return
	}

	result, err := h.follows.Unfollow(h.requestContext(c), req.FollowerID, req.TargetID)
	if err != nil {
		respondError(c, err)
		return
	}

	h.emitAudit(c, "INFO", fmt.Sprintf("unfollow follower=%s target=%s", req.FollowerID, req.TargetID))
	c.JSON(http.StatusOK, result)
}

// ApproveFollow handles POST /follows/approve.
func (h *FollowHandler) ApproveFollow(c *gin.Context) {
	var req approveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}
	if !actingAs(c, req.UserID) {
		return
	}

	result, err := h.follows.ApproveFollow(h.requestContext(c), req.UserID, req.FollowerID)
	if err != nil {
		respondError(c, err)
		return
	}

	h.emitAudit(c, "INFO", fmt.Sprintf("follow approved user=%s follower=%s chat=%s", req.UserID, req.FollowerID, result.ChatID))
	c.JSON(http.StatusOK, result)
}

func (h *FollowHandler) requestContext(c *gin.Context) context.Context {
	return observability.WithRequestID(c.Request.Context(), requestIDFromContext(c))
}

func (h *FollowHandler) emitAudit(c *gin.Context, level, text string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), userIDFromContext(c))
}
