package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"campus-connect/internal/models"
)

type discoveryQuery interface {
	Discover(ctx context.Context, userID string, limit int) (models.Discovery, error)
}

// DiscoveryHandler serves the friends page buckets.
type DiscoveryHandler struct {
	discovery discoveryQuery
}

func NewDiscoveryHandler(discovery discoveryQuery) *DiscoveryHandler {
	return &DiscoveryHandler{discovery: discovery}
}

// Discover handles GET /users/:user_id/discovery.
func (h *DiscoveryHandler) Discover(c *gin.Context) {
	userID := c.Param("user_id")
	if !actingAs(c, userID) {
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid limit"})
			return
		}
		limit = parsed
	}

	result, err := h.discovery.Discover(c.Request.Context(), userID, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":          true,
		"requested":        result.Requested,
		"pending":          result.Pending,
		"notFollowingBack": result.NotFollowingBack,
		"suggestions":      result.Suggestions,
	})
}
