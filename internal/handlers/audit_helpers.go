package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"campus-connect/internal/middleware"
	"campus-connect/internal/observability"
)

const requestIDContextKey = "request_id"

func requestIDFromContext(c *gin.Context) string {
	if val, ok := c.Get(requestIDContextKey); ok {
		if id, ok := val.(string); ok && id != "" {
			return id
		}
	}

	requestID := c.GetHeader(observability.HeaderRequestID)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Set(requestIDContextKey, requestID)
	return requestID
}

// userIDFromContext prefers the authenticated user and falls back to the
// X-User-ID header set by trusted gateways.
func userIDFromContext(c *gin.Context) *string {
	if id, ok := middleware.UserID(c); ok {
		return &id
	}
	if header := c.GetHeader("X-User-ID"); header != "" {
		return &header
	}
	return nil
}
