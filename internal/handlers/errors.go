package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"campus-connect/internal/middleware"
	"campus-connect/internal/services"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation), errors.Is(err, services.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrConflict), errors.Is(err, services.ErrNotFollowing):
		return http.StatusConflict
	case errors.Is(err, services.ErrUnauthorized):
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, gin.H{"success": false, "message": services.PublicMessage(err)})
}

// actingAs rejects requests whose authenticated user is none of ids.
// Unauthenticated deployments accept any id.
func actingAs(c *gin.Context, ids ...string) bool {
	authed, ok := middleware.UserID(c)
	if !ok {
		return true
	}
	for _, id := range ids {
		if id == authed {
			return true
		}
	}
	respondError(c, fmt.Errorf("acting as another user: %w", services.ErrUnauthorized))
	return false
}
