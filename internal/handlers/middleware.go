package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/neurosense/assessment-service/internal/models"
	"github.com/neurosense/assessment-service/internal/services"
)

const (
	userKey      = "user"
	userIDKey    = "user_id"
	UserIDHeader = "X-User-ID"
)

// MockAuth resolves the caller from the X-User-ID header. Browsers cannot set
// headers on a WebSocket upgrade, so a user_id query parameter is accepted too.
func MockAuth(auth services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(UserIDHeader))
		if id == "" {
			id = strings.TrimSpace(c.Query("user_id"))
		}
		if id == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Authentication required",
				Details: "missing " + UserIDHeader + " header",
			})
			return
		}

		user, err := auth.CurrentUser(c.Request.Context(), id)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Authentication required",
				Details: "unknown user",
			})
			return
		}

		c.Set(userKey, user)
		c.Set(userIDKey, user.ID)
		c.Next()
	}
}

// RequireRole rejects callers without the given role.
func RequireRole(role models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Message: "Authentication required"})
			return
		}
		if user.Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
				Message: "Access denied",
				Details: map[string]interface{}{
					"reason": string(role) + " role required",
				},
			})
			return
		}
		c.Next()
	}
}
