package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"trade-chat-service/internal/clients"
)

// UserIDKey is the gin context key carrying the resolved caller id.
const UserIDKey = "userID"

// IdentityMiddleware resolves the caller from the gateway-provided header.
// Token verification happens upstream; this layer only confirms the id
// refers to an existing user.
func IdentityMiddleware(users clients.UserResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing user identity"})
			return
		}

		if _, err := users.ResolveUser(c.Request.Context(), userID); err != nil {
			if errors.Is(err, clients.ErrUserNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unknown user"})
				return
			}
			c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "failed to resolve user"})
			return
		}

		c.Set(UserIDKey, userID)
		c.Next()
	}
}
