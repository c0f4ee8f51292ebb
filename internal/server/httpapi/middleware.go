package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/skydrive/skydrive/internal/common"
	"github.com/skydrive/skydrive/internal/server/auth"
)

// A private key for context access
type contextKey string

const userContextKey = contextKey("user")

// AuthMiddleware verifies the bearer access token and stores the resolved
// user id on the request context.
func AuthMiddleware(secretKey []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.Request.Header.Get(common.AccessTokenHeaderName)

		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header is required"})
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		userID, err := auth.GetUserIDFromToken(tokenString, secretKey)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		ctx := context.WithValue(c.Request.Context(), userContextKey, userID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// ForContext returns the authenticated user id from the context, or "".
func ForContext(ctx context.Context) string {
	userID, _ := ctx.Value(userContextKey).(string)
	return userID
}
