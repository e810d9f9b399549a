// Package middleware provides authentication and authorization middleware for the Gin web framework.
package middleware

import (
	"context"
	"net/http"
	"time"

	"lingotext/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// Session keys for storing user information
const (
	// UserIDKey is the key used to store user ID in session
	UserIDKey = "user_id"
	// UsernameKey is the key used to store username in session
	UsernameKey = "username"
)

// UserLoader fetches a user for subscription checks
type UserLoader interface {
	GetUserByID(ctx context.Context, id int) (*models.User, error)
}

// RequireAuth returns a middleware that requires authentication
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID := session.Get(UserIDKey)

		if userID == nil {
			unauthorized(c)
			return
		}

		// Validate user_id is an integer
		userIDInt, ok := userID.(int)
		if !ok {
			// JSON numbers round-trip through sessions as float64
			if userIDFloat, ok := userID.(float64); ok {
				userIDInt = int(userIDFloat)
			} else {
				unauthorized(c)
				return
			}
		}

		username := session.Get(UsernameKey)
		if username == nil {
			unauthorized(c)
			return
		}

		usernameStr, ok := username.(string)
		if !ok || usernameStr == "" {
			unauthorized(c)
			return
		}

		// Store user info in context for handlers to use
		c.Set(UserIDKey, userIDInt)
		c.Set(UsernameKey, usernameStr)

		c.Next()
	}
}

// RequireActiveSubscription returns a middleware that rejects users whose
// subscription is not active. Must run after RequireAuth.
func RequireActiveSubscription(users UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get(UserIDKey)
		if !exists {
			unauthorized(c)
			return
		}

		user, err := users.GetUserByID(c.Request.Context(), userID.(int))
		if err != nil {
			unauthorized(c)
			return
		}

		if !user.HasActiveSubscription(time.Now()) {
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Active subscription required",
				"code":  "SUBSCRIPTION_INACTIVE",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

func unauthorized(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, gin.H{
		"error": "Authentication required",
		"code":  "UNAUTHORIZED",
	})
	c.Abort()
}

// GetUserID extracts the authenticated user ID from the gin context
func GetUserID(c *gin.Context) (int, bool) {
	userID, exists := c.Get(UserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := userID.(int)
	return id, ok
}
