package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"resumehub/internal/auth"
	"resumehub/internal/database"
	"resumehub/internal/errcode"
)

const currentUserKey = "currentUser"

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "code": errcode.Unauthorized})
}

// AuthMiddleware resolves the bearer token to a user and injects it into the
// request context. Missing, malformed and expired tokens all yield the same
// 401.
func AuthMiddleware(authService *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abortUnauthorized(c)
			return
		}

		parts := strings.Fields(header)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abortUnauthorized(c)
			return
		}

		rawToken := strings.TrimSpace(parts[1])
		if rawToken == "" {
			abortUnauthorized(c)
			return
		}

		user, err := authService.Authenticate(c.Request.Context(), rawToken)
		if err != nil {
			abortUnauthorized(c)
			return
		}

		c.Set(currentUserKey, user)
		c.Next()
	}
}

// CurrentUser returns the user injected by AuthMiddleware.
func CurrentUser(c *gin.Context) (*database.User, bool) {
	value, exists := c.Get(currentUserKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*database.User)
	if !ok || user == nil {
		return nil, false
	}
	return user, true
}
