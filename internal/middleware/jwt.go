package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/registro/backend/internal/auth"
	"github.com/registro/backend/pkg/response"
)

const (
	// ContextUserID is the key for the authenticated user ID (string) in gin context.
	ContextUserID = "user_id"
	// ContextUserRole is the key for the authenticated user role in gin context.
	ContextUserRole = "user_role"
)

// JWT identifies the caller from a Bearer token. It does not authorize.
func JWT(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		scheme, token, ok := strings.Cut(c.GetHeader("Authorization"), " ")
		if !ok || scheme != "Bearer" || token == "" {
			response.Unauthorized(c, "missing or invalid authorization header")
			c.Abort()
			return
		}
		claims, err := jwtService.Validate(token)
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}
		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUserRole, claims.Role)
		c.Next()
	}
}
