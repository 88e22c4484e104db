package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/disfruleg/disfruleg-pos/internal/domain/entity"
	"github.com/disfruleg/disfruleg-pos/internal/domain/enum"
	"github.com/disfruleg/disfruleg-pos/internal/presentation/http/dto/response"
	"github.com/disfruleg/disfruleg-pos/pkg/utils"
)

const authSessionKey = "auth_session"

// AuthMiddleware creates a JWT authentication middleware
func AuthMiddleware(jwtManager *utils.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "Authorization header is required")
			c.Abort()
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			response.Unauthorized(c, "Invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := jwtManager.ValidateAccessToken(parts[1])
		if err != nil {
			response.Unauthorized(c, "Invalid or expired token")
			c.Abort()
			return
		}

		role, err := enum.ParseRole(claims.Role)
		if err != nil {
			response.Unauthorized(c, "Invalid or expired token")
			c.Abort()
			return
		}

		session := entity.AuthSession{
			SessionID: claims.SessionID,
			UserID:    claims.UserID,
			Username:  claims.Username,
			Role:      role,
			LoginAt:   claims.LoginAt,
		}
		if claims.ExpiresAt != nil {
			session.ExpiresAt = claims.ExpiresAt.Time
		}

		c.Set(authSessionKey, session)
		c.Set("user_id", claims.UserID)
		c.Next()
	}
}

// GetAuthSession returns the session set by AuthMiddleware.
func GetAuthSession(c *gin.Context) (entity.AuthSession, bool) {
	v, exists := c.Get(authSessionKey)
	if !exists {
		return entity.AuthSession{}, false
	}
	session, ok := v.(entity.AuthSession)
	return session, ok
}

// RequireRole creates a middleware that requires one of roles
func RequireRole(roles ...enum.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := GetAuthSession(c)
		if !ok {
			response.Forbidden(c, "Access denied")
			c.Abort()
			return
		}

		for _, role := range roles {
			if session.Role == role {
				c.Next()
				return
			}
		}

		response.Forbidden(c, "Insufficient role privileges")
		c.Abort()
	}
}
