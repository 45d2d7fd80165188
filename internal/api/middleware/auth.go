package middleware

import (
	"Alumnet/internal/pkg/consts"
	"Alumnet/internal/pkg/logger"
	"Alumnet/internal/pkg/redis"
	"Alumnet/internal/pkg/response"
	"Alumnet/internal/pkg/security"
	log "log/slog"
	"strings"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware 负责验证 JWT 并将用户身份信息注入 Context
func AuthMiddleware(kv redis.KV) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			response.Fail(c, response.Unauthorized, "missing or malformed token")
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		signature, err := security.ExtractSignature(tokenString)
		if err != nil {
			response.Fail(c, response.Unauthorized, "missing or malformed token")
			c.Abort()
			return
		}

		value, err := kv.GetValue(c.Request.Context(), consts.TokenBlacklistKey+signature)
		if err != nil {
			log.ErrorContext(c.Request.Context(), "read token blacklist failed", "err", err)
			response.Fail(c, response.InternalServerError, "unexpected error, please retry later")
			c.Abort()
			return
		}
		if value != "" {
			response.Fail(c, response.Unauthorized, "token invalid or expired")
			c.Abort()
			return
		}

		claims, err := security.ValidateToken(tokenString)
		if err != nil {
			response.Fail(c, response.Unauthorized, "token invalid or expired")
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("name", claims.Name)
		c.Set("role", claims.Role)
		c.Set("token", tokenString)

		c.Request = c.Request.WithContext(logger.WithUserID(c.Request.Context(), claims.UserID))

		c.Next()
	}
}
