package middleware

import (
	"Alumnet/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// CheckRoles 检查当前用户角色是否在允许列表中
func CheckRoles(allowed ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("role")

		for _, r := range allowed {
			if r == role {
				c.Next()
				return
			}
		}

		response.Fail(c, response.Forbidden, "permission denied")
		c.Abort()
	}
}
