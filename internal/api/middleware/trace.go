package middleware

import (
	"Alumnet/internal/pkg/logger"
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const traceHeader = "X-Trace-ID"

var traceIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// TraceMiddleware 沿用上游 trace id（兼容 X-Request-ID），不合法时重新生成
func TraceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(traceHeader)
		if traceID == "" {
			traceID = c.GetHeader("X-Request-ID")
		}
		if !traceIDPattern.MatchString(traceID) {
			traceID = uuid.New().String()
		}

		c.Set(logger.TraceIDKey, traceID)
		c.Request = c.Request.WithContext(logger.WithTraceID(c.Request.Context(), traceID))

		c.Header(traceHeader, traceID)
		c.Next()
	}
}
