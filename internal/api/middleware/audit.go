package middleware

import (
	"bytes"
	"io"
	log "log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const maxAuditBody = 16384

// 含密码的请求体不落日志
var sensitivePaths = map[string]struct{}{
	"/api/user/login":    {},
	"/api/user/register": {},
}

type responseBodyWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (r *responseBodyWriter) Write(b []byte) (int, error) {
	if r.body.Len() < maxAuditBody {
		r.body.Write(b)
	}
	return r.ResponseWriter.Write(b)
}

func (r *responseBodyWriter) Flush() {
	if flusher, ok := r.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func AuditMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		reqBody := auditRequestBody(c)

		rawQuery := c.Request.URL.RawQuery
		decodedQuery, err := url.QueryUnescape(rawQuery)
		if err != nil {
			decodedQuery = rawQuery
		}

		log.InfoContext(ctx, "Recv Request",
			log.String("method", c.Request.Method),
			log.String("path", c.Request.URL.Path),
			log.String("query", decodedQuery),
			log.String("req_body", reqBody),
		)

		w := &responseBodyWriter{body: &bytes.Buffer{}, ResponseWriter: c.Writer}
		c.Writer = w
		startTime := time.Now()

		c.Next()

		resBody := w.body.String()
		if _, ok := sensitivePaths[c.Request.URL.Path]; ok {
			resBody = "[redacted]"
		}

		log.InfoContext(ctx, "Send Response",
			log.Int("status", c.Writer.Status()),
			log.Duration("latency", time.Since(startTime)),
			log.String("res_body", resBody),
		)
	}
}

// auditRequestBody 读取并回填请求体，文件上传与敏感接口只记录占位符
func auditRequestBody(c *gin.Context) string {
	if c.Request.Body == nil {
		return ""
	}
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		return "[multipart]"
	}
	raw, _ := io.ReadAll(c.Request.Body)
	c.Request.Body = io.NopCloser(bytes.NewBuffer(raw))

	if _, ok := sensitivePaths[c.Request.URL.Path]; ok {
		return "[redacted]"
	}
	if len(raw) > maxAuditBody {
		return string(raw[:maxAuditBody])
	}
	return string(raw)
}
