package logger

import (
	"Alumnet/internal/api/config"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
)

// accessEntry 与 slog JSON 输出同构，便于 Logstash 统一索引
type accessEntry struct {
	Time        string `json:"time"`
	Level       string `json:"level"`
	Msg         string `json:"msg"`
	TraceID     string `json:"trace_id,omitempty"`
	UserID      string `json:"user_id,omitempty"`
	LogToken    string `json:"log_token,omitempty"`
	TargetIndex string `json:"target_index,omitempty"`
	Method      string `json:"method"`
	Path        string `json:"path"`
	Status      int    `json:"status"`
	ClientIP    string `json:"client_ip"`
	Latency     string `json:"latency"`
	Error       string `json:"error,omitempty"`
}

func SetupGin(r *gin.Engine) {
	cfg := config.Cfg.Logstash

	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Output: LogWriter,
		// 长连接不计入访问日志
		SkipPaths: []string{"/api/socket"},
		Formatter: func(p gin.LogFormatterParams) string {
			return formatAccess(p, cfg)
		},
	}))

	r.Use(gin.Recovery())
}

func formatAccess(p gin.LogFormatterParams, cfg config.LogstashConfig) string {
	level := "INFO"
	switch {
	case p.StatusCode >= 500:
		level = "ERROR"
	case p.StatusCode >= 400:
		level = "WARN"
	}

	e := accessEntry{
		Time:        p.TimeStamp.Format(time.RFC3339),
		Level:       level,
		Msg:         "GIN_ACCESS",
		TraceID:     keyString(p, TraceIDKey),
		UserID:      keyString(p, UserIDKey),
		LogToken:    cfg.Token,
		TargetIndex: cfg.Index,
		Method:      p.Method,
		Path:        p.Path,
		Status:      p.StatusCode,
		ClientIP:    p.ClientIP,
		Latency:     p.Latency.String(),
		Error:       p.ErrorMessage,
	}

	b, err := json.Marshal(&e)
	if err != nil {
		return ""
	}
	return string(b) + "\n"
}

// keyString 先查 gin Keys，再回退到 request ctx
func keyString(p gin.LogFormatterParams, key string) string {
	if p.Keys != nil {
		if v, ok := p.Keys[key].(string); ok && v != "" {
			return v
		}
	}
	if p.Request != nil {
		if v, ok := p.Request.Context().Value(key).(string); ok {
			return v
		}
	}
	return ""
}
