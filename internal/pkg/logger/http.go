package logger

import (
	"bytes"
	"io"
	log "log/slog"
	"net/http"
	"time"
)

// HTTPTransport 记录外部 HTTP 调用（邮件中继、LLM）的请求与耗时
type HTTPTransport struct {
	Transport http.RoundTripper
	Name      string
}

func NewHTTPTransport(name string) *HTTPTransport {
	return &HTTPTransport{Transport: http.DefaultTransport, Name: name}
}

func (t *HTTPTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	var reqBody []byte
	if req.Body != nil {
		reqBody, _ = io.ReadAll(req.Body)
		req.Body = io.NopCloser(bytes.NewBuffer(reqBody))
	}

	next := t.Transport
	if next == nil {
		next = http.DefaultTransport
	}
	resp, err := next.RoundTrip(req)
	elapsed := time.Since(start)

	fields := []any{
		log.String("upstream", t.Name),
		log.String("method", req.Method),
		log.String("url", req.URL.Redacted()),
		log.Duration("latency", elapsed),
		log.String("req_body", truncate(string(reqBody), 1000)),
	}

	if err != nil {
		log.ErrorContext(req.Context(), "HTTP_UPSTREAM_ERROR", append(fields, log.Any("err", err))...)
		return nil, err
	}

	var resBody []byte
	if resp.Body != nil {
		resBody, _ = io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		resp.Body = io.NopCloser(bytes.NewBuffer(resBody))
	}
	fields = append(fields, log.Int("status", resp.StatusCode), log.String("res_body", truncate(string(resBody), 1000)))

	switch {
	case resp.StatusCode >= 400:
		log.WarnContext(req.Context(), "HTTP_UPSTREAM_FAILED", fields...)
	case elapsed > 2*time.Second:
		log.WarnContext(req.Context(), "HTTP_UPSTREAM_SLOW", fields...)
	default:
		log.InfoContext(req.Context(), "HTTP_UPSTREAM", fields...)
	}

	return resp, nil
}

func truncate(s string, limit int) string {
	if len(s) > limit {
		return s[:limit] + "...[truncated]"
	}
	return s
}
