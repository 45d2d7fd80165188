package mail

import (
	"Alumnet/internal/api/config"
	"Alumnet/internal/pkg/logger"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Sender 发送一封 HTML 邮件
type Sender interface {
	Send(ctx context.Context, to, subject, html string) error
}

// Client 通过 HTTP 邮件中继投递
type Client struct {
	http *resty.Client
	url  string
	from string
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

func NewClient(cfg config.MailConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := resty.New().
		SetTransport(logger.NewHTTPTransport("mail")).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")
	if cfg.ApiKey != "" {
		client.SetAuthToken(cfg.ApiKey)
	}

	return &Client{http: client, url: cfg.URL, from: cfg.From}
}

func (s *Client) Send(ctx context.Context, to, subject, html string) error {
	if to == "" {
		return errors.New("mail recipient is empty")
	}

	resp, err := s.http.R().
		SetContext(ctx).
		SetBody(&sendRequest{
			From:    s.from,
			To:      []string{to},
			Subject: subject,
			HTML:    html,
		}).
		Post(s.url)
	if err != nil {
		return fmt.Errorf("mail relay request failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("mail relay returned status %d", resp.StatusCode())
	}
	return nil
}
