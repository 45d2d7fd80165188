package service

import (
	"Alumnet/internal/pkg/async"
	"Alumnet/internal/pkg/mail"
	"Alumnet/internal/repository"
	"context"
	"fmt"
	"html"
)

// Notifier 邮件通知，发送在后台进行，失败只记录日志
type Notifier interface {
	NotifyUser(ctx context.Context, userID, subject, htmlBody string)
}

type notifyServiceImpl struct {
	userRepo repository.UserRepo
	sender   mail.Sender
	runner   *async.Runner
}

func NewNotifyService(userRepo repository.UserRepo, sender mail.Sender, runner *async.Runner) Notifier {
	return &notifyServiceImpl{
		userRepo: userRepo,
		sender:   sender,
		runner:   runner,
	}
}

// NotifyUser 立即返回，收件地址在后台解析
func (s *notifyServiceImpl) NotifyUser(ctx context.Context, userID, subject, htmlBody string) {
	s.runner.Go(ctx, "notify-user", func(ctx context.Context) error {
		user, err := s.userRepo.GetUserById(ctx, userID)
		if err != nil {
			return fmt.Errorf("resolve recipient %s: %w", userID, err)
		}
		if user == nil {
			return fmt.Errorf("recipient %s not found", userID)
		}
		return s.sender.Send(ctx, user.Email, subject, htmlBody)
	})
}

func connectionRequestMail(senderName, message string) string {
	body := fmt.Sprintf("<p><strong>%s</strong> wants to connect with you on Alumnet.</p>", html.EscapeString(senderName))
	if message != "" {
		body += fmt.Sprintf("<blockquote>%s</blockquote>", html.EscapeString(message))
	}
	return body + "<p>Open your pending requests to accept or decline.</p>"
}

func requestAcceptedMail(accepterName string) string {
	return fmt.Sprintf("<p><strong>%s</strong> accepted your connection request. You can start chatting now.</p>",
		html.EscapeString(accepterName))
}

func pendingReminderMail(senderName string) string {
	return fmt.Sprintf("<p>You still have a pending connection request from <strong>%s</strong>.</p>",
		html.EscapeString(senderName))
}
