package service

import (
	"Alumnet/internal/model"
	"Alumnet/internal/pkg/async"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (s *recordingSender) Send(_ context.Context, to, subject, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, to+"|"+subject)
	return s.err
}

func TestNotifyUser_ResolvesRecipientInBackground(t *testing.T) {
	bob := newUser("bob", model.RoleAlumni)
	sender := &recordingSender{}
	runner := async.NewRunner(time.Second)
	svc := NewNotifyService(newFakeUserRepo(bob), sender, runner)

	ctx, cancel := context.WithCancel(context.Background())
	svc.NotifyUser(ctx, bob.ID.Hex(), "hello", "<p>hi</p>")
	// 请求结束不影响后台发送
	cancel()
	svc.NotifyUser(context.Background(), "unknown", "hello", "<p>hi</p>")
	runner.Wait()

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "bob@alumnet.test|hello", sender.sent[0])
}

func TestNotifyUser_SendFailureIsSwallowed(t *testing.T) {
	bob := newUser("bob", model.RoleAlumni)
	sender := &recordingSender{err: errors.New("relay down")}
	runner := async.NewRunner(time.Second)
	svc := NewNotifyService(newFakeUserRepo(bob), sender, runner)

	assert.NotPanics(t, func() {
		svc.NotifyUser(context.Background(), bob.ID.Hex(), "hello", "")
		runner.Wait()
	})
	assert.Len(t, sender.sent, 1)
}

func TestMailTemplates_EscapeUserInput(t *testing.T) {
	body := connectionRequestMail("<b>Eve</b>", "<script>alert(1)</script>")
	assert.Contains(t, body, "&lt;b&gt;Eve&lt;/b&gt;")
	assert.NotContains(t, body, "<script>")

	assert.NotContains(t, connectionRequestMail("Eve", ""), "blockquote")
	assert.Contains(t, requestAcceptedMail("Tom & Jerry"), "Tom &amp; Jerry")
	assert.Contains(t, pendingReminderMail("Ann"), "Ann")
}
