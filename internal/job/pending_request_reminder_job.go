package job

import (
	"Alumnet/internal/pkg/consts"
	"Alumnet/internal/pkg/logger"
	"Alumnet/internal/pkg/redis"
	"context"
	log "log/slog"
	"time"

	"github.com/google/uuid"
)

const (
	reminderBatch   = 200
	reminderLockTTL = 10 * time.Minute
)

// StaleRequestReminder 按批提醒未处理请求，返回本批提醒数
type StaleRequestReminder interface {
	RemindStalePending(ctx context.Context, olderThan time.Duration, batch int64) (int, error)
}

// PendingRequestReminderJob 提醒长时间未处理的连接请求
type PendingRequestReminderJob struct {
	chatService StaleRequestReminder
	kv          redis.KV
	olderThan   time.Duration
}

func NewPendingRequestReminderJob(chatService StaleRequestReminder, kv redis.KV, afterHours int) *PendingRequestReminderJob {
	if afterHours <= 0 {
		afterHours = 72
	}
	return &PendingRequestReminderJob{
		chatService: chatService,
		kv:          kv,
		olderThan:   time.Duration(afterHours) * time.Hour,
	}
}

func (s *PendingRequestReminderJob) Run() {
	traceID := "job-reminder-" + uuid.NewString()
	ctx := logger.WithTraceID(context.Background(), traceID)

	// 多实例部署时只允许一个实例执行
	locked, err := s.kv.TryLock(ctx, consts.PendingReminderLock, traceID, reminderLockTTL)
	if err != nil {
		log.ErrorContext(ctx, "PendingRequestReminderJob lock error", "err", err)
		return
	}
	if !locked {
		return
	}
	defer func() {
		_ = s.kv.UnLock(ctx, consts.PendingReminderLock, traceID)
	}()

	total := 0
	for {
		n, err := s.chatService.RemindStalePending(ctx, s.olderThan, reminderBatch)
		if err != nil {
			log.ErrorContext(ctx, "PendingRequestReminderJob failed", "err", err)
			return
		}
		total += n
		if n < reminderBatch {
			break
		}
	}

	log.InfoContext(ctx, "PendingRequestReminderJob finished", "reminded", total)
}
