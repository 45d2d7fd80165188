package async

import (
	"context"
	"fmt"
	log "log/slog"
	"sync"
	"time"
)

const defaultTimeout = 15 * time.Second

// Runner 执行与请求解耦的后台任务，错误只记录不回传
type Runner struct {
	wg      sync.WaitGroup
	timeout time.Duration
}

func NewRunner(timeout time.Duration) *Runner {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Runner{timeout: timeout}
}

// Go 脱离调用方的取消信号，但保留 trace_id 等上下文值
func (s *Runner) Go(ctx context.Context, name string, fn func(ctx context.Context) error) {
	if ctx == nil {
		ctx = context.Background()
	}
	detached, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				log.ErrorContext(detached, "async task panicked", "task", name, "panic", fmt.Sprint(r))
			}
		}()

		start := time.Now()
		if err := fn(detached); err != nil {
			log.ErrorContext(detached, "async task failed", "task", name, "latency", time.Since(start), "err", err)
		}
	}()
}

// Wait 等待所有已提交任务结束
func (s *Runner) Wait() {
	s.wg.Wait()
}
