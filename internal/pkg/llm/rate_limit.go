package llm

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/semaphore"
)

const (
	DefaultMaxConcurrency = 5
	defaultQueueWait      = 10 * time.Second
)

var ErrLLMBusy = errors.New("llm: too many concurrent requests")

// limiter 限制同时在途的模型请求，排队超过 wait 直接放弃
type limiter struct {
	sem  *semaphore.Weighted
	wait time.Duration
}

func newLimiter(n int64, wait time.Duration) *limiter {
	if n <= 0 {
		n = DefaultMaxConcurrency
	}
	return &limiter{sem: semaphore.NewWeighted(n), wait: wait}
}

func (l *limiter) acquire(ctx context.Context) (func(), error) {
	waitCtx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()

	if err := l.sem.Acquire(waitCtx, 1); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, ErrLLMBusy
	}
	return func() { l.sem.Release(1) }, nil
}
