package logger

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"net"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRedisSlow = 100 * time.Millisecond

// RedisLoggerHook 记录 Redis 错误与慢命令
type RedisLoggerHook struct {
	slow time.Duration
}

func NewRedisLogger(slow time.Duration) *RedisLoggerHook {
	if slow <= 0 {
		slow = defaultRedisSlow
	}
	return &RedisLoggerHook{slow: slow}
}

func (s *RedisLoggerHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		start := time.Now()
		conn, err := next(ctx, network, addr)
		if err != nil {
			log.ErrorContext(ctx, "Redis Dial Error",
				log.String("addr", addr),
				log.Duration("latency", time.Since(start)),
				log.Any("err", err),
			)
		}
		return conn, err
	}
}

func (s *RedisLoggerHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmd)
		elapsed := time.Since(start)

		if err != nil && ignorableRedisErr(cmd.Name(), err) {
			return err
		}
		if err == nil && elapsed < s.slow {
			return nil
		}

		fields := []any{
			log.String("command", cmd.Name()),
			log.String("args", redactArgs(cmd)),
			log.Duration("latency", elapsed),
		}
		if err != nil {
			log.ErrorContext(ctx, "Redis Error", append(fields, log.Any("err", err))...)
		} else {
			log.WarnContext(ctx, "Redis Slow", fields...)
		}
		return err
	}
}

func (s *RedisLoggerHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmds)
		elapsed := time.Since(start)

		switch {
		case err != nil && !errors.Is(err, redis.Nil):
			log.ErrorContext(ctx, "Redis Pipeline Error",
				log.Int("cmd_count", len(cmds)),
				log.Duration("latency", elapsed),
				log.Any("err", err))
		case err == nil && elapsed >= s.slow:
			log.WarnContext(ctx, "Redis Pipeline Slow",
				log.Int("cmd_count", len(cmds)),
				log.Duration("latency", elapsed))
		}
		return err
	}
}

func ignorableRedisErr(cmdName string, err error) bool {
	if errors.Is(err, redis.Nil) {
		return true
	}
	// 旧版本服务端不支持 CLIENT SETINFO
	return cmdName == "client" && strings.Contains(err.Error(), "setinfo")
}

// redactArgs 值可能是令牌或锁 owner，只保留命令与 key
func redactArgs(cmd redis.Cmder) string {
	args := cmd.Args()
	switch name := cmd.Name(); {
	case name == "auth" || name == "hello":
		return "[PROTECTED]"
	case name == "eval" || name == "evalsha":
		if len(args) > 3 {
			return fmt.Sprint(args[:1], args[3:4])
		}
		return fmt.Sprint(args[:1])
	case len(args) > 2:
		return fmt.Sprint(args[:2])
	}
	return fmt.Sprint(args)
}
