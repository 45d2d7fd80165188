package redis

import (
	"Alumnet/internal/api/config"
	"Alumnet/internal/pkg/logger"
	"context"
	"fmt"
	log "log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/redis/go-redis/v9/maintnotifications"
)

var Rdb *redis.Client

// InitRedis 建立连接池并挂载日志 Hook
func InitRedis(cfg config.RedisConfig) error {
	rdb := redis.NewClient(newOptions(cfg))
	rdb.AddHook(logger.NewRedisLogger(time.Duration(cfg.SlowMillis) * time.Millisecond))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}

	Rdb = rdb
	log.Info("Redis initialized successfully", "addr", cfg.Addr, "db", cfg.DB)
	return nil
}

func newOptions(cfg config.RedisConfig) *redis.Options {
	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = 10
	}
	return &redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     poolSize,
		MinIdleConns: poolSize / 4,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,

		MaintNotificationsConfig: &maintnotifications.Config{
			Mode: maintnotifications.ModeDisabled,
		},
	}
}

// Close 关闭连接池
func Close() error {
	if Rdb == nil {
		return nil
	}
	return Rdb.Close()
}
