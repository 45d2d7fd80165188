package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const unlockScript = "if redis.call('get', KEYS[1]) == ARGV[1] then return redis.call('del', KEYS[1]) else return 0 end"

// KV 业务层使用的最小键值接口
type KV interface {
	GetValue(ctx context.Context, key string) (string, error)
	MGetValues(ctx context.Context, keys ...string) ([]string, error)
	SetWithExpiration(ctx context.Context, key string, value string, expiration time.Duration) error
	DeleteKey(ctx context.Context, keys ...string) error
	TryLock(ctx context.Context, key string, value string, expiration time.Duration) (bool, error)
	UnLock(ctx context.Context, key string, value string) error
}

type kvImpl struct {
	rdb *redis.Client
}

func NewKV(rdb *redis.Client) KV {
	return &kvImpl{rdb: rdb}
}

// GetValue 获取字符串类型的值，不存在时返回空串
func (s *kvImpl) GetValue(ctx context.Context, key string) (string, error) {
	value, err := s.rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", err
	}
	return value, nil
}

// MGetValues 批量获取，缺失的键对应空串
func (s *kvImpl) MGetValues(ctx context.Context, keys ...string) ([]string, error) {
	if len(keys) == 0 {
		return []string{}, nil
	}
	values, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	res := make([]string, len(values))
	for i, v := range values {
		if str, ok := v.(string); ok {
			res[i] = str
		}
	}
	return res, nil
}

// SetWithExpiration 设置键值对并设置过期时间
func (s *kvImpl) SetWithExpiration(ctx context.Context, key string, value string, expiration time.Duration) error {
	return s.rdb.Set(ctx, key, value, expiration).Err()
}

// DeleteKey 删除键
func (s *kvImpl) DeleteKey(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.rdb.Del(ctx, keys...).Err()
}

// TryLock 尝试获取锁，不重试
func (s *kvImpl) TryLock(ctx context.Context, key string, value string, expiration time.Duration) (bool, error) {
	return s.rdb.SetNX(ctx, key, value, expiration).Result()
}

// UnLock 仅释放自己持有的锁
func (s *kvImpl) UnLock(ctx context.Context, key string, value string) error {
	return s.rdb.Eval(ctx, unlockScript, []string{key}, value).Err()
}
