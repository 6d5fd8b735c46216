package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// ErrMiss 快取未命中
var ErrMiss = errors.New("cache miss")

// RedisStore 以 JSON 儲存值的 Redis 快取
type RedisStore[V any] struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

// NewRedisStore 創建 Redis 快取
func NewRedisStore[V any](client redis.Cmdable, prefix string, ttl time.Duration) *RedisStore[V] {
	return &RedisStore[V]{client: client, prefix: prefix, ttl: ttl}
}

// Get 獲取緩存
func (s *RedisStore[V]) Get(ctx context.Context, key string) (V, error) {
	var v V
	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return v, ErrMiss
		}
		return v, fmt.Errorf("failed to get cache: %w", err)
	}

	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("failed to unmarshal cache: %w", err)
	}
	return v, nil
}

// Set 設置緩存
func (s *RedisStore[V]) Set(ctx context.Context, key string, value V) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	if err := s.client.Set(ctx, s.prefix+key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}
	return nil
}

// TTL 剩餘存活時間，沒有設定期限時回傳負值
func (s *RedisStore[V]) TTL(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := s.client.PTTL(ctx, s.prefix+key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get cache ttl: %w", err)
	}
	return ttl, nil
}
