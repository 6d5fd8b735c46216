package cache

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"recipe-assistant/internal/pkg/common"
)

// Tiered 先查記憶體再查 Redis，Redis 命中時以剩餘期限回填記憶體
type Tiered[V any] struct {
	local  *TimedCache[V]
	remote *RedisStore[V]
}

// NewTiered 創建兩層快取，remote 為 nil 時只使用記憶體
func NewTiered[V any](local *TimedCache[V], remote *RedisStore[V]) *Tiered[V] {
	return &Tiered[V]{local: local, remote: remote}
}

// Get 取得值
func (t *Tiered[V]) Get(ctx context.Context, key string) (V, bool) {
	if v, ok := t.local.Get(key); ok {
		return v, true
	}

	var zero V
	if t.remote == nil {
		return zero, false
	}

	v, err := t.remote.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrMiss) {
			common.LogWarn("Redis 快取讀取失敗", zap.String("鍵", key), zap.Error(err))
		}
		return zero, false
	}

	// 回填時沿用 Redis 的剩餘時間
	remaining, err := t.remote.TTL(ctx, key)
	if err != nil {
		common.LogWarn("Redis 快取期限讀取失敗", zap.String("鍵", key), zap.Error(err))
		return v, true
	}
	t.local.PutRemaining(key, v, remaining)
	return v, true
}

// Put 同時寫入兩層
func (t *Tiered[V]) Put(ctx context.Context, key string, value V) {
	t.local.Put(key, value)
	if t.remote == nil {
		return
	}
	if err := t.remote.Set(ctx, key, value); err != nil {
		common.LogWarn("Redis 快取寫入失敗", zap.String("鍵", key), zap.Error(err))
	}
}

// Local 記憶體層
func (t *Tiered[V]) Local() *TimedCache[V] {
	return t.local
}
