// Package cache 程序內 TTL 快取與 Redis 第二層快取
package cache

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"recipe-assistant/internal/pkg/common"
)

// TimedCache 以插入時間計算存活期的記憶體快取
type TimedCache[V any] struct {
	name    string
	ttl     time.Duration
	maxSize int
	clock   common.Clock

	mu    sync.Mutex
	store map[string]entry[V]
	stats Stats
}

type entry[V any] struct {
	value      V
	insertedAt time.Time
}

// Stats 快取統計
type Stats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
	Size      int   `json:"size"`
}

// Option 快取選項
type Option func(*options)

type options struct {
	clock   common.Clock
	maxSize int
}

// WithClock 指定時間來源
func WithClock(clock common.Clock) Option {
	return func(o *options) { o.clock = clock }
}

// WithMaxSize 限制條目數，0 表示不限制
func WithMaxSize(n int) Option {
	return func(o *options) { o.maxSize = n }
}

// NewTimedCache 創建快取
func NewTimedCache[V any](name string, ttl time.Duration, opts ...Option) *TimedCache[V] {
	o := options{clock: common.SystemClock{}}
	for _, opt := range opts {
		opt(&o)
	}
	return &TimedCache[V]{
		name:    name,
		ttl:     ttl,
		maxSize: o.maxSize,
		clock:   o.clock,
		store:   make(map[string]entry[V]),
	}
}

// Get 取得未過期的值，過期條目會被刪除
func (c *TimedCache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.store[key]
	if !ok {
		c.stats.Misses++
		common.LogCacheMiss(c.name, key)
		return zero, false
	}

	if c.expired(e, c.clock.Now()) {
		delete(c.store, key)
		c.stats.Evictions++
		c.stats.Misses++
		common.LogCacheMiss(c.name, key)
		return zero, false
	}

	c.stats.Hits++
	common.LogCacheHit(c.name, key)
	return e.value, true
}

// Put 寫入或覆蓋，插入時間重設為目前時間
func (c *TimedCache[V]) Put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	if _, exists := c.store[key]; !exists && c.maxSize > 0 && len(c.store) >= c.maxSize {
		if c.purge(now) == 0 {
			c.evictOldest()
		}
	}
	c.store[key] = entry[V]{value: value, insertedAt: now}
}

// PutRemaining 以剩餘存活時間寫入，到期時間不晚於來源條目
func (c *TimedCache[V]) PutRemaining(key string, value V, remaining time.Duration) {
	if remaining <= 0 || remaining >= c.ttl {
		c.Put(key, value)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	if _, exists := c.store[key]; !exists && c.maxSize > 0 && len(c.store) >= c.maxSize {
		if c.purge(now) == 0 {
			c.evictOldest()
		}
	}
	c.store[key] = entry[V]{value: value, insertedAt: now.Add(remaining - c.ttl)}
}

// Delete 移除條目
func (c *TimedCache[V]) Delete(key string) {
	c.mu.Lock()
	delete(c.store, key)
	c.mu.Unlock()
}

// Len 目前條目數（包含尚未清除的過期條目）
func (c *TimedCache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.store)
}

// Stats 取得統計資訊
func (c *TimedCache[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Size = len(c.store)
	return s
}

// Purge 清除所有過期條目
func (c *TimedCache[V]) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.purge(c.clock.Now())
}

func (c *TimedCache[V]) expired(e entry[V], now time.Time) bool {
	return now.Sub(e.insertedAt) > c.ttl
}

func (c *TimedCache[V]) purge(now time.Time) int {
	count := 0
	for key, e := range c.store {
		if c.expired(e, now) {
			delete(c.store, key)
			count++
		}
	}
	c.stats.Evictions += int64(count)
	if count > 0 {
		common.LogDebug("清理過期快取",
			zap.String("類型", c.name),
			zap.Int("數量", count),
			zap.Int("剩餘", len(c.store)),
		)
	}
	return count
}

func (c *TimedCache[V]) evictOldest() {
	var oldestKey string
	var oldest time.Time
	for key, e := range c.store {
		if oldestKey == "" || e.insertedAt.Before(oldest) {
			oldestKey = key
			oldest = e.insertedAt
		}
	}
	if oldestKey != "" {
		delete(c.store, oldestKey)
		c.stats.Evictions++
	}
}
