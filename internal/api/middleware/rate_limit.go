package middleware

import (
	"fmt"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"recipe-assistant/internal/core/cache"
	"recipe-assistant/internal/pkg/common"
)

// RateLimiter 以客戶端區分的令牌桶
type RateLimiter struct {
	mu       sync.Mutex
	clock    common.Clock
	capacity float64
	rate     float64 // 每秒補充的令牌數
	buckets  *cache.TimedCache[*bucket]
}

type bucket struct {
	tokens   float64
	lastTime time.Time
}

// NewRateLimiter 創建限流器，window 內最多 requests 次
func NewRateLimiter(requests int, window time.Duration, clock common.Clock) *RateLimiter {
	if clock == nil {
		clock = common.SystemClock{}
	}
	return &RateLimiter{
		clock:    clock,
		capacity: float64(requests),
		rate:     float64(requests) / window.Seconds(),
		// 閒置超過一個時間窗的桶已補滿，可直接丟棄
		buckets: cache.NewTimedCache[*bucket]("rate_limit", window, cache.WithClock(clock), cache.WithMaxSize(10000)),
	}
}

// Allow 檢查客戶端是否還有令牌
func (rl *RateLimiter) Allow(client string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.clock.Now()
	b, ok := rl.buckets.Get(client)
	if !ok {
		b = &bucket{tokens: rl.capacity, lastTime: now}
	}

	// 添加新令牌
	elapsed := now.Sub(b.lastTime).Seconds()
	b.tokens = math.Min(rl.capacity, b.tokens+elapsed*rl.rate)
	b.lastTime = now
	rl.buckets.Put(client, b)

	// 檢查是否有可用令牌
	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// RateLimit 限流中間件
func RateLimit(requests int, window time.Duration, clock common.Clock) gin.HandlerFunc {
	limiter := NewRateLimiter(requests, window, clock)

	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			common.LogInfo("Rate limit exceeded",
				zap.String("ip", c.ClientIP()),
				zap.String("path", c.Request.URL.Path),
			)
			c.Header("Retry-After", fmt.Sprintf("%d", int(math.Ceil(window.Seconds()))))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, common.ErrTooManyRequests.ToResponse(false))
			return
		}
		c.Next()
	}
}
