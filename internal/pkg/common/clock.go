package common

import (
	"math/rand"
	"sync"
	"time"
)

// Clock 時間來源
type Clock interface {
	Now() time.Time
}

// SystemClock 使用系統時間
type SystemClock struct{}

// Now 目前時間
func (SystemClock) Now() time.Time { return time.Now() }

// ManualClock 可手動推進的時鐘
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewManualClock 以指定時間建立時鐘
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

// Now 目前時間
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance 推進時間
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// RandSource 隨機來源，用於備援池挑選
type RandSource interface {
	Intn(n int) int
}

// lockedRand 可並行使用的 math/rand 包裝
type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewRandSource 建立隨機來源，seed 為 0 時以目前時間為種子
func NewRandSource(seed int64) RandSource {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &lockedRand{r: rand.New(rand.NewSource(seed))}
}

// Intn 回傳 [0, n) 的整數
func (l *lockedRand) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}

// FixedRand 固定回傳 index mod n
type FixedRand int

// Intn 回傳固定值
func (f FixedRand) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return int(f) % n
}
