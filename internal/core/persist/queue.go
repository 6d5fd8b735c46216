// Package persist 背景寫入食譜紀錄
package persist

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"recipe-assistant/internal/core/store"
	"recipe-assistant/internal/pkg/common"
)

// Job 待寫入的食譜
type Job struct {
	RecipeID string
	UserID   string
	Details  json.RawMessage

	ctx context.Context
}

// Status 隊列狀態
type Status struct {
	QueueLength    int   `json:"queue_length"`
	MaxQueueSize   int   `json:"max_queue_size"`
	Workers        int   `json:"workers"`
	ProcessedCount int64 `json:"processed_count"`
	FailedCount    int64 `json:"failed_count"`
}

// Options 隊列設定
type Options struct {
	Workers      int
	QueueSize    int
	WriteTimeout time.Duration
	Clock        common.Clock
}

// Queue 寫入工作池，請求流程不等待寫入結果
type Queue struct {
	store   store.Store
	opts    Options
	jobs    chan Job
	errs    chan error
	wg      sync.WaitGroup
	mu      sync.RWMutex
	closed  bool
	stopped chan struct{}

	processed atomic.Int64
	failed    atomic.Int64
}

// NewQueue 創建並啟動隊列
func NewQueue(st store.Store, opts Options) *Queue {
	if opts.Workers <= 0 {
		opts.Workers = 2
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 100
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 10 * time.Second
	}
	if opts.Clock == nil {
		opts.Clock = common.SystemClock{}
	}

	q := &Queue{
		store:   st,
		opts:    opts,
		jobs:    make(chan Job, opts.QueueSize),
		errs:    make(chan error, opts.QueueSize),
		stopped: make(chan struct{}),
	}
	for i := 0; i < opts.Workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}
	go func() {
		q.wg.Wait()
		close(q.errs)
		close(q.stopped)
	}()
	return q
}

// Errors 寫入失敗的錯誤，Close 完成後關閉
func (q *Queue) Errors() <-chan error {
	return q.errs
}

// Enqueue 不阻塞地加入工作，佇列已滿或已關閉時回傳 false
func (q *Queue) Enqueue(ctx context.Context, job Job) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		common.LogWarn("寫入隊列已關閉，捨棄工作", zap.String("recipe_id", job.RecipeID))
		return false
	}

	job.ctx = context.WithoutCancel(ctx)
	select {
	case q.jobs <- job:
		common.LogDebug("食譜寫入已排入隊列",
			zap.String("recipe_id", job.RecipeID),
			zap.Int("queue_length", len(q.jobs)),
		)
		return true
	default:
		q.failed.Add(1)
		q.report(common.ErrServiceUnavailable.Wrap(fmt.Errorf("persist recipe %s: queue is full", job.RecipeID)))
		return false
	}
}

// Status 取得隊列狀態
func (q *Queue) Status() Status {
	return Status{
		QueueLength:    len(q.jobs),
		MaxQueueSize:   q.opts.QueueSize,
		Workers:        q.opts.Workers,
		ProcessedCount: q.processed.Load(),
		FailedCount:    q.failed.Load(),
	}
}

// Close 停止接收並等待剩餘工作完成
func (q *Queue) Close(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	q.mu.Unlock()

	select {
	case <-q.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *Queue) worker(id int) {
	defer q.wg.Done()
	for job := range q.jobs {
		if err := q.save(job); err != nil {
			q.failed.Add(1)
			q.report(err)
			continue
		}
		q.processed.Add(1)
	}
	common.LogDebug("寫入 worker 結束", zap.Int("worker", id))
}

// save 以新 ID 寫入，主鍵衝突時以時間戳 ID 重試一次
func (q *Queue) save(job Job) error {
	ctx := job.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, q.opts.WriteTimeout)
	defer cancel()

	rec := store.Record{
		ID:      job.RecipeID + "_" + common.ShortUUID(8),
		UserID:  job.UserID,
		Details: job.Details,
	}
	err := q.store.Insert(ctx, rec)
	if err == nil {
		common.LogInfo("食譜已儲存", zap.String("id", rec.ID), zap.String("user_id", job.UserID))
		return nil
	}
	if !store.IsDuplicateKey(err) {
		return fmt.Errorf("persist recipe %s: %w", job.RecipeID, err)
	}

	rec.ID = job.RecipeID + "_" + strconv.FormatInt(q.opts.Clock.Now().UnixMilli(), 10)
	common.LogWarn("食譜主鍵衝突，改用替代 ID 重試", zap.String("id", rec.ID))
	if err := q.store.Insert(ctx, rec); err != nil {
		return common.ErrPersistenceConflict.Wrap(fmt.Errorf("persist recipe %s: %w", job.RecipeID, err))
	}
	common.LogInfo("食譜已儲存", zap.String("id", rec.ID), zap.String("user_id", job.UserID))
	return nil
}

func (q *Queue) report(err error) {
	select {
	case q.errs <- err:
	default:
		common.LogError("寫入錯誤通道已滿，捨棄錯誤", zap.Error(err))
	}
}
