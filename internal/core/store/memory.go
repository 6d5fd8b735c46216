package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"recipe-assistant/internal/pkg/common"
)

// MemoryStore 未啟用資料庫時使用的記憶體儲存
type MemoryStore struct {
	mu      sync.RWMutex
	clock   common.Clock
	records map[string]Record
}

// NewMemoryStore 創建記憶體儲存
func NewMemoryStore(clock common.Clock) *MemoryStore {
	if clock == nil {
		clock = common.SystemClock{}
	}
	return &MemoryStore{clock: clock, records: make(map[string]Record)}
}

// Insert 新增紀錄
func (s *MemoryStore) Insert(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[rec.ID]; exists {
		return fmt.Errorf("insert recipe %s: %w", rec.ID, ErrDuplicateKey)
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.clock.Now()
	}
	s.records[rec.ID] = rec
	return nil
}

// Get 取得單筆紀錄
func (s *MemoryStore) Get(_ context.Context, id string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return Record{}, common.ErrNotFound.Wrap(fmt.Errorf("recipe %s", id))
	}
	return rec, nil
}

// ListByUser 列出使用者的紀錄，新的在前
func (s *MemoryStore) ListByUser(_ context.Context, userID string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := []Record{}
	for _, rec := range s.records {
		if rec.UserID == userID {
			records = append(records, rec)
		}
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	return records, nil
}

// SetFavorite 設定收藏狀態
func (s *MemoryStore) SetFavorite(_ context.Context, id string, favorite bool) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return Record{}, common.ErrNotFound.Wrap(fmt.Errorf("recipe %s", id))
	}
	rec.IsFavorite = favorite
	s.records[id] = rec
	return rec, nil
}

// Ping 記憶體儲存永遠可用
func (s *MemoryStore) Ping(context.Context) error { return nil }
