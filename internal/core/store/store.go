// Package store 食譜紀錄的永久儲存
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/lib/pq"
)

// Record 已儲存的食譜紀錄，ID 與快取鍵不同
type Record struct {
	ID         string          `json:"id"`
	CreatedAt  time.Time       `json:"createdAt"`
	UserID     string          `json:"userId"`
	Details    json.RawMessage `json:"details"`
	IsFavorite bool            `json:"isFavorite"`
}

// Store 食譜紀錄儲存介面
type Store interface {
	Insert(ctx context.Context, rec Record) error
	Get(ctx context.Context, id string) (Record, error)
	ListByUser(ctx context.Context, userID string) ([]Record, error)
	SetFavorite(ctx context.Context, id string, favorite bool) (Record, error)
	Ping(ctx context.Context) error
}

// ErrDuplicateKey 主鍵重複
var ErrDuplicateKey = errors.New("duplicate key")

const uniqueViolation = "23505"

// IsDuplicateKey 判斷是否為主鍵重複錯誤
func IsDuplicateKey(err error) bool {
	if errors.Is(err, ErrDuplicateKey) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation
	}
	return false
}
