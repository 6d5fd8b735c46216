package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"recipe-assistant/internal/pkg/common"
)

const createRecipeTable = `CREATE TABLE IF NOT EXISTS recipe (
	id varchar(256) PRIMARY KEY,
	created_at timestamp NOT NULL DEFAULT now(),
	user_id varchar(256) NOT NULL,
	details jsonb NOT NULL,
	is_favorite boolean NOT NULL DEFAULT false
)`

const createUserIndex = `CREATE INDEX IF NOT EXISTS recipe_user_id_created_at_idx ON recipe (user_id, created_at DESC)`

// PostgresStore 以 Postgres 儲存食譜紀錄
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore 創建 Postgres 儲存
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate 建立資料表
func (s *PostgresStore) Migrate(ctx context.Context) error {
	for _, stmt := range []string{createRecipeTable, createUserIndex} {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate recipe table: %w", err)
		}
	}
	return nil
}

// Insert 新增紀錄，主鍵重複時回傳的錯誤可由 IsDuplicateKey 判斷
func (s *PostgresStore) Insert(ctx context.Context, rec Record) error {
	const q = `INSERT INTO recipe (id, user_id, details, is_favorite) VALUES ($1, $2, $3, $4)`
	if _, err := s.db.ExecContext(ctx, q, rec.ID, rec.UserID, []byte(rec.Details), rec.IsFavorite); err != nil {
		return fmt.Errorf("insert recipe %s: %w", rec.ID, err)
	}
	return nil
}

// Get 取得單筆紀錄
func (s *PostgresStore) Get(ctx context.Context, id string) (Record, error) {
	const q = `SELECT id, created_at, user_id, details, is_favorite FROM recipe WHERE id = $1`
	rec, err := scanRecord(s.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, common.ErrNotFound.Wrap(fmt.Errorf("recipe %s", id))
	}
	return rec, err
}

// ListByUser 列出使用者的紀錄，新的在前
func (s *PostgresStore) ListByUser(ctx context.Context, userID string) ([]Record, error) {
	const q = `SELECT id, created_at, user_id, details, is_favorite FROM recipe WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := s.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// SetFavorite 設定收藏狀態
func (s *PostgresStore) SetFavorite(ctx context.Context, id string, favorite bool) (Record, error) {
	const q = `UPDATE recipe SET is_favorite = $2 WHERE id = $1 RETURNING id, created_at, user_id, details, is_favorite`
	rec, err := scanRecord(s.db.QueryRowContext(ctx, q, id, favorite))
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, common.ErrNotFound.Wrap(fmt.Errorf("recipe %s", id))
	}
	return rec, err
}

// Ping 檢查連線
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (Record, error) {
	var (
		rec     Record
		details []byte
	)
	if err := row.Scan(&rec.ID, &rec.CreatedAt, &rec.UserID, &details, &rec.IsFavorite); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, err
		}
		return Record{}, fmt.Errorf("scan recipe: %w", err)
	}
	rec.Details = details
	return rec, nil
}
