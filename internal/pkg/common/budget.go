package common

import (
	"context"
	"time"
)

// Budget 各層逾時預算，由設定建立後沿呼叫鏈往下傳遞
type Budget struct {
	Tool          time.Duration // 工具層 getRecipeDetails
	Generation    time.Duration // 食譜生成整體
	ImageLookup   time.Duration // 圖片目錄查詢
	VideoSearch   time.Duration // 影片搜尋後端
	VideoMetadata time.Duration // 影片詳細資料
	QueryRewrite  time.Duration // 搜尋字串改寫
}

// DefaultBudget 預設逾時預算
func DefaultBudget() Budget {
	return Budget{
		Tool:          45 * time.Second,
		Generation:    60 * time.Second,
		ImageLookup:   5 * time.Second,
		VideoSearch:   8 * time.Second,
		VideoMetadata: 8 * time.Second,
		QueryRewrite:  10 * time.Second,
	}
}

// Within 在父 context 的剩餘時間內再限制 limit，子期限不會晚於父期限
func (b Budget) Within(parent context.Context, limit time.Duration) (context.Context, context.CancelFunc) {
	if limit <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, limit)
}

// Remaining 父 context 剩餘時間，沒有期限時回傳 fallback
func (b Budget) Remaining(ctx context.Context, fallback time.Duration) time.Duration {
	deadline, ok := ctx.Deadline()
	if !ok {
		return fallback
	}
	if left := time.Until(deadline); left > 0 {
		return left
	}
	return 0
}
