package video

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"recipe-assistant/internal/core/cache"
	"recipe-assistant/internal/pkg/common"
)

var titleKeywords = []string{"recipe", "how to", "cooking", "make"}

// Score 標題含烹飪關鍵字 +10，長度 300 到 1200 秒 +5
func Score(c Candidate) int {
	score := 0
	title := strings.ToLower(c.Title)
	for _, kw := range titleKeywords {
		if strings.Contains(title, kw) {
			score += 10
			break
		}
	}
	if c.LengthSeconds >= 300 && c.LengthSeconds <= 1200 {
		score += 5
	}
	return score
}

// Rank 依分數由高到低排序，同分保留後端回傳順序
func Rank(candidates []Candidate) []Candidate {
	ranked := make([]Candidate, len(candidates))
	copy(ranked, candidates)
	sort.SliceStable(ranked, func(i, j int) bool {
		return Score(ranked[i]) > Score(ranked[j])
	})
	return ranked
}

// Resolver 影片解析器，永遠回傳可播放的影片
type Resolver struct {
	primary   Backend
	secondary Backend
	metadata  MetadataSource
	rewriter  QueryRewriter
	budget    common.Budget
	rand      common.RandSource
	cache     *cache.TimedCache[Info]
}

// ResolverConfig 解析器設定
type ResolverConfig struct {
	Primary   Backend
	Secondary Backend
	Metadata  MetadataSource
	Rewriter  QueryRewriter
	Budget    common.Budget
	Rand      common.RandSource
	Clock     common.Clock
	TTL       time.Duration
}

// NewResolver 創建影片解析器
func NewResolver(cfg ResolverConfig) *Resolver {
	if cfg.Clock == nil {
		cfg.Clock = common.SystemClock{}
	}
	if cfg.Rand == nil {
		cfg.Rand = common.NewRandSource(0)
	}
	if cfg.Rewriter == nil {
		cfg.Rewriter = TemplateRewriter{}
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Minute
	}

	return &Resolver{
		primary:   cfg.Primary,
		secondary: cfg.Secondary,
		metadata:  cfg.Metadata,
		rewriter:  cfg.Rewriter,
		budget:    cfg.Budget,
		rand:      cfg.Rand,
		cache:     cache.NewTimedCache[Info]("video_search", cfg.TTL, cache.WithClock(cfg.Clock)),
	}
}

// Resolve 解析食譜影片
func (r *Resolver) Resolve(ctx context.Context, recipeName, cuisineHint string) (info Info) {
	defer func() {
		if rec := recover(); rec != nil {
			common.LogError("影片解析發生未預期錯誤，使用料理備援",
				zap.String("recipe", recipeName),
				zap.Any("panic", rec),
			)
			info = CuisineFallback(r.rand, recipeName, cuisineHint)
		}
	}()

	query := r.rewriter.Rewrite(ctx, recipeName)
	key := strings.ToLower(query)
	if cached, ok := r.cache.Get(key); ok {
		return cached
	}

	candidates := r.search(ctx, query)
	if len(candidates) == 0 {
		common.LogInfo("影片搜尋無結果，使用可靠影片", zap.String("query", query))
		return ReliableVideo(r.rand)
	}

	best := Rank(candidates)[0]
	if !ValidID(best.ID) {
		common.LogWarn("最佳候選影片 ID 無效", zap.String("id", best.ID))
		return ReliableVideo(r.rand)
	}

	info = r.enrich(ctx, best, recipeName)
	if errors.Is(ctx.Err(), context.Canceled) {
		return info
	}
	r.cache.Put(key, info)
	return info
}

// search 主要後端無結果時以次要後端重試，結果不合併
func (r *Resolver) search(ctx context.Context, query string) []Candidate {
	for _, backend := range []Backend{r.primary, r.secondary} {
		if backend == nil || !backend.Enabled() {
			continue
		}
		out, err := r.searchBackend(ctx, backend, query)
		if err != nil {
			common.LogWarn("影片搜尋失敗",
				zap.String("backend", backend.Name()),
				zap.String("query", query),
				zap.Error(err),
			)
			continue
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

func (r *Resolver) searchBackend(ctx context.Context, backend Backend, query string) ([]Candidate, error) {
	ctx, cancel := r.budget.Within(ctx, r.budget.VideoSearch)
	defer cancel()
	return backend.Search(ctx, query)
}

// enrich 補上詳細資料，查詢失敗時保留候選資料並填入預設值
func (r *Resolver) enrich(ctx context.Context, best Candidate, recipeName string) Info {
	var meta Info
	if r.metadata != nil {
		mctx, cancel := r.budget.Within(ctx, r.budget.VideoMetadata)
		var err error
		meta, err = r.metadata.Fetch(mctx, best.ID)
		cancel()
		if err != nil {
			common.LogDebug("影片資料查詢失敗", zap.String("id", best.ID), zap.Error(err))
			meta = Info{}
		}
	}

	duration := meta.Duration
	if duration == "" && best.LengthSeconds > 0 {
		duration = FormatDuration(best.LengthSeconds)
	}

	views := meta.Views
	if views == 0 {
		views = best.Views
	}

	return Info{
		VideoID:      best.ID,
		Title:        common.FirstNonEmpty(meta.Title, best.Title, fmt.Sprintf("How to Make %s", recipeName)),
		ChannelName:  common.FirstNonEmpty(meta.ChannelName, best.Channel, "Unknown Channel"),
		ThumbnailURL: common.FirstNonEmpty(meta.ThumbnailURL, best.ThumbnailURL, ThumbnailURL(best.ID)),
		Duration:     common.FirstNonEmpty(duration, "Unknown"),
		Views:        views,
	}
}
