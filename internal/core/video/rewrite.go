package video

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"recipe-assistant/internal/core/cache"
	"recipe-assistant/internal/core/llm"
	"recipe-assistant/internal/pkg/common"
)

// QueryRewriter 將食譜名稱改寫為搜尋字串
type QueryRewriter interface {
	Rewrite(ctx context.Context, recipeName string) string
}

// TemplateQuery 固定樣板的搜尋字串
func TemplateQuery(recipeName string) string {
	return fmt.Sprintf("how to make %s recipe tutorial", recipeName)
}

// TemplateRewriter 不呼叫模型，只使用樣板
type TemplateRewriter struct{}

// Rewrite 回傳樣板字串
func (TemplateRewriter) Rewrite(_ context.Context, recipeName string) string {
	return TemplateQuery(recipeName)
}

// LLMQueryRewriter 以語言模型改寫搜尋字串，失敗時使用樣板
type LLMQueryRewriter struct {
	provider llm.Provider
	budget   common.Budget
	cache    *cache.TimedCache[string]
}

// NewLLMQueryRewriter 創建改寫器
func NewLLMQueryRewriter(provider llm.Provider, budget common.Budget, ttl time.Duration, clock common.Clock) *LLMQueryRewriter {
	if clock == nil {
		clock = common.SystemClock{}
	}
	return &LLMQueryRewriter{
		provider: provider,
		budget:   budget,
		cache:    cache.NewTimedCache[string]("query_rewrite", ttl, cache.WithClock(clock)),
	}
}

// Rewrite 改寫搜尋字串
func (r *LLMQueryRewriter) Rewrite(ctx context.Context, recipeName string) string {
	key := strings.ToLower(strings.TrimSpace(recipeName))
	if cached, ok := r.cache.Get(key); ok {
		return cached
	}

	ctx, cancel := r.budget.Within(ctx, r.budget.QueryRewrite)
	defer cancel()

	prompt := fmt.Sprintf(`Create a YouTube search query to find a cooking tutorial video for "%s".
Respond with the search query only, no quotes and no explanation.`, recipeName)

	content, err := r.provider.Generate(ctx, prompt, llm.Options{Temperature: 0.3, MaxTokens: 100})
	query := cleanQuery(content)
	if err != nil || query == "" {
		if err != nil && !errors.Is(err, common.ErrProviderDisabled) {
			common.LogDebug("搜尋字串改寫失敗，使用樣板", zap.String("recipe", recipeName), zap.Error(err))
		}
		return TemplateQuery(recipeName)
	}

	r.cache.Put(key, query)
	return query
}

func cleanQuery(content string) string {
	line := strings.TrimSpace(content)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	return strings.TrimSpace(strings.Trim(line, "\"'` "))
}
