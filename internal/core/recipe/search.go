package recipe

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"recipe-assistant/internal/core/llm"
	"recipe-assistant/internal/pkg/common"
)

// MaxSearchResults 搜尋結果上限
const MaxSearchResults = 4

// Searcher 以模型產生食譜搜尋結果
type Searcher struct {
	provider llm.Provider
	budget   common.Budget
	opts     llm.Options
}

// NewSearcher 創建搜尋器
func NewSearcher(provider llm.Provider, budget common.Budget, opts llm.Options) *Searcher {
	if provider == nil {
		provider = llm.Disabled{}
	}
	return &Searcher{provider: provider, budget: budget, opts: opts}
}

// Search 搜尋食譜，失敗時回傳固定的備援清單
func (s *Searcher) Search(ctx context.Context, query, cuisine, dietary string) []Summary {
	ctx, cancel := s.budget.Within(ctx, s.budget.Generation)
	defer cancel()

	var out struct {
		Recipes []looseSummary `json:"recipes"`
	}
	if err := llm.GenerateJSON(ctx, s.provider, buildSearchPrompt(query, cuisine, dietary), s.opts, &out); err != nil {
		common.LogWarn("食譜搜尋失敗，使用備援清單",
			zap.String("query", query),
			zap.Error(err),
		)
		return FallbackSummaries()
	}

	results := make([]Summary, 0, MaxSearchResults)
	for _, raw := range out.Recipes {
		summary := raw.toSummary()
		if summary.Name == "" {
			continue
		}
		if summary.ID == "" {
			summary.ID = "recipe_" + common.Slugify(summary.Name)
		}
		results = append(results, summary)
		if len(results) == MaxSearchResults {
			break
		}
	}
	if len(results) == 0 {
		common.LogInfo("食譜搜尋無結果，使用備援清單", zap.String("query", query))
		return FallbackSummaries()
	}
	return results
}

// FallbackSummaries 搜尋失敗時的固定結果
func FallbackSummaries() []Summary {
	return []Summary{
		{
			ID:               "recipe_default_1",
			Name:             "Quick Pasta Dish",
			Cuisine:          "Italian",
			PrepTimeMinutes:  15,
			CookTimeMinutes:  20,
			Servings:         4,
			Difficulty:       "Easy",
			ShortDescription: "A simple pasta dish you can make quickly.",
		},
		{
			ID:               "recipe_default_2",
			Name:             "Simple Salad",
			Cuisine:          "American",
			PrepTimeMinutes:  10,
			CookTimeMinutes:  0,
			Servings:         2,
			Difficulty:       "Easy",
			ShortDescription: "Fresh and healthy salad with seasonal ingredients.",
		},
	}
}

func buildSearchPrompt(query, cuisine, dietary string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate search results for recipes matching: %s", strings.TrimSpace(query))
	if c := strings.TrimSpace(cuisine); c != "" {
		fmt.Fprintf(&b, ", cuisine: %s", c)
	}
	if d := strings.TrimSpace(dietary); d != "" {
		fmt.Fprintf(&b, ", dietary restriction: %s", d)
	}
	fmt.Fprintf(&b, ". Limit to %d results.\n\n", MaxSearchResults)
	b.WriteString(`Respond with a single JSON object and nothing else:
{
  "recipes": [
    {
      "id": "recipe_<lowercase-name-with-dashes>",
      "name": "string",
      "cuisine": "string",
      "prepTimeMinutes": number,
      "cookTimeMinutes": number,
      "servings": number,
      "difficulty": "Easy | Medium | Hard",
      "shortDescription": "one sentence"
    }
  ]
}`)
	return b.String()
}
