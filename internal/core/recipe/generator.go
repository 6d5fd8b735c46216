package recipe

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"recipe-assistant/internal/core/image"
	"recipe-assistant/internal/core/llm"
	"recipe-assistant/internal/core/video"
	"recipe-assistant/internal/pkg/common"
)

// DefaultPlaceholderBaseURL 食材圖片佔位端點
const DefaultPlaceholderBaseURL = "/api/ingredient-image"

var imageURLPattern = regexp.MustCompile(`(?i)^https?://.+\.(jpg|jpeg|png|webp|gif)`)

// DishImager 菜色圖片來源
type DishImager interface {
	ResolveDish(ctx context.Context, dish, cuisine string) image.DishImage
	FallbackDishImage(dish string) string
}

// VideoFinder 影片來源
type VideoFinder interface {
	Resolve(ctx context.Context, recipeName, cuisineHint string) video.Info
}

// GeneratorConfig 生成器設定
type GeneratorConfig struct {
	Provider           llm.Provider
	Images             DishImager
	Videos             VideoFinder
	Budget             common.Budget
	Rand               common.RandSource
	PlaceholderBaseURL string
	Options            llm.Options // 零值時使用 DefaultDetailOptions
}

// DefaultDetailOptions 詳細食譜的模型參數
func DefaultDetailOptions() llm.Options {
	return llm.Options{Temperature: 0.2, MaxTokens: 800}
}

// Generator 食譜詳細內容生成器
type Generator struct {
	provider    llm.Provider
	images      DishImager
	videos      VideoFinder
	budget      common.Budget
	rand        common.RandSource
	placeholder string
	opts        llm.Options
}

type generation struct {
	detail *Detail
	err    error
}

// NewGenerator 創建生成器
func NewGenerator(cfg GeneratorConfig) *Generator {
	if cfg.Provider == nil {
		cfg.Provider = llm.Disabled{}
	}
	if cfg.Rand == nil {
		cfg.Rand = common.NewRandSource(0)
	}
	// 未指定時使用不呼叫外部服務的解析器
	if cfg.Images == nil {
		cfg.Images = image.NewResolver(image.ResolverConfig{Budget: cfg.Budget, Rand: cfg.Rand})
	}
	if cfg.Videos == nil {
		cfg.Videos = video.NewResolver(video.ResolverConfig{Budget: cfg.Budget, Rand: cfg.Rand})
	}
	if cfg.PlaceholderBaseURL == "" {
		cfg.PlaceholderBaseURL = DefaultPlaceholderBaseURL
	}
	if cfg.Options == (llm.Options{}) {
		cfg.Options = DefaultDetailOptions()
	}
	return &Generator{
		provider:    cfg.Provider,
		images:      cfg.Images,
		videos:      cfg.Videos,
		budget:      cfg.Budget,
		rand:        cfg.Rand,
		placeholder: cfg.PlaceholderBaseURL,
		opts:        cfg.Options,
	}
}

// DisplayName 未提供名稱時由 ID 推導，recipe_spaghetti-carbonara -> spaghetti carbonara
func DisplayName(recipeID, recipeName string) string {
	if name := strings.TrimSpace(recipeName); name != "" {
		return name
	}
	name := strings.TrimPrefix(strings.TrimSpace(recipeID), "recipe_")
	return strings.TrimSpace(strings.ReplaceAll(name, "-", " "))
}

// Generate 在生成預算內產生食譜，逾時或失敗時回傳備援食譜
func (g *Generator) Generate(ctx context.Context, recipeID, recipeName string) (*Detail, Outcome) {
	name := DisplayName(recipeID, recipeName)

	gctx, cancel := g.budget.Within(ctx, g.budget.Generation)
	defer cancel()

	done := make(chan generation, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- generation{err: fmt.Errorf("recipe generation panic: %v", rec)}
			}
		}()
		detail, err := g.generate(gctx, recipeID, name)
		done <- generation{detail: detail, err: err}
	}()

	select {
	case res := <-done:
		if res.err == nil {
			return res.detail, Success
		}
		if errors.Is(gctx.Err(), context.DeadlineExceeded) {
			common.LogWarn("食譜生成逾時，使用備援食譜", zap.String("recipe_id", recipeID))
			return g.Fallback(recipeID, name), TimedOut
		}
		common.LogWarn("食譜生成失敗，使用備援食譜",
			zap.String("recipe_id", recipeID),
			zap.Error(res.err),
		)
		return g.Fallback(recipeID, name), Failed
	case <-gctx.Done():
		common.LogWarn("食譜生成逾時，使用備援食譜",
			zap.String("recipe_id", recipeID),
			zap.Error(gctx.Err()),
		)
		return g.Fallback(recipeID, name), TimedOut
	}
}

func (g *Generator) generate(ctx context.Context, recipeID, name string) (*Detail, error) {
	var raw looseDetail
	if err := llm.GenerateJSON(ctx, g.provider, buildDetailPrompt(name), g.opts, &raw); err != nil {
		return nil, err
	}

	detail := raw.toDetail()
	if len(detail.Ingredients) == 0 || len(detail.Instructions) == 0 {
		return nil, common.ErrGenerationFailed.Wrap(fmt.Errorf("recipe without ingredients or instructions"))
	}
	detail.ID = common.FirstNonEmpty(recipeID, detail.ID, "recipe_"+common.Slugify(name))
	detail.Name = common.FirstNonEmpty(detail.Name, common.CapitalizeFirst(name))

	videoCh := make(chan video.Info, 1)
	go func() {
		videoCh <- g.videos.Resolve(ctx, detail.Name, detail.Cuisine)
	}()

	detail.MainImageURL = g.images.ResolveDish(ctx, detail.Name, detail.Cuisine).ImageURL

	for i := range detail.Ingredients {
		if NeedsPlaceholder(detail.Ingredients[i].ImageURL) {
			detail.Ingredients[i].ImageURL = PlaceholderURL(g.placeholder, detail.Ingredients[i].Name)
		}
	}

	select {
	case info := <-videoCh:
		detail.Video = info
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return detail, nil
}

// NeedsPlaceholder 圖片網址缺漏、為佔位圖或副檔名不符時回傳 true
func NeedsPlaceholder(imageURL string) bool {
	imageURL = strings.TrimSpace(imageURL)
	if imageURL == "" || strings.Contains(strings.ToLower(imageURL), "placeholder") {
		return true
	}
	return !imageURLPattern.MatchString(imageURL)
}

// PlaceholderURL 指向食材圖片端點的參考網址
func PlaceholderURL(base, ingredient string) string {
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + "ingredient=" + url.QueryEscape(ingredient)
}

const (
	fallbackMainIngredientImage  = "https://images.unsplash.com/photo-1512621776951-a57141f2eefd?w=100&h=100&fit=crop&auto=format&q=80"
	fallbackOtherIngredientImage = "https://images.unsplash.com/photo-1506976785307-8732e854ad03?w=100&h=100&fit=crop&auto=format&q=80"
)

// Fallback 生成失敗時的固定結構食譜
func (g *Generator) Fallback(recipeID, name string) *Detail {
	display := common.CapitalizeFirst(name)
	return &Detail{
		ID:              recipeID,
		Name:            display,
		Cuisine:         "Mixed",
		PrepTimeMinutes: 30,
		CookTimeMinutes: 30,
		Servings:        4,
		Difficulty:      "Medium",
		Description:     fmt.Sprintf("Recipe for %s. Error loading complete details due to service limitations.", name),
		MainImageURL:    g.images.FallbackDishImage(name),
		Ingredients: []Ingredient{
			{Name: "main ingredient", Quantity: "1", Unit: "portion", ImageURL: fallbackMainIngredientImage},
			{Name: "other ingredients", Quantity: "as needed", ImageURL: fallbackOtherIngredientImage},
		},
		Instructions: []string{
			"Sorry, we couldn't load the complete recipe instructions at this time.",
			"Please try again later or search for a different recipe.",
		},
		Tags:  []string{"recipe"},
		Video: video.CuisineFallback(g.rand, display, ""),
	}
}

func buildDetailPrompt(name string) string {
	return fmt.Sprintf(`Generate a detailed recipe for "%s".

Respond with a single JSON object and nothing else:
{
  "id": "recipe_<lowercase-name-with-dashes>",
  "name": "string",
  "cuisine": "string",
  "prepTimeMinutes": number,
  "cookTimeMinutes": number,
  "servings": number,
  "difficulty": "Easy | Medium | Hard",
  "description": "string",
  "mainImageUrl": "string",
  "ingredients": [
    {"name": "specific ingredient name", "quantity": "string", "unit": "string", "imageUrl": "string"}
  ],
  "instructions": ["step 1", "step 2"],
  "nutritionFacts": {"calories": number, "protein": "string", "carbs": "string", "fat": "string"},
  "tags": ["string"]
}

Use specific ingredient names such as "extra virgin olive oil" rather than "oil".`, name)
}
