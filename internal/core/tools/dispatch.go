// Package tools 模型可呼叫的工具
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"recipe-assistant/internal/core/cache"
	"recipe-assistant/internal/core/image"
	"recipe-assistant/internal/core/persist"
	"recipe-assistant/internal/core/recipe"
	"recipe-assistant/internal/core/video"
	"recipe-assistant/internal/pkg/common"
)

// RecipeSearcher 食譜搜尋
type RecipeSearcher interface {
	Search(ctx context.Context, query, cuisine, dietary string) []recipe.Summary
}

// DetailGenerator 食譜詳細內容生成
type DetailGenerator interface {
	Generate(ctx context.Context, recipeID, recipeName string) (*recipe.Detail, recipe.Outcome)
}

// DishFallback 不經外部服務的菜色圖片
type DishFallback interface {
	FallbackDishImage(dish string) string
}

// Persister 背景寫入
type Persister interface {
	Enqueue(ctx context.Context, job persist.Job) bool
}

// SearchArgs searchRecipes 參數
type SearchArgs struct {
	Query   string `json:"query"`
	Cuisine string `json:"cuisine,omitempty"`
	Dietary string `json:"dietary,omitempty"`
}

// DetailArgs getRecipeDetails 參數
type DetailArgs struct {
	RecipeID   string `json:"recipeId"`
	RecipeName string `json:"recipeName,omitempty"`
}

// VideoArgs findRecipeVideo 參數
type VideoArgs struct {
	RecipeName string `json:"recipeName"`
}

// SearchResult searchRecipes 結果
type SearchResult struct {
	Recipes []recipe.Summary `json:"recipes"`
}

// Config 工具設定
type Config struct {
	Searcher     RecipeSearcher
	Generator    DetailGenerator
	Videos       recipe.VideoFinder
	Images       DishFallback
	Persister    Persister // nil 時不寫入
	DetailCache  *cache.RedisStore[recipe.Detail]
	DetailTTL    time.Duration
	Budget       common.Budget
	Rand         common.RandSource
	Clock        common.Clock
	SingleFlight bool
}

// Dispatcher 工具分派器，結果永遠可呈現
type Dispatcher struct {
	searcher     RecipeSearcher
	generator    DetailGenerator
	videos       recipe.VideoFinder
	images       DishFallback
	persister    Persister
	details      *cache.Tiered[recipe.Detail]
	budget       common.Budget
	rand         common.RandSource
	singleFlight bool
	group        singleflight.Group
}

// NewDispatcher 創建分派器，詳細食譜快取由分派器持有
func NewDispatcher(cfg Config) *Dispatcher {
	if cfg.Clock == nil {
		cfg.Clock = common.SystemClock{}
	}
	if cfg.Rand == nil {
		cfg.Rand = common.NewRandSource(0)
	}
	if cfg.DetailTTL <= 0 {
		cfg.DetailTTL = time.Hour
	}
	if cfg.Images == nil {
		cfg.Images = image.NewResolver(image.ResolverConfig{Budget: cfg.Budget, Rand: cfg.Rand})
	}
	if cfg.Videos == nil {
		cfg.Videos = video.NewResolver(video.ResolverConfig{Budget: cfg.Budget, Rand: cfg.Rand})
	}

	local := cache.NewTimedCache[recipe.Detail]("recipe_detail", cfg.DetailTTL, cache.WithClock(cfg.Clock))
	return &Dispatcher{
		searcher:     cfg.Searcher,
		generator:    cfg.Generator,
		videos:       cfg.Videos,
		images:       cfg.Images,
		persister:    cfg.Persister,
		details:      cache.NewTiered(local, cfg.DetailCache),
		budget:       cfg.Budget,
		rand:         cfg.Rand,
		singleFlight: cfg.SingleFlight,
	}
}

// Definitions 工具描述
func (d *Dispatcher) Definitions() []Definition {
	return Definitions()
}

// Invoke 依名稱解析參數並執行工具，只有未知工具或參數錯誤會回傳錯誤
func (d *Dispatcher) Invoke(ctx context.Context, name string, rawArgs json.RawMessage, userID string) (any, error) {
	switch name {
	case SearchRecipes:
		var args SearchArgs
		if err := decodeArgs(rawArgs, &args); err != nil {
			return nil, err
		}
		if strings.TrimSpace(args.Query) == "" {
			return nil, common.ErrInvalidRequest.Wrap(fmt.Errorf("query is required"))
		}
		return d.SearchRecipes(ctx, args), nil

	case GetRecipeDetails:
		var args DetailArgs
		if err := decodeArgs(rawArgs, &args); err != nil {
			return nil, err
		}
		if strings.TrimSpace(args.RecipeID) == "" {
			return nil, common.ErrInvalidRequest.Wrap(fmt.Errorf("recipeId is required"))
		}
		return d.GetRecipeDetails(ctx, args, userID), nil

	case FindRecipeVideo:
		var args VideoArgs
		if err := decodeArgs(rawArgs, &args); err != nil {
			return nil, err
		}
		if strings.TrimSpace(args.RecipeName) == "" {
			return nil, common.ErrInvalidRequest.Wrap(fmt.Errorf("recipeName is required"))
		}
		return d.FindRecipeVideo(ctx, args), nil

	default:
		return nil, common.ErrUnknownTool.Wrap(fmt.Errorf("tool %q", name))
	}
}

func decodeArgs(raw json.RawMessage, v any) error {
	if len(strings.TrimSpace(string(raw))) == 0 {
		raw = json.RawMessage("{}")
	}
	if err := common.ParseJSONBytes(raw, v); err != nil {
		return common.ErrInvalidRequest.Wrap(err)
	}
	return nil
}

// SearchRecipes 搜尋食譜
func (d *Dispatcher) SearchRecipes(ctx context.Context, args SearchArgs) SearchResult {
	return SearchResult{Recipes: d.searcher.Search(ctx, args.Query, args.Cuisine, args.Dietary)}
}

// FindRecipeVideo 搜尋食譜影片
func (d *Dispatcher) FindRecipeVideo(ctx context.Context, args VideoArgs) video.Info {
	return d.videos.Resolve(ctx, args.RecipeName, "")
}

// GetRecipeDetails 先查快取，未命中時在工具預算內生成
func (d *Dispatcher) GetRecipeDetails(ctx context.Context, args DetailArgs, userID string) *recipe.Detail {
	id := strings.TrimSpace(args.RecipeID)
	if id == "" {
		id = "recipe_" + common.Slugify(args.RecipeName)
	}

	if cached, ok := d.details.Get(ctx, id); ok {
		common.LogCacheHit("recipe_detail", id)
		return &cached
	}
	common.LogCacheMiss("recipe_detail", id)

	if !d.singleFlight {
		return d.resolveDetail(ctx, id, args.RecipeName, userID)
	}

	// 共用的生成不跟隨任何單一呼叫端取消
	shared := context.WithoutCancel(ctx)
	ch := d.group.DoChan(id, func() (any, error) {
		return d.resolveDetail(shared, id, args.RecipeName, userID), nil
	})
	select {
	case res := <-ch:
		if res.Shared {
			common.LogDebug("共用進行中的食譜生成", zap.String("recipe_id", id))
		}
		detail := *res.Val.(*recipe.Detail)
		return &detail
	case <-ctx.Done():
		common.LogWarn("呼叫端已取消，回傳備援", zap.String("recipe_id", id), zap.Error(ctx.Err()))
		return d.Fallback(id, args.RecipeName)
	}
}

type generated struct {
	detail  *recipe.Detail
	outcome recipe.Outcome
}

// resolveDetail 生成只受工具預算限制，呼叫端取消時僅停止等待
func (d *Dispatcher) resolveDetail(ctx context.Context, id, name, userID string) *recipe.Detail {
	tctx, cancel := d.budget.Within(context.WithoutCancel(ctx), d.budget.Tool)

	done := make(chan generated, 1)
	go func() {
		defer cancel()
		detail, outcome := d.generator.Generate(tctx, id, name)
		done <- generated{detail: detail, outcome: outcome}
	}()

	var res generated
	select {
	case res = <-done:
	case <-tctx.Done():
		res = generated{outcome: recipe.TimedOut}
	case <-ctx.Done():
		common.LogWarn("呼叫端已取消，回傳備援且不寫入快取", zap.String("recipe_id", id), zap.Error(ctx.Err()))
		go d.keepAbandoned(done, id)
		return d.Fallback(id, name)
	}
	if res.outcome != recipe.Success && tctx.Err() != nil {
		common.LogWarn("取得食譜逾時，使用工具備援", zap.String("recipe_id", id), zap.Error(tctx.Err()))
		res.detail = d.Fallback(id, name)
	}
	if res.detail == nil {
		res.detail = d.Fallback(id, name)
	}

	detached := context.WithoutCancel(ctx)
	d.details.Put(detached, id, *res.detail)

	if res.outcome == recipe.Success && userID != "" && d.persister != nil {
		d.enqueue(detached, id, userID, res.detail)
	}
	return res.detail
}

// keepAbandoned 呼叫端離開後仍等待生成完成，只快取成功結果
func (d *Dispatcher) keepAbandoned(done <-chan generated, id string) {
	res := <-done
	if res.outcome != recipe.Success || res.detail == nil {
		return
	}
	d.details.Put(context.Background(), id, *res.detail)
}

func (d *Dispatcher) enqueue(ctx context.Context, id, userID string, detail *recipe.Detail) {
	payload, err := json.Marshal(detail)
	if err != nil {
		common.LogError("食譜序列化失敗", zap.String("recipe_id", id), zap.Error(err))
		return
	}
	d.persister.Enqueue(ctx, persist.Job{RecipeID: id, UserID: userID, Details: payload})
}

const toolFallbackIngredientImage = "https://images.unsplash.com/photo-1512621776951-a57141f2eefd?w=100"

// Fallback 工具層逾時時的備援食譜
func (d *Dispatcher) Fallback(id, name string) *recipe.Detail {
	display := common.CapitalizeFirst(recipe.DisplayName(id, name))
	info := video.CuisineFallback(d.rand, display, "")
	info.ChannelName = "Cooking Channel"

	return &recipe.Detail{
		ID:              id,
		Name:            display,
		Cuisine:         "Not specified",
		PrepTimeMinutes: 30,
		CookTimeMinutes: 30,
		Servings:        4,
		Difficulty:      "Medium",
		Description:     "We couldn't load the complete recipe details at this moment. This might be due to high demand or technical limitations.",
		MainImageURL:    d.images.FallbackDishImage(display),
		Ingredients: []recipe.Ingredient{
			{Name: "Ingredients not available at this time", ImageURL: toolFallbackIngredientImage},
		},
		Instructions: []string{
			"Recipe details could not be loaded.",
			"Please try again later or search for a different recipe.",
		},
		Tags:  []string{},
		Video: info,
	}
}
