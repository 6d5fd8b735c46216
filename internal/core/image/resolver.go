// Package image 食材與菜色圖片解析
package image

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"recipe-assistant/internal/core/cache"
	"recipe-assistant/internal/core/normalize"
	"recipe-assistant/internal/pkg/common"
)

// Source 圖片來源層級
type Source string

const (
	SourceSpoonacular      Source = "spoonacular"
	SourceDatabase         Source = "database"
	SourceAliasMatch       Source = "alias_match"
	SourcePartialMatch     Source = "partial_match"
	SourceCategoryFallback Source = "category_fallback"
	SourceGenericFallback  Source = "generic_fallback"
	SourceCuisineFallback  Source = "cuisine_fallback"
)

// IngredientImage 食材圖片結果
type IngredientImage struct {
	Ingredient string `json:"ingredient"`
	ImageURL   string `json:"imageUrl"`
	Source     Source `json:"source"`
}

// DishImage 菜色圖片結果
type DishImage struct {
	Dish     string `json:"dish"`
	Cuisine  string `json:"cuisine"`
	ImageURL string `json:"imageUrl"`
	Source   Source `json:"-"`
}

// Resolver 依層級解析圖片，永遠回傳可用的網址
type Resolver struct {
	catalog     Catalog
	categorizer normalize.Categorizer
	table       normalizedCatalog
	budget      common.Budget
	rand        common.RandSource

	ingredients *cache.TimedCache[IngredientImage]
	dishes      *cache.TimedCache[DishImage]
}

// ResolverConfig 解析器設定
type ResolverConfig struct {
	Catalog       Catalog
	Categorizer   normalize.Categorizer
	Budget        common.Budget
	Rand          common.RandSource
	Clock         common.Clock
	IngredientTTL time.Duration // 0 表示 24 小時
	DishTTL       time.Duration
}

// NewResolver 創建解析器，快取由解析器自行持有
func NewResolver(cfg ResolverConfig) *Resolver {
	if cfg.Clock == nil {
		cfg.Clock = common.SystemClock{}
	}
	if cfg.Rand == nil {
		cfg.Rand = common.NewRandSource(0)
	}
	if cfg.Categorizer.Default == "" {
		cfg.Categorizer = normalize.NewCategorizer("")
	}

	return &Resolver{
		catalog:     cfg.Catalog,
		categorizer: cfg.Categorizer,
		table:       newNormalizedCatalog(),
		budget:      cfg.Budget,
		rand:        cfg.Rand,
		ingredients: cache.NewTimedCache[IngredientImage]("ingredient_image", ttlOrDay(cfg.IngredientTTL), cache.WithClock(cfg.Clock)),
		dishes:      cache.NewTimedCache[DishImage]("dish_image", ttlOrDay(cfg.DishTTL), cache.WithClock(cfg.Clock)),
	}
}

// ResolveIngredient 解析食材圖片
func (r *Resolver) ResolveIngredient(ctx context.Context, name string) IngredientImage {
	key := normalize.Normalize(name)
	if cached, ok := r.ingredients.Get(key); ok {
		cached.Ingredient = name
		return cached
	}

	result := IngredientImage{Ingredient: name}
	if url, ok := r.lookupIngredient(ctx, name); ok {
		result.ImageURL, result.Source = url, SourceSpoonacular
	} else if url, source, ok := r.table.match(key); ok {
		result.ImageURL, result.Source = url, source
	} else if url, ok := categoryImages[r.categorizer.Categorize(key)]; ok && key != "" {
		result.ImageURL, result.Source = url, SourceCategoryFallback
	} else {
		result.ImageURL, result.Source = GenericIngredientImage, SourceGenericFallback
	}

	if result.Source != SourceSpoonacular && callerCanceled(ctx) {
		return result
	}
	r.ingredients.Put(key, result)
	return result
}

func (r *Resolver) lookupIngredient(ctx context.Context, name string) (string, bool) {
	if r.catalog == nil || strings.TrimSpace(name) == "" {
		return "", false
	}
	ctx, cancel := r.budget.Within(ctx, r.budget.ImageLookup)
	defer cancel()

	url, err := r.catalog.IngredientImage(ctx, name)
	if err != nil || !isHTTPURL(url) {
		return "", false
	}
	return url, true
}

// ResolveDish 解析菜色圖片，未指定料理時由菜名推斷
func (r *Resolver) ResolveDish(ctx context.Context, dish, cuisine string) DishImage {
	key := strings.ToLower(strings.TrimSpace(dish))
	if cached, ok := r.dishes.Get(key); ok {
		return cached
	}

	bucket := normalize.DetectDishCuisine(dish)
	if cuisine != "" {
		bucket, _ = normalize.ParseDishCuisine(cuisine)
	}

	result := DishImage{Dish: dish, Cuisine: string(bucket)}
	if url, ok := r.lookupDish(ctx, dish, cuisine); ok {
		result.ImageURL, result.Source = url, SourceSpoonacular
	} else {
		result.ImageURL, result.Source = r.pickDish(bucket), SourceCuisineFallback
	}

	if result.Source != SourceSpoonacular && callerCanceled(ctx) {
		return result
	}
	r.dishes.Put(key, result)
	return result
}

func (r *Resolver) lookupDish(ctx context.Context, dish, cuisine string) (string, bool) {
	if r.catalog == nil || strings.TrimSpace(dish) == "" {
		return "", false
	}
	ctx, cancel := r.budget.Within(ctx, r.budget.ImageLookup)
	defer cancel()

	url, err := r.catalog.DishImage(ctx, dish, cuisine)
	if err != nil {
		common.LogDebug("菜色圖片查詢失敗，改用備援", zap.String("dish", dish), zap.Error(err))
		return "", false
	}
	return url, isHTTPURL(url)
}

// FallbackDishImage 不呼叫外部服務，直接由分類圖庫挑選
func (r *Resolver) FallbackDishImage(dish string) string {
	return r.pickDish(normalize.DetectDishCuisine(dish))
}

func (r *Resolver) pickDish(bucket normalize.DishCuisine) string {
	images, ok := dishImages[bucket]
	if !ok || len(images) == 0 {
		images = dishImages[normalize.DishDefault]
	}
	return images[r.rand.Intn(len(images))]
}

// callerCanceled 呼叫端取消時的備援結果不寫入快取
func callerCanceled(ctx context.Context) bool {
	return errors.Is(ctx.Err(), context.Canceled)
}

func isHTTPURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func ttlOrDay(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return 24 * time.Hour
	}
	return ttl
}
