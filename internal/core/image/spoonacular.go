package image

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"recipe-assistant/internal/infrastructure/config"
	"recipe-assistant/internal/pkg/common"
)

const spoonacularIngredientCDN = "https://spoonacular.com/cdn/ingredients_100x100/"

// Catalog 外部圖片目錄
type Catalog interface {
	IngredientImage(ctx context.Context, name string) (string, error)
	DishImage(ctx context.Context, dish, cuisine string) (string, error)
}

// Spoonacular Spoonacular API 客戶端
type Spoonacular struct {
	apiKey string
	client *resty.Client
}

type ingredientSearchResponse struct {
	Results []struct {
		Name  string `json:"name"`
		Image string `json:"image"`
	} `json:"results"`
}

type recipeSearchResponse struct {
	Results []struct {
		Title string `json:"title"`
		Image string `json:"image"`
	} `json:"results"`
}

// NewSpoonacular 創建客戶端
func NewSpoonacular(cfg config.SpoonacularConfig) *Spoonacular {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetHeader("Accept", "application/json")
	return &Spoonacular{apiKey: cfg.APIKey, client: client}
}

// IngredientImage 查詢食材圖片
func (s *Spoonacular) IngredientImage(ctx context.Context, name string) (string, error) {
	if s.apiKey == "" {
		return "", common.ErrProviderDisabled
	}

	start := time.Now()
	var result ingredientSearchResponse
	err := s.get(ctx, "/food/ingredients/search", map[string]string{
		"query":  name,
		"number": "5",
	}, &result)
	common.LogUpstreamCall("spoonacular", "ingredient_search", time.Since(start), err)
	if err != nil {
		return "", err
	}

	if len(result.Results) == 0 || result.Results[0].Image == "" {
		return "", common.ErrNotFound
	}
	return spoonacularIngredientCDN + result.Results[0].Image, nil
}

// DishImage 查詢菜色圖片，回傳第一個有圖片的結果
func (s *Spoonacular) DishImage(ctx context.Context, dish, cuisine string) (string, error) {
	if s.apiKey == "" {
		return "", common.ErrProviderDisabled
	}

	params := map[string]string{
		"query":  dish,
		"number": strconv.Itoa(10),
	}
	if cuisine != "" {
		params["cuisine"] = cuisine
	}

	start := time.Now()
	var result recipeSearchResponse
	err := s.get(ctx, "/recipes/complexSearch", params, &result)
	common.LogUpstreamCall("spoonacular", "recipe_search", time.Since(start), err)
	if err != nil {
		return "", err
	}

	for _, r := range result.Results {
		if strings.HasPrefix(r.Image, "http") {
			return r.Image, nil
		}
	}
	return "", common.ErrNotFound
}

func (s *Spoonacular) get(ctx context.Context, path string, params map[string]string, out interface{}) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetQueryParam("apiKey", s.apiKey).
		SetResult(out).
		Get(path)
	if err != nil {
		if ctx.Err() != nil {
			return common.ErrUpstreamTimeout.Wrap(err)
		}
		return common.ErrUpstreamUnavailable.Wrap(err)
	}
	if resp.StatusCode() != http.StatusOK {
		return common.ErrUpstreamUnavailable.Wrap(fmt.Errorf("spoonacular returned %d", resp.StatusCode()))
	}
	return nil
}
