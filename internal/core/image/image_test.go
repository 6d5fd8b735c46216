package image

import (
	"context"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"recipe-assistant/internal/core/normalize"
	"recipe-assistant/internal/infrastructure/config"
	"recipe-assistant/internal/pkg/common"
)

var httpURL = regexp.MustCompile(`^https?://`)

// MockCatalog 可控制的外部圖片目錄
type MockCatalog struct {
	Ingredient string
	Dish       string
	Err        error
	Calls      atomic.Int32
}

func (m *MockCatalog) IngredientImage(ctx context.Context, _ string) (string, error) {
	m.Calls.Add(1)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return m.Ingredient, m.Err
}

func (m *MockCatalog) DishImage(ctx context.Context, _, _ string) (string, error) {
	m.Calls.Add(1)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return m.Dish, m.Err
}

func newTestResolver(catalog Catalog, clock common.Clock, defaultCategory string) *Resolver {
	return NewResolver(ResolverConfig{
		Catalog:     catalog,
		Categorizer: normalize.NewCategorizer(defaultCategory),
		Budget:      common.DefaultBudget(),
		Rand:        common.FixedRand(0),
		Clock:       clock,
	})
}

func TestResolveIngredientTiers(t *testing.T) {
	r := newTestResolver(&MockCatalog{Err: common.ErrUpstreamUnavailable}, nil, "other")
	ctx := context.Background()

	tests := []struct {
		name   string
		input  string
		source Source
	}{
		{"Exact key", "2 cups Onion", SourceDatabase},
		{"Exact alias", "EVOO", SourceAliasMatch},
		{"Normalized alias", "2 cups all-purpose flour", SourceAliasMatch},
		{"Partial key", "chicken drumsticks", SourcePartialMatch},
		{"Category", "kale", SourceCategoryFallback},
		{"Generic", "xanthan gum", SourceGenericFallback},
		{"Empty", "", SourceGenericFallback},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.ResolveIngredient(ctx, tt.input)
			require.Equal(t, tt.source, got.Source)
			require.Regexp(t, httpURL, got.ImageURL)
			require.Equal(t, tt.input, got.Ingredient)
		})
	}
}

func TestResolveIngredientCategoryDefault(t *testing.T) {
	r := newTestResolver(nil, nil, "vegetable")
	got := r.ResolveIngredient(context.Background(), "xanthan gum")
	require.Equal(t, SourceCategoryFallback, got.Source)
	require.Equal(t, categoryImages[normalize.CategoryVegetable], got.ImageURL)
}

func TestResolveIngredientUpstreamFirst(t *testing.T) {
	catalog := &MockCatalog{Ingredient: "https://spoonacular.com/cdn/ingredients_100x100/onion.png"}
	r := newTestResolver(catalog, nil, "other")

	got := r.ResolveIngredient(context.Background(), "Onion")
	require.Equal(t, SourceSpoonacular, got.Source)
	require.Equal(t, catalog.Ingredient, got.ImageURL)

	// 正規化後相同的名稱命中快取
	got = r.ResolveIngredient(context.Background(), "1 onion")
	require.Equal(t, SourceSpoonacular, got.Source)
	require.Equal(t, int32(1), catalog.Calls.Load())
}

func TestResolveIngredientAlwaysHTTPWhenUpstreamFails(t *testing.T) {
	r := newTestResolver(&MockCatalog{Err: common.ErrUpstreamTimeout}, nil, "other")
	for _, name := range []string{"", "   ", "???", "½", "dragon fruit", "unobtainium", "salt to taste", "🍕"} {
		got := r.ResolveIngredient(context.Background(), name)
		require.Regexp(t, httpURL, got.ImageURL, name)
	}
}

func TestResolveCanceledCallerSkipsFallbackCache(t *testing.T) {
	catalog := &MockCatalog{
		Ingredient: "https://spoonacular.com/cdn/ingredients_100x100/garlic.png",
		Dish:       "https://img.spoonacular.com/recipes/1-312x231.jpg",
	}
	r := newTestResolver(catalog, nil, "other")

	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	got := r.ResolveIngredient(canceled, "garlic")
	require.NotEqual(t, SourceSpoonacular, got.Source)
	require.Regexp(t, httpURL, got.ImageURL)

	got = r.ResolveIngredient(context.Background(), "garlic")
	require.Equal(t, SourceSpoonacular, got.Source)
	require.Equal(t, catalog.Ingredient, got.ImageURL)

	dish := r.ResolveDish(canceled, "Pad Thai", "")
	require.Equal(t, SourceCuisineFallback, dish.Source)

	dish = r.ResolveDish(context.Background(), "Pad Thai", "")
	require.Equal(t, SourceSpoonacular, dish.Source)
	require.Equal(t, catalog.Dish, dish.ImageURL)
	require.Equal(t, int32(4), catalog.Calls.Load())
}

func TestResolveIngredientTTL(t *testing.T) {
	clock := common.NewManualClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	catalog := &MockCatalog{Ingredient: "https://example.com/a.png"}
	r := newTestResolver(catalog, clock, "other")
	ctx := context.Background()

	r.ResolveIngredient(ctx, "garlic")
	clock.Advance(24 * time.Hour)
	r.ResolveIngredient(ctx, "garlic")
	require.Equal(t, int32(1), catalog.Calls.Load())

	clock.Advance(time.Second)
	r.ResolveIngredient(ctx, "garlic")
	require.Equal(t, int32(2), catalog.Calls.Load(), "expired entry triggers re-resolution")
}

func TestResolveDish(t *testing.T) {
	t.Run("Bucket from dish name", func(t *testing.T) {
		r := newTestResolver(nil, nil, "other")
		got := r.ResolveDish(context.Background(), "Chicken Tikka Masala", "")
		require.Equal(t, "indian", got.Cuisine)
		require.Equal(t, dishImages[normalize.DishIndian][0], got.ImageURL)
	})

	t.Run("Unknown cuisine falls to default", func(t *testing.T) {
		r := newTestResolver(nil, nil, "other")
		got := r.ResolveDish(context.Background(), "Moussaka", "Greek")
		require.Equal(t, "default", got.Cuisine)
		require.Contains(t, dishImages[normalize.DishDefault], got.ImageURL)
	})

	t.Run("Upstream result", func(t *testing.T) {
		r := newTestResolver(&MockCatalog{Dish: "https://img.spoonacular.com/recipes/1-556x370.jpg"}, nil, "other")
		got := r.ResolveDish(context.Background(), "Pad Thai", "")
		require.Equal(t, SourceSpoonacular, got.Source)
	})
}

func TestResolveDishDeterministicWithinTTL(t *testing.T) {
	r := NewResolver(ResolverConfig{
		Catalog: &MockCatalog{Err: common.ErrUpstreamUnavailable},
		Budget:  common.DefaultBudget(),
		Rand:    common.NewRandSource(42),
	})
	ctx := context.Background()

	first := r.ResolveDish(ctx, "Beef Burger", "")
	for i := 0; i < 10; i++ {
		require.Equal(t, first.ImageURL, r.ResolveDish(ctx, "  beef burger ", "").ImageURL)
	}
}

func TestFallbackDishImage(t *testing.T) {
	r := newTestResolver(nil, nil, "other")
	require.Equal(t, dishImages[normalize.DishItalian][0], r.FallbackDishImage("Spaghetti Carbonara"))
}

func TestCatalogAliasesNormalize(t *testing.T) {
	table := newNormalizedCatalog()
	url, source, ok := table.match("milk")
	require.True(t, ok)
	require.Equal(t, SourceDatabase, source)

	aliasURL, _, ok := table.match(normalize.Normalize("2% milk"))
	require.True(t, ok)
	require.Equal(t, url, aliasURL)

	_, _, ok = table.match("")
	require.False(t, ok)
}

func TestSpoonacularClient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "test-key", r.URL.Query().Get("apiKey"))
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/food/ingredients/search":
			require.Equal(t, "5", r.URL.Query().Get("number"))
			_, _ = w.Write([]byte(`{"results":[{"name":"onion","image":"brown-onion.png"}]}`))
		case "/recipes/complexSearch":
			require.Equal(t, "italian", r.URL.Query().Get("cuisine"))
			_, _ = w.Write([]byte(`{"results":[{"title":"no image"},{"title":"Carbonara","image":"https://img.spoonacular.com/recipes/1.jpg"}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewSpoonacular(config.SpoonacularConfig{APIKey: "test-key", BaseURL: server.URL})
	ctx := context.Background()

	url, err := client.IngredientImage(ctx, "onion")
	require.NoError(t, err)
	require.Equal(t, "https://spoonacular.com/cdn/ingredients_100x100/brown-onion.png", url)

	url, err = client.DishImage(ctx, "carbonara", "italian")
	require.NoError(t, err)
	require.Equal(t, "https://img.spoonacular.com/recipes/1.jpg", url)
}

func TestSpoonacularDisabledWithoutKey(t *testing.T) {
	client := NewSpoonacular(config.SpoonacularConfig{BaseURL: "http://127.0.0.1:1"})
	_, err := client.IngredientImage(context.Background(), "onion")
	require.ErrorIs(t, err, common.ErrProviderDisabled)
}

func TestSpoonacularErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
	}))
	defer server.Close()

	client := NewSpoonacular(config.SpoonacularConfig{APIKey: "k", BaseURL: server.URL})
	_, err := client.IngredientImage(context.Background(), "onion")
	require.ErrorIs(t, err, common.ErrUpstreamUnavailable)
}
