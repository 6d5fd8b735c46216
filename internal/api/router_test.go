package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"recipe-assistant/internal/api/handlers/health"
	"recipe-assistant/internal/core/image"
	"recipe-assistant/internal/core/llm"
	"recipe-assistant/internal/core/recipe"
	"recipe-assistant/internal/core/store"
	"recipe-assistant/internal/core/tools"
	"recipe-assistant/internal/core/video"
	"recipe-assistant/internal/infrastructure/config"
	"recipe-assistant/internal/pkg/common"
)

// offlineBackend 所有外部搜尋都停用
type offlineBackend struct{}

func (offlineBackend) Search(context.Context, string) ([]video.Candidate, error) { return nil, nil }
func (offlineBackend) Enabled() bool                                            { return false }
func (offlineBackend) Name() string                                             { return "offline" }

// MockProber 固定結果的存在性探測
type MockProber struct {
	Found bool
}

func (m MockProber) Exists(context.Context, string) (bool, error) { return m.Found, nil }

type testServer struct {
	router *gin.Engine
	store  *store.MemoryStore
}

func newTestServer(t *testing.T, checkers map[string]health.Checker) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		App:         config.AppConfig{Debug: true, Version: "test"},
		Server:      config.ServerConfig{MaxBodyBytes: 1 << 20},
		DedupWindow: time.Second,
	}
	budget := common.DefaultBudget()
	rnd := common.FixedRand(0)
	images := image.NewResolver(image.ResolverConfig{Budget: budget, Rand: rnd})
	videos := video.NewResolver(video.ResolverConfig{Primary: offlineBackend{}, Secondary: offlineBackend{}, Budget: budget, Rand: rnd})
	dispatcher := tools.NewDispatcher(tools.Config{
		Searcher: recipe.NewSearcher(llm.Disabled{}, budget, llm.Options{}),
		Generator: recipe.NewGenerator(recipe.GeneratorConfig{
			Provider: llm.Disabled{},
			Images:   images,
			Videos:   videos,
			Budget:   budget,
			Rand:     rnd,
		}),
		Videos: videos,
		Images: images,
		Budget: budget,
		Rand:   rnd,
	})
	st := store.NewMemoryStore(nil)

	router := SetupRouter(cfg, Services{
		Tools:     dispatcher,
		Images:    images,
		Videos:    videos,
		Validator: video.NewValidator(MockProber{Found: false}, budget, rnd),
		Store:     st,
		Checkers:  checkers,
		Rand:      rnd,
	})
	return &testServer{router: router, store: st}
}

func (s *testServer) do(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t, map[string]health.Checker{
		"postgres": func(context.Context) error { return nil },
	})

	w := s.do(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"version":"test"`)
	require.NotEmpty(t, w.Header().Get("X-Request-ID"))

	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/ready", "", nil).Code)
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/live", "", nil).Code)
}

func TestReadyFailsWhenDependencyDown(t *testing.T) {
	s := newTestServer(t, map[string]health.Checker{
		"redis": func(context.Context) error { return errors.New("connection refused") },
	})

	w := s.do(http.MethodGet, "/ready", "", nil)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.Contains(t, w.Body.String(), "connection refused")
}

func TestIngredientImageEndpoint(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(http.MethodGet, "/api/ingredient-image?ingredient=2+cups+all-purpose+flour", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body image.IngredientImage
	decode(t, w, &body)
	require.Equal(t, "2 cups all-purpose flour", body.Ingredient)
	require.True(t, strings.HasPrefix(body.ImageURL, "https://"))
	require.NotEmpty(t, body.Source)

	w = s.do(http.MethodGet, "/api/ingredient-image", "", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), common.ErrCodeInvalidRequest)
}

func TestDishImageEndpoint(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(http.MethodGet, "/api/dish-image?dish=Chicken+Tikka+Masala", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	decode(t, w, &body)
	require.Equal(t, "Chicken Tikka Masala", body["dish"])
	require.Equal(t, "indian", body["cuisine"])
	require.True(t, strings.HasPrefix(body["imageUrl"], "https://"))
	require.NotContains(t, body, "source")

	require.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/dish-image?cuisine=italian", "", nil).Code)
}

func TestSearchYouTubeEndpoint(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(http.MethodGet, "/api/search-youtube?q=pad+thai", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Video video.Info `json:"video"`
	}
	decode(t, w, &body)
	require.True(t, video.PoolIDs()[body.Video.VideoID])

	w = s.do(http.MethodGet, "/api/search-youtube", "", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	decode(t, w, &body)
	require.True(t, video.PoolIDs()[body.Video.VideoID])
}

func TestValidateYouTubeEndpoint(t *testing.T) {
	s := newTestServer(t, nil)

	var body video.Validation
	w := s.do(http.MethodGet, "/api/validate-youtube", "", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	decode(t, w, &body)
	require.False(t, body.Valid)

	w = s.do(http.MethodGet, "/api/validate-youtube?videoId=not-valid", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &body)
	require.False(t, body.Valid)
	require.NotEmpty(t, body.FallbackID)

	w = s.do(http.MethodGet, "/api/validate-youtube?videoId=zzzzzzzzzzz", "", nil)
	decode(t, w, &body)
	require.False(t, body.Valid)
}

func TestToolEndpoints(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(http.MethodGet, "/api/v1/tools", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), tools.GetRecipeDetails)

	w = s.do(http.MethodPost, "/api/v1/tools/getRecipeDetails", `{"recipeId":"recipe_spaghetti-carbonara"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var detail recipe.Detail
	decode(t, w, &detail)
	require.Equal(t, "recipe_spaghetti-carbonara", detail.ID)
	require.NotEmpty(t, detail.Ingredients)
	require.GreaterOrEqual(t, len(detail.Instructions), 2)
	require.True(t, video.ReliableIDs()[detail.Video.VideoID])
	require.NotEmpty(t, detail.MainImageURL)

	w = s.do(http.MethodPost, "/api/v1/tools/searchRecipes", `{"query":"pasta"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "Quick Pasta Dish")

	w = s.do(http.MethodPost, "/api/v1/tools/orderPizza", `{}`, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Contains(t, w.Body.String(), common.ErrCodeUnknownTool)

	w = s.do(http.MethodPost, "/api/v1/tools/findRecipeVideo", `{"recipeName":`, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestToolEndpointDuplicatePostReturnsRecipeTwice(t *testing.T) {
	s := newTestServer(t, nil)
	headers := map[string]string{"X-User-ID": "u1"}
	body := `{"recipeId":"recipe_spaghetti-carbonara"}`

	for i := 0; i < 2; i++ {
		w := s.do(http.MethodPost, "/api/v1/tools/getRecipeDetails", body, headers)
		require.Equal(t, http.StatusOK, w.Code)

		var detail recipe.Detail
		decode(t, w, &detail)
		require.Equal(t, "recipe_spaghetti-carbonara", detail.ID)
		require.NotEmpty(t, detail.Ingredients)
		require.GreaterOrEqual(t, len(detail.Instructions), 2)
		require.NotEmpty(t, detail.Video.VideoID)
	}
}

func TestRecipeRecordEndpoints(t *testing.T) {
	s := newTestServer(t, nil)
	ctx := context.Background()
	require.NoError(t, s.store.Insert(ctx, store.Record{
		ID:      "recipe_ramen_1a2b3c4d",
		UserID:  "u1",
		Details: json.RawMessage(`{"name":"Ramen"}`),
	}))

	w := s.do(http.MethodGet, "/api/v1/recipes?userId=u1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "recipe_ramen_1a2b3c4d")

	w = s.do(http.MethodGet, "/api/v1/recipes", "", map[string]string{"X-User-ID": "u1"})
	require.Equal(t, http.StatusOK, w.Code)

	require.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/v1/recipes", "", nil).Code)

	w = s.do(http.MethodGet, "/api/v1/recipes/recipe_ramen_1a2b3c4d", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var rec store.Record
	decode(t, w, &rec)
	require.JSONEq(t, `{"name":"Ramen"}`, string(rec.Details))

	require.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/v1/recipes/missing", "", nil).Code)

	w = s.do(http.MethodPatch, "/api/v1/recipes/recipe_ramen_1a2b3c4d/favorite", `{"isFavorite":true}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &rec)
	require.True(t, rec.IsFavorite)

	require.Equal(t, http.StatusBadRequest, s.do(http.MethodPatch, "/api/v1/recipes/recipe_ramen_1a2b3c4d/favorite", `{}`, nil).Code)
	require.Equal(t, http.StatusNotFound, s.do(http.MethodPatch, "/api/v1/recipes/missing/favorite", `{"isFavorite":false}`, nil).Code)
}
