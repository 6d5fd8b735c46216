package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"recipe-assistant/internal/api"
	"recipe-assistant/internal/api/handlers/health"
	"recipe-assistant/internal/core/cache"
	"recipe-assistant/internal/core/image"
	"recipe-assistant/internal/core/llm"
	"recipe-assistant/internal/core/normalize"
	"recipe-assistant/internal/core/persist"
	"recipe-assistant/internal/core/recipe"
	"recipe-assistant/internal/core/store"
	"recipe-assistant/internal/core/tools"
	"recipe-assistant/internal/core/video"
	"recipe-assistant/internal/infrastructure/config"
	"recipe-assistant/internal/infrastructure/database"
	"recipe-assistant/internal/pkg/common"
)

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadRuntime()
	if err != nil {
		return err
	}
	defer common.Sync()

	common.LogInfo("啟動應用",
		zap.String("version", cfg.App.Version),
		zap.String("env", cfg.App.Env),
		zap.Bool("debug", cfg.App.Debug),
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.String("gemini_api_key", config.MaskAPIKey(cfg.LLM.Gemini.APIKey)),
		zap.String("openrouter_api_key", config.MaskAPIKey(cfg.LLM.OpenRouter.APIKey)),
		zap.Bool("spoonacular_enabled", cfg.Spoonacular.APIKey != ""),
		zap.Bool("youtube_direct_enabled", video.HasBasicAuth(cfg.YouTube.Cookie)),
	)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	clock := common.SystemClock{}
	rnd := common.NewRandSource(cfg.RandomSeed)
	budget := cfg.Budget()
	checkers := map[string]health.Checker{}

	provider, err := llm.NewProvider(ctx, &cfg.LLM)
	if err != nil {
		return fmt.Errorf("failed to create llm provider: %w", err)
	}
	defer provider.Close()

	var redisClient *redis.Client
	if cfg.Cache.Redis.Enabled {
		redisClient, err = database.OpenRedis(ctx, cfg.Cache.Redis)
		if err != nil {
			common.LogWarn("Redis 無法使用，只使用記憶體快取", zap.Error(err))
		} else {
			defer redisClient.Close()
			checkers["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
		}
	}

	var recipeStore store.Store = store.NewMemoryStore(clock)
	if cfg.Database.Enabled {
		db, err := database.OpenPostgres(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()

		pg := store.NewPostgresStore(db)
		if err := pg.Migrate(ctx); err != nil {
			return err
		}
		recipeStore = pg
		checkers["postgres"] = pg.Ping
	}

	queue := persist.NewQueue(recipeStore, persist.Options{
		Workers:   cfg.Persist.Workers,
		QueueSize: cfg.Persist.QueueSize,
		Clock:     clock,
	})
	go func() {
		for err := range queue.Errors() {
			common.LogError("食譜儲存失敗", zap.Error(err))
		}
	}()

	images := image.NewResolver(image.ResolverConfig{
		Catalog:       image.NewSpoonacular(cfg.Spoonacular),
		Categorizer:   normalize.NewCategorizer(cfg.Resolver.DefaultCategory),
		Budget:        budget,
		Rand:          rnd,
		Clock:         clock,
		IngredientTTL: cfg.Cache.IngredientTTL,
		DishTTL:       cfg.Cache.DishTTL,
	})

	metadata := video.NewMetadataFetcher(cfg.YouTube)
	videos := video.NewResolver(video.ResolverConfig{
		Primary: video.NewYouTubeBackend(cfg.YouTube),
		Secondary: video.NewInvidiousBackend(cfg.Invidious, video.InvidiousOptions{
			InstancesTTL: cfg.Cache.InvidiousInstancesTTL,
			SearchTTL:    cfg.Cache.InvidiousSearchTTL,
			Clock:        clock,
		}),
		Metadata: metadata,
		Rewriter: video.NewLLMQueryRewriter(provider, budget, cfg.Cache.VideoTTL, clock),
		Budget:   budget,
		Rand:     rnd,
		Clock:    clock,
		TTL:      cfg.Cache.VideoTTL,
	})

	var detailRemote *cache.RedisStore[recipe.Detail]
	if redisClient != nil {
		detailRemote = cache.NewRedisStore[recipe.Detail](redisClient, cfg.Cache.Redis.Prefix+"detail:", cfg.Cache.DetailTTL)
	}

	dispatcher := tools.NewDispatcher(tools.Config{
		Searcher: recipe.NewSearcher(provider, budget, llm.Options{
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
		}),
		Generator: recipe.NewGenerator(recipe.GeneratorConfig{
			Provider:           provider,
			Images:             images,
			Videos:             videos,
			Budget:             budget,
			Rand:               rnd,
			PlaceholderBaseURL: cfg.Resolver.PlaceholderBaseURL,
		}),
		Videos:       videos,
		Images:       images,
		Persister:    queue,
		DetailCache:  detailRemote,
		DetailTTL:    cfg.Cache.DetailTTL,
		Budget:       budget,
		Rand:         rnd,
		Clock:        clock,
		SingleFlight: cfg.Tools.SingleFlight,
	})

	router := api.SetupRouter(cfg, api.Services{
		Tools:     dispatcher,
		Images:    images,
		Videos:    videos,
		Validator: video.NewValidator(metadata, budget, rnd),
		Store:     recipeStore,
		Queue:     queue,
		Checkers:  checkers,
		Rand:      rnd,
		Clock:     clock,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErrors := make(chan error, 1)
	go func() {
		common.LogInfo("HTTP server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		common.LogInfo("Shutting down server...", zap.String("signal", sig.String()))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		common.LogError("Server forced to shutdown", zap.Error(err))
	}
	if err := queue.Close(shutdownCtx); err != nil {
		common.LogWarn("寫入隊列未完全清空", zap.Error(err), zap.Int("remaining", queue.Status().QueueLength))
	}

	common.LogInfo("Server exited")
	return nil
}
