// Package api HTTP 路由
package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"recipe-assistant/internal/api/handlers/health"
	"recipe-assistant/internal/api/handlers/media"
	"recipe-assistant/internal/api/handlers/recipes"
	"recipe-assistant/internal/api/handlers/tools"
	"recipe-assistant/internal/api/middleware"
	"recipe-assistant/internal/core/persist"
	"recipe-assistant/internal/core/store"
	"recipe-assistant/internal/infrastructure/config"
	"recipe-assistant/internal/pkg/common"
)

// Services 路由需要的服務
type Services struct {
	Tools     tools.Invoker
	Images    media.ImageResolver
	Videos    media.VideoResolver
	Validator media.VideoValidator
	Store     store.Store
	Queue     *persist.Queue
	Checkers  map[string]health.Checker
	Rand      common.RandSource
	Clock     common.Clock
}

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, svc Services) *gin.Engine {
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(requestid.New())
	router.Use(middleware.Logger())
	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "X-Request-ID", middleware.UserIDHeader},
		ExposeHeaders: []string{"Content-Length", "X-Request-ID", middleware.DedupHeader},
		MaxAge:        12 * time.Hour,
	}))
	router.Use(middleware.BodySizeLimit(cfg.Server.MaxBodyBytes))

	healthHandler := health.NewHandler(cfg.App.Version, svc.Checkers, svc.Queue)
	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.ReadinessCheck)
	router.GET("/live", healthHandler.LivenessCheck)

	api := router.Group("/api")
	if cfg.RateLimit.Enabled {
		api.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window, svc.Clock))
	}

	mediaHandler := media.NewHandler(svc.Images, svc.Videos, svc.Validator, svc.Rand)
	api.GET("/ingredient-image", mediaHandler.IngredientImage)
	api.GET("/dish-image", mediaHandler.DishImage)
	api.GET("/search-youtube", mediaHandler.SearchYouTube)
	api.GET("/validate-youtube", mediaHandler.ValidateYouTube)

	v1 := api.Group("/v1")
	{
		toolHandler := tools.NewHandler(svc.Tools, cfg.App.Debug)
		v1.GET("/tools", toolHandler.ListTools)
		v1.POST("/tools/:name", middleware.Deduplication(cfg.DedupWindow, svc.Clock), toolHandler.InvokeTool)

		recipeHandler := recipes.NewHandler(svc.Store, cfg.App.Debug)
		v1.GET("/recipes", recipeHandler.List)
		v1.GET("/recipes/:id", recipeHandler.Get)
		v1.PATCH("/recipes/:id/favorite", recipeHandler.SetFavorite)
	}

	common.LogInfo("Router setup completed",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.Bool("rate_limit", cfg.RateLimit.Enabled),
		zap.Int64("max_body_size", cfg.Server.MaxBodyBytes),
	)
	return router
}
