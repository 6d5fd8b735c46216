// Package media 圖片與影片解析端點
package media

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"recipe-assistant/internal/api/handlers"
	"recipe-assistant/internal/core/image"
	"recipe-assistant/internal/core/video"
	"recipe-assistant/internal/pkg/common"
)

// ImageResolver 圖片解析
type ImageResolver interface {
	ResolveIngredient(ctx context.Context, name string) image.IngredientImage
	ResolveDish(ctx context.Context, dish, cuisine string) image.DishImage
}

// VideoResolver 影片解析
type VideoResolver interface {
	Resolve(ctx context.Context, recipeName, cuisineHint string) video.Info
}

// VideoValidator 影片 ID 驗證
type VideoValidator interface {
	Validate(ctx context.Context, videoID string) video.Validation
}

// Handler 媒體處理器，所有端點在外部服務失敗時仍回傳可用結果
type Handler struct {
	images    ImageResolver
	videos    VideoResolver
	validator VideoValidator
	rand      common.RandSource
}

// NewHandler 創建處理器
func NewHandler(images ImageResolver, videos VideoResolver, validator VideoValidator, rnd common.RandSource) *Handler {
	if rnd == nil {
		rnd = common.NewRandSource(0)
	}
	return &Handler{images: images, videos: videos, validator: validator, rand: rnd}
}

// IngredientImage GET /api/ingredient-image?ingredient=
func (h *Handler) IngredientImage(c *gin.Context) {
	ingredient := strings.TrimSpace(c.Query("ingredient"))
	if ingredient == "" {
		handlers.BadRequest(c, "ingredient parameter is required")
		return
	}
	c.JSON(http.StatusOK, h.images.ResolveIngredient(c.Request.Context(), ingredient))
}

// DishImage GET /api/dish-image?dish=&cuisine=
func (h *Handler) DishImage(c *gin.Context) {
	dish := strings.TrimSpace(c.Query("dish"))
	if dish == "" {
		handlers.BadRequest(c, "dish parameter is required")
		return
	}
	c.JSON(http.StatusOK, h.images.ResolveDish(c.Request.Context(), dish, strings.TrimSpace(c.Query("cuisine"))))
}

// SearchYouTube GET /api/search-youtube?q=&cuisine=
func (h *Handler) SearchYouTube(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"code":    common.ErrCodeInvalidRequest,
			"message": "q parameter is required",
			"video":   video.ReliableVideo(h.rand),
		})
		return
	}
	info := h.videos.Resolve(c.Request.Context(), query, strings.TrimSpace(c.Query("cuisine")))
	c.JSON(http.StatusOK, gin.H{"video": info})
}

// ValidateYouTube GET /api/validate-youtube?videoId=
func (h *Handler) ValidateYouTube(c *gin.Context) {
	videoID := strings.TrimSpace(c.Query("videoId"))
	if videoID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, video.Validation{Valid: false})
		return
	}
	c.JSON(http.StatusOK, h.validator.Validate(c.Request.Context(), videoID))
}
