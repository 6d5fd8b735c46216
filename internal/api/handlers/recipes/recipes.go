// Package recipes 已儲存食譜端點
package recipes

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"recipe-assistant/internal/api/handlers"
	"recipe-assistant/internal/api/middleware"
	"recipe-assistant/internal/core/store"
)

// FavoriteRequest 收藏設定請求
type FavoriteRequest struct {
	IsFavorite *bool `json:"isFavorite" binding:"required"`
}

// Handler 食譜紀錄處理器
type Handler struct {
	store store.Store
	debug bool
}

// NewHandler 創建處理器
func NewHandler(st store.Store, debug bool) *Handler {
	return &Handler{store: st, debug: debug}
}

// List GET /api/v1/recipes?userId=，未帶參數時使用 X-User-ID
func (h *Handler) List(c *gin.Context) {
	userID := strings.TrimSpace(c.Query("userId"))
	if userID == "" {
		userID = strings.TrimSpace(c.GetHeader(middleware.UserIDHeader))
	}
	if userID == "" {
		handlers.BadRequest(c, "userId is required")
		return
	}

	records, err := h.store.ListByUser(c.Request.Context(), userID)
	if err != nil {
		handlers.RespondError(c, err, h.debug)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipes": records})
}

// Get GET /api/v1/recipes/:id
func (h *Handler) Get(c *gin.Context) {
	rec, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handlers.RespondError(c, err, h.debug)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// SetFavorite PATCH /api/v1/recipes/:id/favorite
func (h *Handler) SetFavorite(c *gin.Context) {
	var req FavoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.BadRequest(c, "isFavorite is required")
		return
	}

	rec, err := h.store.SetFavorite(c.Request.Context(), c.Param("id"), *req.IsFavorite)
	if err != nil {
		handlers.RespondError(c, err, h.debug)
		return
	}
	c.JSON(http.StatusOK, rec)
}
