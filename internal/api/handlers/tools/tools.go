// Package tools 工具呼叫端點
package tools

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"recipe-assistant/internal/api/handlers"
	"recipe-assistant/internal/api/middleware"
	toolService "recipe-assistant/internal/core/tools"
	"recipe-assistant/internal/pkg/common"
)

// Invoker 工具執行介面
type Invoker interface {
	Invoke(ctx context.Context, name string, rawArgs json.RawMessage, userID string) (any, error)
	Definitions() []toolService.Definition
}

// Handler 工具處理器
type Handler struct {
	invoker Invoker
	debug   bool
}

// NewHandler 創建處理器
func NewHandler(invoker Invoker, debug bool) *Handler {
	return &Handler{invoker: invoker, debug: debug}
}

// ListTools 列出可用工具
func (h *Handler) ListTools(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tools": h.invoker.Definitions()})
}

// InvokeTool 以請求體作為參數執行工具
func (h *Handler) InvokeTool(c *gin.Context) {
	name := c.Param("name")
	raw, err := c.GetRawData()
	if err != nil {
		handlers.RespondError(c, common.ErrInvalidRequest.Wrap(err), h.debug)
		return
	}

	userID := c.GetHeader(middleware.UserIDHeader)
	common.LogDebug("工具呼叫",
		zap.String("tool", name),
		zap.String("user_id", userID),
	)

	result, err := h.invoker.Invoke(c.Request.Context(), name, raw, userID)
	if err != nil {
		handlers.RespondError(c, err, h.debug)
		return
	}
	c.JSON(http.StatusOK, result)
}
