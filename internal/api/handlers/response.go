// Package handlers HTTP 處理器共用工具
package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"recipe-assistant/internal/pkg/common"
)

// RespondError 依錯誤代碼回應，debug 時附上原始錯誤
func RespondError(c *gin.Context, err error, debug bool) {
	ce := common.AsCustomError(err)
	if ce.Status >= 500 {
		common.LogError("請求處理失敗", zap.String("code", ce.Code), zap.Error(err))
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(ce.Status, ce.ToResponse(debug))
}

// BadRequest 回應 400
func BadRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(common.ErrInvalidRequest.Status, common.ErrorResponse{
		Code:    common.ErrCodeInvalidRequest,
		Message: message,
	})
}
