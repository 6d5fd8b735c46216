package common

import (
	"errors"
	"net/http"
)

// ErrorResponse 定義 API 錯誤響應結構
type ErrorResponse struct {
	Code    string `json:"code"`              // 錯誤代碼
	Message string `json:"message"`           // 錯誤信息
	Details string `json:"details,omitempty"` // 詳細信息（僅在開發模式顯示）
}

// CustomError 定義自定義錯誤類型
type CustomError struct {
	Code    string // 錯誤代碼
	Message string // 錯誤信息
	Err     error  // 原始錯誤
	Status  int    // HTTP 狀態碼
}

func (e *CustomError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap 取得原始錯誤
func (e *CustomError) Unwrap() error {
	return e.Err
}

// Is 以錯誤代碼比較
func (e *CustomError) Is(target error) bool {
	var t *CustomError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// NewError 創建新的自定義錯誤
func NewError(code string, message string, status int, err error) *CustomError {
	return &CustomError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// Wrap 以既有錯誤代碼包裝原始錯誤
func (e *CustomError) Wrap(err error) *CustomError {
	return NewError(e.Code, e.Message, e.Status, err)
}

// ToResponse 轉為 API 錯誤響應
func (e *CustomError) ToResponse(debug bool) ErrorResponse {
	resp := ErrorResponse{Code: e.Code, Message: e.Message}
	if debug && e.Err != nil {
		resp.Details = e.Err.Error()
	}
	return resp
}

// AsCustomError 取出錯誤鏈中的 CustomError，找不到時歸類為內部錯誤
func AsCustomError(err error) *CustomError {
	var ce *CustomError
	if errors.As(err, &ce) {
		return ce
	}
	return ErrInternalError.Wrap(err)
}

// 預定義錯誤代碼
const (
	// 客戶端錯誤 (4xx)
	ErrCodeInvalidRequest  = "INVALID_REQUEST"   // 400
	ErrCodeNotFound        = "NOT_FOUND"         // 404
	ErrCodeConflict        = "CONFLICT"          // 409
	ErrCodeTooManyRequests = "TOO_MANY_REQUESTS" // 429
	ErrCodeUnknownTool     = "UNKNOWN_TOOL"      // 404

	// 服務器錯誤 (5xx)
	ErrCodeInternalError      = "INTERNAL_ERROR"      // 500
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE" // 503
	ErrCodeGatewayTimeout     = "GATEWAY_TIMEOUT"     // 504

	// 外部依賴錯誤
	ErrCodeUpstreamTimeout     = "UPSTREAM_TIMEOUT"
	ErrCodeUpstreamUnavailable = "UPSTREAM_UNAVAILABLE"
	ErrCodeProviderDisabled    = "PROVIDER_DISABLED"
	ErrCodeGenerationFailed    = "GENERATION_FAILED"
	ErrCodePersistenceConflict = "PERSISTENCE_CONFLICT"
)

// 預定義錯誤
var (
	ErrInvalidRequest  = NewError(ErrCodeInvalidRequest, "無效的請求", http.StatusBadRequest, nil)
	ErrNotFound        = NewError(ErrCodeNotFound, "資源不存在", http.StatusNotFound, nil)
	ErrConflict        = NewError(ErrCodeConflict, "資源衝突", http.StatusConflict, nil)
	ErrTooManyRequests = NewError(ErrCodeTooManyRequests, "請求過於頻繁", http.StatusTooManyRequests, nil)
	ErrUnknownTool     = NewError(ErrCodeUnknownTool, "未知的工具", http.StatusNotFound, nil)

	ErrInternalError      = NewError(ErrCodeInternalError, "服務器內部錯誤", http.StatusInternalServerError, nil)
	ErrServiceUnavailable = NewError(ErrCodeServiceUnavailable, "服務暫時不可用", http.StatusServiceUnavailable, nil)
	ErrGatewayTimeout     = NewError(ErrCodeGatewayTimeout, "網關超時", http.StatusGatewayTimeout, nil)

	ErrUpstreamTimeout     = NewError(ErrCodeUpstreamTimeout, "外部服務逾時", http.StatusGatewayTimeout, nil)
	ErrUpstreamUnavailable = NewError(ErrCodeUpstreamUnavailable, "外部服務不可用", http.StatusBadGateway, nil)
	ErrProviderDisabled    = NewError(ErrCodeProviderDisabled, "外部服務未設定", http.StatusServiceUnavailable, nil)
	ErrGenerationFailed    = NewError(ErrCodeGenerationFailed, "內容生成失敗", http.StatusServiceUnavailable, nil)
	ErrPersistenceConflict = NewError(ErrCodePersistenceConflict, "資料主鍵衝突", http.StatusConflict, nil)
)
