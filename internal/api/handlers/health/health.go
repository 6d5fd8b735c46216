package health

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"recipe-assistant/internal/core/persist"
	"recipe-assistant/internal/pkg/common"
)

// Checker 依賴檢查
type Checker func(ctx context.Context) error

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime"`
	Persist   *persist.Status        `json:"persist,omitempty"`
}

// Handler 健康檢查處理器
type Handler struct {
	version  string
	checkers map[string]Checker
	queue    *persist.Queue
	timeout  time.Duration
}

// NewHandler 創建處理器，checkers 為就緒檢查項目
func NewHandler(version string, checkers map[string]Checker, queue *persist.Queue) *Handler {
	return &Handler{version: version, checkers: checkers, queue: queue, timeout: 2 * time.Second}
}

// HealthCheck 健康檢查
func (h *Handler) HealthCheck(c *gin.Context) {
	// 獲取運行時信息
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	// 構建響應
	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   h.version,
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
	}
	// 附上寫入隊列狀態
	if h.queue != nil {
		status := h.queue.Status()
		response.Persist = &status
	}

	c.JSON(http.StatusOK, response)
}

// ReadinessCheck 就緒檢查，任一依賴失敗回傳 503
func (h *Handler) ReadinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	checks := make(map[string]string, len(h.checkers))
	ready := true
	for name, check := range h.checkers {
		if err := check(ctx); err != nil {
			common.LogWarn("依賴檢查失敗", zap.String("dependency", name), zap.Error(err))
			checks[name] = err.Error()
			ready = false
			continue
		}
		checks[name] = "ok"
	}

	if !ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "checks": checks})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "checks": checks})
}

// LivenessCheck 存活檢查
func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}
