package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"recipe-assistant/internal/core/cache"
	"recipe-assistant/internal/pkg/common"
)

// DedupHeader 標示回應為重播結果
const DedupHeader = "X-Deduplicated"

// replay 第一次請求的回應，done 關閉後才可讀取
type replay struct {
	done        chan struct{}
	status      int
	contentType string
	body        []byte
	ok          bool
}

// captureWriter 複製寫出的回應內容
type captureWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *captureWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Deduplication 時間窗內相同的 POST 請求重播第一次的回應，指紋包含路徑、使用者與請求體
func Deduplication(window time.Duration, clock common.Clock) gin.HandlerFunc {
	if window <= 0 {
		window = time.Second
	}
	if clock == nil {
		clock = common.SystemClock{}
	}
	seen := cache.NewTimedCache[*replay]("request_dedup", window, cache.WithClock(clock), cache.WithMaxSize(10000))
	var mu sync.Mutex

	return func(c *gin.Context) {
		// 只處理 POST 請求
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		// 計算請求體哈希
		fingerprint := c.Request.URL.Path + ":" + c.GetHeader(UserIDHeader)
		if c.Request.Body != nil {
			body, err := io.ReadAll(c.Request.Body)
			if err != nil {
				common.LogWarn("Failed to read request body", zap.Error(err))
				c.AbortWithStatusJSON(http.StatusBadRequest, common.ErrInvalidRequest.ToResponse(false))
				return
			}
			hash := sha256.Sum256(body)
			fingerprint += ":" + hex.EncodeToString(hash[:])

			// 恢復請求體
			c.Request.Body = io.NopCloser(bytes.NewReader(body))
		}

		// 檢查是否是重複請求
		mu.Lock()
		first, duplicate := seen.Get(fingerprint)
		if !duplicate {
			first = &replay{done: make(chan struct{})}
			seen.Put(fingerprint, first)
		}
		mu.Unlock()

		if duplicate {
			select {
			case <-first.done:
			case <-c.Request.Context().Done():
				c.Abort()
				return
			}
			if first.ok {
				common.LogInfo("Duplicate request replayed", zap.String("path", c.Request.URL.Path))
				c.Header(DedupHeader, "true")
				c.Data(first.status, first.contentType, first.body)
				c.Abort()
				return
			}
			c.Next()
			return
		}

		// 處理請求並記錄回應
		w := &captureWriter{ResponseWriter: c.Writer}
		c.Writer = w
		defer close(first.done)

		c.Next()

		first.status = w.Status()
		first.contentType = w.Header().Get("Content-Type")
		first.body = w.body.Bytes()
		first.ok = first.status < http.StatusInternalServerError
	}
}
