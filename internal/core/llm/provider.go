// Package llm 語言模型提供者
package llm

import (
	"context"
	"fmt"

	"recipe-assistant/internal/infrastructure/config"
	"recipe-assistant/internal/pkg/common"
)

// Options 單次生成參數
type Options struct {
	Temperature float32
	MaxTokens   int
}

// Provider 語言模型提供者
type Provider interface {
	// Generate 依提示詞生成文字
	Generate(ctx context.Context, prompt string, opts Options) (string, error)

	// Name 提供者名稱
	Name() string

	// Close 關閉連線
	Close() error
}

// NewProvider 依設定建立提供者，缺少金鑰時回傳停用的提供者
func NewProvider(ctx context.Context, cfg *config.LLMConfig) (Provider, error) {
	switch cfg.Provider {
	case "gemini":
		if cfg.Gemini.APIKey == "" {
			return Disabled{}, nil
		}
		return NewGemini(ctx, cfg.Gemini)
	case "openrouter":
		if cfg.OpenRouter.APIKey == "" {
			return Disabled{}, nil
		}
		return NewOpenRouter(cfg.OpenRouter), nil
	case "none", "":
		return Disabled{}, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

// Disabled 未設定金鑰時使用，所有呼叫都回傳 ErrProviderDisabled
type Disabled struct{}

// Generate 總是失敗
func (Disabled) Generate(context.Context, string, Options) (string, error) {
	return "", common.ErrProviderDisabled
}

// Name 提供者名稱
func (Disabled) Name() string { return "disabled" }

// Close 無動作
func (Disabled) Close() error { return nil }
