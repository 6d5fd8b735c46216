package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"recipe-assistant/internal/infrastructure/config"
	"recipe-assistant/internal/pkg/common"
)

// OpenRouter OpenRouter 聊天完成 API
type OpenRouter struct {
	model  string
	client *resty.Client
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float32       `json:"temperature,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewOpenRouter 創建 OpenRouter 提供者
func NewOpenRouter(cfg config.OpenRouterConfig) *OpenRouter {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetHeader("Authorization", fmt.Sprintf("Bearer %s", cfg.APIKey)).
		SetHeader("HTTP-Referer", "https://recipe-assistant.app").
		SetHeader("X-Title", "Recipe Assistant")

	return &OpenRouter{model: cfg.Model, client: client}
}

// Generate 生成回應
func (o *OpenRouter) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	start := time.Now()
	content, err := o.generate(ctx, prompt, opts)
	common.LogUpstreamCall("openrouter", "chat", time.Since(start), err)
	return content, err
}

func (o *OpenRouter) generate(ctx context.Context, prompt string, opts Options) (string, error) {
	req := chatRequest{
		Model:       o.model,
		Messages:    []chatMessage{{Role: "user", Content: strings.TrimSpace(prompt)}},
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	}

	resp, err := o.client.R().
		SetContext(ctx).
		SetBody(req).
		Post("/chat/completions")
	if err != nil {
		if ctx.Err() != nil {
			return "", common.ErrUpstreamTimeout.Wrap(err)
		}
		return "", fmt.Errorf("failed to send request to OpenRouter: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return "", common.ErrUpstreamUnavailable.Wrap(fmt.Errorf("OpenRouter API returned %d: %s", resp.StatusCode(), resp.String()))
	}

	var result chatResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return "", fmt.Errorf("failed to parse OpenRouter response: %w", err)
	}
	if result.Error != nil {
		return "", common.ErrUpstreamUnavailable.Wrap(fmt.Errorf("OpenRouter error: %s", result.Error.Message))
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no choices in OpenRouter response")
	}

	return result.Choices[0].Message.Content, nil
}

// Name 提供者名稱
func (o *OpenRouter) Name() string { return "openrouter" }

// Close 無需釋放資源
func (o *OpenRouter) Close() error { return nil }
