package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"recipe-assistant/internal/infrastructure/config"
	"recipe-assistant/internal/pkg/common"
)

// Gemini Google Gemini 提供者
type Gemini struct {
	client    *genai.Client
	modelName string
}

// NewGemini 創建 Gemini 提供者
func NewGemini(ctx context.Context, cfg config.GeminiConfig) (*Gemini, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &Gemini{client: client, modelName: cfg.Model}, nil
}

// Generate 生成回應
func (g *Gemini) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	start := time.Now()
	text, err := g.generate(ctx, prompt, opts)
	common.LogUpstreamCall("gemini", "generate", time.Since(start), err)
	return text, err
}

func (g *Gemini) generate(ctx context.Context, prompt string, opts Options) (string, error) {
	// 每次呼叫使用獨立的 model，參數不共用
	model := g.client.GenerativeModel(g.modelName)
	if opts.Temperature > 0 {
		model.SetTemperature(opts.Temperature)
	}
	if opts.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(opts.MaxTokens))
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		if ctx.Err() != nil {
			return "", common.ErrUpstreamTimeout.Wrap(err)
		}
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no content generated")
	}

	text, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return "", fmt.Errorf("generated content is not text")
	}
	return string(text), nil
}

// Name 提供者名稱
func (g *Gemini) Name() string { return "gemini" }

// Close 關閉底層連線
func (g *Gemini) Close() error {
	return g.client.Close()
}
