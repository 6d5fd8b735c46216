package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"recipe-assistant/internal/pkg/common"
)

// GenerateJSON 生成並解析 JSON 物件，模型輸出前後的說明文字會被忽略
func GenerateJSON(ctx context.Context, p Provider, prompt string, opts Options, v interface{}) error {
	content, err := p.Generate(ctx, prompt, opts)
	if err != nil {
		return err
	}

	raw, ok := common.ExtractJSONObject(content)
	if !ok {
		return common.ErrGenerationFailed.Wrap(fmt.Errorf("no JSON object in model output"))
	}

	if err := common.ParseJSON(raw, v); err != nil {
		// 部分模型會輸出未加引號的鍵
		if retryErr := common.ParseJSON(common.QuoteJSONKeys(raw), v); retryErr != nil {
			common.LogWarn("模型輸出 JSON 解析失敗",
				zap.String("provider", p.Name()),
				zap.Error(err),
			)
			return common.ErrGenerationFailed.Wrap(err)
		}
	}
	return nil
}
