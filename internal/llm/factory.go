package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/components/model"

	"resume-match-go/internal/config"
	"resume-match-go/internal/ratelimit"
)

// DefaultGeminiModel 默认 Gemini 模型
const DefaultGeminiModel = "gemini-1.5-flash-latest"

// ErrStreamNotSupported 模型不支持流式输出
var ErrStreamNotSupported = errors.New("streaming not supported")

// NewChatModel 按配置创建带限流的模型
func NewChatModel(ctx context.Context, cfg config.LLMConfig) (model.ToolCallingChatModel, error) {
	return newChatModel(ctx, cfg, cfg.Model)
}

// NewTitleModel 标题提取使用的模型，未单独配置时与分析模型相同
func NewTitleModel(ctx context.Context, cfg config.LLMConfig) (model.ToolCallingChatModel, error) {
	name := cfg.TitleModel
	if name == "" {
		name = cfg.Model
	}
	return newChatModel(ctx, cfg, name)
}

func newChatModel(ctx context.Context, cfg config.LLMConfig, modelName string) (model.ToolCallingChatModel, error) {
	var (
		m   model.ToolCallingChatModel
		err error
	)
	switch cfg.Provider {
	case "", "gemini":
		m, err = NewGeminiChatModel(ctx, cfg.APIKey, modelName, cfg.Temperature)
	case "openai":
		m, err = NewOpenAIChatModel(cfg.APIKey, cfg.BaseURL, modelName, cfg.Temperature)
	default:
		return nil, fmt.Errorf("不支持的模型提供方: %s", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return ratelimit.NewRateLimitedLLMModel(m, cfg.QPM), nil
}
