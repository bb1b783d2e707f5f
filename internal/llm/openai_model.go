package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	openai "github.com/sashabaranov/go-openai"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAIChatModel 兼容 OpenAI 接口的聊天模型（通义千问兼容模式等）
type OpenAIChatModel struct {
	client      *openai.Client
	modelName   string
	temperature float32
}

// NewOpenAIChatModel baseURL 为空时使用 OpenAI 官方地址
func NewOpenAIChatModel(apiKey, baseURL, modelName string, temperature float32) (*OpenAIChatModel, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("API 密钥不能为空")
	}
	if strings.TrimSpace(modelName) == "" {
		modelName = defaultOpenAIModel
	}

	cfg := openai.DefaultConfig(apiKey)
	if strings.TrimSpace(baseURL) != "" {
		cfg.BaseURL = baseURL
	}

	return &OpenAIChatModel{
		client:      openai.NewClientWithConfig(cfg),
		modelName:   modelName,
		temperature: temperature,
	}, nil
}

// Generate 调用 chat completions 接口
func (o *OpenAIChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	options := model.GetCommonOptions(&model.Options{Model: &o.modelName, Temperature: &o.temperature}, opts...)

	messages := make([]openai.ChatCompletionMessage, 0, len(input))
	for _, msg := range input {
		if msg == nil {
			continue
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    toOpenAIRole(msg.Role),
			Content: msg.Content,
		})
	}
	if len(messages) == 0 {
		return nil, fmt.Errorf("提示词为空")
	}

	req := openai.ChatCompletionRequest{
		Model:    *options.Model,
		Messages: messages,
	}
	if options.Temperature != nil {
		req.Temperature = *options.Temperature
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return nil, fmt.Errorf("openai 调用失败 (status=%d): %w", apiErr.HTTPStatusCode, err)
		}
		return nil, fmt.Errorf("openai 调用失败: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai 未返回任何候选结果")
	}
	return schema.AssistantMessage(resp.Choices[0].Message.Content, nil), nil
}

// Stream 不支持流式输出
func (o *OpenAIChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, ErrStreamNotSupported
}

// WithTools 直接返回自身
func (o *OpenAIChatModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	return o, nil
}

func toOpenAIRole(role schema.RoleType) string {
	switch role {
	case schema.System:
		return openai.ChatMessageRoleSystem
	case schema.Assistant:
		return openai.ChatMessageRoleAssistant
	default:
		return openai.ChatMessageRoleUser
	}
}
