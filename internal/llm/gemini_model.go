package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"
)

// GeminiChatModel 基于 google genai SDK 的聊天模型
type GeminiChatModel struct {
	client      *genai.Client
	modelName   string
	temperature float32
}

// NewGeminiChatModel 创建 Gemini 模型客户端
func NewGeminiChatModel(ctx context.Context, apiKey, modelName string, temperature float32) (*GeminiChatModel, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("API 密钥不能为空")
	}
	if strings.TrimSpace(modelName) == "" {
		modelName = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("创建 Gemini 客户端失败: %w", err)
	}

	return &GeminiChatModel{
		client:      client,
		modelName:   modelName,
		temperature: temperature,
	}, nil
}

// Generate 将消息拼接为单轮提示词发送给 Gemini
func (g *GeminiChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	prompt := joinMessages(input)
	if prompt == "" {
		return nil, fmt.Errorf("提示词为空")
	}

	options := model.GetCommonOptions(&model.Options{Model: &g.modelName, Temperature: &g.temperature}, opts...)

	var genCfg *genai.GenerateContentConfig
	if options.Temperature != nil {
		genCfg = &genai.GenerateContentConfig{Temperature: genai.Ptr(*options.Temperature)}
	}

	resp, err := g.client.Models.GenerateContent(ctx, *options.Model, genai.Text(prompt), genCfg)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			// 状态码写入错误文本，上层据此识别配额错误
			return nil, fmt.Errorf("gemini 调用失败 (code=%d, status=%s): %w", apiErr.Code, apiErr.Status, err)
		}
		return nil, fmt.Errorf("gemini 调用失败: %w", err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("gemini 返回内容为空")
	}
	return schema.AssistantMessage(text, nil), nil
}

// Stream 不支持流式输出
func (g *GeminiChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, ErrStreamNotSupported
}

// WithTools 简历分析不使用工具调用，直接返回自身
func (g *GeminiChatModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	return g, nil
}

// joinMessages 按顺序拼接所有非空消息内容
func joinMessages(input []*schema.Message) string {
	parts := make([]string, 0, len(input))
	for _, msg := range input {
		if msg == nil || strings.TrimSpace(msg.Content) == "" {
			continue
		}
		parts = append(parts, msg.Content)
	}
	return strings.Join(parts, "\n\n")
}
