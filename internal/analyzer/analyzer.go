package analyzer

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"resume-match-go/internal/constants"
	"resume-match-go/internal/logger"
	"resume-match-go/internal/tracing"
)

var tracer = otel.Tracer("resume-match/analyzer")

// Analyzer 调用大模型完成简历匹配分析和岗位标题提取
type Analyzer struct {
	llmModel   model.ToolCallingChatModel
	titleModel model.ToolCallingChatModel
	intn       func(int) int
	log        zerolog.Logger
}

// Option 配置 Analyzer
type Option func(*Analyzer)

// WithTitleModel 标题提取使用单独的模型
func WithTitleModel(m model.ToolCallingChatModel) Option {
	return func(a *Analyzer) {
		if m != nil {
			a.titleModel = m
		}
	}
}

// WithRandom 替换降级结果使用的随机数函数，测试中用于固定输出
func WithRandom(intn func(int) int) Option {
	return func(a *Analyzer) {
		a.intn = intn
	}
}

// WithLogger 设置日志
func WithLogger(l zerolog.Logger) Option {
	return func(a *Analyzer) {
		a.log = l
	}
}

// New 创建 Analyzer
func New(llmModel model.ToolCallingChatModel, opts ...Option) *Analyzer {
	a := &Analyzer{
		llmModel:   llmModel,
		titleModel: llmModel,
		log:        logger.Logger.With().Str("component", "analyzer").Logger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze 评估简历与岗位的匹配度
// 配额耗尽时返回 Fallback=true 的替代结果；其余失败返回 *Error，不重试
func (a *Analyzer) Analyze(ctx context.Context, jobDescription, resumeText string) (*Result, error) {
	ctx, span := tracer.Start(ctx, "Analyzer.Analyze", trace.WithAttributes(
		attribute.Int("jd.length", len(jobDescription)),
		attribute.Int("resume.length", len(resumeText)),
	))
	defer span.End()

	prompt := BuildAnalysisPrompt(jobDescription, resumeText)
	reply, err := a.generate(ctx, a.llmModel, prompt)
	if err != nil {
		if IsQuotaError(err) {
			a.log.Warn().Err(err).Msg("模型配额耗尽，使用替代分析结果")
			tracing.RecordFallback(span, err.Error())
			res := fallbackResult(a.intn)
			span.SetAttributes(attribute.Int("analysis.score", res.RelevanceScore))
			return res, nil
		}
		a.log.Error().Err(err).Msg("模型调用失败")
		tracing.RecordError(span, err, tracing.ErrorTypeLLM)
		return nil, newError(KindProvider, err, "%s", err.Error())
	}

	res, err := decodeResult(reply)
	if err != nil {
		a.log.Error().Err(err).Str("reply", tracing.SafePrompt(reply)).Msg("模型回复解析失败")
		tracing.RecordError(span, err, tracing.ErrorTypeValidation)
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("analysis.score", res.RelevanceScore),
		attribute.String("analysis.verdict", string(res.FitVerdict)),
	)
	span.SetStatus(codes.Ok, "")
	return res, nil
}

// ExtractTitle 从岗位描述中提取标题
// 配额耗尽返回占位标题 "Job Position"；其余失败返回包装了 ErrTitleUnavailable 的错误
func (a *Analyzer) ExtractTitle(ctx context.Context, jobDescription string) (TitleResult, error) {
	ctx, span := tracer.Start(ctx, "Analyzer.ExtractTitle")
	defer span.End()

	reply, err := a.generate(ctx, a.titleModel, BuildTitlePrompt(jobDescription))
	if err != nil {
		if IsQuotaError(err) {
			a.log.Warn().Err(err).Msg("模型配额耗尽，使用占位岗位标题")
			tracing.RecordFallback(span, err.Error())
			return TitleResult{Title: constants.FallbackJobTitle, Fallback: true}, nil
		}
		tracing.RecordError(span, err, tracing.ErrorTypeLLM)
		return TitleResult{}, fmt.Errorf("%w: %v", ErrTitleUnavailable, err)
	}

	title := cleanTitle(reply)
	if title == "" || strings.Contains(strings.ToLower(title), "no job title") {
		return TitleResult{}, fmt.Errorf("%w: model reply %q", ErrTitleUnavailable, tracing.TruncateString(reply, 80))
	}
	span.SetAttributes(attribute.String("job.title", tracing.SafeAttributeValue("job.title", title, tracing.DefaultMaxLength)))
	return TitleResult{Title: title}, nil
}

func (a *Analyzer) generate(ctx context.Context, m model.ToolCallingChatModel, prompt string) (string, error) {
	if m == nil {
		return "", fmt.Errorf("analyzer: llm model is not initialized")
	}
	resp, err := m.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)})
	if err != nil {
		return "", err
	}
	if resp == nil {
		return "", fmt.Errorf("analyzer: model returned no message")
	}
	return resp.Content, nil
}

// cleanTitle 取第一行非空文本，去掉引号和 markdown 强调
func cleanTitle(reply string) string {
	for _, line := range strings.Split(StripCodeFences(reply), "\n") {
		line = strings.TrimSpace(line)
		line = strings.Trim(line, "*_#`\"' ")
		if line != "" {
			return line
		}
	}
	return ""
}
