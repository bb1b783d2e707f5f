package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"resume-match-go/internal/analyzer"
	"resume-match-go/internal/config"
	"resume-match-go/internal/llm"
	"resume-match-go/internal/logger"
	"resume-match-go/internal/ratelimit"

	"github.com/spf13/pflag"
)

func runAnalyze(args []string) error {
	fs := pflag.NewFlagSet("analyze", pflag.ExitOnError)
	cfgPath := configFlag(fs)
	resumePath := fs.StringP("resume", "r", "", "简历文件 (pdf/docx/txt)")
	jdPath := fs.StringP("jd", "j", "", "岗位描述文件 (pdf/docx/txt)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *resumePath == "" || *jdPath == "" {
		return fmt.Errorf("--resume 和 --jd 都是必填项")
	}

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	jd, err := extractFile(ctx, *jdPath)
	if err != nil {
		return err
	}
	resume, err := extractFile(ctx, *resumePath)
	if err != nil {
		return err
	}

	a, err := newAnalyzer(ctx, cfg)
	if err != nil {
		return err
	}
	result, err := a.Analyze(ctx, jd, resume)
	if err != nil {
		return err
	}
	if result.Fallback {
		fmt.Fprintln(os.Stderr, "提示: 模型配额已用尽，以下为本地生成的替代结果")
	}
	return printJSON(struct {
		*analyzer.Result
		Shortlisted bool `json:"shortlisted"`
	}{result, analyzer.IsShortlisted(result.RelevanceScore)})
}

func runTitle(args []string) error {
	fs := pflag.NewFlagSet("title", pflag.ExitOnError)
	cfgPath := configFlag(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("需要且只能提供一个岗位描述文件")
	}

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	jd, err := extractFile(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	a, err := newAnalyzer(ctx, cfg)
	if err != nil {
		return err
	}
	title, err := a.ExtractTitle(ctx, jd)
	if err != nil {
		return err
	}
	fmt.Println(strings.TrimSpace(title.Title))
	return nil
}

func newAnalyzer(ctx context.Context, cfg *config.Config) (*analyzer.Analyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	chatModel, err := llm.NewChatModel(ctx, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("初始化大模型失败: %w", err)
	}
	titleModel, err := llm.NewTitleModel(ctx, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("初始化标题模型失败: %w", err)
	}
	return analyzer.New(
		ratelimit.NewRateLimitedLLMModel(chatModel, cfg.LLM.QPM),
		analyzer.WithTitleModel(ratelimit.NewRateLimitedLLMModel(titleModel, cfg.LLM.QPM)),
		analyzer.WithLogger(logger.Logger),
	), nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
