package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"resume-match-go/internal/logger"
	"resume-match-go/internal/parser"

	"github.com/spf13/pflag"
)

func runExtract(args []string) error {
	fs := pflag.NewFlagSet("extract", pflag.ExitOnError)
	maxLen := fs.Int("maxlen", -1, "显示的文本最大长度，-1 显示全部")
	save := fs.StringP("output", "o", "", "保存提取内容到文件")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("需要且只能提供一个文件路径")
	}
	if err := logger.Init(logger.Config{Level: "warn", Format: "pretty", TimeFormat: "15:04:05"}); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	text, err := extractFile(ctx, fs.Arg(0))
	if err != nil {
		return err
	}

	display := []rune(text)
	if *maxLen >= 0 && len(display) > *maxLen {
		display = append(display[:*maxLen], []rune("...(已截断)")...)
	}
	fmt.Println(string(display))

	if *save != "" {
		if err := os.WriteFile(*save, []byte(text), 0644); err != nil {
			return fmt.Errorf("保存到文件失败: %w", err)
		}
		fmt.Fprintf(os.Stderr, "文本已保存到: %s\n", *save)
	}
	return nil
}

// extractFile 按扩展名识别文档类型，提取失败或为空时报错
func extractFile(ctx context.Context, path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("无法获取文件的绝对路径: %w", err)
	}
	data, err := os.ReadFile(absPath)
	if err != nil {
		return "", fmt.Errorf("读取文件失败: %w", err)
	}
	docType := parser.DetectDocumentType(absPath, "")
	if docType == parser.DocumentUnknown {
		return "", fmt.Errorf("不支持的文件类型: %s", filepath.Ext(absPath))
	}

	eino, err := parser.NewEinoPDFTextExtractor(ctx)
	if err != nil {
		return "", fmt.Errorf("创建PDF解析器失败: %w", err)
	}
	text := parser.NewTextExtractor(eino).Extract(ctx, data, docType)
	if text == "" {
		return "", fmt.Errorf("未能从 %s 提取到文本", filepath.Base(absPath))
	}
	return text, nil
}
