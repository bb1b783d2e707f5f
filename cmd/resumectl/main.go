package main

import (
	"fmt"
	"os"

	"resume-match-go/internal/config"
	"resume-match-go/internal/logger"

	"github.com/spf13/pflag"
)

const usage = `用法: resumectl <command> [flags]

命令:
  extract  提取简历/岗位文件的纯文本
  analyze  用岗位描述评估一份简历，输出 JSON 结果
  title    从岗位描述中提取岗位名称
  events   订阅领域事件并打印到标准输出
`

type command func(args []string) error

var commands = map[string]command{
	"extract": runExtract,
	"analyze": runAnalyze,
	"title":   runTitle,
	"events":  runEvents,
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	cmd, ok := commands[os.Args[1]]
	if !ok {
		fmt.Fprintf(os.Stderr, "错误: 未知命令 '%s'\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}
	if err := cmd(os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig 命令行工具只输出警告及以上级别的日志
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("加载配置失败: %w", err)
	}
	level := cfg.Logger.Level
	if level == "" || level == "info" || level == "debug" {
		level = "warn"
	}
	if err := logger.Init(logger.Config{Level: level, Format: "pretty", TimeFormat: "15:04:05"}); err != nil {
		return nil, err
	}
	return cfg, nil
}

func configFlag(fs *pflag.FlagSet) *string {
	return fs.StringP("config", "c", "internal/config/config.yaml", "Path to config file")
}
