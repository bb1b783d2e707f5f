// Package scheduler 定时维护任务
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job 定时任务
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Scheduler 基于 cron 表达式调度任务，同一任务上一轮未结束时跳过本轮
type Scheduler struct {
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
	logger zerolog.Logger
}

// New 创建调度器
func New(logger zerolog.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	l := logger.With().Str("component", "scheduler").Logger()
	return &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(cronLogger{l}),
			cron.SkipIfStillRunning(cronLogger{l}),
		)),
		ctx:    ctx,
		cancel: cancel,
		logger: l,
	}
}

// Add 注册任务，spec 为标准五段式或 @every/@hourly 等描述符
func (s *Scheduler) Add(spec string, job Job) error {
	if _, err := s.cron.AddJob(spec, s.build(job)); err != nil {
		return fmt.Errorf("注册定时任务 %s 失败: %w", job.Name(), err)
	}
	s.logger.Info().Str("job", job.Name()).Str("spec", spec).Msg("定时任务已注册")
	return nil
}

// RunNow 立即同步执行一次
func (s *Scheduler) RunNow(job Job) {
	s.build(job).Run()
}

func (s *Scheduler) build(job Job) cron.Job {
	name := job.Name()
	return cron.FuncJob(func() {
		start := time.Now()
		s.logger.Debug().Str("job", name).Msg("开始运行")
		if err := job.Run(s.ctx); err != nil {
			s.logger.Error().Err(err).Str("job", name).Msg("执行失败")
		}
		s.logger.Debug().Str("job", name).Dur("cost", time.Since(start)).Msg("结束运行")
	})
}

// Start 后台启动
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop 停止调度并等待运行中的任务结束，ctx 到期后不再等待
func (s *Scheduler) Stop(ctx context.Context) {
	s.cancel()
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn().Msg("等待定时任务结束超时")
	}
}

// cronLogger 把 cron 内部日志转到 zerolog
type cronLogger struct {
	l zerolog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug().Fields(keysAndValues).Msg(msg)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
