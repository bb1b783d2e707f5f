// Package processor 编排岗位创建、简历批量筛选、求职信分析、看板统计和入围通知
package processor

import (
	"context"
	"time"

	"resume-match-go/internal/analyzer"
	"resume-match-go/internal/notification"
	"resume-match-go/internal/outbox"
	"resume-match-go/internal/parser"
	"resume-match-go/internal/storage"

	"github.com/rs/zerolog"
)

// TextExtractor 从上传文件中提取文本，失败时返回空串
type TextExtractor interface {
	Extract(ctx context.Context, data []byte, docType parser.DocumentType) string
}

// MatchAnalyzer 简历与岗位的匹配分析
type MatchAnalyzer interface {
	Analyze(ctx context.Context, jobDescription, resumeText string) (*analyzer.Result, error)
	ExtractTitle(ctx context.Context, jobDescription string) (analyzer.TitleResult, error)
}

// Notifier 批量发送入围通知
type Notifier interface {
	SendBulk(ctx context.Context, recipients []notification.Recipient) []notification.BulkResult
}

// StatsCache 看板统计缓存
type StatsCache interface {
	GetJSON(ctx context.Context, key string, dest any) error
	SetJSON(ctx context.Context, key string, value any, expiration time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// Upload 一个上传的文件
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Service 业务编排
type Service struct {
	db        *storage.Database
	extractor TextExtractor
	analyzer  MatchAnalyzer
	notifier  Notifier

	objects storage.ObjectStorage
	cache   StatsCache
	events  *outbox.Recorder

	logger zerolog.Logger
	now    func() time.Time
}

// Option 可选组件
type Option func(*Service)

// WithObjectStorage 归档原始简历
func WithObjectStorage(o storage.ObjectStorage) Option {
	return func(s *Service) {
		s.objects = o
	}
}

// WithStatsCache 缓存看板统计
func WithStatsCache(c StatsCache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

// WithEvents 在写入分析结果和发送通知时记录领域事件
func WithEvents(r *outbox.Recorder) Option {
	return func(s *Service) {
		s.events = r
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// WithClock 替换时间源
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New 创建业务服务
func New(db *storage.Database, extractor TextExtractor, a MatchAnalyzer, notifier Notifier, opts ...Option) *Service {
	s := &Service{
		db:        db,
		extractor: extractor,
		analyzer:  a,
		notifier:  notifier,
		logger:    zerolog.Nop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With().Str("component", "processor").Logger()
	return s
}

// DB 底层数据库
func (s *Service) DB() *storage.Database {
	return s.db
}

// extractUpload 按文件名和类型提取文本，allowed 为空表示接受所有支持的类型
func (s *Service) extractUpload(ctx context.Context, op string, u *Upload, allowed ...parser.DocumentType) (string, error) {
	docType := parser.DetectDocumentType(u.Filename, u.ContentType)
	if docType == parser.DocumentUnknown {
		return "", newUnsupportedError(op, u.Filename, "支持 PDF、DOCX、TXT")
	}
	if len(allowed) > 0 {
		ok := false
		for _, t := range allowed {
			if t == docType {
				ok = true
				break
			}
		}
		if !ok {
			return "", newUnsupportedError(op, u.Filename, "仅接受 "+string(allowed[0]))
		}
	}
	text := s.extractor.Extract(ctx, u.Data, docType)
	if text == "" {
		return "", newEmptyTextError(op, u.Filename)
	}
	return text, nil
}
