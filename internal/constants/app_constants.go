package constants

import "time"

const (
	// ShortlistThreshold 入围分数线，过滤、着色和邮件资格统一使用
	ShortlistThreshold = 65

	// FallbackJobTitle 配额耗尽时标题提取返回的占位标题
	FallbackJobTitle = "Job Position"
	// JobTitleTimestampLayout 标题不可用时生成 "Job Position 20060102_150405"
	JobTitleTimestampLayout = "20060102_150405"

	// AnalysisSourceModel / AnalysisSourceFallback 标记分析结果来源
	AnalysisSourceModel    = "model"
	AnalysisSourceFallback = "fallback"

	DashboardCacheTTL = 60 * time.Second
	SessionTTL        = 24 * time.Hour
	SessionCookieName = "rm_session"

	// OutboxRetention 已发送的事件保留时长
	OutboxRetention = 7 * 24 * time.Hour
)

// 领域事件
const (
	EventsExchange = "resume_match.events"

	EventAnalysisCompleted = "analysis.completed"
	EventShortlistNotified = "shortlist.notified"

	OutboxStatusPending = "PENDING"
	OutboxStatusSent    = "SENT"
	OutboxStatusFailed  = "FAILED"
)
