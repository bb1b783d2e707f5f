package outbox

import "time"

// AnalysisCompletedEvent 候选人分析完成
type AnalysisCompletedEvent struct {
	CandidateID uint      `json:"candidate_id"`
	JobID       uint      `json:"job_id"`
	Score       int       `json:"score"`
	Verdict     string    `json:"verdict"`
	Source      string    `json:"source"`
	Shortlisted bool      `json:"shortlisted"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// ShortlistNotifiedEvent 入围通知邮件发送结果
type ShortlistNotifiedEvent struct {
	CandidateID uint      `json:"candidate_id"`
	JobID       uint      `json:"job_id"`
	Delivered   bool      `json:"delivered"`
	Error       string    `json:"error,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}
