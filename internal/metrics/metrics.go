// Package metrics Prometheus 指标
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 分析结果
const (
	OutcomeSuccess  = "success"
	OutcomeFallback = "fallback"
	OutcomeError    = "error"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP 请求总数",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = promauto.NewSummaryVec(prometheus.SummaryOpts{
		Name:       "http_request_duration_seconds",
		Help:       "HTTP 请求耗时",
		Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
	}, []string{"method", "route"})

	// AnalysesTotal outcome: success | fallback | error
	AnalysesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "resume_analyses_total",
		Help: "简历分析次数",
	}, []string{"outcome"})

	FallbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "resume_analysis_fallbacks_total",
		Help: "配额耗尽时使用替代结果的次数",
	})

	// EmailsTotal status: sent | failed | skipped
	EmailsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shortlist_emails_total",
		Help: "入围通知邮件发送次数",
	}, []string{"status"})
)

// ObserveAnalysis 记录一次分析的结果
func ObserveAnalysis(fallback bool, err error) {
	switch {
	case err != nil:
		AnalysesTotal.WithLabelValues(OutcomeError).Inc()
	case fallback:
		AnalysesTotal.WithLabelValues(OutcomeFallback).Inc()
		FallbacksTotal.Inc()
	default:
		AnalysesTotal.WithLabelValues(OutcomeSuccess).Inc()
	}
}
