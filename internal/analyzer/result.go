package analyzer

import (
	"strings"

	"resume-match-go/internal/constants"
)

// Verdict 匹配结论
type Verdict string

const (
	VerdictHigh   Verdict = "High"
	VerdictMedium Verdict = "Medium"
	VerdictLow    Verdict = "Low"
)

// ParseVerdict 大小写不敏感地解析结论，返回规范写法
func ParseVerdict(s string) (Verdict, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return VerdictHigh, true
	case "medium":
		return VerdictMedium, true
	case "low":
		return VerdictLow, true
	}
	return "", false
}

// Result 一次简历与岗位的匹配分析结果
type Result struct {
	RelevanceScore       int      `json:"relevance_score"`
	FitVerdict           Verdict  `json:"fit_verdict"`
	Summary              string   `json:"summary"`
	PersonalizedFeedback string   `json:"personalized_feedback"`
	MissingSkills        []string `json:"missing_skills"`
	// Fallback 为 true 表示模型配额耗尽，结果为本地生成的替代数据
	Fallback bool `json:"fallback"`
}

// Source 结果来源，持久化到 analysis_results.source
func (r *Result) Source() string {
	if r.Fallback {
		return constants.AnalysisSourceFallback
	}
	return constants.AnalysisSourceModel
}

// TitleResult 岗位标题提取结果
type TitleResult struct {
	Title    string `json:"title"`
	Fallback bool   `json:"fallback"`
}

// VerdictForScore 降级结果使用的结论阈值: >=85 High, >=70 Medium, 其余 Low
func VerdictForScore(score int) Verdict {
	switch {
	case score >= 85:
		return VerdictHigh
	case score >= 70:
		return VerdictMedium
	default:
		return VerdictLow
	}
}

// IsShortlisted 分数达到入围线
func IsShortlisted(score int) bool {
	return score >= constants.ShortlistThreshold
}
