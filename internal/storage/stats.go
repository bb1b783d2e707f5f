package storage

import (
	"context"
	"math"
	"time"

	"resume-match-go/internal/constants"
	"resume-match-go/internal/storage/models"
)

// CandidateWithAnalysis 候选人及其可选的分析结果，未分析时分析字段为 nil
type CandidateWithAnalysis struct {
	ID             uint      `json:"id"`
	Name           string    `json:"name"`
	Email          *string   `json:"email"`
	ResumeFilename string    `json:"resume_filename"`
	JobID          uint      `json:"job_id"`
	JobTitle       string    `json:"job_title"`
	Company        string    `json:"company"`
	CreatedAt      time.Time `json:"created_at"`

	Score         *int       `json:"score"`
	Verdict       *string    `json:"verdict"`
	Summary       *string    `json:"summary"`
	Feedback      *string    `json:"feedback"`
	MissingSkills []string   `gorm:"-" json:"missing_skills"`
	Source        *string    `json:"source"`
	AnalyzedAt    *time.Time `json:"analyzed_at"`
}

// Analyzed 是否已有分析结果
func (c CandidateWithAnalysis) Analyzed() bool {
	return c.Score != nil
}

// Shortlisted 分数达到入围线
func (c CandidateWithAnalysis) Shortlisted() bool {
	return c.Score != nil && *c.Score >= constants.ShortlistThreshold
}

type candidateRow struct {
	CandidateWithAnalysis
	MissingSkillsRaw []byte `gorm:"column:missing_skills_raw"`
}

const candidateSelect = `c.id, c.name, c.email, c.resume_filename, c.job_id, c.created_at,
	j.title AS job_title, j.company AS company,
	ar.score AS score, ar.verdict AS verdict, ar.summary AS summary, ar.feedback AS feedback,
	ar.missing_skills AS missing_skills_raw, ar.source AS source, ar.created_at AS analyzed_at`

// 未分析的排在最后，同分按新旧倒序
const candidateOrder = "CASE WHEN ar.score IS NULL THEN 1 ELSE 0 END, ar.score DESC, c.created_at DESC, c.id DESC"

func (d *Database) queryCandidates(ctx context.Context, where string, args ...any) ([]CandidateWithAnalysis, error) {
	var rows []candidateRow
	err := d.db.WithContext(ctx).
		Table("candidates AS c").
		Select(candidateSelect).
		Joins("JOIN jobs AS j ON j.id = c.job_id").
		Joins("LEFT JOIN analysis_results AS ar ON ar.candidate_id = c.id").
		Where(where, args...).
		Order(candidateOrder).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]CandidateWithAnalysis, len(rows))
	for i, row := range rows {
		out[i] = row.CandidateWithAnalysis
		if row.Score != nil {
			out[i].MissingSkills = models.DecodeSkills(row.MissingSkillsRaw)
		}
	}
	return out, nil
}

// CandidatesWithAnalysis 岗位下的候选人列表，分数倒序，未分析的在最后
func (d *Database) CandidatesWithAnalysis(ctx context.Context, jobID uint) ([]CandidateWithAnalysis, error) {
	return d.queryCandidates(ctx, "c.job_id = ?", jobID)
}

// CandidateWithAnalysisByID 单个候选人及其分析结果
func (d *Database) CandidateWithAnalysisByID(ctx context.Context, id uint) (*CandidateWithAnalysis, error) {
	rows, err := d.queryCandidates(ctx, "c.id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return &rows[0], nil
}

// ShortlistedCandidates 所有岗位中入围的候选人，分数倒序
func (d *Database) ShortlistedCandidates(ctx context.Context) ([]CandidateWithAnalysis, error) {
	return d.queryCandidates(ctx, "ar.score >= ?", constants.ShortlistThreshold)
}

// JobStats 单个岗位的统计
type JobStats struct {
	JobID       uint      `json:"job_id"`
	Title       string    `json:"title"`
	Company     string    `json:"company"`
	CreatedAt   time.Time `json:"created_at"`
	Applicants  int64     `json:"applicants"`
	Shortlisted int64     `json:"shortlisted"`
	Rejected    int64     `json:"rejected"`
	// AvgScore 已分析候选人的平均分，保留一位小数；没有结果时为 nil
	AvgScore *float64 `json:"avg_score"`
}

// DashboardStats 看板统计
type DashboardStats struct {
	TotalJobs        int64      `json:"total_jobs"`
	TotalCandidates  int64      `json:"total_candidates"`
	ShortlistedCount int64      `json:"shortlisted_count"`
	Jobs             []JobStats `json:"jobs"`
}

// QuickStats 首页概览
type QuickStats struct {
	TotalJobs        int64 `json:"total_jobs"`
	TotalCandidates  int64 `json:"total_candidates"`
	ShortlistedCount int64 `json:"shortlisted_count"`
}

// QuickStats 岗位数、候选人数、入围人数
func (d *Database) QuickStats(ctx context.Context) (*QuickStats, error) {
	db := d.db.WithContext(ctx)
	var qs QuickStats
	if err := db.Model(&models.Job{}).Count(&qs.TotalJobs).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Candidate{}).Count(&qs.TotalCandidates).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.AnalysisResult{}).Where("score >= ?", constants.ShortlistThreshold).Count(&qs.ShortlistedCount).Error; err != nil {
		return nil, err
	}
	return &qs, nil
}

// DashboardStats 汇总统计及每个岗位的明细，岗位按 ID 倒序
func (d *Database) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	qs, err := d.QuickStats(ctx)
	if err != nil {
		return nil, err
	}

	var jobs []JobStats
	err = d.db.WithContext(ctx).
		Table("jobs AS j").
		Select(`j.id AS job_id, j.title, j.company, j.created_at,
			COUNT(c.id) AS applicants,
			COALESCE(SUM(CASE WHEN ar.score >= ? THEN 1 ELSE 0 END), 0) AS shortlisted,
			COALESCE(SUM(CASE WHEN ar.score < ? THEN 1 ELSE 0 END), 0) AS rejected,
			AVG(ar.score) AS avg_score`, constants.ShortlistThreshold, constants.ShortlistThreshold).
		Joins("LEFT JOIN candidates AS c ON c.job_id = j.id").
		Joins("LEFT JOIN analysis_results AS ar ON ar.candidate_id = c.id").
		Group("j.id, j.title, j.company, j.created_at").
		Order("j.id DESC").
		Scan(&jobs).Error
	if err != nil {
		return nil, err
	}

	for i := range jobs {
		if jobs[i].AvgScore != nil {
			v := math.Round(*jobs[i].AvgScore*10) / 10
			jobs[i].AvgScore = &v
		}
	}
	if jobs == nil {
		jobs = []JobStats{}
	}

	return &DashboardStats{
		TotalJobs:        qs.TotalJobs,
		TotalCandidates:  qs.TotalCandidates,
		ShortlistedCount: qs.ShortlistedCount,
		Jobs:             jobs,
	}, nil
}
