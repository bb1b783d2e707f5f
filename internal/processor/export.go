package processor

import (
	"context"
	"io"

	"resume-match-go/internal/export"
)

// ExportDashboard 导出看板和每个岗位的候选人
func (s *Service) ExportDashboard(ctx context.Context, w io.Writer) error {
	stats, err := s.db.DashboardStats(ctx)
	if err != nil {
		return err
	}
	jobs, err := s.db.ListJobs(ctx)
	if err != nil {
		return err
	}

	sheets := make([]export.JobSheet, 0, len(jobs))
	for _, job := range jobs {
		rows, err := s.db.CandidatesWithAnalysis(ctx, job.ID)
		if err != nil {
			return err
		}
		sheets = append(sheets, export.JobSheet{Job: job, Candidates: rows})
	}
	return export.WriteDashboard(w, stats, sheets, s.now())
}

// ExportCandidates 导出单个岗位的候选人列表
func (s *Service) ExportCandidates(ctx context.Context, jobID uint, w io.Writer) error {
	job, err := s.db.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	rows, err := s.db.CandidatesWithAnalysis(ctx, jobID)
	if err != nil {
		return err
	}
	return export.WriteCandidates(w, *job, rows)
}
