package processor

import (
	"context"

	"resume-match-go/internal/storage"
	"resume-match-go/internal/storage/models"
)

// ListJobs 岗位列表，最新的在前
func (s *Service) ListJobs(ctx context.Context) ([]models.Job, error) {
	jobs, err := s.db.ListJobs(ctx)
	if err != nil {
		return nil, err
	}
	if jobs == nil {
		jobs = []models.Job{}
	}
	return jobs, nil
}

func (s *Service) GetJob(ctx context.Context, id uint) (*models.Job, error) {
	return s.db.GetJob(ctx, id)
}

// ListCandidates 岗位下的候选人，已分析的按分数从高到低，未分析的在最后
func (s *Service) ListCandidates(ctx context.Context, jobID uint, shortlistedOnly bool) ([]storage.CandidateWithAnalysis, error) {
	if _, err := s.db.GetJob(ctx, jobID); err != nil {
		return nil, err
	}
	rows, err := s.db.CandidatesWithAnalysis(ctx, jobID)
	if err != nil {
		return nil, err
	}
	out := make([]storage.CandidateWithAnalysis, 0, len(rows))
	for _, r := range rows {
		if shortlistedOnly && !r.Shortlisted() {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *Service) GetCandidate(ctx context.Context, id uint) (*storage.CandidateWithAnalysis, error) {
	return s.db.CandidateWithAnalysisByID(ctx, id)
}

// ShortlistedCandidates 所有岗位中已入围的候选人
func (s *Service) ShortlistedCandidates(ctx context.Context) ([]storage.CandidateWithAnalysis, error) {
	rows, err := s.db.ShortlistedCandidates(ctx)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []storage.CandidateWithAnalysis{}
	}
	return rows, nil
}
