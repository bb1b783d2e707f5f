package storage

import (
	"context"
	"fmt"

	"resume-match-go/internal/storage/models"
)

// CreateAnalysisResult 保存分析结果，同一候选人第二次写入返回 ErrDuplicateAnalysis
func (d *Database) CreateAnalysisResult(ctx context.Context, r *models.AnalysisResult) error {
	if r.Score < 0 || r.Score > 100 {
		return fmt.Errorf("%w: 分数 %d 超出范围 0-100", ErrInvalidInput, r.Score)
	}
	if r.MissingSkills == nil {
		if err := r.SetMissingSkills(nil); err != nil {
			return err
		}
	}
	err := d.db.WithContext(ctx).Create(r).Error
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: candidate %d", ErrDuplicateAnalysis, r.CandidateID)
	}
	return err
}

// GetAnalysisResultByCandidate 获取候选人的分析结果，未分析返回 ErrNotFound
func (d *Database) GetAnalysisResultByCandidate(ctx context.Context, candidateID uint) (*models.AnalysisResult, error) {
	var r models.AnalysisResult
	if err := d.db.WithContext(ctx).Where("candidate_id = ?", candidateID).First(&r).Error; err != nil {
		return nil, translateError(err)
	}
	return &r, nil
}
