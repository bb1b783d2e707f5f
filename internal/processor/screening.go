package processor

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"resume-match-go/internal/analyzer"
	"resume-match-go/internal/constants"
	"resume-match-go/internal/metrics"
	"resume-match-go/internal/outbox"
	"resume-match-go/internal/parser"
	"resume-match-go/internal/storage"
	"resume-match-go/internal/storage/models"
)

// 单个文件的处理状态
const (
	StatusAnalyzed = "analyzed"
	StatusFailed   = "failed"
	StatusSkipped  = "skipped"
)

// FileOutcome 批量筛选中单个文件的结果
type FileOutcome struct {
	Filename    string           `json:"filename"`
	Status      string           `json:"status"`
	CandidateID uint             `json:"candidate_id,omitempty"`
	Candidate   string           `json:"candidate,omitempty"`
	Result      *analyzer.Result `json:"result,omitempty"`
	Error       string           `json:"error,omitempty"`
	ErrorKind   string           `json:"error_kind,omitempty"`
}

// ScreeningReport 批量筛选结果，Outcomes 与上传顺序一致
type ScreeningReport struct {
	JobID     uint          `json:"job_id"`
	Total     int           `json:"total"`
	Processed int           `json:"processed"`
	Analyzed  int           `json:"analyzed"`
	Failed    int           `json:"failed"`
	Skipped   int           `json:"skipped"`
	Outcomes  []FileOutcome `json:"outcomes"`
}

// ProgressFunc 每处理完一个文件调用一次
type ProgressFunc func(done, total int)

// ScreenResumes 按上传顺序逐个处理简历：提取文本、创建候选人、分析并保存结果。
// 单个文件失败不影响后续文件；分析失败时候选人保留为未分析状态
func (s *Service) ScreenResumes(ctx context.Context, jobID uint, files []Upload, progress ProgressFunc) (*ScreeningReport, error) {
	job, err := s.db.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, newInputError("screen_resumes", "至少上传一个简历文件")
	}

	report := &ScreeningReport{JobID: jobID, Total: len(files), Outcomes: make([]FileOutcome, 0, len(files))}
	for i := range files {
		outcome := s.screenOne(ctx, job, &files[i])
		switch outcome.Status {
		case StatusAnalyzed:
			report.Analyzed++
		case StatusFailed:
			report.Failed++
		case StatusSkipped:
			report.Skipped++
		}
		report.Outcomes = append(report.Outcomes, outcome)
		report.Processed++
		if progress != nil {
			progress(report.Processed, report.Total)
		}
	}

	if report.Processed > report.Skipped {
		// 候选人已落库，调用方取消也要清缓存
		s.invalidateStats(context.WithoutCancel(ctx))
	}
	s.logger.Info().
		Uint("job_id", jobID).
		Int("total", report.Total).
		Int("analyzed", report.Analyzed).
		Int("failed", report.Failed).
		Int("skipped", report.Skipped).
		Msg("简历批量筛选完成")
	return report, nil
}

func (s *Service) screenOne(ctx context.Context, job *models.Job, file *Upload) FileOutcome {
	outcome := FileOutcome{Filename: file.Filename}

	text, err := s.extractUpload(ctx, "screen_resume", file, parser.DocumentPDF)
	if err != nil {
		outcome.Status = StatusSkipped
		if errors.Is(err, ErrEmptyText) {
			outcome.Status = StatusFailed
		}
		outcome.Error = err.Error()
		return outcome
	}

	candidate := &models.Candidate{
		Name:           CandidateNameFromFilename(file.Filename),
		ResumeFilename: file.Filename,
		JobID:          job.ID,
	}
	if err := s.db.CreateCandidate(ctx, candidate); err != nil {
		outcome.Status = StatusFailed
		outcome.Error = fmt.Sprintf("保存候选人失败: %v", err)
		return outcome
	}
	outcome.CandidateID = candidate.ID
	outcome.Candidate = candidate.Name

	s.archiveResume(ctx, candidate, file)

	result, err := s.analyzer.Analyze(ctx, job.Description, text)
	metrics.ObserveAnalysis(result != nil && result.Fallback, err)
	if err != nil {
		s.logger.Warn().Err(err).Uint("candidate_id", candidate.ID).Str("kind", string(analyzer.KindOf(err))).Msg("简历分析失败，候选人保持未分析状态")
		outcome.Status = StatusFailed
		outcome.Error = err.Error()
		outcome.ErrorKind = string(analyzer.KindOf(err))
		return outcome
	}

	if err := s.saveResult(ctx, job.ID, candidate.ID, result); err != nil {
		outcome.Status = StatusFailed
		outcome.Error = fmt.Sprintf("保存分析结果失败: %v", err)
		return outcome
	}

	outcome.Status = StatusAnalyzed
	outcome.Result = result
	return outcome
}

// saveResult 分析结果和领域事件在同一事务内写入
func (s *Service) saveResult(ctx context.Context, jobID, candidateID uint, result *analyzer.Result) error {
	return s.db.Transaction(ctx, func(tx *storage.Database) error {
		row := &models.AnalysisResult{
			CandidateID: candidateID,
			Score:       result.RelevanceScore,
			Verdict:     string(result.FitVerdict),
			Summary:     result.Summary,
			Feedback:    result.PersonalizedFeedback,
			Source:      result.Source(),
		}
		if err := row.SetMissingSkills(result.MissingSkills); err != nil {
			return err
		}
		if err := tx.CreateAnalysisResult(ctx, row); err != nil {
			return err
		}
		if s.events == nil {
			return nil
		}
		return s.events.Record(tx.DB(), strconv.FormatUint(uint64(candidateID), 10), constants.EventAnalysisCompleted, outbox.AnalysisCompletedEvent{
			CandidateID: candidateID,
			JobID:       jobID,
			Score:       result.RelevanceScore,
			Verdict:     string(result.FitVerdict),
			Source:      result.Source(),
			Shortlisted: analyzer.IsShortlisted(result.RelevanceScore),
			OccurredAt:  s.now(),
		})
	})
}

// archiveResume 归档原始文件，失败只记录日志
func (s *Service) archiveResume(ctx context.Context, c *models.Candidate, file *Upload) {
	if s.objects == nil {
		return
	}
	key, err := s.objects.UploadResume(ctx, c.JobID, parser.DocumentPDF.Extension(), file.Data, parser.DocumentPDF.ContentType())
	if err != nil {
		s.logger.Warn().Err(err).Uint("candidate_id", c.ID).Msg("归档原始简历失败")
		return
	}
	if err := s.db.DB().WithContext(ctx).Model(c).Update("resume_object_key", key).Error; err != nil {
		s.logger.Warn().Err(err).Uint("candidate_id", c.ID).Msg("记录归档位置失败")
	}
}
