package processor

import (
	"context"
	"errors"
	"strconv"

	"resume-match-go/internal/constants"
	"resume-match-go/internal/notification"
	"resume-match-go/internal/outbox"
	"resume-match-go/internal/storage"
)

// 跳过发送的原因
const (
	SkipNotFound       = "not_found"
	SkipOtherJob       = "other_job"
	SkipNotShortlisted = "not_shortlisted"
	SkipNoEmail        = "no_email"
	SkipDuplicate      = "duplicate"
)

// SkippedCandidate 不满足发送条件的候选人
type SkippedCandidate struct {
	CandidateID uint   `json:"candidate_id"`
	Reason      string `json:"reason"`
}

// NotifyReport 入围通知结果，Results 与输入中合格候选人的顺序一致
type NotifyReport struct {
	JobID   uint                      `json:"job_id"`
	Sent    int                       `json:"sent"`
	Failed  int                       `json:"failed"`
	Results []notification.BulkResult `json:"results"`
	Skipped []SkippedCandidate        `json:"skipped"`
}

// NotifyShortlisted 给所选候选人中已入围且有邮箱的人发送通知
func (s *Service) NotifyShortlisted(ctx context.Context, jobID uint, candidateIDs []uint) (*NotifyReport, error) {
	if len(candidateIDs) == 0 {
		return nil, newInputError("notify_shortlisted", "至少选择一个候选人")
	}
	job, err := s.db.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	report := &NotifyReport{
		JobID:   jobID,
		Results: []notification.BulkResult{},
		Skipped: []SkippedCandidate{},
	}
	seen := make(map[uint]bool, len(candidateIDs))
	var (
		eligible   []uint
		recipients []notification.Recipient
	)
	for _, id := range candidateIDs {
		if seen[id] {
			report.Skipped = append(report.Skipped, SkippedCandidate{id, SkipDuplicate})
			continue
		}
		seen[id] = true

		row, err := s.db.CandidateWithAnalysisByID(ctx, id)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				report.Skipped = append(report.Skipped, SkippedCandidate{id, SkipNotFound})
				continue
			}
			return nil, err
		}
		switch {
		case row.JobID != jobID:
			report.Skipped = append(report.Skipped, SkippedCandidate{id, SkipOtherJob})
		case !row.Shortlisted():
			report.Skipped = append(report.Skipped, SkippedCandidate{id, SkipNotShortlisted})
		case row.Email == nil || *row.Email == "":
			report.Skipped = append(report.Skipped, SkippedCandidate{id, SkipNoEmail})
		default:
			eligible = append(eligible, id)
			recipients = append(recipients, notification.Recipient{
				Name:     row.Name,
				Email:    *row.Email,
				JobTitle: job.Title,
				Company:  job.Company,
			})
		}
	}
	if len(recipients) == 0 {
		return report, nil
	}

	report.Results = s.notifier.SendBulk(ctx, recipients)
	for i, res := range report.Results {
		if res.Status.Success {
			report.Sent++
		} else {
			report.Failed++
		}
		if i < len(eligible) {
			s.recordNotified(ctx, jobID, eligible[i], res.Status)
		}
	}

	s.logger.Info().Uint("job_id", jobID).Int("sent", report.Sent).Int("failed", report.Failed).Int("skipped", len(report.Skipped)).Msg("入围通知发送完成")
	return report, nil
}

func (s *Service) recordNotified(ctx context.Context, jobID, candidateID uint, status notification.SendResult) {
	if s.events == nil {
		return
	}
	ev := outbox.ShortlistNotifiedEvent{
		CandidateID: candidateID,
		JobID:       jobID,
		Delivered:   status.Success,
		OccurredAt:  s.now(),
	}
	if !status.Success {
		ev.Error = status.Message
	}
	err := s.events.Record(s.db.DB().WithContext(ctx), strconv.FormatUint(uint64(candidateID), 10), constants.EventShortlistNotified, ev)
	if err != nil {
		s.logger.Warn().Err(err).Uint("candidate_id", candidateID).Msg("记录通知事件失败")
	}
}
