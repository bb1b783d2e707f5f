package processor

import (
	"context"
	"path/filepath"
	"strings"

	"resume-match-go/internal/storage/models"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// CandidateNameFromFilename 由简历文件名推导候选人姓名：去扩展名，下划线和连字符换成空格，单词首字母大写
func CandidateNameFromFilename(filename string) string {
	base := filepath.Base(strings.ReplaceAll(filename, `\`, "/"))
	name := strings.TrimSuffix(base, filepath.Ext(base))
	name = strings.NewReplacer("_", " ", "-", " ").Replace(name)
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return "Unknown Candidate"
	}
	// Caser 有状态，不能跨 goroutine 共享
	return cases.Title(language.Und).String(name)
}

// UpdateCandidateEmail 设置或清空候选人邮箱
func (s *Service) UpdateCandidateEmail(ctx context.Context, candidateID uint, email string) (*models.Candidate, error) {
	return s.db.UpdateCandidateEmail(ctx, candidateID, email)
}

// DeleteCandidate 删除候选人及其分析结果和归档文件
func (s *Service) DeleteCandidate(ctx context.Context, candidateID uint) error {
	c, err := s.db.GetCandidate(ctx, candidateID)
	if err != nil {
		return err
	}
	if err := s.db.DeleteCandidate(ctx, candidateID); err != nil {
		return err
	}
	s.invalidateStats(ctx)

	if s.objects != nil && c.ResumeObjectKey != "" {
		if err := s.objects.DeleteFile(ctx, c.ResumeObjectKey); err != nil {
			s.logger.Warn().Err(err).Str("object_key", c.ResumeObjectKey).Msg("删除归档简历失败")
		}
	}
	return nil
}
