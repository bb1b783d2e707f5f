package processor

import (
	"context"
	"errors"
	"strings"

	"resume-match-go/internal/analyzer"
	"resume-match-go/internal/constants"
	"resume-match-go/internal/storage/models"
)

// JobInput 创建岗位的输入，File 提取出的文本优先于 Description
type JobInput struct {
	Company     string
	Title       string
	Description string
	File        *Upload
}

// JobCreated 创建结果
type JobCreated struct {
	Job *models.Job `json:"job"`
	// TitleSource provided | extracted | fallback | timestamp
	TitleSource string `json:"title_source"`
}

// 标题来源
const (
	TitleProvided  = "provided"
	TitleExtracted = "extracted"
	TitleFallback  = "fallback"
	TitleTimestamp = "timestamp"
)

// CreateJob 创建岗位，标题为空时由模型提取
func (s *Service) CreateJob(ctx context.Context, in JobInput) (*JobCreated, error) {
	company := strings.TrimSpace(in.Company)
	if company == "" {
		return nil, newInputError("create_job", "公司名称不能为空")
	}

	description := strings.TrimSpace(in.Description)
	if in.File != nil && len(in.File.Data) > 0 {
		text, err := s.extractUpload(ctx, "create_job", in.File)
		if err != nil {
			if description == "" {
				return nil, err
			}
			s.logger.Warn().Err(err).Str("file", in.File.Filename).Msg("岗位描述文件提取失败，使用文本描述")
		} else {
			description = text
		}
	}
	if description == "" {
		return nil, newInputError("create_job", "岗位描述不能为空")
	}

	title := strings.TrimSpace(in.Title)
	source := TitleProvided
	if title == "" {
		title, source = s.resolveTitle(ctx, description)
	}

	job := &models.Job{Title: title, Company: company, Description: description}
	if err := s.db.CreateJob(ctx, job); err != nil {
		return nil, err
	}
	s.invalidateStats(ctx)

	s.logger.Info().Uint("job_id", job.ID).Str("title", job.Title).Str("title_source", source).Msg("岗位已创建")
	return &JobCreated{Job: job, TitleSource: source}, nil
}

// resolveTitle 模型提取标题，配额耗尽用占位标题，其他失败用时间戳标题
func (s *Service) resolveTitle(ctx context.Context, description string) (string, string) {
	res, err := s.analyzer.ExtractTitle(ctx, description)
	if err == nil && res.Title != "" {
		if res.Fallback {
			return res.Title, TitleFallback
		}
		return res.Title, TitleExtracted
	}
	if err != nil && !errors.Is(err, analyzer.ErrTitleUnavailable) {
		s.logger.Warn().Err(err).Msg("提取岗位标题失败")
	}
	return constants.FallbackJobTitle + " " + s.now().Format(constants.JobTitleTimestampLayout), TitleTimestamp
}

// DeleteJob 删除岗位及其候选人、分析结果和归档文件
func (s *Service) DeleteJob(ctx context.Context, jobID uint) error {
	var keys []string
	if s.objects != nil {
		candidates, err := s.db.ListCandidatesByJob(ctx, jobID)
		if err == nil {
			for _, c := range candidates {
				if c.ResumeObjectKey != "" {
					keys = append(keys, c.ResumeObjectKey)
				}
			}
		}
	}

	if err := s.db.DeleteJob(ctx, jobID); err != nil {
		return err
	}
	s.invalidateStats(ctx)

	for _, key := range keys {
		if err := s.objects.DeleteFile(ctx, key); err != nil {
			s.logger.Warn().Err(err).Str("object_key", key).Msg("删除归档简历失败")
		}
	}
	return nil
}
