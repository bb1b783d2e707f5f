package storage

import (
	"context"
	"fmt"
	"strings"

	"resume-match-go/internal/storage/models"
)

// CreateJob 创建岗位
func (d *Database) CreateJob(ctx context.Context, job *models.Job) error {
	job.Title = strings.TrimSpace(job.Title)
	job.Company = strings.TrimSpace(job.Company)
	if job.Title == "" {
		return fmt.Errorf("%w: 岗位标题不能为空", ErrInvalidInput)
	}
	if strings.TrimSpace(job.Description) == "" {
		return fmt.Errorf("%w: 岗位描述不能为空", ErrInvalidInput)
	}
	return d.db.WithContext(ctx).Create(job).Error
}

// GetJob 按 ID 获取岗位
func (d *Database) GetJob(ctx context.Context, id uint) (*models.Job, error) {
	var job models.Job
	if err := d.db.WithContext(ctx).First(&job, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &job, nil
}

// ListJobs 按创建时间倒序列出岗位
func (d *Database) ListJobs(ctx context.Context) ([]models.Job, error) {
	var jobs []models.Job
	err := d.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Find(&jobs).Error
	return jobs, err
}

// DeleteJob 删除岗位，候选人和分析结果由外键级联删除
func (d *Database) DeleteJob(ctx context.Context, id uint) error {
	res := d.db.WithContext(ctx).Delete(&models.Job{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: job %d", ErrNotFound, id)
	}
	return nil
}
