package storage

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"resume-match-go/internal/storage/models"
)

// CreateCandidate 创建候选人，所属岗位必须存在
func (d *Database) CreateCandidate(ctx context.Context, c *models.Candidate) error {
	if _, err := d.GetJob(ctx, c.JobID); err != nil {
		return err
	}
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: 候选人姓名不能为空", ErrInvalidInput)
	}
	if c.Email != nil {
		normalized, err := NormalizeEmail(*c.Email)
		if err != nil {
			return err
		}
		c.Email = normalized
	}
	return d.db.WithContext(ctx).Create(c).Error
}

// GetCandidate 按 ID 获取候选人
func (d *Database) GetCandidate(ctx context.Context, id uint) (*models.Candidate, error) {
	var c models.Candidate
	if err := d.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &c, nil
}

// ListCandidatesByJob 列出岗位下的候选人，新的在前
func (d *Database) ListCandidatesByJob(ctx context.Context, jobID uint) ([]models.Candidate, error) {
	var list []models.Candidate
	err := d.db.WithContext(ctx).
		Where("job_id = ?", jobID).
		Order("created_at DESC").Order("id DESC").
		Find(&list).Error
	return list, err
}

// UpdateCandidateEmail 设置或清空邮箱，并发修改时后写覆盖
func (d *Database) UpdateCandidateEmail(ctx context.Context, id uint, email string) (*models.Candidate, error) {
	normalized, err := NormalizeEmail(email)
	if err != nil {
		return nil, err
	}
	res := d.db.WithContext(ctx).Model(&models.Candidate{}).Where("id = ?", id).Update("email", normalized)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		// sqlite 在值未变化时也会计入影响行数，mysql 不会，需再确认一次
		if _, err := d.GetCandidate(ctx, id); err != nil {
			return nil, err
		}
	}
	return d.GetCandidate(ctx, id)
}

// DeleteCandidate 删除候选人及其分析结果
func (d *Database) DeleteCandidate(ctx context.Context, id uint) error {
	res := d.db.WithContext(ctx).Delete(&models.Candidate{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: candidate %d", ErrNotFound, id)
	}
	return nil
}

// NormalizeEmail 空串表示清空，返回 nil；否则校验格式并返回地址部分
func NormalizeEmail(email string) (*string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, nil
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(addr.Address[strings.LastIndex(addr.Address, "@")+1:], ".") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidEmail, email)
	}
	return &addr.Address, nil
}
