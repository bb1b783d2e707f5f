package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Job 岗位
type Job struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Title       string    `gorm:"type:varchar(255);not null" json:"title"`
	Company     string    `gorm:"type:varchar(255);not null;default:''" json:"company"`
	Description string    `gorm:"type:text;not null" json:"description"`
	CreatedAt   time.Time `gorm:"not null;index:idx_jobs_created_at" json:"created_at"`
}

func (Job) TableName() string {
	return "jobs"
}

// Candidate 候选人，姓名由上传文件名推导
type Candidate struct {
	ID             uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name           string  `gorm:"type:varchar(255);not null" json:"name"`
	Email          *string `gorm:"type:varchar(255)" json:"email"`
	ResumeFilename string  `gorm:"type:varchar(255);not null" json:"resume_filename"`
	// ResumeObjectKey 原始简历在对象存储中的位置，未归档时为空
	ResumeObjectKey string    `gorm:"type:varchar(512);not null;default:''" json:"resume_object_key,omitempty"`
	JobID           uint      `gorm:"not null;index:idx_candidates_job_id" json:"job_id"`
	CreatedAt       time.Time `gorm:"not null" json:"created_at"`

	Job *Job `gorm:"foreignKey:JobID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

func (Candidate) TableName() string {
	return "candidates"
}

// AnalysisResult 匹配分析结果，每个候选人至多一条
type AnalysisResult struct {
	ID            uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	CandidateID   uint           `gorm:"not null;uniqueIndex:idx_analysis_results_candidate_id" json:"candidate_id"`
	Score         int            `gorm:"not null;index:idx_analysis_results_score" json:"score"`
	Verdict       string         `gorm:"type:varchar(10);not null" json:"verdict"`
	Summary       string         `gorm:"type:text;not null" json:"summary"`
	Feedback      string         `gorm:"type:text;not null" json:"feedback"`
	MissingSkills datatypes.JSON `json:"missing_skills"` // string[]
	// Source model 或 fallback，区分模型输出和配额耗尽时的替代数据
	Source    string    `gorm:"type:varchar(16);not null;default:'model'" json:"source"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`

	Candidate *Candidate `gorm:"foreignKey:CandidateID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

func (AnalysisResult) TableName() string {
	return "analysis_results"
}

// SetMissingSkills 序列化缺失技能列表，nil 按空列表存储
func (r *AnalysisResult) SetMissingSkills(skills []string) error {
	if skills == nil {
		skills = []string{}
	}
	data, err := json.Marshal(skills)
	if err != nil {
		return err
	}
	r.MissingSkills = datatypes.JSON(data)
	return nil
}

// Skills 反序列化缺失技能列表
func (r *AnalysisResult) Skills() []string {
	return DecodeSkills(r.MissingSkills)
}

// DecodeSkills 解析 JSON 编码的技能列表，格式错误时返回空列表
func DecodeSkills(raw []byte) []string {
	skills := []string{}
	if len(raw) == 0 {
		return skills
	}
	if err := json.Unmarshal(raw, &skills); err != nil || skills == nil {
		return []string{}
	}
	return skills
}
