package storage

import (
	"context"
	"testing"

	"resume-match-go/internal/config"
	"resume-match-go/internal/storage/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDatabase(t *testing.T) *Database {
	t.Helper()
	db, err := NewDatabase(&config.DatabaseConfig{Driver: "sqlite", SQLite: config.SQLiteConfig{Path: ":memory:"}, LogLevel: 1})
	require.NoError(t, err, "创建内存数据库不应返回错误")
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func mustCreateJob(t *testing.T, db *Database, title string) *models.Job {
	t.Helper()
	job := &models.Job{Title: title, Company: "Acme", Description: "Build Go services"}
	require.NoError(t, db.CreateJob(context.Background(), job))
	return job
}

func mustCreateCandidate(t *testing.T, db *Database, jobID uint, name string) *models.Candidate {
	t.Helper()
	c := &models.Candidate{Name: name, ResumeFilename: name + ".pdf", JobID: jobID}
	require.NoError(t, db.CreateCandidate(context.Background(), c))
	return c
}

func mustAnalyze(t *testing.T, db *Database, candidateID uint, score int) {
	t.Helper()
	r := &models.AnalysisResult{CandidateID: candidateID, Score: score, Verdict: "Medium", Summary: "s", Feedback: "f", Source: "model"}
	require.NoError(t, r.SetMissingSkills([]string{"Kubernetes"}))
	require.NoError(t, db.CreateAnalysisResult(context.Background(), r))
}

func TestJobLifecycle(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()

	assert.Error(t, db.CreateJob(ctx, &models.Job{Title: " ", Description: "x"}), "标题为空应拒绝")
	assert.Error(t, db.CreateJob(ctx, &models.Job{Title: "Go", Description: "  "}), "描述为空应拒绝")

	job := mustCreateJob(t, db, "  Backend Engineer ")
	assert.NotZero(t, job.ID)
	assert.Equal(t, "Backend Engineer", job.Title)

	got, err := db.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.Company)

	_, err = db.GetJob(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, db.DeleteJob(ctx, 9999), ErrNotFound)
}

func TestDeleteJobCascades(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()

	job := mustCreateJob(t, db, "Go")
	c := mustCreateCandidate(t, db, job.ID, "Alice")
	mustAnalyze(t, db, c.ID, 80)

	require.NoError(t, db.DeleteJob(ctx, job.ID))

	_, err := db.GetCandidate(ctx, c.ID)
	assert.ErrorIs(t, err, ErrNotFound, "候选人应随岗位级联删除")
	_, err = db.GetAnalysisResultByCandidate(ctx, c.ID)
	assert.ErrorIs(t, err, ErrNotFound, "分析结果应随岗位级联删除")
}

func TestCreateCandidateRequiresJob(t *testing.T) {
	db := newTestDatabase(t)
	err := db.CreateCandidate(context.Background(), &models.Candidate{Name: "Bob", ResumeFilename: "bob.pdf", JobID: 42})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAnalysisResultUniquePerCandidate(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()

	job := mustCreateJob(t, db, "Go")
	c := mustCreateCandidate(t, db, job.ID, "Alice")
	mustAnalyze(t, db, c.ID, 70)

	dup := &models.AnalysisResult{CandidateID: c.ID, Score: 90, Verdict: "High", Summary: "s", Feedback: "f"}
	err := db.CreateAnalysisResult(ctx, dup)
	assert.ErrorIs(t, err, ErrDuplicateAnalysis)

	got, err := db.GetAnalysisResultByCandidate(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 70, got.Score, "第一次的结果应保持不变")
	assert.Equal(t, []string{"Kubernetes"}, got.Skills())

	assert.Error(t, db.CreateAnalysisResult(ctx, &models.AnalysisResult{CandidateID: c.ID, Score: 101}))
}

func TestUpdateCandidateEmail(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()

	job := mustCreateJob(t, db, "Go")
	c := mustCreateCandidate(t, db, job.ID, "Alice")

	updated, err := db.UpdateCandidateEmail(ctx, c.ID, " alice@example.com ")
	require.NoError(t, err)
	require.NotNil(t, updated.Email)
	assert.Equal(t, "alice@example.com", *updated.Email)

	_, err = db.UpdateCandidateEmail(ctx, c.ID, "not-an-email")
	assert.ErrorIs(t, err, ErrInvalidEmail)

	cleared, err := db.UpdateCandidateEmail(ctx, c.ID, "")
	require.NoError(t, err)
	assert.Nil(t, cleared.Email, "空串表示清空邮箱")

	_, err = db.UpdateCandidateEmail(ctx, 9999, "x@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNormalizeEmail(t *testing.T) {
	valid := []string{"a@b.co", "first.last+tag@example.com"}
	for _, e := range valid {
		got, err := NormalizeEmail(e)
		require.NoError(t, err, e)
		assert.Equal(t, e, *got)
	}

	invalid := []string{"bad", "a@b", "Alice <a@b.co>", "a@@b.co"}
	for _, e := range invalid {
		_, err := NormalizeEmail(e)
		assert.ErrorIs(t, err, ErrInvalidEmail, e)
	}
}
