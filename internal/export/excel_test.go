package export

import (
	"bytes"
	"testing"
	"time"

	"resume-match-go/internal/storage"
	"resume-match-go/internal/storage/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func ptr[T any](v T) *T { return &v }

func sampleRows() []storage.CandidateWithAnalysis {
	created := time.Date(2024, 3, 5, 9, 30, 0, 0, time.UTC)
	return []storage.CandidateWithAnalysis{
		{ID: 2, Name: "Alice Smith", Email: ptr("alice@example.com"), ResumeFilename: "alice_smith.pdf", JobID: 1, CreatedAt: created,
			Score: ptr(82), Verdict: ptr("High"), Summary: ptr("Strong Go background."), Source: ptr("model"), MissingSkills: []string{"Kubernetes", "gRPC"}},
		{ID: 3, Name: "Bob", ResumeFilename: "bob.pdf", JobID: 1, CreatedAt: created,
			Score: ptr(40), Verdict: ptr("Low"), Summary: ptr("Frontend."), Source: ptr("fallback"), MissingSkills: []string{}},
		{ID: 4, Name: "Carol", ResumeFilename: "carol.pdf", JobID: 1, CreatedAt: created},
	}
}

func TestWriteDashboard(t *testing.T) {
	avg := 61.0
	stats := &storage.DashboardStats{
		TotalJobs:        2,
		TotalCandidates:  3,
		ShortlistedCount: 1,
		Jobs: []storage.JobStats{
			{JobID: 2, Title: "Empty Role", Company: "Acme"},
			{JobID: 1, Title: "Go/Backend: Senior", Company: "Acme", Applicants: 3, Shortlisted: 1, Rejected: 1, AvgScore: &avg},
		},
	}
	jobs := []JobSheet{
		{Job: models.Job{ID: 2, Title: "Empty Role"}},
		{Job: models.Job{ID: 1, Title: "Go/Backend: Senior"}, Candidates: sampleRows()},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteDashboard(&buf, stats, jobs, time.Date(2024, 3, 6, 8, 0, 0, 0, time.UTC)))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Summary", "Jobs", "2 Empty Role", "1 Go Backend Senior"}, f.GetSheetList())

	v, err := f.GetCellValue("Summary", "B4")
	require.NoError(t, err)
	assert.Equal(t, "2", v, "岗位总数")

	v, err = f.GetCellValue("Jobs", "G2")
	require.NoError(t, err)
	assert.Equal(t, "N/A", v, "无分析结果的岗位平均分为 N/A")
	v, err = f.GetCellValue("Jobs", "G3")
	require.NoError(t, err)
	assert.Equal(t, "61", v)

	rows, err := f.GetRows("1 Go Backend Senior")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, candidateHeaders, rows[0])
	assert.Equal(t, "Alice Smith", rows[1][0])
	assert.Equal(t, "Kubernetes, gRPC", rows[1][6])
	assert.Equal(t, "Yes", rows[1][5])
	assert.Equal(t, "No", rows[2][5])
	assert.Equal(t, "Not analyzed", rows[3][5])
}

func TestWriteCandidates(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCandidates(&buf, models.Job{ID: 1, Title: "Backend Engineer"}, sampleRows()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Backend Engineer"}, f.GetSheetList())
	v, err := f.GetCellValue("Backend Engineer", "D2")
	require.NoError(t, err)
	assert.Equal(t, "82", v)
	v, err = f.GetCellValue("Backend Engineer", "D4")
	require.NoError(t, err)
	assert.Empty(t, v, "未分析的候选人没有分数")
}

func TestUniqueSheetName(t *testing.T) {
	used := map[string]bool{"Summary": true}
	assert.Equal(t, "Summary (2)", uniqueSheetName("Summary", used))
	assert.Equal(t, "Summary (3)", uniqueSheetName("Summary", used))
	assert.Equal(t, "Sheet", uniqueSheetName("[]:*", used))

	long := uniqueSheetName("A very long job title that exceeds the limit", used)
	assert.Len(t, []rune(long), maxSheetName)
	dup := uniqueSheetName("A very long job title that exceeds the limit", used)
	assert.Len(t, []rune(dup), maxSheetName)
	assert.NotEqual(t, long, dup)
}
