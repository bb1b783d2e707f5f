package processor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"resume-match-go/internal/analyzer"
	"resume-match-go/internal/config"
	"resume-match-go/internal/constants"
	"resume-match-go/internal/llm"
	"resume-match-go/internal/notification"
	"resume-match-go/internal/outbox"
	"resume-match-go/internal/parser"
	"resume-match-go/internal/storage"
	"resume-match-go/internal/storage/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testJD = "We need a Senior Go Engineer with Kubernetes experience."

	replyStrong = `{"relevance_score": 82, "fit_verdict": "High", "summary": "Strong Go background.", "personalized_feedback": "Great fit.", "missing_skills": ["Kubernetes"]}`
	replyWeak   = `{"relevance_score": 40, "fit_verdict": "Low", "summary": "Mostly frontend.", "personalized_feedback": "Learn Go.", "missing_skills": ["Go", "SQL"]}`
)

var fixedNow = time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC)

// plainExtractor 把上传内容原样当作文本
type plainExtractor struct{}

func (plainExtractor) Extract(_ context.Context, data []byte, _ parser.DocumentType) string {
	return strings.TrimSpace(string(data))
}

type memoryCache struct {
	mu      sync.Mutex
	items   map[string][]byte
	deletes int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: map[string][]byte{}}
}

func (c *memoryCache) GetJSON(_ context.Context, key string, dest any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.items[key]
	if !ok {
		return storage.ErrCacheMiss
	}
	return json.Unmarshal(data, dest)
}

func (c *memoryCache) SetJSON(_ context.Context, key string, value any, _ time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = data
	return nil
}

func (c *memoryCache) Del(ctx context.Context, keys ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.items, k)
	}
	c.deletes++
	return nil
}

type recordingNotifier struct {
	recipients []notification.Recipient
	failEmail  string
}

func (n *recordingNotifier) SendBulk(_ context.Context, recipients []notification.Recipient) []notification.BulkResult {
	n.recipients = append(n.recipients, recipients...)
	out := make([]notification.BulkResult, 0, len(recipients))
	for _, r := range recipients {
		status := notification.SendResult{Success: true, Message: "email sent successfully to " + r.Email}
		if r.Email == n.failEmail {
			status = notification.SendResult{Success: false, Message: "failed to send email: connection refused"}
		}
		out = append(out, notification.BulkResult{Candidate: r.Name, Email: r.Email, Status: status})
	}
	return out
}

type memoryObjects struct {
	objects map[string][]byte
	deleted []string
}

func (m *memoryObjects) UploadResume(_ context.Context, jobID uint, ext string, data []byte, _ string) (string, error) {
	key, err := storage.ResumeObjectKey(jobID, ext)
	if err != nil {
		return "", err
	}
	m.objects[key] = data
	return key, nil
}

func (m *memoryObjects) DownloadFile(_ context.Context, key string) ([]byte, error) {
	data, ok := m.objects[key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return data, nil
}

func (m *memoryObjects) GetPresignedURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "http://minio.local/" + key, nil
}

func (m *memoryObjects) DeleteFile(_ context.Context, key string) error {
	delete(m.objects, key)
	m.deleted = append(m.deleted, key)
	return nil
}

type fixture struct {
	svc      *Service
	db       *storage.Database
	model    *llm.MockChatClient
	cache    *memoryCache
	notifier *recordingNotifier
	objects  *memoryObjects
}

func newFixture(t *testing.T, replies ...llm.MockResponse) *fixture {
	t.Helper()
	db, err := storage.NewDatabase(&config.DatabaseConfig{Driver: "sqlite", SQLite: config.SQLiteConfig{Path: ":memory:"}, LogLevel: 1})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	f := &fixture{
		db:       db,
		model:    llm.NewMockChatClientSequential(replies),
		cache:    newMemoryCache(),
		notifier: &recordingNotifier{},
		objects:  &memoryObjects{objects: map[string][]byte{}},
	}
	a := analyzer.New(f.model, analyzer.WithRandom(func(int) int { return 0 }), analyzer.WithLogger(zerolog.Nop()))
	f.svc = New(db, plainExtractor{}, a, f.notifier,
		WithStatsCache(f.cache),
		WithObjectStorage(f.objects),
		WithEvents(outbox.NewRecorder("")),
		WithLogger(zerolog.Nop()),
		WithClock(func() time.Time { return fixedNow }),
	)
	return f
}

func (f *fixture) createJob(t *testing.T) *models.Job {
	t.Helper()
	created, err := f.svc.CreateJob(context.Background(), JobInput{Company: "Acme", Title: "Go Engineer", Description: testJD})
	require.NoError(t, err)
	return created.Job
}

func (f *fixture) outboxCount(t *testing.T, eventType string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.DB().Model(&models.OutboxMessage{}).Where("event_type = ?", eventType).Count(&n).Error)
	return n
}

func pdf(name, text string) Upload {
	return Upload{Filename: name, ContentType: "application/pdf", Data: []byte(text)}
}

func TestCreateJobTitleResolution(t *testing.T) {
	testCases := []struct {
		name       string
		title      string
		reply      llm.MockResponse
		wantTitle  string
		wantSource string
		wantCalls  int
	}{
		{
			name:       "手动填写标题不调用模型",
			title:      "  Platform Engineer ",
			wantTitle:  "Platform Engineer",
			wantSource: TitleProvided,
		},
		{
			name:       "模型提取标题",
			reply:      llm.MockResponse{Content: "**Senior Go Engineer**"},
			wantTitle:  "Senior Go Engineer",
			wantSource: TitleExtracted,
			wantCalls:  1,
		},
		{
			name:       "配额耗尽使用占位标题",
			reply:      llm.MockResponse{Error: errors.New("Error 429: quota exceeded")},
			wantTitle:  constants.FallbackJobTitle,
			wantSource: TitleFallback,
			wantCalls:  1,
		},
		{
			name:       "其他失败使用时间戳标题",
			reply:      llm.MockResponse{Error: errors.New("connection reset by peer")},
			wantTitle:  "Job Position 20240305_140709",
			wantSource: TitleTimestamp,
			wantCalls:  1,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, tc.reply)
			created, err := f.svc.CreateJob(context.Background(), JobInput{Company: "Acme", Title: tc.title, Description: testJD})
			require.NoError(t, err)
			assert.Equal(t, tc.wantTitle, created.Job.Title)
			assert.Equal(t, tc.wantSource, created.TitleSource)
			assert.Equal(t, tc.wantCalls, f.model.Calls)
		})
	}
}

func TestCreateJobInputs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateJob(ctx, JobInput{Title: "Go", Description: testJD})
	assert.ErrorIs(t, err, ErrInvalidInput, "公司名称必填")

	_, err = f.svc.CreateJob(ctx, JobInput{Company: "Acme", Title: "Go"})
	assert.ErrorIs(t, err, ErrInvalidInput, "描述和文件都为空应拒绝")

	_, err = f.svc.CreateJob(ctx, JobInput{Company: "Acme", Title: "Go", File: &Upload{Filename: "jd.rtf", Data: []byte("x")}})
	assert.ErrorIs(t, err, ErrUnsupportedFile)

	created, err := f.svc.CreateJob(ctx, JobInput{
		Company:     "Acme",
		Title:       "Go",
		Description: "typed description",
		File:        &Upload{Filename: "jd.txt", Data: []byte("description from file")},
	})
	require.NoError(t, err)
	assert.Equal(t, "description from file", created.Job.Description, "文件文本优先")
}

func TestScreenResumesMixedOutcomes(t *testing.T) {
	f := newFixture(t,
		llm.MockResponse{Content: replyStrong},
		llm.MockResponse{Error: errors.New("upstream 500")},
		llm.MockResponse{Content: replyWeak},
	)
	job := f.createJob(t)
	ctx := context.Background()
	_, _ = f.svc.Dashboard(ctx)

	var progress [][2]int
	report, err := f.svc.ScreenResumes(ctx, job.ID, []Upload{
		pdf("alice_smith.pdf", "Alice resume"),
		{Filename: "bob.docx", Data: []byte("Bob resume")},
		pdf("carol-jones.pdf", "Carol resume"),
		pdf("empty.pdf", "   "),
		pdf("dave.pdf", "Dave resume"),
	}, func(done, total int) { progress = append(progress, [2]int{done, total}) })
	require.NoError(t, err)

	assert.Equal(t, 5, report.Total)
	assert.Equal(t, 5, report.Processed)
	assert.Equal(t, 2, report.Analyzed)
	assert.Equal(t, 2, report.Failed)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, [][2]int{{1, 5}, {2, 5}, {3, 5}, {4, 5}, {5, 5}}, progress)

	names := make([]string, 0, len(report.Outcomes))
	statuses := make([]string, 0, len(report.Outcomes))
	for _, o := range report.Outcomes {
		names = append(names, o.Filename)
		statuses = append(statuses, o.Status)
	}
	assert.Equal(t, []string{"alice_smith.pdf", "bob.docx", "carol-jones.pdf", "empty.pdf", "dave.pdf"}, names, "结果与上传顺序一致")
	assert.Equal(t, []string{StatusAnalyzed, StatusSkipped, StatusFailed, StatusFailed, StatusAnalyzed}, statuses)
	assert.Equal(t, "Alice Smith", report.Outcomes[0].Candidate)
	assert.Equal(t, 82, report.Outcomes[0].Result.RelevanceScore)
	assert.Equal(t, string(analyzer.KindProvider), report.Outcomes[2].ErrorKind)

	rows, err := f.db.CandidatesWithAnalysis(ctx, job.ID)
	require.NoError(t, err)
	require.Len(t, rows, 3, "分析失败的候选人保留，未提取文本的不创建")
	byName := map[string]storage.CandidateWithAnalysis{}
	for _, r := range rows {
		byName[r.Name] = r
	}
	assert.False(t, byName["Carol Jones"].Analyzed(), "分析失败不回滚候选人")
	require.True(t, byName["Alice Smith"].Analyzed())
	assert.Equal(t, constants.AnalysisSourceModel, *byName["Alice Smith"].Source)
	assert.Equal(t, []string{"Go", "SQL"}, byName["Dave"].MissingSkills)

	assert.Equal(t, int64(2), f.outboxCount(t, constants.EventAnalysisCompleted))
	assert.Len(t, f.objects.objects, 3, "创建的候选人都归档原始文件")

	_, cached := f.cache.items[constants.KeyDashboardStats]
	assert.False(t, cached, "筛选后应清除看板缓存")
}

func TestScreenResumesQuotaFallbackIsPersisted(t *testing.T) {
	f := newFixture(t, llm.MockResponse{Error: errors.New("RESOURCE_EXHAUSTED: quota exceeded")})
	job := f.createJob(t)
	ctx := context.Background()

	report, err := f.svc.ScreenResumes(ctx, job.ID, []Upload{pdf("erin.pdf", "Erin resume")}, nil)
	require.NoError(t, err)
	require.Equal(t, StatusAnalyzed, report.Outcomes[0].Status)
	assert.True(t, report.Outcomes[0].Result.Fallback)

	row, err := f.db.CandidateWithAnalysisByID(ctx, report.Outcomes[0].CandidateID)
	require.NoError(t, err)
	assert.Equal(t, 65, *row.Score)
	assert.Equal(t, constants.AnalysisSourceFallback, *row.Source)
}

func TestScreenResumesValidationErrorNotPersisted(t *testing.T) {
	f := newFixture(t, llm.MockResponse{
		Content: `{"relevance_score": 80, "fit_verdict": "High", "summary": "s", "personalized_feedback": "f"}`,
	})
	job := f.createJob(t)
	ctx := context.Background()

	report, err := f.svc.ScreenResumes(ctx, job.ID, []Upload{pdf("erin_ho.pdf", "Erin resume")}, nil)
	require.NoError(t, err)
	require.Len(t, report.Outcomes, 1)
	assert.Equal(t, StatusFailed, report.Outcomes[0].Status)
	assert.Equal(t, string(analyzer.KindValidation), report.Outcomes[0].ErrorKind)
	assert.Equal(t, 1, report.Failed)

	rows, err := f.db.CandidatesWithAnalysis(ctx, job.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1, "缺少 missing_skills 仍保留候选人")
	assert.Nil(t, rows[0].Score, "校验失败不写入分析结果")
	assert.False(t, rows[0].Analyzed())
	assert.Zero(t, f.outboxCount(t, constants.EventAnalysisCompleted))
}

func TestScreenResumesClearsCacheAfterCancel(t *testing.T) {
	f := newFixture(t, llm.MockResponse{Content: replyStrong})
	job := f.createJob(t)
	_, err := f.svc.Dashboard(context.Background())
	require.NoError(t, err)
	_, cached := f.cache.items[constants.KeyDashboardStats]
	require.True(t, cached)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	report, err := f.svc.ScreenResumes(ctx, job.ID, []Upload{pdf("alice_smith.pdf", "Alice resume")},
		func(done, total int) {
			if done == total {
				cancel()
			}
		})
	require.NoError(t, err)
	require.Equal(t, 1, report.Analyzed)

	_, cached = f.cache.items[constants.KeyDashboardStats]
	assert.False(t, cached, "请求取消后仍需清除看板缓存")
}

func TestScreenResumesUnknownJob(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.ScreenResumes(context.Background(), 42, []Upload{pdf("a.pdf", "x")}, nil)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	job := f.createJob(t)
	_, err = f.svc.ScreenResumes(context.Background(), job.ID, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDashboardUsesCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createJob(t)

	first, err := f.svc.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.TotalJobs)

	// 绕过服务直接写库，缓存未失效
	require.NoError(t, f.db.CreateJob(ctx, &models.Job{Title: "Direct", Company: "Acme", Description: "x"}))
	cached, err := f.svc.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cached.TotalJobs)

	f.createJob(t)
	fresh, err := f.svc.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), fresh.TotalJobs)
	assert.Len(t, fresh.Jobs, 3)

	quick, err := f.svc.QuickStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), quick.TotalJobs)
}

func TestDeleteJobRemovesArchivedResumes(t *testing.T) {
	f := newFixture(t, llm.MockResponse{Content: replyStrong})
	job := f.createJob(t)
	ctx := context.Background()

	_, err := f.svc.ScreenResumes(ctx, job.ID, []Upload{pdf("alice.pdf", "Alice")}, nil)
	require.NoError(t, err)
	require.Len(t, f.objects.objects, 1)

	require.NoError(t, f.svc.DeleteJob(ctx, job.ID))
	assert.Empty(t, f.objects.objects)
	assert.Len(t, f.objects.deleted, 1)

	_, err = f.db.GetJob(ctx, job.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDeleteCandidate(t *testing.T) {
	f := newFixture(t, llm.MockResponse{Content: replyStrong})
	job := f.createJob(t)
	ctx := context.Background()

	report, err := f.svc.ScreenResumes(ctx, job.ID, []Upload{pdf("alice.pdf", "Alice")}, nil)
	require.NoError(t, err)
	id := report.Outcomes[0].CandidateID

	require.NoError(t, f.svc.DeleteCandidate(ctx, id))
	assert.Empty(t, f.objects.objects)
	assert.ErrorIs(t, f.svc.DeleteCandidate(ctx, id), storage.ErrNotFound)
}

func TestNotifyShortlisted(t *testing.T) {
	f := newFixture(t,
		llm.MockResponse{Content: replyStrong},
		llm.MockResponse{Content: replyStrong},
		llm.MockResponse{Content: replyWeak},
		llm.MockResponse{Content: replyStrong},
		llm.MockResponse{Content: replyStrong},
	)
	ctx := context.Background()
	job := f.createJob(t)
	other := f.createJob(t)

	report, err := f.svc.ScreenResumes(ctx, job.ID, []Upload{
		pdf("alice.pdf", "A"), pdf("bob.pdf", "B"), pdf("carol.pdf", "C"), pdf("erin.pdf", "E"),
	}, nil)
	require.NoError(t, err)
	alice, bob, carol, erin := report.Outcomes[0].CandidateID, report.Outcomes[1].CandidateID, report.Outcomes[2].CandidateID, report.Outcomes[3].CandidateID

	otherReport, err := f.svc.ScreenResumes(ctx, other.ID, []Upload{pdf("dave.pdf", "D")}, nil)
	require.NoError(t, err)
	dave := otherReport.Outcomes[0].CandidateID

	for id, email := range map[uint]string{alice: "alice@example.com", carol: "carol@example.com", dave: "dave@example.com", erin: "erin@example.com"} {
		_, err := f.svc.UpdateCandidateEmail(ctx, id, email)
		require.NoError(t, err)
	}
	f.notifier.failEmail = "alice@example.com"

	res, err := f.svc.NotifyShortlisted(ctx, job.ID, []uint{erin, bob, carol, dave, 999, alice, erin})
	require.NoError(t, err)

	require.Len(t, res.Results, 2)
	assert.Equal(t, "erin@example.com", res.Results[0].Email, "按输入顺序发送")
	assert.Equal(t, "alice@example.com", res.Results[1].Email)
	assert.Equal(t, 1, res.Sent)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, []SkippedCandidate{
		{bob, SkipNoEmail},
		{carol, SkipNotShortlisted},
		{dave, SkipOtherJob},
		{999, SkipNotFound},
		{erin, SkipDuplicate},
	}, res.Skipped)

	require.Len(t, f.notifier.recipients, 2)
	assert.Equal(t, "Go Engineer", f.notifier.recipients[0].JobTitle)
	assert.Equal(t, "Acme", f.notifier.recipients[0].Company)
	assert.Equal(t, int64(2), f.outboxCount(t, constants.EventShortlistNotified))

	_, err = f.svc.NotifyShortlisted(ctx, job.ID, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAnalyzeCoverLetter(t *testing.T) {
	f := newFixture(t, llm.MockResponse{Content: replyStrong}, llm.MockResponse{Content: replyWeak})
	ctx := context.Background()

	report, err := f.svc.AnalyzeCoverLetter(ctx, CoverLetterInput{
		JobDescription: testJD,
		ResumeFile:     &Upload{Filename: "resume.txt", Data: []byte("Resume from file")},
		ResumeText:     "typed resume",
	})
	require.NoError(t, err)
	assert.Equal(t, "Strong Match", report.Tips.Band)
	assert.Contains(t, f.model.LastPrompt(), "Resume from file", "文件文本优先")

	report, err = f.svc.AnalyzeCoverLetter(ctx, CoverLetterInput{JobDescription: testJD, ResumeText: "typed resume"})
	require.NoError(t, err)
	assert.Equal(t, "Developing Match", report.Tips.Band)

	_, err = f.svc.AnalyzeCoverLetter(ctx, CoverLetterInput{JobDescription: testJD})
	assert.ErrorIs(t, err, ErrInvalidInput)

	stats, err := f.db.QuickStats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalJobs, "求职信分析不落库")
	assert.Zero(t, stats.TotalCandidates)
}

func TestTipsForScore(t *testing.T) {
	testCases := []struct {
		score int
		band  string
	}{
		{100, "Strong Match"},
		{80, "Strong Match"},
		{79, "Good Match"},
		{65, "Good Match"},
		{64, "Developing Match"},
		{0, "Developing Match"},
	}
	for _, tc := range testCases {
		band := TipsForScore(tc.score)
		assert.Equal(t, tc.band, band.Band, "score=%d", tc.score)
		assert.Len(t, band.Tips, 5)
		assert.Len(t, band.KeyPoints, 6)
	}
}

func TestCandidateNameFromFilename(t *testing.T) {
	testCases := map[string]string{
		"john_doe.pdf":            "John Doe",
		"mary-jane_watson.PDF":    "Mary Jane Watson",
		"  spaced__out--name.pdf": "Spaced Out Name",
		"uploads/alice.pdf":       "Alice",
		".pdf":                    "Unknown Candidate",
		"___.pdf":                 "Unknown Candidate",
	}
	for in, want := range testCases {
		assert.Equal(t, want, CandidateNameFromFilename(in), in)
	}
}

func TestExportDashboard(t *testing.T) {
	f := newFixture(t, llm.MockResponse{Content: replyStrong})
	ctx := context.Background()
	job := f.createJob(t)
	_, err := f.svc.ScreenResumes(ctx, job.ID, []Upload{pdf("alice.pdf", "Alice")}, nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, f.svc.ExportDashboard(ctx, &buf))
	assert.NotZero(t, buf.Len())

	buf.Reset()
	require.NoError(t, f.svc.ExportCandidates(ctx, job.ID, &buf))
	assert.NotZero(t, buf.Len())

	assert.ErrorIs(t, f.svc.ExportCandidates(ctx, 999, &buf), storage.ErrNotFound)
}
