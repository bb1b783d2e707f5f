package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"
	"testing"

	"resume-match-go/internal/analyzer"
	"resume-match-go/internal/api/handler"
	"resume-match-go/internal/api/router"
	"resume-match-go/internal/config"
	"resume-match-go/internal/llm"
	"resume-match-go/internal/notification"
	notificationmocks "resume-match-go/internal/notification/mocks"
	"resume-match-go/internal/parser"
	"resume-match-go/internal/processor"
	"resume-match-go/internal/session"
	"resume-match-go/internal/storage"

	hertzconfig "github.com/cloudwego/hertz/pkg/common/config"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/cloudwego/hertz/pkg/route"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const (
	jd          = "We need a Senior Go Engineer with Kubernetes experience."
	strongReply = `{"relevance_score": 88, "fit_verdict": "High", "summary": "Great.", "personalized_feedback": "Keep going.", "missing_skills": []}`
	weakReply   = `{"relevance_score": 30, "fit_verdict": "Low", "summary": "Weak.", "personalized_feedback": "Learn Go.", "missing_skills": ["Go"]}`
)

type plainExtractor struct{}

func (plainExtractor) Extract(_ context.Context, data []byte, _ parser.DocumentType) string {
	return strings.TrimSpace(string(data))
}

type testServer struct {
	engine *route.Engine
	model  *llm.MockChatClient
	sent   []notification.Message
}

func newTestServer(t *testing.T, apiKeys []string, replies ...llm.MockResponse) *testServer {
	t.Helper()
	db, err := storage.NewDatabase(&config.DatabaseConfig{Driver: "sqlite", SQLite: config.SQLiteConfig{Path: ":memory:"}, LogLevel: 1})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ts := &testServer{model: llm.NewMockChatClientSequential(replies)}

	ctrl := gomock.NewController(t)
	sender := notificationmocks.NewMockSender(ctrl)
	sender.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, msg notification.Message) error {
		ts.sent = append(ts.sent, msg)
		return nil
	}).AnyTimes()
	mailer := notification.NewMailer(config.MailConfig{
		Server:        "smtp.example.com",
		Port:          587,
		UseTLS:        true,
		Username:      "hr@example.com",
		Password:      "app-password",
		DefaultSender: "jobs@example.com",
		AppName:       "Resume Match AI",
	}, sender, zerolog.Nop())

	a := analyzer.New(ts.model, analyzer.WithLogger(zerolog.Nop()))
	svc := processor.New(db, plainExtractor{}, a, mailer, processor.WithLogger(zerolog.Nop()))
	sessions := session.NewManager(session.NewMemoryStore(), 0, db.Ping, zerolog.Nop())
	h := handler.NewHandler(svc, mailer, sessions, config.UploadConfig{MaxFileSizeMB: 1, MaxFiles: 5}, zerolog.Nop())

	ts.engine = route.NewEngine(hertzconfig.NewOptions(nil))
	router.RegisterRoutes(ts.engine, h, router.Options{APIKeys: apiKeys, Sessions: sessions})
	return ts
}

type formFile struct {
	field, name, content string
}

func multipartBody(t *testing.T, fields map[string]string, files ...formFile) (*ut.Body, ut.Header) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, f := range files {
		part, err := w.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = part.Write([]byte(f.content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &ut.Body{Body: &buf, Len: buf.Len()}, ut.Header{Key: "Content-Type", Value: w.FormDataContentType()}
}

func jsonBody(t *testing.T, v any) (*ut.Body, ut.Header) {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return &ut.Body{Body: bytes.NewReader(data), Len: len(data)}, ut.Header{Key: "Content-Type", Value: "application/json"}
}

func decode[T any](t *testing.T, resp *ut.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out), resp.Body.String())
	return out
}

type jobCreatedResp struct {
	Job struct {
		ID    uint   `json:"id"`
		Title string `json:"title"`
	} `json:"job"`
	TitleSource string `json:"title_source"`
}

type errorResp struct {
	Error string `json:"error"`
}

func (ts *testServer) createJob(t *testing.T, fields map[string]string) jobCreatedResp {
	t.Helper()
	body, ct := multipartBody(t, fields)
	resp := ut.PerformRequest(ts.engine, "POST", "/api/v1/jobs", body, ct)
	require.Equal(t, 201, resp.Code, resp.Body.String())
	return decode[jobCreatedResp](t, resp)
}

func TestHealthAndSession(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := ut.PerformRequest(ts.engine, "GET", "/api/v1/health", nil)
	assert.Equal(t, 200, resp.Code)
	assert.JSONEq(t, `{"status":"ok"}`, resp.Body.String())

	resp = ut.PerformRequest(ts.engine, "GET", "/api/v1/session", nil)
	require.Equal(t, 200, resp.Code)
	sc := decode[session.Context](t, resp)
	assert.True(t, sc.Initialized, "数据库可用时会话完成初始化")
	assert.Contains(t, string(resp.Header().Peek("Set-Cookie")), "rm_session="+sc.ID)
}

func TestAPIKeyAuth(t *testing.T) {
	ts := newTestServer(t, []string{"secret-key"})

	resp := ut.PerformRequest(ts.engine, "GET", "/api/v1/jobs", nil)
	assert.Equal(t, 401, resp.Code)

	resp = ut.PerformRequest(ts.engine, "GET", "/api/v1/jobs", nil, ut.Header{Key: "X-API-Key", Value: "wrong"})
	assert.Equal(t, 401, resp.Code)

	resp = ut.PerformRequest(ts.engine, "GET", "/api/v1/jobs", nil, ut.Header{Key: "X-API-Key", Value: "secret-key"})
	assert.Equal(t, 200, resp.Code)

	resp = ut.PerformRequest(ts.engine, "GET", "/api/v1/health", nil)
	assert.Equal(t, 200, resp.Code, "健康检查不需要鉴权")
}

func TestCreateJob(t *testing.T) {
	ts := newTestServer(t, nil, llm.MockResponse{Content: "Senior Go Engineer"})

	created := ts.createJob(t, map[string]string{"company": "Acme", "description": jd})
	assert.Equal(t, "Senior Go Engineer", created.Job.Title)
	assert.Equal(t, processor.TitleExtracted, created.TitleSource)

	body, ct := multipartBody(t, map[string]string{"description": jd})
	resp := ut.PerformRequest(ts.engine, "POST", "/api/v1/jobs", body, ct)
	assert.Equal(t, 400, resp.Code)
	assert.NotEmpty(t, decode[errorResp](t, resp).Error)

	resp = ut.PerformRequest(ts.engine, "GET", fmt.Sprintf("/api/v1/jobs/%d", created.Job.ID), nil)
	assert.Equal(t, 200, resp.Code)

	resp = ut.PerformRequest(ts.engine, "GET", "/api/v1/jobs/999", nil)
	assert.Equal(t, 404, resp.Code)

	resp = ut.PerformRequest(ts.engine, "GET", "/api/v1/jobs/abc", nil)
	assert.Equal(t, 400, resp.Code)
}

type screeningResp struct {
	Total     int `json:"total"`
	Processed int `json:"processed"`
	Analyzed  int `json:"analyzed"`
	Skipped   int `json:"skipped"`
	Outcomes  []struct {
		Filename    string `json:"filename"`
		Status      string `json:"status"`
		CandidateID uint   `json:"candidate_id"`
	} `json:"outcomes"`
}

type candidatesResp struct {
	Candidates []storage.CandidateWithAnalysis `json:"candidates"`
}

func TestScreeningFlow(t *testing.T) {
	ts := newTestServer(t, nil,
		llm.MockResponse{Content: weakReply},
		llm.MockResponse{Content: strongReply},
	)
	job := ts.createJob(t, map[string]string{"company": "Acme", "title": "Go Engineer", "description": jd})
	base := fmt.Sprintf("/api/v1/jobs/%d", job.Job.ID)

	body, ct := multipartBody(t, nil,
		formFile{"files", "bob_lee.pdf", "Bob resume"},
		formFile{"files", "alice_smith.pdf", "Alice resume"},
		formFile{"files", "notes.docx", "not a pdf"},
	)
	resp := ut.PerformRequest(ts.engine, "POST", base+"/resumes", body, ct)
	require.Equal(t, 200, resp.Code, resp.Body.String())
	report := decode[screeningResp](t, resp)
	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 3, report.Processed)
	assert.Equal(t, 2, report.Analyzed)
	assert.Equal(t, 1, report.Skipped)
	require.Len(t, report.Outcomes, 3)
	assert.Equal(t, "bob_lee.pdf", report.Outcomes[0].Filename)
	bob, alice := report.Outcomes[0].CandidateID, report.Outcomes[1].CandidateID

	resp = ut.PerformRequest(ts.engine, "GET", base+"/candidates", nil)
	require.Equal(t, 200, resp.Code)
	list := decode[candidatesResp](t, resp)
	require.Len(t, list.Candidates, 2)
	assert.Equal(t, "Alice Smith", list.Candidates[0].Name, "分数高的在前")
	assert.Equal(t, "Bob Lee", list.Candidates[1].Name)

	resp = ut.PerformRequest(ts.engine, "GET", base+"/candidates?shortlisted=true", nil)
	require.Equal(t, 200, resp.Code)
	assert.Len(t, decode[candidatesResp](t, resp).Candidates, 1)

	body, ct = jsonBody(t, map[string]string{"email": "not-an-email"})
	resp = ut.PerformRequest(ts.engine, "PUT", fmt.Sprintf("/api/v1/candidates/%d/email", alice), body, ct)
	assert.Equal(t, 400, resp.Code)

	for id, email := range map[uint]string{alice: "alice@example.com", bob: "bob@example.com"} {
		body, ct = jsonBody(t, map[string]string{"email": email})
		resp = ut.PerformRequest(ts.engine, "PUT", fmt.Sprintf("/api/v1/candidates/%d/email", id), body, ct)
		require.Equal(t, 200, resp.Code, resp.Body.String())
	}

	body, ct = jsonBody(t, map[string][]uint{"candidate_ids": {bob, alice}})
	resp = ut.PerformRequest(ts.engine, "POST", base+"/notifications", body, ct)
	require.Equal(t, 200, resp.Code, resp.Body.String())
	notify := decode[processor.NotifyReport](t, resp)
	require.Len(t, notify.Results, 1, "只通知入围的候选人")
	assert.Equal(t, "alice@example.com", notify.Results[0].Email)
	assert.True(t, notify.Results[0].Status.Success)
	require.Len(t, ts.sent, 1)
	assert.Equal(t, "alice@example.com", ts.sent[0].To)

	resp = ut.PerformRequest(ts.engine, "GET", "/api/v1/candidates/shortlisted", nil)
	require.Equal(t, 200, resp.Code)
	assert.Len(t, decode[candidatesResp](t, resp).Candidates, 1)

	resp = ut.PerformRequest(ts.engine, "GET", "/api/v1/dashboard", nil)
	require.Equal(t, 200, resp.Code)
	stats := decode[storage.DashboardStats](t, resp)
	assert.Equal(t, int64(2), stats.TotalCandidates)
	assert.Equal(t, int64(1), stats.ShortlistedCount)
	require.Len(t, stats.Jobs, 1)
	require.NotNil(t, stats.Jobs[0].AvgScore)
	assert.InDelta(t, 59.0, *stats.Jobs[0].AvgScore, 0.001)

	resp = ut.PerformRequest(ts.engine, "GET", "/api/v1/home/stats", nil)
	require.Equal(t, 200, resp.Code)
	assert.JSONEq(t, `{"total_jobs":1,"total_candidates":2,"shortlisted_count":1}`, resp.Body.String())

	resp = ut.PerformRequest(ts.engine, "GET", "/api/v1/dashboard/export", nil)
	require.Equal(t, 200, resp.Code)
	assert.Contains(t, string(resp.Header().ContentType()), "spreadsheetml")
	assert.Contains(t, string(resp.Header().Peek("Content-Disposition")), "dashboard.xlsx")

	resp = ut.PerformRequest(ts.engine, "DELETE", fmt.Sprintf("/api/v1/candidates/%d", bob), nil)
	assert.Equal(t, 204, resp.Code)
	resp = ut.PerformRequest(ts.engine, "GET", fmt.Sprintf("/api/v1/candidates/%d", bob), nil)
	assert.Equal(t, 404, resp.Code)

	resp = ut.PerformRequest(ts.engine, "DELETE", base, nil)
	assert.Equal(t, 204, resp.Code)
	resp = ut.PerformRequest(ts.engine, "GET", fmt.Sprintf("/api/v1/candidates/%d", alice), nil)
	assert.Equal(t, 404, resp.Code, "删除岗位级联删除候选人")
}

func TestScreeningRejectsOversizedFile(t *testing.T) {
	ts := newTestServer(t, nil)
	job := ts.createJob(t, map[string]string{"company": "Acme", "title": "Go", "description": jd})

	body, ct := multipartBody(t, nil, formFile{"files", "huge.pdf", strings.Repeat("x", 2<<20)})
	resp := ut.PerformRequest(ts.engine, "POST", fmt.Sprintf("/api/v1/jobs/%d/resumes", job.Job.ID), body, ct)
	assert.Equal(t, 400, resp.Code)
	assert.Zero(t, ts.model.Calls)
}

func TestCoverLetterErrorMapping(t *testing.T) {
	testCases := []struct {
		name   string
		reply  llm.MockResponse
		status int
	}{
		{name: "分析成功", reply: llm.MockResponse{Content: strongReply}, status: 200},
		{name: "返回非JSON", reply: llm.MockResponse{Content: "Sorry, I cannot help."}, status: 422},
		{name: "字段缺失", reply: llm.MockResponse{Content: `{"relevance_score": 50}`}, status: 422},
		{name: "模型调用失败", reply: llm.MockResponse{Error: errors.New("connection refused")}, status: 502},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ts := newTestServer(t, nil, tc.reply)
			body, ct := multipartBody(t, map[string]string{"job_description": jd, "resume_text": "My resume"})
			resp := ut.PerformRequest(ts.engine, "POST", "/api/v1/cover-letter/analyze", body, ct)
			assert.Equal(t, tc.status, resp.Code, resp.Body.String())
		})
	}
}

func TestCoverLetterFallbackFlag(t *testing.T) {
	ts := newTestServer(t, nil, llm.MockResponse{Error: errors.New("429 Too Many Requests")})
	body, ct := multipartBody(t, map[string]string{"job_description": jd}, formFile{"resume_file", "resume.txt", "My resume"})
	resp := ut.PerformRequest(ts.engine, "POST", "/api/v1/cover-letter/analyze", body, ct)
	require.Equal(t, 200, resp.Code, resp.Body.String())

	report := decode[processor.CoverLetterReport](t, resp)
	assert.True(t, report.Result.Fallback)
	assert.NotEmpty(t, report.Tips.Band)
	assert.Len(t, report.Tips.KeyPoints, 6)
}

func TestEmailEndpoints(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := ut.PerformRequest(ts.engine, "GET", "/api/v1/email/config", nil)
	require.Equal(t, 200, resp.Code)
	status := decode[notification.ConfigStatus](t, resp)
	assert.True(t, status.Success)
	assert.NotContains(t, resp.Body.String(), "app-password")
	assert.Empty(t, ts.sent, "配置检查不发信")

	body, ct := jsonBody(t, map[string]string{"email": "me@example.com"})
	resp = ut.PerformRequest(ts.engine, "POST", "/api/v1/email/test", body, ct)
	require.Equal(t, 200, resp.Code)
	assert.True(t, decode[notification.SendResult](t, resp).Success)
	require.Len(t, ts.sent, 1)
	assert.Contains(t, ts.sent[0].HTMLBody, "Test Candidate")

	body, ct = jsonBody(t, map[string]string{})
	resp = ut.PerformRequest(ts.engine, "POST", "/api/v1/email/test", body, ct)
	assert.Equal(t, 400, resp.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, nil)
	ut.PerformRequest(ts.engine, "GET", "/api/v1/health", nil)

	resp := ut.PerformRequest(ts.engine, "GET", "/metrics", nil)
	require.Equal(t, 200, resp.Code)
	assert.Contains(t, resp.Body.String(), "http_requests_total")
}
