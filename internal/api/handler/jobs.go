package handler

import (
	"bytes"
	"context"
	"fmt"

	"resume-match-go/internal/export"
	"resume-match-go/internal/processor"
	"resume-match-go/internal/session"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// CreateJob POST /jobs
func (h *Handler) CreateJob(ctx context.Context, c *app.RequestContext) {
	file, err := h.optionalUpload(c, "file")
	if err != nil {
		h.writeError(ctx, c, err)
		return
	}
	created, err := h.svc.CreateJob(ctx, processor.JobInput{
		Company:     string(c.FormValue("company")),
		Title:       string(c.FormValue("title")),
		Description: string(c.FormValue("description")),
		File:        file,
	})
	if err != nil {
		h.writeError(ctx, c, err)
		return
	}
	h.selectJob(ctx, c, created.Job.ID)
	c.JSON(consts.StatusCreated, created)
}

// ListJobs GET /jobs
func (h *Handler) ListJobs(ctx context.Context, c *app.RequestContext) {
	jobs, err := h.svc.ListJobs(ctx)
	if err != nil {
		h.writeError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, utils.H{"jobs": jobs})
}

// GetJob GET /jobs/:id
func (h *Handler) GetJob(ctx context.Context, c *app.RequestContext) {
	id, err := parseID(c, "id")
	if err != nil {
		h.writeError(ctx, c, err)
		return
	}
	job, err := h.svc.GetJob(ctx, id)
	if err != nil {
		h.writeError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, job)
}

// DeleteJob DELETE /jobs/:id
func (h *Handler) DeleteJob(ctx context.Context, c *app.RequestContext) {
	id, err := parseID(c, "id")
	if err != nil {
		h.writeError(ctx, c, err)
		return
	}
	if err := h.svc.DeleteJob(ctx, id); err != nil {
		h.writeError(ctx, c, err)
		return
	}
	c.Status(consts.StatusNoContent)
}

// ScreenResumes POST /jobs/:id/resumes，表单字段 files 可重复
func (h *Handler) ScreenResumes(ctx context.Context, c *app.RequestContext) {
	id, err := parseID(c, "id")
	if err != nil {
		h.writeError(ctx, c, err)
		return
	}
	form, err := c.MultipartForm()
	if err != nil {
		h.writeError(ctx, c, badRequest("multipart form required"))
		return
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		h.writeError(ctx, c, badRequest("no files uploaded"))
		return
	}
	if len(headers) > h.upload.MaxFiles {
		h.writeError(ctx, c, badRequest("at most %d files per upload", h.upload.MaxFiles))
		return
	}

	uploads := make([]processor.Upload, 0, len(headers))
	for _, fh := range headers {
		u, err := h.readUpload(fh)
		if err != nil {
			h.writeError(ctx, c, err)
			return
		}
		uploads = append(uploads, *u)
	}

	report, err := h.svc.ScreenResumes(ctx, id, uploads, func(done, total int) {
		h.logger.Debug().Uint("job_id", id).Int("done", done).Int("total", total).Msg("筛选进度")
	})
	if err != nil {
		h.writeError(ctx, c, err)
		return
	}
	h.selectJob(ctx, c, id)
	c.JSON(consts.StatusOK, report)
}

// ListCandidates GET /jobs/:id/candidates?shortlisted=true
func (h *Handler) ListCandidates(ctx context.Context, c *app.RequestContext) {
	id, err := parseID(c, "id")
	if err != nil {
		h.writeError(ctx, c, err)
		return
	}
	shortlisted := string(c.Query("shortlisted")) == "true"
	rows, err := h.svc.ListCandidates(ctx, id, shortlisted)
	if err != nil {
		h.writeError(ctx, c, err)
		return
	}
	h.selectJob(ctx, c, id)
	c.JSON(consts.StatusOK, utils.H{"job_id": id, "candidates": rows})
}

// ExportCandidates GET /jobs/:id/candidates/export
func (h *Handler) ExportCandidates(ctx context.Context, c *app.RequestContext) {
	id, err := parseID(c, "id")
	if err != nil {
		h.writeError(ctx, c, err)
		return
	}
	var buf bytes.Buffer
	if err := h.svc.ExportCandidates(ctx, id, &buf); err != nil {
		h.writeError(ctx, c, err)
		return
	}
	writeXLSX(c, fmt.Sprintf("job_%d_candidates.xlsx", id), buf.Bytes())
}

type notifyRequest struct {
	CandidateIDs []uint `json:"candidate_ids"`
}

// NotifyShortlisted POST /jobs/:id/notifications
func (h *Handler) NotifyShortlisted(ctx context.Context, c *app.RequestContext) {
	id, err := parseID(c, "id")
	if err != nil {
		h.writeError(ctx, c, err)
		return
	}
	var req notifyRequest
	if err := c.BindJSON(&req); err != nil {
		h.writeError(ctx, c, badRequest("invalid request body: %v", err))
		return
	}
	report, err := h.svc.NotifyShortlisted(ctx, id, req.CandidateIDs)
	if err != nil {
		h.writeError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, report)
}

// selectJob 记住会话最近操作的岗位，失败只记日志
func (h *Handler) selectJob(ctx context.Context, c *app.RequestContext, jobID uint) {
	sc := session.FromContext(c)
	if sc == nil || h.sessions == nil {
		return
	}
	if err := h.sessions.SelectJob(ctx, sc, jobID); err != nil {
		h.logger.Warn().Err(err).Str("session_id", sc.ID).Msg("保存会话岗位失败")
	}
}

func writeXLSX(c *app.RequestContext, filename string, data []byte) {
	c.Response.Header.Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(consts.StatusOK, export.ContentType, data)
}
