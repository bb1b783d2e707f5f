package handler

import (
	"context"

	"resume-match-go/internal/processor"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// AnalyzeCoverLetter POST /cover-letter/analyze
// 表单字段 job_description / jd_file 与 resume_text / resume_file，文件优先
func (h *Handler) AnalyzeCoverLetter(ctx context.Context, c *app.RequestContext) {
	jdFile, err := h.optionalUpload(c, "jd_file")
	if err != nil {
		h.writeError(ctx, c, err)
		return
	}
	resumeFile, err := h.optionalUpload(c, "resume_file")
	if err != nil {
		h.writeError(ctx, c, err)
		return
	}

	report, err := h.svc.AnalyzeCoverLetter(ctx, processor.CoverLetterInput{
		JobDescription: string(c.FormValue("job_description")),
		JobFile:        jdFile,
		ResumeText:     string(c.FormValue("resume_text")),
		ResumeFile:     resumeFile,
	})
	if err != nil {
		h.writeError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, report)
}
