package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strconv"

	"resume-match-go/internal/analyzer"
	"resume-match-go/internal/config"
	"resume-match-go/internal/notification"
	"resume-match-go/internal/processor"
	"resume-match-go/internal/session"
	"resume-match-go/internal/storage"
	"resume-match-go/internal/tracing"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// Handler HTTP 接口，业务逻辑都委托给 processor.Service
type Handler struct {
	svc      *processor.Service
	mailer   *notification.Mailer
	sessions *session.Manager
	upload   config.UploadConfig
	logger   zerolog.Logger
}

// NewHandler 创建 HTTP 处理器
func NewHandler(svc *processor.Service, mailer *notification.Mailer, sessions *session.Manager, upload config.UploadConfig, logger zerolog.Logger) *Handler {
	if upload.MaxFileSizeMB <= 0 {
		upload.MaxFileSizeMB = 10
	}
	if upload.MaxFiles <= 0 {
		upload.MaxFiles = 50
	}
	return &Handler{
		svc:      svc,
		mailer:   mailer,
		sessions: sessions,
		upload:   upload,
		logger:   logger.With().Str("component", "http").Logger(),
	}
}

// errBadRequest 请求参数错误
var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

// statusFor 错误到 HTTP 状态码的映射
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, processor.ErrInvalidInput),
		errors.Is(err, processor.ErrUnsupportedFile),
		errors.Is(err, processor.ErrEmptyText),
		errors.Is(err, storage.ErrInvalidEmail),
		errors.Is(err, storage.ErrInvalidInput):
		return consts.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound):
		return consts.StatusNotFound
	case errors.Is(err, storage.ErrDuplicateAnalysis):
		return consts.StatusConflict
	}
	switch analyzer.KindOf(err) {
	case analyzer.KindParse, analyzer.KindValidation:
		return consts.StatusUnprocessableEntity
	case analyzer.KindProvider:
		return consts.StatusBadGateway
	}
	return consts.StatusInternalServerError
}

// writeError 输出 {"error": "..."}，5xx 不暴露内部细节
func (h *Handler) writeError(ctx context.Context, c *app.RequestContext, err error) {
	status := statusFor(err)
	tracing.RecordHTTPError(trace.SpanFromContext(ctx), err, status)
	msg := err.Error()
	if status == consts.StatusInternalServerError {
		h.logger.Error().Err(err).Str("path", string(c.Path())).Msg("请求处理失败")
		msg = "internal server error"
	} else {
		h.logger.Debug().Err(err).Int("status", status).Str("path", string(c.Path())).Msg("请求被拒绝")
	}
	c.AbortWithStatusJSON(status, utils.H{"error": msg})
}

func parseID(c *app.RequestContext, name string) (uint, error) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, badRequest("invalid %s: %q", name, raw)
	}
	return uint(id), nil
}

// readUpload 读取单个上传文件，超过大小限制时报错
func (h *Handler) readUpload(fh *multipart.FileHeader) (*processor.Upload, error) {
	limit := int64(h.upload.MaxFileSizeMB) << 20
	if fh.Size > limit {
		return nil, badRequest("file %s exceeds %d MB", fh.Filename, h.upload.MaxFileSizeMB)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("打开上传文件失败: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, fmt.Errorf("读取上传文件失败: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, badRequest("file %s exceeds %d MB", fh.Filename, h.upload.MaxFileSizeMB)
	}
	return &processor.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// optionalUpload 表单字段没有文件时返回 nil
func (h *Handler) optionalUpload(c *app.RequestContext, field string) (*processor.Upload, error) {
	fh, err := c.FormFile(field)
	if err != nil || fh == nil {
		return nil, nil
	}
	return h.readUpload(fh)
}
