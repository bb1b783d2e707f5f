package handler

import (
	"bytes"
	"context"

	"resume-match-go/internal/session"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// Health GET /health
func (h *Handler) Health(ctx context.Context, c *app.RequestContext) {
	c.JSON(consts.StatusOK, utils.H{"status": "ok"})
}

// Session GET /session
func (h *Handler) Session(ctx context.Context, c *app.RequestContext) {
	sc := session.FromContext(c)
	if sc == nil {
		c.JSON(consts.StatusOK, utils.H{"initialized": false})
		return
	}
	c.JSON(consts.StatusOK, sc)
}

// HomeStats GET /home/stats
func (h *Handler) HomeStats(ctx context.Context, c *app.RequestContext) {
	stats, err := h.svc.QuickStats(ctx)
	if err != nil {
		h.writeError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, stats)
}

// Dashboard GET /dashboard
func (h *Handler) Dashboard(ctx context.Context, c *app.RequestContext) {
	stats, err := h.svc.Dashboard(ctx)
	if err != nil {
		h.writeError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, stats)
}

// ExportDashboard GET /dashboard/export
func (h *Handler) ExportDashboard(ctx context.Context, c *app.RequestContext) {
	var buf bytes.Buffer
	if err := h.svc.ExportDashboard(ctx, &buf); err != nil {
		h.writeError(ctx, c, err)
		return
	}
	writeXLSX(c, "dashboard.xlsx", buf.Bytes())
}
