package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// EmailConfig GET /email/config，只检查配置，不发信
func (h *Handler) EmailConfig(ctx context.Context, c *app.RequestContext) {
	c.JSON(consts.StatusOK, h.mailer.CheckConfig())
}

// EmailTest POST /email/test
func (h *Handler) EmailTest(ctx context.Context, c *app.RequestContext) {
	var req emailRequest
	if err := c.BindJSON(&req); err != nil {
		h.writeError(ctx, c, badRequest("invalid request body: %v", err))
		return
	}
	if req.Email == "" {
		h.writeError(ctx, c, badRequest("email is required"))
		return
	}
	c.JSON(consts.StatusOK, h.mailer.SendTest(ctx, req.Email))
}
