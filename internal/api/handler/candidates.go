package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// GetCandidate GET /candidates/:id
func (h *Handler) GetCandidate(ctx context.Context, c *app.RequestContext) {
	id, err := parseID(c, "id")
	if err != nil {
		h.writeError(ctx, c, err)
		return
	}
	row, err := h.svc.GetCandidate(ctx, id)
	if err != nil {
		h.writeError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, row)
}

// ShortlistedCandidates GET /candidates/shortlisted
func (h *Handler) ShortlistedCandidates(ctx context.Context, c *app.RequestContext) {
	rows, err := h.svc.ShortlistedCandidates(ctx)
	if err != nil {
		h.writeError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, utils.H{"candidates": rows})
}

type emailRequest struct {
	Email string `json:"email"`
}

// UpdateCandidateEmail PUT /candidates/:id/email，空串表示清空
func (h *Handler) UpdateCandidateEmail(ctx context.Context, c *app.RequestContext) {
	id, err := parseID(c, "id")
	if err != nil {
		h.writeError(ctx, c, err)
		return
	}
	var req emailRequest
	if err := c.BindJSON(&req); err != nil {
		h.writeError(ctx, c, badRequest("invalid request body: %v", err))
		return
	}
	candidate, err := h.svc.UpdateCandidateEmail(ctx, id, req.Email)
	if err != nil {
		h.writeError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, candidate)
}

// DeleteCandidate DELETE /candidates/:id
func (h *Handler) DeleteCandidate(ctx context.Context, c *app.RequestContext) {
	id, err := parseID(c, "id")
	if err != nil {
		h.writeError(ctx, c, err)
		return
	}
	if err := h.svc.DeleteCandidate(ctx, id); err != nil {
		h.writeError(ctx, c, err)
		return
	}
	c.Status(consts.StatusNoContent)
}
