package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/smart-student-api/internal/dto"
	"github.com/noah-isme/smart-student-api/internal/models"
	"github.com/noah-isme/smart-student-api/pkg/response"
)

type commentService interface {
	Add(ctx context.Context, viewer models.Viewer, taskID string, req dto.CommentRequest) (*models.Comment, error)
	List(ctx context.Context, viewer models.Viewer, taskID string) ([]dto.CommentResponse, error)
	MarkRead(ctx context.Context, viewer models.Viewer, commentID string) (*models.Comment, error)
}

// CommentHandler serves task comment threads.
type CommentHandler struct {
	service commentService
}

// NewCommentHandler constructs the handler.
func NewCommentHandler(svc commentService) *CommentHandler {
	return &CommentHandler{service: svc}
}

// List godoc
// @Summary List comments on a task
// @Tags Comments
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} response.Envelope
// @Router /tasks/{id}/comments [get]
func (h *CommentHandler) List(c *gin.Context) {
	viewer, ok := viewerFromContext(c)
	if !ok {
		return
	}
	comments, err := h.service.List(c.Request.Context(), viewer, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, comments)
}

// Add godoc
// @Summary Post a remark on a task
// @Tags Comments
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Param payload body dto.CommentRequest true "Comment payload"
// @Success 201 {object} response.Envelope
// @Router /tasks/{id}/comments [post]
func (h *CommentHandler) Add(c *gin.Context) {
	viewer, ok := viewerFromContext(c)
	if !ok {
		return
	}
	var req dto.CommentRequest
	if !bindJSON(c, &req, "invalid comment payload") {
		return
	}
	comment, err := h.service.Add(c.Request.Context(), viewer, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, comment)
}

// MarkRead godoc
// @Summary Mark a comment read
// @Tags Comments
// @Produce json
// @Param id path string true "Comment ID"
// @Success 200 {object} response.Envelope
// @Router /comments/{id}/read [post]
func (h *CommentHandler) MarkRead(c *gin.Context) {
	viewer, ok := viewerFromContext(c)
	if !ok {
		return
	}
	comment, err := h.service.MarkRead(c.Request.Context(), viewer, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, comment)
}
