package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/smart-student-api/internal/dto"
	"github.com/noah-isme/smart-student-api/internal/models"
	"github.com/noah-isme/smart-student-api/pkg/response"
)

type courseService interface {
	List(ctx context.Context, viewer models.Viewer) ([]dto.CourseSummary, error)
}

// CourseHandler lists the caller's courses.
type CourseHandler struct {
	service courseService
}

// NewCourseHandler constructs the handler.
func NewCourseHandler(svc courseService) *CourseHandler {
	return &CourseHandler{service: svc}
}

// List godoc
// @Summary Courses of the caller with task counts
// @Tags Courses
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	viewer, ok := viewerFromContext(c)
	if !ok {
		return
	}
	courses, err := h.service.List(c.Request.Context(), viewer)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, courses)
}
