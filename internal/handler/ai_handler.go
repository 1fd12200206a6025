package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/smart-student-api/internal/dto"
	"github.com/noah-isme/smart-student-api/internal/models"
	"github.com/noah-isme/smart-student-api/pkg/response"
)

type aiService interface {
	Request(ctx context.Context, viewer models.Viewer, kind string, req dto.GenerationRequest) (*dto.GenerationResponse, error)
	Get(ctx context.Context, viewer models.Viewer, id string) (*dto.GenerationResponse, error)
}

// AIHandler proxies content generation requests.
type AIHandler struct {
	service aiService
}

// NewAIHandler constructs the handler.
func NewAIHandler(svc aiService) *AIHandler {
	return &AIHandler{service: svc}
}

// Request godoc
// @Summary Queue a content generation
// @Tags AI
// @Accept json
// @Produce json
// @Param kind path string true "summary, quiz or mindmap"
// @Param payload body dto.GenerationRequest true "Generation payload"
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /ai/{kind} [post]
func (h *AIHandler) Request(c *gin.Context) {
	viewer, ok := viewerFromContext(c)
	if !ok {
		return
	}
	var req dto.GenerationRequest
	if !bindJSON(c, &req, "invalid generation payload") {
		return
	}
	gen, err := h.service.Request(c.Request.Context(), viewer, c.Param("kind"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, gen)
}

// Get godoc
// @Summary Poll a generation
// @Tags AI
// @Produce json
// @Param id path string true "Generation ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /ai/generations/{id} [get]
func (h *AIHandler) Get(c *gin.Context) {
	viewer, ok := viewerFromContext(c)
	if !ok {
		return
	}
	gen, err := h.service.Get(c.Request.Context(), viewer, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gen)
}
