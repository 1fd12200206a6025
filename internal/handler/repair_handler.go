package handler

import (
	"context"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/smart-student-api/internal/dto"
	"github.com/noah-isme/smart-student-api/internal/models"
	appErrors "github.com/noah-isme/smart-student-api/pkg/errors"
	"github.com/noah-isme/smart-student-api/pkg/response"
)

type repairService interface {
	Run(ctx context.Context, collection string, req dto.RepairRequest) (*models.RepairReport, error)
}

// RepairHandler exposes the data repairs to administrators.
type RepairHandler struct {
	service repairService
}

// NewRepairHandler constructs the handler.
func NewRepairHandler(svc repairService) *RepairHandler {
	return &RepairHandler{service: svc}
}

// Run godoc
// @Summary Run a data repair
// @Description collection is one of comments, notifications, users, tasks, reset-notifications
// @Tags Admin
// @Accept json
// @Produce json
// @Param collection path string true "Collection"
// @Param payload body dto.RepairRequest false "Repair parameters"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/repairs/{collection} [post]
func (h *RepairHandler) Run(c *gin.Context) {
	var req dto.RepairRequest
	if err := c.ShouldBindJSON(&req); err != nil && err != io.EOF {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid repair payload"))
		return
	}
	report, err := h.service.Run(c.Request.Context(), c.Param("collection"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, report)
}
