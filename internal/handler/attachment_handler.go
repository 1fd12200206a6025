package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/smart-student-api/internal/service"
	"github.com/noah-isme/smart-student-api/pkg/response"
)

type attachmentOpener interface {
	Open(ctx context.Context, token string) (*service.AttachmentDownload, error)
}

// AttachmentHandler streams stored attachments behind signed tokens.
type AttachmentHandler struct {
	service attachmentOpener
}

// NewAttachmentHandler constructs the handler.
func NewAttachmentHandler(svc attachmentOpener) *AttachmentHandler {
	return &AttachmentHandler{service: svc}
}

// Download godoc
// @Summary Download an attachment
// @Tags Attachments
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /attachments/{token} [get]
func (h *AttachmentHandler) Download(c *gin.Context) {
	file, err := h.service.Open(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Body.Close()

	headers := map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", file.Name),
		"Cache-Control":       "private, no-store",
	}
	c.DataFromReader(http.StatusOK, file.Size, file.ContentType, file.Body, headers)
}
