package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/smart-student-api/internal/dto"
	"github.com/noah-isme/smart-student-api/internal/middleware"
	"github.com/noah-isme/smart-student-api/internal/models"
	"github.com/noah-isme/smart-student-api/pkg/response"
)

type notificationService interface {
	ListUnread(ctx context.Context, viewer models.Viewer) ([]models.Notification, error)
	CountUnread(ctx context.Context, viewer models.Viewer) (int, error)
	MarkRead(ctx context.Context, viewer models.Viewer, id string) (*models.Notification, error)
	MarkAllRead(ctx context.Context, viewer models.Viewer) (int, error)
}

// NotificationHandler serves the unread views and read-state changes.
type NotificationHandler struct {
	service notificationService
}

// NewNotificationHandler constructs the handler.
func NewNotificationHandler(svc notificationService) *NotificationHandler {
	return &NotificationHandler{service: svc}
}

// Unread godoc
// @Summary Unread notifications for the caller
// @Tags Notifications
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /notifications/unread [get]
func (h *NotificationHandler) Unread(c *gin.Context) {
	viewer, ok := viewerFromContext(c)
	if !ok {
		return
	}
	items, err := h.service.ListUnread(c.Request.Context(), viewer)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetMeta(c, "count", len(items))
	response.OK(c, items, middleware.ExtractMeta(c))
}

// UnreadCount godoc
// @Summary Unread notification count for the caller
// @Tags Notifications
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /notifications/unread/count [get]
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	viewer, ok := viewerFromContext(c)
	if !ok {
		return
	}
	count, err := h.service.CountUnread(c.Request.Context(), viewer)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.UnreadCountResponse{Count: count})
}

// MarkRead godoc
// @Summary Mark a notification read
// @Tags Notifications
// @Produce json
// @Param id path string true "Notification ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /notifications/{id}/read [post]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	viewer, ok := viewerFromContext(c)
	if !ok {
		return
	}
	n, err := h.service.MarkRead(c.Request.Context(), viewer, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, n)
}

// MarkAllRead godoc
// @Summary Mark every unread notification read
// @Tags Notifications
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /notifications/read-all [post]
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	viewer, ok := viewerFromContext(c)
	if !ok {
		return
	}
	marked, err := h.service.MarkAllRead(c.Request.Context(), viewer)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.MarkAllReadResponse{Marked: marked})
}
