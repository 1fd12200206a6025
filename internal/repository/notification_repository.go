package repository

import (
	"go.uber.org/zap"

	"github.com/noah-isme/smart-student-api/internal/models"
)

// NotificationRepository stores notifications in creation order.
type NotificationRepository struct {
	*EntityRepository[models.Notification]
}

// NewNotificationRepository constructs a notification repository.
func NewNotificationRepository(store BlobStore, prefix string, logger *zap.Logger) *NotificationRepository {
	col := NewCollection[models.Notification](store, CollectionKey(prefix, CollectionNotifications), logger)
	return &NotificationRepository{EntityRepository: NewEntityRepository(col)}
}
