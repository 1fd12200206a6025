package repository

import "go.uber.org/zap"

// Repositories groups every collection sharing one blob store.
type Repositories struct {
	Users         *UserRepository
	Tasks         *TaskRepository
	Notifications *NotificationRepository
	Comments      *CommentRepository
	Generations   *GenerationRepository
}

// New wires all repositories over store using the key prefix.
func New(store BlobStore, prefix string, logger *zap.Logger) *Repositories {
	return &Repositories{
		Users:         NewUserRepository(store, prefix, logger),
		Tasks:         NewTaskRepository(store, prefix, logger),
		Notifications: NewNotificationRepository(store, prefix, logger),
		Comments:      NewCommentRepository(store, prefix, logger),
		Generations:   NewGenerationRepository(store, prefix, logger),
	}
}
