package repository

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/smart-student-api/internal/models"
)

// UserRepository stores accounts keyed by username.
type UserRepository struct {
	*EntityRepository[models.User]
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(store BlobStore, prefix string, logger *zap.Logger) *UserRepository {
	col := NewCollection[models.User](store, CollectionKey(prefix, CollectionUsers), logger)
	return &UserRepository{EntityRepository: NewEntityRepository(col)}
}

// FindByUsername returns the first user with the username.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := r.Get(ctx, username)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ListByCourse returns users of role enrolled in course.
func (r *UserRepository) ListByCourse(ctx context.Context, course string, role models.UserRole) ([]models.User, error) {
	users, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.User, 0)
	for _, u := range users {
		if u.Role.Equal(role) && u.InCourse(course) {
			out = append(out, u)
		}
	}
	return out, nil
}
