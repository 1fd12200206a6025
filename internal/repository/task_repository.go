package repository

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/smart-student-api/internal/models"
)

// TaskRepository stores tasks.
type TaskRepository struct {
	*EntityRepository[models.Task]
}

// NewTaskRepository constructs a task repository.
func NewTaskRepository(store BlobStore, prefix string, logger *zap.Logger) *TaskRepository {
	col := NewCollection[models.Task](store, CollectionKey(prefix, CollectionTasks), logger)
	return &TaskRepository{EntityRepository: NewEntityRepository(col)}
}

// ListByCreator returns tasks whose assignedById matches username.
func (r *TaskRepository) ListByCreator(ctx context.Context, username string) ([]models.Task, error) {
	return r.filter(ctx, func(t models.Task) bool { return t.AssignedByID == username })
}

// ListByCourses returns tasks published to any of the courses.
func (r *TaskRepository) ListByCourses(ctx context.Context, courses []string) ([]models.Task, error) {
	set := make(map[string]struct{}, len(courses))
	for _, c := range courses {
		set[c] = struct{}{}
	}
	return r.filter(ctx, func(t models.Task) bool {
		_, ok := set[t.Course]
		return ok
	})
}

func (r *TaskRepository) filter(ctx context.Context, keep func(models.Task) bool) ([]models.Task, error) {
	tasks, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out, nil
}
