package repository

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/smart-student-api/internal/models"
)

// CommentRepository stores submissions and remarks.
type CommentRepository struct {
	*EntityRepository[models.Comment]
}

// NewCommentRepository constructs a comment repository.
func NewCommentRepository(store BlobStore, prefix string, logger *zap.Logger) *CommentRepository {
	col := NewCollection[models.Comment](store, CollectionKey(prefix, CollectionComments), logger)
	return &CommentRepository{EntityRepository: NewEntityRepository(col)}
}

// ListByTask returns the comments on a task in stored order.
func (r *CommentRepository) ListByTask(ctx context.Context, taskID string) ([]models.Comment, error) {
	comments, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Comment, 0)
	for _, c := range comments {
		if c.TaskID == taskID {
			out = append(out, c)
		}
	}
	return out, nil
}

// FindSubmission returns the latest submission of student on task.
func (r *CommentRepository) FindSubmission(ctx context.Context, taskID, student string) (*models.Comment, error) {
	comments, err := r.ListByTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	for i := len(comments) - 1; i >= 0; i-- {
		c := comments[i]
		if c.IsSubmission && c.StudentUsername == student {
			return &c, nil
		}
	}
	return nil, ErrNotFound
}
