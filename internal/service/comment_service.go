package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/smart-student-api/internal/dto"
	"github.com/noah-isme/smart-student-api/internal/models"
	"github.com/noah-isme/smart-student-api/internal/repository"
	appErrors "github.com/noah-isme/smart-student-api/pkg/errors"
	"github.com/noah-isme/smart-student-api/pkg/events"
)

type commentRepository interface {
	Put(ctx context.Context, comment models.Comment) error
	ListByTask(ctx context.Context, taskID string) ([]models.Comment, error)
	Mutate(ctx context.Context, fn func(items []models.Comment) ([]models.Comment, bool, error)) error
}

// CommentService handles remarks on tasks and their read state.
type CommentService struct {
	comments    commentRepository
	access      taskAccess
	attachments *AttachmentService
	bus         *events.Bus
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewCommentService constructs the comment service.
func NewCommentService(comments commentRepository, tasks taskReader, users userLookup, attachments *AttachmentService, bus *events.Bus, validate *validator.Validate, logger *zap.Logger) *CommentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &CommentService{
		comments:    comments,
		access:      taskAccess{tasks: tasks, users: users},
		attachments: attachments,
		bus:         bus,
		validator:   validate,
		logger:      logger,
		now:         time.Now,
	}
}

// Add posts a remark in a student's thread on a task. Students always post in
// their own thread; teachers must name the student they reply to.
func (s *CommentService) Add(ctx context.Context, viewer models.Viewer, taskID string, req dto.CommentRequest) (*models.Comment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid comment payload")
	}

	var (
		task *models.Task
		err  error
	)
	student := req.StudentUsername
	switch {
	case viewer.Role.Equal(models.RoleStudent):
		task, err = s.access.load(ctx, viewer, taskID)
		student = viewer.Username
	default:
		task, err = s.access.manage(ctx, viewer, taskID)
		if err == nil && student == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "studentUsername is required")
		}
	}
	if err != nil {
		return nil, err
	}

	comment := models.Comment{
		ID:              uuid.NewString(),
		TaskID:          taskID,
		StudentUsername: student,
		AuthorUsername:  viewer.Username,
		Comment:         req.Comment,
		UserRole:        normaliseRole(viewer.Role),
		ReadBy:          models.ReadSet{viewer.Username},
		Timestamp:       s.now().UTC(),
	}
	if err := s.comments.Put(ctx, comment); err != nil {
		return nil, appErrors.Internal(err, "failed to store comment")
	}
	s.bus.Publish(ctx, events.CommentAdded, models.CommentAddedEvent{Task: *task, Comment: comment})
	return &comment, nil
}

// List returns the comments on a task visible to the viewer. Students only
// see their own thread.
func (s *CommentService) List(ctx context.Context, viewer models.Viewer, taskID string) ([]dto.CommentResponse, error) {
	if _, err := s.access.load(ctx, viewer, taskID); err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByTask(ctx, taskID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list comments")
	}
	out := make([]dto.CommentResponse, 0, len(comments))
	for _, c := range comments {
		if viewer.Role.Equal(models.RoleStudent) && c.StudentUsername != viewer.Username {
			continue
		}
		out = append(out, dto.CommentResponse{Comment: c, Links: s.attachments.Links(c)})
	}
	return out, nil
}

// MarkRead acknowledges a comment for the viewer. Re-marking is a no-op.
func (s *CommentService) MarkRead(ctx context.Context, viewer models.Viewer, commentID string) (*models.Comment, error) {
	var target *models.Comment
	err := s.comments.Mutate(ctx, func(items []models.Comment) ([]models.Comment, bool, error) {
		for i := range items {
			if items[i].ID != commentID {
				continue
			}
			if err := s.participant(ctx, viewer, items[i]); err != nil {
				return nil, false, err
			}
			if items[i].ReadBy.Contains(viewer.Username) {
				target = &items[i]
				return items, false, nil
			}
			items[i].ReadBy = items[i].ReadBy.With(viewer.Username)
			target = &items[i]
			return items, true, nil
		}
		return nil, false, repository.ErrNotFound
	})
	if err != nil {
		return nil, mapRepoError(err, "failed to mark comment read")
	}
	result := *target
	return &result, nil
}

// participant checks the viewer belongs to the comment thread.
func (s *CommentService) participant(ctx context.Context, viewer models.Viewer, c models.Comment) error {
	if viewer.Role.Equal(models.RoleStudent) && c.StudentUsername != viewer.Username {
		return appErrors.Clone(appErrors.ErrForbidden, "comment is not in your thread")
	}
	_, err := s.access.load(ctx, viewer, c.TaskID)
	return err
}
