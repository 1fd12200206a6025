package service

import (
	"context"
	"errors"
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

type taskRepository interface {
	List(ctx context.Context) ([]models.Task, error)
	Get(ctx context.Context, id string) (models.Task, error)
	Put(ctx context.Context, task models.Task) error
	Delete(ctx context.Context, id string) error
	ListByCreator(ctx context.Context, username string) ([]models.Task, error)
	ListByCourses(ctx context.Context, courses []string) ([]models.Task, error)
	Mutate(ctx context.Context, fn func(items []models.Task) ([]models.Task, bool, error)) error
}

type submissionRepository interface {
	Put(ctx context.Context, comment models.Comment) error
	ListByTask(ctx context.Context, taskID string) ([]models.Comment, error)
	FindSubmission(ctx context.Context, taskID, student string) (*models.Comment, error)
}

// TaskService drives the task lifecycle: pending, submitted, graded.
type TaskService struct {
	tasks       taskRepository
	comments    submissionRepository
	users       userLookup
	access      taskAccess
	attachments *AttachmentService
	bus         *events.Bus
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewTaskService constructs the task service.
func NewTaskService(tasks taskRepository, comments submissionRepository, users userLookup, attachments *AttachmentService, bus *events.Bus, validate *validator.Validate, logger *zap.Logger) *TaskService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &TaskService{
		tasks:       tasks,
		comments:    comments,
		users:       users,
		access:      taskAccess{tasks: tasks, users: users},
		attachments: attachments,
		bus:         bus,
		validator:   validate,
		logger:      logger,
		now:         time.Now,
	}
}

// Create stores a new pending task owned by the caller.
func (s *TaskService) Create(ctx context.Context, viewer models.Viewer, req dto.CreateTaskRequest) (*models.Task, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid task payload")
	}
	now := s.now().UTC()
	task := models.Task{
		ID:           uuid.NewString(),
		Title:        req.Title,
		Description:  req.Description,
		Course:       req.Course,
		Subject:      req.Subject,
		Status:       models.TaskPending,
		AssignedByID: viewer.Username,
		TaskType:     req.TaskType,
		DueDate:      req.DueDate,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.tasks.Put(ctx, task); err != nil {
		return nil, appErrors.Internal(err, "failed to create task")
	}
	s.logger.Info("task created", zap.String("task_id", task.ID), zap.String("course", task.Course), zap.String("by", viewer.Username))
	s.bus.Publish(ctx, events.TaskCreated, models.TaskCreatedEvent{Task: task})
	return &task, nil
}

// List returns the tasks relevant to the viewer.
func (s *TaskService) List(ctx context.Context, viewer models.Viewer) ([]models.Task, error) {
	var (
		tasks []models.Task
		err   error
	)
	switch {
	case viewer.Role.Equal(models.RoleAdmin):
		tasks, err = s.tasks.List(ctx)
	case viewer.Role.Equal(models.RoleTeacher):
		tasks, err = s.tasks.ListByCreator(ctx, viewer.Username)
	default:
		user, lookupErr := s.users.FindByUsername(ctx, viewer.Username)
		if lookupErr != nil {
			if errors.Is(lookupErr, repository.ErrNotFound) {
				return []models.Task{}, nil
			}
			return nil, appErrors.Internal(lookupErr, "failed to load user")
		}
		tasks, err = s.tasks.ListByCourses(ctx, user.ActiveCourses)
	}
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list tasks")
	}
	return tasks, nil
}

// Get returns a task visible to the viewer.
func (s *TaskService) Get(ctx context.Context, viewer models.Viewer, id string) (*models.Task, error) {
	return s.access.load(ctx, viewer, id)
}

// Delete removes a task. Only its creator or an admin may delete it.
func (s *TaskService) Delete(ctx context.Context, viewer models.Viewer, id string) error {
	task, err := s.access.load(ctx, viewer, id)
	if err != nil {
		return err
	}
	if !viewer.Role.Equal(models.RoleAdmin) && task.AssignedByID != viewer.Username {
		return appErrors.Clone(appErrors.ErrForbidden, "only the task creator can do this")
	}
	if err := s.tasks.Delete(ctx, id); err != nil {
		return mapRepoError(err, "failed to delete task")
	}
	return nil
}

// Submit stores a student's submission. A submission needs at least one
// attachment; a student whose work is already graded cannot resubmit.
func (s *TaskService) Submit(ctx context.Context, viewer models.Viewer, taskID, text string, files []AttachmentUpload) (*dto.CommentResponse, error) {
	if !viewer.Role.Equal(models.RoleStudent) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only students submit work")
	}
	if len(files) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "a submission requires at least one attachment")
	}
	task, err := s.access.load(ctx, viewer, taskID)
	if err != nil {
		return nil, err
	}

	previous, err := s.comments.FindSubmission(ctx, taskID, viewer.Username)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, appErrors.Internal(err, "failed to load submission")
	}
	if previous != nil && previous.Grade != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "submission already graded")
	}

	attachments, err := s.attachments.Store(ctx, taskID, viewer.Username, files)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	submission := models.Comment{
		ID:              uuid.NewString(),
		TaskID:          taskID,
		StudentUsername: viewer.Username,
		AuthorUsername:  viewer.Username,
		Comment:         text,
		IsSubmission:    len(attachments) > 0,
		Attachments:     attachments,
		UserRole:        models.RoleStudent,
		ReadBy:          models.ReadSet{viewer.Username},
		Timestamp:       now,
	}
	if err := s.comments.Put(ctx, submission); err != nil {
		s.attachments.Discard(ctx, attachments)
		return nil, appErrors.Internal(err, "failed to store submission")
	}

	updated, err := s.advance(ctx, task.ID, models.TaskSubmitted)
	if err != nil {
		return nil, err
	}

	s.logger.Info("submission received", zap.String("task_id", taskID), zap.String("student", viewer.Username), zap.Int("attachments", len(attachments)))
	s.bus.Publish(ctx, events.SubmissionReceived, models.SubmissionReceivedEvent{Task: *updated, Submission: submission})
	return &dto.CommentResponse{Comment: submission, Links: s.attachments.Links(submission)}, nil
}

// Grade records a clamped grade on the student's latest submission. Only the
// task creator may grade; regrading overwrites the previous grade.
func (s *TaskService) Grade(ctx context.Context, viewer models.Viewer, taskID string, req dto.GradeRequest) (*models.Comment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}
	task, err := s.access.manage(ctx, viewer, taskID)
	if err != nil {
		return nil, err
	}

	submission, err := s.comments.FindSubmission(ctx, taskID, req.StudentUsername)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "submission not found")
		}
		return nil, appErrors.Internal(err, "failed to load submission")
	}

	grade := models.ClampGrade(*req.Grade)
	gradedAt := s.now().UTC()
	submission.Grade = &grade
	submission.Feedback = req.Feedback
	submission.GradedBy = viewer.Username
	submission.GradedAt = &gradedAt
	if err := s.comments.Put(ctx, *submission); err != nil {
		return nil, appErrors.Internal(err, "failed to store grade")
	}

	updated, err := s.advance(ctx, task.ID, models.TaskGraded)
	if err != nil {
		return nil, err
	}

	s.logger.Info("grade posted", zap.String("task_id", taskID), zap.String("student", req.StudentUsername), zap.Int("grade", grade))
	s.bus.Publish(ctx, events.GradePosted, models.GradePostedEvent{Task: *updated, Submission: *submission})
	return submission, nil
}

// Submissions lists the submissions on a task the viewer manages.
func (s *TaskService) Submissions(ctx context.Context, viewer models.Viewer, taskID string) ([]dto.CommentResponse, error) {
	if _, err := s.access.manage(ctx, viewer, taskID); err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByTask(ctx, taskID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list submissions")
	}
	out := make([]dto.CommentResponse, 0)
	for _, c := range comments {
		if c.IsSubmission {
			out = append(out, dto.CommentResponse{Comment: c, Links: s.attachments.Links(c)})
		}
	}
	return out, nil
}

// advance moves the task status forward. Moves the state machine does not
// allow leave the status unchanged.
func (s *TaskService) advance(ctx context.Context, taskID string, next models.TaskStatus) (*models.Task, error) {
	var updated models.Task
	err := s.tasks.Mutate(ctx, func(items []models.Task) ([]models.Task, bool, error) {
		for i := range items {
			if items[i].ID != taskID {
				continue
			}
			if items[i].Status == next || !items[i].Status.CanTransitionTo(next) {
				updated = items[i]
				return items, false, nil
			}
			items[i].Status = next
			items[i].UpdatedAt = s.now().UTC()
			updated = items[i]
			return items, true, nil
		}
		return nil, false, repository.ErrNotFound
	})
	if err != nil {
		return nil, mapRepoError(err, "failed to update task status")
	}
	return &updated, nil
}
