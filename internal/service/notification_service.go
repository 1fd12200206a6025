package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/smart-student-api/internal/models"
	"github.com/noah-isme/smart-student-api/internal/repository"
	appErrors "github.com/noah-isme/smart-student-api/pkg/errors"
	"github.com/noah-isme/smart-student-api/pkg/events"
)

type notificationRepository interface {
	List(ctx context.Context) ([]models.Notification, error)
	Mutate(ctx context.Context, fn func(items []models.Notification) ([]models.Notification, bool, error)) error
}

type courseRoster interface {
	ListByCourse(ctx context.Context, course string, role models.UserRole) ([]models.User, error)
}

// NotificationService serves unread views and read-state changes, and turns
// domain events into notifications.
type NotificationService struct {
	repo    notificationRepository
	roster  courseRoster
	bus     *events.Bus
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time
}

// NewNotificationService constructs the service.
func NewNotificationService(repo notificationRepository, roster courseRoster, bus *events.Bus, metrics *MetricsService, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{repo: repo, roster: roster, bus: bus, metrics: metrics, logger: logger, now: time.Now}
}

// ListUnread returns the viewer's unread notifications.
func (s *NotificationService) ListUnread(ctx context.Context, viewer models.Viewer) ([]models.Notification, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load notifications")
	}
	return VisibleUnread(all, viewer.Username, viewer.Role), nil
}

// CountUnread returns the number of unread notifications for the viewer.
func (s *NotificationService) CountUnread(ctx context.Context, viewer models.Viewer) (int, error) {
	unread, err := s.ListUnread(ctx, viewer)
	if err != nil {
		return 0, err
	}
	return len(unread), nil
}

// MarkRead acknowledges a notification for the viewer. Only recipients may
// mark a notification; repeating the call changes nothing.
func (s *NotificationService) MarkRead(ctx context.Context, viewer models.Viewer, id string) (*models.Notification, error) {
	var result models.Notification
	changed := false
	err := s.repo.Mutate(ctx, func(items []models.Notification) ([]models.Notification, bool, error) {
		for i := range items {
			if items[i].ID != id {
				continue
			}
			if !items[i].Targets(viewer.Username) {
				return nil, false, appErrors.Clone(appErrors.ErrForbidden, "notification is not addressed to you")
			}
			if items[i].ReadBy.Contains(viewer.Username) {
				result = items[i]
				return items, false, nil
			}
			items[i] = models.MarkRead(items[i], viewer.Username)
			result = items[i]
			changed = true
			return items, true, nil
		}
		return nil, false, repository.ErrNotFound
	})
	if err != nil {
		return nil, mapRepoError(err, "failed to mark notification read")
	}
	if changed {
		s.bus.Publish(ctx, events.NotificationsChanged, models.NotificationsChangedEvent{Usernames: []string{viewer.Username}})
	}
	return &result, nil
}

// MarkAllRead acknowledges every notification currently unread for the viewer.
func (s *NotificationService) MarkAllRead(ctx context.Context, viewer models.Viewer) (int, error) {
	marked := 0
	err := s.repo.Mutate(ctx, func(items []models.Notification) ([]models.Notification, bool, error) {
		for i := range items {
			if items[i].UnreadFor(viewer.Username, viewer.Role) {
				items[i] = models.MarkRead(items[i], viewer.Username)
				marked++
			}
		}
		return items, marked > 0, nil
	})
	if err != nil {
		return 0, appErrors.Internal(err, "failed to mark notifications read")
	}
	if marked > 0 {
		s.bus.Publish(ctx, events.NotificationsChanged, models.NotificationsChangedEvent{Usernames: []string{viewer.Username}})
	}
	return marked, nil
}

// Create validates and stores a notification. Missing ids are derived from
// type, task and timestamp; a colliding derived id moves the timestamp forward.
func (s *NotificationService) Create(ctx context.Context, n models.Notification) (*models.Notification, error) {
	if n.Timestamp.IsZero() {
		n.Timestamp = s.now().UTC()
	}
	derived := n.ID == ""
	if derived {
		n.ID = models.NotificationID(n.Type, n.TaskID, n.Timestamp)
	}
	if n.ReadBy == nil {
		n.ReadBy = models.ReadSet{}
	}
	if err := n.Validate(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}

	err := s.repo.Mutate(ctx, func(items []models.Notification) ([]models.Notification, bool, error) {
		taken := make(map[string]struct{}, len(items))
		for _, existing := range items {
			taken[existing.ID] = struct{}{}
		}
		for {
			if _, clash := taken[n.ID]; !clash {
				break
			}
			if !derived {
				return nil, false, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("notification %s already exists", n.ID))
			}
			n.Timestamp = n.Timestamp.Add(time.Millisecond)
			n.ID = models.NotificationID(n.Type, n.TaskID, n.Timestamp)
		}
		return append(items, n), true, nil
	})
	if err != nil {
		return nil, mapRepoError(err, "failed to store notification")
	}

	s.metrics.NotificationCreated(n.Type)
	s.logger.Debug("notification created", zap.String("id", n.ID), zap.Strings("targets", n.TargetUsernames))
	s.bus.Publish(ctx, events.NotificationsChanged, models.NotificationsChangedEvent{Usernames: n.TargetUsernames})
	return &n, nil
}

// Register subscribes the notification fan-out to task lifecycle events.
func (s *NotificationService) Register(bus *events.Bus) {
	events.On(bus, events.TaskCreated, s.onTaskCreated)
	events.On(bus, events.SubmissionReceived, s.onSubmissionReceived)
	events.On(bus, events.GradePosted, s.onGradePosted)
	events.On(bus, events.CommentAdded, s.onCommentAdded)
}

func (s *NotificationService) onTaskCreated(ctx context.Context, evt models.TaskCreatedEvent) error {
	students, err := s.roster.ListByCourse(ctx, evt.Task.Course, models.RoleStudent)
	if err != nil {
		return fmt.Errorf("load course roster: %w", err)
	}
	if len(students) == 0 {
		return nil
	}
	targets := make([]string, 0, len(students))
	for _, st := range students {
		targets = append(targets, st.Username)
	}
	_, err = s.Create(ctx, models.Notification{
		Type:            models.NotificationNewTask,
		TaskID:          evt.Task.ID,
		TargetUserRole:  models.RoleStudent,
		TargetUsernames: targets,
		FromUsername:    evt.Task.AssignedByID,
		Title:           evt.Task.Title,
		Message:         fmt.Sprintf("New %s in %s: %s", evt.Task.TaskType, evt.Task.Subject, evt.Task.Title),
	})
	return err
}

func (s *NotificationService) onSubmissionReceived(ctx context.Context, evt models.SubmissionReceivedEvent) error {
	if evt.Task.AssignedByID == "" {
		return errors.New("task has no creator to notify")
	}
	_, err := s.Create(ctx, models.Notification{
		Type:            models.NotificationPendingGrading,
		TaskID:          evt.Task.ID,
		TargetUserRole:  models.RoleTeacher,
		TargetUsernames: []string{evt.Task.AssignedByID},
		FromUsername:    models.SystemSender,
		Title:           evt.Task.Title,
		Message:         fmt.Sprintf("%s submitted %s", evt.Submission.StudentUsername, evt.Task.Title),
	})
	return err
}

func (s *NotificationService) onGradePosted(ctx context.Context, evt models.GradePostedEvent) error {
	grade := 0
	if evt.Submission.Grade != nil {
		grade = *evt.Submission.Grade
	}
	_, err := s.Create(ctx, models.Notification{
		Type:            models.NotificationGradeReceived,
		TaskID:          evt.Task.ID,
		TargetUserRole:  models.RoleStudent,
		TargetUsernames: []string{evt.Submission.StudentUsername},
		FromUsername:    evt.Submission.GradedBy,
		Title:           evt.Task.Title,
		Message:         fmt.Sprintf("You received %d on %s", grade, evt.Task.Title),
	})
	return err
}

func (s *NotificationService) onCommentAdded(ctx context.Context, evt models.CommentAddedEvent) error {
	if !evt.Comment.UserRole.Equal(models.RoleTeacher) || evt.Comment.StudentUsername == "" {
		return nil
	}
	_, err := s.Create(ctx, models.Notification{
		Type:            models.NotificationTeacherComment,
		TaskID:          evt.Task.ID,
		TargetUserRole:  models.RoleStudent,
		TargetUsernames: []string{evt.Comment.StudentUsername},
		FromUsername:    evt.Comment.AuthorUsername,
		Title:           evt.Task.Title,
		Message:         evt.Comment.Comment,
	})
	return err
}
