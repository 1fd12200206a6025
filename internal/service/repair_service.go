package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/smart-student-api/internal/dto"
	"github.com/noah-isme/smart-student-api/internal/models"
	"github.com/noah-isme/smart-student-api/internal/repository"
	appErrors "github.com/noah-isme/smart-student-api/pkg/errors"
	"github.com/noah-isme/smart-student-api/pkg/events"
)

// Repair targets accepted by Run.
const (
	RepairComments           = "comments"
	RepairNotifications      = "notifications"
	RepairUsers              = "users"
	RepairTasks              = "tasks"
	RepairResetNotifications = "reset-notifications"
)

type mutableCollection[T any] interface {
	List(ctx context.Context) ([]T, error)
	Mutate(ctx context.Context, fn func(items []T) ([]T, bool, error)) error
}

// RepairCommentsParams scopes a comment repair to one student's comments.
// An empty StudentUsername repairs every comment.
type RepairCommentsParams struct {
	StudentUsername string
	StripReader     string
	DryRun          bool
}

// RepairNotificationsParams scopes a notification repair. Username is
// removed from readBy where it was recorded against its own notifications.
// System reminders addressed to Username are indistinguishable from ones it
// read legitimately, so callers should narrow the run with Type and Before
// (only notifications created strictly before it are unmarked).
type RepairNotificationsParams struct {
	Username string
	Type     models.NotificationType
	Before   time.Time
	DryRun   bool
}

// RepairService restores invariants on previously written collections. Every
// repair is idempotent and writes its collection back in a single replace,
// only when something changed and the run is not a dry run. Repairs assume
// exclusive access to the store.
type RepairService struct {
	users         mutableCollection[models.User]
	tasks         mutableCollection[models.Task]
	notifications mutableCollection[models.Notification]
	comments      mutableCollection[models.Comment]
	bus           *events.Bus
	metrics       *MetricsService
	logger        *zap.Logger
}

// NewRepairService constructs the repair service.
func NewRepairService(repos *repository.Repositories, bus *events.Bus, metrics *MetricsService, logger *zap.Logger) *RepairService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RepairService{
		users:         repos.Users,
		tasks:         repos.Tasks,
		notifications: repos.Notifications,
		comments:      repos.Comments,
		bus:           bus,
		metrics:       metrics,
		logger:        logger,
	}
}

// Run dispatches a repair by collection name.
func (s *RepairService) Run(ctx context.Context, collection string, req dto.RepairRequest) (*models.RepairReport, error) {
	switch collection {
	case RepairComments:
		return s.RepairComments(ctx, RepairCommentsParams{StudentUsername: req.StudentUsername, StripReader: req.StripReader, DryRun: req.DryRun})
	case RepairNotifications:
		params := RepairNotificationsParams{Username: req.Username, Type: models.NotificationType(req.Type), DryRun: req.DryRun}
		if req.Before != nil {
			params.Before = *req.Before
		}
		return s.RepairNotifications(ctx, params)
	case RepairUsers:
		return s.RepairUsers(ctx, req.DryRun)
	case RepairTasks:
		return s.RepairTasks(ctx, req.DryRun)
	case RepairResetNotifications:
		return s.ResetNotifications(ctx, req.DryRun)
	}
	return nil, appErrors.Clone(appErrors.ErrValidation, "unknown repair collection "+strconv.Quote(collection))
}

// RepairComments clears submission flags without attachments, defaults a
// missing role to student and strips StripReader from readBy.
func (s *RepairService) RepairComments(ctx context.Context, params RepairCommentsParams) (*models.RepairReport, error) {
	report := newReport(repository.CollectionComments, params.DryRun)
	err := s.comments.Mutate(ctx, func(items []models.Comment) ([]models.Comment, bool, error) {
		for i := range items {
			c := &items[i]
			if params.StudentUsername != "" && c.StudentUsername != params.StudentUsername {
				continue
			}
			if c.IsSubmission && !c.HasAttachments() {
				c.IsSubmission = false
				report.add(c.ID, "isSubmission", "true", "false")
			}
			if c.UserRole == "" && (c.AuthorUsername == "" || c.AuthorUsername == c.StudentUsername) {
				c.UserRole = models.RoleStudent
				report.add(c.ID, "userRole", "", string(models.RoleStudent))
			}
			if params.StripReader != "" && c.ReadBy.Contains(params.StripReader) {
				c.ReadBy = c.ReadBy.Without(params.StripReader)
				report.add(c.ID, "readBy", params.StripReader, "")
			}
		}
		return items, report.Mutated > 0 && !params.DryRun, nil
	})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to repair comments")
	}
	s.finish(ctx, report.RepairReport)
	return report.RepairReport, nil
}

// RepairNotifications removes Username from readBy on notifications it
// authored or that the system generated for it, and fills a missing target
// role from the first recipient's account.
func (s *RepairService) RepairNotifications(ctx context.Context, params RepairNotificationsParams) (*models.RepairReport, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load users")
	}
	roles := make(map[string]models.UserRole, len(users))
	for _, u := range users {
		if _, seen := roles[u.Username]; !seen && u.Role != "" {
			roles[u.Username] = normaliseRole(u.Role)
		}
	}

	report := newReport(repository.CollectionNotifications, params.DryRun)
	err = s.notifications.Mutate(ctx, func(items []models.Notification) ([]models.Notification, bool, error) {
		for i := range items {
			n := &items[i]
			if params.Type != "" && n.Type != params.Type {
				continue
			}
			inWindow := params.Before.IsZero() || n.Timestamp.Before(params.Before)
			if params.Username != "" && inWindow && n.ReadBy.Contains(params.Username) {
				ownNotice := n.FromUsername == params.Username
				ownReminder := n.FromUsername == models.SystemSender && n.Targets(params.Username)
				if ownNotice || ownReminder {
					*n = models.UnmarkRead(*n, params.Username)
					report.add(n.ID, "readBy", params.Username, "")
				}
			}
			if n.TargetUserRole == "" && len(n.TargetUsernames) > 0 {
				if role, ok := roles[n.TargetUsernames[0]]; ok {
					n.TargetUserRole = role
					report.add(n.ID, "targetUserRole", "", string(role))
				}
			}
		}
		return items, report.Mutated > 0 && !params.DryRun, nil
	})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to repair notifications")
	}
	s.finish(ctx, report.RepairReport)
	return report.RepairReport, nil
}

// RepairUsers drops duplicate usernames, keeping the first record, and
// normalises roles, defaulting a missing role to student.
func (s *RepairService) RepairUsers(ctx context.Context, dryRun bool) (*models.RepairReport, error) {
	report := newReport(repository.CollectionUsers, dryRun)
	err := s.users.Mutate(ctx, func(items []models.User) ([]models.User, bool, error) {
		seen := make(map[string]struct{}, len(items))
		kept := make([]models.User, 0, len(items))
		for i, u := range items {
			if _, dup := seen[u.Username]; dup {
				report.add(u.Username, "duplicate", "#"+strconv.Itoa(i), "removed")
				continue
			}
			seen[u.Username] = struct{}{}
			switch role, ok := models.ParseRole(string(u.Role)); {
			case strings.TrimSpace(string(u.Role)) == "":
				u.Role = models.RoleStudent
				report.add(u.Username, "role", "", string(models.RoleStudent))
			case ok && role != u.Role:
				report.add(u.Username, "role", string(u.Role), string(role))
				u.Role = role
			}
			kept = append(kept, u)
		}
		return kept, report.Mutated > 0 && !dryRun, nil
	})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to repair users")
	}
	s.finish(ctx, report.RepairReport)
	return report.RepairReport, nil
}

// RepairTasks folds the legacy assignedBy field into assignedById and
// defaults a missing status to pending.
func (s *RepairService) RepairTasks(ctx context.Context, dryRun bool) (*models.RepairReport, error) {
	report := newReport(repository.CollectionTasks, dryRun)
	err := s.tasks.Mutate(ctx, func(items []models.Task) ([]models.Task, bool, error) {
		for i := range items {
			t := &items[i]
			if t.AssignedBy != "" {
				if t.AssignedByID == "" {
					t.AssignedByID = t.AssignedBy
					report.add(t.ID, "assignedById", "", t.AssignedByID)
				}
				report.add(t.ID, "assignedBy", t.AssignedBy, "")
				t.AssignedBy = ""
			}
			if t.Status == "" {
				t.Status = models.TaskPending
				report.add(t.ID, "status", "", string(models.TaskPending))
			}
		}
		return items, report.Mutated > 0 && !dryRun, nil
	})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to repair tasks")
	}
	s.finish(ctx, report.RepairReport)
	return report.RepairReport, nil
}

// ResetNotifications deletes every notification.
func (s *RepairService) ResetNotifications(ctx context.Context, dryRun bool) (*models.RepairReport, error) {
	report := newReport(repository.CollectionNotifications, dryRun)
	err := s.notifications.Mutate(ctx, func(items []models.Notification) ([]models.Notification, bool, error) {
		for _, n := range items {
			report.add(n.ID, "notification", "present", "deleted")
		}
		return []models.Notification{}, len(items) > 0 && !dryRun, nil
	})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to reset notifications")
	}
	s.finish(ctx, report.RepairReport)
	return report.RepairReport, nil
}

func (s *RepairService) finish(ctx context.Context, report *models.RepairReport) {
	s.logger.Info("repair finished",
		zap.String("collection", report.Collection),
		zap.Int("changes", len(report.Changes)),
		zap.Int("mutated", report.Mutated),
		zap.Bool("dry_run", report.DryRun),
	)
	if report.DryRun || report.Mutated == 0 {
		return
	}
	s.metrics.RepairApplied(report.Collection, report.Mutated)
	s.bus.Publish(ctx, events.StoreMutated, models.StoreMutatedEvent{Collection: report.Collection, Mutated: report.Mutated, Source: "repair"})
}

// repairReportBuilder counts each entity once however many fields change.
type repairReportBuilder struct {
	*models.RepairReport
	touched map[string]struct{}
}

func newReport(collection string, dryRun bool) *repairReportBuilder {
	return &repairReportBuilder{
		RepairReport: &models.RepairReport{Collection: collection, Changes: []models.RepairChange{}, DryRun: dryRun},
		touched:      make(map[string]struct{}),
	}
}

func (b *repairReportBuilder) add(id, field, before, after string) {
	b.Changes = append(b.Changes, models.RepairChange{ID: id, Field: field, Before: before, After: after})
	if _, ok := b.touched[id]; !ok {
		b.touched[id] = struct{}{}
		b.Mutated++
	}
}
