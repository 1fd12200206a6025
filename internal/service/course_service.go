package service

import (
	"context"
	"errors"
	"sort"

	"go.uber.org/zap"

	"github.com/noah-isme/smart-student-api/internal/dto"
	"github.com/noah-isme/smart-student-api/internal/models"
	"github.com/noah-isme/smart-student-api/internal/repository"
	appErrors "github.com/noah-isme/smart-student-api/pkg/errors"
)

type taskLister interface {
	List(ctx context.Context) ([]models.Task, error)
}

// CourseService derives course summaries from the task collection.
type CourseService struct {
	tasks  taskLister
	users  userLookup
	logger *zap.Logger
}

// NewCourseService constructs the course service.
func NewCourseService(tasks taskLister, users userLookup, logger *zap.Logger) *CourseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{tasks: tasks, users: users, logger: logger}
}

// List returns the viewer's active courses with task counts. Admins get
// every course that has tasks. Teachers only count tasks they created.
func (s *CourseService) List(ctx context.Context, viewer models.Viewer) ([]dto.CourseSummary, error) {
	tasks, err := s.tasks.List(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list tasks")
	}

	var courses []string
	isAdmin := viewer.Role.Equal(models.RoleAdmin)
	if !isAdmin {
		user, err := s.users.FindByUsername(ctx, viewer.Username)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return []dto.CourseSummary{}, nil
			}
			return nil, appErrors.Internal(err, "failed to load user")
		}
		courses = user.ActiveCourses
	}

	summaries := make(map[string]*dto.CourseSummary)
	order := make([]string, 0)
	add := func(course string) *dto.CourseSummary {
		if sum, ok := summaries[course]; ok {
			return sum
		}
		sum := &dto.CourseSummary{Course: course}
		summaries[course] = sum
		order = append(order, course)
		return sum
	}
	for _, c := range courses {
		add(c)
	}

	for _, t := range tasks {
		if viewer.Role.Equal(models.RoleTeacher) && t.AssignedByID != viewer.Username {
			continue
		}
		sum, ok := summaries[t.Course]
		if !ok {
			if !isAdmin {
				continue
			}
			sum = add(t.Course)
		}
		sum.TaskCount++
		switch t.Status {
		case models.TaskSubmitted:
			sum.Submitted++
		case models.TaskGraded:
			sum.Graded++
		default:
			sum.Pending++
		}
	}

	if isAdmin {
		sort.Strings(order)
	}
	out := make([]dto.CourseSummary, 0, len(order))
	for _, c := range order {
		out = append(out, *summaries[c])
	}
	return out, nil
}
