package service

import (
	"context"
	"errors"

	"github.com/noah-isme/smart-student-api/internal/models"
	"github.com/noah-isme/smart-student-api/internal/repository"
	appErrors "github.com/noah-isme/smart-student-api/pkg/errors"
)

type taskReader interface {
	Get(ctx context.Context, id string) (models.Task, error)
}

type userLookup interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
}

// taskAccess answers who may see or manage a task.
type taskAccess struct {
	tasks taskReader
	users userLookup
}

// load returns the task if the viewer may see it. Admins see everything,
// teachers see tasks they created and students see tasks of their courses.
func (a taskAccess) load(ctx context.Context, viewer models.Viewer, taskID string) (*models.Task, error) {
	task, err := a.tasks.Get(ctx, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "task not found")
		}
		return nil, appErrors.Internal(err, "failed to load task")
	}
	switch {
	case viewer.Role.Equal(models.RoleAdmin):
		return &task, nil
	case viewer.Role.Equal(models.RoleTeacher):
		if task.AssignedByID == viewer.Username {
			return &task, nil
		}
	case viewer.Role.Equal(models.RoleStudent):
		user, err := a.users.FindByUsername(ctx, viewer.Username)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, appErrors.Internal(err, "failed to load user")
		}
		if user != nil && user.InCourse(task.Course) {
			return &task, nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrForbidden, "task is not available to you")
}

// manage returns the task if the viewer created it.
func (a taskAccess) manage(ctx context.Context, viewer models.Viewer, taskID string) (*models.Task, error) {
	task, err := a.load(ctx, viewer, taskID)
	if err != nil {
		return nil, err
	}
	if task.AssignedByID != viewer.Username {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the task creator can do this")
	}
	return task, nil
}
