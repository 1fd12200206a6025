package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/smart-student-api/internal/models"
	appErrors "github.com/noah-isme/smart-student-api/pkg/errors"
	"github.com/noah-isme/smart-student-api/pkg/export"
)

type taskCommentLister interface {
	ListByTask(ctx context.Context, taskID string) ([]models.Comment, error)
}

// GradeSheet is a rendered grade export.
type GradeSheet struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders grade sheets for a task.
type ExportService struct {
	access   taskAccess
	comments taskCommentLister
	roster   courseRoster
	logger   *zap.Logger
}

// NewExportService constructs the export service.
func NewExportService(tasks taskReader, users userLookup, comments taskCommentLister, roster courseRoster, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{access: taskAccess{tasks: tasks, users: users}, comments: comments, roster: roster, logger: logger}
}

var gradeSheetHeaders = []string{"student", "name", "status", "grade", "feedback", "submitted_at", "graded_at"}

// GradeSheet renders one row per enrolled student and per submitter, sorted by username.
func (s *ExportService) GradeSheet(ctx context.Context, viewer models.Viewer, taskID, format string) (*GradeSheet, error) {
	renderer, ok := export.ForFormat(strings.ToLower(format))
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
	task, err := s.access.load(ctx, viewer, taskID)
	if err != nil {
		return nil, err
	}
	if !viewer.Role.Equal(models.RoleAdmin) && task.AssignedByID != viewer.Username {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the task creator can do this")
	}

	students, err := s.roster.ListByCourse(ctx, task.Course, models.RoleStudent)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load course roster")
	}
	comments, err := s.comments.ListByTask(ctx, taskID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load submissions")
	}

	names := make(map[string]string)
	for _, st := range students {
		if _, ok := names[st.Username]; !ok {
			names[st.Username] = st.DisplayName
		}
	}
	latest := make(map[string]models.Comment)
	for _, c := range comments {
		if !c.IsSubmission {
			continue
		}
		latest[c.StudentUsername] = c
		if _, ok := names[c.StudentUsername]; !ok {
			names[c.StudentUsername] = ""
		}
	}

	usernames := make([]string, 0, len(names))
	for u := range names {
		usernames = append(usernames, u)
	}
	sort.Strings(usernames)

	rows := make([][]string, 0, len(usernames))
	for _, u := range usernames {
		rows = append(rows, gradeRow(u, names[u], latest[u]))
	}

	data, err := renderer.Render(export.Dataset{
		Title:   fmt.Sprintf("%s (%s)", task.Title, task.Course),
		Headers: gradeSheetHeaders,
		Rows:    rows,
	})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render grade sheet")
	}
	s.logger.Info("grade sheet exported", zap.String("task_id", taskID), zap.String("format", renderer.Extension()), zap.Int("rows", len(rows)))

	return &GradeSheet{
		Filename:    fmt.Sprintf("grades-%s.%s", task.ID, renderer.Extension()),
		ContentType: renderer.ContentType(),
		Data:        data,
	}, nil
}

func gradeRow(username, name string, submission models.Comment) []string {
	status, grade, submittedAt, gradedAt := "missing", "", "", ""
	if submission.ID != "" {
		status = string(models.TaskSubmitted)
		submittedAt = submission.Timestamp.UTC().Format(time.RFC3339)
	}
	if submission.Grade != nil {
		status = string(models.TaskGraded)
		grade = strconv.Itoa(*submission.Grade)
	}
	if submission.GradedAt != nil {
		gradedAt = submission.GradedAt.UTC().Format(time.RFC3339)
	}
	return []string{username, name, status, grade, submission.Feedback, submittedAt, gradedAt}
}
