package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/smart-student-api/internal/dto"
	"github.com/noah-isme/smart-student-api/internal/models"
)

func TestCourseSummaries(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	lit := createEssayTask(t, f)
	_, err := f.tasks.Create(ctx, viewerAna, dto.CreateTaskRequest{Title: "Lab", Course: "bio-10", Subject: "Biology", TaskType: models.TaskEvaluation})
	require.NoError(t, err)
	_, err = f.tasks.Submit(ctx, viewerMaria, lit.ID, "", essay())
	require.NoError(t, err)

	svc := NewCourseService(f.repos.Tasks, f.repos.Users, nil)

	maria, err := svc.List(ctx, viewerMaria)
	require.NoError(t, err)
	assert.Equal(t, []dto.CourseSummary{
		{Course: "lit-10", TaskCount: 1, Submitted: 1},
		{Course: "bio-10", TaskCount: 1, Pending: 1},
	}, maria)

	jorge, err := svc.List(ctx, viewerJorge)
	require.NoError(t, err)
	assert.Equal(t, []dto.CourseSummary{{Course: "lit-10", TaskCount: 1, Submitted: 1}}, jorge)

	admin, err := svc.List(ctx, viewerAdmin)
	require.NoError(t, err)
	require.Len(t, admin, 2)
	assert.Equal(t, "bio-10", admin[0].Course)

	unknown, err := svc.List(ctx, models.Viewer{Username: "ghost", Role: models.RoleStudent})
	require.NoError(t, err)
	assert.Empty(t, unknown)
}
