package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/smart-student-api/internal/models"
)

func TestEntityRepositoryCRUD(t *testing.T) {
	ctx := context.Background()
	repos := New(NewMemoryStore(), "smart_student", nil)

	require.NoError(t, repos.Tasks.Put(ctx, models.Task{ID: "t1", Title: "Essay", Course: "lit-10", AssignedByID: "jorge"}))
	require.NoError(t, repos.Tasks.Put(ctx, models.Task{ID: "t2", Title: "Lab", Course: "bio-10", AssignedByID: "ana"}))
	require.NoError(t, repos.Tasks.Put(ctx, models.Task{ID: "t1", Title: "Essay v2", Course: "lit-10", AssignedByID: "jorge"}))

	tasks, err := repos.Tasks.List(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "Essay v2", tasks[0].Title, "put keeps position")

	got, err := repos.Tasks.Get(ctx, "t2")
	require.NoError(t, err)
	assert.Equal(t, "Lab", got.Title)

	_, err = repos.Tasks.Get(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repos.Tasks.Delete(ctx, "t2"))
	assert.ErrorIs(t, repos.Tasks.Delete(ctx, "t2"), ErrNotFound)
}

func TestTaskRepositoryFilters(t *testing.T) {
	ctx := context.Background()
	repo := NewTaskRepository(NewMemoryStore(), "smart_student", nil)
	require.NoError(t, repo.Replace(ctx, []models.Task{
		{ID: "t1", Course: "lit-10", AssignedByID: "jorge"},
		{ID: "t2", Course: "bio-10", AssignedByID: "ana"},
		{ID: "t3", Course: "math-10", AssignedByID: "jorge", AssignedBy: "ana"},
	}))

	mine, err := repo.ListByCreator(ctx, "jorge")
	require.NoError(t, err)
	assert.Equal(t, []string{"t1", "t3"}, taskIDs(mine))

	anas, err := repo.ListByCreator(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, []string{"t2"}, taskIDs(anas), "legacy assignedBy is not consulted")

	courses, err := repo.ListByCourses(ctx, []string{"bio-10", "math-10"})
	require.NoError(t, err)
	assert.Equal(t, []string{"t2", "t3"}, taskIDs(courses))
}

func TestUserRepositoryListByCourse(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(NewMemoryStore(), "smart_student", nil)
	require.NoError(t, repo.Replace(ctx, []models.User{
		{Username: "maria", Role: "Student", ActiveCourses: []string{"lit-10"}},
		{Username: "pedro", Role: models.RoleStudent, ActiveCourses: []string{"bio-10"}},
		{Username: "jorge", Role: models.RoleTeacher, ActiveCourses: []string{"lit-10"}},
	}))

	students, err := repo.ListByCourse(ctx, "lit-10", models.RoleStudent)
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "maria", students[0].Username)

	user, err := repo.FindByUsername(ctx, "jorge")
	require.NoError(t, err)
	assert.Equal(t, models.RoleTeacher, user.Role)
}

func TestCommentRepositoryFindSubmission(t *testing.T) {
	ctx := context.Background()
	repo := NewCommentRepository(NewMemoryStore(), "smart_student", nil)
	require.NoError(t, repo.Replace(ctx, []models.Comment{
		{ID: "c1", TaskID: "t1", StudentUsername: "maria", IsSubmission: true},
		{ID: "c2", TaskID: "t1", StudentUsername: "maria", Comment: "question"},
		{ID: "c3", TaskID: "t1", StudentUsername: "maria", IsSubmission: true},
		{ID: "c4", TaskID: "t2", StudentUsername: "maria", IsSubmission: true},
	}))

	sub, err := repo.FindSubmission(ctx, "t1", "maria")
	require.NoError(t, err)
	assert.Equal(t, "c3", sub.ID)

	_, err = repo.FindSubmission(ctx, "t1", "pedro")
	assert.ErrorIs(t, err, ErrNotFound)

	onTask, err := repo.ListByTask(ctx, "t1")
	require.NoError(t, err)
	assert.Len(t, onTask, 3)
}

func taskIDs(tasks []models.Task) []string {
	ids := make([]string, 0, len(tasks))
	for _, t := range tasks {
		ids = append(ids, t.ID)
	}
	return ids
}
