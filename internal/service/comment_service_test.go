package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/smart-student-api/internal/dto"
	"github.com/noah-isme/smart-student-api/internal/models"
	appErrors "github.com/noah-isme/smart-student-api/pkg/errors"
)

func TestCommentTeacherRemarkNotifiesStudent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	task := createEssayTask(t, f)

	remark, err := f.comments.Add(ctx, viewerJorge, task.ID, dto.CommentRequest{Comment: "cite your sources", StudentUsername: "maria"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleTeacher, remark.UserRole)
	assert.Equal(t, "maria", remark.StudentUsername)
	assert.False(t, remark.IsSubmission)
	assert.Equal(t, models.ReadSet{"jorge"}, remark.ReadBy)

	unread, err := f.notifications.ListUnread(ctx, viewerMaria)
	require.NoError(t, err)
	require.Len(t, unread, 2)
	assert.Equal(t, models.NotificationTeacherComment, unread[1].Type)
	assert.Equal(t, "jorge", unread[1].FromUsername)
	assert.Equal(t, "cite your sources", unread[1].Message)
}

func TestCommentStudentRemarkStaysInOwnThread(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	task := createEssayTask(t, f)

	before := len(f.allNotifications(t))
	mine, err := f.comments.Add(ctx, viewerMaria, task.ID, dto.CommentRequest{Comment: "question", StudentUsername: "pedro"})
	require.NoError(t, err)
	assert.Equal(t, "maria", mine.StudentUsername)
	assert.Equal(t, models.RoleStudent, mine.UserRole)
	assert.Len(t, f.allNotifications(t), before, "student remarks do not notify")

	_, err = f.comments.Add(ctx, viewerPedro, task.ID, dto.CommentRequest{Comment: "other"})
	require.NoError(t, err)

	pedroView, err := f.comments.List(ctx, viewerPedro, task.ID)
	require.NoError(t, err)
	require.Len(t, pedroView, 1)
	assert.Equal(t, "pedro", pedroView[0].StudentUsername)

	teacherView, err := f.comments.List(ctx, viewerJorge, task.ID)
	require.NoError(t, err)
	assert.Len(t, teacherView, 2)
}

func TestCommentAddRules(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	task := createEssayTask(t, f)

	_, err := f.comments.Add(ctx, viewerJorge, task.ID, dto.CommentRequest{Comment: "hi"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = f.comments.Add(ctx, viewerAna, task.ID, dto.CommentRequest{Comment: "hi", StudentUsername: "maria"})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	_, err = f.comments.Add(ctx, viewerMaria, task.ID, dto.CommentRequest{})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = f.comments.Add(ctx, viewerLucia, task.ID, dto.CommentRequest{Comment: "hi"})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestCommentMarkRead(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	task := createEssayTask(t, f)
	remark, err := f.comments.Add(ctx, viewerJorge, task.ID, dto.CommentRequest{Comment: "good start", StudentUsername: "maria"})
	require.NoError(t, err)

	read, err := f.comments.MarkRead(ctx, viewerMaria, remark.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReadSet{"jorge", "maria"}, read.ReadBy)

	again, err := f.comments.MarkRead(ctx, viewerMaria, remark.ID)
	require.NoError(t, err)
	assert.Equal(t, read.ReadBy, again.ReadBy)

	_, err = f.comments.MarkRead(ctx, viewerPedro, remark.ID)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	_, err = f.comments.MarkRead(ctx, viewerMaria, "missing")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}
