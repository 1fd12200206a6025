package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationUnreadFor(t *testing.T) {
	base := Notification{
		ID:              "pending_grading_t1_1",
		Type:            NotificationPendingGrading,
		TaskID:          "t1",
		TargetUserRole:  RoleTeacher,
		TargetUsernames: []string{"jorge"},
		FromUsername:    SystemSender,
	}

	tests := []struct {
		name     string
		mutate   func(n Notification) Notification
		username string
		role     UserRole
		want     bool
	}{
		{name: "system reminder for target", mutate: nil, username: "jorge", role: RoleTeacher, want: true},
		{name: "role compared case-insensitively", mutate: nil, username: "jorge", role: "Teacher", want: true},
		{name: "role mismatch", mutate: nil, username: "jorge", role: RoleStudent, want: false},
		{name: "not a target", mutate: nil, username: "ana", role: RoleTeacher, want: false},
		{name: "already read", mutate: func(n Notification) Notification {
			n.ReadBy = ReadSet{"jorge"}
			return n
		}, username: "jorge", role: RoleTeacher, want: false},
		{name: "authored by viewer", mutate: func(n Notification) Notification {
			n.FromUsername = "jorge"
			return n
		}, username: "jorge", role: RoleTeacher, want: false},
		{name: "authored by someone else", mutate: func(n Notification) Notification {
			n.FromUsername = "ana"
			return n
		}, username: "jorge", role: RoleTeacher, want: true},
		{name: "nil recipients", mutate: func(n Notification) Notification {
			n.TargetUsernames = nil
			n.ReadBy = nil
			return n
		}, username: "jorge", role: RoleTeacher, want: false},
		{name: "missing target role", mutate: func(n Notification) Notification {
			n.TargetUserRole = ""
			return n
		}, username: "jorge", role: "", want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			n := base
			if tc.mutate != nil {
				n = tc.mutate(n)
			}
			assert.Equal(t, tc.want, n.UnreadFor(tc.username, tc.role))
		})
	}
}

func TestMarkReadIdempotent(t *testing.T) {
	n := Notification{TargetUsernames: []string{"jorge"}, TargetUserRole: RoleTeacher, FromUsername: SystemSender}
	require.True(t, n.UnreadFor("jorge", RoleTeacher))

	once := MarkRead(n, "jorge")
	twice := MarkRead(once, "jorge")

	assert.Equal(t, ReadSet{"jorge"}, once.ReadBy)
	assert.Equal(t, once.ReadBy, twice.ReadBy)
	assert.True(t, twice.Read)
	assert.False(t, twice.UnreadFor("jorge", RoleTeacher))
	assert.Nil(t, n.ReadBy, "original must not be mutated")
}

func TestMarkReadMultipleTargetsKeepsLegacyFlag(t *testing.T) {
	n := Notification{TargetUsernames: []string{"maria", "pedro"}}
	n = MarkRead(n, "maria")
	assert.False(t, n.Read)
	assert.Equal(t, ReadSet{"maria"}, n.ReadBy)
}

func TestUnmarkRead(t *testing.T) {
	n := Notification{TargetUsernames: []string{"jorge"}, ReadBy: ReadSet{"jorge", "ana"}, Read: true}
	n = UnmarkRead(n, "jorge")
	assert.Equal(t, ReadSet{"ana"}, n.ReadBy)
	assert.False(t, n.Read)
}

func TestNotificationID(t *testing.T) {
	at := time.UnixMilli(1700000000123)
	assert.Equal(t, "new_task_t1_1700000000123", NotificationID(NotificationNewTask, "t1", at))
}

func TestNotificationValidate(t *testing.T) {
	valid := Notification{
		ID:              "x",
		Type:            NotificationTeacherComment,
		TaskID:          "t1",
		TargetUserRole:  RoleStudent,
		TargetUsernames: []string{"maria"},
		FromUsername:    "jorge",
	}
	require.NoError(t, valid.Validate())

	noAuthor := valid
	noAuthor.FromUsername = SystemSender
	assert.Error(t, noAuthor.Validate())

	noTask := valid
	noTask.Type = NotificationGradeReceived
	noTask.TaskID = ""
	assert.Error(t, noTask.Validate())

	announcement := valid
	announcement.Type = NotificationAnnouncement
	announcement.TaskID = ""
	assert.Error(t, announcement.Validate())
	announcement.Title = "Holiday"
	assert.NoError(t, announcement.Validate())

	unknown := valid
	unknown.Type = "mystery"
	assert.Error(t, unknown.Validate())

	noTargets := valid
	noTargets.TargetUsernames = nil
	assert.Error(t, noTargets.Validate())
}
