package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClampGrade(t *testing.T) {
	cases := map[int]int{-5: 0, 150: 100, 50: 50, 0: 0, 100: 100, 85: 85}
	for in, want := range cases {
		assert.Equal(t, want, ClampGrade(in), "clamp(%d)", in)
	}
}

func TestTaskStatusTransitions(t *testing.T) {
	assert.True(t, TaskPending.CanTransitionTo(TaskSubmitted))
	assert.True(t, TaskStatus("").CanTransitionTo(TaskSubmitted))
	assert.True(t, TaskSubmitted.CanTransitionTo(TaskSubmitted))
	assert.True(t, TaskSubmitted.CanTransitionTo(TaskGraded))
	assert.True(t, TaskGraded.CanTransitionTo(TaskGraded))
	assert.False(t, TaskGraded.CanTransitionTo(TaskSubmitted))
	assert.False(t, TaskGraded.CanTransitionTo(TaskPending))
	assert.False(t, TaskSubmitted.CanTransitionTo(TaskPending))
}

func TestReadSet(t *testing.T) {
	var s ReadSet
	assert.False(t, s.Contains("maria"))

	s = s.With("maria").With("jorge").With("maria")
	assert.Equal(t, ReadSet{"maria", "jorge"}, s)
	assert.Equal(t, ReadSet{"maria"}, s.Without("jorge"))
	assert.Equal(t, ReadSet{"maria", "jorge"}, s, "Without must not mutate the receiver")
	assert.Equal(t, ReadSet{"maria", "jorge"}, s.With(""))
}

func TestParseRole(t *testing.T) {
	role, ok := ParseRole(" Teacher ")
	assert.True(t, ok)
	assert.Equal(t, RoleTeacher, role)

	_, ok = ParseRole("janitor")
	assert.False(t, ok)

	assert.True(t, RoleStudent.Equal("STUDENT"))
}

func TestUserInCourse(t *testing.T) {
	u := User{ActiveCourses: []string{"math-10", "bio-10"}}
	assert.True(t, u.InCourse("bio-10"))
	assert.False(t, u.InCourse("chem-10"))
}
