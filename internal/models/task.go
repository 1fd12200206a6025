package models

import "time"

// TaskStatus tracks a task through pending -> submitted -> graded.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskSubmitted TaskStatus = "submitted"
	TaskGraded    TaskStatus = "graded"
)

// TaskType distinguishes assignments from evaluations.
type TaskType string

const (
	TaskAssignment TaskType = "assignment"
	TaskEvaluation TaskType = "evaluation"
)

// CanTransitionTo reports whether moving from s to next is allowed. Graded is
// terminal; regrading keeps the task graded.
func (s TaskStatus) CanTransitionTo(next TaskStatus) bool {
	current := s
	if current == "" {
		current = TaskPending
	}
	switch current {
	case TaskPending:
		return next == TaskPending || next == TaskSubmitted || next == TaskGraded
	case TaskSubmitted:
		return next == TaskSubmitted || next == TaskGraded
	case TaskGraded:
		return next == TaskGraded
	}
	return false
}

// Task is an assignment or evaluation published to a course.
type Task struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	Course       string     `json:"course"`
	Subject      string     `json:"subject"`
	Status       TaskStatus `json:"status"`
	AssignedByID string     `json:"assignedById"`
	// AssignedBy is a legacy creator field; only the task repair reads it.
	AssignedBy string     `json:"assignedBy,omitempty"`
	TaskType   TaskType   `json:"taskType"`
	DueDate    *time.Time `json:"dueDate,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
	// Extra carries stored members this type does not declare.
	Extra Extras `json:"-"`
}

func (t Task) EntityID() string { return t.ID }

type taskRecord Task

var taskLegacyFields = map[string]lenientKind{"dueDate": lenientTime, "createdAt": lenientTime, "updatedAt": lenientTime}

// UnmarshalJSON decodes a stored task, tolerating legacy encodings and
// keeping undeclared members in Extra.
func (t *Task) UnmarshalJSON(data []byte) error {
	extras, err := decodeRecord(data, (*taskRecord)(t), taskLegacyFields)
	if err != nil {
		return err
	}
	t.Extra = extras
	return nil
}

// MarshalJSON writes the declared fields followed by Extra.
func (t Task) MarshalJSON() ([]byte, error) {
	return encodeRecord(taskRecord(t), t.Extra)
}
