package models

// TaskCreatedEvent is published after a task is stored.
type TaskCreatedEvent struct {
	Task Task `json:"task"`
}

// SubmissionReceivedEvent is published after a student submits.
type SubmissionReceivedEvent struct {
	Task       Task    `json:"task"`
	Submission Comment `json:"submission"`
}

// GradePostedEvent is published after a submission is graded.
type GradePostedEvent struct {
	Task       Task    `json:"task"`
	Submission Comment `json:"submission"`
}

// CommentAddedEvent is published for remarks on a task.
type CommentAddedEvent struct {
	Task    Task    `json:"task"`
	Comment Comment `json:"comment"`
}

// NotificationsChangedEvent signals that a user's unread set may have changed.
type NotificationsChangedEvent struct {
	Usernames []string `json:"usernames"`
}

// StoreMutatedEvent is published when a collection is rewritten out-of-band.
type StoreMutatedEvent struct {
	Collection string `json:"collection"`
	Mutated    int    `json:"mutated"`
	Source     string `json:"source"`
}
