package models

import "time"

// Attachment references a stored submission file.
type Attachment struct {
	Name        string `json:"name"`
	Key         string `json:"key"`
	ContentType string `json:"contentType,omitempty"`
	Size        int64  `json:"size"`
}

// Comment is either a submission or a remark on a task. Grades live on the
// submission comment.
type Comment struct {
	ID              string       `json:"id"`
	TaskID          string       `json:"taskId"`
	StudentUsername string       `json:"studentUsername"`
	AuthorUsername  string       `json:"authorUsername,omitempty"`
	Comment         string       `json:"comment"`
	IsSubmission    bool         `json:"isSubmission"`
	Attachments     []Attachment `json:"attachments,omitempty"`
	UserRole        UserRole     `json:"userRole,omitempty"`
	ReadBy          ReadSet      `json:"readBy"`
	Grade           *int         `json:"grade,omitempty"`
	Feedback        string       `json:"feedback,omitempty"`
	GradedBy        string       `json:"gradedBy,omitempty"`
	GradedAt        *time.Time   `json:"gradedAt,omitempty"`
	Timestamp       time.Time    `json:"timestamp"`
	// Extra carries stored members this type does not declare.
	Extra Extras `json:"-"`
}

func (c Comment) EntityID() string { return c.ID }

// HasAttachments reports whether the comment carries submission evidence.
func (c Comment) HasAttachments() bool { return len(c.Attachments) > 0 }

// ClampGrade bounds a grade to [0,100].
func ClampGrade(grade int) int {
	return max(0, min(100, grade))
}

type commentRecord Comment

var commentLegacyFields = map[string]lenientKind{"timestamp": lenientTime, "gradedAt": lenientTime, "grade": lenientGrade}

// UnmarshalJSON decodes a stored comment, tolerating legacy encodings and
// keeping undeclared members in Extra.
func (c *Comment) UnmarshalJSON(data []byte) error {
	extras, err := decodeRecord(data, (*commentRecord)(c), commentLegacyFields)
	if err != nil {
		return err
	}
	c.Extra = extras
	return nil
}

// MarshalJSON writes the declared fields followed by Extra.
func (c Comment) MarshalJSON() ([]byte, error) {
	return encodeRecord(commentRecord(c), c.Extra)
}
