package dto

import (
	"encoding/json"
	"time"

	"github.com/noah-isme/smart-student-api/internal/models"
)

// CreateTaskRequest captures POST /tasks payload.
type CreateTaskRequest struct {
	Title       string          `json:"title" validate:"required"`
	Description string          `json:"description"`
	Course      string          `json:"course" validate:"required"`
	Subject     string          `json:"subject" validate:"required"`
	TaskType    models.TaskType `json:"taskType" validate:"required,oneof=assignment evaluation"`
	DueDate     *time.Time      `json:"dueDate,omitempty"`
}

// SubmitTaskRequest is the JSON form of a submission. Multipart requests
// carry the comment as a form field and files as "files" parts instead.
type SubmitTaskRequest struct {
	Comment string             `json:"comment" form:"comment"`
	Files   []InlineAttachment `json:"files" validate:"dive"`
}

// InlineAttachment is a base64 encoded file inside a JSON submission.
type InlineAttachment struct {
	Name        string `json:"name" validate:"required"`
	ContentType string `json:"contentType"`
	Data        string `json:"data" validate:"required,base64"`
}

// GradeRequest captures POST /tasks/{id}/grade payload.
type GradeRequest struct {
	StudentUsername string `json:"studentUsername" validate:"required"`
	Grade           *int   `json:"grade" validate:"required"`
	Feedback        string `json:"feedback"`
}

// CommentRequest captures POST /tasks/{id}/comments payload. Teachers must
// name the student thread they are replying to.
type CommentRequest struct {
	Comment         string `json:"comment" validate:"required"`
	StudentUsername string `json:"studentUsername"`
}

// AttachmentLink is a signed download link for a stored attachment.
type AttachmentLink struct {
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// CommentResponse wraps a comment with download links for its attachments.
type CommentResponse struct {
	models.Comment
	Links []AttachmentLink `json:"links,omitempty"`
}

// MarshalJSON flattens the comment and its links into one object.
func (r CommentResponse) MarshalJSON() ([]byte, error) {
	body, err := json.Marshal(r.Comment)
	if err != nil || len(r.Links) == 0 {
		return body, err
	}
	var members map[string]json.RawMessage
	if err := json.Unmarshal(body, &members); err != nil {
		return nil, err
	}
	links, err := json.Marshal(r.Links)
	if err != nil {
		return nil, err
	}
	members["links"] = links
	return json.Marshal(members)
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (r *CommentResponse) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, &r.Comment); err != nil {
		return err
	}
	var aux struct {
		Links []AttachmentLink `json:"links"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	r.Links = aux.Links
	delete(r.Comment.Extra, "links")
	if len(r.Comment.Extra) == 0 {
		r.Comment.Extra = nil
	}
	return nil
}

// CourseSummary aggregates the tasks of one course for the viewer.
type CourseSummary struct {
	Course    string `json:"course"`
	TaskCount int    `json:"taskCount"`
	Pending   int    `json:"pending"`
	Submitted int    `json:"submitted"`
	Graded    int    `json:"graded"`
}
