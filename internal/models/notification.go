package models

import (
	"fmt"
	"strings"
	"time"
)

// SystemSender marks notifications generated by the platform itself.
const SystemSender = "system"

// NotificationType tags the notification variant.
type NotificationType string

const (
	NotificationNewTask        NotificationType = "new_task"
	NotificationPendingGrading NotificationType = "pending_grading"
	NotificationGradeReceived  NotificationType = "grade_received"
	NotificationTeacherComment NotificationType = "teacher_comment"
	NotificationAnnouncement   NotificationType = "announcement"
)

// Notification is addressed to a set of usernames sharing one role.
type Notification struct {
	ID              string           `json:"id"`
	Type            NotificationType `json:"type"`
	TaskID          string           `json:"taskId,omitempty"`
	TargetUserRole  UserRole         `json:"targetUserRole"`
	TargetUsernames []string         `json:"targetUsernames"`
	FromUsername    string           `json:"fromUsername"`
	Title           string           `json:"title,omitempty"`
	Message         string           `json:"message,omitempty"`
	Timestamp       time.Time        `json:"timestamp"`
	// Read is the legacy single-reader flag. ReadBy is authoritative.
	Read   bool    `json:"read"`
	ReadBy ReadSet `json:"readBy"`
	// Extra carries stored members this type does not declare.
	Extra Extras `json:"-"`
}

func (n Notification) EntityID() string { return n.ID }

// NotificationID derives the identifier from type, task and creation time.
func NotificationID(t NotificationType, taskID string, at time.Time) string {
	return fmt.Sprintf("%s_%s_%d", t, taskID, at.UnixMilli())
}

// Targets reports whether username is a recipient.
func (n Notification) Targets(username string) bool {
	for _, u := range n.TargetUsernames {
		if u == username {
			return true
		}
	}
	return false
}

// UnreadFor reports whether the notification is visible and unread for the viewer.
// A user never sees their own notifications unless the platform sent them.
func (n Notification) UnreadFor(username string, role UserRole) bool {
	if username == "" || !n.TargetUserRole.Equal(role) || n.TargetUserRole == "" {
		return false
	}
	if !n.Targets(username) || n.ReadBy.Contains(username) {
		return false
	}
	return n.FromUsername != username || n.FromUsername == SystemSender
}

// MarkRead returns n with username acknowledged. Re-marking is a no-op.
func MarkRead(n Notification, username string) Notification {
	n.ReadBy = n.ReadBy.With(username)
	if len(n.TargetUsernames) == 1 && n.TargetUsernames[0] == username {
		n.Read = true
	}
	return n
}

// UnmarkRead returns n with username removed from the acknowledgements.
func UnmarkRead(n Notification, username string) Notification {
	n.ReadBy = n.ReadBy.Without(username)
	if len(n.TargetUsernames) == 1 && n.TargetUsernames[0] == username {
		n.Read = false
	}
	return n
}

// Validate checks the fields required by the notification type.
func (n Notification) Validate() error {
	if n.ID == "" {
		return fmt.Errorf("notification id required")
	}
	if len(n.TargetUsernames) == 0 {
		return fmt.Errorf("notification %s has no recipients", n.ID)
	}
	if n.TargetUserRole == "" {
		return fmt.Errorf("notification %s has no target role", n.ID)
	}
	switch n.Type {
	case NotificationNewTask, NotificationPendingGrading, NotificationGradeReceived:
		if n.TaskID == "" {
			return fmt.Errorf("%s notification requires taskId", n.Type)
		}
	case NotificationTeacherComment:
		if n.TaskID == "" {
			return fmt.Errorf("%s notification requires taskId", n.Type)
		}
		if n.FromUsername == "" || n.FromUsername == SystemSender {
			return fmt.Errorf("%s notification requires an author", n.Type)
		}
	case NotificationAnnouncement:
		if strings.TrimSpace(n.Title) == "" {
			return fmt.Errorf("%s notification requires title", n.Type)
		}
	default:
		return fmt.Errorf("unknown notification type %q", n.Type)
	}
	return nil
}

type notificationRecord Notification

var notificationLegacyFields = map[string]lenientKind{"timestamp": lenientTime}

// UnmarshalJSON decodes a stored notification, tolerating legacy encodings and
// keeping undeclared members in Extra.
func (n *Notification) UnmarshalJSON(data []byte) error {
	extras, err := decodeRecord(data, (*notificationRecord)(n), notificationLegacyFields)
	if err != nil {
		return err
	}
	n.Extra = extras
	return nil
}

// MarshalJSON writes the declared fields followed by Extra.
func (n Notification) MarshalJSON() ([]byte, error) {
	return encodeRecord(notificationRecord(n), n.Extra)
}
