package service

import "github.com/noah-isme/smart-student-api/internal/models"

// VisibleUnread returns the notifications unread for the viewer, in source order.
func VisibleUnread(notifications []models.Notification, viewerUsername string, viewerRole models.UserRole) []models.Notification {
	out := make([]models.Notification, 0)
	for _, n := range notifications {
		if n.UnreadFor(viewerUsername, viewerRole) {
			out = append(out, n)
		}
	}
	return out
}
