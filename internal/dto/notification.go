package dto

// UnreadCountResponse is returned by GET /notifications/unread/count.
type UnreadCountResponse struct {
	Count int `json:"count"`
}

// MarkAllReadResponse reports how many notifications were acknowledged.
type MarkAllReadResponse struct {
	Marked int `json:"marked"`
}
