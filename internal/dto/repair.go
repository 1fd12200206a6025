package dto

import "time"

// RepairRequest is accepted by POST /admin/repairs/{collection}. Fields not
// relevant to the collection are ignored.
type RepairRequest struct {
	StudentUsername string     `json:"studentUsername"`
	StripReader     string     `json:"stripReader"`
	Username        string     `json:"username"`
	Type            string     `json:"type"`
	Before          *time.Time `json:"before,omitempty"`
	DryRun          bool       `json:"dryRun"`
}
