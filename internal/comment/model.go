// Package comment provides the issue comment model and data access.
package comment

import "time"

// TimeLayout is the text form of comment timestamps (yyyy/MM/dd HH:mm:ss).
const TimeLayout = "2006/01/02 15:04:05"

// Comment is a note left on an issue.
type Comment struct {
	ID          int64  `json:"id"`
	Body        string `json:"comment" validate:"required"`
	CreatedTime string `json:"created_time,omitempty"`
	UpdatedTime string `json:"updated_time,omitempty"`
	Creator     string `json:"creator"`
	IssueID     int64  `json:"issue_id" validate:"gt=0"`
}

// FormatTime renders t in TimeLayout, in UTC.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}
