package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// Activity actions recorded for scheduling requests.
const (
	ActivityAutoSchedule = "AUTO_SCHEDULE"
	ActivityManualSelect = "MANUAL_SELECT"
	ActivityDropEntry    = "DROP_ENTRY"
)

// ActivityLog captures the outcome of one scheduling request.
type ActivityLog struct {
	ID        string         `db:"id" json:"id"`
	StudentID string         `db:"student_id" json:"student_id"`
	CourseID  string         `db:"course_id" json:"course_id"`
	Action    string         `db:"action" json:"action"`
	Success   bool           `db:"success" json:"success"`
	Entries   types.JSONText `db:"entries" json:"entries,omitempty"`
	Reason    *string        `db:"reason" json:"reason,omitempty"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
}
