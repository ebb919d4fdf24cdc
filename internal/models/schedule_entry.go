package models

import (
	"strings"
	"time"
)

// ScheduleEntry is a committed assignment of a student to one time range.
type ScheduleEntry struct {
	ID           string      `db:"id" json:"id"`
	StudentID    string      `db:"student_id" json:"student_id"`
	CourseID     string      `db:"course_id" json:"course_id"`
	SlotID       *string     `db:"slot_id" json:"slot_id,omitempty"`
	DayOfWeek    int         `db:"day_of_week" json:"day_of_week"`
	StartPeriod  int         `db:"start_period" json:"start_period"`
	PeriodLength int         `db:"period_length" json:"period_length"`
	Room         string      `db:"room" json:"room"`
	SessionKind  SessionKind `db:"session_kind" json:"session_kind"`
	DayPart      DayPart     `db:"day_part" json:"day_part"`
	Semester     int         `db:"semester" json:"semester"`
	AcademicYear string      `db:"academic_year" json:"academic_year"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`
}

// Term returns the scheduling key of the entry.
func (e ScheduleEntry) Term() TermRef {
	return TermRef{Semester: e.Semester, AcademicYear: e.AcademicYear}
}

// OriginSlotID returns the catalog slot id or an empty string for manual entries without one.
func (e ScheduleEntry) OriginSlotID() string {
	if e.SlotID == nil {
		return ""
	}
	return *e.SlotID
}

// RoomKey is the comparison form of a room name: trimmed and lower-cased.
func RoomKey(room string) string {
	return strings.ToLower(strings.TrimSpace(room))
}
