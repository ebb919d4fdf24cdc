package models

import "time"

// SessionKind distinguishes lecture and lab sessions.
type SessionKind string

const (
	SessionKindLecture SessionKind = "lecture"
	SessionKindLab     SessionKind = "lab"
)

// DayPart buckets periods into parts of the day for load ceilings.
type DayPart string

const (
	DayPartMorning   DayPart = "morning"
	DayPartAfternoon DayPart = "afternoon"
	DayPartEvening   DayPart = "evening"
)

// DefaultSlotCapacity is assumed when a slot carries no maximum capacity.
const DefaultSlotCapacity = 50

// AvailableSlot is a timetable template row offered for a course within a term.
type AvailableSlot struct {
	ID            string      `db:"id" json:"id"`
	CourseID      string      `db:"course_id" json:"course_id"`
	Semester      int         `db:"semester" json:"semester"`
	AcademicYear  string      `db:"academic_year" json:"academic_year"`
	DayOfWeek     int         `db:"day_of_week" json:"day_of_week"`
	StartPeriod   int         `db:"start_period" json:"start_period"`
	PeriodLength  int         `db:"period_length" json:"period_length"`
	Room          string      `db:"room" json:"room"`
	SessionKind   SessionKind `db:"session_kind" json:"session_kind"`
	DayPart       DayPart     `db:"day_part" json:"day_part"`
	MaxCapacity   int         `db:"max_capacity" json:"max_capacity"`
	EnrolledCount int         `db:"enrolled_count" json:"enrolled_count"`
	CreatedAt     time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time   `db:"updated_at" json:"updated_at"`
}

// Capacity returns the effective seat count, falling back to DefaultSlotCapacity.
func (s AvailableSlot) Capacity() int {
	if s.MaxCapacity <= 0 {
		return DefaultSlotCapacity
	}
	return s.MaxCapacity
}

// HasSpareCapacity reports whether another student may still book the slot.
func (s AvailableSlot) HasSpareCapacity() bool {
	return s.EnrolledCount < s.Capacity()
}

// Term returns the scheduling key of the slot.
func (s AvailableSlot) Term() TermRef {
	return TermRef{Semester: s.Semester, AcademicYear: s.AcademicYear}
}
