package models

import "time"

// Term models an academic term; the (semester, academic year) pair identifies it for scheduling.
type Term struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Semester     int       `db:"semester" json:"semester"`
	AcademicYear string    `db:"academic_year" json:"academic_year"`
	StartDate    time.Time `db:"start_date" json:"start_date"`
	EndDate      time.Time `db:"end_date" json:"end_date"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// TermRef is the scheduling key shared by slots, entries and registration periods.
type TermRef struct {
	Semester     int    `json:"semester"`
	AcademicYear string `json:"academic_year"`
}

// IsZero reports whether the reference was left unset by the caller.
func (t TermRef) IsZero() bool {
	return t.Semester == 0 && t.AcademicYear == ""
}

// Ref returns the scheduling key for the term.
func (t Term) Ref() TermRef {
	return TermRef{Semester: t.Semester, AcademicYear: t.AcademicYear}
}
