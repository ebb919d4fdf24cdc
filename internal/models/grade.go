package models

import "time"

// PassingGrade is the minimum final grade on the 10-point scale that counts as passed.
const PassingGrade = 5.0

// FinalGrade stores a student's computed final grade for a course.
type FinalGrade struct {
	ID         string    `db:"id" json:"id"`
	StudentID  string    `db:"student_id" json:"student_id"`
	CourseID   string    `db:"course_id" json:"course_id"`
	FinalGrade float64   `db:"final_grade" json:"final_grade"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// Passed reports whether the grade clears the passing threshold.
func (g FinalGrade) Passed() bool {
	return g.FinalGrade >= PassingGrade
}
