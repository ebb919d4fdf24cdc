package models

import "time"

// PeriodsPerCredit converts course credits into required periods per session kind.
const PeriodsPerCredit = 15

// Course identifies a subject and its credit weight.
type Course struct {
	ID             string    `db:"id" json:"id"`
	Code           string    `db:"code" json:"code"`
	Name           string    `db:"name" json:"name"`
	Credits        int       `db:"credits" json:"credits"`
	PrerequisiteID *string   `db:"prerequisite_id" json:"prerequisite_id,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// RequiredPeriods returns the lecture or lab periods a student must book for the course in one term.
func (c Course) RequiredPeriods(kind SessionKind) int {
	switch kind {
	case SessionKindLecture, SessionKindLab:
		return PeriodsPerCredit * c.Credits
	default:
		return 0
	}
}
