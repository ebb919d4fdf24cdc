package models

import "time"

// RegistrationPeriodStatus is the admin-controlled lifecycle of a registration window.
type RegistrationPeriodStatus string

const (
	RegistrationPeriodNotStarted RegistrationPeriodStatus = "not-started"
	RegistrationPeriodActive     RegistrationPeriodStatus = "active"
	RegistrationPeriodEnded      RegistrationPeriodStatus = "ended"
)

// RegistrationPeriod is a term-scoped window during which students may change schedules.
type RegistrationPeriod struct {
	ID           string                   `db:"id" json:"id"`
	Name         string                   `db:"name" json:"name"`
	Semester     int                      `db:"semester" json:"semester"`
	AcademicYear string                   `db:"academic_year" json:"academic_year"`
	Status       RegistrationPeriodStatus `db:"status" json:"status"`
	StartAt      time.Time                `db:"start_at" json:"start_at"`
	EndAt        time.Time                `db:"end_at" json:"end_at"`
	CreatedAt    time.Time                `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time                `db:"updated_at" json:"updated_at"`
}
