package dto

import "github.com/noah-isme/sis-registration-api/internal/models"

// AutoScheduleRequest asks the generator to fill a course's lecture and lab periods for a student.
type AutoScheduleRequest struct {
	StudentID    string `json:"studentId" validate:"required"`
	CourseID     string `json:"courseId" validate:"required"`
	Semester     int    `json:"semester" validate:"omitempty,min=1,max=3"`
	AcademicYear string `json:"academicYear" validate:"omitempty,max=16"`
}

// BulkAutoScheduleRequest runs the generator for several courses in one request.
type BulkAutoScheduleRequest struct {
	StudentID    string   `json:"studentId" validate:"required"`
	CourseIDs    []string `json:"courseIds" validate:"required,min=1,max=16,dive,required"`
	Semester     int      `json:"semester" validate:"omitempty,min=1,max=3"`
	AcademicYear string   `json:"academicYear" validate:"omitempty,max=16"`
}

// ManualSelectRequest books (or replaces) one session explicitly. Fields left empty are
// defaulted from the catalog slot when SlotID is given.
type ManualSelectRequest struct {
	StudentID    string             `json:"studentId" validate:"required"`
	CourseID     string             `json:"courseId" validate:"required"`
	SlotID       string             `json:"slotId"`
	DayOfWeek    int                `json:"dayOfWeek" validate:"omitempty,min=1,max=7"`
	StartPeriod  int                `json:"startPeriod" validate:"omitempty,min=1,max=16"`
	PeriodLength int                `json:"periodLength" validate:"omitempty,min=1,max=6"`
	Room         string             `json:"room" validate:"omitempty,max=32"`
	SessionKind  models.SessionKind `json:"sessionKind" validate:"omitempty,oneof=lecture lab"`
	Semester     int                `json:"semester" validate:"omitempty,min=1,max=3"`
	AcademicYear string             `json:"academicYear" validate:"omitempty,max=16"`
}

// DropEntryRequest removes one of the student's schedule entries.
type DropEntryRequest struct {
	StudentID string `json:"studentId" validate:"required"`
	EntryID   string `json:"entryId" validate:"required"`
}

// ScheduleQuery selects a student's entries for a term; an empty term resolves to the current one.
type ScheduleQuery struct {
	StudentID    string `form:"studentId" json:"studentId"`
	Semester     int    `form:"semester" json:"semester"`
	AcademicYear string `form:"academicYear" json:"academicYear"`
}

// SlotQuery lists the catalog slots of a course in a term.
type SlotQuery struct {
	CourseID     string `form:"courseId" json:"courseId"`
	Semester     int    `form:"semester" json:"semester"`
	AcademicYear string `form:"academicYear" json:"academicYear"`
}

// Shortfall reports periods the generator could not place.
type Shortfall struct {
	LecturePeriods int `json:"lecturePeriods"`
	LabPeriods     int `json:"labPeriods"`
}

// ScheduleResult is returned by the auto and manual scheduling operations.
type ScheduleResult struct {
	StudentID   string                 `json:"studentId"`
	CourseID    string                 `json:"courseId"`
	Term        models.TermRef         `json:"term"`
	Entries     []models.ScheduleEntry `json:"entries"`
	Partial     bool                   `json:"partial"`
	Shortfall   Shortfall              `json:"shortfall"`
	Unscheduled []string               `json:"unscheduled,omitempty"`
}

// BulkScheduleItem carries one course outcome of a bulk request.
type BulkScheduleItem struct {
	CourseID string          `json:"courseId"`
	Result   *ScheduleResult `json:"result,omitempty"`
	Code     string          `json:"code,omitempty"`
	Message  string          `json:"message,omitempty"`
}

// BulkScheduleResult aggregates per-course outcomes.
type BulkScheduleResult struct {
	StudentID string             `json:"studentId"`
	Term      models.TermRef     `json:"term"`
	Items     []BulkScheduleItem `json:"items"`
}

// SlotAvailability decorates a catalog slot with its remaining seats.
type SlotAvailability struct {
	models.AvailableSlot
	Remaining int `json:"remaining"`
}
