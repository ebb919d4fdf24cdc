package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sis-registration-api/internal/models"
)

const scheduleEntryColumns = `id, student_id, course_id, slot_id, day_of_week, start_period, period_length, room, session_kind, day_part, semester, academic_year, created_at`

// ScheduleEntryRepository persists committed student schedule entries.
type ScheduleEntryRepository struct {
	db *sqlx.DB
}

// NewScheduleEntryRepository creates a new schedule entry repository.
func NewScheduleEntryRepository(db *sqlx.DB) *ScheduleEntryRepository {
	return &ScheduleEntryRepository{db: db}
}

// ListByStudentTerm returns a student's entries for a term ordered by day/period.
func (r *ScheduleEntryRepository) ListByStudentTerm(ctx context.Context, studentID string, term models.TermRef) ([]models.ScheduleEntry, error) {
	query := `SELECT ` + scheduleEntryColumns + ` FROM schedule_entries WHERE student_id = $1 AND semester = $2 AND academic_year = $3 ORDER BY day_of_week ASC, start_period ASC`
	var entries []models.ScheduleEntry
	if err := r.db.SelectContext(ctx, &entries, query, studentID, term.Semester, term.AcademicYear); err != nil {
		return nil, fmt.Errorf("list student schedule entries: %w", err)
	}
	return entries, nil
}

// ListByRoomsTerm returns every student's entries booked in the given rooms for a term.
// Room names match ignoring case and surrounding spaces.
func (r *ScheduleEntryRepository) ListByRoomsTerm(ctx context.Context, rooms []string, term models.TermRef) ([]models.ScheduleEntry, error) {
	keys := make([]string, 0, len(rooms))
	seen := make(map[string]struct{}, len(rooms))
	for _, room := range rooms {
		key := models.RoomKey(room)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	if len(keys) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT `+scheduleEntryColumns+` FROM schedule_entries WHERE lower(btrim(room)) IN (?) AND semester = ? AND academic_year = ?`, keys, term.Semester, term.AcademicYear)
	if err != nil {
		return nil, fmt.Errorf("build room bookings query: %w", err)
	}
	var entries []models.ScheduleEntry
	if err := r.db.SelectContext(ctx, &entries, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list room bookings: %w", err)
	}
	return entries, nil
}

// FindByID loads an entry by id.
func (r *ScheduleEntryRepository) FindByID(ctx context.Context, id string) (*models.ScheduleEntry, error) {
	query := `SELECT ` + scheduleEntryColumns + ` FROM schedule_entries WHERE id = $1`
	var entry models.ScheduleEntry
	if err := r.db.GetContext(ctx, &entry, query, id); err != nil {
		return nil, err
	}
	return &entry, nil
}

// Create stores a new entry, assigning id and timestamp when missing.
func (r *ScheduleEntryRepository) Create(ctx context.Context, entry *models.ScheduleEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO schedule_entries (id, student_id, course_id, slot_id, day_of_week, start_period, period_length, room, session_kind, day_part, semester, academic_year, created_at) VALUES (:id, :student_id, :course_id, :slot_id, :day_of_week, :start_period, :period_length, :room, :session_kind, :day_part, :semester, :academic_year, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("create schedule entry: %w", err)
	}
	return nil
}

// Delete removes an entry by id.
func (r *ScheduleEntryRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM schedule_entries WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete schedule entry: %w", err)
	}
	return nil
}
