package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sis-registration-api/internal/models"
	appErrors "github.com/noah-isme/sis-registration-api/pkg/errors"
)

const availableSlotColumns = `id, course_id, semester, academic_year, day_of_week, start_period, period_length, room, session_kind, day_part, max_capacity, enrolled_count, created_at, updated_at`

// AvailableSlotRepository provides access to the slot catalog and its capacity counters.
type AvailableSlotRepository struct {
	db *sqlx.DB
}

// NewAvailableSlotRepository creates a new slot repository.
func NewAvailableSlotRepository(db *sqlx.DB) *AvailableSlotRepository {
	return &AvailableSlotRepository{db: db}
}

// ListByCourseTerm returns the slots offered for a course in a term, ordered by day and period.
func (r *AvailableSlotRepository) ListByCourseTerm(ctx context.Context, courseID string, term models.TermRef) ([]models.AvailableSlot, error) {
	query := `SELECT ` + availableSlotColumns + ` FROM available_slots WHERE course_id = $1 AND semester = $2 AND academic_year = $3 ORDER BY day_of_week ASC, start_period ASC, id ASC`
	var slots []models.AvailableSlot
	if err := r.db.SelectContext(ctx, &slots, query, courseID, term.Semester, term.AcademicYear); err != nil {
		return nil, fmt.Errorf("list available slots: %w", err)
	}
	return slots, nil
}

// FindByID loads a slot by id.
func (r *AvailableSlotRepository) FindByID(ctx context.Context, id string) (*models.AvailableSlot, error) {
	query := `SELECT ` + availableSlotColumns + ` FROM available_slots WHERE id = $1`
	var slot models.AvailableSlot
	if err := r.db.GetContext(ctx, &slot, query, id); err != nil {
		return nil, err
	}
	return &slot, nil
}

// AdjustEnrollment moves enrolled_count by delta in a single conditional update. Increments
// never exceed the slot capacity and decrements never go below zero; a refused increment
// returns ErrSlotFull.
func (r *AvailableSlotRepository) AdjustEnrollment(ctx context.Context, id string, delta int) error {
	if delta == 0 {
		return nil
	}
	const query = `
UPDATE available_slots
SET enrolled_count = enrolled_count + $2, updated_at = $3
WHERE id = $1
  AND enrolled_count + $2 >= 0
  AND ($2 < 0 OR enrolled_count + $2 <= CASE WHEN max_capacity > 0 THEN max_capacity ELSE $4 END)`
	res, err := r.db.ExecContext(ctx, query, id, delta, time.Now().UTC(), models.DefaultSlotCapacity)
	if err != nil {
		return fmt.Errorf("adjust slot enrollment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("adjust slot enrollment rows: %w", err)
	}
	if affected == 0 && delta > 0 {
		return appErrors.Clone(appErrors.ErrSlotFull, fmt.Sprintf("slot %s has no remaining capacity", id))
	}
	return nil
}
