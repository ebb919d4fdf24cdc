package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sis-registration-api/internal/models"
)

// RegistrationPeriodRepository reads and maintains registration windows.
type RegistrationPeriodRepository struct {
	db *sqlx.DB
}

// NewRegistrationPeriodRepository instantiates the repository.
func NewRegistrationPeriodRepository(db *sqlx.DB) *RegistrationPeriodRepository {
	return &RegistrationPeriodRepository{db: db}
}

// ListActiveByTerm returns periods of the term whose status is active. Date bounds are
// evaluated by the caller against its own clock.
func (r *RegistrationPeriodRepository) ListActiveByTerm(ctx context.Context, term models.TermRef) ([]models.RegistrationPeriod, error) {
	const query = `SELECT id, name, semester, academic_year, status, start_at, end_at, created_at, updated_at FROM registration_periods WHERE semester = $1 AND academic_year = $2 AND status = $3 ORDER BY start_at DESC`
	var periods []models.RegistrationPeriod
	if err := r.db.SelectContext(ctx, &periods, query, term.Semester, term.AcademicYear, models.RegistrationPeriodActive); err != nil {
		return nil, fmt.Errorf("list active registration periods: %w", err)
	}
	return periods, nil
}

// EndExpired flips active periods whose end has passed to ended and returns how many changed.
func (r *RegistrationPeriodRepository) EndExpired(ctx context.Context, now time.Time) (int64, error) {
	const query = `UPDATE registration_periods SET status = $1, updated_at = $2 WHERE status = $3 AND end_at < $2`
	res, err := r.db.ExecContext(ctx, query, models.RegistrationPeriodEnded, now.UTC(), models.RegistrationPeriodActive)
	if err != nil {
		return 0, fmt.Errorf("end expired registration periods: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("end expired registration periods rows: %w", err)
	}
	return affected, nil
}
