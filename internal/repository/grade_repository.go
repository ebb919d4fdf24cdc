package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sis-registration-api/internal/models"
)

// GradeRepository reads final grades used for prerequisite checks.
type GradeRepository struct {
	db *sqlx.DB
}

// NewGradeRepository creates a grade repository.
func NewGradeRepository(db *sqlx.DB) *GradeRepository {
	return &GradeRepository{db: db}
}

// BestFinal returns the student's highest final grade for a course across attempts.
func (r *GradeRepository) BestFinal(ctx context.Context, studentID, courseID string) (*models.FinalGrade, error) {
	const query = `SELECT id, student_id, course_id, final_grade, updated_at FROM final_grades WHERE student_id = $1 AND course_id = $2 ORDER BY final_grade DESC LIMIT 1`
	var grade models.FinalGrade
	if err := r.db.GetContext(ctx, &grade, query, studentID, courseID); err != nil {
		return nil, err
	}
	return &grade, nil
}
