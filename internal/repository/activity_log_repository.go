package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sis-registration-api/internal/models"
)

// ActivityLogRepository stores scheduling activity records.
type ActivityLogRepository struct {
	db *sqlx.DB
}

// NewActivityLogRepository creates the repository.
func NewActivityLogRepository(db *sqlx.DB) *ActivityLogRepository {
	return &ActivityLogRepository{db: db}
}

// Create inserts an activity record.
func (r *ActivityLogRepository) Create(ctx context.Context, record *models.ActivityLog) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO activity_logs (id, student_id, course_id, action, success, entries, reason, created_at) VALUES (:id, :student_id, :course_id, :action, :success, :entries, :reason, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("create activity log: %w", err)
	}
	return nil
}
