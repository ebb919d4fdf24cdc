package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/noah-isme/sis-registration-api/internal/models"
	"github.com/noah-isme/sis-registration-api/pkg/jobs"
)

const activityJobType = "activity_log"

type activityLogWriter interface {
	Create(ctx context.Context, record *models.ActivityLog) error
}

// ActivityRecord is the outcome of one scheduling request.
type ActivityRecord struct {
	StudentID string
	CourseID  string
	Action    string
	Success   bool
	Entries   []models.ScheduleEntry
	Reason    string
}

// ActivityLogConfig sizes the background writer.
type ActivityLogConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
}

// ActivityLogService writes activity records through a background queue so logging never
// blocks or fails a scheduling request.
type ActivityLogService struct {
	repo   activityLogWriter
	queue  *jobs.Queue
	logger *zap.Logger
	now    func() time.Time
}

// NewActivityLogService builds the service and its queue; call Start before recording.
func NewActivityLogService(repo activityLogWriter, cfg ActivityLogConfig, logger *zap.Logger) *ActivityLogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &ActivityLogService{repo: repo, logger: logger, now: time.Now}
	svc.queue = jobs.NewQueue("activity-log", svc.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: 500 * time.Millisecond,
		Logger:     logger,
	})
	return svc
}

// Start launches the background writers.
func (s *ActivityLogService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop flushes queued records and stops the writers.
func (s *ActivityLogService) Stop() {
	s.queue.Stop()
}

// Record queues a record. Failures are logged and swallowed.
func (s *ActivityLogService) Record(ctx context.Context, rec ActivityRecord) {
	entry, err := s.build(rec)
	if err != nil {
		s.logger.Warn("activity log encode failed", zap.String("student_id", rec.StudentID), zap.String("action", rec.Action), zap.Error(err))
		return
	}
	if err := s.queue.Enqueue(jobs.Job{ID: entry.ID, Type: activityJobType, Payload: entry}); err != nil {
		s.logger.Warn("activity log dropped", zap.String("student_id", rec.StudentID), zap.String("action", rec.Action), zap.Error(err))
	}
}

func (s *ActivityLogService) build(rec ActivityRecord) (*models.ActivityLog, error) {
	entries := rec.Entries
	if entries == nil {
		entries = []models.ScheduleEntry{}
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return nil, err
	}
	entry := &models.ActivityLog{
		ID:        uuid.NewString(),
		StudentID: rec.StudentID,
		CourseID:  rec.CourseID,
		Action:    rec.Action,
		Success:   rec.Success,
		Entries:   types.JSONText(raw),
		CreatedAt: s.now().UTC(),
	}
	if rec.Reason != "" {
		reason := rec.Reason
		entry.Reason = &reason
	}
	return entry, nil
}

func (s *ActivityLogService) handle(ctx context.Context, job jobs.Job) error {
	entry, ok := job.Payload.(*models.ActivityLog)
	if !ok {
		s.logger.Error("unexpected activity payload", zap.String("job_id", job.ID))
		return nil
	}
	return s.repo.Create(ctx, entry)
}
