package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/sis-registration-api/internal/models"
	appErrors "github.com/noah-isme/sis-registration-api/pkg/errors"
)

type scheduleEntryWriter interface {
	Create(ctx context.Context, entry *models.ScheduleEntry) error
	Delete(ctx context.Context, id string) error
}

type slotEnrollmentAdjuster interface {
	AdjustEnrollment(ctx context.Context, slotID string, delta int) error
}

type activityRecorder interface {
	Record(ctx context.Context, rec ActivityRecord)
}

// scheduleCommitter persists accepted proposals entry by entry. It is not
// transactional: when entry N fails, entries before it stay committed and are returned.
type scheduleCommitter struct {
	entries  scheduleEntryWriter
	slots    slotEnrollmentAdjuster
	activity activityRecorder
	logger   *zap.Logger
}

type commitOutcome struct {
	Committed   []models.ScheduleEntry
	Unscheduled []string
}

func (c *scheduleCommitter) commit(ctx context.Context, proposals []proposal) (commitOutcome, error) {
	var out commitOutcome
	for _, item := range proposals {
		entry := item.Entry
		if err := c.entries.Create(ctx, &entry); err != nil {
			return out, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status,
				fmt.Sprintf("failed to save schedule entry for slot %s (%d entries already saved)", item.Slot.ID, len(out.Committed)))
		}
		if err := c.slots.AdjustEnrollment(ctx, item.Slot.ID, 1); err != nil {
			c.compensate(ctx, entry)
			if errors.Is(err, appErrors.ErrSlotFull) {
				// lost the race for the last seat
				out.Unscheduled = append(out.Unscheduled, item.Slot.ID)
				continue
			}
			return out, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status,
				fmt.Sprintf("failed to reserve seat in slot %s (%d entries already saved)", item.Slot.ID, len(out.Committed)))
		}
		out.Committed = append(out.Committed, entry)
	}
	return out, nil
}

func (c *scheduleCommitter) compensate(ctx context.Context, entry models.ScheduleEntry) {
	if err := c.entries.Delete(ctx, entry.ID); err != nil {
		c.logger.Error("failed to remove entry without seat", zap.String("entry_id", entry.ID), zap.String("slot_id", entry.OriginSlotID()), zap.Error(err))
	}
}

func (c *scheduleCommitter) record(ctx context.Context, studentID, courseID, action string, entries []models.ScheduleEntry, err error) {
	recordActivity(ctx, c.activity, studentID, courseID, action, entries, err)
}

// recordActivity hands the outcome to the recorder; err becomes the failure reason. A course
// that was already fully scheduled is recorded as a success with no entries.
func recordActivity(ctx context.Context, recorder activityRecorder, studentID, courseID, action string, entries []models.ScheduleEntry, err error) {
	if recorder == nil {
		return
	}
	rec := ActivityRecord{StudentID: studentID, CourseID: courseID, Action: action, Success: err == nil, Entries: entries}
	switch {
	case errors.Is(err, appErrors.ErrAlreadySatisfied):
		rec.Success = true
		rec.Entries = []models.ScheduleEntry{}
	case err != nil:
		rec.Reason = err.Error()
	}
	recorder.Record(ctx, rec)
}
