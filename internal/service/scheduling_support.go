package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sis-registration-api/internal/models"
	appErrors "github.com/noah-isme/sis-registration-api/pkg/errors"
)

const studentLockPrefix = "sis:schedule:lock:"

type scheduleCourseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type slotCatalog interface {
	ListByCourseTerm(ctx context.Context, courseID string, term models.TermRef) ([]models.AvailableSlot, error)
	FindByID(ctx context.Context, id string) (*models.AvailableSlot, error)
	AdjustEnrollment(ctx context.Context, slotID string, delta int) error
}

type scheduleEntryStore interface {
	ListByStudentTerm(ctx context.Context, studentID string, term models.TermRef) ([]models.ScheduleEntry, error)
	ListByRoomsTerm(ctx context.Context, rooms []string, term models.TermRef) ([]models.ScheduleEntry, error)
	FindByID(ctx context.Context, id string) (*models.ScheduleEntry, error)
	Create(ctx context.Context, entry *models.ScheduleEntry) error
	Delete(ctx context.Context, id string) error
}

type registrationWindowChecker interface {
	Check(ctx context.Context, term models.TermRef) (*models.RegistrationPeriod, error)
}

type studentLocker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(), bool, error)
}

type schedulingMetrics interface {
	ObserveScheduling(operation string, partial bool, err error, duration time.Duration)
	AddCommittedEntries(kind string, n int)
	AddSeatRaces(n int)
}

// lockStudent serialises scheduling for one student. Lock backend errors degrade to running unlocked.
func lockStudent(ctx context.Context, locker studentLocker, logger *zap.Logger, studentID string, ttl time.Duration) (func(), error) {
	if locker == nil {
		return func() {}, nil
	}
	release, ok, err := locker.Acquire(ctx, studentLockPrefix+studentID, ttl)
	if err != nil {
		logger.Warn("scheduling lock unavailable, continuing without it", zap.String("student_id", studentID), zap.Error(err))
		return func() {}, nil
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrSchedulingInFlight, "")
	}
	return release, nil
}

func loadCourse(ctx context.Context, courses scheduleCourseReader, id string) (*models.Course, error) {
	course, err := courses.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

func distinctRooms(slots []models.AvailableSlot) []string {
	seen := make(map[string]struct{}, len(slots))
	rooms := make([]string, 0, len(slots))
	for _, slot := range slots {
		key := models.RoomKey(slot.Room)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		rooms = append(rooms, key)
	}
	return rooms
}

func countByKind(entries []models.ScheduleEntry) map[models.SessionKind]int {
	counts := map[models.SessionKind]int{}
	for _, entry := range entries {
		counts[entry.SessionKind]++
	}
	return counts
}
