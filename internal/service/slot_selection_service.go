package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sis-registration-api/internal/dto"
	"github.com/noah-isme/sis-registration-api/internal/models"
	appErrors "github.com/noah-isme/sis-registration-api/pkg/errors"
)

// Period boundaries used to derive the day part of manually entered sessions.
const (
	lastMorningPeriod   = 6
	lastAfternoonPeriod = 12
)

// SlotSelectionService books, replaces and drops individual sessions chosen by the student.
type SlotSelectionService struct {
	terms     activeTermReader
	courses   scheduleCourseReader
	slots     slotCatalog
	entries   scheduleEntryStore
	grades    finalGradeReader
	gate      registrationWindowChecker
	locker    studentLocker
	activity  activityRecorder
	metrics   schedulingMetrics
	validator *validator.Validate
	logger    *zap.Logger
	lockTTL   time.Duration
}

// NewSlotSelectionService constructs the manual selection service.
func NewSlotSelectionService(
	terms activeTermReader,
	courses scheduleCourseReader,
	slots slotCatalog,
	entries scheduleEntryStore,
	grades finalGradeReader,
	gate registrationWindowChecker,
	locker studentLocker,
	activity activityRecorder,
	metrics schedulingMetrics,
	validate *validator.Validate,
	logger *zap.Logger,
	lockTTL time.Duration,
) *SlotSelectionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = (*MetricsService)(nil)
	}
	if lockTTL <= 0 {
		lockTTL = 30 * time.Second
	}
	return &SlotSelectionService{
		terms:     terms,
		courses:   courses,
		slots:     slots,
		entries:   entries,
		grades:    grades,
		gate:      gate,
		locker:    locker,
		activity:  activity,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		lockTTL:   lockTTL,
	}
}

// dayPartForPeriod buckets a start period: 1-6 morning, 7-12 afternoon, later evening.
func dayPartForPeriod(start int) models.DayPart {
	switch {
	case start <= lastMorningPeriod:
		return models.DayPartMorning
	case start <= lastAfternoonPeriod:
		return models.DayPartAfternoon
	default:
		return models.DayPartEvening
	}
}

// Select books one session. When the student already holds an entry from the same catalog slot
// the old entry is replaced.
func (s *SlotSelectionService) Select(ctx context.Context, req dto.ManualSelectRequest) (result *dto.ScheduleResult, err error) {
	started := time.Now()
	defer func() {
		s.metrics.ObserveScheduling(OperationManualSelect, false, err, time.Since(started))
	}()

	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid slot selection payload")
	}
	term, err := resolveTerm(ctx, s.terms, req.Semester, req.AcademicYear)
	if err != nil {
		return nil, err
	}
	if _, err := s.gate.Check(ctx, term); err != nil {
		s.record(ctx, req.StudentID, req.CourseID, models.ActivityManualSelect, nil, err)
		return nil, err
	}
	release, err := lockStudent(ctx, s.locker, s.logger, req.StudentID, s.lockTTL)
	if err != nil {
		return nil, err
	}
	defer release()

	result, err = s.selectSlot(ctx, req, term)
	var entries []models.ScheduleEntry
	if result != nil {
		entries = result.Entries
	}
	s.record(ctx, req.StudentID, req.CourseID, models.ActivityManualSelect, entries, err)
	return result, err
}

func (s *SlotSelectionService) selectSlot(ctx context.Context, req dto.ManualSelectRequest, term models.TermRef) (*dto.ScheduleResult, error) {
	course, err := loadCourse(ctx, s.courses, req.CourseID)
	if err != nil {
		return nil, err
	}
	if err := checkPrerequisite(ctx, s.grades, req.StudentID, course); err != nil {
		return nil, err
	}

	candidate, slot, err := s.buildCandidate(ctx, req, course, term)
	if err != nil {
		return nil, err
	}

	existing, err := s.entries.ListByStudentTerm(ctx, req.StudentID, term)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student schedule")
	}
	var replaced *models.ScheduleEntry
	others := make([]models.ScheduleEntry, 0, len(existing))
	for i := range existing {
		if replaced == nil && req.SlotID != "" && existing[i].OriginSlotID() == req.SlotID {
			replaced = &existing[i]
			continue
		}
		others = append(others, existing[i])
	}

	if hasTimeConflict(candidate, others) {
		return nil, appErrors.Clone(appErrors.ErrTimeConflict, "")
	}
	bookings, err := s.entries.ListByRoomsTerm(ctx, []string{candidate.Room}, term)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room bookings")
	}
	if replaced != nil {
		bookings = withoutEntry(bookings, replaced.ID)
	}
	if hasRoomConflict(candidate, bookings) {
		return nil, appErrors.Clone(appErrors.ErrRoomConflict, fmt.Sprintf("room %s is already booked", candidate.Room))
	}

	consumedLecture, consumedLab := consumedPeriods(others, course.ID)
	booked := consumedLecture
	if candidate.SessionKind == models.SessionKindLab {
		booked = consumedLab
	}
	required := course.RequiredPeriods(candidate.SessionKind)
	if booked+candidate.PeriodLength > required {
		return nil, appErrors.Clone(appErrors.ErrSessionLimit, fmt.Sprintf("maximum sessions exceeded: %d of %d %s periods already booked", booked, required, candidate.SessionKind))
	}
	if slot != nil && replaced == nil && !slot.HasSpareCapacity() {
		return nil, appErrors.Clone(appErrors.ErrSlotFull, "")
	}

	if replaced != nil {
		if err := s.entries.Delete(ctx, replaced.ID); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove previous entry")
		}
		if origin := replaced.OriginSlotID(); origin != "" {
			if err := s.slots.AdjustEnrollment(ctx, origin, -1); err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to release previous seat")
			}
		}
	}

	if err := s.entries.Create(ctx, &candidate); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save schedule entry")
	}
	if origin := candidate.OriginSlotID(); origin != "" {
		if err := s.slots.AdjustEnrollment(ctx, origin, 1); err != nil {
			if delErr := s.entries.Delete(ctx, candidate.ID); delErr != nil {
				s.logger.Error("failed to remove entry without seat", zap.String("entry_id", candidate.ID), zap.Error(delErr))
			}
			if errors.Is(err, appErrors.ErrSlotFull) {
				return nil, err
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reserve seat")
		}
	}
	s.metrics.AddCommittedEntries(string(candidate.SessionKind), 1)

	lectureAfter, labAfter := consumedPeriods(append(others, candidate), course.ID)
	shortfall := dto.Shortfall{
		LecturePeriods: max(course.RequiredPeriods(models.SessionKindLecture)-lectureAfter, 0),
		LabPeriods:     max(course.RequiredPeriods(models.SessionKindLab)-labAfter, 0),
	}
	return &dto.ScheduleResult{
		StudentID: req.StudentID,
		CourseID:  course.ID,
		Term:      term,
		Entries:   []models.ScheduleEntry{candidate},
		Partial:   shortfall.LecturePeriods > 0 || shortfall.LabPeriods > 0,
		Shortfall: shortfall,
	}, nil
}

// buildCandidate merges the request with the catalog slot, if any. Request fields win over slot defaults.
func (s *SlotSelectionService) buildCandidate(ctx context.Context, req dto.ManualSelectRequest, course *models.Course, term models.TermRef) (models.ScheduleEntry, *models.AvailableSlot, error) {
	entry := models.ScheduleEntry{
		StudentID:    req.StudentID,
		CourseID:     course.ID,
		DayOfWeek:    req.DayOfWeek,
		StartPeriod:  req.StartPeriod,
		PeriodLength: req.PeriodLength,
		Room:         strings.TrimSpace(req.Room),
		SessionKind:  req.SessionKind,
		Semester:     term.Semester,
		AcademicYear: term.AcademicYear,
	}

	var slot *models.AvailableSlot
	if req.SlotID != "" {
		found, err := s.slots.FindByID(ctx, req.SlotID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return entry, nil, appErrors.Clone(appErrors.ErrNotFound, "slot not found")
			}
			return entry, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load slot")
		}
		if found.CourseID != course.ID || found.Term() != term {
			return entry, nil, appErrors.Clone(appErrors.ErrValidation, "slot does not belong to this course and term")
		}
		slot = found
		slotID := found.ID
		entry.SlotID = &slotID
		if entry.DayOfWeek == 0 {
			entry.DayOfWeek = found.DayOfWeek
		}
		if entry.StartPeriod == 0 {
			entry.StartPeriod = found.StartPeriod
		}
		if entry.PeriodLength == 0 {
			entry.PeriodLength = found.PeriodLength
		}
		if entry.Room == "" {
			entry.Room = found.Room
		}
		if entry.SessionKind == "" {
			entry.SessionKind = found.SessionKind
		}
		if entry.StartPeriod == found.StartPeriod {
			entry.DayPart = found.DayPart
		}
	}

	if entry.DayOfWeek == 0 || entry.StartPeriod == 0 || entry.PeriodLength == 0 || entry.Room == "" || entry.SessionKind == "" {
		return entry, nil, appErrors.Clone(appErrors.ErrValidation, "dayOfWeek, startPeriod, periodLength, room and sessionKind are required without a catalog slot")
	}
	if entry.DayPart == "" {
		entry.DayPart = dayPartForPeriod(entry.StartPeriod)
	}
	return entry, slot, nil
}

// Drop removes one of the student's entries and releases its seat.
func (s *SlotSelectionService) Drop(ctx context.Context, req dto.DropEntryRequest) (err error) {
	started := time.Now()
	defer func() {
		s.metrics.ObserveScheduling(OperationDropEntry, false, err, time.Since(started))
	}()

	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid drop payload")
	}
	entry, err := s.entries.FindByID(ctx, req.EntryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "schedule entry not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule entry")
	}
	if entry.StudentID != req.StudentID {
		return appErrors.Clone(appErrors.ErrForbidden, "schedule entry belongs to another student")
	}
	if _, err := s.gate.Check(ctx, entry.Term()); err != nil {
		s.record(ctx, entry.StudentID, entry.CourseID, models.ActivityDropEntry, nil, err)
		return err
	}
	release, err := lockStudent(ctx, s.locker, s.logger, req.StudentID, s.lockTTL)
	if err != nil {
		return err
	}
	defer release()

	err = s.dropEntry(ctx, entry)
	s.record(ctx, entry.StudentID, entry.CourseID, models.ActivityDropEntry, []models.ScheduleEntry{*entry}, err)
	return err
}

func (s *SlotSelectionService) dropEntry(ctx context.Context, entry *models.ScheduleEntry) error {
	if err := s.entries.Delete(ctx, entry.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete schedule entry")
	}
	if origin := entry.OriginSlotID(); origin != "" {
		if err := s.slots.AdjustEnrollment(ctx, origin, -1); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to release seat")
		}
	}
	return nil
}

func (s *SlotSelectionService) record(ctx context.Context, studentID, courseID, action string, entries []models.ScheduleEntry, err error) {
	recordActivity(ctx, s.activity, studentID, courseID, action, entries, err)
}

func withoutEntry(entries []models.ScheduleEntry, id string) []models.ScheduleEntry {
	out := make([]models.ScheduleEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.ID != id {
			out = append(out, entry)
		}
	}
	return out
}
