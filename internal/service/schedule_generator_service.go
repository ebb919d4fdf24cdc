package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sis-registration-api/internal/dto"
	"github.com/noah-isme/sis-registration-api/internal/models"
	appErrors "github.com/noah-isme/sis-registration-api/pkg/errors"
)

// Operation labels used for metrics.
const (
	OperationAutoSchedule     = "auto_schedule"
	OperationBulkAutoSchedule = "bulk_auto_schedule"
	OperationManualSelect     = "manual_select"
	OperationDropEntry        = "drop_entry"
)

// ScheduleGeneratorConfig governs generator behaviour.
type ScheduleGeneratorConfig struct {
	LockTTL time.Duration
}

// ScheduleGeneratorService plans and commits a student's lecture and lab sessions for a course.
type ScheduleGeneratorService struct {
	terms     activeTermReader
	courses   scheduleCourseReader
	slots     slotCatalog
	entries   scheduleEntryStore
	grades    finalGradeReader
	gate      registrationWindowChecker
	locker    studentLocker
	committer *scheduleCommitter
	metrics   schedulingMetrics
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ScheduleGeneratorConfig
}

// NewScheduleGeneratorService wires scheduler dependencies. locker, grades, activity and metrics may be nil.
func NewScheduleGeneratorService(
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
	cfg ScheduleGeneratorConfig,
) *ScheduleGeneratorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = (*MetricsService)(nil)
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 30 * time.Second
	}
	return &ScheduleGeneratorService{
		terms:     terms,
		courses:   courses,
		slots:     slots,
		entries:   entries,
		grades:    grades,
		gate:      gate,
		locker:    locker,
		committer: &scheduleCommitter{entries: entries, slots: slots, activity: activity, logger: logger},
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// AutoSchedule fills the remaining lecture and lab periods of one course for a student.
func (s *ScheduleGeneratorService) AutoSchedule(ctx context.Context, req dto.AutoScheduleRequest) (result *dto.ScheduleResult, err error) {
	started := time.Now()
	defer func() {
		s.metrics.ObserveScheduling(OperationAutoSchedule, result != nil && result.Partial, err, time.Since(started))
	}()

	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid auto schedule payload")
	}
	term, err := resolveTerm(ctx, s.terms, req.Semester, req.AcademicYear)
	if err != nil {
		return nil, err
	}
	if _, err := s.gate.Check(ctx, term); err != nil {
		s.committer.record(ctx, req.StudentID, req.CourseID, models.ActivityAutoSchedule, nil, err)
		return nil, err
	}
	release, err := lockStudent(ctx, s.locker, s.logger, req.StudentID, s.cfg.LockTTL)
	if err != nil {
		return nil, err
	}
	defer release()

	result, err = s.scheduleCourse(ctx, req.StudentID, req.CourseID, term)
	var committed []models.ScheduleEntry
	if result != nil {
		committed = result.Entries
	}
	s.committer.record(ctx, req.StudentID, req.CourseID, models.ActivityAutoSchedule, committed, err)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// BulkAutoSchedule runs AutoSchedule for several courses under one window check and one lock.
// Per-course failures are reported in the items rather than failing the request.
func (s *ScheduleGeneratorService) BulkAutoSchedule(ctx context.Context, req dto.BulkAutoScheduleRequest) (result *dto.BulkScheduleResult, err error) {
	started := time.Now()
	defer func() {
		s.metrics.ObserveScheduling(OperationBulkAutoSchedule, false, err, time.Since(started))
	}()

	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk auto schedule payload")
	}
	term, err := resolveTerm(ctx, s.terms, req.Semester, req.AcademicYear)
	if err != nil {
		return nil, err
	}
	if _, err := s.gate.Check(ctx, term); err != nil {
		return nil, err
	}
	release, err := lockStudent(ctx, s.locker, s.logger, req.StudentID, s.cfg.LockTTL)
	if err != nil {
		return nil, err
	}
	defer release()

	result = &dto.BulkScheduleResult{StudentID: req.StudentID, Term: term}
	seen := make(map[string]struct{}, len(req.CourseIDs))
	for _, courseID := range req.CourseIDs {
		if _, dup := seen[courseID]; dup {
			continue
		}
		seen[courseID] = struct{}{}

		item := dto.BulkScheduleItem{CourseID: courseID}
		courseResult, courseErr := s.scheduleCourse(ctx, req.StudentID, courseID, term)
		var committed []models.ScheduleEntry
		if courseResult != nil {
			committed = courseResult.Entries
		}
		s.committer.record(ctx, req.StudentID, courseID, models.ActivityAutoSchedule, committed, courseErr)
		if courseErr != nil {
			appErr := appErrors.FromError(courseErr)
			item.Code = appErr.Code
			item.Message = appErr.Message
			if courseResult != nil && len(courseResult.Entries) > 0 {
				item.Result = courseResult
			}
		} else {
			item.Result = courseResult
		}
		result.Items = append(result.Items, item)
	}
	return result, nil
}

// scheduleCourse plans against fresh snapshots and commits the plan. On a commit failure the
// entries saved so far are returned together with the error.
func (s *ScheduleGeneratorService) scheduleCourse(ctx context.Context, studentID, courseID string, term models.TermRef) (*dto.ScheduleResult, error) {
	course, err := loadCourse(ctx, s.courses, courseID)
	if err != nil {
		return nil, err
	}
	if err := checkPrerequisite(ctx, s.grades, studentID, course); err != nil {
		return nil, err
	}

	slots, err := s.slots.ListByCourseTerm(ctx, course.ID, term)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load available slots")
	}
	existing, err := s.entries.ListByStudentTerm(ctx, studentID, term)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student schedule")
	}
	bookings, err := s.entries.ListByRoomsTerm(ctx, distinctRooms(slots), term)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room bookings")
	}

	plan, err := planSchedule(planInput{
		StudentID:    studentID,
		Course:       *course,
		Term:         term,
		Slots:        slots,
		Existing:     existing,
		RoomBookings: bookings,
	})
	if err != nil {
		return nil, err
	}

	outcome, commitErr := s.committer.commit(ctx, plan.Proposals)
	for kind, n := range countByKind(outcome.Committed) {
		s.metrics.AddCommittedEntries(string(kind), n)
	}
	s.metrics.AddSeatRaces(len(outcome.Unscheduled))

	result := &dto.ScheduleResult{
		StudentID:   studentID,
		CourseID:    course.ID,
		Term:        term,
		Entries:     outcome.Committed,
		Shortfall:   plan.Shortfall,
		Unscheduled: outcome.Unscheduled,
	}
	s.addLostSeats(result, plan.Proposals, outcome.Unscheduled)
	result.Partial = result.Shortfall.LecturePeriods > 0 || result.Shortfall.LabPeriods > 0
	if result.Entries == nil {
		result.Entries = []models.ScheduleEntry{}
	}

	if commitErr != nil {
		s.logger.Error("schedule commit failed", zap.String("student_id", studentID), zap.String("course_id", course.ID), zap.Int("committed", len(outcome.Committed)), zap.Error(commitErr))
		return result, commitErr
	}
	if len(outcome.Committed) == 0 {
		return result, appErrors.Clone(appErrors.ErrNoCandidates, fmt.Sprintf("every selected slot for course %s filled up before it could be saved", course.Code))
	}
	return result, nil
}

// addLostSeats moves periods of slots that filled up during commit back into the shortfall.
func (s *ScheduleGeneratorService) addLostSeats(result *dto.ScheduleResult, proposals []proposal, lost []string) {
	if len(lost) == 0 {
		return
	}
	lostSet := make(map[string]struct{}, len(lost))
	for _, id := range lost {
		lostSet[id] = struct{}{}
	}
	for _, item := range proposals {
		if _, ok := lostSet[item.Slot.ID]; !ok {
			continue
		}
		switch item.Entry.SessionKind {
		case models.SessionKindLecture:
			result.Shortfall.LecturePeriods += item.Entry.PeriodLength
		case models.SessionKindLab:
			result.Shortfall.LabPeriods += item.Entry.PeriodLength
		}
	}
}

// ListEntries returns a student's entries for the requested or current term.
func (s *ScheduleGeneratorService) ListEntries(ctx context.Context, query dto.ScheduleQuery) ([]models.ScheduleEntry, models.TermRef, error) {
	if query.StudentID == "" {
		return nil, models.TermRef{}, appErrors.Clone(appErrors.ErrValidation, "studentId is required")
	}
	term, err := resolveTerm(ctx, s.terms, query.Semester, query.AcademicYear)
	if err != nil {
		return nil, models.TermRef{}, err
	}
	entries, err := s.entries.ListByStudentTerm(ctx, query.StudentID, term)
	if err != nil {
		return nil, term, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student schedule")
	}
	return entries, term, nil
}

// ListSlots returns the course's offered slots with their remaining seats.
func (s *ScheduleGeneratorService) ListSlots(ctx context.Context, query dto.SlotQuery) ([]dto.SlotAvailability, error) {
	if query.CourseID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "courseId is required")
	}
	term, err := resolveTerm(ctx, s.terms, query.Semester, query.AcademicYear)
	if err != nil {
		return nil, err
	}
	course, err := loadCourse(ctx, s.courses, query.CourseID)
	if err != nil {
		return nil, err
	}
	slots, err := s.slots.ListByCourseTerm(ctx, course.ID, term)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load available slots")
	}
	items := make([]dto.SlotAvailability, 0, len(slots))
	for _, slot := range slots {
		items = append(items, dto.SlotAvailability{AvailableSlot: slot, Remaining: max(slot.Capacity()-slot.EnrolledCount, 0)})
	}
	return items, nil
}
