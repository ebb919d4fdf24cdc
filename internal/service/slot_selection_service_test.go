package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sis-registration-api/internal/dto"
	"github.com/noah-isme/sis-registration-api/internal/models"
	appErrors "github.com/noah-isme/sis-registration-api/pkg/errors"
)

type selectionFixture struct {
	service  *SlotSelectionService
	slots    *slotCatalogStub
	entries  *entryStoreStub
	gate     *gateStub
	locker   *lockerStub
	activity *activityRecorderStub
}

func newSelectionFixture(t *testing.T) *selectionFixture {
	t.Helper()
	f := &selectionFixture{
		slots: &slotCatalogStub{
			full: map[string]bool{},
			slots: []models.AvailableSlot{
				slotAt("lec-mon", models.SessionKindLecture, 1, 1, 2, "LT1"),
				slotAt("lec-tue", models.SessionKindLecture, 2, 3, 2, "LT2"),
				slotAt("lab-thu", models.SessionKindLab, 4, 7, 3, "TH1"),
			},
		},
		entries:  &entryStoreStub{},
		gate:     &gateStub{},
		locker:   &lockerStub{},
		activity: &activityRecorderStub{},
	}
	courses := map[string]*models.Course{"course-1": {ID: "course-1", Code: "CS101", Credits: 1}}
	term := &models.Term{ID: "term-1", Semester: 1, AcademicYear: "2024/2025", IsActive: true}
	f.service = NewSlotSelectionService(
		activeTermStub{term: term},
		courseReaderStub{courses: courses},
		f.slots,
		f.entries,
		nil,
		f.gate,
		f.locker,
		f.activity,
		nil,
		nil,
		nil,
		0,
	)
	return f
}

func bookedEntry(id, studentID, slotID string, kind models.SessionKind, day, start, length int, room string) models.ScheduleEntry {
	entry := models.ScheduleEntry{
		ID:           id,
		StudentID:    studentID,
		CourseID:     "course-1",
		DayOfWeek:    day,
		StartPeriod:  start,
		PeriodLength: length,
		Room:         room,
		SessionKind:  kind,
		DayPart:      dayPartForPeriod(start),
		Semester:     1,
		AcademicYear: "2024/2025",
	}
	if slotID != "" {
		entry.SlotID = &slotID
	}
	return entry
}

func TestDayPartForPeriod(t *testing.T) {
	assert.Equal(t, models.DayPartMorning, dayPartForPeriod(1))
	assert.Equal(t, models.DayPartMorning, dayPartForPeriod(6))
	assert.Equal(t, models.DayPartAfternoon, dayPartForPeriod(7))
	assert.Equal(t, models.DayPartAfternoon, dayPartForPeriod(12))
	assert.Equal(t, models.DayPartEvening, dayPartForPeriod(13))
}

func TestSlotSelectionSelectFromCatalog(t *testing.T) {
	f := newSelectionFixture(t)

	result, err := f.service.Select(context.Background(), dto.ManualSelectRequest{StudentID: "student-1", CourseID: "course-1", SlotID: "lab-thu"})
	require.NoError(t, err)
	require.Len(t, result.Entries, 1)
	entry := result.Entries[0]
	assert.Equal(t, "lab-thu", entry.OriginSlotID())
	assert.Equal(t, 4, entry.DayOfWeek)
	assert.Equal(t, 3, entry.PeriodLength)
	assert.Equal(t, "TH1", entry.Room)
	assert.Equal(t, models.DayPartAfternoon, entry.DayPart)
	assert.True(t, result.Partial)
	assert.Equal(t, 15, result.Shortfall.LecturePeriods)
	assert.Equal(t, 12, result.Shortfall.LabPeriods)

	assert.Equal(t, map[string]int{"lab-thu": 1}, f.slots.adjusted)
	assert.Equal(t, 1, f.locker.released)
	require.Len(t, f.activity.records, 1)
	assert.Equal(t, models.ActivityManualSelect, f.activity.records[0].Action)
	assert.True(t, f.activity.records[0].Success)
}

func TestSlotSelectionSelectManualSessionDerivesDayPart(t *testing.T) {
	f := newSelectionFixture(t)

	result, err := f.service.Select(context.Background(), dto.ManualSelectRequest{
		StudentID:    "student-1",
		CourseID:     "course-1",
		DayOfWeek:    3,
		StartPeriod:  13,
		PeriodLength: 2,
		Room:         " R101 ",
		SessionKind:  models.SessionKindLecture,
	})
	require.NoError(t, err)
	entry := result.Entries[0]
	assert.Nil(t, entry.SlotID)
	assert.Equal(t, "R101", entry.Room)
	assert.Equal(t, models.DayPartEvening, entry.DayPart)
	assert.Empty(t, f.slots.adjusted)
}

func TestSlotSelectionSelectOverridesSlotStart(t *testing.T) {
	f := newSelectionFixture(t)

	result, err := f.service.Select(context.Background(), dto.ManualSelectRequest{StudentID: "student-1", CourseID: "course-1", SlotID: "lec-mon", StartPeriod: 8})
	require.NoError(t, err)
	entry := result.Entries[0]
	assert.Equal(t, 8, entry.StartPeriod)
	assert.Equal(t, models.DayPartAfternoon, entry.DayPart)
}

func TestSlotSelectionSelectRequiresSessionFields(t *testing.T) {
	f := newSelectionFixture(t)

	_, err := f.service.Select(context.Background(), dto.ManualSelectRequest{StudentID: "student-1", CourseID: "course-1", DayOfWeek: 1})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation.Code))
	assert.Empty(t, f.entries.created)
}

func TestSlotSelectionSelectRejectsForeignSlot(t *testing.T) {
	f := newSelectionFixture(t)
	f.slots.slots[0].CourseID = "course-9"

	_, err := f.service.Select(context.Background(), dto.ManualSelectRequest{StudentID: "student-1", CourseID: "course-1", SlotID: "lec-mon"})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation.Code))

	_, err = f.service.Select(context.Background(), dto.ManualSelectRequest{StudentID: "student-1", CourseID: "course-1", SlotID: "missing"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestSlotSelectionSelectTimeConflict(t *testing.T) {
	f := newSelectionFixture(t)
	f.entries.entries = []models.ScheduleEntry{bookedEntry("other", "student-1", "", models.SessionKindLecture, 1, 2, 2, "R9")}
	f.entries.entries[0].CourseID = "course-2"

	_, err := f.service.Select(context.Background(), dto.ManualSelectRequest{StudentID: "student-1", CourseID: "course-1", SlotID: "lec-mon"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrTimeConflict))
	assert.Empty(t, f.entries.created)

	require.Len(t, f.activity.records, 1)
	assert.False(t, f.activity.records[0].Success)
}

func TestSlotSelectionSelectRoomConflict(t *testing.T) {
	f := newSelectionFixture(t)
	f.entries.bookings = []models.ScheduleEntry{bookedEntry("theirs", "student-2", "", models.SessionKindLecture, 3, 5, 2, "R101")}

	_, err := f.service.Select(context.Background(), dto.ManualSelectRequest{
		StudentID:    "student-1",
		CourseID:     "course-1",
		DayOfWeek:    3,
		StartPeriod:  4,
		PeriodLength: 2,
		Room:         "R101",
		SessionKind:  models.SessionKindLecture,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrRoomConflict))
}

func TestSlotSelectionSelectRoomConflictIgnoresRoomCase(t *testing.T) {
	f := newSelectionFixture(t)
	f.entries.bookings = []models.ScheduleEntry{bookedEntry("theirs", "student-2", "", models.SessionKindLecture, 3, 5, 2, "R101")}

	_, err := f.service.Select(context.Background(), dto.ManualSelectRequest{
		StudentID:    "student-1",
		CourseID:     "course-1",
		DayOfWeek:    3,
		StartPeriod:  5,
		PeriodLength: 2,
		Room:         " r101 ",
		SessionKind:  models.SessionKindLecture,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrRoomConflict))
	assert.Empty(t, f.entries.created)
}

func TestSlotSelectionSelectSharesCatalogSession(t *testing.T) {
	f := newSelectionFixture(t)
	f.entries.bookings = []models.ScheduleEntry{bookedEntry("classmate", "student-2", "lec-mon", models.SessionKindLecture, 1, 1, 2, "LT1")}

	result, err := f.service.Select(context.Background(), dto.ManualSelectRequest{StudentID: "student-1", CourseID: "course-1", SlotID: "lec-mon"})
	require.NoError(t, err)
	assert.Len(t, result.Entries, 1)
}

func TestSlotSelectionSelectSessionLimit(t *testing.T) {
	f := newSelectionFixture(t)
	f.entries.entries = []models.ScheduleEntry{bookedEntry("bulk", "student-1", "", models.SessionKindLecture, 5, 1, 14, "R1")}

	_, err := f.service.Select(context.Background(), dto.ManualSelectRequest{StudentID: "student-1", CourseID: "course-1", SlotID: "lec-mon"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrSessionLimit))
	assert.Contains(t, err.Error(), "14 of 15 lecture periods")
}

func TestSlotSelectionSelectFullSlot(t *testing.T) {
	f := newSelectionFixture(t)
	f.slots.slots[0].EnrolledCount = 50

	_, err := f.service.Select(context.Background(), dto.ManualSelectRequest{StudentID: "student-1", CourseID: "course-1", SlotID: "lec-mon"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrSlotFull))
	assert.Empty(t, f.entries.created)
}

func TestSlotSelectionSelectLosesSeatRace(t *testing.T) {
	f := newSelectionFixture(t)
	f.slots.full["lec-mon"] = true

	_, err := f.service.Select(context.Background(), dto.ManualSelectRequest{StudentID: "student-1", CourseID: "course-1", SlotID: "lec-mon"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrSlotFull))
	assert.Len(t, f.entries.deleted, 1)
	assert.Empty(t, f.entries.entries)
}

func TestSlotSelectionSelectReplacesSameSlot(t *testing.T) {
	f := newSelectionFixture(t)
	f.entries.entries = []models.ScheduleEntry{bookedEntry("old", "student-1", "lec-mon", models.SessionKindLecture, 1, 1, 2, "LT1")}
	// the student's own booking must not count as a room conflict
	f.slots.slots[0].EnrolledCount = 50

	result, err := f.service.Select(context.Background(), dto.ManualSelectRequest{StudentID: "student-1", CourseID: "course-1", SlotID: "lec-mon", StartPeriod: 2, PeriodLength: 1})
	require.NoError(t, err)
	require.Len(t, result.Entries, 1)
	assert.Equal(t, 2, result.Entries[0].StartPeriod)
	assert.Equal(t, []string{"old"}, f.entries.deleted)
	require.Len(t, f.entries.entries, 1)
	assert.NotEqual(t, "old", f.entries.entries[0].ID)
	assert.Equal(t, 0, f.slots.adjusted["lec-mon"])
	assert.Equal(t, 14, result.Shortfall.LecturePeriods)
}

func TestSlotSelectionSelectWindowClosed(t *testing.T) {
	f := newSelectionFixture(t)
	f.gate.err = appErrors.Clone(appErrors.ErrWindowClosed, "")

	_, err := f.service.Select(context.Background(), dto.ManualSelectRequest{StudentID: "student-1", CourseID: "course-1", SlotID: "lec-mon"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrWindowClosed))
	assert.Zero(t, f.locker.acquired)
	require.Len(t, f.activity.records, 1)
	assert.False(t, f.activity.records[0].Success)
}

func TestSlotSelectionDrop(t *testing.T) {
	f := newSelectionFixture(t)
	f.entries.entries = []models.ScheduleEntry{bookedEntry("mine", "student-1", "lec-mon", models.SessionKindLecture, 1, 1, 2, "LT1")}

	err := f.service.Drop(context.Background(), dto.DropEntryRequest{StudentID: "student-1", EntryID: "mine"})
	require.NoError(t, err)
	assert.Equal(t, []string{"mine"}, f.entries.deleted)
	assert.Equal(t, -1, f.slots.adjusted["lec-mon"])
	require.Len(t, f.activity.records, 1)
	assert.Equal(t, models.ActivityDropEntry, f.activity.records[0].Action)
	assert.True(t, f.activity.records[0].Success)
}

func TestSlotSelectionDropRejections(t *testing.T) {
	f := newSelectionFixture(t)
	f.entries.entries = []models.ScheduleEntry{bookedEntry("theirs", "student-2", "lec-mon", models.SessionKindLecture, 1, 1, 2, "LT1")}

	err := f.service.Drop(context.Background(), dto.DropEntryRequest{StudentID: "student-1", EntryID: "theirs"})
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))

	err = f.service.Drop(context.Background(), dto.DropEntryRequest{StudentID: "student-1", EntryID: "missing"})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	err = f.service.Drop(context.Background(), dto.DropEntryRequest{StudentID: "student-1"})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation.Code))

	f.gate.err = appErrors.Clone(appErrors.ErrWindowClosed, "")
	err = f.service.Drop(context.Background(), dto.DropEntryRequest{StudentID: "student-2", EntryID: "theirs"})
	assert.True(t, errors.Is(err, appErrors.ErrWindowClosed))
	assert.Empty(t, f.entries.deleted)
}
