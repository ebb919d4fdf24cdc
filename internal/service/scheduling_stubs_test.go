package service

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/noah-isme/sis-registration-api/internal/models"
	appErrors "github.com/noah-isme/sis-registration-api/pkg/errors"
)

type activeTermStub struct {
	term *models.Term
	err  error
}

func (s activeTermStub) FindActive(ctx context.Context) (*models.Term, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.term == nil {
		return nil, sql.ErrNoRows
	}
	return s.term, nil
}

type courseReaderStub struct {
	courses map[string]*models.Course
}

func (s courseReaderStub) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if course, ok := s.courses[id]; ok {
		return course, nil
	}
	return nil, sql.ErrNoRows
}

type slotCatalogStub struct {
	mu        sync.Mutex
	slots     []models.AvailableSlot
	full      map[string]bool
	adjustErr error
	adjusted  map[string]int
}

func (s *slotCatalogStub) ListByCourseTerm(ctx context.Context, courseID string, term models.TermRef) ([]models.AvailableSlot, error) {
	var out []models.AvailableSlot
	for _, slot := range s.slots {
		if slot.CourseID == courseID && slot.Term() == term {
			out = append(out, slot)
		}
	}
	return out, nil
}

func (s *slotCatalogStub) FindByID(ctx context.Context, id string) (*models.AvailableSlot, error) {
	for _, slot := range s.slots {
		if slot.ID == id {
			found := slot
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *slotCatalogStub) AdjustEnrollment(ctx context.Context, slotID string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.adjustErr != nil {
		return s.adjustErr
	}
	if delta > 0 && s.full[slotID] {
		return appErrors.Clone(appErrors.ErrSlotFull, "")
	}
	if s.adjusted == nil {
		s.adjusted = map[string]int{}
	}
	s.adjusted[slotID] += delta
	return nil
}

type entryStoreStub struct {
	mu           sync.Mutex
	entries      []models.ScheduleEntry
	bookings     []models.ScheduleEntry
	created      []models.ScheduleEntry
	deleted      []string
	failCreateAt int
	createCalls  int
	seq          int
}

func (s *entryStoreStub) ListByStudentTerm(ctx context.Context, studentID string, term models.TermRef) ([]models.ScheduleEntry, error) {
	var out []models.ScheduleEntry
	for _, entry := range s.entries {
		if entry.StudentID == studentID && entry.Term() == term {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (s *entryStoreStub) ListByRoomsTerm(ctx context.Context, rooms []string, term models.TermRef) ([]models.ScheduleEntry, error) {
	wanted := map[string]bool{}
	for _, room := range rooms {
		wanted[models.RoomKey(room)] = true
	}
	var out []models.ScheduleEntry
	for _, entry := range append(append([]models.ScheduleEntry(nil), s.entries...), s.bookings...) {
		if wanted[models.RoomKey(entry.Room)] && entry.Term() == term {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (s *entryStoreStub) FindByID(ctx context.Context, id string) (*models.ScheduleEntry, error) {
	for _, entry := range s.entries {
		if entry.ID == id {
			found := entry
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *entryStoreStub) Create(ctx context.Context, entry *models.ScheduleEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createCalls++
	if s.failCreateAt > 0 && s.createCalls == s.failCreateAt {
		return fmt.Errorf("insert failed")
	}
	s.seq++
	entry.ID = fmt.Sprintf("entry-%d", s.seq)
	entry.CreatedAt = time.Now()
	s.entries = append(s.entries, *entry)
	s.created = append(s.created, *entry)
	return nil
}

func (s *entryStoreStub) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, id)
	kept := s.entries[:0]
	for _, entry := range s.entries {
		if entry.ID != id {
			kept = append(kept, entry)
		}
	}
	s.entries = kept
	return nil
}

type gateStub struct {
	err   error
	calls int
}

func (g *gateStub) Check(ctx context.Context, term models.TermRef) (*models.RegistrationPeriod, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return &models.RegistrationPeriod{ID: "period-1", Status: models.RegistrationPeriodActive}, nil
}

type lockerStub struct {
	busy     bool
	err      error
	acquired int
	released int
}

func (l *lockerStub) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	if l.err != nil {
		return nil, false, l.err
	}
	if l.busy {
		return nil, false, nil
	}
	l.acquired++
	return func() { l.released++ }, true, nil
}

type activityRecorderStub struct {
	mu      sync.Mutex
	records []ActivityRecord
}

func (a *activityRecorderStub) Record(ctx context.Context, rec ActivityRecord) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records = append(a.records, rec)
}

type gradeReaderStub struct {
	grades map[string]float64
}

func (g gradeReaderStub) BestFinal(ctx context.Context, studentID, courseID string) (*models.FinalGrade, error) {
	grade, ok := g.grades[studentID+"/"+courseID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &models.FinalGrade{StudentID: studentID, CourseID: courseID, FinalGrade: grade}, nil
}
