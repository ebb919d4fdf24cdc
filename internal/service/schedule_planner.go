package service

import (
	"fmt"

	"github.com/noah-isme/sis-registration-api/internal/dto"
	"github.com/noah-isme/sis-registration-api/internal/models"
	appErrors "github.com/noah-isme/sis-registration-api/pkg/errors"
)

// maxChunkPeriods caps a single booking regardless of the slot length.
const maxChunkPeriods = 2

type planState string

const (
	planComputingRequirement planState = "computing-requirement"
	planSelectingLecture     planState = "selecting-lecture-candidates"
	planSelectingLab         planState = "selecting-lab-candidates"
	planDone                 planState = "done"
	planFailed               planState = "failed"
)

// planInput is a snapshot of everything the planner reads. RoomBookings holds every student's
// entries in the rooms of the offered slots.
type planInput struct {
	StudentID    string
	Course       models.Course
	Term         models.TermRef
	Slots        []models.AvailableSlot
	Existing     []models.ScheduleEntry
	RoomBookings []models.ScheduleEntry
}

type proposal struct {
	Slot  models.AvailableSlot
	Entry models.ScheduleEntry
}

type schedulePlan struct {
	State     planState
	Proposals []proposal
	Shortfall dto.Shortfall
}

// consumedPeriods sums the periods already booked for a course, split by session kind.
func consumedPeriods(entries []models.ScheduleEntry, courseID string) (lecture, lab int) {
	for _, entry := range entries {
		if entry.CourseID != courseID {
			continue
		}
		switch entry.SessionKind {
		case models.SessionKindLecture:
			lecture += entry.PeriodLength
		case models.SessionKindLab:
			lab += entry.PeriodLength
		}
	}
	return lecture, lab
}

type planner struct {
	input     planInput
	state     planState
	pool      []models.AvailableSlot
	tentative []models.ScheduleEntry
	load      DayLoad
	accepted  []proposal
}

// planSchedule greedily picks slots for the remaining lecture then lab periods of a course.
// It performs no I/O. An empty plan returns NO_CANDIDATES; a partial plan is returned with
// its shortfall.
func planSchedule(input planInput) (*schedulePlan, error) {
	p := &planner{
		input:     input,
		state:     planComputingRequirement,
		pool:      append([]models.AvailableSlot(nil), input.Slots...),
		tentative: append([]models.ScheduleEntry(nil), input.Existing...),
		load:      newDayLoad(input.Existing),
	}

	consumedLecture, consumedLab := consumedPeriods(input.Existing, input.Course.ID)
	remainingLecture := input.Course.RequiredPeriods(models.SessionKindLecture) - consumedLecture
	remainingLab := input.Course.RequiredPeriods(models.SessionKindLab) - consumedLab
	if remainingLecture <= 0 && remainingLab <= 0 {
		p.state = planFailed
		return &schedulePlan{State: p.state}, appErrors.Clone(appErrors.ErrAlreadySatisfied, fmt.Sprintf("course %s is already fully scheduled", input.Course.Code))
	}

	p.state = planSelectingLecture
	leftLecture := p.fill(models.SessionKindLecture, remainingLecture)
	p.state = planSelectingLab
	leftLab := p.fill(models.SessionKindLab, remainingLab)

	plan := &schedulePlan{
		Proposals: p.accepted,
		Shortfall: dto.Shortfall{LecturePeriods: max(leftLecture, 0), LabPeriods: max(leftLab, 0)},
	}
	if len(p.accepted) == 0 {
		p.state = planFailed
		plan.State = p.state
		return plan, p.noCandidates(remainingLecture, remainingLab)
	}
	p.state = planDone
	plan.State = p.state
	return plan, nil
}

// fill books chunks of kind until remaining is met or no candidate is left, returning what is still missing.
func (p *planner) fill(kind models.SessionKind, remaining int) int {
	for remaining > 0 {
		chunk := min(remaining, maxChunkPeriods)
		picked, ok := p.pick(kind, chunk)
		if !ok {
			break
		}
		p.accept(picked)
		// a slot shorter than the chunk books fewer periods than asked for
		remaining -= picked.Entry.PeriodLength
	}
	return remaining
}

func (p *planner) pick(kind models.SessionKind, chunk int) (proposal, bool) {
	for _, slot := range rankCandidates(p.pool, p.load) {
		if slot.SessionKind != kind || !slot.HasSpareCapacity() || slot.PeriodLength <= 0 {
			continue
		}
		candidate := p.entryFor(slot, min(chunk, slot.PeriodLength))
		if hasTimeConflict(candidate, p.tentative) {
			continue
		}
		if exceedsSessionLoad(candidate.DayOfWeek, candidate.DayPart, candidate.PeriodLength, p.load) {
			continue
		}
		if hasRoomConflict(candidate, p.input.RoomBookings) {
			// bookings do not change during a run, so the slot stays unusable
			p.discard(slot.ID)
			continue
		}
		return proposal{Slot: slot, Entry: candidate}, true
	}
	return proposal{}, false
}

func (p *planner) accept(picked proposal) {
	p.accepted = append(p.accepted, picked)
	p.tentative = append(p.tentative, picked.Entry)
	p.load.add(picked.Entry.DayOfWeek, picked.Entry.DayPart, picked.Entry.PeriodLength)
	p.discard(picked.Slot.ID)
}

func (p *planner) discard(slotID string) {
	for i, slot := range p.pool {
		if slot.ID == slotID {
			p.pool = append(p.pool[:i:i], p.pool[i+1:]...)
			return
		}
	}
}

func (p *planner) entryFor(slot models.AvailableSlot, length int) models.ScheduleEntry {
	slotID := slot.ID
	return models.ScheduleEntry{
		StudentID:    p.input.StudentID,
		CourseID:     p.input.Course.ID,
		SlotID:       &slotID,
		DayOfWeek:    slot.DayOfWeek,
		StartPeriod:  slot.StartPeriod,
		PeriodLength: length,
		Room:         slot.Room,
		SessionKind:  slot.SessionKind,
		DayPart:      slot.DayPart,
		Semester:     p.input.Term.Semester,
		AcademicYear: p.input.Term.AcademicYear,
	}
}

func (p *planner) noCandidates(remainingLecture, remainingLab int) error {
	offered := 0
	for _, slot := range p.input.Slots {
		if (slot.SessionKind == models.SessionKindLecture && remainingLecture > 0) ||
			(slot.SessionKind == models.SessionKindLab && remainingLab > 0) {
			offered++
		}
	}
	if offered == 0 {
		return appErrors.Clone(appErrors.ErrNoCandidates, fmt.Sprintf("no slots are offered for course %s in this term", p.input.Course.Code))
	}
	return appErrors.Clone(appErrors.ErrNoCandidates, fmt.Sprintf("all %d offered slots for course %s conflict with your schedule, are full or exceed the daily load", offered, p.input.Course.Code))
}
