package service

import "github.com/noah-isme/sis-registration-api/internal/models"

// sessionLoadLimits caps the periods a student may hold in one part of one day.
var sessionLoadLimits = map[models.DayPart]int{
	models.DayPartMorning:   5,
	models.DayPartAfternoon: 5,
	models.DayPartEvening:   3,
}

// DayLoad tracks periods per weekday and day part for one student during one planning run.
type DayLoad map[int]map[models.DayPart]int

func newDayLoad(entries []models.ScheduleEntry) DayLoad {
	load := DayLoad{}
	for _, entry := range entries {
		load.add(entry.DayOfWeek, entry.DayPart, entry.PeriodLength)
	}
	return load
}

func (l DayLoad) add(day int, part models.DayPart, periods int) {
	parts, ok := l[day]
	if !ok {
		parts = map[models.DayPart]int{}
		l[day] = parts
	}
	parts[part] += periods
}

// Day returns the total periods loaded on a weekday.
func (l DayLoad) Day(day int) int {
	total := 0
	for _, periods := range l[day] {
		total += periods
	}
	return total
}

// Part returns the periods loaded in one part of a weekday.
func (l DayLoad) Part(day int, part models.DayPart) int {
	return l[day][part]
}

// periodsOverlap uses closed intervals: [1,2] and [3,4] do not overlap, [1,3] and [3,4] do.
func periodsOverlap(aStart, aLength, bStart, bLength int) bool {
	return bStart <= aStart+aLength-1 && bStart+bLength-1 >= aStart
}

func sameSlot(a, b models.ScheduleEntry) bool {
	return a.DayOfWeek == b.DayOfWeek && a.Term() == b.Term() &&
		periodsOverlap(a.StartPeriod, a.PeriodLength, b.StartPeriod, b.PeriodLength)
}

// hasTimeConflict reports whether candidate overlaps any entry on the same weekday and term.
func hasTimeConflict(candidate models.ScheduleEntry, existing []models.ScheduleEntry) bool {
	for _, entry := range existing {
		if sameSlot(candidate, entry) {
			return true
		}
	}
	return false
}

// hasRoomConflict reports whether the candidate's room is taken at an overlapping time. Bookings
// made from the same catalog slot are the shared session itself and never conflict.
func hasRoomConflict(candidate models.ScheduleEntry, bookings []models.ScheduleEntry) bool {
	room := models.RoomKey(candidate.Room)
	if room == "" {
		return false
	}
	origin := candidate.OriginSlotID()
	for _, booking := range bookings {
		if models.RoomKey(booking.Room) != room {
			continue
		}
		if origin != "" && booking.OriginSlotID() == origin {
			continue
		}
		if sameSlot(candidate, booking) {
			return true
		}
	}
	return false
}

// exceedsSessionLoad reports whether adding length periods breaks the day-part ceiling.
// Unknown day parts have no allowance.
func exceedsSessionLoad(day int, part models.DayPart, length int, load DayLoad) bool {
	limit, ok := sessionLoadLimits[part]
	if !ok {
		return true
	}
	return load.Part(day, part)+length > limit
}
