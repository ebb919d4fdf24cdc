package service

import (
	"sort"
	"strings"

	"github.com/noah-isme/sis-registration-api/internal/models"
)

const (
	earlyStartCutoff = 6
	earlyStartBonus  = 3.0
	roomKindBonus    = 2.0
	fillRatioWeight  = 2.0
	sundayPenalty    = -1.0
)

// scoreSlot sums the static preferences for a slot; higher ranks first.
func scoreSlot(slot models.AvailableSlot) float64 {
	score := 0.0
	if slot.StartPeriod <= earlyStartCutoff {
		score += earlyStartBonus
	}
	score += weekdayBonus(slot.DayOfWeek)
	if roomMatchesKind(slot.SessionKind, slot.Room) {
		score += roomKindBonus
	}
	score += (1 - float64(slot.EnrolledCount)/float64(slot.Capacity())) * fillRatioWeight
	return score
}

// weekdayBonus gives Monday..Saturday 1..6 and discourages Sunday.
func weekdayBonus(day int) float64 {
	switch {
	case day >= 1 && day <= 6:
		return float64(day)
	case day == 7:
		return sundayPenalty
	default:
		return 0
	}
}

// roomMatchesKind follows the room naming convention: LT* lecture theatres, TH* labs.
func roomMatchesKind(kind models.SessionKind, room string) bool {
	room = strings.ToUpper(strings.TrimSpace(room))
	switch kind {
	case models.SessionKindLecture:
		return strings.HasPrefix(room, "LT")
	case models.SessionKindLab:
		return strings.HasPrefix(room, "TH")
	default:
		return false
	}
}

type scoredSlot struct {
	slot  models.AvailableSlot
	score float64
}

// rankCandidates orders slots by score, then stably re-orders them so the emptiest weekday and
// day part come first. The input slice is not modified.
func rankCandidates(slots []models.AvailableSlot, load DayLoad) []models.AvailableSlot {
	scored := make([]scoredSlot, len(slots))
	for i, slot := range slots {
		scored[i] = scoredSlot{slot: slot, score: scoreSlot(slot)}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	sort.SliceStable(scored, func(i, j int) bool {
		a, b := scored[i].slot, scored[j].slot
		da, db := load.Day(a.DayOfWeek), load.Day(b.DayOfWeek)
		if da != db {
			return da < db
		}
		return load.Part(a.DayOfWeek, a.DayPart) < load.Part(b.DayOfWeek, b.DayPart)
	})

	ranked := make([]models.AvailableSlot, len(scored))
	for i, item := range scored {
		ranked[i] = item.slot
	}
	return ranked
}
