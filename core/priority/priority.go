// Package priority ranks rooms for dispatch. Scoring is a pure function of
// the room fields and the reference time, so re-ranking the same snapshot is
// always stable.
package priority

import (
	"time"

	"github.com/lucasmnd/hkroster/core/model"
)

// Score weights. PREARRIVAL urgency grows as the arrival deadline nears and
// jumps to lateBonus once the guest is already waiting. A guest still in the
// room blocks vacate cleans outright: the penalty exceeds every bonus the
// scorer can add, including the manual override.
const (
	basePreArrival = 1000
	baseDayUse     = 800
	baseDeparture  = 300
	baseRubbish    = 200
	baseWeekly     = 100

	lateBonus       = 5000
	urgencyNumer    = 400.0
	urgencyFloorHrs = 0.5

	overrideBonus   = 2000
	occupiedPenalty = 5000
	inProgressBonus = 50
)

// Score computes the dispatch priority of a room at the given instant.
// Higher scores dispatch first. The result is truncated to an integer.
func Score(r model.Room, now time.Time) int {
	score := 0.0

	switch r.CleaningType {
	case model.CleanPreArrival:
		if !r.NextArrival.IsZero() {
			hoursUntil := r.NextArrival.Sub(now).Hours()
			if hoursUntil <= 0 {
				// Guest already waiting.
				score += lateBonus
			} else {
				score += basePreArrival + urgencyNumer/max(hoursUntil, urgencyFloorHrs)
			}
		} else {
			score += basePreArrival
		}
	case model.CleanDayUse:
		score += baseDayUse
	case model.CleanDeparture:
		score += baseDeparture
	case model.CleanRubbish:
		score += baseRubbish
	case model.CleanWeekly:
		score += baseWeekly
	}

	if r.Priority {
		score += overrideBonus
	}

	// Vacate cleans cannot start while the guest is in the room.
	if r.GuestStatus == model.GuestInRoom {
		if r.CleaningType == model.CleanDeparture || r.CleaningType == model.CleanPreArrival {
			score -= occupiedPenalty
		}
	}

	// Slight preference to finish started work when re-ranking.
	if r.Status == model.StatusInProgress {
		score += inProgressBonus
	}

	return int(score)
}
