package spaced_repetition

import (
	"time"

	"github.com/example/practicebot/pkg/models"
)

// DueSpots returns the spots whose next due time is unset or not after now,
// in input order.
func DueSpots(all []models.Spot, now time.Time) []models.Spot {
	out := make([]models.Spot, 0, len(all))
	for _, sp := range all {
		if sp.IsDue(now) {
			out = append(out, sp)
		}
	}
	return out
}

// Summary is a snapshot of a spot collection.
type Summary struct {
	Total       int
	Due         int
	Overdue     int // due for more than a day
	ByColor     map[models.Color]int
	ByReadiness map[models.Readiness]int
}

// Summarize counts spots by color, readiness and due state.
func Summarize(spots []models.Spot, now time.Time) Summary {
	sum := Summary{
		Total:       len(spots),
		ByColor:     make(map[models.Color]int, 4),
		ByReadiness: make(map[models.Readiness]int, 4),
	}
	for _, sp := range spots {
		sum.ByColor[normalizeColor(sp.Color)]++
		sum.ByReadiness[normalizeReadiness(sp.Readiness)]++
		if sp.IsDue(now) {
			sum.Due++
		}
		if DaysOverdue(sp, now) > 1 {
			sum.Overdue++
		}
	}
	return sum
}
