package spaced_repetition

import (
	"math"
	"time"

	"github.com/example/practicebot/pkg/models"
)

// redPressure is the extra squeeze applied to red spots under a deadline.
const redPressure = 0.8

// daysUntil returns the fractional days left before the deadline.
// ok is false when there is no deadline or it has passed.
func daysUntil(deadline *models.Deadline, now time.Time) (days float64, ok bool) {
	if deadline == nil {
		return 0, false
	}
	days = deadline.Date.Sub(now).Hours() / 24
	if days <= 0 {
		return 0, false
	}
	return days, true
}

// PressureMultiplier is the factor a deadline applies to intervals of a
// spot with the given color. It is 1 without an upcoming deadline.
func PressureMultiplier(color models.Color, deadline *models.Deadline, now time.Time) float64 {
	days, ok := daysUntil(deadline, now)
	if !ok {
		return 1
	}
	var m float64
	switch {
	case days <= 3:
		m = 0.3
	case days <= 7:
		m = 0.5
	case days <= 14:
		m = 0.7
	case days <= 30:
		m = 0.85
	default:
		m = 1
	}
	if normalizeColor(color) == models.Red {
		m *= redPressure
	}
	return m
}

// ScaleInterval compresses base by the deadline pressure and clamps the
// result to the scheduler's interval bounds.
func (s *Scheduler) ScaleInterval(base int, color models.Color, deadline *models.Deadline, now time.Time) int {
	ivl := base
	if m := PressureMultiplier(color, deadline, now); m != 1 {
		ivl = int(math.Round(float64(base) * m))
	}
	if ivl < s.minInterval {
		ivl = s.minInterval
	}
	if ivl > s.maxInterval {
		ivl = s.maxInterval
	}
	return ivl
}
