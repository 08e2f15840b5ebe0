package spaced_repetition

import "github.com/example/practicebot/pkg/models"

// ReadinessState is the part of a spot the readiness machine reads and writes.
type ReadinessState struct {
	Readiness models.Readiness
	Color     models.Color
	Priority  models.Priority
}

// Counters are the practice statistics after the current attempt was counted.
type Counters struct {
	Repetitions   int
	PracticeCount int
	SuccessCount  int
}

// SuccessRate is SuccessCount/PracticeCount, or 0 without attempts.
func (c Counters) SuccessRate() float64 {
	if c.PracticeCount <= 0 {
		return 0
	}
	return float64(c.SuccessCount) / float64(c.PracticeCount)
}

// Transition returns the readiness and color after an outcome.
// Failure handling always wins over promotion.
func Transition(state ReadinessState, outcome models.Outcome, counters Counters) ReadinessState {
	next := state
	next.Readiness = normalizeReadiness(state.Readiness)

	switch normalizeOutcome(outcome) {
	case models.Failed:
		next.Readiness = models.ReadinessLearning
		next.Color = models.Red
	case models.Struggled:
		if next.Readiness == models.ReadinessReview || next.Readiness == models.ReadinessMastered {
			next.Readiness = models.ReadinessLearning
		}
		next.Color = models.Yellow
	case models.Good, models.Excellent:
		next.Readiness = promote(next.Readiness, counters)
		if next.Readiness == models.ReadinessMastered && state.Priority == models.PriorityLow {
			next.Color = models.Green
		} else {
			next.Color = models.Yellow
		}
	}
	return next
}

// promote advances r through every stage whose threshold counters meet.
func promote(r models.Readiness, c Counters) models.Readiness {
	rate := c.SuccessRate()
	for {
		switch r {
		case models.ReadinessNew:
			if c.Repetitions < 2 {
				return r
			}
			r = models.ReadinessLearning
		case models.ReadinessLearning:
			if c.Repetitions < 5 && !(rate >= 0.7 && c.Repetitions >= 3) {
				return r
			}
			r = models.ReadinessReview
		case models.ReadinessReview:
			if c.Repetitions < 10 && !(rate >= 0.9 && c.Repetitions >= 5) {
				return r
			}
			r = models.ReadinessMastered
		default:
			return r
		}
	}
}
