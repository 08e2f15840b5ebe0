package spaced_repetition

import (
	"math"
	"time"

	"github.com/example/practicebot/pkg/models"
)

// Ease factor bounds of the SM-2 family.
const (
	MinEaseFactor = 1.3
	MaxEaseFactor = 2.5
)

const (
	// passQuality separates a successful attempt from a failed one.
	passQuality = 3.0
	// failurePenalty is subtracted from the ease after an unsuccessful attempt.
	failurePenalty = 0.2

	lowReliability  = 0.3
	highReliability = 0.8
)

// Quality is the SM-2 response quality on a 0..5 scale.
type Quality float64

// Practice describes one practice attempt.
type Practice struct {
	Outcome models.Outcome
	Minutes int
}

// QualityOf maps an outcome to its base quality.
func QualityOf(o models.Outcome) Quality {
	switch normalizeOutcome(o) {
	case models.Failed:
		return 1.0
	case models.Struggled:
		return 2.5
	case models.Good:
		return 4.0
	case models.Excellent:
		return 5.0
	}
	return 1.0
}

// RecordOutcome applies an outcome without time tracking. See RecordPractice.
func (s *Scheduler) RecordOutcome(spot models.Spot, outcome models.Outcome, deadline *models.Deadline, now time.Time) models.Spot {
	return s.RecordPractice(spot, Practice{Outcome: outcome}, deadline, now)
}

// RecordPractice computes the spot's state after a practice attempt at now.
// The input spot is not mutated; out-of-range fields are normalized rather
// than rejected, so any persisted record can be processed.
func (s *Scheduler) RecordPractice(spot models.Spot, p Practice, deadline *models.Deadline, now time.Time) models.Spot {
	c := normalizeSpot(spot.Clone())
	if c.Interval > s.maxInterval {
		c.Interval = s.maxInterval
	}
	outcome := normalizeOutcome(p.Outcome)

	// Pressure uses the color the spot had going into the attempt.
	pressureColor := c.Color

	q := s.adjustQuality(QualityOf(outcome), c)
	success := q >= passQuality

	var interval int
	if success {
		c.EaseFactor = clampEase(c.EaseFactor + easeDelta(q))
		c.Repetitions++
		switch c.Repetitions {
		case 1:
			interval = 1
		case 2:
			interval = 6
		default:
			next := math.Round(float64(c.Interval) * c.EaseFactor)
			if next > float64(s.maxInterval) {
				next = float64(s.maxInterval)
			}
			interval = int(next)
		}
	} else {
		c.Repetitions = 0
		interval = 1
		c.EaseFactor = clampEase(c.EaseFactor - failurePenalty)
	}

	c.Interval = s.ScaleInterval(interval, pressureColor, deadline, now)

	var due time.Time
	if outcome == models.Failed {
		due = now.Add(s.retryLag)
	} else {
		due = now.AddDate(0, 0, c.Interval)
	}
	due = s.gate(due)
	c.NextDue = &due

	c.PracticeCount++
	if success {
		c.SuccessCount++
	} else {
		c.FailureCount++
	}
	practiced := now
	c.LastPracticed = &practiced

	minutes := p.Minutes
	if minutes < 0 {
		minutes = 0
	}
	c.History = append(c.History, models.HistoryEntry{At: now, Outcome: outcome, Minutes: minutes})

	next := Transition(
		ReadinessState{Readiness: c.Readiness, Color: c.Color, Priority: c.Priority},
		outcome,
		Counters{Repetitions: c.Repetitions, PracticeCount: c.PracticeCount, SuccessCount: c.SuccessCount},
	)
	c.Readiness = next.Readiness
	c.Color = next.Color

	return c
}

// PreviewOutcomes returns the spot as it would look after each possible outcome.
func (s *Scheduler) PreviewOutcomes(spot models.Spot, deadline *models.Deadline, now time.Time) map[models.Outcome]models.Spot {
	result := make(map[models.Outcome]models.Spot, 4)
	for _, o := range models.Outcomes() {
		result[o] = s.RecordOutcome(spot, o, deadline, now)
	}
	return result
}

// Replay rebuilds the scheduling state of spot from a practice history.
// Identity, priority and recommended time are kept; everything the engine
// owns starts over and the entries are applied in order.
func (s *Scheduler) Replay(spot models.Spot, history []models.HistoryEntry, deadline *models.Deadline) models.Spot {
	c := spot.Clone()
	c.EaseFactor = models.DefaultEaseFactor
	c.Interval = 0
	c.Repetitions = 0
	c.NextDue = nil
	c.LastPracticed = nil
	c.Color = models.Red
	c.Readiness = models.ReadinessNew
	c.PracticeCount = 0
	c.SuccessCount = 0
	c.FailureCount = 0
	c.History = nil
	for _, h := range history {
		c = s.RecordPractice(c, Practice{Outcome: h.Outcome, Minutes: h.Minutes}, deadline, h.At)
	}
	return c
}

// adjustQuality scales q by the spot's track record. A spot without
// attempts has no record and keeps its base quality.
func (s *Scheduler) adjustQuality(q Quality, c models.Spot) Quality {
	if c.PracticeCount > 0 {
		rate := c.SuccessRate()
		switch {
		case rate < lowReliability:
			q *= 0.8
		case rate > highReliability:
			q *= 1.1
		}
	}
	if q < 0 {
		return 0
	}
	if q > 5 {
		return 5
	}
	return q
}

// easeDelta is the SM-2 ease adjustment for quality q.
func easeDelta(q Quality) float64 {
	miss := 5 - float64(q)
	return 0.1 - miss*(0.08+miss*0.02)
}

func clampEase(e float64) float64 {
	if math.IsNaN(e) || e < MinEaseFactor {
		return MinEaseFactor
	}
	if e > MaxEaseFactor {
		return MaxEaseFactor
	}
	return e
}

func normalizeOutcome(o models.Outcome) models.Outcome {
	if o < models.Failed {
		return models.Failed
	}
	if o > models.Excellent {
		return models.Excellent
	}
	return o
}

func normalizeColor(c models.Color) models.Color {
	if !c.IsValid() {
		return models.Red
	}
	return c
}

func normalizeReadiness(r models.Readiness) models.Readiness {
	if !r.IsValid() {
		return models.ReadinessNew
	}
	return r
}

// normalizeSpot repairs records written by other code paths.
func normalizeSpot(c models.Spot) models.Spot {
	if c.EaseFactor == 0 {
		c.EaseFactor = models.DefaultEaseFactor
	}
	c.EaseFactor = clampEase(c.EaseFactor)
	if c.Interval < 0 {
		c.Interval = 0
	}
	if c.Repetitions < 0 {
		c.Repetitions = 0
	}
	if c.SuccessCount < 0 {
		c.SuccessCount = 0
	}
	if c.FailureCount < 0 {
		c.FailureCount = 0
	}
	if c.PracticeCount < c.SuccessCount+c.FailureCount {
		c.PracticeCount = c.SuccessCount + c.FailureCount
	}
	c.Color = normalizeColor(c.Color)
	c.Readiness = normalizeReadiness(c.Readiness)
	if !c.Priority.IsValid() {
		c.Priority = models.PriorityMedium
	}
	return c
}
