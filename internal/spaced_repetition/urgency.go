package spaced_repetition

import (
	"sort"
	"time"

	"github.com/example/practicebot/pkg/models"
)

// overduePerDay is the urgency added for each day past the due time.
const overduePerDay = 0.2

func colorWeight(c models.Color) float64 {
	switch normalizeColor(c) {
	case models.Red:
		return 4
	case models.Yellow:
		return 3
	case models.Green:
		return 2
	case models.Blue:
		return 1
	}
	return 4
}

func readinessWeight(r models.Readiness) float64 {
	switch normalizeReadiness(r) {
	case models.ReadinessNew:
		return 3.0
	case models.ReadinessLearning:
		return 2.5
	case models.ReadinessReview:
		return 1.5
	case models.ReadinessMastered:
		return 1.0
	}
	return 3.0
}

// DaysOverdue is the fractional days since the spot fell due, 0 if not overdue.
func DaysOverdue(spot models.Spot, now time.Time) float64 {
	if spot.NextDue == nil || !now.After(*spot.NextDue) {
		return 0
	}
	return now.Sub(*spot.NextDue).Hours() / 24
}

func deadlineBonus(deadline *models.Deadline, now time.Time) float64 {
	days, ok := daysUntil(deadline, now)
	if !ok {
		return 0
	}
	switch {
	case days <= 3:
		return 0.9
	case days <= 7:
		return 0.6
	case days <= 14:
		return 0.3
	}
	return 0
}

// Urgency scores how badly a spot needs practice. Higher is more urgent;
// the value is only meaningful relative to other spots.
func Urgency(spot models.Spot, deadline *models.Deadline, now time.Time) float64 {
	return colorWeight(spot.Color)*3.0 +
		readinessWeight(spot.Readiness) +
		DaysOverdue(spot, now)*overduePerDay +
		deadlineBonus(deadline, now)
}

// Scored pairs a spot with the score it was ranked by.
type Scored struct {
	Spot  models.Spot
	Score float64
}

// Rank sorts spots by descending score; equal scores keep the lower ID first.
func Rank(spots []models.Spot, score func(models.Spot) float64) []Scored {
	out := make([]Scored, len(spots))
	for i, sp := range spots {
		out[i] = Scored{Spot: sp, Score: score(sp)}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Spot.ID < out[j].Spot.ID
	})
	return out
}

// RankByUrgency ranks spots by Urgency.
func RankByUrgency(spots []models.Spot, deadline *models.Deadline, now time.Time) []Scored {
	return Rank(spots, func(sp models.Spot) float64 { return Urgency(sp, deadline, now) })
}
