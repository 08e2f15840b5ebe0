package spaced_repetition

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/example/practicebot/pkg/models"
)

// Mode selects how a session is assembled.
type Mode int

const (
	ModeCritical    Mode = iota + 1 // red spots only
	ModeBalanced                    // time quotas per color
	ModeMaintenance                 // green spots only
	ModeSmart                       // urgency blended with retention estimates
)

var modeNames = [...]string{
	ModeCritical:    "critical",
	ModeBalanced:    "balanced",
	ModeMaintenance: "maintenance",
	ModeSmart:       "smart",
}

// IsValid reports whether m is a defined mode.
func (m Mode) IsValid() bool { return m >= ModeCritical && m <= ModeSmart }

func (m Mode) String() string {
	if m.IsValid() {
		return modeNames[m]
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode parses a mode name such as "smart".
func ParseMode(s string) (Mode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range modeNames {
		if n != "" && n == s {
			return Mode(i), nil
		}
	}
	return 0, fmt.Errorf("spaced_repetition: invalid mode: %q", s)
}

// Share of the budget each color may claim in balanced mode.
var balancedQuota = map[models.Color]float64{
	models.Red:    0.4,
	models.Yellow: 0.3,
	models.Green:  0.2,
	models.Blue:   0.1,
}

// Weights of the smart-mode blend.
const (
	smartUrgency    = 0.3
	smartEfficiency = 0.25
	smartRetention  = 0.25
	smartDifficulty = 0.1
	smartConfidence = 0.1

	// confidentAfter is the attempt count at which a spot's statistics are trusted.
	confidentAfter = 10
)

// BuildSession picks an ordered subset of candidates that fits in budget
// minutes and at most maxSpots items (maxSpots <= 0 means no count limit).
// A non-positive budget falls back to the deadline's daily minutes.
// Candidates that would overflow the budget are skipped, not terminal.
// The result is a fresh slice; the candidates are not modified.
func BuildSession(candidates []models.Spot, budget int, mode Mode, deadline *models.Deadline, maxSpots int, now time.Time) []models.Spot {
	if budget <= 0 && deadline != nil {
		budget = deadline.DailyMinutes
	}
	if budget <= 0 || len(candidates) == 0 {
		return []models.Spot{}
	}

	var ranked []Scored
	switch mode {
	case ModeCritical:
		ranked = RankByUrgency(filterColor(candidates, models.Red), deadline, now)
	case ModeMaintenance:
		ranked = RankByUrgency(filterColor(candidates, models.Green), deadline, now)
	case ModeBalanced:
		ranked = RankByUrgency(candidates, deadline, now)
		return packBalanced(ranked, budget, maxSpots)
	case ModeSmart:
		ranked = rankSmart(candidates, deadline, now)
	default:
		ranked = RankByUrgency(candidates, deadline, now)
	}
	return pack(ranked, budget, maxSpots)
}

func filterColor(spots []models.Spot, c models.Color) []models.Spot {
	out := make([]models.Spot, 0, len(spots))
	for _, sp := range spots {
		if normalizeColor(sp.Color) == c {
			out = append(out, sp)
		}
	}
	return out
}

// pack accepts ranked items first-fit.
func pack(ranked []Scored, budget, maxSpots int) []models.Spot {
	out := make([]models.Spot, 0)
	used := 0
	for _, r := range ranked {
		if maxSpots > 0 && len(out) >= maxSpots {
			break
		}
		m := r.Spot.EffectiveMinutes()
		if used+m > budget {
			continue
		}
		out = append(out, r.Spot)
		used += m
	}
	return oversized(out, ranked)
}

// oversized lets the top-ranked spot through alone when nothing fits,
// so a pool of long spots never yields a permanently empty session.
func oversized(out []models.Spot, ranked []Scored) []models.Spot {
	if len(out) == 0 && len(ranked) > 0 {
		return []models.Spot{ranked[0].Spot}
	}
	return out
}

// packBalanced first fills each color's time quota from its own bucket,
// then hands the unused time to the remaining spots in rank order.
func packBalanced(ranked []Scored, budget, maxSpots int) []models.Spot {
	taken := make([]bool, len(ranked))
	used, count := 0, 0
	full := func() bool { return maxSpots > 0 && count >= maxSpots }

	for _, color := range models.Colors() {
		quota := int(math.Floor(float64(budget)*balancedQuota[color] + 1e-9))
		spent := 0
		for i, r := range ranked {
			if full() {
				break
			}
			if normalizeColor(r.Spot.Color) != color {
				continue
			}
			m := r.Spot.EffectiveMinutes()
			if spent+m > quota || used+m > budget {
				continue
			}
			taken[i] = true
			spent += m
			used += m
			count++
		}
	}

	for i, r := range ranked {
		if full() {
			break
		}
		if taken[i] {
			continue
		}
		m := r.Spot.EffectiveMinutes()
		if used+m > budget {
			continue
		}
		taken[i] = true
		used += m
		count++
	}

	out := make([]models.Spot, 0, count)
	for i, r := range ranked {
		if taken[i] {
			out = append(out, r.Spot)
		}
	}
	return oversized(out, ranked)
}

// rankSmart blends normalized urgency with learning and forgetting estimates.
func rankSmart(spots []models.Spot, deadline *models.Deadline, now time.Time) []Scored {
	maxUrgency := 0.0
	for _, sp := range spots {
		if u := Urgency(sp, deadline, now); u > maxUrgency {
			maxUrgency = u
		}
	}
	return Rank(spots, func(sp models.Spot) float64 {
		u := 0.0
		if maxUrgency > 0 {
			u = Urgency(sp, deadline, now) / maxUrgency
		}
		return smartUrgency*u +
			smartEfficiency*LearningEfficiency(sp) +
			smartRetention*RetentionRisk(sp, now) +
			smartDifficulty*sp.FailureRate() +
			smartConfidence*ConfidenceGap(sp)
	})
}

// LearningEfficiency favors spots still being learned over settled ones.
func LearningEfficiency(sp models.Spot) float64 {
	switch normalizeReadiness(sp.Readiness) {
	case models.ReadinessNew:
		return 1.0
	case models.ReadinessLearning:
		return 0.9
	case models.ReadinessReview:
		return 0.5
	case models.ReadinessMastered:
		return 0.2
	}
	return 1.0
}

// RetentionRisk estimates the chance the spot has been forgotten using an
// exponential forgetting curve that decays slower for easier spots.
// A spot never practiced carries full risk.
func RetentionRisk(sp models.Spot, now time.Time) float64 {
	if sp.LastPracticed == nil {
		return 1
	}
	days := now.Sub(*sp.LastPracticed).Hours() / 24
	if days <= 0 {
		return 0
	}
	ease := sp.EaseFactor
	if ease == 0 {
		ease = models.DefaultEaseFactor
	}
	ease = clampEase(ease)
	return 1 - math.Exp(-days/(ease*2))
}

// ConfidenceGap is 1 for an unsampled spot and falls to 0 after enough attempts.
func ConfidenceGap(sp models.Spot) float64 {
	n := sp.PracticeCount
	if n < 0 {
		n = 0
	}
	if n > confidentAfter {
		n = confidentAfter
	}
	return 1 - float64(n)/confidentAfter
}
