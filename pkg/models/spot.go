package models

import "time"

// Spot is one rehearsable region of a score together with its scheduling state.
type Spot struct {
	ID      int64  `json:"id"`
	PieceID int64  `json:"piece_id"`
	Page    int    `json:"page"`
	Rect    Rect   `json:"rect"`
	Label   string `json:"label"`

	EaseFactor    float64    `json:"ease_factor"`
	Interval      int        `json:"interval"` // days
	Repetitions   int        `json:"repetitions"`
	NextDue       *time.Time `json:"next_due"` // nil means due now
	LastPracticed *time.Time `json:"last_practiced"`

	Color     Color     `json:"color"`
	Priority  Priority  `json:"priority"`
	Readiness Readiness `json:"readiness"`

	PracticeCount int `json:"practice_count"`
	SuccessCount  int `json:"success_count"`
	FailureCount  int `json:"failure_count"`

	// RecommendedMinutes is the time a session should reserve for the spot.
	// Zero falls back to a per-color default, see EffectiveMinutes.
	RecommendedMinutes int  `json:"recommended_minutes"`
	Active             bool `json:"active"`

	History []HistoryEntry `json:"history,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Rect is a page region in normalized coordinates.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// HistoryEntry records a single practice attempt.
type HistoryEntry struct {
	At      time.Time `json:"at"`
	Outcome Outcome   `json:"outcome"`
	Minutes int       `json:"minutes"`
}

// DefaultEaseFactor is the ease a freshly marked spot starts with.
const DefaultEaseFactor = 2.5

// NewSpot creates an active, never-practiced spot.
func NewSpot(pieceID int64, page int, rect Rect) Spot {
	return Spot{
		PieceID:    pieceID,
		Page:       page,
		Rect:       rect.Normalize(),
		EaseFactor: DefaultEaseFactor,
		Color:      Red,
		Priority:   PriorityMedium,
		Readiness:  ReadinessNew,
		Active:     true,
	}
}

// Normalize clamps every coordinate into [0,1] and keeps the rect on the page.
func (r Rect) Normalize() Rect {
	out := Rect{
		X:      clamp01(r.X),
		Y:      clamp01(r.Y),
		Width:  clamp01(r.Width),
		Height: clamp01(r.Height),
	}
	if out.X+out.Width > 1 {
		out.Width = 1 - out.X
	}
	if out.Y+out.Height > 1 {
		out.Height = 1 - out.Y
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 || v != v {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Clone returns a deep copy. Pointer fields and history are copied by value.
func (s Spot) Clone() Spot {
	out := s
	if s.NextDue != nil {
		v := *s.NextDue
		out.NextDue = &v
	}
	if s.LastPracticed != nil {
		v := *s.LastPracticed
		out.LastPracticed = &v
	}
	if s.History != nil {
		out.History = make([]HistoryEntry, len(s.History))
		copy(out.History, s.History)
	}
	return out
}

// SuccessRate is SuccessCount/PracticeCount, or 0 before the first attempt.
func (s Spot) SuccessRate() float64 {
	if s.PracticeCount <= 0 {
		return 0
	}
	rate := float64(s.SuccessCount) / float64(s.PracticeCount)
	if rate > 1 {
		return 1
	}
	if rate < 0 {
		return 0
	}
	return rate
}

// FailureRate is FailureCount/PracticeCount, or 0 before the first attempt.
func (s Spot) FailureRate() float64 {
	if s.PracticeCount <= 0 {
		return 0
	}
	rate := float64(s.FailureCount) / float64(s.PracticeCount)
	if rate > 1 {
		return 1
	}
	if rate < 0 {
		return 0
	}
	return rate
}

// IsDue reports whether the spot should be practiced at now.
func (s Spot) IsDue(now time.Time) bool {
	return s.NextDue == nil || !s.NextDue.After(now)
}

// EffectiveMinutes is RecommendedMinutes, or a color default when unset.
func (s Spot) EffectiveMinutes() int {
	if s.RecommendedMinutes > 0 {
		return s.RecommendedMinutes
	}
	switch s.Color {
	case Red:
		return 5
	case Yellow:
		return 3
	case Green:
		return 2
	case Blue:
		return 1
	}
	return 3
}
