package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestParseEnums(t *testing.T) {
	if c, err := ParseColor(" Yellow "); err != nil || c != Yellow {
		t.Errorf("ParseColor = %v, %v", c, err)
	}
	if p, err := ParsePriority("HIGH"); err != nil || p != PriorityHigh {
		t.Errorf("ParsePriority = %v, %v", p, err)
	}
	if r, err := ParseReadiness("mastered"); err != nil || r != ReadinessMastered {
		t.Errorf("ParseReadiness = %v, %v", r, err)
	}
	if o, err := ParseOutcome("struggled"); err != nil || o != Struggled {
		t.Errorf("ParseOutcome = %v, %v", o, err)
	}

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"color", errOf(ParseColor("purple")), ErrInvalidColor},
		{"priority", errOf(ParsePriority("")), ErrInvalidPriority},
		{"readiness", errOf(ParseReadiness("expert")), ErrInvalidReadiness},
		{"outcome", errOf(ParseOutcome("meh")), ErrInvalidOutcome},
	}
	for _, tt := range tests {
		if !errors.Is(tt.err, tt.want) {
			t.Errorf("%s: err = %v, want %v", tt.name, tt.err, tt.want)
		}
	}
}

func errOf[T any](_ T, err error) error { return err }

func TestEnumStrings(t *testing.T) {
	if Blue.String() != "blue" || Color(0).String() != "Color(0)" {
		t.Errorf("color strings: %q %q", Blue.String(), Color(0).String())
	}
	if Outcome(7).IsValid() || !Excellent.IsValid() {
		t.Error("outcome validity")
	}
	if _, err := Readiness(9).MarshalText(); !errors.Is(err, ErrInvalidReadiness) {
		t.Errorf("MarshalText err = %v", err)
	}
}

func TestSpotJSON(t *testing.T) {
	due := time.Date(2024, 3, 2, 8, 0, 0, 0, time.UTC)
	sp := NewSpot(3, 2, Rect{X: 0.1, Y: 0.1, Width: 0.2, Height: 0.2})
	sp.NextDue = &due
	sp.Priority = PriorityHigh

	data, err := json.Marshal(sp)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	if raw["color"] != "red" || raw["priority"] != "high" || raw["readiness"] != "new" {
		t.Errorf("enum encoding: %s", data)
	}

	var back Spot
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back.Priority != PriorityHigh || back.NextDue == nil || !back.NextDue.Equal(due) {
		t.Errorf("decoded = %+v", back)
	}

	if err := json.Unmarshal([]byte(`{"color":"mauve"}`), &back); !errors.Is(err, ErrInvalidColor) {
		t.Errorf("invalid color err = %v", err)
	}
}

func TestNewSpotDefaults(t *testing.T) {
	sp := NewSpot(1, 4, Rect{X: 0.8, Y: -0.5, Width: 0.5, Height: 2})
	if sp.EaseFactor != DefaultEaseFactor || sp.Color != Red || sp.Priority != PriorityMedium ||
		sp.Readiness != ReadinessNew || !sp.Active || sp.NextDue != nil {
		t.Errorf("NewSpot = %+v", sp)
	}
	want := Rect{X: 0.8, Y: 0, Width: 0.2, Height: 1}
	if d := sp.Rect.Width - want.Width; d > 1e-9 || d < -1e-9 || sp.Rect.X != want.X || sp.Rect.Y != 0 || sp.Rect.Height != 1 {
		t.Errorf("Rect = %+v, want %+v", sp.Rect, want)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	due := time.Date(2024, 3, 2, 8, 0, 0, 0, time.UTC)
	sp := NewSpot(1, 1, Rect{})
	sp.NextDue = &due
	sp.LastPracticed = &due
	sp.History = []HistoryEntry{{At: due, Outcome: Good}}

	c := sp.Clone()
	*c.NextDue = due.Add(time.Hour)
	*c.LastPracticed = due.Add(time.Hour)
	c.History[0].Outcome = Failed
	c.History = append(c.History, HistoryEntry{Outcome: Excellent})

	if !sp.NextDue.Equal(due) || !sp.LastPracticed.Equal(due) {
		t.Error("clone shares time pointers")
	}
	if len(sp.History) != 1 || sp.History[0].Outcome != Good {
		t.Errorf("clone shares history: %+v", sp.History)
	}
}

func TestRatesAndDue(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	sp := Spot{}
	if sp.SuccessRate() != 0 || sp.FailureRate() != 0 {
		t.Error("rates without attempts should be 0")
	}
	sp = Spot{PracticeCount: 4, SuccessCount: 3, FailureCount: 1}
	if sp.SuccessRate() != 0.75 || sp.FailureRate() != 0.25 {
		t.Errorf("rates = %v %v", sp.SuccessRate(), sp.FailureRate())
	}
	sp = Spot{PracticeCount: 1, SuccessCount: 5}
	if sp.SuccessRate() != 1 {
		t.Errorf("capped rate = %v", sp.SuccessRate())
	}

	if !(Spot{}).IsDue(now) {
		t.Error("spot without due time should be due")
	}
	later := now.Add(time.Minute)
	if (Spot{NextDue: &later}).IsDue(now) {
		t.Error("future spot reported due")
	}
	if !(Spot{NextDue: &now}).IsDue(now) {
		t.Error("spot due exactly now should be due")
	}
}

func TestEffectiveMinutes(t *testing.T) {
	tests := []struct {
		sp   Spot
		want int
	}{
		{Spot{Color: Red}, 5},
		{Spot{Color: Yellow}, 3},
		{Spot{Color: Green}, 2},
		{Spot{Color: Blue}, 1},
		{Spot{}, 3},
		{Spot{Color: Blue, RecommendedMinutes: 12}, 12},
	}
	for _, tt := range tests {
		if got := tt.sp.EffectiveMinutes(); got != tt.want {
			t.Errorf("EffectiveMinutes(%v, %d) = %d, want %d", tt.sp.Color, tt.sp.RecommendedMinutes, got, tt.want)
		}
	}
}

func TestPieceDeadline(t *testing.T) {
	if (Piece{}).Deadline() != nil {
		t.Error("piece without concert has a deadline")
	}
	concert := time.Date(2024, 6, 1, 19, 0, 0, 0, time.UTC)
	d := Piece{ConcertDate: &concert, DailyMinutes: 40}.Deadline()
	if d == nil || !d.Date.Equal(concert) || d.DailyMinutes != 40 {
		t.Errorf("Deadline = %+v", d)
	}
}
