package models

import (
	"encoding"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for enum parsing.
var (
	ErrInvalidColor     = errors.New("models: invalid color")
	ErrInvalidPriority  = errors.New("models: invalid priority")
	ErrInvalidReadiness = errors.New("models: invalid readiness")
	ErrInvalidOutcome   = errors.New("models: invalid outcome")
)

// Color is the user-facing urgency indicator of a spot.
type Color int

const (
	Red Color = iota + 1
	Yellow
	Green
	Blue
)

// Priority is the owner-assigned importance of a spot.
type Priority int

const (
	PriorityLow Priority = iota + 1
	PriorityMedium
	PriorityHigh
)

// Readiness is the learning stage of a spot.
type Readiness int

const (
	ReadinessNew Readiness = iota + 1
	ReadinessLearning
	ReadinessReview
	ReadinessMastered
)

// Outcome is the ordinal result of one practice attempt.
type Outcome int

const (
	Failed Outcome = iota + 1
	Struggled
	Good
	Excellent
)

var (
	colorNames     = [...]string{Red: "red", Yellow: "yellow", Green: "green", Blue: "blue"}
	priorityNames  = [...]string{PriorityLow: "low", PriorityMedium: "medium", PriorityHigh: "high"}
	readinessNames = [...]string{ReadinessNew: "new", ReadinessLearning: "learning", ReadinessReview: "review", ReadinessMastered: "mastered"}
	outcomeNames   = [...]string{Failed: "failed", Struggled: "struggled", Good: "good", Excellent: "excellent"}
)

// Compile-time interface checks.
var (
	_ fmt.Stringer             = Color(0)
	_ encoding.TextMarshaler   = Color(0)
	_ encoding.TextUnmarshaler = (*Color)(nil)
	_ json.Marshaler           = Priority(0)
	_ json.Unmarshaler         = (*Priority)(nil)
	_ encoding.TextMarshaler   = Readiness(0)
	_ encoding.TextUnmarshaler = (*Outcome)(nil)
)

// lookup finds name in names, ignoring case and surrounding space.
func lookup(names []string, name string) (int, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range names {
		if n != "" && n == name {
			return i, true
		}
	}
	return 0, false
}

func quoteJSON(text []byte, err error) ([]byte, error) {
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(text))
}

func unquoteJSON(data []byte, sentinel error) (string, error) {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return "", fmt.Errorf("%w: %s", sentinel, data)
	}
	return s, nil
}

// Colors lists every color in urgency order.
func Colors() []Color { return []Color{Red, Yellow, Green, Blue} }

// IsValid reports whether c is one of the defined colors.
func (c Color) IsValid() bool { return c >= Red && c <= Blue }

// String returns the lower-case color name, or "Color(n)" for invalid values.
func (c Color) String() string {
	if c.IsValid() {
		return colorNames[c]
	}
	return fmt.Sprintf("Color(%d)", int(c))
}

// ParseColor parses a color name.
func ParseColor(s string) (Color, error) {
	i, ok := lookup(colorNames[:], s)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	return Color(i), nil
}

// MarshalText implements encoding.TextMarshaler.
func (c Color) MarshalText() ([]byte, error) {
	if !c.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidColor, int(c))
	}
	return []byte(colorNames[c]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Color) UnmarshalText(text []byte) error {
	v, err := ParseColor(string(text))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// MarshalJSON implements json.Marshaler.
func (c Color) MarshalJSON() ([]byte, error) { return quoteJSON(c.MarshalText()) }

// UnmarshalJSON implements json.Unmarshaler.
func (c *Color) UnmarshalJSON(data []byte) error {
	s, err := unquoteJSON(data, ErrInvalidColor)
	if err != nil {
		return err
	}
	return c.UnmarshalText([]byte(s))
}

// IsValid reports whether p is one of the defined priorities.
func (p Priority) IsValid() bool { return p >= PriorityLow && p <= PriorityHigh }

func (p Priority) String() string {
	if p.IsValid() {
		return priorityNames[p]
	}
	return fmt.Sprintf("Priority(%d)", int(p))
}

// ParsePriority parses a priority name.
func ParsePriority(s string) (Priority, error) {
	i, ok := lookup(priorityNames[:], s)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPriority, s)
	}
	return Priority(i), nil
}

// MarshalText implements encoding.TextMarshaler.
func (p Priority) MarshalText() ([]byte, error) {
	if !p.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPriority, int(p))
	}
	return []byte(priorityNames[p]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Priority) UnmarshalText(text []byte) error {
	v, err := ParsePriority(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// MarshalJSON implements json.Marshaler.
func (p Priority) MarshalJSON() ([]byte, error) { return quoteJSON(p.MarshalText()) }

// UnmarshalJSON implements json.Unmarshaler.
func (p *Priority) UnmarshalJSON(data []byte) error {
	s, err := unquoteJSON(data, ErrInvalidPriority)
	if err != nil {
		return err
	}
	return p.UnmarshalText([]byte(s))
}

// IsValid reports whether r is one of the defined readiness levels.
func (r Readiness) IsValid() bool { return r >= ReadinessNew && r <= ReadinessMastered }

func (r Readiness) String() string {
	if r.IsValid() {
		return readinessNames[r]
	}
	return fmt.Sprintf("Readiness(%d)", int(r))
}

// ParseReadiness parses a readiness name.
func ParseReadiness(s string) (Readiness, error) {
	i, ok := lookup(readinessNames[:], s)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidReadiness, s)
	}
	return Readiness(i), nil
}

// MarshalText implements encoding.TextMarshaler.
func (r Readiness) MarshalText() ([]byte, error) {
	if !r.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidReadiness, int(r))
	}
	return []byte(readinessNames[r]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Readiness) UnmarshalText(text []byte) error {
	v, err := ParseReadiness(string(text))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// MarshalJSON implements json.Marshaler.
func (r Readiness) MarshalJSON() ([]byte, error) { return quoteJSON(r.MarshalText()) }

// UnmarshalJSON implements json.Unmarshaler.
func (r *Readiness) UnmarshalJSON(data []byte) error {
	s, err := unquoteJSON(data, ErrInvalidReadiness)
	if err != nil {
		return err
	}
	return r.UnmarshalText([]byte(s))
}

// Outcomes lists every outcome from worst to best.
func Outcomes() []Outcome { return []Outcome{Failed, Struggled, Good, Excellent} }

// IsValid reports whether o is one of the defined outcomes.
func (o Outcome) IsValid() bool { return o >= Failed && o <= Excellent }

func (o Outcome) String() string {
	if o.IsValid() {
		return outcomeNames[o]
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// ParseOutcome parses an outcome name.
func ParseOutcome(s string) (Outcome, error) {
	i, ok := lookup(outcomeNames[:], s)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidOutcome, s)
	}
	return Outcome(i), nil
}

// MarshalText implements encoding.TextMarshaler.
func (o Outcome) MarshalText() ([]byte, error) {
	if !o.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidOutcome, int(o))
	}
	return []byte(outcomeNames[o]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Outcome) UnmarshalText(text []byte) error {
	v, err := ParseOutcome(string(text))
	if err != nil {
		return err
	}
	*o = v
	return nil
}

// MarshalJSON implements json.Marshaler.
func (o Outcome) MarshalJSON() ([]byte, error) { return quoteJSON(o.MarshalText()) }

// UnmarshalJSON implements json.Unmarshaler.
func (o *Outcome) UnmarshalJSON(data []byte) error {
	s, err := unquoteJSON(data, ErrInvalidOutcome)
	if err != nil {
		return err
	}
	return o.UnmarshalText([]byte(s))
}
