package spaced_repetition

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidConfig is returned by NewScheduler for unusable settings.
var ErrInvalidConfig = errors.New("spaced_repetition: invalid config")

// Engine defaults.
const (
	DefaultMinInterval = 1   // days
	DefaultMaxInterval = 365 // days
	DefaultRetryLag    = 30 * time.Minute
	DefaultQuietStart  = 22
	DefaultQuietEnd    = 6
	DefaultWakeHour    = 8
)

// SchedulerConfig configures a Scheduler.
// Zero values produce the defaults above.
type SchedulerConfig struct {
	MinInterval int           // zero → 1 day
	MaxInterval int           // zero → 365 days
	RetryLag    time.Duration // zero → 30m

	// Quiet hours [QuietStart, QuietEnd) wrap midnight when QuietStart > QuietEnd.
	// Both zero → 22..6. Due times inside the window move to WakeHour.
	QuietStart       int
	QuietEnd         int
	WakeHour         int // zero → 8
	DisableSleepGate bool

	// Location used for the sleep gate. nil → location of the due time.
	Location *time.Location
}

// Scheduler runs the spaced repetition update for practice spots.
// It holds configuration only and is safe for concurrent use.
type Scheduler struct {
	minInterval int
	maxInterval int
	retryLag    time.Duration
	quietStart  int
	quietEnd    int
	wakeHour    int
	sleepGate   bool
	loc         *time.Location
}

// NewScheduler creates a Scheduler from cfg, filling zero fields with defaults.
func NewScheduler(cfg SchedulerConfig) (*Scheduler, error) {
	minIvl := cfg.MinInterval
	if minIvl == 0 {
		minIvl = DefaultMinInterval
	}
	maxIvl := cfg.MaxInterval
	if maxIvl == 0 {
		maxIvl = DefaultMaxInterval
	}
	if minIvl < 0 || maxIvl < 0 {
		return nil, fmt.Errorf("%w: intervals must be positive (min %d, max %d)", ErrInvalidConfig, minIvl, maxIvl)
	}
	if minIvl > maxIvl {
		return nil, fmt.Errorf("%w: min interval %d exceeds max interval %d", ErrInvalidConfig, minIvl, maxIvl)
	}

	lag := cfg.RetryLag
	if lag == 0 {
		lag = DefaultRetryLag
	}
	if lag < 0 {
		return nil, fmt.Errorf("%w: retry lag %s must be positive", ErrInvalidConfig, lag)
	}

	start, end := cfg.QuietStart, cfg.QuietEnd
	if start == 0 && end == 0 {
		start, end = DefaultQuietStart, DefaultQuietEnd
	}
	wake := cfg.WakeHour
	if wake == 0 {
		wake = DefaultWakeHour
	}
	for _, h := range []int{start, end, wake} {
		if h < 0 || h > 23 {
			return nil, fmt.Errorf("%w: hour %d out of range [0, 23]", ErrInvalidConfig, h)
		}
	}
	if !cfg.DisableSleepGate && InQuietHours(wake, start, end) {
		return nil, fmt.Errorf("%w: wake hour %d falls inside quiet hours %d-%d", ErrInvalidConfig, wake, start, end)
	}

	return &Scheduler{
		minInterval: minIvl,
		maxInterval: maxIvl,
		retryLag:    lag,
		quietStart:  start,
		quietEnd:    end,
		wakeHour:    wake,
		sleepGate:   !cfg.DisableSleepGate,
		loc:         cfg.Location,
	}, nil
}

// MustScheduler is NewScheduler that panics on error. Intended for defaults and tests.
func MustScheduler(cfg SchedulerConfig) *Scheduler {
	s, err := NewScheduler(cfg)
	if err != nil {
		panic(err)
	}
	return s
}

// MinInterval returns the interval floor in days.
func (s *Scheduler) MinInterval() int { return s.minInterval }

// RetryLag returns the delay before a failed spot is offered again.
func (s *Scheduler) RetryLag() time.Duration { return s.retryLag }

// InQuietHours reports whether hour h lies in [start, end), wrapping
// midnight when start > end. An empty window (start == end) holds no hours.
func InQuietHours(h, start, end int) bool {
	switch {
	case start == end:
		return false
	case start < end:
		return h >= start && h < end
	default:
		return h >= start || h < end
	}
}

// gate moves t out of quiet hours to the next wake time.
func (s *Scheduler) gate(t time.Time) time.Time {
	if !s.sleepGate {
		return t
	}
	local := t
	if s.loc != nil {
		local = t.In(s.loc)
	}
	if !InQuietHours(local.Hour(), s.quietStart, s.quietEnd) {
		return t
	}
	wake := time.Date(local.Year(), local.Month(), local.Day(), s.wakeHour, 0, 0, 0, local.Location())
	if !wake.After(local) {
		wake = wake.AddDate(0, 0, 1)
	}
	return wake
}
