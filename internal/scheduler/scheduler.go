package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/example/practicebot/internal/logger"
	"github.com/example/practicebot/internal/spaced_repetition"
	"github.com/example/practicebot/pkg/models"
)

// Default reminder settings
const (
	DefaultInterval   = time.Hour
	DefaultQuietStart = spaced_repetition.DefaultQuietStart
	DefaultQuietEnd   = spaced_repetition.DefaultQuietEnd
	DefaultMaxListed  = 5
)

// Reminder is what gets sent when spots are waiting.
type Reminder struct {
	Due     int
	Overdue int
	Top     []models.Spot // most urgent first
}

// Notifier delivers reminders
type Notifier interface {
	SendReminder(ctx context.Context, r Reminder) error
}

// DueSource lists the spots due now
type DueSource interface {
	DueSpots(ctx context.Context) ([]models.Spot, error)
}

// Options configures the reminder job. Zero values use the defaults.
type Options struct {
	Interval   time.Duration
	QuietStart int
	QuietEnd   int
	MaxListed  int
	Now        func() time.Time
	// Location the quiet hours are read in. nil → location of Now().
	Location *time.Location
}

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	scheduler *gocron.Scheduler
	notifier  Notifier
	source    DueSource
	log       *logger.Logger
	opts      Options
}

// New creates a new scheduler instance
func New(source DueSource, notifier Notifier, log *logger.Logger, opts Options) *Scheduler {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.QuietStart == 0 && opts.QuietEnd == 0 {
		opts.QuietStart, opts.QuietEnd = DefaultQuietStart, DefaultQuietEnd
	}
	if opts.MaxListed <= 0 {
		opts.MaxListed = DefaultMaxListed
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		notifier:  notifier,
		source:    source,
		log:       log,
		opts:      opts,
	}
}

// Start begins running all scheduled tasks
func (s *Scheduler) Start() error {
	_, err := s.scheduler.Every(s.opts.Interval).Do(s.checkAndSendReminders)
	if err != nil {
		return fmt.Errorf("failed to schedule reminders: %w", err)
	}
	s.scheduler.StartAsync()
	s.log.Info("reminders scheduled", "every", s.opts.Interval.String())
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

func (s *Scheduler) checkAndSendReminders() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	now := s.opts.Now()
	local := now
	if s.opts.Location != nil {
		local = now.In(s.opts.Location)
	}
	if spaced_repetition.InQuietHours(local.Hour(), s.opts.QuietStart, s.opts.QuietEnd) {
		s.log.Debug("inside quiet hours, skipping reminders",
			"hour", local.Hour(), "quiet_start", s.opts.QuietStart, "quiet_end", s.opts.QuietEnd)
		return
	}
	if _, err := s.remind(ctx, now); err != nil {
		s.log.Error("reminder check failed", "error", err)
	}
}

// RunManualCheck sends a reminder right away, ignoring quiet hours.
// It reports whether anything was due.
func (s *Scheduler) RunManualCheck(ctx context.Context) (bool, error) {
	return s.remind(ctx, s.opts.Now())
}

func (s *Scheduler) remind(ctx context.Context, now time.Time) (bool, error) {
	due, err := s.source.DueSpots(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to load due spots: %w", err)
	}
	if len(due) == 0 {
		return false, nil
	}

	r := Reminder{Due: len(due)}
	for _, sp := range due {
		if spaced_repetition.DaysOverdue(sp, now) > 1 {
			r.Overdue++
		}
	}
	// The deadline bonus is the same for every spot, so it cannot change the order.
	ranked := spaced_repetition.RankByUrgency(due, nil, now)
	for i := 0; i < len(ranked) && i < s.opts.MaxListed; i++ {
		r.Top = append(r.Top, ranked[i].Spot)
	}

	if err := s.notifier.SendReminder(ctx, r); err != nil {
		return true, fmt.Errorf("failed to send reminder: %w", err)
	}
	s.log.Info("reminder sent", "due", r.Due, "overdue", r.Overdue)
	return true, nil
}
