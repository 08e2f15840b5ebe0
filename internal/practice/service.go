package practice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/practicebot/internal/database"
	"github.com/example/practicebot/internal/logger"
	"github.com/example/practicebot/internal/spaced_repetition"
	"github.com/example/practicebot/pkg/models"
)

// ErrInactiveSpot is returned when practicing a deactivated spot.
var ErrInactiveSpot = errors.New("practice: spot is inactive")

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock.
var SystemClock Clock = ClockFunc(time.Now)

// SpotStore persists spots and their history. SavePractice must write the
// spot and the history entry atomically.
type SpotStore interface {
	LoadActiveSpots(ctx context.Context) ([]models.Spot, error)
	GetByID(ctx context.Context, id int64) (models.Spot, error)
	SavePractice(ctx context.Context, spot models.Spot, entry models.HistoryEntry) error
}

// PieceStore reads the pieces spots belong to.
type PieceStore interface {
	GetByID(ctx context.Context, id int64) (models.Piece, error)
	GetAll(ctx context.Context) ([]models.Piece, error)
}

// Service loads spots, runs the scheduler on them and stores the results.
type Service struct {
	spots  SpotStore
	pieces PieceStore
	engine *spaced_repetition.Scheduler
	clock  Clock
	log    *logger.Logger
}

// NewService wires a Service. A nil clock means SystemClock, a nil logger discards output.
func NewService(spots SpotStore, pieces PieceStore, engine *spaced_repetition.Scheduler, clock Clock, log *logger.Logger) *Service {
	if clock == nil {
		clock = SystemClock
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{spots: spots, pieces: pieces, engine: engine, clock: clock, log: log}
}

// RecordPractice applies an attempt to a stored spot and persists the result.
func (s *Service) RecordPractice(ctx context.Context, spotID int64, outcome models.Outcome, minutes int) (models.Spot, error) {
	if !outcome.IsValid() {
		return models.Spot{}, fmt.Errorf("record practice: %w: %d", models.ErrInvalidOutcome, int(outcome))
	}
	spot, err := s.spots.GetByID(ctx, spotID)
	if err != nil {
		return models.Spot{}, fmt.Errorf("record practice: %w", err)
	}
	if !spot.Active {
		return models.Spot{}, fmt.Errorf("record practice: spot %d: %w", spotID, ErrInactiveSpot)
	}
	deadline, err := s.deadlineFor(ctx, spot.PieceID)
	if err != nil {
		return models.Spot{}, fmt.Errorf("record practice: %w", err)
	}

	now := s.clock.Now()
	updated := s.engine.RecordPractice(spot, spaced_repetition.Practice{Outcome: outcome, Minutes: minutes}, deadline, now)

	entry := updated.History[len(updated.History)-1]
	if err := s.spots.SavePractice(ctx, updated, entry); err != nil {
		return models.Spot{}, fmt.Errorf("record practice: %w", err)
	}

	s.log.Info("practice recorded",
		"spot_id", updated.ID,
		"outcome", outcome.String(),
		"interval_days", updated.Interval,
		"ease", updated.EaseFactor,
		"color", updated.Color.String(),
		"readiness", updated.Readiness.String(),
		"next_due", updated.NextDue,
	)
	return updated, nil
}

// DueSpots returns the active spots due now.
func (s *Service) DueSpots(ctx context.Context) ([]models.Spot, error) {
	all, err := s.spots.LoadActiveSpots(ctx)
	if err != nil {
		return nil, fmt.Errorf("due spots: %w", err)
	}
	return spaced_repetition.DueSpots(all, s.clock.Now()), nil
}

// Urgency scores one spot against its piece's deadline.
func (s *Service) Urgency(ctx context.Context, spotID int64) (float64, error) {
	spot, err := s.spots.GetByID(ctx, spotID)
	if err != nil {
		return 0, fmt.Errorf("urgency: %w", err)
	}
	deadline, err := s.deadlineFor(ctx, spot.PieceID)
	if err != nil {
		return 0, fmt.Errorf("urgency: %w", err)
	}
	return spaced_repetition.Urgency(spot, deadline, s.clock.Now()), nil
}

// Summary describes the active spots at the current time.
func (s *Service) Summary(ctx context.Context) (spaced_repetition.Summary, error) {
	all, err := s.spots.LoadActiveSpots(ctx)
	if err != nil {
		return spaced_repetition.Summary{}, fmt.Errorf("summary: %w", err)
	}
	return spaced_repetition.Summarize(all, s.clock.Now()), nil
}

// deadlineFor returns the piece's deadline. A piece that no longer exists
// simply has none.
func (s *Service) deadlineFor(ctx context.Context, pieceID int64) (*models.Deadline, error) {
	if pieceID == 0 {
		return nil, nil
	}
	piece, err := s.pieces.GetByID(ctx, pieceID)
	if errors.Is(err, database.ErrNotFound) {
		s.log.Warn("spot references missing piece", "piece_id", pieceID)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return piece.Deadline(), nil
}
