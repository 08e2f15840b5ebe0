package practice

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/example/practicebot/internal/spaced_repetition"
	"github.com/example/practicebot/pkg/models"
)

// SessionRequest describes the session a caller wants.
type SessionRequest struct {
	PieceID       int64 // 0 selects across all pieces
	Mode          spaced_repetition.Mode
	BudgetMinutes int // <= 0 uses the deadline's daily minutes
	MaxSpots      int // <= 0 means no limit
	IncludeNotDue bool
}

// Session is an ordered, time-boxed practice plan.
type Session struct {
	ID           uuid.UUID
	Mode         spaced_repetition.Mode
	CreatedAt    time.Time
	Deadline     *models.Deadline
	Budget       int
	TotalMinutes int
	Spots        []models.Spot
}

// BuildSession assembles a session from the currently stored spots.
func (s *Service) BuildSession(ctx context.Context, req SessionRequest) (Session, error) {
	mode := req.Mode
	if !mode.IsValid() {
		mode = spaced_repetition.ModeSmart
	}

	all, err := s.spots.LoadActiveSpots(ctx)
	if err != nil {
		return Session{}, fmt.Errorf("build session: %w", err)
	}
	now := s.clock.Now()

	candidates := all
	if req.PieceID != 0 {
		candidates = make([]models.Spot, 0, len(all))
		for _, sp := range all {
			if sp.PieceID == req.PieceID {
				candidates = append(candidates, sp)
			}
		}
	}
	if !req.IncludeNotDue {
		candidates = spaced_repetition.DueSpots(candidates, now)
	}

	var deadline *models.Deadline
	if req.PieceID != 0 {
		deadline, err = s.deadlineFor(ctx, req.PieceID)
	} else {
		deadline, err = s.nearestDeadline(ctx, now)
	}
	if err != nil {
		return Session{}, fmt.Errorf("build session: %w", err)
	}

	spots := spaced_repetition.BuildSession(candidates, req.BudgetMinutes, mode, deadline, req.MaxSpots, now)
	total := 0
	for _, sp := range spots {
		total += sp.EffectiveMinutes()
	}
	budget := req.BudgetMinutes
	if budget <= 0 && deadline != nil {
		budget = deadline.DailyMinutes
	}

	session := Session{
		ID:           uuid.New(),
		Mode:         mode,
		CreatedAt:    now,
		Deadline:     deadline,
		Budget:       budget,
		TotalMinutes: total,
		Spots:        spots,
	}
	s.log.Info("session built",
		"session_id", session.ID.String(),
		"mode", mode.String(),
		"candidates", len(candidates),
		"spots", len(spots),
		"minutes", total,
		"budget", budget,
	)
	return session, nil
}

// nearestDeadline returns the earliest upcoming concert across all pieces.
func (s *Service) nearestDeadline(ctx context.Context, now time.Time) (*models.Deadline, error) {
	pieces, err := s.pieces.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	var best *models.Deadline
	for _, p := range pieces {
		d := p.Deadline()
		if d == nil || !d.Date.After(now) {
			continue
		}
		if best == nil || d.Date.Before(best.Date) {
			best = d
		}
	}
	return best, nil
}
