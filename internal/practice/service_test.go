package practice

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/example/practicebot/internal/database"
	"github.com/example/practicebot/internal/spaced_repetition"
	"github.com/example/practicebot/pkg/models"
)

var t0 = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

type memSpots struct {
	spots     map[int64]models.Spot
	history   map[int64][]models.HistoryEntry
	saves     int
	saveErr   error
	appendErr error
}

func newMemSpots(spots ...models.Spot) *memSpots {
	m := &memSpots{spots: map[int64]models.Spot{}, history: map[int64][]models.HistoryEntry{}}
	for _, sp := range spots {
		m.spots[sp.ID] = sp
	}
	return m
}

func (m *memSpots) LoadActiveSpots(ctx context.Context) ([]models.Spot, error) {
	var out []models.Spot
	for id := int64(1); id <= int64(len(m.spots))+10; id++ {
		if sp, ok := m.spots[id]; ok && sp.Active {
			out = append(out, sp)
		}
	}
	return out, nil
}

func (m *memSpots) GetByID(ctx context.Context, id int64) (models.Spot, error) {
	sp, ok := m.spots[id]
	if !ok {
		return models.Spot{}, fmt.Errorf("spot %d: %w", id, database.ErrNotFound)
	}
	sp.History = append([]models.HistoryEntry(nil), m.history[id]...)
	return sp, nil
}

// SavePractice commits both writes or neither, like the sql repository.
func (m *memSpots) SavePractice(ctx context.Context, spot models.Spot, entry models.HistoryEntry) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	if m.appendErr != nil {
		return m.appendErr
	}
	m.saves++
	m.spots[spot.ID] = spot
	m.history[spot.ID] = append(m.history[spot.ID], entry)
	return nil
}

type memPieces map[int64]models.Piece

func (m memPieces) GetByID(ctx context.Context, id int64) (models.Piece, error) {
	p, ok := m[id]
	if !ok {
		return models.Piece{}, fmt.Errorf("piece %d: %w", id, database.ErrNotFound)
	}
	return p, nil
}

func (m memPieces) GetAll(ctx context.Context) ([]models.Piece, error) {
	out := make([]models.Piece, 0, len(m))
	for _, p := range m {
		out = append(out, p)
	}
	return out, nil
}

func spot(id, pieceID int64, c models.Color, due *time.Time) models.Spot {
	sp := models.NewSpot(pieceID, 1, models.Rect{})
	sp.ID = id
	sp.Color = c
	sp.NextDue = due
	return sp
}

func at(t time.Time) *time.Time { return &t }

func newTestService(spots *memSpots, pieces memPieces) *Service {
	engine := spaced_repetition.MustScheduler(spaced_repetition.SchedulerConfig{})
	return NewService(spots, pieces, engine, ClockFunc(func() time.Time { return t0 }), nil)
}

func TestRecordPracticePersists(t *testing.T) {
	store := newMemSpots(spot(1, 1, models.Red, nil))
	svc := newTestService(store, memPieces{1: {ID: 1, Title: "Etude"}})

	got, err := svc.RecordPractice(context.Background(), 1, models.Good, 4)
	if err != nil {
		t.Fatalf("RecordPractice: %v", err)
	}
	if got.Interval != 1 || got.Repetitions != 1 || got.PracticeCount != 1 {
		t.Errorf("got interval=%d reps=%d count=%d, want 1/1/1", got.Interval, got.Repetitions, got.PracticeCount)
	}
	if got.NextDue == nil || !got.NextDue.Equal(t0.AddDate(0, 0, 1)) {
		t.Errorf("NextDue = %v, want %v", got.NextDue, t0.AddDate(0, 0, 1))
	}
	if store.saves != 1 {
		t.Errorf("saves = %d, want 1", store.saves)
	}
	h := store.history[1]
	if len(h) != 1 || h[0].Outcome != models.Good || h[0].Minutes != 4 || !h[0].At.Equal(t0) {
		t.Errorf("history = %+v", h)
	}
}

func TestRecordPracticeAccumulatesHistory(t *testing.T) {
	store := newMemSpots(spot(1, 1, models.Red, nil))
	svc := newTestService(store, memPieces{})
	ctx := context.Background()

	for _, o := range []models.Outcome{models.Good, models.Good, models.Failed} {
		if _, err := svc.RecordPractice(ctx, 1, o, 0); err != nil {
			t.Fatalf("RecordPractice(%v): %v", o, err)
		}
	}
	if n := len(store.history[1]); n != 3 {
		t.Fatalf("history length = %d, want 3", n)
	}
	got := store.spots[1]
	if got.Repetitions != 0 || got.Readiness != models.ReadinessLearning || got.Color != models.Red {
		t.Errorf("after failure: reps=%d readiness=%v color=%v", got.Repetitions, got.Readiness, got.Color)
	}
}

func TestRecordPracticeRejects(t *testing.T) {
	inactive := spot(2, 1, models.Red, nil)
	inactive.Active = false
	store := newMemSpots(spot(1, 1, models.Red, nil), inactive)
	svc := newTestService(store, memPieces{})
	ctx := context.Background()

	tests := []struct {
		name    string
		id      int64
		outcome models.Outcome
		want    error
	}{
		{"invalid outcome", 1, models.Outcome(9), models.ErrInvalidOutcome},
		{"missing spot", 42, models.Good, database.ErrNotFound},
		{"inactive spot", 2, models.Good, ErrInactiveSpot},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.RecordPractice(ctx, tt.id, tt.outcome, 0)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
	if store.saves != 0 {
		t.Errorf("saves = %d, want 0", store.saves)
	}
}

func TestRecordPracticeSaveError(t *testing.T) {
	store := newMemSpots(spot(1, 1, models.Red, nil))
	store.saveErr = errors.New("disk full")
	svc := newTestService(store, memPieces{})

	if _, err := svc.RecordPractice(context.Background(), 1, models.Good, 0); err == nil {
		t.Fatal("expected error")
	}
	if len(store.history[1]) != 0 {
		t.Error("history written despite failed save")
	}
}

func TestRecordPracticeHistoryErrorKeepsSpot(t *testing.T) {
	store := newMemSpots(spot(1, 1, models.Red, nil))
	store.appendErr = errors.New("history table locked")
	svc := newTestService(store, memPieces{})

	if _, err := svc.RecordPractice(context.Background(), 1, models.Good, 3); err == nil {
		t.Fatal("expected error")
	}
	got := store.spots[1]
	if store.saves != 0 || got.PracticeCount != 0 || got.NextDue != nil || len(store.history[1]) != 0 {
		t.Errorf("partial write: saves=%d count=%d due=%v history=%v", store.saves, got.PracticeCount, got.NextDue, store.history[1])
	}
}

func TestRecordPracticeUsesPieceDeadline(t *testing.T) {
	sp := spot(1, 1, models.Green, nil)
	sp.Repetitions = 2
	sp.Interval = 6
	sp.Readiness = models.ReadinessReview
	store := newMemSpots(sp)
	concert := t0.AddDate(0, 0, 5)
	svc := newTestService(store, memPieces{1: {ID: 1, Title: "Sonata", ConcertDate: &concert, DailyMinutes: 30}})

	got, err := svc.RecordPractice(context.Background(), 1, models.Good, 0)
	if err != nil {
		t.Fatalf("RecordPractice: %v", err)
	}
	// 6 * 2.5 = 15 days, halved with the concert five days out.
	if got.Interval != 8 {
		t.Errorf("Interval = %d, want 8", got.Interval)
	}
}

func TestDueSpots(t *testing.T) {
	store := newMemSpots(
		spot(1, 1, models.Red, nil),
		spot(2, 1, models.Yellow, at(t0.Add(time.Hour))),
		spot(3, 1, models.Green, at(t0.Add(-time.Hour))),
	)
	svc := newTestService(store, memPieces{})

	due, err := svc.DueSpots(context.Background())
	if err != nil {
		t.Fatalf("DueSpots: %v", err)
	}
	if len(due) != 2 || due[0].ID != 1 || due[1].ID != 3 {
		t.Errorf("due = %v, want ids [1 3]", ids(due))
	}
}

func TestUrgency(t *testing.T) {
	store := newMemSpots(spot(1, 1, models.Red, at(t0.AddDate(0, 0, -2))))
	svc := newTestService(store, memPieces{})

	got, err := svc.Urgency(context.Background(), 1)
	if err != nil {
		t.Fatalf("Urgency: %v", err)
	}
	want := spaced_repetition.Urgency(store.spots[1], nil, t0)
	if got != want {
		t.Errorf("Urgency = %v, want %v", got, want)
	}
	if _, err := svc.Urgency(context.Background(), 9); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("missing spot err = %v", err)
	}
}

func TestBuildSession(t *testing.T) {
	a := spot(1, 1, models.Red, nil)
	a.RecommendedMinutes = 5
	b := spot(2, 2, models.Red, nil)
	b.RecommendedMinutes = 5
	c := spot(3, 1, models.Red, at(t0.AddDate(0, 0, 3)))
	c.RecommendedMinutes = 5
	store := newMemSpots(a, b, c)
	svc := newTestService(store, memPieces{})
	ctx := context.Background()

	t.Run("due spots across pieces", func(t *testing.T) {
		s, err := svc.BuildSession(ctx, SessionRequest{Mode: spaced_repetition.ModeCritical, BudgetMinutes: 60})
		if err != nil {
			t.Fatalf("BuildSession: %v", err)
		}
		if len(s.Spots) != 2 || s.TotalMinutes != 10 {
			t.Errorf("spots = %v minutes = %d", ids(s.Spots), s.TotalMinutes)
		}
		if s.ID == uuid.Nil {
			t.Error("session has no id")
		}
		if !s.CreatedAt.Equal(t0) || s.Budget != 60 {
			t.Errorf("CreatedAt = %v Budget = %d", s.CreatedAt, s.Budget)
		}
	})

	t.Run("single piece including not due", func(t *testing.T) {
		s, err := svc.BuildSession(ctx, SessionRequest{PieceID: 1, Mode: spaced_repetition.ModeCritical, BudgetMinutes: 60, IncludeNotDue: true})
		if err != nil {
			t.Fatalf("BuildSession: %v", err)
		}
		got := ids(s.Spots)
		if len(got) != 2 || got[0] != 1 || got[1] != 3 {
			t.Errorf("spots = %v, want [1 3]", got)
		}
	})

	t.Run("invalid mode falls back to smart", func(t *testing.T) {
		s, err := svc.BuildSession(ctx, SessionRequest{BudgetMinutes: 5})
		if err != nil {
			t.Fatalf("BuildSession: %v", err)
		}
		if s.Mode != spaced_repetition.ModeSmart || len(s.Spots) != 1 {
			t.Errorf("mode = %v spots = %v", s.Mode, ids(s.Spots))
		}
	})
}

func TestBuildSessionDeadlineBudget(t *testing.T) {
	a := spot(1, 1, models.Red, nil)
	a.RecommendedMinutes = 10
	b := spot(2, 1, models.Red, nil)
	b.RecommendedMinutes = 10
	store := newMemSpots(a, b)
	past := t0.AddDate(0, 0, -1)
	later := t0.AddDate(0, 0, 30)
	soon := t0.AddDate(0, 0, 7)
	svc := newTestService(store, memPieces{
		1: {ID: 1, Title: "Past", ConcertDate: &past, DailyMinutes: 60},
		2: {ID: 2, Title: "Later", ConcertDate: &later, DailyMinutes: 45},
		3: {ID: 3, Title: "Soon", ConcertDate: &soon, DailyMinutes: 10},
	})

	s, err := svc.BuildSession(context.Background(), SessionRequest{Mode: spaced_repetition.ModeCritical})
	if err != nil {
		t.Fatalf("BuildSession: %v", err)
	}
	if s.Deadline == nil || !s.Deadline.Date.Equal(soon) {
		t.Fatalf("Deadline = %+v, want the concert in 7 days", s.Deadline)
	}
	if s.Budget != 10 || len(s.Spots) != 1 {
		t.Errorf("budget = %d spots = %v", s.Budget, ids(s.Spots))
	}
}

func TestSummary(t *testing.T) {
	store := newMemSpots(
		spot(1, 1, models.Red, nil),
		spot(2, 1, models.Green, at(t0.AddDate(0, 0, -3))),
		spot(3, 1, models.Green, at(t0.AddDate(0, 0, 2))),
	)
	svc := newTestService(store, memPieces{})

	sum, err := svc.Summary(context.Background())
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if sum.Total != 3 || sum.Due != 2 || sum.Overdue != 1 || sum.ByColor[models.Green] != 2 {
		t.Errorf("summary = %+v", sum)
	}
}

func ids(spots []models.Spot) []int64 {
	out := make([]int64, len(spots))
	for i, sp := range spots {
		out[i] = sp.ID
	}
	return out
}
