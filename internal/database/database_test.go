package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/practicebot/pkg/models"
)

func testDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := Connect(Options{Type: "sqlite", Path: ":memory:"})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func seedPiece(t *testing.T, db *sqlx.DB, title string) models.Piece {
	t.Helper()
	p := models.Piece{Title: title, Composer: "Brahms"}
	if err := NewPieceRepository(db).Create(context.Background(), &p); err != nil {
		t.Fatalf("Create piece: %v", err)
	}
	return p
}

func TestConnectRejectsUnknownType(t *testing.T) {
	if _, err := Connect(Options{Type: "oracle"}); err == nil {
		t.Fatal("expected error for unknown database type")
	}
}

func TestSpotRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	piece := seedPiece(t, db, "Sonata")
	repo := NewSpotRepository(db)

	spot := models.NewSpot(piece.ID, 4, models.Rect{X: 0.2, Y: 0.3, Width: 0.4, Height: 0.1})
	spot.Label = "bar 32"
	spot.Priority = models.PriorityHigh
	spot.RecommendedMinutes = 6
	if err := repo.Create(ctx, &spot); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if spot.ID == 0 {
		t.Fatal("Create did not assign an ID")
	}

	due := time.Date(2025, 6, 20, 8, 0, 0, 0, time.UTC)
	spot.NextDue = &due
	spot.EaseFactor = 2.3
	spot.Interval = 6
	spot.Repetitions = 2
	spot.Color = models.Yellow
	spot.Readiness = models.ReadinessLearning
	spot.PracticeCount, spot.SuccessCount = 2, 2
	if err := repo.Save(ctx, spot); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := repo.GetByID(ctx, spot.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Color != models.Yellow || got.Priority != models.PriorityHigh || got.Readiness != models.ReadinessLearning {
		t.Fatalf("enums not restored: %+v", got)
	}
	if got.NextDue == nil || !got.NextDue.Equal(due) {
		t.Fatalf("NextDue = %v, want %v", got.NextDue, due)
	}
	if got.LastPracticed != nil {
		t.Fatalf("LastPracticed = %v, want nil", got.LastPracticed)
	}
	if got.Interval != 6 || got.Repetitions != 2 || got.EaseFactor != 2.3 || got.RecommendedMinutes != 6 {
		t.Fatalf("scheduling state not restored: %+v", got)
	}
	if got.Rect != spot.Rect || got.Label != "bar 32" || !got.Active {
		t.Fatalf("identity not restored: %+v", got)
	}
}

func TestSaveMissingSpot(t *testing.T) {
	repo := NewSpotRepository(testDB(t))
	err := repo.Save(context.Background(), models.Spot{ID: 404, Color: models.Red})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Save err = %v, want ErrNotFound", err)
	}
	if _, err := repo.GetByID(context.Background(), 404); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetByID err = %v, want ErrNotFound", err)
	}
}

func TestHistoryIsAppendOnlyAndOrdered(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	piece := seedPiece(t, db, "Etude")
	repo := NewSpotRepository(db)
	spot := models.NewSpot(piece.ID, 1, models.Rect{})
	if err := repo.Create(ctx, &spot); err != nil {
		t.Fatalf("Create: %v", err)
	}

	base := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	entries := []models.HistoryEntry{
		{At: base.Add(2 * time.Hour), Outcome: models.Good, Minutes: 3},
		{At: base, Outcome: models.Failed, Minutes: 5},
	}
	for _, e := range entries {
		if err := repo.AppendHistory(ctx, spot.ID, e); err != nil {
			t.Fatalf("AppendHistory: %v", err)
		}
	}
	if err := repo.AppendHistory(ctx, spot.ID, models.HistoryEntry{At: base}); err == nil {
		t.Fatal("AppendHistory accepted an invalid outcome")
	}

	got, err := repo.History(ctx, spot.ID)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Outcome != models.Failed || !got[0].At.Equal(base) || got[1].Minutes != 3 {
		t.Fatalf("history = %+v", got)
	}
}

func TestLoadActiveSpotsSkipsDeactivated(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	piece := seedPiece(t, db, "Suite")
	other := seedPiece(t, db, "Partita")
	repo := NewSpotRepository(db)

	var created []models.Spot
	for i, pid := range []int64{piece.ID, piece.ID, other.ID} {
		sp := models.NewSpot(pid, i+1, models.Rect{})
		if err := repo.Create(ctx, &sp); err != nil {
			t.Fatalf("Create: %v", err)
		}
		created = append(created, sp)
	}
	if err := repo.Deactivate(ctx, created[1].ID); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}

	active, err := repo.LoadActiveSpots(ctx)
	if err != nil {
		t.Fatalf("LoadActiveSpots: %v", err)
	}
	if len(active) != 2 || active[0].ID != created[0].ID || active[1].ID != created[2].ID {
		t.Fatalf("active = %+v", active)
	}

	byPiece, err := repo.GetByPiece(ctx, piece.ID)
	if err != nil {
		t.Fatalf("GetByPiece: %v", err)
	}
	if len(byPiece) != 1 {
		t.Fatalf("GetByPiece len = %d, want 1", len(byPiece))
	}
}

func TestPieceDeadline(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	repo := NewPieceRepository(db)
	piece := seedPiece(t, db, "Concerto")

	if _, err := repo.GetByTitle(ctx, "  concerto "); err != nil {
		t.Fatalf("GetByTitle: %v", err)
	}

	concert := time.Date(2025, 9, 1, 19, 30, 0, 0, time.UTC)
	if err := repo.SetDeadline(ctx, piece.ID, &concert, 45); err != nil {
		t.Fatalf("SetDeadline: %v", err)
	}
	got, err := repo.GetByID(ctx, piece.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	d := got.Deadline()
	if d == nil || !d.Date.Equal(concert) || d.DailyMinutes != 45 {
		t.Fatalf("Deadline = %+v", d)
	}

	if err := repo.SetDeadline(ctx, piece.ID, nil, 0); err != nil {
		t.Fatalf("SetDeadline(nil): %v", err)
	}
	got, _ = repo.GetByID(ctx, piece.ID)
	if got.Deadline() != nil {
		t.Fatalf("deadline not cleared: %+v", got)
	}

	if err := repo.SetDeadline(ctx, 999, nil, 0); !errors.Is(err, ErrNotFound) {
		t.Fatalf("SetDeadline missing piece err = %v", err)
	}
	if err := repo.Create(ctx, &models.Piece{Title: "  "}); err == nil {
		t.Fatal("Create accepted an empty title")
	}
}

func TestSavePracticeIsAtomic(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	piece := seedPiece(t, db, "Partita")
	repo := NewSpotRepository(db)
	spot := models.NewSpot(piece.ID, 2, models.Rect{})
	if err := repo.Create(ctx, &spot); err != nil {
		t.Fatalf("Create: %v", err)
	}

	at := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	practiced := spot
	practiced.Repetitions, practiced.PracticeCount, practiced.SuccessCount = 1, 1, 1
	practiced.Color = models.Yellow
	if err := repo.SavePractice(ctx, practiced, models.HistoryEntry{At: at, Outcome: models.Good, Minutes: 4}); err != nil {
		t.Fatalf("SavePractice: %v", err)
	}

	// The history insert fails after the spot update; neither may stick.
	broken := practiced
	broken.Repetitions, broken.PracticeCount, broken.SuccessCount = 2, 2, 2
	if err := repo.SavePractice(ctx, broken, models.HistoryEntry{At: at.Add(time.Hour)}); err == nil {
		t.Fatal("SavePractice accepted an invalid outcome")
	}

	got, err := repo.GetByID(ctx, spot.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Repetitions != 1 || got.PracticeCount != 1 || got.Color != models.Yellow {
		t.Errorf("spot = reps %d count %d color %v, want the first attempt only", got.Repetitions, got.PracticeCount, got.Color)
	}
	if len(got.History) != 1 || got.History[0].Outcome != models.Good {
		t.Errorf("history = %+v, want one good entry", got.History)
	}

	if err := repo.SavePractice(ctx, models.Spot{ID: 404}, models.HistoryEntry{At: at, Outcome: models.Good}); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing spot err = %v, want ErrNotFound", err)
	}
}
