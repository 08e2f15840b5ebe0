package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/practicebot/pkg/models"
)

// SpotRepository handles database operations for practice spots
type SpotRepository struct {
	db *sqlx.DB
}

// NewSpotRepository creates a new repository instance
func NewSpotRepository(db *sqlx.DB) *SpotRepository {
	return &SpotRepository{db: db}
}

// spotRow is the stored form of models.Spot; enums are kept as names.
type spotRow struct {
	ID                 int64      `db:"id"`
	PieceID            int64      `db:"piece_id"`
	Page               int        `db:"page"`
	RectX              float64    `db:"rect_x"`
	RectY              float64    `db:"rect_y"`
	RectW              float64    `db:"rect_w"`
	RectH              float64    `db:"rect_h"`
	Label              string     `db:"label"`
	EaseFactor         float64    `db:"ease_factor"`
	IntervalDays       int        `db:"interval_days"`
	Repetitions        int        `db:"repetitions"`
	NextDue            *time.Time `db:"next_due"`
	LastPracticed      *time.Time `db:"last_practiced"`
	Color              string     `db:"color"`
	Priority           string     `db:"priority"`
	Readiness          string     `db:"readiness"`
	PracticeCount      int        `db:"practice_count"`
	SuccessCount       int        `db:"success_count"`
	FailureCount       int        `db:"failure_count"`
	RecommendedMinutes int        `db:"recommended_minutes"`
	Active             bool       `db:"active"`
	CreatedAt          time.Time  `db:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at"`
}

type historyRow struct {
	ID          int64     `db:"id"`
	SpotID      int64     `db:"spot_id"`
	PracticedAt time.Time `db:"practiced_at"`
	Outcome     string    `db:"outcome"`
	Minutes     int       `db:"minutes"`
}

const spotColumns = `id, piece_id, page, rect_x, rect_y, rect_w, rect_h, label,
	ease_factor, interval_days, repetitions, next_due, last_practiced,
	color, priority, readiness, practice_count, success_count, failure_count,
	recommended_minutes, active, created_at, updated_at`

func toRow(s models.Spot) spotRow {
	return spotRow{
		ID:                 s.ID,
		PieceID:            s.PieceID,
		Page:               s.Page,
		RectX:              s.Rect.X,
		RectY:              s.Rect.Y,
		RectW:              s.Rect.Width,
		RectH:              s.Rect.Height,
		Label:              s.Label,
		EaseFactor:         s.EaseFactor,
		IntervalDays:       s.Interval,
		Repetitions:        s.Repetitions,
		NextDue:            utcPtr(s.NextDue),
		LastPracticed:      utcPtr(s.LastPracticed),
		Color:              nameOr(s.Color.IsValid(), s.Color.String(), models.Red.String()),
		Priority:           nameOr(s.Priority.IsValid(), s.Priority.String(), models.PriorityMedium.String()),
		Readiness:          nameOr(s.Readiness.IsValid(), s.Readiness.String(), models.ReadinessNew.String()),
		PracticeCount:      s.PracticeCount,
		SuccessCount:       s.SuccessCount,
		FailureCount:       s.FailureCount,
		RecommendedMinutes: s.RecommendedMinutes,
		Active:             s.Active,
	}
}

// toSpot converts a stored row. Unknown enum names fall back to the
// values a new spot starts with, the scheduler normalizes the rest.
func (r spotRow) toSpot() models.Spot {
	color, err := models.ParseColor(r.Color)
	if err != nil {
		color = models.Red
	}
	priority, err := models.ParsePriority(r.Priority)
	if err != nil {
		priority = models.PriorityMedium
	}
	readiness, err := models.ParseReadiness(r.Readiness)
	if err != nil {
		readiness = models.ReadinessNew
	}
	return models.Spot{
		ID:                 r.ID,
		PieceID:            r.PieceID,
		Page:               r.Page,
		Rect:               models.Rect{X: r.RectX, Y: r.RectY, Width: r.RectW, Height: r.RectH},
		Label:              r.Label,
		EaseFactor:         r.EaseFactor,
		Interval:           r.IntervalDays,
		Repetitions:        r.Repetitions,
		NextDue:            r.NextDue,
		LastPracticed:      r.LastPracticed,
		Color:              color,
		Priority:           priority,
		Readiness:          readiness,
		PracticeCount:      r.PracticeCount,
		SuccessCount:       r.SuccessCount,
		FailureCount:       r.FailureCount,
		RecommendedMinutes: r.RecommendedMinutes,
		Active:             r.Active,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}

func nameOr(valid bool, name, def string) string {
	if valid {
		return name
	}
	return def
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}

// Create inserts a new spot and fills in its ID
func (r *SpotRepository) Create(ctx context.Context, spot *models.Spot) error {
	row := toRow(*spot)
	now := time.Now().UTC()
	query := r.db.Rebind(`
		INSERT INTO spots (
			piece_id, page, rect_x, rect_y, rect_w, rect_h, label,
			ease_factor, interval_days, repetitions, next_due, last_practiced,
			color, priority, readiness, practice_count, success_count, failure_count,
			recommended_minutes, active, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`)
	err := r.db.QueryRowxContext(ctx, query,
		row.PieceID, row.Page, row.RectX, row.RectY, row.RectW, row.RectH, row.Label,
		row.EaseFactor, row.IntervalDays, row.Repetitions, row.NextDue, row.LastPracticed,
		row.Color, row.Priority, row.Readiness, row.PracticeCount, row.SuccessCount, row.FailureCount,
		row.RecommendedMinutes, row.Active, now, now,
	).Scan(&spot.ID)
	if err != nil {
		return fmt.Errorf("failed to create spot: %w", err)
	}
	spot.CreatedAt, spot.UpdatedAt = now, now
	return nil
}

// Save writes the scheduling state of an existing spot. History is not
// touched; use SavePractice to store an attempt with its result.
func (r *SpotRepository) Save(ctx context.Context, spot models.Spot) error {
	return saveSpot(ctx, r.db, spot)
}

// SavePractice stores the spot state after an attempt together with the
// attempt's history entry. Either both are written or neither is.
func (r *SpotRepository) SavePractice(ctx context.Context, spot models.Spot, entry models.HistoryEntry) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := saveSpot(ctx, tx, spot); err != nil {
		return err
	}
	if err := appendHistory(ctx, tx, spot.ID, entry); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit practice for spot %d: %w", spot.ID, err)
	}
	return nil
}

func saveSpot(ctx context.Context, db sqlx.ExtContext, spot models.Spot) error {
	row := toRow(spot)
	query := db.Rebind(`
		UPDATE spots SET
			page = ?, rect_x = ?, rect_y = ?, rect_w = ?, rect_h = ?, label = ?,
			ease_factor = ?, interval_days = ?, repetitions = ?, next_due = ?, last_practiced = ?,
			color = ?, priority = ?, readiness = ?,
			practice_count = ?, success_count = ?, failure_count = ?,
			recommended_minutes = ?, active = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`)
	result, err := db.ExecContext(ctx, query,
		row.Page, row.RectX, row.RectY, row.RectW, row.RectH, row.Label,
		row.EaseFactor, row.IntervalDays, row.Repetitions, row.NextDue, row.LastPracticed,
		row.Color, row.Priority, row.Readiness,
		row.PracticeCount, row.SuccessCount, row.FailureCount,
		row.RecommendedMinutes, row.Active,
		row.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update spot %d: %w", spot.ID, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("spot %d: %w", spot.ID, ErrNotFound)
	}
	return nil
}

// GetByID returns a spot with its full history
func (r *SpotRepository) GetByID(ctx context.Context, id int64) (models.Spot, error) {
	var row spotRow
	err := r.db.GetContext(ctx, &row, r.db.Rebind(`SELECT `+spotColumns+` FROM spots WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Spot{}, fmt.Errorf("spot %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.Spot{}, fmt.Errorf("failed to get spot %d: %w", id, err)
	}
	spot := row.toSpot()
	spot.History, err = r.History(ctx, id)
	if err != nil {
		return models.Spot{}, err
	}
	return spot, nil
}

// LoadActiveSpots returns every active spot without history, ordered by ID
func (r *SpotRepository) LoadActiveSpots(ctx context.Context) ([]models.Spot, error) {
	return r.selectSpots(ctx, `SELECT `+spotColumns+` FROM spots WHERE active = ? ORDER BY id ASC`, true)
}

// GetByPiece returns the active spots of one piece
func (r *SpotRepository) GetByPiece(ctx context.Context, pieceID int64) ([]models.Spot, error) {
	return r.selectSpots(ctx, `SELECT `+spotColumns+` FROM spots WHERE piece_id = ? AND active = ? ORDER BY id ASC`, pieceID, true)
}

func (r *SpotRepository) selectSpots(ctx context.Context, query string, args ...interface{}) ([]models.Spot, error) {
	var rows []spotRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to load spots: %w", err)
	}
	spots := make([]models.Spot, len(rows))
	for i, row := range rows {
		spots[i] = row.toSpot()
	}
	return spots, nil
}

// AppendHistory stores one practice attempt. Entries are never updated.
func (r *SpotRepository) AppendHistory(ctx context.Context, spotID int64, entry models.HistoryEntry) error {
	return appendHistory(ctx, r.db, spotID, entry)
}

func appendHistory(ctx context.Context, db sqlx.ExtContext, spotID int64, entry models.HistoryEntry) error {
	outcome, err := entry.Outcome.MarshalText()
	if err != nil {
		return fmt.Errorf("failed to append history for spot %d: %w", spotID, err)
	}
	query := db.Rebind(`INSERT INTO spot_history (spot_id, practiced_at, outcome, minutes) VALUES (?, ?, ?, ?)`)
	if _, err := db.ExecContext(ctx, query, spotID, entry.At.UTC(), string(outcome), entry.Minutes); err != nil {
		return fmt.Errorf("failed to append history for spot %d: %w", spotID, err)
	}
	return nil
}

// History returns a spot's attempts in chronological order
func (r *SpotRepository) History(ctx context.Context, spotID int64) ([]models.HistoryEntry, error) {
	var rows []historyRow
	query := r.db.Rebind(`
		SELECT id, spot_id, practiced_at, outcome, minutes
		FROM spot_history
		WHERE spot_id = ?
		ORDER BY practiced_at ASC, id ASC
	`)
	if err := r.db.SelectContext(ctx, &rows, query, spotID); err != nil {
		return nil, fmt.Errorf("failed to get history for spot %d: %w", spotID, err)
	}
	entries := make([]models.HistoryEntry, 0, len(rows))
	for _, row := range rows {
		outcome, err := models.ParseOutcome(row.Outcome)
		if err != nil {
			return nil, fmt.Errorf("spot %d history %d: %w", spotID, row.ID, err)
		}
		entries = append(entries, models.HistoryEntry{At: row.PracticedAt, Outcome: outcome, Minutes: row.Minutes})
	}
	return entries, nil
}

// Deactivate hides a spot from scheduling without deleting it
func (r *SpotRepository) Deactivate(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE spots SET active = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`), false, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate spot %d: %w", id, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("spot %d: %w", id, ErrNotFound)
	}
	return nil
}
