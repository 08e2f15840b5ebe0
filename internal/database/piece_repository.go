package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/practicebot/pkg/models"
)

// PieceRepository handles database operations for pieces
type PieceRepository struct {
	db *sqlx.DB
}

// NewPieceRepository creates a new repository instance
func NewPieceRepository(db *sqlx.DB) *PieceRepository {
	return &PieceRepository{db: db}
}

const pieceColumns = "id, title, composer, concert_date, daily_minutes, created_at, updated_at"

// GetAll returns all pieces ordered by title
func (r *PieceRepository) GetAll(ctx context.Context) ([]models.Piece, error) {
	var pieces []models.Piece
	if err := r.db.SelectContext(ctx, &pieces, "SELECT "+pieceColumns+" FROM pieces ORDER BY title"); err != nil {
		return nil, fmt.Errorf("failed to get pieces: %w", err)
	}
	return pieces, nil
}

// GetByID retrieves a piece by its ID
func (r *PieceRepository) GetByID(ctx context.Context, id int64) (models.Piece, error) {
	var piece models.Piece
	err := r.db.GetContext(ctx, &piece, r.db.Rebind("SELECT "+pieceColumns+" FROM pieces WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Piece{}, fmt.Errorf("piece %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.Piece{}, fmt.Errorf("failed to get piece %d: %w", id, err)
	}
	return piece, nil
}

// GetByTitle retrieves a piece by its title, ignoring case
func (r *PieceRepository) GetByTitle(ctx context.Context, title string) (models.Piece, error) {
	var piece models.Piece
	query := r.db.Rebind("SELECT " + pieceColumns + " FROM pieces WHERE LOWER(title) = ?")
	err := r.db.GetContext(ctx, &piece, query, strings.ToLower(strings.TrimSpace(title)))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Piece{}, fmt.Errorf("piece %q: %w", title, ErrNotFound)
	}
	if err != nil {
		return models.Piece{}, fmt.Errorf("failed to get piece %q: %w", title, err)
	}
	return piece, nil
}

// Create inserts a new piece and fills in its ID
func (r *PieceRepository) Create(ctx context.Context, piece *models.Piece) error {
	title := strings.TrimSpace(piece.Title)
	if title == "" {
		return fmt.Errorf("failed to create piece: title is empty")
	}
	now := time.Now().UTC()
	query := r.db.Rebind(`
		INSERT INTO pieces (title, composer, concert_date, daily_minutes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id
	`)
	err := r.db.QueryRowxContext(ctx, query, title, piece.Composer, utcPtr(piece.ConcertDate), piece.DailyMinutes, now, now).Scan(&piece.ID)
	if err != nil {
		return fmt.Errorf("failed to create piece %q: %w", title, err)
	}
	piece.Title = title
	piece.CreatedAt, piece.UpdatedAt = now, now
	return nil
}

// SetDeadline links a piece to a concert date, or clears it when date is nil
func (r *PieceRepository) SetDeadline(ctx context.Context, id int64, date *time.Time, dailyMinutes int) error {
	query := r.db.Rebind(`
		UPDATE pieces SET concert_date = ?, daily_minutes = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`)
	result, err := r.db.ExecContext(ctx, query, utcPtr(date), dailyMinutes, id)
	if err != nil {
		return fmt.Errorf("failed to set deadline for piece %d: %w", id, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("piece %d: %w", id, ErrNotFound)
	}
	return nil
}
