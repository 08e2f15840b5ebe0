package models

import "time"

// Piece is a musical work that owns spots. A piece linked to a concert
// carries the deadline that drives interval pressure.
type Piece struct {
	ID           int64      `json:"id" db:"id"`
	Title        string     `json:"title" db:"title"`
	Composer     string     `json:"composer" db:"composer"`
	ConcertDate  *time.Time `json:"concert_date" db:"concert_date"`
	DailyMinutes int        `json:"daily_minutes" db:"daily_minutes"` // available practice time, 0 if unknown
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// Deadline is the optional project context passed to the scheduler.
// The scheduler only reads it.
type Deadline struct {
	Date         time.Time `json:"date"`
	DailyMinutes int       `json:"daily_minutes"`
}

// Deadline returns the piece's concert deadline, or nil when none is set.
func (p Piece) Deadline() *Deadline {
	if p.ConcertDate == nil {
		return nil
	}
	return &Deadline{Date: *p.ConcertDate, DailyMinutes: p.DailyMinutes}
}
