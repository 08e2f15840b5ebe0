package database

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("database: not found")

// Options selects the backing database.
type Options struct {
	Type        string // "sqlite" (default) or "postgres"
	Path        string // sqlite file, ":memory:" for a throwaway database
	DatabaseURL string // postgres DSN
}

// Connect opens the database and makes sure the schema exists.
func Connect(opts Options) (*sqlx.DB, error) {
	var (
		db  *sqlx.DB
		err error
	)
	switch opts.Type {
	case "", "sqlite":
		db, err = connectSQLite(opts.Path)
	case "postgres":
		db, err = sqlx.Connect("postgres", opts.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported database type %q", opts.Type)
	}
	if err != nil {
		return nil, err
	}

	if err := initializeSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func connectSQLite(path string) (*sqlx.DB, error) {
	if path == "" {
		path = filepath.Join("data", "practice.db")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// SQLite doesn't support multiple writers
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return db, nil
}

// initializeSchema creates necessary tables if they don't exist
func initializeSchema(db *sqlx.DB) error {
	idColumn := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if db.DriverName() == "postgres" {
		idColumn = "BIGSERIAL PRIMARY KEY"
	}

	statements := []struct {
		name  string
		query string
	}{
		{"pieces", `
			CREATE TABLE IF NOT EXISTS pieces (
				id ` + idColumn + `,
				title TEXT NOT NULL UNIQUE,
				composer TEXT NOT NULL DEFAULT '',
				concert_date TIMESTAMP NULL,
				daily_minutes INTEGER NOT NULL DEFAULT 0,
				created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`},
		{"spots", `
			CREATE TABLE IF NOT EXISTS spots (
				id ` + idColumn + `,
				piece_id INTEGER NOT NULL REFERENCES pieces(id),
				page INTEGER NOT NULL DEFAULT 1,
				rect_x REAL NOT NULL DEFAULT 0,
				rect_y REAL NOT NULL DEFAULT 0,
				rect_w REAL NOT NULL DEFAULT 0,
				rect_h REAL NOT NULL DEFAULT 0,
				label TEXT NOT NULL DEFAULT '',
				ease_factor REAL NOT NULL DEFAULT 2.5,
				interval_days INTEGER NOT NULL DEFAULT 0,
				repetitions INTEGER NOT NULL DEFAULT 0,
				next_due TIMESTAMP NULL,
				last_practiced TIMESTAMP NULL,
				color TEXT NOT NULL DEFAULT 'red',
				priority TEXT NOT NULL DEFAULT 'medium',
				readiness TEXT NOT NULL DEFAULT 'new',
				practice_count INTEGER NOT NULL DEFAULT 0,
				success_count INTEGER NOT NULL DEFAULT 0,
				failure_count INTEGER NOT NULL DEFAULT 0,
				recommended_minutes INTEGER NOT NULL DEFAULT 0,
				active BOOLEAN NOT NULL DEFAULT TRUE,
				created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`},
		{"spot_history", `
			CREATE TABLE IF NOT EXISTS spot_history (
				id ` + idColumn + `,
				spot_id INTEGER NOT NULL REFERENCES spots(id),
				practiced_at TIMESTAMP NOT NULL,
				outcome TEXT NOT NULL,
				minutes INTEGER NOT NULL DEFAULT 0
			)`},
		{"spot_history index", `
			CREATE INDEX IF NOT EXISTS idx_spot_history_spot ON spot_history(spot_id, practiced_at)`},
	}

	for _, st := range statements {
		if _, err := db.Exec(st.query); err != nil {
			return fmt.Errorf("failed to create %s: %w", st.name, err)
		}
	}
	return nil
}
