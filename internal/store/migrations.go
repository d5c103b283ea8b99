package store

import (
	"github.com/obitec/bodyway/internal/render"
)

// runMigrations executes all database migrations and seeds the built-in styles.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Styles table - selectable overlay variants
		`CREATE TABLE IF NOT EXISTS styles (
			variant INTEGER PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			color TEXT NOT NULL,
			width REAL NOT NULL DEFAULT 3 CHECK(width >= 0),
			visible INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Settings table - stores application settings as key-value pairs
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		// Snapshots table - recorded landmarks and the segments computed from them
		`CREATE TABLE IF NOT EXISTS snapshots (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			variant INTEGER NOT NULL DEFAULT 0,
			landmarks TEXT NOT NULL,
			segments TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_snapshots_created_at ON snapshots(created_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return s.seedStyles()
}

// seedStyles inserts the built-in variants without touching edited rows.
func (s *Store) seedStyles() error {
	for _, v := range render.DefaultVariants {
		_, err := s.db.Exec(
			`INSERT OR IGNORE INTO styles (variant, name, color, width, visible) VALUES (?, ?, ?, ?, ?)`,
			v.ID, v.Name, v.Color, v.Width, v.Visible,
		)
		if err != nil {
			return err
		}
	}
	return nil
}
