package store

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/mudra/internal/control"
)

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Profiles table - named tuning presets; exactly one is active
		`CREATE TABLE IF NOT EXISTS profiles (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			tuning TEXT NOT NULL,
			active INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Sessions table - one row per recorded tracking session
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			profile_id TEXT REFERENCES profiles(id) ON DELETE SET NULL,
			started_at DATETIME NOT NULL,
			ended_at DATETIME,
			frames INTEGER NOT NULL DEFAULT 0
		)`,

		// Session frames table - per-frame tracking data for recorded sessions
		`CREATE TABLE IF NOT EXISTS session_frames (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			ts_ms INTEGER NOT NULL,
			label TEXT NOT NULL,
			confidence REAL NOT NULL,
			mode TEXT NOT NULL,
			raw_x REAL NOT NULL,
			raw_y REAL NOT NULL,
			filtered_x REAL NOT NULL,
			filtered_y REAL NOT NULL,
			d_pan_x REAL NOT NULL,
			d_pan_y REAL NOT NULL,
			d_theta REAL NOT NULL,
			d_phi REAL NOT NULL,
			d_radius REAL NOT NULL,
			active INTEGER NOT NULL,
			reset INTEGER NOT NULL
		)`,

		// Settings table - stores application settings as key-value pairs
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		// Indexes for better query performance
		`CREATE INDEX IF NOT EXISTS idx_sessions_profile_id ON sessions(profile_id)`,
		`CREATE INDEX IF NOT EXISTS idx_session_frames_session_id ON session_frames(session_id)`,

		// At most one profile may be active
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_profiles_one_active ON profiles(active) WHERE active = 1`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}

// seedDefaultProfile inserts an active "default" profile with the stock
// tuning when the profiles table is empty, so a fresh database always has
// a usable active profile.
func (s *Store) seedDefaultProfile() error {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM profiles`).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	tuning, err := json.Marshal(control.DefaultTuning())
	if err != nil {
		return err
	}

	now := time.Now()
	_, err = s.db.Exec(
		`INSERT INTO profiles (id, name, tuning, active, created_at, updated_at)
		 VALUES (?, ?, ?, 1, ?, ?)`,
		uuid.NewString(), "default", string(tuning), now, now,
	)
	return err
}
