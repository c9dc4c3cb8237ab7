package store

import (
	"database/sql"
	"errors"
	"time"
)

// Session represents a recorded tracking session.
type Session struct {
	ID        string
	ProfileID string
	StartedAt time.Time
	EndedAt   *time.Time
	Frames    int
}

// FrameRow is one recorded frame of a session: the classification, the raw
// and filtered index fingertip, and the emitted deltas.
type FrameRow struct {
	Seq        int
	TsMs       int64
	Label      string
	Confidence float64
	Mode       string
	RawX       float64
	RawY       float64
	FilteredX  float64
	FilteredY  float64
	DPanX      float64
	DPanY      float64
	DTheta     float64
	DPhi       float64
	DRadius    float64
	Active     bool
	Reset      bool
}

// SessionRepository provides operations for recorded sessions and their frames.
type SessionRepository struct {
	db *sql.DB
}

// Sessions returns the session repository for this store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.db}
}

// Create inserts a new session. An empty ProfileID is stored as NULL.
func (r *SessionRepository) Create(sess *Session) error {
	sess.StartedAt = time.Now()

	profileID := sql.NullString{String: sess.ProfileID, Valid: sess.ProfileID != ""}

	_, err := r.db.Exec(
		`INSERT INTO sessions (id, profile_id, started_at, frames) VALUES (?, ?, ?, 0)`,
		sess.ID, profileID, sess.StartedAt,
	)
	return err
}

// End marks a session as finished.
func (r *SessionRepository) End(id string) error {
	result, err := r.db.Exec(
		`UPDATE sessions SET ended_at = ? WHERE id = ? AND ended_at IS NULL`,
		time.Now(), id,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// GetByID retrieves a session by its ID.
func (r *SessionRepository) GetByID(id string) (*Session, error) {
	sess := &Session{}
	var profileID sql.NullString
	var endedAt sql.NullTime

	err := r.db.QueryRow(
		`SELECT id, profile_id, started_at, ended_at, frames FROM sessions WHERE id = ?`,
		id,
	).Scan(&sess.ID, &profileID, &sess.StartedAt, &endedAt, &sess.Frames)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	sess.ProfileID = profileID.String
	if endedAt.Valid {
		sess.EndedAt = &endedAt.Time
	}
	return sess, nil
}

// List retrieves all sessions, most recent first.
func (r *SessionRepository) List() ([]*Session, error) {
	rows, err := r.db.Query(
		`SELECT id, profile_id, started_at, ended_at, frames
		 FROM sessions ORDER BY started_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		sess := &Session{}
		var profileID sql.NullString
		var endedAt sql.NullTime

		err := rows.Scan(&sess.ID, &profileID, &sess.StartedAt, &endedAt, &sess.Frames)
		if err != nil {
			return nil, err
		}

		sess.ProfileID = profileID.String
		if endedAt.Valid {
			sess.EndedAt = &endedAt.Time
		}
		sessions = append(sessions, sess)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}

// AppendFrames inserts a batch of frames for a session in a single
// transaction and bumps the session frame count.
func (r *SessionRepository) AppendFrames(sessionID string, frames []FrameRow) error {
	if len(frames) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO session_frames (
			session_id, seq, ts_ms, label, confidence, mode,
			raw_x, raw_y, filtered_x, filtered_y,
			d_pan_x, d_pan_y, d_theta, d_phi, d_radius,
			active, reset
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, f := range frames {
		_, err := stmt.Exec(
			sessionID, f.Seq, f.TsMs, f.Label, f.Confidence, f.Mode,
			f.RawX, f.RawY, f.FilteredX, f.FilteredY,
			f.DPanX, f.DPanY, f.DTheta, f.DPhi, f.DRadius,
			boolToInt(f.Active), boolToInt(f.Reset),
		)
		if err != nil {
			return err
		}
	}

	_, err = tx.Exec(
		`UPDATE sessions SET frames = frames + ? WHERE id = ?`,
		len(frames), sessionID,
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// Frames retrieves all recorded frames for a session in sequence order.
func (r *SessionRepository) Frames(sessionID string) ([]FrameRow, error) {
	rows, err := r.db.Query(
		`SELECT seq, ts_ms, label, confidence, mode,
			raw_x, raw_y, filtered_x, filtered_y,
			d_pan_x, d_pan_y, d_theta, d_phi, d_radius,
			active, reset
		 FROM session_frames WHERE session_id = ? ORDER BY seq`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var frames []FrameRow
	for rows.Next() {
		var f FrameRow
		var active, reset int

		err := rows.Scan(
			&f.Seq, &f.TsMs, &f.Label, &f.Confidence, &f.Mode,
			&f.RawX, &f.RawY, &f.FilteredX, &f.FilteredY,
			&f.DPanX, &f.DPanY, &f.DTheta, &f.DPhi, &f.DRadius,
			&active, &reset,
		)
		if err != nil {
			return nil, err
		}

		f.Active = active != 0
		f.Reset = reset != 0
		frames = append(frames, f)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return frames, nil
}

// Delete removes a session and, through the cascade, its frames.
func (r *SessionRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
