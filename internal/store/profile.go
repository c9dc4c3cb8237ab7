package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// ErrProfileActive is returned when attempting to delete the active profile.
var ErrProfileActive = errors.New("profile is active")

// Profile represents a named tuning preset stored in the database.
type Profile struct {
	ID        string
	Name      string
	Tuning    json.RawMessage
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProfileRepository provides CRUD operations for tuning profiles.
type ProfileRepository struct {
	db *sql.DB
}

// Profiles returns the profile repository for this store.
func (s *Store) Profiles() *ProfileRepository {
	return &ProfileRepository{db: s.db}
}

// Create inserts a new profile into the database. New profiles are never
// active; use Activate to switch to one.
func (r *ProfileRepository) Create(p *Profile) error {
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	p.Active = false

	tuning := p.Tuning
	if tuning == nil {
		tuning = json.RawMessage("{}")
	}

	_, err := r.db.Exec(
		`INSERT INTO profiles (id, name, tuning, active, created_at, updated_at)
		 VALUES (?, ?, ?, 0, ?, ?)`,
		p.ID, p.Name, string(tuning), p.CreatedAt, p.UpdatedAt,
	)
	return err
}

// GetByID retrieves a profile by its ID.
func (r *ProfileRepository) GetByID(id string) (*Profile, error) {
	return r.get(`SELECT id, name, tuning, active, created_at, updated_at
		 FROM profiles WHERE id = ?`, id)
}

// GetByName retrieves a profile by its name.
func (r *ProfileRepository) GetByName(name string) (*Profile, error) {
	return r.get(`SELECT id, name, tuning, active, created_at, updated_at
		 FROM profiles WHERE name = ?`, name)
}

// GetActive retrieves the currently active profile.
func (r *ProfileRepository) GetActive() (*Profile, error) {
	return r.get(`SELECT id, name, tuning, active, created_at, updated_at
		 FROM profiles WHERE active = 1`)
}

func (r *ProfileRepository) get(query string, args ...any) (*Profile, error) {
	p := &Profile{}
	var tuning string
	var active int

	err := r.db.QueryRow(query, args...).
		Scan(&p.ID, &p.Name, &tuning, &active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	p.Tuning = json.RawMessage(tuning)
	p.Active = active != 0
	return p, nil
}

// List retrieves all profiles ordered by creation time.
func (r *ProfileRepository) List() ([]*Profile, error) {
	rows, err := r.db.Query(
		`SELECT id, name, tuning, active, created_at, updated_at
		 FROM profiles ORDER BY created_at`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []*Profile
	for rows.Next() {
		p := &Profile{}
		var tuning string
		var active int

		err := rows.Scan(&p.ID, &p.Name, &tuning, &active, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return nil, err
		}

		p.Tuning = json.RawMessage(tuning)
		p.Active = active != 0
		profiles = append(profiles, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return profiles, nil
}

// Update updates the name and tuning of an existing profile.
func (r *ProfileRepository) Update(p *Profile) error {
	p.UpdatedAt = time.Now()

	tuning := p.Tuning
	if tuning == nil {
		tuning = json.RawMessage("{}")
	}

	result, err := r.db.Exec(
		`UPDATE profiles SET name = ?, tuning = ?, updated_at = ? WHERE id = ?`,
		p.Name, string(tuning), p.UpdatedAt, p.ID,
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

// Activate makes the given profile the single active one. The switch is
// transactional: either the previous profile is deactivated and the new
// one activated, or nothing changes.
func (r *ProfileRepository) Activate(id string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE profiles SET active = 0 WHERE active = 1`); err != nil {
		return err
	}

	result, err := tx.Exec(
		`UPDATE profiles SET active = 1, updated_at = ? WHERE id = ?`,
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

	return tx.Commit()
}

// Delete removes a profile by its ID. The active profile cannot be deleted.
func (r *ProfileRepository) Delete(id string) error {
	p, err := r.GetByID(id)
	if err != nil {
		return err
	}
	if p.Active {
		return ErrProfileActive
	}

	result, err := r.db.Exec(`DELETE FROM profiles WHERE id = ?`, id)
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
