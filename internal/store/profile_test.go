package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ayusman/mudra/internal/control"
)

// newTestStore creates a new Store backed by a temp database for testing.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "mudra-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() {
		os.RemoveAll(tmpDir)
	})

	dbPath := filepath.Join(tmpDir, "test.db")
	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})

	return s
}

func TestStore_SeedsDefaultProfile(t *testing.T) {
	s := newTestStore(t)
	repo := s.Profiles()

	p, err := repo.GetActive()
	if err != nil {
		t.Fatalf("fresh store should have an active profile: %v", err)
	}

	if p.Name != "default" {
		t.Errorf("seeded profile name = %q, want %q", p.Name, "default")
	}
	if !p.Active {
		t.Error("seeded profile should be active")
	}

	// The seeded tuning must be usable as-is
	var tuning control.Tuning
	if err := json.Unmarshal(p.Tuning, &tuning); err != nil {
		t.Fatalf("seeded tuning should be valid JSON: %v", err)
	}
	if err := tuning.Validate(); err != nil {
		t.Errorf("seeded tuning should validate: %v", err)
	}
}

func TestProfileRepository_Create(t *testing.T) {
	s := newTestStore(t)
	repo := s.Profiles()

	tuning, _ := json.Marshal(control.DefaultTuning())
	profile := &Profile{
		ID:     "profile-1",
		Name:   "presentation",
		Tuning: tuning,
	}

	if err := repo.Create(profile); err != nil {
		t.Fatalf("failed to create profile: %v", err)
	}

	if profile.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set after create")
	}
	if profile.UpdatedAt.IsZero() {
		t.Error("UpdatedAt should be set after create")
	}
	if profile.Active {
		t.Error("new profiles must not be created active")
	}

	retrieved, err := repo.GetByID("profile-1")
	if err != nil {
		t.Fatalf("failed to get profile by ID: %v", err)
	}

	if retrieved.Name != profile.Name {
		t.Errorf("Name mismatch: got %q, want %q", retrieved.Name, profile.Name)
	}
	if string(retrieved.Tuning) != string(tuning) {
		t.Errorf("Tuning mismatch: got %s, want %s", retrieved.Tuning, tuning)
	}
	if retrieved.Active {
		t.Error("created profile should not be active")
	}

	byName, err := repo.GetByName("presentation")
	if err != nil {
		t.Fatalf("failed to get profile by name: %v", err)
	}
	if byName.ID != profile.ID {
		t.Errorf("GetByName returned wrong profile: got ID %q, want %q", byName.ID, profile.ID)
	}
}

func TestProfileRepository_Create_DuplicateName(t *testing.T) {
	s := newTestStore(t)
	repo := s.Profiles()

	p1 := &Profile{ID: "profile-1", Name: "presentation"}
	p2 := &Profile{ID: "profile-2", Name: "presentation"}

	if err := repo.Create(p1); err != nil {
		t.Fatalf("failed to create first profile: %v", err)
	}

	if err := repo.Create(p2); err == nil {
		t.Error("creating profile with duplicate name should fail")
	}
}

func TestProfileRepository_List(t *testing.T) {
	s := newTestStore(t)
	repo := s.Profiles()

	names := []string{"presentation", "cad", "kiosk"}
	for i, name := range names {
		p := &Profile{ID: name, Name: name}
		if err := repo.Create(p); err != nil {
			t.Fatalf("failed to create profile %d: %v", i, err)
		}
	}

	list, err := repo.List()
	if err != nil {
		t.Fatalf("failed to list profiles: %v", err)
	}

	// Seeded default plus the three created ones
	if len(list) != len(names)+1 {
		t.Fatalf("expected %d profiles, got %d", len(names)+1, len(list))
	}

	nameMap := make(map[string]bool)
	for _, p := range list {
		nameMap[p.Name] = true
	}
	for _, name := range append(names, "default") {
		if !nameMap[name] {
			t.Errorf("profile %q not found in list", name)
		}
	}
}

func TestProfileRepository_Activate(t *testing.T) {
	s := newTestStore(t)
	repo := s.Profiles()

	if err := repo.Create(&Profile{ID: "profile-1", Name: "presentation"}); err != nil {
		t.Fatalf("failed to create profile: %v", err)
	}

	if err := repo.Activate("profile-1"); err != nil {
		t.Fatalf("failed to activate profile: %v", err)
	}

	active, err := repo.GetActive()
	if err != nil {
		t.Fatalf("failed to get active profile: %v", err)
	}
	if active.ID != "profile-1" {
		t.Errorf("active profile = %q, want %q", active.ID, "profile-1")
	}

	// Exactly one profile may be active
	list, err := repo.List()
	if err != nil {
		t.Fatalf("failed to list profiles: %v", err)
	}
	activeCount := 0
	for _, p := range list {
		if p.Active {
			activeCount++
		}
	}
	if activeCount != 1 {
		t.Errorf("expected exactly 1 active profile, got %d", activeCount)
	}
}

func TestProfileRepository_Activate_NotFound(t *testing.T) {
	s := newTestStore(t)
	repo := s.Profiles()

	err := repo.Activate("non-existent-id")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got: %v", err)
	}

	// The seeded default must still be active after the failed switch
	active, err := repo.GetActive()
	if err != nil {
		t.Fatalf("failed to get active profile: %v", err)
	}
	if active.Name != "default" {
		t.Errorf("active profile = %q, want %q after failed activation", active.Name, "default")
	}
}

func TestProfileRepository_Update(t *testing.T) {
	s := newTestStore(t)
	repo := s.Profiles()

	profile := &Profile{ID: "profile-1", Name: "presentation"}
	if err := repo.Create(profile); err != nil {
		t.Fatalf("failed to create profile: %v", err)
	}

	originalUpdatedAt := profile.UpdatedAt

	// Wait a bit to ensure UpdatedAt changes
	time.Sleep(10 * time.Millisecond)

	retuned := control.DefaultTuning()
	retuned.PanSensitivity = 5.0
	tuning, _ := json.Marshal(retuned)

	profile.Name = "presentation-v2"
	profile.Tuning = tuning

	if err := repo.Update(profile); err != nil {
		t.Fatalf("failed to update profile: %v", err)
	}

	retrieved, err := repo.GetByID("profile-1")
	if err != nil {
		t.Fatalf("failed to get profile after update: %v", err)
	}

	if retrieved.Name != "presentation-v2" {
		t.Errorf("Name not updated: got %q, want %q", retrieved.Name, "presentation-v2")
	}
	var got control.Tuning
	if err := json.Unmarshal(retrieved.Tuning, &got); err != nil {
		t.Fatalf("failed to unmarshal stored tuning: %v", err)
	}
	if got.PanSensitivity != 5.0 {
		t.Errorf("PanSensitivity not updated: got %f, want 5.0", got.PanSensitivity)
	}
	if !retrieved.UpdatedAt.After(originalUpdatedAt) {
		t.Error("UpdatedAt should be updated after Update")
	}
}

func TestProfileRepository_Update_NotFound(t *testing.T) {
	s := newTestStore(t)
	repo := s.Profiles()

	err := repo.Update(&Profile{ID: "non-existent-id", Name: "test"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got: %v", err)
	}
}

func TestProfileRepository_Delete(t *testing.T) {
	s := newTestStore(t)
	repo := s.Profiles()

	if err := repo.Create(&Profile{ID: "profile-1", Name: "presentation"}); err != nil {
		t.Fatalf("failed to create profile: %v", err)
	}

	if err := repo.Delete("profile-1"); err != nil {
		t.Fatalf("failed to delete profile: %v", err)
	}

	_, err := repo.GetByID("profile-1")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got: %v", err)
	}
}

func TestProfileRepository_Delete_Active(t *testing.T) {
	s := newTestStore(t)
	repo := s.Profiles()

	active, err := repo.GetActive()
	if err != nil {
		t.Fatalf("failed to get active profile: %v", err)
	}

	err = repo.Delete(active.ID)
	if !errors.Is(err, ErrProfileActive) {
		t.Errorf("expected ErrProfileActive, got: %v", err)
	}

	// Still there
	if _, err := repo.GetByID(active.ID); err != nil {
		t.Errorf("active profile should survive failed delete: %v", err)
	}
}

func TestProfileRepository_Delete_NotFound(t *testing.T) {
	s := newTestStore(t)
	repo := s.Profiles()

	err := repo.Delete("non-existent-id")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for non-existent profile, got: %v", err)
	}
}

func TestProfileRepository_GetByID_NotFound(t *testing.T) {
	s := newTestStore(t)
	repo := s.Profiles()

	_, err := repo.GetByID("non-existent-id")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got: %v", err)
	}
}

func TestProfileRepository_GetByName_NotFound(t *testing.T) {
	s := newTestStore(t)
	repo := s.Profiles()

	_, err := repo.GetByName("non-existent-name")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got: %v", err)
	}
}
