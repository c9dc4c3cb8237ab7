package app

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/control"
	"github.com/ayusman/mudra/internal/recognizer"
	"github.com/ayusman/mudra/internal/store"
)

// newTestStore creates a store backed by a temp database.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "mudra-app-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	s, err := store.New(filepath.Join(tmpDir, "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })

	return s
}

// fakePublisher records published packets.
type fakePublisher struct {
	mu      sync.Mutex
	packets []control.Packet
}

func (f *fakePublisher) Publish(p control.Packet) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.packets = append(f.packets, p)
	return true
}

func (f *fakePublisher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.packets)
}

func (f *fakePublisher) last() (control.Packet, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.packets) == 0 {
		return control.Packet{}, false
	}
	return f.packets[len(f.packets)-1], true
}

func (f *fakePublisher) hasInactive() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.packets {
		if !p.Active {
			return true
		}
	}
	return false
}

func TestNew(t *testing.T) {
	a := New(Config{
		Recognizer: recognizer.NewMockRecognizer(),
	})

	if !a.IsEnabled() {
		t.Error("expected a new app to be enabled")
	}
	if a.Mode() != string(control.ModeNone) {
		t.Errorf("Mode() = %q, want %q", a.Mode(), control.ModeNone)
	}
	if a.Camera() == nil {
		t.Error("expected a default camera")
	}

	stats := a.Stats()
	if stats.Frames != 0 {
		t.Errorf("Frames = %d, want 0", stats.Frames)
	}
	if !stats.Idle {
		t.Error("expected a new app to report idle")
	}
	if stats.FPS != capture.IdleFPS {
		t.Errorf("FPS = %d, want %d", stats.FPS, capture.IdleFPS)
	}
}

func TestNew_RestoresEnabledSetting(t *testing.T) {
	s := newTestStore(t)
	if err := s.Settings().Set("enabled", "false"); err != nil {
		t.Fatalf("failed to set setting: %v", err)
	}

	a := New(Config{
		Store:      s,
		Recognizer: recognizer.NewMockRecognizer(),
	})

	if a.IsEnabled() {
		t.Error("expected the persisted pause state to be restored")
	}
}

func TestApp_SetEnabled_Persists(t *testing.T) {
	s := newTestStore(t)
	a := New(Config{
		Store:      s,
		Recognizer: recognizer.NewMockRecognizer(),
	})

	a.SetEnabled(false)

	if a.IsEnabled() {
		t.Error("expected IsEnabled to report false")
	}

	v, err := s.Settings().Get("enabled")
	if err != nil {
		t.Fatalf("failed to get setting: %v", err)
	}
	if v != "false" {
		t.Errorf("persisted enabled = %q, want %q", v, "false")
	}

	a.SetEnabled(true)

	v, err = s.Settings().Get("enabled")
	if err != nil {
		t.Fatalf("failed to get setting: %v", err)
	}
	if v != "true" {
		t.Errorf("persisted enabled = %q, want %q", v, "true")
	}
}

func TestApp_ApplyTuning(t *testing.T) {
	a := New(Config{
		Recognizer: recognizer.NewMockRecognizer(),
	})

	tuning := control.DefaultTuning()
	tuning.PanSensitivity = 7.0
	if err := a.ApplyTuning(tuning); err != nil {
		t.Fatalf("ApplyTuning() error = %v", err)
	}

	got, ok := a.takePendingTuning()
	if !ok {
		t.Fatal("expected a pending tuning")
	}
	if got.PanSensitivity != 7.0 {
		t.Errorf("PanSensitivity = %f, want 7.0", got.PanSensitivity)
	}

	// The mailbox holds at most one tuning
	if _, ok := a.takePendingTuning(); ok {
		t.Error("expected the pending tuning to be cleared")
	}
}

func TestApp_ApplyTuning_Invalid(t *testing.T) {
	a := New(Config{
		Recognizer: recognizer.NewMockRecognizer(),
	})

	if err := a.ApplyTuning(control.Tuning{}); err == nil {
		t.Error("expected an error for invalid tuning")
	}

	if _, ok := a.takePendingTuning(); ok {
		t.Error("invalid tuning must not reach the pipeline")
	}
}

func TestApp_ApplyTuning_ReplacesPending(t *testing.T) {
	a := New(Config{
		Recognizer: recognizer.NewMockRecognizer(),
	})

	first := control.DefaultTuning()
	first.ZoomSpeed = 0.2
	second := control.DefaultTuning()
	second.ZoomSpeed = 0.5

	if err := a.ApplyTuning(first); err != nil {
		t.Fatalf("ApplyTuning() error = %v", err)
	}
	if err := a.ApplyTuning(second); err != nil {
		t.Fatalf("ApplyTuning() error = %v", err)
	}

	got, ok := a.takePendingTuning()
	if !ok {
		t.Fatal("expected a pending tuning")
	}
	if got.ZoomSpeed != 0.5 {
		t.Errorf("ZoomSpeed = %f, want the most recent value 0.5", got.ZoomSpeed)
	}
}

func TestApp_Stop_BeforeStart(t *testing.T) {
	a := New(Config{
		Recognizer: recognizer.NewMockRecognizer(),
	})

	// Must not panic or block
	a.Stop()
}
