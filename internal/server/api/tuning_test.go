package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ayusman/mudra/internal/control"
)

func TestTuningHandler_Get(t *testing.T) {
	s := newTestStore(t)
	handler := NewTuningHandler(s, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/tuning", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	var tuning control.Tuning
	if err := json.NewDecoder(rec.Body).Decode(&tuning); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	// A fresh store serves the stock defaults
	want := control.DefaultTuning()
	if tuning.MinCutoffHz != want.MinCutoffHz {
		t.Errorf("MinCutoffHz = %f, want %f", tuning.MinCutoffHz, want.MinCutoffHz)
	}
	if tuning.ConfirmFrames != want.ConfirmFrames {
		t.Errorf("ConfirmFrames = %d, want %d", tuning.ConfirmFrames, want.ConfirmFrames)
	}
	if len(tuning.Bindings) != len(want.Bindings) {
		t.Errorf("bindings count = %d, want %d", len(tuning.Bindings), len(want.Bindings))
	}
}

func TestTuningHandler_Update_Partial(t *testing.T) {
	s := newTestStore(t)
	retuner := &fakeRetuner{}
	handler := NewTuningHandler(s, retuner)

	body := []byte(`{"beta": 0.12, "confirmFrames": 3}`)
	req := httptest.NewRequest(http.MethodPut, "/api/tuning", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	var tuning control.Tuning
	if err := json.NewDecoder(rec.Body).Decode(&tuning); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	// Only the named fields change
	if tuning.Beta != 0.12 {
		t.Errorf("Beta = %f, want 0.12", tuning.Beta)
	}
	if tuning.ConfirmFrames != 3 {
		t.Errorf("ConfirmFrames = %d, want 3", tuning.ConfirmFrames)
	}
	if tuning.MinCutoffHz != control.DefaultTuning().MinCutoffHz {
		t.Errorf("MinCutoffHz = %f, want unchanged default", tuning.MinCutoffHz)
	}

	// The running pipeline received the same tuning
	applied, ok := retuner.last()
	if !ok {
		t.Fatal("expected tuning to be applied to the pipeline")
	}
	if applied.Beta != 0.12 {
		t.Errorf("applied Beta = %f, want 0.12", applied.Beta)
	}

	// And the change was persisted to the active profile
	active, err := s.Profiles().GetActive()
	if err != nil {
		t.Fatalf("failed to get active profile: %v", err)
	}
	var stored control.Tuning
	if err := json.Unmarshal(active.Tuning, &stored); err != nil {
		t.Fatalf("failed to decode stored tuning: %v", err)
	}
	if stored.Beta != 0.12 {
		t.Errorf("stored Beta = %f, want 0.12", stored.Beta)
	}
}

func TestTuningHandler_Update_Bindings(t *testing.T) {
	s := newTestStore(t)
	handler := NewTuningHandler(s, nil)

	// Rebind zoom to the victory gesture and drop everything else
	body := []byte(`{"bindings": {"Victory": "ZOOM_IN"}}`)
	req := httptest.NewRequest(http.MethodPut, "/api/tuning", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	var tuning control.Tuning
	if err := json.NewDecoder(rec.Body).Decode(&tuning); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	// A non-nil bindings map replaces the bindings wholesale
	if len(tuning.Bindings) != 1 {
		t.Fatalf("bindings count = %d, want 1", len(tuning.Bindings))
	}
	if tuning.Bindings["Victory"] != control.ModeZoomIn {
		t.Errorf("Victory binding = %q, want %q", tuning.Bindings["Victory"], control.ModeZoomIn)
	}
}

func TestTuningHandler_Update_InvalidTuning(t *testing.T) {
	s := newTestStore(t)
	retuner := &fakeRetuner{}
	handler := NewTuningHandler(s, retuner)

	body := []byte(`{"confirmFrames": 0}`)
	req := httptest.NewRequest(http.MethodPut, "/api/tuning", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}

	// An invalid update must not reach the pipeline
	if _, ok := retuner.last(); ok {
		t.Error("invalid tuning must not be applied")
	}

	// Nor be persisted
	active, err := s.Profiles().GetActive()
	if err != nil {
		t.Fatalf("failed to get active profile: %v", err)
	}
	var stored control.Tuning
	if err := json.Unmarshal(active.Tuning, &stored); err != nil {
		t.Fatalf("failed to decode stored tuning: %v", err)
	}
	if stored.ConfirmFrames != control.DefaultTuning().ConfirmFrames {
		t.Errorf("stored ConfirmFrames = %d, want unchanged default", stored.ConfirmFrames)
	}
}

func TestTuningHandler_Update_InvalidJSON(t *testing.T) {
	s := newTestStore(t)
	handler := NewTuningHandler(s, nil)

	req := httptest.NewRequest(http.MethodPut, "/api/tuning", bytes.NewReader([]byte("invalid json")))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestTuningHandler_MethodNotAllowed(t *testing.T) {
	s := newTestStore(t)
	handler := NewTuningHandler(s, nil)

	for _, method := range []string{http.MethodPost, http.MethodDelete, http.MethodPatch} {
		req := httptest.NewRequest(method, "/api/tuning", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("method %s: expected status %d, got %d", method, http.StatusMethodNotAllowed, rec.Code)
		}
	}
}
