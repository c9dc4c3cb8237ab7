package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ayusman/mudra/internal/control"
	"github.com/ayusman/mudra/internal/store"
)

// TuningHandler handles HTTP requests for the live tuning of the active
// profile.
type TuningHandler struct {
	store   *store.Store
	retuner Retuner
}

// NewTuningHandler creates a new TuningHandler. retuner may be nil when no
// pipeline is running.
func NewTuningHandler(s *store.Store, retuner Retuner) *TuningHandler {
	return &TuningHandler{store: s, retuner: retuner}
}

// updateTuningRequest carries a partial tuning update. Only fields present
// in the request are changed; a non-nil bindings map replaces the bindings
// wholesale.
type updateTuningRequest struct {
	MinCutoffHz        *float64                `json:"minCutoffHz"`
	Beta               *float64                `json:"beta"`
	DerivativeCutoffHz *float64                `json:"derivativeCutoffHz"`
	ConfirmFrames      *int                    `json:"confirmFrames"`
	MinConfidence      *float64                `json:"minConfidence"`
	ResetConfidence    *float64                `json:"resetConfidence"`
	PanConfidence      *float64                `json:"panConfidence"`
	InactivityWindowMs *int                    `json:"inactivityWindowMs"`
	PanSensitivity     *float64                `json:"panSensitivity"`
	RotateHSensitivity *float64                `json:"rotateHSensitivity"`
	RotateVSensitivity *float64                `json:"rotateVSensitivity"`
	ZoomSpeed          *float64                `json:"zoomSpeed"`
	Bindings           map[string]control.Mode `json:"bindings"`
}

// apply copies the fields present in the request onto t.
func (req *updateTuningRequest) apply(t *control.Tuning) {
	if req.MinCutoffHz != nil {
		t.MinCutoffHz = *req.MinCutoffHz
	}
	if req.Beta != nil {
		t.Beta = *req.Beta
	}
	if req.DerivativeCutoffHz != nil {
		t.DerivativeCutoffHz = *req.DerivativeCutoffHz
	}
	if req.ConfirmFrames != nil {
		t.ConfirmFrames = *req.ConfirmFrames
	}
	if req.MinConfidence != nil {
		t.MinConfidence = *req.MinConfidence
	}
	if req.ResetConfidence != nil {
		t.ResetConfidence = *req.ResetConfidence
	}
	if req.PanConfidence != nil {
		t.PanConfidence = *req.PanConfidence
	}
	if req.InactivityWindowMs != nil {
		t.InactivityWindowMs = *req.InactivityWindowMs
	}
	if req.PanSensitivity != nil {
		t.PanSensitivity = *req.PanSensitivity
	}
	if req.RotateHSensitivity != nil {
		t.RotateHSensitivity = *req.RotateHSensitivity
	}
	if req.RotateVSensitivity != nil {
		t.RotateVSensitivity = *req.RotateVSensitivity
	}
	if req.ZoomSpeed != nil {
		t.ZoomSpeed = *req.ZoomSpeed
	}
	if req.Bindings != nil {
		t.Bindings = req.Bindings
	}
}

// ServeHTTP implements the http.Handler interface.
// Expected path: /api/tuning
func (h *TuningHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.get(w, r)
	case http.MethodPut:
		h.update(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// activeTuning loads and decodes the active profile's tuning.
func (h *TuningHandler) activeTuning() (*store.Profile, control.Tuning, error) {
	profile, err := h.store.Profiles().GetActive()
	if err != nil {
		return nil, control.Tuning{}, err
	}

	var tuning control.Tuning
	if err := json.Unmarshal(profile.Tuning, &tuning); err != nil {
		return nil, control.Tuning{}, err
	}
	return profile, tuning, nil
}

// get handles GET /api/tuning and returns the active profile's tuning.
func (h *TuningHandler) get(w http.ResponseWriter, r *http.Request) {
	_, tuning, err := h.activeTuning()
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "No active profile")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to load tuning")
		return
	}

	writeJSON(w, http.StatusOK, tuning)
}

// update handles PUT /api/tuning: it applies a partial update to the active
// profile's tuning, persists it, and retunes the running pipeline.
func (h *TuningHandler) update(w http.ResponseWriter, r *http.Request) {
	profile, tuning, err := h.activeTuning()
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "No active profile")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to load tuning")
		return
	}

	var req updateTuningRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	req.apply(&tuning)

	if err := tuning.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid tuning: "+err.Error())
		return
	}

	encoded, err := json.Marshal(tuning)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to encode tuning")
		return
	}
	profile.Tuning = encoded

	if err := h.store.Profiles().Update(profile); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save tuning")
		return
	}

	if h.retuner != nil {
		if err := h.retuner.ApplyTuning(tuning); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to apply tuning")
			return
		}
	}

	writeJSON(w, http.StatusOK, tuning)
}
