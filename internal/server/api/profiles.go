// Package api provides HTTP API handlers for tuning profiles, live tuning,
// and recorded sessions.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/ayusman/mudra/internal/control"
	"github.com/ayusman/mudra/internal/store"
)

// Retuner applies a tuning change to the running pipeline. Handlers that
// modify the active profile use it to make the change take effect without
// a restart.
type Retuner interface {
	ApplyTuning(t control.Tuning) error
}

// ProfileHandler handles HTTP requests for tuning profile resources.
type ProfileHandler struct {
	store   *store.Store
	retuner Retuner
}

// NewProfileHandler creates a new ProfileHandler. retuner may be nil when
// no pipeline is running (for example in the report tool).
func NewProfileHandler(s *store.Store, retuner Retuner) *ProfileHandler {
	return &ProfileHandler{store: s, retuner: retuner}
}

// ServeHTTP implements the http.Handler interface and routes requests to
// appropriate methods.
// Expected paths: /api/profiles, /api/profiles/{id}, /api/profiles/{id}/activate
func (h *ProfileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/profiles")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		// Collection endpoint: /api/profiles
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	parts := strings.Split(path, "/")
	if len(parts) == 2 && parts[1] == "activate" {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.activate(w, r, parts[0])
		return
	}
	if len(parts) != 1 {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}

	// Item endpoint: /api/profiles/{id}
	id := parts[0]
	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodPut:
		h.update(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Request and response types

type createProfileRequest struct {
	Name   string          `json:"name"`
	Tuning json.RawMessage `json:"tuning"`
}

type updateProfileRequest struct {
	Name   string          `json:"name"`
	Tuning json.RawMessage `json:"tuning"`
}

type profileResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Tuning    json.RawMessage `json:"tuning"`
	Active    bool            `json:"active"`
	CreatedAt string          `json:"created_at"`
	UpdatedAt string          `json:"updated_at"`
}

type listProfilesResponse struct {
	Profiles []profileResponse `json:"profiles"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// toResponse converts a store.Profile to a profileResponse.
func toResponse(p *store.Profile) profileResponse {
	return profileResponse{
		ID:        p.ID,
		Name:      p.Name,
		Tuning:    p.Tuning,
		Active:    p.Active,
		CreatedAt: p.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt: p.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// resolveTuning overlays raw tuning JSON onto a base tuning and validates
// the result. Fields absent from the JSON keep their base values.
func resolveTuning(base control.Tuning, raw json.RawMessage) (control.Tuning, error) {
	tuning := base
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &tuning); err != nil {
			return control.Tuning{}, err
		}
	}
	if err := tuning.Validate(); err != nil {
		return control.Tuning{}, err
	}
	return tuning, nil
}

// list handles GET /api/profiles and returns all profiles.
func (h *ProfileHandler) list(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.store.Profiles().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list profiles")
		return
	}

	response := listProfilesResponse{
		Profiles: make([]profileResponse, 0, len(profiles)),
	}

	for _, p := range profiles {
		response.Profiles = append(response.Profiles, toResponse(p))
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/profiles/{id} and returns a single profile.
func (h *ProfileHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	profile, err := h.store.Profiles().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Profile not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get profile")
		return
	}

	writeJSON(w, http.StatusOK, toResponse(profile))
}

// create handles POST /api/profiles and creates a new profile. Omitted
// tuning fields fall back to the stock defaults.
func (h *ProfileHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	}

	// Check for duplicate name
	if _, err := h.store.Profiles().GetByName(req.Name); err == nil {
		writeError(w, http.StatusConflict, "Profile name already in use")
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusInternalServerError, "Failed to check profile name")
		return
	}

	tuning, err := resolveTuning(control.DefaultTuning(), req.Tuning)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid tuning: "+err.Error())
		return
	}

	encoded, err := json.Marshal(tuning)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to encode tuning")
		return
	}

	profile := &store.Profile{
		ID:     uuid.New().String(),
		Name:   req.Name,
		Tuning: encoded,
	}

	if err := h.store.Profiles().Create(profile); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create profile")
		return
	}

	writeJSON(w, http.StatusCreated, toResponse(profile))
}

// update handles PUT /api/profiles/{id}. Updating the active profile also
// retunes the running pipeline.
func (h *ProfileHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	profile, err := h.store.Profiles().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Profile not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get profile")
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Name != "" {
		profile.Name = req.Name
	}

	var tuning control.Tuning
	if err := json.Unmarshal(profile.Tuning, &tuning); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to decode stored tuning")
		return
	}
	tuning, err = resolveTuning(tuning, req.Tuning)
	if err != nil {
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
		writeError(w, http.StatusInternalServerError, "Failed to update profile")
		return
	}

	if profile.Active && h.retuner != nil {
		if err := h.retuner.ApplyTuning(tuning); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to apply tuning")
			return
		}
	}

	writeJSON(w, http.StatusOK, toResponse(profile))
}

// activate handles POST /api/profiles/{id}/activate: it makes the profile
// the active one and retunes the running pipeline to it.
func (h *ProfileHandler) activate(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.Profiles().Activate(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Profile not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to activate profile")
		return
	}

	profile, err := h.store.Profiles().GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get profile")
		return
	}

	if h.retuner != nil {
		var tuning control.Tuning
		if err := json.Unmarshal(profile.Tuning, &tuning); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to decode stored tuning")
			return
		}
		if err := h.retuner.ApplyTuning(tuning); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to apply tuning")
			return
		}
	}

	writeJSON(w, http.StatusOK, toResponse(profile))
}

// delete handles DELETE /api/profiles/{id}. The active profile cannot be
// deleted.
func (h *ProfileHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	err := h.store.Profiles().Delete(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Profile not found")
			return
		}
		if errors.Is(err, store.ErrProfileActive) {
			writeError(w, http.StatusConflict, "Cannot delete the active profile")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete profile")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
