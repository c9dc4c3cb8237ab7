package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ayusman/mudra/internal/store"
)

// SessionsHandler handles HTTP requests for recorded session resources.
type SessionsHandler struct {
	store *store.Store
}

// NewSessionsHandler creates a new SessionsHandler with the given store.
func NewSessionsHandler(s *store.Store) *SessionsHandler {
	return &SessionsHandler{store: s}
}

// ServeHTTP implements the http.Handler interface.
// Expected paths: /api/sessions, /api/sessions/{id}, /api/sessions/{id}/frames
func (h *SessionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/sessions")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		// Collection endpoint: /api/sessions
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.list(w, r)
		return
	}

	parts := strings.Split(path, "/")
	if len(parts) == 2 && parts[1] == "frames" {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.frames(w, r, parts[0])
		return
	}
	if len(parts) != 1 {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}

	// Item endpoint: /api/sessions/{id}
	id := parts[0]
	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Response types

type sessionResponse struct {
	ID        string `json:"id"`
	ProfileID string `json:"profile_id,omitempty"`
	StartedAt string `json:"started_at"`
	EndedAt   string `json:"ended_at,omitempty"`
	Frames    int    `json:"frames"`
}

type listSessionsResponse struct {
	Sessions []sessionResponse `json:"sessions"`
}

type frameResponse struct {
	Seq        int     `json:"seq"`
	TsMs       int64   `json:"ts_ms"`
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Mode       string  `json:"mode"`
	RawX       float64 `json:"raw_x"`
	RawY       float64 `json:"raw_y"`
	FilteredX  float64 `json:"filtered_x"`
	FilteredY  float64 `json:"filtered_y"`
	DPanX      float64 `json:"d_pan_x"`
	DPanY      float64 `json:"d_pan_y"`
	DTheta     float64 `json:"d_theta"`
	DPhi       float64 `json:"d_phi"`
	DRadius    float64 `json:"d_radius"`
	Active     bool    `json:"active"`
	Reset      bool    `json:"reset"`
}

type listFramesResponse struct {
	SessionID string          `json:"session_id"`
	Frames    []frameResponse `json:"frames"`
}

// toSessionResponse converts a store.Session to a sessionResponse.
func toSessionResponse(s *store.Session) sessionResponse {
	resp := sessionResponse{
		ID:        s.ID,
		ProfileID: s.ProfileID,
		StartedAt: s.StartedAt.Format("2006-01-02T15:04:05Z07:00"),
		Frames:    s.Frames,
	}
	if s.EndedAt != nil {
		resp.EndedAt = s.EndedAt.Format("2006-01-02T15:04:05Z07:00")
	}
	return resp
}

// list handles GET /api/sessions and returns all sessions, most recent first.
func (h *SessionsHandler) list(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.store.Sessions().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list sessions")
		return
	}

	response := listSessionsResponse{
		Sessions: make([]sessionResponse, 0, len(sessions)),
	}

	for _, s := range sessions {
		response.Sessions = append(response.Sessions, toSessionResponse(s))
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/sessions/{id} and returns a single session.
func (h *SessionsHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	session, err := h.store.Sessions().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get session")
		return
	}

	writeJSON(w, http.StatusOK, toSessionResponse(session))
}

// frames handles GET /api/sessions/{id}/frames and returns the recorded
// frames in sequence order.
func (h *SessionsHandler) frames(w http.ResponseWriter, r *http.Request, id string) {
	// Verify session exists so a missing session is a 404, not an empty list
	if _, err := h.store.Sessions().GetByID(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get session")
		return
	}

	frames, err := h.store.Sessions().Frames(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list frames")
		return
	}

	response := listFramesResponse{
		SessionID: id,
		Frames:    make([]frameResponse, 0, len(frames)),
	}

	for _, f := range frames {
		response.Frames = append(response.Frames, frameResponse{
			Seq:        f.Seq,
			TsMs:       f.TsMs,
			Label:      f.Label,
			Confidence: f.Confidence,
			Mode:       f.Mode,
			RawX:       f.RawX,
			RawY:       f.RawY,
			FilteredX:  f.FilteredX,
			FilteredY:  f.FilteredY,
			DPanX:      f.DPanX,
			DPanY:      f.DPanY,
			DTheta:     f.DTheta,
			DPhi:       f.DPhi,
			DRadius:    f.DRadius,
			Active:     f.Active,
			Reset:      f.Reset,
		})
	}

	writeJSON(w, http.StatusOK, response)
}

// delete handles DELETE /api/sessions/{id} and removes a session with its
// recorded frames.
func (h *SessionsHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	err := h.store.Sessions().Delete(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete session")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
