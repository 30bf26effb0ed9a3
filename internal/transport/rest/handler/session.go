package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"crowddeck/internal/model"
	"crowddeck/internal/service"
	"crowddeck/internal/transport/rest/middleware"
)

// SessionHandler handles session lifecycle endpoints.
type SessionHandler struct {
	sessionSvc     *service.SessionService
	participantSvc *service.ParticipantService
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(sessionSvc *service.SessionService, participantSvc *service.ParticipantService) *SessionHandler {
	return &SessionHandler{sessionSvc: sessionSvc, participantSvc: participantSvc}
}

// ownedSession loads a session and enforces that the requesting presenter
// owns it. On failure the response is already written.
func ownedSession(w http.ResponseWriter, r *http.Request, svc *service.SessionService, sessionID string) (*model.Session, bool) {
	session, err := svc.GetSession(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	if session.OwnerRef != middleware.GetPresenterID(r.Context()) {
		writeErrorMsg(w, http.StatusForbidden, "FORBIDDEN", "not the session owner")
		return nil, false
	}
	return session, true
}

// CreateSessionRequest is the request body for creating a session.
type CreateSessionRequest struct {
	Title    string            `json:"title"`
	Mode     model.SessionMode `json:"mode"`
	TTLHours int               `json:"ttlHours,omitempty"`
}

// Create handles POST /v1/sessions.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if req.Title == "" {
		writeBadRequest(w, "title is required")
		return
	}
	if req.Mode == "" {
		req.Mode = model.ModeMixed
	}

	session, err := h.sessionSvc.CreateSession(r.Context(), req.Title, req.Mode, middleware.GetPresenterID(r.Context()), req.TTLHours)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

// Get handles GET /v1/sessions/{sessionId}.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]
	session, ok := ownedSession(w, r, h.sessionSvc, sessionID)
	if !ok {
		return
	}

	count, err := h.participantSvc.CountConnected(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	summary, err := h.sessionSvc.Summary(r.Context(), session, count)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// Lookup handles GET /v1/sessions/code/{code}: the pre-join screen fetch.
// Public, so it exposes only what a participant is about to see anyway.
func (h *SessionHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	session, err := h.sessionSvc.ResolveJoinCode(r.Context(), code)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sessionId": session.ID,
		"title":     session.Title,
		"mode":      session.Mode,
		"status":    session.Status,
	})
}

// Pause handles POST /v1/sessions/{sessionId}/pause.
func (h *SessionHandler) Pause(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]
	if _, ok := ownedSession(w, r, h.sessionSvc, sessionID); !ok {
		return
	}
	if err := h.sessionSvc.Pause(r.Context(), sessionID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(model.SessionPaused)})
}

// Resume handles POST /v1/sessions/{sessionId}/resume.
func (h *SessionHandler) Resume(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]
	if _, ok := ownedSession(w, r, h.sessionSvc, sessionID); !ok {
		return
	}
	if err := h.sessionSvc.Resume(r.Context(), sessionID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(model.SessionActive)})
}

// End handles POST /v1/sessions/{sessionId}/end.
func (h *SessionHandler) End(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]
	if _, ok := ownedSession(w, r, h.sessionSvc, sessionID); !ok {
		return
	}
	if err := h.sessionSvc.EndSession(r.Context(), sessionID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(model.SessionEnded)})
}

// Leaderboard handles GET /v1/sessions/{sessionId}/leaderboard.
func (h *SessionHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]
	if _, ok := ownedSession(w, r, h.sessionSvc, sessionID); !ok {
		return
	}

	top := 20
	if s := r.URL.Query().Get("top"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			top = n
		}
	}

	entries, err := h.participantSvc.Leaderboard(r.Context(), sessionID, top)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"leaderboard": entries})
}

// RemoveParticipant handles DELETE /v1/sessions/{sessionId}/participants/{participantId}.
func (h *SessionHandler) RemoveParticipant(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	sessionID := vars["sessionId"]
	if _, ok := ownedSession(w, r, h.sessionSvc, sessionID); !ok {
		return
	}
	if err := h.participantSvc.Remove(r.Context(), sessionID, vars["participantId"]); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

// JoinRequest is the request body for joining a session by code.
type JoinRequest struct {
	Code          string `json:"code"`
	Nickname      string `json:"nickname"`
	IdentityToken string `json:"identityToken,omitempty"`
}

// Join handles POST /v1/sessions/join. Anonymous: the identity token is the
// only credential, and a missing or malformed one mints a fresh identity.
func (h *SessionHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req JoinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if req.Code == "" {
		writeBadRequest(w, "code is required")
		return
	}

	resp, err := h.participantSvc.Join(r.Context(), req.Code, req.IdentityToken, req.Nickname)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
