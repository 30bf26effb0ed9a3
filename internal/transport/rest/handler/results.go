package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"crowddeck/internal/model"
	"crowddeck/internal/service"
	"crowddeck/internal/transport/rest/middleware"
)

// ResultsHandler handles aggregation, export and moderation endpoints.
type ResultsHandler struct {
	sessionSvc *service.SessionService
	resultsSvc *service.ResultsService
	engageSvc  *service.EngageService
}

// NewResultsHandler creates a new results handler.
func NewResultsHandler(sessionSvc *service.SessionService, resultsSvc *service.ResultsService, engageSvc *service.EngageService) *ResultsHandler {
	return &ResultsHandler{sessionSvc: sessionSvc, resultsSvc: resultsSvc, engageSvc: engageSvc}
}

// Results handles GET /v1/sessions/{sessionId}/questions/{questionId}/results
// for the presenter: full view, including unmoderated text.
func (h *ResultsHandler) Results(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if _, ok := ownedSession(w, r, h.sessionSvc, vars["sessionId"]); !ok {
		return
	}
	results, err := h.resultsSvc.ForQuestion(r.Context(), vars["questionId"], false)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// PublicResults handles GET /v1/sessions/{sessionId}/questions/{questionId}/results
// on the participant router: visible only once revealed, except for the
// live-visible types.
func (h *ResultsHandler) PublicResults(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if middleware.GetSessionID(r.Context()) != vars["sessionId"] {
		writeErrorMsg(w, http.StatusForbidden, "FORBIDDEN", "token not valid for this session")
		return
	}
	results, err := h.resultsSvc.ForQuestion(r.Context(), vars["questionId"], true)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// Engagement handles GET /v1/sessions/{sessionId}/engagement.
func (h *ResultsHandler) Engagement(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]
	if _, ok := ownedSession(w, r, h.sessionSvc, sessionID); !ok {
		return
	}
	scores, err := h.resultsSvc.Engagement(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"engagement": scores})
}

// Export handles GET /v1/sessions/{sessionId}/export: the full post-session
// snapshot with per-question aggregates and engagement scores.
func (h *ResultsHandler) Export(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]
	if _, ok := ownedSession(w, r, h.sessionSvc, sessionID); !ok {
		return
	}
	export, err := h.resultsSvc.Export(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, export)
}

// ModerateRequest is the request body for moderating a text response.
type ModerateRequest struct {
	State model.ModerationState `json:"state"`
}

// ModerateText handles POST /v1/sessions/{sessionId}/texts/{textId}/moderate.
func (h *ResultsHandler) ModerateText(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if _, ok := ownedSession(w, r, h.sessionSvc, vars["sessionId"]); !ok {
		return
	}

	var req ModerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	if err := h.engageSvc.ModerateText(r.Context(), vars["sessionId"], vars["textId"], req.State); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"state": string(req.State)})
}
