package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"crowddeck/internal/model"
	"crowddeck/internal/service"
	"crowddeck/internal/transport/rest/middleware"
)

// QuestionHandler handles question authoring and lifecycle endpoints.
type QuestionHandler struct {
	sessionSvc *service.SessionService
	answerSvc  *service.AnswerService
}

// NewQuestionHandler creates a new question handler.
func NewQuestionHandler(sessionSvc *service.SessionService, answerSvc *service.AnswerService) *QuestionHandler {
	return &QuestionHandler{sessionSvc: sessionSvc, answerSvc: answerSvc}
}

// Add handles POST /v1/sessions/{sessionId}/questions.
func (h *QuestionHandler) Add(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]
	if _, ok := ownedSession(w, r, h.sessionSvc, sessionID); !ok {
		return
	}

	var question model.Question
	if err := json.NewDecoder(r.Body).Decode(&question); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	created, err := h.sessionSvc.AddQuestion(r.Context(), sessionID, &question)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// Activate handles POST /v1/sessions/{sessionId}/questions/{questionId}/activate.
func (h *QuestionHandler) Activate(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if _, ok := ownedSession(w, r, h.sessionSvc, vars["sessionId"]); !ok {
		return
	}
	question, err := h.sessionSvc.ActivateQuestion(r.Context(), vars["sessionId"], vars["questionId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, question)
}

// Lock handles POST /v1/sessions/{sessionId}/questions/{questionId}/lock.
func (h *QuestionHandler) Lock(w http.ResponseWriter, r *http.Request) {
	h.flip(w, r, h.sessionSvc.LockQuestion, model.QuestionLocked)
}

// Unlock handles POST /v1/sessions/{sessionId}/questions/{questionId}/unlock.
func (h *QuestionHandler) Unlock(w http.ResponseWriter, r *http.Request) {
	h.flip(w, r, h.sessionSvc.UnlockQuestion, model.QuestionLive)
}

// Reveal handles POST /v1/sessions/{sessionId}/questions/{questionId}/reveal.
func (h *QuestionHandler) Reveal(w http.ResponseWriter, r *http.Request) {
	h.flip(w, r, h.sessionSvc.RevealResults, model.QuestionRevealed)
}

func (h *QuestionHandler) flip(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, sessionID, questionID string) error, state model.QuestionState) {
	vars := mux.Vars(r)
	if _, ok := ownedSession(w, r, h.sessionSvc, vars["sessionId"]); !ok {
		return
	}
	if err := op(r.Context(), vars["sessionId"], vars["questionId"]); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"state": string(state)})
}

// Current handles GET /v1/sessions/{sessionId}/questions/current for
// participants polling over REST instead of holding a socket.
func (h *QuestionHandler) Current(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]
	if middleware.GetSessionID(r.Context()) != sessionID {
		writeErrorMsg(w, http.StatusForbidden, "FORBIDDEN", "token not valid for this session")
		return
	}

	session, err := h.sessionSvc.GetSession(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	question, err := h.sessionSvc.CurrentQuestion(r.Context(), session)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"question": question})
}

// SubmitResponseRequest is the request body for the REST submission fallback.
type SubmitResponseRequest struct {
	QuestionID string                `json:"questionId"`
	Payload    model.ResponsePayload `json:"payload"`
}

// Submit handles POST /v1/sessions/{sessionId}/responses. The websocket path
// is the primary submission channel; this exists for clients that lost the
// socket but still hold a valid channel token.
func (h *QuestionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]
	if middleware.GetSessionID(r.Context()) != sessionID {
		writeErrorMsg(w, http.StatusForbidden, "FORBIDDEN", "token not valid for this session")
		return
	}

	var req SubmitResponseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	response, err := h.answerSvc.Submit(r.Context(), sessionID, middleware.GetParticipantID(r.Context()), req.QuestionID, req.Payload)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"responseId": response.ID,
		"questionId": req.QuestionID,
	})
}
