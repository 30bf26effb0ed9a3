package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"crowddeck/internal/apperr"
	"crowddeck/internal/model"
	"crowddeck/internal/service"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// Ranking payloads and multi-word submissions need more room than a
	// bare answer frame.
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // origin enforcement happens at the proxy
	},
}

// Inbound message types. Presenter controls and the vote toggle are explicit
// actions and get a rate_limited error frame when throttled; the submission
// types are ingestion and are dropped silently instead, since the client
// retries anyway and the duplicate guard makes replays harmless.
const (
	msgSubmitResponse = "submit_response"
	msgSubmitWords    = "submit_words"
	msgSubmitText     = "submit_text"
	msgSubmitIdea     = "submit_idea"
	msgVoteIdea       = "vote_idea"

	msgActivateQuestion  = "activate_question"
	msgLockQuestion      = "lock_question"
	msgUnlockQuestion    = "unlock_question"
	msgRevealResults     = "reveal_results"
	msgPauseSession      = "pause_session"
	msgResumeSession     = "resume_session"
	msgEndSession        = "end_session"
	msgRemoveParticipant = "remove_participant"
	msgModerateText      = "moderate_text"
)

// Handler owns the websocket endpoints and the per-connection read/write
// pumps.
type Handler struct {
	hub            *Hub
	throttle       *Throttle
	authSvc        *service.AuthService
	sessionSvc     *service.SessionService
	participantSvc *service.ParticipantService
	answerSvc      *service.AnswerService
	engageSvc      *service.EngageService
}

// NewHandler creates a new websocket handler.
func NewHandler(
	hub *Hub,
	throttle *Throttle,
	authSvc *service.AuthService,
	sessionSvc *service.SessionService,
	participantSvc *service.ParticipantService,
	answerSvc *service.AnswerService,
	engageSvc *service.EngageService,
) *Handler {
	return &Handler{
		hub:            hub,
		throttle:       throttle,
		authSvc:        authSvc,
		sessionSvc:     sessionSvc,
		participantSvc: participantSvc,
		answerSvc:      answerSvc,
		engageSvc:      engageSvc,
	}
}

// PresenterWS handles GET /v1/ws/sessions/{sessionId}/presenter.
func (h *Handler) PresenterWS(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	claims, err := h.authSvc.ValidatePresenterToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	session, err := h.sessionSvc.GetSession(r.Context(), sessionID)
	if err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	if session.OwnerRef != claims.PresenterID {
		http.Error(w, "not the session owner", http.StatusForbidden)
		return
	}

	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}

	conn := &Connection{
		ID:          uuid.New().String(),
		SessionID:   sessionID,
		IsPresenter: true,
		Send:        make(chan []byte, 256),
	}
	h.hub.Register(conn)
	h.sendState(conn, session)

	go h.writePump(wsConn, conn)
	go h.readPump(wsConn, conn)
}

// ParticipantWS handles GET /v1/ws/sessions/{sessionId}/channel.
func (h *Handler) ParticipantWS(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	claims, err := h.authSvc.ValidateChannelToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}
	if claims.SessionID != sessionID {
		http.Error(w, "token not valid for this session", http.StatusForbidden)
		return
	}

	session, err := h.sessionSvc.GetSession(r.Context(), sessionID)
	if err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	if session.Status == model.SessionEnded {
		http.Error(w, "session has ended", http.StatusGone)
		return
	}

	connID := uuid.New().String()
	if _, err := h.participantSvc.Connect(r.Context(), sessionID, claims.ParticipantID, connID); err != nil {
		status := apperr.StatusOf(err)
		http.Error(w, apperr.CodeOf(err), status)
		return
	}

	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}

	conn := &Connection{
		ID:            connID,
		SessionID:     sessionID,
		ParticipantID: claims.ParticipantID,
		Send:          make(chan []byte, 256),
	}
	h.hub.Register(conn)
	h.sendState(conn, session)

	go h.writePump(wsConn, conn)
	go h.readPump(wsConn, conn)
}

// sendState delivers the session_joined ack straight onto the send channel:
// current status, active question and participant count, so a reconnecting
// client can render without waiting for the next broadcast.
func (h *Handler) sendState(conn *Connection, session *model.Session) {
	ctx := context.Background()
	question, err := h.sessionSvc.CurrentQuestion(ctx, session)
	if err != nil {
		log.Printf("failed to load current question for ack: %v", err)
	}
	count, err := h.participantSvc.CountConnected(ctx, session.ID)
	if err != nil {
		count = 0
	}
	payload, _ := json.Marshal(map[string]interface{}{
		"sessionId":        session.ID,
		"status":           session.Status,
		"currentQuestion":  question,
		"participantCount": count,
	})
	data, _ := json.Marshal(&Message{Type: "session_joined", Payload: payload})
	conn.trySend(data)
}

func (h *Handler) readPump(wsConn *websocket.Conn, conn *Connection) {
	defer func() {
		h.hub.Unregister(conn)
		h.throttle.Forget(conn.ID)
		if conn.ParticipantID != "" {
			h.participantSvc.Detach(context.Background(), conn.ID)
		}
		wsConn.Close()
	}()

	wsConn.SetReadLimit(maxMessageSize)
	wsConn.SetReadDeadline(time.Now().Add(pongWait))
	wsConn.SetPongHandler(func(string) error {
		wsConn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := wsConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("websocket error: %v", err)
			}
			break
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			h.sendError(conn, apperr.ErrValidation)
			continue
		}
		h.dispatch(conn, &msg)
	}
}

// dispatch routes one inbound message. Service calls run on a fresh context:
// the request context died when the upgrade handler returned.
func (h *Handler) dispatch(conn *Connection, msg *Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if conn.IsPresenter {
		h.dispatchPresenter(ctx, conn, msg)
		return
	}
	h.dispatchParticipant(ctx, conn, msg)
}

func (h *Handler) dispatchParticipant(ctx context.Context, conn *Connection, msg *Message) {
	switch msg.Type {
	case msgSubmitResponse:
		if !h.throttle.Allow(conn.ID, msg.Type) {
			return // ingestion: silent drop
		}
		var req struct {
			QuestionID string                `json:"questionId"`
			Payload    model.ResponsePayload `json:"payload"`
		}
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			h.sendError(conn, apperr.ErrValidation)
			return
		}
		response, err := h.answerSvc.Submit(ctx, conn.SessionID, conn.ParticipantID, req.QuestionID, req.Payload)
		if err != nil {
			h.sendError(conn, err)
			return
		}
		h.sendAck(conn, "response_accepted", map[string]interface{}{
			"questionId": req.QuestionID,
			"responseId": response.ID,
		})

	case msgSubmitWords:
		if !h.throttle.Allow(conn.ID, msg.Type) {
			return
		}
		var req struct {
			QuestionID string   `json:"questionId"`
			Words      []string `json:"words"`
		}
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			h.sendError(conn, apperr.ErrValidation)
			return
		}
		accepted, err := h.engageSvc.SubmitWords(ctx, conn.SessionID, conn.ParticipantID, req.QuestionID, req.Words)
		if err != nil {
			h.sendError(conn, err)
			return
		}
		h.sendAck(conn, "words_accepted", map[string]interface{}{
			"questionId": req.QuestionID,
			"accepted":   accepted,
		})

	case msgSubmitText:
		if !h.throttle.Allow(conn.ID, msg.Type) {
			return
		}
		var req struct {
			QuestionID string `json:"questionId"`
			Text       string `json:"text"`
		}
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			h.sendError(conn, apperr.ErrValidation)
			return
		}
		text, err := h.engageSvc.SubmitText(ctx, conn.SessionID, conn.ParticipantID, req.QuestionID, req.Text)
		if err != nil {
			h.sendError(conn, err)
			return
		}
		h.sendAck(conn, "text_accepted", map[string]interface{}{"id": text.ID})

	case msgSubmitIdea:
		if !h.throttle.Allow(conn.ID, msg.Type) {
			return
		}
		var req struct {
			QuestionID string `json:"questionId"`
			Text       string `json:"text"`
		}
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			h.sendError(conn, apperr.ErrValidation)
			return
		}
		idea, err := h.engageSvc.SubmitIdea(ctx, conn.SessionID, conn.ParticipantID, req.QuestionID, req.Text)
		if err != nil {
			h.sendError(conn, err)
			return
		}
		h.sendAck(conn, "idea_accepted", map[string]interface{}{"id": idea.ID})

	case msgVoteIdea:
		if !h.throttle.Allow(conn.ID, msg.Type) {
			h.sendError(conn, apperr.ErrRateLimited)
			return
		}
		var req struct {
			IdeaID string `json:"ideaId"`
		}
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			h.sendError(conn, apperr.ErrValidation)
			return
		}
		voted, votes, err := h.engageSvc.ToggleVote(ctx, conn.SessionID, conn.ParticipantID, req.IdeaID)
		if err != nil {
			h.sendError(conn, err)
			return
		}
		h.sendAck(conn, "vote_result", map[string]interface{}{
			"ideaId": req.IdeaID,
			"voted":  voted,
			"votes":  votes,
		})

	default:
		h.sendError(conn, apperr.ErrValidation)
	}
}

func (h *Handler) dispatchPresenter(ctx context.Context, conn *Connection, msg *Message) {
	if !h.throttle.Allow(conn.ID, msg.Type) {
		h.sendError(conn, apperr.ErrRateLimited)
		return
	}

	var req struct {
		QuestionID    string `json:"questionId"`
		ParticipantID string `json:"participantId"`
		TextID        string `json:"textId"`
		State         string `json:"state"`
	}
	if len(msg.Payload) > 0 {
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			h.sendError(conn, apperr.ErrValidation)
			return
		}
	}

	var err error
	switch msg.Type {
	case msgActivateQuestion:
		_, err = h.sessionSvc.ActivateQuestion(ctx, conn.SessionID, req.QuestionID)
	case msgLockQuestion:
		err = h.sessionSvc.LockQuestion(ctx, conn.SessionID, req.QuestionID)
	case msgUnlockQuestion:
		err = h.sessionSvc.UnlockQuestion(ctx, conn.SessionID, req.QuestionID)
	case msgRevealResults:
		err = h.sessionSvc.RevealResults(ctx, conn.SessionID, req.QuestionID)
	case msgPauseSession:
		err = h.sessionSvc.Pause(ctx, conn.SessionID)
	case msgResumeSession:
		err = h.sessionSvc.Resume(ctx, conn.SessionID)
	case msgEndSession:
		err = h.sessionSvc.EndSession(ctx, conn.SessionID)
	case msgRemoveParticipant:
		err = h.participantSvc.Remove(ctx, conn.SessionID, req.ParticipantID)
	case msgModerateText:
		err = h.engageSvc.ModerateText(ctx, conn.SessionID, req.TextID, model.ModerationState(req.State))
	default:
		err = apperr.ErrValidation
	}
	if err != nil {
		h.sendError(conn, err)
		return
	}
	h.sendAck(conn, "ok", map[string]string{"action": msg.Type})
}

func (h *Handler) sendAck(conn *Connection, event string, payload interface{}) {
	body, _ := json.Marshal(payload)
	data, _ := json.Marshal(&Message{Type: event, Payload: body})
	conn.trySend(data)
}

func (h *Handler) sendError(conn *Connection, err error) {
	body, _ := json.Marshal(map[string]string{
		"code":    apperr.CodeOf(err),
		"message": err.Error(),
	})
	data, _ := json.Marshal(&Message{Type: "error", Payload: body})
	conn.trySend(data)
}

func (h *Handler) writePump(wsConn *websocket.Conn, conn *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		wsConn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				wsConn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			w, err := wsConn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)
			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wsConn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
