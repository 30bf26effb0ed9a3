package service

import (
	"context"
	"fmt"
	"time"

	"crowddeck/internal/apperr"
	"crowddeck/internal/cache"
	"crowddeck/internal/model"
	"crowddeck/internal/repository"
)

// In-memory doubles for driving service flows without a live store. They
// mirror the arbitration the real repositories get from unique indexes, so
// the race and duplicate paths can be exercised deterministically.

type stubSessionRepo struct {
	session *model.Session
}

func (r *stubSessionRepo) Create(ctx context.Context, s *model.Session) error {
	r.session = s
	return nil
}

func (r *stubSessionRepo) GetByID(ctx context.Context, id string) (*model.Session, error) {
	if r.session != nil && r.session.ID == id {
		s := *r.session
		return &s, nil
	}
	return nil, nil
}

func (r *stubSessionRepo) GetByCode(ctx context.Context, code string) (*model.Session, error) {
	if r.session != nil && r.session.JoinCode == code && r.session.Status != model.SessionEnded {
		s := *r.session
		return &s, nil
	}
	return nil, nil
}

func (r *stubSessionRepo) UpdateStatus(ctx context.Context, id string, from, to model.SessionStatus, endedAt *time.Time) (bool, error) {
	if r.session == nil || r.session.ID != id || r.session.Status != from {
		return false, nil
	}
	r.session.Status = to
	r.session.EndedAt = endedAt
	return true, nil
}

func (r *stubSessionRepo) ListExpired(ctx context.Context, cutoff time.Time) ([]*model.Session, error) {
	return nil, nil
}

func (r *stubSessionRepo) CodeInUse(ctx context.Context, code string) (bool, error) {
	return false, nil
}

type stubQuestionRepo struct {
	sessions  *stubSessionRepo
	questions map[string]*model.Question
	activates int
}

func (r *stubQuestionRepo) Create(ctx context.Context, q *model.Question) error {
	r.questions[q.ID] = q
	return nil
}

func (r *stubQuestionRepo) GetByID(ctx context.Context, id string) (*model.Question, error) {
	if q, ok := r.questions[id]; ok {
		question := *q
		return &question, nil
	}
	return nil, nil
}

func (r *stubQuestionRepo) ListBySession(ctx context.Context, sessionID string) ([]*model.Question, error) {
	var questions []*model.Question
	for _, q := range r.questions {
		if q.SessionID == sessionID {
			question := *q
			questions = append(questions, &question)
		}
	}
	return questions, nil
}

func (r *stubQuestionRepo) UpdateState(ctx context.Context, id string, from []model.QuestionState, to model.QuestionState, activatedAt *time.Time) (bool, error) {
	q, ok := r.questions[id]
	if !ok {
		return false, nil
	}
	for _, state := range from {
		if q.State == state {
			q.State = to
			if activatedAt != nil {
				q.ActivatedAt = activatedAt
			}
			return true, nil
		}
	}
	return false, nil
}

// Activate applies the pointer swap, the close-others sweep and the state
// flip as one step, the way the transactional repository commits them.
func (r *stubQuestionRepo) Activate(ctx context.Context, sessionID, questionID string, from []model.QuestionState, at time.Time) (bool, error) {
	r.activates++
	if r.sessions.session == nil || r.sessions.session.ID != sessionID || r.sessions.session.Status != model.SessionActive {
		return false, nil
	}
	r.sessions.session.CurrentQuestionID = questionID
	for id, q := range r.questions {
		if q.SessionID == sessionID && id != questionID && (q.State == model.QuestionLive || q.State == model.QuestionLocked) {
			q.State = model.QuestionClosed
		}
	}
	if q, ok := r.questions[questionID]; ok {
		for _, state := range from {
			if q.State == state {
				q.State = model.QuestionLive
				activatedAt := at
				q.ActivatedAt = &activatedAt
				break
			}
		}
	}
	return true, nil
}

type stubParticipantRepo struct {
	rows    map[string]*model.Participant
	creates int
	// missFirstLookup simulates the attach race: the initial lookup runs
	// before a concurrent insert lands, so it sees nothing.
	missFirstLookup bool
}

func (r *stubParticipantRepo) Create(ctx context.Context, p *model.Participant) error {
	r.creates++
	for _, row := range r.rows {
		if row.SessionID == p.SessionID && row.IdentityToken == p.IdentityToken {
			return fmt.Errorf("participant insert: %w", repository.ErrIdentityTaken)
		}
	}
	row := *p
	r.rows[p.ID] = &row
	return nil
}

func (r *stubParticipantRepo) GetByID(ctx context.Context, id string) (*model.Participant, error) {
	if row, ok := r.rows[id]; ok {
		p := *row
		return &p, nil
	}
	return nil, nil
}

func (r *stubParticipantRepo) GetByToken(ctx context.Context, sessionID, identityToken string) (*model.Participant, error) {
	if r.missFirstLookup {
		r.missFirstLookup = false
		return nil, nil
	}
	for _, row := range r.rows {
		if row.SessionID == sessionID && row.IdentityToken == identityToken {
			p := *row
			return &p, nil
		}
	}
	return nil, nil
}

func (r *stubParticipantRepo) Rebind(ctx context.Context, id, connectionID, nickname string, at time.Time) error {
	row, ok := r.rows[id]
	if !ok {
		return nil
	}
	row.ConnectionID = connectionID
	row.IsConnected = connectionID != ""
	row.LastSeenAt = at
	if nickname != "" {
		row.Nickname = nickname
	}
	return nil
}

func (r *stubParticipantRepo) DetachConnection(ctx context.Context, connectionID string, at time.Time) (*model.Participant, error) {
	for _, row := range r.rows {
		if row.ConnectionID == connectionID {
			row.ConnectionID = ""
			row.IsConnected = false
			row.LastSeenAt = at
			p := *row
			return &p, nil
		}
	}
	return nil, nil
}

func (r *stubParticipantRepo) SoftRemove(ctx context.Context, id string) error {
	if row, ok := r.rows[id]; ok {
		row.IsRemoved = true
		row.IsConnected = false
		row.ConnectionID = ""
	}
	return nil
}

func (r *stubParticipantRepo) CountConnected(ctx context.Context, sessionID string) (int64, error) {
	var n int64
	for _, row := range r.rows {
		if row.SessionID == sessionID && !row.IsRemoved && row.IsConnected {
			n++
		}
	}
	return n, nil
}

func (r *stubParticipantRepo) ListBySession(ctx context.Context, sessionID string) ([]*model.Participant, error) {
	var participants []*model.Participant
	for _, row := range r.rows {
		if row.SessionID == sessionID && !row.IsRemoved {
			p := *row
			participants = append(participants, &p)
		}
	}
	return participants, nil
}

type stubResponseRepo struct {
	responses map[string]*model.Response
	// missExists simulates the pre-check losing a race: the cheap lookup
	// reports nothing, leaving the unique index to arbitrate the insert.
	missExists bool
}

func responseKey(questionID, participantID string) string {
	return questionID + "/" + participantID
}

func (r *stubResponseRepo) InsertScored(ctx context.Context, response *model.Response) error {
	key := responseKey(response.QuestionID, response.ParticipantID)
	if _, ok := r.responses[key]; ok {
		return fmt.Errorf("response for question %s: %w", response.QuestionID, apperr.ErrDuplicateResponse)
	}
	r.responses[key] = response
	return nil
}

func (r *stubResponseRepo) Exists(ctx context.Context, questionID, participantID string) (bool, error) {
	if r.missExists {
		r.missExists = false
		return false, nil
	}
	_, ok := r.responses[responseKey(questionID, participantID)]
	return ok, nil
}

func (r *stubResponseRepo) ListByQuestion(ctx context.Context, questionID string) ([]*model.Response, error) {
	var responses []*model.Response
	for _, resp := range r.responses {
		if resp.QuestionID == questionID {
			responses = append(responses, resp)
		}
	}
	return responses, nil
}

func (r *stubResponseRepo) ListBySession(ctx context.Context, sessionID string) ([]*model.Response, error) {
	var responses []*model.Response
	for _, resp := range r.responses {
		if resp.SessionID == sessionID {
			responses = append(responses, resp)
		}
	}
	return responses, nil
}

func (r *stubResponseRepo) CountByQuestion(ctx context.Context, questionID string) (int64, error) {
	var n int64
	for _, resp := range r.responses {
		if resp.QuestionID == questionID {
			n++
		}
	}
	return n, nil
}

type stubCounterCache struct{}

func (stubCounterCache) IncrResponses(ctx context.Context, questionID string) (int64, error) {
	return 1, nil
}

func (stubCounterCache) IncrOption(ctx context.Context, questionID string, optionIndex int) error {
	return nil
}

func (stubCounterCache) GetLive(ctx context.Context, questionID string, optionCount int) (*cache.LiveCounts, error) {
	return &cache.LiveCounts{QuestionID: questionID}, nil
}

func (stubCounterCache) Reset(ctx context.Context, questionID string) error {
	return nil
}

type stubLeaderboard struct {
	totals map[string]int
}

func (l *stubLeaderboard) SetScore(ctx context.Context, sessionID, participantID string, score int) error {
	l.totals[participantID] = score
	return nil
}

func (l *stubLeaderboard) IncrScore(ctx context.Context, sessionID, participantID string, delta int) (int, error) {
	l.totals[participantID] += delta
	return l.totals[participantID], nil
}

func (l *stubLeaderboard) GetTop(ctx context.Context, sessionID string, limit int) ([]cache.LeaderboardEntry, error) {
	return nil, nil
}

func (l *stubLeaderboard) GetRank(ctx context.Context, sessionID, participantID string) (int64, error) {
	if _, ok := l.totals[participantID]; ok {
		return 1, nil
	}
	return -1, nil
}

func (l *stubLeaderboard) Delete(ctx context.Context, sessionID string) error {
	l.totals = make(map[string]int)
	return nil
}

type recordedEvent struct {
	scope         string
	sessionID     string
	participantID string
	event         string
	payload       interface{}
}

type recordingBroadcaster struct {
	events []recordedEvent
}

func (b *recordingBroadcaster) BroadcastToSession(sessionID string, event string, payload interface{}) {
	b.events = append(b.events, recordedEvent{scope: "session", sessionID: sessionID, event: event, payload: payload})
}

func (b *recordingBroadcaster) BroadcastToPresenter(sessionID string, event string, payload interface{}) {
	b.events = append(b.events, recordedEvent{scope: "presenter", sessionID: sessionID, event: event, payload: payload})
}

func (b *recordingBroadcaster) BroadcastToParticipant(sessionID, participantID string, event string, payload interface{}) {
	b.events = append(b.events, recordedEvent{scope: "participant", sessionID: sessionID, participantID: participantID, event: event, payload: payload})
}

func (b *recordingBroadcaster) DisconnectSession(sessionID string) {
	b.events = append(b.events, recordedEvent{scope: "disconnect", sessionID: sessionID})
}

func (b *recordingBroadcaster) find(event string) *recordedEvent {
	for i := range b.events {
		if b.events[i].event == event {
			return &b.events[i]
		}
	}
	return nil
}
