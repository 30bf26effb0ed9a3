package model

import "time"

type SessionStatus string

const (
	SessionActive SessionStatus = "active"
	SessionPaused SessionStatus = "paused"
	SessionEnded  SessionStatus = "ended"
)

type SessionMode string

const (
	ModeQuiz  SessionMode = "quiz"
	ModePoll  SessionMode = "poll"
	ModeMixed SessionMode = "mixed"
)

// sessionTransitions is the allowed status graph. Ended is terminal: a swept
// or ended session never comes back.
var sessionTransitions = map[SessionStatus]map[SessionStatus]bool{
	SessionActive: {SessionPaused: true, SessionEnded: true},
	SessionPaused: {SessionActive: true, SessionEnded: true},
	SessionEnded:  {},
}

// CanTransition reports whether a session may move from s to next.
func (s SessionStatus) CanTransition(next SessionStatus) bool {
	return sessionTransitions[s][next]
}

// Session is a live engagement session driven by a presenter.
type Session struct {
	ID                string        `json:"id" bson:"_id,omitempty"`
	JoinCode          string        `json:"joinCode" bson:"joinCode"`
	Title             string        `json:"title" bson:"title"`
	Mode              SessionMode   `json:"mode" bson:"mode"`
	Status            SessionStatus `json:"status" bson:"status"`
	OwnerRef          string        `json:"ownerRef" bson:"ownerRef"`
	CurrentQuestionID string        `json:"currentQuestionId,omitempty" bson:"currentQuestionId,omitempty"`
	CreatedAt         time.Time     `json:"createdAt" bson:"createdAt"`
	ExpiresAt         time.Time     `json:"expiresAt" bson:"expiresAt"`
	EndedAt           *time.Time    `json:"endedAt,omitempty" bson:"endedAt,omitempty"`
}

// SessionMeta is the Redis-cached view of a session, keyed by join code.
type SessionMeta struct {
	SessionID string        `json:"sessionId"`
	Status    SessionStatus `json:"status"`
	Mode      SessionMode   `json:"mode"`
	Title     string        `json:"title"`
	ExpiresAt time.Time     `json:"expiresAt"`
}

// SessionSummary is returned when resolving a session by code or id.
type SessionSummary struct {
	Session          *Session    `json:"session"`
	ParticipantCount int64       `json:"participantCount"`
	Questions        []*Question `json:"questions"`
}
