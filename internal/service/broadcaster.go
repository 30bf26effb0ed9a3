package service

// Broadcaster fans state-change events out to the connections subscribed to
// a session. Declared here so services stay decoupled from the websocket
// transport (avoids an import cycle); the hub implements it and is injected
// at wiring time, never held as a package-level global.
type Broadcaster interface {
	BroadcastToSession(sessionID string, event string, payload interface{})
	BroadcastToPresenter(sessionID string, event string, payload interface{})
	BroadcastToParticipant(sessionID, participantID string, event string, payload interface{})
	DisconnectSession(sessionID string)
}

// Broadcast event names, shared by services and transports.
const (
	EventSessionPaused     = "session_paused"
	EventSessionResumed    = "session_resumed"
	EventSessionEnded      = "session_ended"
	EventQuestionActivated = "question_activated"
	EventQuestionLocked    = "question_locked"
	EventQuestionUnlocked  = "question_unlocked"
	EventResultsRevealed   = "results_revealed"
	EventParticipantJoined = "participant_joined"
	EventParticipantLeft   = "participant_left"
	EventLiveUpdate        = "live_update"
	EventLeaderboardUpdate = "leaderboard_update"
	EventRankUpdate        = "rank_update"
	EventWordsUpdated      = "words_updated"
	EventTextSubmitted     = "text_submitted"
	EventTextModerated     = "text_moderated"
	EventIdeaSubmitted     = "idea_submitted"
	EventIdeaVoted         = "idea_voted"
)
