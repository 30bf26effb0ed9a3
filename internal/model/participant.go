package model

import "time"

// Participant is an anonymous attendee of a session. Identity is carried by
// the client-held IdentityToken, so the same person reconnecting never
// produces a second row; ConnectionID is ephemeral and rebound on every
// reconnect. Participants are soft-removed to preserve response history.
type Participant struct {
	ID            string    `json:"id" bson:"_id,omitempty"`
	SessionID     string    `json:"sessionId" bson:"sessionId"`
	IdentityToken string    `json:"-" bson:"identityToken"`
	ConnectionID  string    `json:"-" bson:"connectionId,omitempty"`
	Nickname      string    `json:"nickname,omitempty" bson:"nickname,omitempty"`
	IsConnected   bool      `json:"isConnected" bson:"isConnected"`
	IsRemoved     bool      `json:"isRemoved" bson:"isRemoved"`
	TotalScore    int       `json:"totalScore" bson:"totalScore"`
	JoinedAt      time.Time `json:"joinedAt" bson:"joinedAt"`
	LastSeenAt    time.Time `json:"lastSeenAt" bson:"lastSeenAt"`
}

// JoinResponse is returned when a participant joins by code.
type JoinResponse struct {
	SessionID     string    `json:"sessionId"`
	ParticipantID string    `json:"participantId"`
	IdentityToken string    `json:"identityToken"`
	ChannelToken  string    `json:"channelToken"`
	Title         string    `json:"title"`
	Mode          string    `json:"mode"`
	ExpiresAt     time.Time `json:"expiresAt"`
}
