package model

import "github.com/golang-jwt/jwt/v5"

// PresenterClaims is the JWT payload for presenter tokens.
type PresenterClaims struct {
	PresenterID string `json:"presenterId"`
	jwt.RegisteredClaims
}

// ParticipantClaims is the session-scoped JWT payload used to open the
// realtime channel. It carries the participant row id, not the identity
// token, so the durable credential never travels in a channel token.
type ParticipantClaims struct {
	SessionID     string `json:"sessionId"`
	ParticipantID string `json:"participantId"`
	jwt.RegisteredClaims
}

// LoginResponse is returned by the presenter login endpoint.
type LoginResponse struct {
	Token       string `json:"token"`
	PresenterID string `json:"presenterId"`
}
