package model

import "time"

// Response is one participant's answer to one question. Immutable once
// written; the (questionId, participantId) pair is unique at the storage
// layer, which is the authoritative dedup mechanism.
type Response struct {
	ID             string          `json:"id" bson:"_id,omitempty"`
	QuestionID     string          `json:"questionId" bson:"questionId"`
	ParticipantID  string          `json:"participantId" bson:"participantId"`
	SessionID      string          `json:"sessionId" bson:"sessionId"`
	Payload        ResponsePayload `json:"payload" bson:"payload"`
	IsCorrect      *bool           `json:"isCorrect,omitempty" bson:"isCorrect,omitempty"`
	Score          int             `json:"score" bson:"score"`
	ResponseTimeMs int             `json:"responseTimeMs" bson:"responseTimeMs"`
	SubmittedAt    time.Time       `json:"submittedAt" bson:"submittedAt"`
}
