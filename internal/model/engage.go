package model

import "time"

// WordSubmission is one word sent to a word cloud question. Normalized is
// the histogram key (lowercased, punctuation stripped, whitespace collapsed).
type WordSubmission struct {
	ID            string    `json:"id" bson:"_id,omitempty"`
	QuestionID    string    `json:"questionId" bson:"questionId"`
	ParticipantID string    `json:"participantId" bson:"participantId"`
	SessionID     string    `json:"sessionId" bson:"sessionId"`
	Word          string    `json:"word" bson:"word"`
	Normalized    string    `json:"normalized" bson:"normalized"`
	SubmittedAt   time.Time `json:"submittedAt" bson:"submittedAt"`
}

// ModerationState gates what open-text content participants can see.
type ModerationState string

const (
	ModerationPending     ModerationState = "pending"
	ModerationApproved    ModerationState = "approved"
	ModerationHidden      ModerationState = "hidden"
	ModerationHighlighted ModerationState = "highlighted"
)

// TextResponse is a free-text submission to an open-ended question.
// Unmoderated content defaults to pending and stays off the public view.
type TextResponse struct {
	ID            string          `json:"id" bson:"_id,omitempty"`
	QuestionID    string          `json:"questionId" bson:"questionId"`
	ParticipantID string          `json:"participantId" bson:"participantId"`
	SessionID     string          `json:"sessionId" bson:"sessionId"`
	Text          string          `json:"text" bson:"text"`
	Moderation    ModerationState `json:"moderation" bson:"moderation"`
	SubmittedAt   time.Time       `json:"submittedAt" bson:"submittedAt"`
}

// BrainstormIdea is one idea on a brainstorm question. VoteCount is
// maintained by the vote toggle and used for result ordering.
type BrainstormIdea struct {
	ID            string    `json:"id" bson:"_id,omitempty"`
	QuestionID    string    `json:"questionId" bson:"questionId"`
	ParticipantID string    `json:"participantId" bson:"participantId"`
	SessionID     string    `json:"sessionId" bson:"sessionId"`
	Text          string    `json:"text" bson:"text"`
	VoteCount     int       `json:"voteCount" bson:"voteCount"`
	SubmittedAt   time.Time `json:"submittedAt" bson:"submittedAt"`
}

// BrainstormVote is a toggleable vote, unique per (ideaId, participantId).
type BrainstormVote struct {
	ID            string    `json:"id" bson:"_id,omitempty"`
	IdeaID        string    `json:"ideaId" bson:"ideaId"`
	QuestionID    string    `json:"questionId" bson:"questionId"`
	ParticipantID string    `json:"participantId" bson:"participantId"`
	CreatedAt     time.Time `json:"createdAt" bson:"createdAt"`
}
