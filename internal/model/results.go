package model

import "time"

// ChoiceResult is the histogram for poll and quiz_choice questions.
type ChoiceResult struct {
	Counts []int `json:"counts"`
	Total  int   `json:"total"`
}

// ScaleResult summarizes scale responses.
type ScaleResult struct {
	Count   int     `json:"count"`
	Average float64 `json:"average"`
	Min     int     `json:"min"`
	Max     int     `json:"max"`
}

// NPSResult extends the scale summary with the promoter/detractor partition.
type NPSResult struct {
	ScaleResult
	Promoters  int `json:"promoters"`  // >= 9
	Passives   int `json:"passives"`   // 7-8
	Detractors int `json:"detractors"` // <= 6
	Score      int `json:"score"`      // round((promoters-detractors)/count*100)
}

// RankingResult holds the average rank per option index, lower is better.
type RankingResult struct {
	AverageRanks []float64 `json:"averageRanks"`
	Total        int       `json:"total"`
}

// WordCount is one entry of a word cloud histogram.
type WordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// IdeaResult is a brainstorm idea with its net vote count.
type IdeaResult struct {
	ID          string    `json:"id"`
	Text        string    `json:"text"`
	Votes       int       `json:"votes"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// QuestionResults is the per-question aggregate, tagged by question type.
// Exactly one of the result fields is set.
type QuestionResults struct {
	QuestionID    string          `json:"questionId"`
	Type          QuestionType    `json:"type"`
	ResponseCount int             `json:"responseCount"`
	Choice        *ChoiceResult   `json:"choice,omitempty"`
	Scale         *ScaleResult    `json:"scale,omitempty"`
	NPS           *NPSResult      `json:"nps,omitempty"`
	Ranking       *RankingResult  `json:"ranking,omitempty"`
	Words         []WordCount     `json:"words,omitempty"`
	Ideas         []IdeaResult    `json:"ideas,omitempty"`
	Texts         []*TextResponse `json:"texts,omitempty"`
}

// EngagementScore blends accuracy, speed, participation and completion into
// one 0-100 metric per participant.
type EngagementScore struct {
	ParticipantID string  `json:"participantId"`
	Nickname      string  `json:"nickname,omitempty"`
	Accuracy      float64 `json:"accuracy"`
	Speed         float64 `json:"speed"`
	Participation float64 `json:"participation"`
	Completion    float64 `json:"completion"`
	Score         float64 `json:"score"`
}

// SessionExport is the flat snapshot handed to the export collaborator.
type SessionExport struct {
	Session    *Session           `json:"session"`
	Questions  []*QuestionResults `json:"questions"`
	Engagement []EngagementScore  `json:"engagement"`
}
