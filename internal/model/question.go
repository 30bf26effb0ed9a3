package model

import "time"

// QuestionType defines the kind of question and therefore the shape of the
// responses it accepts and the reducer that aggregates them.
type QuestionType string

const (
	QuestionTypePoll       QuestionType = "poll"        // single-choice, no correct answer
	QuestionTypeQuizChoice QuestionType = "quiz_choice" // single-choice with a correct option
	QuestionTypeQuizText   QuestionType = "quiz_text"   // free text matched against a correct answer
	QuestionTypeScale      QuestionType = "scale"       // numeric rating within [min,max]
	QuestionTypeNPS        QuestionType = "nps"         // 0-10 promoter/detractor rating
	QuestionTypeRanking    QuestionType = "ranking"     // ordering of all options
	QuestionTypeWordCloud  QuestionType = "word_cloud"  // free words, histogrammed
	QuestionTypeOpenText   QuestionType = "open_text"   // moderated free text
	QuestionTypeBrainstorm QuestionType = "brainstorm"  // ideas plus toggle votes
)

// IsQuiz reports whether the type is scored.
func (t QuestionType) IsQuiz() bool {
	return t == QuestionTypeQuizChoice || t == QuestionTypeQuizText
}

// QuestionState is the explicit lifecycle state of a question. The legacy
// isActive/isLocked/isResultsVisible flags are derived from it for the wire.
type QuestionState string

const (
	QuestionPending  QuestionState = "pending"  // authored, never activated
	QuestionLive     QuestionState = "active"   // accepting responses
	QuestionLocked   QuestionState = "locked"   // presenter froze submissions
	QuestionRevealed QuestionState = "revealed" // results shown, terminal apart from closing
	QuestionClosed   QuestionState = "closed"   // deactivated by another activation
)

// questionTransitions is the allowed state graph. Reveal is irreversible:
// a revealed question can only be closed, never reactivated.
var questionTransitions = map[QuestionState]map[QuestionState]bool{
	QuestionPending:  {QuestionLive: true},
	QuestionLive:     {QuestionLocked: true, QuestionRevealed: true, QuestionClosed: true},
	QuestionLocked:   {QuestionLive: true, QuestionRevealed: true, QuestionClosed: true},
	QuestionRevealed: {QuestionClosed: true},
	QuestionClosed:   {QuestionLive: true},
}

// CanTransition reports whether a question may move from s to next.
func (s QuestionState) CanTransition(next QuestionState) bool {
	return questionTransitions[s][next]
}

// QuestionSettings carries per-type tuning knobs.
type QuestionSettings struct {
	ScaleMin int `json:"scaleMin,omitempty" bson:"scaleMin,omitempty"` // scale only
	ScaleMax int `json:"scaleMax,omitempty" bson:"scaleMax,omitempty"` // scale only
	TopWords int `json:"topWords,omitempty" bson:"topWords,omitempty"` // word cloud result size
	MaxWords int `json:"maxWords,omitempty" bson:"maxWords,omitempty"` // words per participant
}

// Question belongs to exactly one session, ordered by DisplayOrder.
type Question struct {
	ID            string           `json:"id" bson:"_id,omitempty"`
	SessionID     string           `json:"sessionId" bson:"sessionId"`
	Type          QuestionType     `json:"type" bson:"type"`
	Text          string           `json:"text" bson:"text"`
	Options       []string         `json:"options,omitempty" bson:"options,omitempty"`
	Settings      QuestionSettings `json:"settings" bson:"settings"`
	CorrectOption *int             `json:"correctOption,omitempty" bson:"correctOption,omitempty"` // quiz_choice
	CorrectText   string           `json:"correctText,omitempty" bson:"correctText,omitempty"`     // quiz_text
	TimeLimitSec  int              `json:"timeLimitSec,omitempty" bson:"timeLimitSec,omitempty"`
	DisplayOrder  int              `json:"displayOrder" bson:"displayOrder"`
	State         QuestionState    `json:"state" bson:"state"`
	ActivatedAt   *time.Time       `json:"activatedAt,omitempty" bson:"activatedAt,omitempty"`
}

// IsActive reports whether the question is accepting or holding responses.
func (q *Question) IsActive() bool {
	return q.State == QuestionLive || q.State == QuestionLocked
}

// IsLocked reports whether submissions are frozen.
func (q *Question) IsLocked() bool {
	return q.State == QuestionLocked
}

// IsResultsVisible reports whether results were revealed to participants.
func (q *Question) IsResultsVisible() bool {
	return q.State == QuestionRevealed
}
