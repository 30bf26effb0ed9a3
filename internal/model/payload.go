package model

import (
	"fmt"
	"strings"

	"crowddeck/internal/apperr"
)

// PayloadKind discriminates the response payload union.
type PayloadKind string

const (
	PayloadChoice  PayloadKind = "choice"  // poll, quiz_choice
	PayloadText    PayloadKind = "text"    // quiz_text
	PayloadValue   PayloadKind = "value"   // scale, nps
	PayloadRanking PayloadKind = "ranking" // ranking
)

// ResponsePayload is the tagged union of answer shapes. Exactly the fields
// for the tagged kind are set; Validate matches the union exhaustively
// against the question type, so adding a question type means adding one case
// here and one reducer in the aggregation engine.
type ResponsePayload struct {
	Kind        PayloadKind `json:"kind" bson:"kind"`
	OptionIndex *int        `json:"optionIndex,omitempty" bson:"optionIndex,omitempty"`
	Text        string      `json:"text,omitempty" bson:"text,omitempty"`
	Value       *int        `json:"value,omitempty" bson:"value,omitempty"`
	Ranking     []int       `json:"ranking,omitempty" bson:"ranking,omitempty"`
}

// Validate checks the payload shape against the question type. Word cloud,
// open text and brainstorm questions do not go through the response path and
// reject any direct payload.
func (p *ResponsePayload) Validate(q *Question) error {
	switch q.Type {
	case QuestionTypePoll, QuestionTypeQuizChoice:
		if p.Kind != PayloadChoice || p.OptionIndex == nil {
			return fmt.Errorf("%w: %s question requires a choice payload", apperr.ErrValidation, q.Type)
		}
		if *p.OptionIndex < 0 || *p.OptionIndex >= len(q.Options) {
			return fmt.Errorf("%w: option index %d out of range", apperr.ErrValidation, *p.OptionIndex)
		}
	case QuestionTypeQuizText:
		if p.Kind != PayloadText || strings.TrimSpace(p.Text) == "" {
			return fmt.Errorf("%w: quiz_text question requires a non-empty text payload", apperr.ErrValidation)
		}
	case QuestionTypeScale:
		if p.Kind != PayloadValue || p.Value == nil {
			return fmt.Errorf("%w: scale question requires a value payload", apperr.ErrValidation)
		}
		min, max := q.Settings.ScaleMin, q.Settings.ScaleMax
		if max == 0 {
			max = 10
		}
		if *p.Value < min || *p.Value > max {
			return fmt.Errorf("%w: value %d outside [%d,%d]", apperr.ErrValidation, *p.Value, min, max)
		}
	case QuestionTypeNPS:
		if p.Kind != PayloadValue || p.Value == nil {
			return fmt.Errorf("%w: nps question requires a value payload", apperr.ErrValidation)
		}
		if *p.Value < 0 || *p.Value > 10 {
			return fmt.Errorf("%w: nps value %d outside [0,10]", apperr.ErrValidation, *p.Value)
		}
	case QuestionTypeRanking:
		if p.Kind != PayloadRanking {
			return fmt.Errorf("%w: ranking question requires a ranking payload", apperr.ErrValidation)
		}
		if err := validateRanking(p.Ranking, len(q.Options)); err != nil {
			return err
		}
	case QuestionTypeWordCloud, QuestionTypeOpenText, QuestionTypeBrainstorm:
		return fmt.Errorf("%w: %s questions take submissions, not responses", apperr.ErrValidation, q.Type)
	default:
		return fmt.Errorf("%w: unknown question type %q", apperr.ErrValidation, q.Type)
	}
	return nil
}

// validateRanking requires a permutation of all option indices.
func validateRanking(ranking []int, optionCount int) error {
	if len(ranking) != optionCount {
		return fmt.Errorf("%w: ranking must order all %d options", apperr.ErrValidation, optionCount)
	}
	seen := make(map[int]bool, len(ranking))
	for _, idx := range ranking {
		if idx < 0 || idx >= optionCount {
			return fmt.Errorf("%w: ranking index %d out of range", apperr.ErrValidation, idx)
		}
		if seen[idx] {
			return fmt.Errorf("%w: ranking repeats index %d", apperr.ErrValidation, idx)
		}
		seen[idx] = true
	}
	return nil
}
