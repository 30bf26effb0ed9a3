package model

import (
	"errors"
	"testing"

	"crowddeck/internal/apperr"
)

func ip(v int) *int { return &v }

func TestValidateChoicePayload(t *testing.T) {
	q := &Question{Type: QuestionTypePoll, Options: []string{"a", "b", "c"}}

	ok := &ResponsePayload{Kind: PayloadChoice, OptionIndex: ip(2)}
	if err := ok.Validate(q); err != nil {
		t.Fatalf("valid choice rejected: %v", err)
	}

	cases := []*ResponsePayload{
		{Kind: PayloadChoice, OptionIndex: ip(3)},  // out of range
		{Kind: PayloadChoice, OptionIndex: ip(-1)}, // negative
		{Kind: PayloadChoice},                      // missing index
		{Kind: PayloadText, Text: "a"},             // wrong kind
	}
	for i, p := range cases {
		if err := p.Validate(q); !errors.Is(err, apperr.ErrValidation) {
			t.Fatalf("case %d: expected validation error, got %v", i, err)
		}
	}
}

func TestValidateTextPayload(t *testing.T) {
	q := &Question{Type: QuestionTypeQuizText, CorrectText: "paris"}

	if err := (&ResponsePayload{Kind: PayloadText, Text: "paris"}).Validate(q); err != nil {
		t.Fatalf("valid text rejected: %v", err)
	}
	if err := (&ResponsePayload{Kind: PayloadText, Text: "   "}).Validate(q); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("blank text should fail, got %v", err)
	}
	if err := (&ResponsePayload{Kind: PayloadChoice, OptionIndex: ip(0)}).Validate(q); !errors.Is(err, apperr.ErrValidation) {
		t.Fatal("wrong kind should fail")
	}
}

func TestValidateScalePayload(t *testing.T) {
	q := &Question{Type: QuestionTypeScale, Settings: QuestionSettings{ScaleMin: 1, ScaleMax: 5}}

	if err := (&ResponsePayload{Kind: PayloadValue, Value: ip(3)}).Validate(q); err != nil {
		t.Fatalf("in-range value rejected: %v", err)
	}
	for _, v := range []int{0, 6} {
		if err := (&ResponsePayload{Kind: PayloadValue, Value: ip(v)}).Validate(q); !errors.Is(err, apperr.ErrValidation) {
			t.Fatalf("value %d should be out of range", v)
		}
	}
}

func TestValidateScalePayloadDefaultMax(t *testing.T) {
	q := &Question{Type: QuestionTypeScale}
	if err := (&ResponsePayload{Kind: PayloadValue, Value: ip(10)}).Validate(q); err != nil {
		t.Fatalf("10 should fit the default bounds: %v", err)
	}
	if err := (&ResponsePayload{Kind: PayloadValue, Value: ip(11)}).Validate(q); !errors.Is(err, apperr.ErrValidation) {
		t.Fatal("11 should exceed the default bounds")
	}
}

func TestValidateNPSPayload(t *testing.T) {
	q := &Question{Type: QuestionTypeNPS}
	for _, v := range []int{0, 10} {
		if err := (&ResponsePayload{Kind: PayloadValue, Value: ip(v)}).Validate(q); err != nil {
			t.Fatalf("value %d rejected: %v", v, err)
		}
	}
	for _, v := range []int{-1, 11} {
		if err := (&ResponsePayload{Kind: PayloadValue, Value: ip(v)}).Validate(q); !errors.Is(err, apperr.ErrValidation) {
			t.Fatalf("value %d should fail", v)
		}
	}
}

func TestValidateRankingPayload(t *testing.T) {
	q := &Question{Type: QuestionTypeRanking, Options: []string{"a", "b", "c"}}

	if err := (&ResponsePayload{Kind: PayloadRanking, Ranking: []int{2, 0, 1}}).Validate(q); err != nil {
		t.Fatalf("valid permutation rejected: %v", err)
	}

	cases := [][]int{
		{0, 1},       // short
		{0, 1, 1},    // repeated index
		{0, 1, 3},    // out of range
		{0, 1, 2, 2}, // too long
	}
	for _, ranking := range cases {
		if err := (&ResponsePayload{Kind: PayloadRanking, Ranking: ranking}).Validate(q); !errors.Is(err, apperr.ErrValidation) {
			t.Fatalf("ranking %v should fail", ranking)
		}
	}
}

func TestValidateRejectsSubmissionOnlyTypes(t *testing.T) {
	for _, qt := range []QuestionType{QuestionTypeWordCloud, QuestionTypeOpenText, QuestionTypeBrainstorm} {
		q := &Question{Type: qt}
		if err := (&ResponsePayload{Kind: PayloadText, Text: "hi"}).Validate(q); !errors.Is(err, apperr.ErrValidation) {
			t.Fatalf("%s should not accept direct response payloads", qt)
		}
	}
}
