package model

import "testing"

func TestSessionTransitions(t *testing.T) {
	cases := []struct {
		from, to SessionStatus
		want     bool
	}{
		{SessionActive, SessionPaused, true},
		{SessionPaused, SessionActive, true},
		{SessionActive, SessionEnded, true},
		{SessionPaused, SessionEnded, true},
		{SessionEnded, SessionActive, false}, // ended is terminal
		{SessionEnded, SessionPaused, false},
		{SessionActive, SessionActive, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransition(tc.to); got != tc.want {
			t.Fatalf("CanTransition(%s -> %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestQuestionTransitions(t *testing.T) {
	cases := []struct {
		from, to QuestionState
		want     bool
	}{
		{QuestionPending, QuestionLive, true},
		{QuestionLive, QuestionLocked, true},
		{QuestionLocked, QuestionLive, true},
		{QuestionLive, QuestionRevealed, true},
		{QuestionLocked, QuestionRevealed, true},
		{QuestionRevealed, QuestionClosed, true},
		{QuestionClosed, QuestionLive, true}, // re-activation after another question ran
		{QuestionRevealed, QuestionLive, false}, // reveal is irreversible
		{QuestionRevealed, QuestionLocked, false},
		{QuestionPending, QuestionRevealed, false},
		{QuestionPending, QuestionLocked, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransition(tc.to); got != tc.want {
			t.Fatalf("CanTransition(%s -> %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestDerivedQuestionFlags(t *testing.T) {
	live := &Question{State: QuestionLive}
	if !live.IsActive() || live.IsLocked() || live.IsResultsVisible() {
		t.Fatalf("unexpected flags for live question")
	}
	locked := &Question{State: QuestionLocked}
	if !locked.IsActive() || !locked.IsLocked() {
		t.Fatalf("locked question should be active and locked")
	}
	revealed := &Question{State: QuestionRevealed}
	if revealed.IsActive() || !revealed.IsResultsVisible() {
		t.Fatalf("unexpected flags for revealed question")
	}
}
