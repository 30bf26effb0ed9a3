package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"crowddeck/internal/apperr"
	"crowddeck/internal/model"
)

func TestRandomJoinCodeFormat(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		code, err := randomJoinCode()
		if err != nil {
			t.Fatalf("randomJoinCode returned error: %v", err)
		}
		if len(code) != joinCodeLength {
			t.Fatalf("expected %d characters, got %q", joinCodeLength, code)
		}
		for _, c := range code {
			if !strings.ContainsRune(joinCodeAlphabet, c) {
				t.Fatalf("code %q contains %q outside the alphabet", code, c)
			}
		}
		seen[code] = true
	}
	// 200 draws from a 31^6 space colliding into a handful of codes would
	// mean the generator is broken.
	if len(seen) < 190 {
		t.Fatalf("suspiciously many collisions: %d unique of 200", len(seen))
	}
}

func TestJoinCodeAlphabetExcludesAmbiguousGlyphs(t *testing.T) {
	for _, c := range "0O1IL" {
		if strings.ContainsRune(joinCodeAlphabet, c) {
			t.Fatalf("alphabet must not contain %q", c)
		}
	}
}

func TestPublicQuestionStripsGradingFields(t *testing.T) {
	correct := 1
	q := &model.Question{
		ID:            "q1",
		Type:          model.QuestionTypeQuizChoice,
		Text:          "capital of france?",
		Options:       []string{"london", "paris"},
		CorrectOption: &correct,
		CorrectText:   "paris",
	}
	public := publicQuestion(q)
	if public.CorrectOption != nil || public.CorrectText != "" {
		t.Fatalf("grading fields leaked: %+v", public)
	}
	if q.CorrectOption == nil {
		t.Fatal("original question must not be mutated")
	}
	if public.ID != q.ID || len(public.Options) != 2 {
		t.Fatalf("public copy lost content: %+v", public)
	}
}

func newActivationFixture(status model.SessionStatus) (*SessionService, *stubSessionRepo, *stubQuestionRepo, *recordingBroadcaster) {
	sessions := &stubSessionRepo{session: &model.Session{
		ID:                "s1",
		Status:            status,
		CurrentQuestionID: "q1",
	}}
	questions := &stubQuestionRepo{
		sessions: sessions,
		questions: map[string]*model.Question{
			"q1": {ID: "q1", SessionID: "s1", Type: model.QuestionTypePoll, Text: "first", Options: []string{"a", "b"}, State: model.QuestionLive},
			"q2": {ID: "q2", SessionID: "s1", Type: model.QuestionTypePoll, Text: "second", Options: []string{"a", "b"}, State: model.QuestionPending},
		},
	}
	broadcaster := &recordingBroadcaster{}
	svc := &SessionService{sessionRepo: sessions, questionRepo: questions, broadcaster: broadcaster}
	return svc, sessions, questions, broadcaster
}

func TestActivateQuestionCommitsAsOneStep(t *testing.T) {
	svc, sessions, questions, broadcaster := newActivationFixture(model.SessionActive)

	question, err := svc.ActivateQuestion(context.Background(), "s1", "q2")
	if err != nil {
		t.Fatalf("activation failed: %v", err)
	}
	if question.State != model.QuestionLive || question.ActivatedAt == nil {
		t.Fatalf("target not live: %+v", question)
	}

	// Pointer, prior question and target state must agree after the commit:
	// the pointed-at question is the live one, everything else is closed.
	if got := sessions.session.CurrentQuestionID; got != "q2" {
		t.Fatalf("pointer names %q, want q2", got)
	}
	if got := questions.questions["q1"].State; got != model.QuestionClosed {
		t.Fatalf("prior question should be closed, got %s", got)
	}
	if got := questions.questions["q2"].State; got != model.QuestionLive {
		t.Fatalf("activated question should be live, got %s", got)
	}
	if questions.activates != 1 {
		t.Fatalf("activation must be a single storage operation, got %d", questions.activates)
	}
	if ev := broadcaster.find(EventQuestionActivated); ev == nil || ev.scope != "session" {
		t.Fatalf("activation must broadcast to the session, got %+v", ev)
	}
}

func TestActivateQuestionRejectsInactiveSession(t *testing.T) {
	svc, sessions, questions, _ := newActivationFixture(model.SessionPaused)

	_, err := svc.ActivateQuestion(context.Background(), "s1", "q2")
	if !errors.Is(err, apperr.ErrSessionInactive) {
		t.Fatalf("paused session should refuse activation, got %v", err)
	}
	if got := sessions.session.CurrentQuestionID; got != "q1" {
		t.Fatalf("pointer must be untouched, got %q", got)
	}
	if got := questions.questions["q2"].State; got != model.QuestionPending {
		t.Fatalf("target must stay pending, got %s", got)
	}
}

func TestValidateQuestion(t *testing.T) {
	correct := 0
	cases := []struct {
		name    string
		q       *model.Question
		wantErr bool
	}{
		{"valid poll", &model.Question{Type: model.QuestionTypePoll, Text: "t", Options: []string{"a", "b"}}, false},
		{"poll with one option", &model.Question{Type: model.QuestionTypePoll, Text: "t", Options: []string{"a"}}, true},
		{"quiz_choice without correct option", &model.Question{Type: model.QuestionTypeQuizChoice, Text: "t", Options: []string{"a", "b"}}, true},
		{"valid quiz_choice", &model.Question{Type: model.QuestionTypeQuizChoice, Text: "t", Options: []string{"a", "b"}, CorrectOption: &correct}, false},
		{"quiz_text without answer", &model.Question{Type: model.QuestionTypeQuizText, Text: "t"}, true},
		{"scale with inverted bounds", &model.Question{Type: model.QuestionTypeScale, Text: "t", Settings: model.QuestionSettings{ScaleMin: 5, ScaleMax: 1}}, true},
		{"valid word cloud", &model.Question{Type: model.QuestionTypeWordCloud, Text: "t"}, false},
		{"missing text", &model.Question{Type: model.QuestionTypeNPS}, true},
		{"unknown type", &model.Question{Type: "mystery", Text: "t"}, true},
	}
	for _, tc := range cases {
		err := validateQuestion(tc.q)
		if tc.wantErr && err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
		if !tc.wantErr && err != nil {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
		if tc.wantErr && !errors.Is(err, apperr.ErrValidation) {
			t.Fatalf("%s: error should wrap the validation sentinel, got %v", tc.name, err)
		}
	}
}
