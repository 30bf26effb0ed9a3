package service

import (
	"context"
	"fmt"

	"crowddeck/internal/apperr"
	"crowddeck/internal/model"
	"crowddeck/internal/repository"
)

// loadActiveQuestion loads the session and question and verifies the
// question is the session's current, unlocked question. Shared by every
// ingestion path so the acceptance rules cannot drift apart.
func loadActiveQuestion(ctx context.Context, sessions repository.SessionRepo, questions repository.QuestionRepo, sessionID, questionID string) (*model.Session, *model.Question, error) {
	session, err := sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session == nil {
		return nil, nil, apperr.ErrSessionNotFound
	}
	if session.Status == model.SessionEnded {
		return nil, nil, apperr.ErrSessionEnded
	}
	if session.Status != model.SessionActive {
		return nil, nil, apperr.ErrSessionInactive
	}

	question, err := questions.GetByID(ctx, questionID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load question: %w", err)
	}
	if question == nil || question.SessionID != sessionID {
		return nil, nil, apperr.ErrQuestionNotFound
	}
	if session.CurrentQuestionID != questionID {
		return nil, nil, apperr.ErrQuestionNotActive
	}
	if question.State == model.QuestionLocked {
		return nil, nil, apperr.ErrQuestionLocked
	}
	if question.State != model.QuestionLive {
		return nil, nil, apperr.ErrQuestionNotActive
	}
	return session, question, nil
}

// requireParticipant loads an attached, non-removed participant of the
// session.
func requireParticipant(ctx context.Context, participants repository.ParticipantRepo, sessionID, participantID string) (*model.Participant, error) {
	participant, err := participants.GetByID(ctx, participantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load participant: %w", err)
	}
	if participant == nil || participant.SessionID != sessionID {
		return nil, apperr.ErrParticipantNotFound
	}
	if participant.IsRemoved {
		return nil, apperr.ErrParticipantRemoved
	}
	return participant, nil
}
