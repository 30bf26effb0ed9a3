package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"crowddeck/internal/apperr"
	"crowddeck/internal/cache"
	"crowddeck/internal/model"
	"crowddeck/internal/repository"
)

const defaultMaxWords = 3

// EngageService handles the free-text and creative question types: word
// cloud submissions, moderated open text, and brainstorm ideas with toggle
// votes.
type EngageService struct {
	sessionRepo     repository.SessionRepo
	questionRepo    repository.QuestionRepo
	participantRepo repository.ParticipantRepo
	wordRepo        repository.WordRepo
	textRepo        repository.TextRepo
	brainstormRepo  repository.BrainstormRepo
	counterCache    cache.CounterCache
	broadcaster     Broadcaster
}

// NewEngageService creates a new engage service.
func NewEngageService(
	sessionRepo repository.SessionRepo,
	questionRepo repository.QuestionRepo,
	participantRepo repository.ParticipantRepo,
	wordRepo repository.WordRepo,
	textRepo repository.TextRepo,
	brainstormRepo repository.BrainstormRepo,
	counterCache cache.CounterCache,
) *EngageService {
	return &EngageService{
		sessionRepo:     sessionRepo,
		questionRepo:    questionRepo,
		participantRepo: participantRepo,
		wordRepo:        wordRepo,
		textRepo:        textRepo,
		brainstormRepo:  brainstormRepo,
		counterCache:    counterCache,
	}
}

// SetBroadcaster injects the broadcaster for realtime events.
func (s *EngageService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// SubmitWords ingests words for a word cloud question. Words that normalize
// to nothing or trip the profanity filter are dropped silently; accepted
// words update the live cloud.
func (s *EngageService) SubmitWords(ctx context.Context, sessionID, participantID, questionID string, words []string) (int, error) {
	session, question, err := loadActiveQuestion(ctx, s.sessionRepo, s.questionRepo, sessionID, questionID)
	if err != nil {
		return 0, err
	}
	if question.Type != model.QuestionTypeWordCloud {
		return 0, fmt.Errorf("%w: question does not take words", apperr.ErrValidation)
	}
	if _, err := requireParticipant(ctx, s.participantRepo, sessionID, participantID); err != nil {
		return 0, err
	}

	limit := question.Settings.MaxWords
	if limit <= 0 {
		limit = defaultMaxWords
	}
	used, err := s.wordRepo.CountByParticipant(ctx, questionID, participantID)
	if err != nil {
		return 0, err
	}

	accepted := 0
	now := time.Now()
	for _, raw := range words {
		if int64(accepted)+used >= int64(limit) {
			break
		}
		normalized, ok := AcceptWord(raw)
		if !ok {
			continue
		}
		submission := &model.WordSubmission{
			ID:            uuid.New().String(),
			QuestionID:    questionID,
			ParticipantID: participantID,
			SessionID:     sessionID,
			Word:          strings.TrimSpace(raw),
			Normalized:    normalized,
			SubmittedAt:   now,
		}
		if err := s.wordRepo.Create(ctx, submission); err != nil {
			return accepted, fmt.Errorf("failed to store word: %w", err)
		}
		accepted++
	}

	if accepted > 0 {
		s.broadcastCloud(ctx, session.ID, question)
	}
	return accepted, nil
}

// SubmitText ingests an open-ended text response. Content starts as pending
// and stays off the public view until moderated; the presenter sees it
// immediately.
func (s *EngageService) SubmitText(ctx context.Context, sessionID, participantID, questionID, text string) (*model.TextResponse, error) {
	session, question, err := loadActiveQuestion(ctx, s.sessionRepo, s.questionRepo, sessionID, questionID)
	if err != nil {
		return nil, err
	}
	if question.Type != model.QuestionTypeOpenText {
		return nil, fmt.Errorf("%w: question does not take text responses", apperr.ErrValidation)
	}
	if _, err := requireParticipant(ctx, s.participantRepo, sessionID, participantID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: text must not be empty", apperr.ErrValidation)
	}

	response := &model.TextResponse{
		ID:            uuid.New().String(),
		QuestionID:    questionID,
		ParticipantID: participantID,
		SessionID:     sessionID,
		Text:          strings.TrimSpace(text),
		Moderation:    model.ModerationPending,
		SubmittedAt:   time.Now(),
	}
	if err := s.textRepo.Create(ctx, response); err != nil {
		return nil, fmt.Errorf("failed to store text response: %w", err)
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastToPresenter(session.ID, EventTextSubmitted, response)
	}
	return response, nil
}

// ModerateText flips a text response's moderation state and, when the text
// becomes publicly visible, pushes it to the session.
func (s *EngageService) ModerateText(ctx context.Context, sessionID, textID string, state model.ModerationState) error {
	switch state {
	case model.ModerationApproved, model.ModerationHidden, model.ModerationHighlighted:
	default:
		return fmt.Errorf("%w: unknown moderation state %q", apperr.ErrValidation, state)
	}

	ok, err := s.textRepo.SetModeration(ctx, textID, state)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.ErrTextNotFound
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastToSession(sessionID, EventTextModerated, map[string]string{
			"textId": textID,
			"state":  string(state),
		})
	}
	return nil
}

// SubmitIdea adds a brainstorm idea and announces it to the session.
func (s *EngageService) SubmitIdea(ctx context.Context, sessionID, participantID, questionID, text string) (*model.BrainstormIdea, error) {
	session, question, err := loadActiveQuestion(ctx, s.sessionRepo, s.questionRepo, sessionID, questionID)
	if err != nil {
		return nil, err
	}
	if question.Type != model.QuestionTypeBrainstorm {
		return nil, fmt.Errorf("%w: question does not take ideas", apperr.ErrValidation)
	}
	if _, err := requireParticipant(ctx, s.participantRepo, sessionID, participantID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: idea must not be empty", apperr.ErrValidation)
	}

	idea := &model.BrainstormIdea{
		ID:            uuid.New().String(),
		QuestionID:    questionID,
		ParticipantID: participantID,
		SessionID:     sessionID,
		Text:          strings.TrimSpace(text),
		SubmittedAt:   time.Now(),
	}
	if err := s.brainstormRepo.CreateIdea(ctx, idea); err != nil {
		return nil, fmt.Errorf("failed to store idea: %w", err)
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastToSession(session.ID, EventIdeaSubmitted, idea)
	}
	return idea, nil
}

// ToggleVote flips the participant's vote on an idea. Idempotent under
// rapid double-clicks: each call flips, so a pair nets out, and the unique
// vote index prevents double counting.
func (s *EngageService) ToggleVote(ctx context.Context, sessionID, participantID, ideaID string) (bool, int, error) {
	idea, err := s.brainstormRepo.GetIdea(ctx, ideaID)
	if err != nil {
		return false, 0, err
	}
	if idea == nil || idea.SessionID != sessionID {
		return false, 0, apperr.ErrIdeaNotFound
	}

	if _, _, err := loadActiveQuestion(ctx, s.sessionRepo, s.questionRepo, sessionID, idea.QuestionID); err != nil {
		return false, 0, err
	}
	if _, err := requireParticipant(ctx, s.participantRepo, sessionID, participantID); err != nil {
		return false, 0, err
	}

	voted, count, err := s.brainstormRepo.ToggleVote(ctx, ideaID, idea.QuestionID, participantID, time.Now())
	if err != nil {
		return false, 0, err
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastToSession(sessionID, EventIdeaVoted, map[string]interface{}{
			"ideaId": ideaID,
			"votes":  count,
		})
	}
	return voted, count, nil
}

// broadcastCloud pushes the refreshed word histogram to the session.
func (s *EngageService) broadcastCloud(ctx context.Context, sessionID string, question *model.Question) {
	if s.broadcaster == nil {
		return
	}
	words, err := s.wordRepo.ListByQuestion(ctx, question.ID)
	if err != nil {
		log.Printf("word reload failed for question %s: %v", question.ID, err)
		return
	}
	topN := question.Settings.TopWords
	if topN <= 0 {
		topN = defaultTopWords
	}
	s.broadcaster.BroadcastToSession(sessionID, EventWordsUpdated, map[string]interface{}{
		"questionId": question.ID,
		"words":      reduceWords(words, topN),
	})
}
