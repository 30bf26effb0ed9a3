package service

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"crowddeck/internal/apperr"
	"crowddeck/internal/cache"
	"crowddeck/internal/model"
	"crowddeck/internal/repository"
)

// AnswerService is the response ingestion path: it validates a submission
// against the session and question state, computes correctness and score,
// and persists it exactly once. The unique (questionId, participantId)
// index is the authoritative dedup; everything before the insert is an
// optimization.
type AnswerService struct {
	sessionRepo     repository.SessionRepo
	questionRepo    repository.QuestionRepo
	participantRepo repository.ParticipantRepo
	responseRepo    repository.ResponseRepo
	counterCache    cache.CounterCache
	leaderboard     cache.LeaderboardCache
	tolerance       float64
	broadcaster     Broadcaster
}

// NewAnswerService creates a new answer service.
func NewAnswerService(
	sessionRepo repository.SessionRepo,
	questionRepo repository.QuestionRepo,
	participantRepo repository.ParticipantRepo,
	responseRepo repository.ResponseRepo,
	counterCache cache.CounterCache,
	leaderboard cache.LeaderboardCache,
	tolerance float64,
) *AnswerService {
	return &AnswerService{
		sessionRepo:     sessionRepo,
		questionRepo:    questionRepo,
		participantRepo: participantRepo,
		responseRepo:    responseRepo,
		counterCache:    counterCache,
		leaderboard:     leaderboard,
		tolerance:       tolerance,
	}
}

// SetBroadcaster injects the broadcaster for realtime events.
func (s *AnswerService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// Submit ingests one response. Duplicate submissions surface as
// apperr.ErrDuplicateResponse, a normal outcome.
func (s *AnswerService) Submit(ctx context.Context, sessionID, participantID, questionID string, payload model.ResponsePayload) (*model.Response, error) {
	session, question, err := loadActiveQuestion(ctx, s.sessionRepo, s.questionRepo, sessionID, questionID)
	if err != nil {
		return nil, err
	}

	if err := payload.Validate(question); err != nil {
		return nil, err
	}

	participant, err := requireParticipant(ctx, s.participantRepo, sessionID, participantID)
	if err != nil {
		return nil, err
	}

	// Pre-check to spare the common double-tap a transaction; the unique
	// index still arbitrates races.
	if exists, err := s.responseRepo.Exists(ctx, questionID, participantID); err != nil {
		return nil, err
	} else if exists {
		return nil, apperr.ErrDuplicateResponse
	}

	now := time.Now()
	responseTimeMs := 0
	if question.ActivatedAt != nil {
		responseTimeMs = int(now.Sub(*question.ActivatedAt).Milliseconds())
		if responseTimeMs < 0 {
			responseTimeMs = 0
		}
	}

	response := &model.Response{
		ID:             uuid.New().String(),
		QuestionID:     questionID,
		ParticipantID:  participantID,
		SessionID:      sessionID,
		Payload:        payload,
		ResponseTimeMs: responseTimeMs,
		SubmittedAt:    now,
	}

	if question.Type.IsQuiz() {
		correct := s.grade(question, payload)
		response.IsCorrect = &correct
		response.Score = Score(correct, responseTimeMs, question.TimeLimitSec*1000)
	}

	if err := s.responseRepo.InsertScored(ctx, response); err != nil {
		return nil, err
	}

	s.afterAccept(ctx, session, question, participant, response)
	return response, nil
}

// grade decides correctness for quiz types. Typed answers tolerate minor
// typos via edit-distance similarity.
func (s *AnswerService) grade(question *model.Question, payload model.ResponsePayload) bool {
	switch question.Type {
	case model.QuestionTypeQuizChoice:
		return question.CorrectOption != nil && payload.OptionIndex != nil &&
			*payload.OptionIndex == *question.CorrectOption
	case model.QuestionTypeQuizText:
		return MatchesAnswer(payload.Text, question.CorrectText, s.tolerance)
	default:
		return false
	}
}

// afterAccept bumps live counters and fans out updates. Best effort: a
// failed broadcast never rolls back an accepted response.
func (s *AnswerService) afterAccept(ctx context.Context, session *model.Session, question *model.Question, participant *model.Participant, response *model.Response) {
	if _, err := s.counterCache.IncrResponses(ctx, question.ID); err != nil {
		log.Printf("counter increment failed for question %s: %v", question.ID, err)
	}
	if response.Payload.Kind == model.PayloadChoice && response.Payload.OptionIndex != nil {
		if err := s.counterCache.IncrOption(ctx, question.ID, *response.Payload.OptionIndex); err != nil {
			log.Printf("option counter failed for question %s: %v", question.ID, err)
		}
	}

	// The ZSET mirrors the Mongo $inc: an atomic increment, never a
	// client-computed absolute, so concurrent submissions from one
	// participant cannot regress the running total.
	newTotal := 0
	if response.Score > 0 {
		total, err := s.leaderboard.IncrScore(ctx, session.ID, participant.ID, response.Score)
		if err != nil {
			log.Printf("leaderboard update failed for participant %s: %v", participant.ID, err)
		} else {
			newTotal = total
		}
	}

	if s.broadcaster == nil {
		return
	}

	live, err := s.counterCache.GetLive(ctx, question.ID, len(question.Options))
	if err != nil {
		log.Printf("live counter read failed for question %s: %v", question.ID, err)
		return
	}
	s.broadcaster.BroadcastToSession(session.ID, EventLiveUpdate, live)

	if response.Score > 0 {
		if rank, err := s.leaderboard.GetRank(ctx, session.ID, participant.ID); err == nil && rank > 0 {
			s.broadcaster.BroadcastToParticipant(session.ID, participant.ID, EventRankUpdate, map[string]interface{}{
				"totalScore": newTotal,
				"rank":       rank,
			})
		}
		entries, err := s.leaderboard.GetTop(ctx, session.ID, 20)
		if err == nil {
			s.broadcaster.BroadcastToPresenter(session.ID, EventLeaderboardUpdate, map[string]interface{}{
				"leaderboard": entries,
			})
		}
	}
}
