package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/google/uuid"

	"crowddeck/internal/apperr"
	"crowddeck/internal/cache"
	"crowddeck/internal/model"
	"crowddeck/internal/repository"
)

// joinCodeAlphabet excludes visually ambiguous glyphs (0/O, 1/I/L).
const (
	joinCodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
	joinCodeLength   = 6
	joinCodeAttempts = 10
)

// SessionService owns the session and question lifecycle: join-code
// allocation, the status state machines, and the single-active-question
// invariant. Activation commits in a single storage transaction, so no
// in-process lock is needed.
type SessionService struct {
	sessionRepo  repository.SessionRepo
	questionRepo repository.QuestionRepo
	sessionCache cache.SessionCache
	counterCache cache.CounterCache
	leaderboard  cache.LeaderboardCache
	ttl          time.Duration
	broadcaster  Broadcaster
}

// NewSessionService creates a new session service.
func NewSessionService(
	sessionRepo repository.SessionRepo,
	questionRepo repository.QuestionRepo,
	sessionCache cache.SessionCache,
	counterCache cache.CounterCache,
	leaderboard cache.LeaderboardCache,
	ttl time.Duration,
) *SessionService {
	return &SessionService{
		sessionRepo:  sessionRepo,
		questionRepo: questionRepo,
		sessionCache: sessionCache,
		counterCache: counterCache,
		leaderboard:  leaderboard,
		ttl:          ttl,
	}
}

// SetBroadcaster injects the broadcaster for realtime events.
func (s *SessionService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// CreateSession allocates a join code and creates the session.
func (s *SessionService) CreateSession(ctx context.Context, title string, mode model.SessionMode, ownerRef string, ttlHours int) (*model.Session, error) {
	ttl := s.ttl
	if ttlHours > 0 {
		ttl = time.Duration(ttlHours) * time.Hour
	}

	code, err := s.allocateJoinCode(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	session := &model.Session{
		ID:        uuid.New().String(),
		JoinCode:  code,
		Title:     title,
		Mode:      mode,
		Status:    model.SessionActive,
		OwnerRef:  ownerRef,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	meta := &model.SessionMeta{
		SessionID: session.ID,
		Status:    session.Status,
		Mode:      session.Mode,
		Title:     session.Title,
		ExpiresAt: session.ExpiresAt,
	}
	if err := s.sessionCache.SetMeta(ctx, code, meta); err != nil {
		return nil, fmt.Errorf("failed to cache session: %w", err)
	}

	return session, nil
}

// allocateJoinCode samples the ambiguity-free alphabet, retrying on
// collision up to the attempt bound.
func (s *SessionService) allocateJoinCode(ctx context.Context) (string, error) {
	for attempts := 0; attempts < joinCodeAttempts; attempts++ {
		code, err := randomJoinCode()
		if err != nil {
			return "", err
		}

		// Cheap cache check first, then the store.
		cached, err := s.sessionCache.Exists(ctx, code)
		if err != nil {
			return "", err
		}
		if cached {
			continue
		}
		inUse, err := s.sessionRepo.CodeInUse(ctx, code)
		if err != nil {
			return "", err
		}
		if !inUse {
			return code, nil
		}
	}
	return "", apperr.ErrCodeAllocationExhausted
}

func randomJoinCode() (string, error) {
	b := make([]byte, joinCodeLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	code := make([]byte, joinCodeLength)
	for i := range code {
		code[i] = joinCodeAlphabet[int(b[i])%len(joinCodeAlphabet)]
	}
	return string(code), nil
}

// ResolveJoinCode returns the session for a join code, failing when the code
// is unknown or the session is no longer accepting participants.
func (s *SessionService) ResolveJoinCode(ctx context.Context, code string) (*model.Session, error) {
	session, err := s.sessionRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve join code: %w", err)
	}
	if session == nil {
		return nil, apperr.ErrSessionNotFound
	}
	if session.Status != model.SessionActive {
		return nil, apperr.ErrSessionInactive
	}
	return session, nil
}

// GetSession returns the session by id.
func (s *SessionService) GetSession(ctx context.Context, id string) (*model.Session, error) {
	session, err := s.sessionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, apperr.ErrSessionNotFound
	}
	return session, nil
}

// CurrentQuestion returns the participant view of the session's active
// question, or nil when nothing is live.
func (s *SessionService) CurrentQuestion(ctx context.Context, session *model.Session) (*model.Question, error) {
	if session.CurrentQuestionID == "" {
		return nil, nil
	}
	question, err := s.questionRepo.GetByID(ctx, session.CurrentQuestionID)
	if err != nil {
		return nil, err
	}
	if question == nil {
		return nil, nil
	}
	return publicQuestion(question), nil
}

// AddQuestion authors a question on the session. DisplayOrder defaults to
// the end of the current list.
func (s *SessionService) AddQuestion(ctx context.Context, sessionID string, question *model.Question) (*model.Question, error) {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == model.SessionEnded {
		return nil, apperr.ErrSessionEnded
	}
	if err := validateQuestion(question); err != nil {
		return nil, err
	}

	if question.DisplayOrder == 0 {
		existing, err := s.questionRepo.ListBySession(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		question.DisplayOrder = len(existing) + 1
	}

	question.ID = uuid.New().String()
	question.SessionID = sessionID
	question.State = model.QuestionPending
	if err := s.questionRepo.Create(ctx, question); err != nil {
		return nil, fmt.Errorf("failed to create question: %w", err)
	}
	return question, nil
}

// ActivateQuestion makes the target the session's single active question.
// The pointer swap, the closing of prior questions and the target's state
// flip commit together, so concurrent activations serialize instead of
// leaving the pointer and the per-question states disagreeing.
func (s *SessionService) ActivateQuestion(ctx context.Context, sessionID, questionID string) (*model.Question, error) {
	question, err := s.questionRepo.GetByID(ctx, questionID)
	if err != nil {
		return nil, err
	}
	if question == nil || question.SessionID != sessionID {
		return nil, apperr.ErrQuestionNotFound
	}
	if !question.State.CanTransition(model.QuestionLive) {
		return nil, fmt.Errorf("cannot activate question in state %s: %w", question.State, apperr.ErrInvalidTransition)
	}

	now := time.Now()
	from := []model.QuestionState{model.QuestionPending, model.QuestionLocked, model.QuestionClosed}
	swapped, err := s.questionRepo.Activate(ctx, sessionID, questionID, from, now)
	if err != nil {
		return nil, fmt.Errorf("failed to activate question: %w", err)
	}
	if !swapped {
		return nil, apperr.ErrSessionInactive
	}
	question.State = model.QuestionLive
	question.ActivatedAt = &now

	if s.broadcaster != nil {
		s.broadcaster.BroadcastToSession(sessionID, EventQuestionActivated, publicQuestion(question))
	}
	return question, nil
}

// LockQuestion freezes submissions without deactivating the question.
func (s *SessionService) LockQuestion(ctx context.Context, sessionID, questionID string) error {
	return s.flipQuestion(ctx, sessionID, questionID,
		[]model.QuestionState{model.QuestionLive}, model.QuestionLocked, EventQuestionLocked)
}

// UnlockQuestion resumes submissions on a locked question.
func (s *SessionService) UnlockQuestion(ctx context.Context, sessionID, questionID string) error {
	return s.flipQuestion(ctx, sessionID, questionID,
		[]model.QuestionState{model.QuestionLocked}, model.QuestionLive, EventQuestionUnlocked)
}

// RevealResults shows results to participants. Irreversible for the question.
func (s *SessionService) RevealResults(ctx context.Context, sessionID, questionID string) error {
	return s.flipQuestion(ctx, sessionID, questionID,
		[]model.QuestionState{model.QuestionLive, model.QuestionLocked}, model.QuestionRevealed, EventResultsRevealed)
}

func (s *SessionService) flipQuestion(ctx context.Context, sessionID, questionID string, from []model.QuestionState, to model.QuestionState, event string) error {
	question, err := s.questionRepo.GetByID(ctx, questionID)
	if err != nil {
		return err
	}
	if question == nil || question.SessionID != sessionID {
		return apperr.ErrQuestionNotFound
	}

	ok, err := s.questionRepo.UpdateState(ctx, questionID, from, to, nil)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("question is %s: %w", question.State, apperr.ErrInvalidTransition)
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastToSession(sessionID, event, map[string]string{"questionId": questionID})
	}
	return nil
}

// Pause suspends the session.
func (s *SessionService) Pause(ctx context.Context, sessionID string) error {
	return s.shiftStatus(ctx, sessionID, model.SessionActive, model.SessionPaused, EventSessionPaused)
}

// Resume reactivates a paused session.
func (s *SessionService) Resume(ctx context.Context, sessionID string) error {
	return s.shiftStatus(ctx, sessionID, model.SessionPaused, model.SessionActive, EventSessionResumed)
}

func (s *SessionService) shiftStatus(ctx context.Context, sessionID string, from, to model.SessionStatus, event string) error {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if !from.CanTransition(to) {
		return apperr.ErrInvalidTransition
	}

	ok, err := s.sessionRepo.UpdateStatus(ctx, sessionID, from, to, nil)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("session is %s: %w", session.Status, apperr.ErrInvalidTransition)
	}

	if err := s.sessionCache.SetStatus(ctx, session.JoinCode, to); err != nil {
		return fmt.Errorf("failed to update cached status: %w", err)
	}
	if s.broadcaster != nil {
		s.broadcaster.BroadcastToSession(sessionID, event, map[string]string{"sessionId": sessionID})
	}
	return nil
}

// EndSession moves the session to its terminal status. Idempotent: ending an
// already-ended session succeeds without effect.
func (s *SessionService) EndSession(ctx context.Context, sessionID string) error {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.Status == model.SessionEnded {
		return nil
	}

	now := time.Now()
	ok, err := s.sessionRepo.UpdateStatus(ctx, sessionID, session.Status, model.SessionEnded, &now)
	if err != nil {
		return err
	}
	if !ok {
		// Lost the race to another end; same outcome.
		return nil
	}

	// Ended sessions leave the hot paths entirely: the join-code entry is
	// dropped so the code can be reallocated, and the leaderboard ZSET goes
	// with it. Final standings are rebuilt from the stored totals on demand.
	if err := s.sessionCache.Delete(ctx, session.JoinCode); err != nil {
		return fmt.Errorf("failed to evict cached session: %w", err)
	}
	if err := s.leaderboard.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to drop leaderboard: %w", err)
	}
	if session.CurrentQuestionID != "" {
		// Live counters have served their purpose once nothing can submit.
		if err := s.counterCache.Reset(ctx, session.CurrentQuestionID); err != nil {
			return fmt.Errorf("failed to reset counters: %w", err)
		}
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastToSession(sessionID, EventSessionEnded, map[string]string{"sessionId": sessionID})
		s.broadcaster.DisconnectSession(sessionID)
	}
	return nil
}

// Summary returns the session with its live participant count and questions.
func (s *SessionService) Summary(ctx context.Context, session *model.Session, participantCount int64) (*model.SessionSummary, error) {
	questions, err := s.questionRepo.ListBySession(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	return &model.SessionSummary{
		Session:          session,
		ParticipantCount: participantCount,
		Questions:        questions,
	}, nil
}

// publicQuestion strips grading fields before a question goes to
// participants.
func publicQuestion(q *model.Question) *model.Question {
	public := *q
	public.CorrectOption = nil
	public.CorrectText = ""
	return &public
}

// validateQuestion checks authoring constraints per type.
func validateQuestion(q *model.Question) error {
	switch q.Type {
	case model.QuestionTypePoll, model.QuestionTypeRanking:
		if len(q.Options) < 2 {
			return fmt.Errorf("%w: %s question needs at least two options", apperr.ErrValidation, q.Type)
		}
	case model.QuestionTypeQuizChoice:
		if len(q.Options) < 2 {
			return fmt.Errorf("%w: quiz_choice question needs at least two options", apperr.ErrValidation)
		}
		if q.CorrectOption == nil || *q.CorrectOption < 0 || *q.CorrectOption >= len(q.Options) {
			return fmt.Errorf("%w: quiz_choice question needs a valid correct option", apperr.ErrValidation)
		}
	case model.QuestionTypeQuizText:
		if q.CorrectText == "" {
			return fmt.Errorf("%w: quiz_text question needs a correct answer", apperr.ErrValidation)
		}
	case model.QuestionTypeScale:
		if q.Settings.ScaleMax <= q.Settings.ScaleMin {
			return fmt.Errorf("%w: scale question needs scaleMax > scaleMin", apperr.ErrValidation)
		}
	case model.QuestionTypeNPS, model.QuestionTypeWordCloud, model.QuestionTypeOpenText, model.QuestionTypeBrainstorm:
		// No extra authoring constraints.
	default:
		return fmt.Errorf("%w: unknown question type %q", apperr.ErrValidation, q.Type)
	}
	if q.Text == "" {
		return fmt.Errorf("%w: question text is required", apperr.ErrValidation)
	}
	return nil
}
