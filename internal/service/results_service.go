package service

import (
	"context"
	"fmt"
	"sort"

	"crowddeck/internal/apperr"
	"crowddeck/internal/model"
	"crowddeck/internal/repository"
)

// Engagement score weights: accuracy, speed, participation, completion.
const (
	weightAccuracy      = 0.4
	weightSpeed         = 0.3
	weightParticipation = 0.2
	weightCompletion    = 0.1
)

// ResultsService is the aggregation engine: stateless reducers over the
// stored submission sets, invoked on demand. Live counters for low-latency
// broadcast are handled separately by the ingestion paths.
type ResultsService struct {
	sessionRepo     repository.SessionRepo
	questionRepo    repository.QuestionRepo
	participantRepo repository.ParticipantRepo
	responseRepo    repository.ResponseRepo
	wordRepo        repository.WordRepo
	textRepo        repository.TextRepo
	brainstormRepo  repository.BrainstormRepo
}

// NewResultsService creates a new results service.
func NewResultsService(
	sessionRepo repository.SessionRepo,
	questionRepo repository.QuestionRepo,
	participantRepo repository.ParticipantRepo,
	responseRepo repository.ResponseRepo,
	wordRepo repository.WordRepo,
	textRepo repository.TextRepo,
	brainstormRepo repository.BrainstormRepo,
) *ResultsService {
	return &ResultsService{
		sessionRepo:     sessionRepo,
		questionRepo:    questionRepo,
		participantRepo: participantRepo,
		responseRepo:    responseRepo,
		wordRepo:        wordRepo,
		textRepo:        textRepo,
		brainstormRepo:  brainstormRepo,
	}
}

// publicTextStates is what participants may see; moderators see everything.
var publicTextStates = []model.ModerationState{model.ModerationApproved, model.ModerationHighlighted}

// ForQuestion aggregates one question. The switch is exhaustive over
// question types: a new type means one reducer here and one payload case,
// nothing else.
func (s *ResultsService) ForQuestion(ctx context.Context, questionID string, publicView bool) (*model.QuestionResults, error) {
	question, err := s.questionRepo.GetByID(ctx, questionID)
	if err != nil {
		return nil, err
	}
	if question == nil {
		return nil, apperr.ErrQuestionNotFound
	}
	if publicView && !resultsVisibleToParticipants(question) {
		return nil, apperr.ErrResultsNotRevealed
	}
	return s.aggregate(ctx, question, publicView)
}

// resultsVisibleToParticipants gates the public results view. Word clouds,
// moderated text and brainstorms are visible while live; everything else
// waits for the reveal.
func resultsVisibleToParticipants(q *model.Question) bool {
	switch q.Type {
	case model.QuestionTypeWordCloud, model.QuestionTypeOpenText, model.QuestionTypeBrainstorm:
		return true
	}
	return q.IsResultsVisible()
}

func (s *ResultsService) aggregate(ctx context.Context, question *model.Question, publicView bool) (*model.QuestionResults, error) {
	results := &model.QuestionResults{QuestionID: question.ID, Type: question.Type}

	switch question.Type {
	case model.QuestionTypePoll, model.QuestionTypeQuizChoice:
		responses, err := s.responseRepo.ListByQuestion(ctx, question.ID)
		if err != nil {
			return nil, err
		}
		results.Choice = reduceChoice(responses, len(question.Options))
		results.ResponseCount = len(responses)

	case model.QuestionTypeQuizText:
		responses, err := s.responseRepo.ListByQuestion(ctx, question.ID)
		if err != nil {
			return nil, err
		}
		// Typed quiz answers aggregate as correct/incorrect counts.
		correct := 0
		for _, r := range responses {
			if r.IsCorrect != nil && *r.IsCorrect {
				correct++
			}
		}
		results.Choice = &model.ChoiceResult{Counts: []int{correct, len(responses) - correct}, Total: len(responses)}
		results.ResponseCount = len(responses)

	case model.QuestionTypeScale:
		responses, err := s.responseRepo.ListByQuestion(ctx, question.ID)
		if err != nil {
			return nil, err
		}
		results.Scale = reduceScale(responses)
		results.ResponseCount = len(responses)

	case model.QuestionTypeNPS:
		responses, err := s.responseRepo.ListByQuestion(ctx, question.ID)
		if err != nil {
			return nil, err
		}
		results.NPS = reduceNPS(responses)
		results.ResponseCount = len(responses)

	case model.QuestionTypeRanking:
		responses, err := s.responseRepo.ListByQuestion(ctx, question.ID)
		if err != nil {
			return nil, err
		}
		results.Ranking = reduceRanking(responses, len(question.Options))
		results.ResponseCount = len(responses)

	case model.QuestionTypeWordCloud:
		words, err := s.wordRepo.ListByQuestion(ctx, question.ID)
		if err != nil {
			return nil, err
		}
		topN := question.Settings.TopWords
		if topN <= 0 {
			topN = defaultTopWords
		}
		results.Words = reduceWords(words, topN)
		results.ResponseCount = len(words)

	case model.QuestionTypeOpenText:
		states := publicTextStates
		if !publicView {
			states = nil // moderator view includes pending and hidden
		}
		texts, err := s.textRepo.ListByQuestion(ctx, question.ID, states)
		if err != nil {
			return nil, err
		}
		results.Texts = texts
		results.ResponseCount = len(texts)

	case model.QuestionTypeBrainstorm:
		ideas, err := s.brainstormRepo.ListIdeas(ctx, question.ID)
		if err != nil {
			return nil, err
		}
		results.Ideas = reduceIdeas(ideas)
		results.ResponseCount = len(ideas)

	default:
		return nil, fmt.Errorf("%w: unknown question type %q", apperr.ErrValidation, question.Type)
	}

	return results, nil
}

// Engagement computes the composite per-participant engagement score over a
// session: accuracy on quiz questions, speed relative to time limits,
// participation across all questions, and completion of questions that ran.
func (s *ResultsService) Engagement(ctx context.Context, sessionID string) ([]model.EngagementScore, error) {
	questions, err := s.questionRepo.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	participants, err := s.participantRepo.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	responses, err := s.responseRepo.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	questionByID := make(map[string]*model.Question, len(questions))
	ranCount := 0
	for _, q := range questions {
		questionByID[q.ID] = q
		if q.ActivatedAt != nil {
			ranCount++
		}
	}

	byParticipant := make(map[string][]*model.Response)
	for _, r := range responses {
		byParticipant[r.ParticipantID] = append(byParticipant[r.ParticipantID], r)
	}

	scores := make([]model.EngagementScore, 0, len(participants))
	for _, p := range participants {
		scores = append(scores, engagementFor(p, byParticipant[p.ID], questionByID, len(questions), ranCount))
	}
	sort.Slice(scores, func(i, j int) bool { return scores[i].Score > scores[j].Score })
	return scores, nil
}

// engagementFor blends the four components with the 0.4/0.3/0.2/0.1 weights
// into a 0-100 score.
func engagementFor(p *model.Participant, responses []*model.Response, questions map[string]*model.Question, totalQuestions, ranQuestions int) model.EngagementScore {
	score := model.EngagementScore{ParticipantID: p.ID, Nickname: p.Nickname}

	quizAnswered, quizCorrect := 0, 0
	speedSum, speedCount := 0.0, 0
	answeredRan := 0

	for _, r := range responses {
		q := questions[r.QuestionID]
		if q == nil {
			continue
		}
		if q.ActivatedAt != nil {
			answeredRan++
		}
		if q.Type.IsQuiz() {
			quizAnswered++
			if r.IsCorrect != nil && *r.IsCorrect {
				quizCorrect++
			}
			if q.TimeLimitSec > 0 {
				remaining := 1 - float64(r.ResponseTimeMs)/float64(q.TimeLimitSec*1000)
				if remaining < 0 {
					remaining = 0
				}
				speedSum += remaining
				speedCount++
			}
		}
	}

	if quizAnswered > 0 {
		score.Accuracy = float64(quizCorrect) / float64(quizAnswered)
	}
	if speedCount > 0 {
		score.Speed = speedSum / float64(speedCount)
	}
	if totalQuestions > 0 {
		score.Participation = float64(len(responses)) / float64(totalQuestions)
	}
	if ranQuestions > 0 {
		score.Completion = float64(answeredRan) / float64(ranQuestions)
	}

	score.Score = 100 * (weightAccuracy*score.Accuracy +
		weightSpeed*score.Speed +
		weightParticipation*score.Participation +
		weightCompletion*score.Completion)
	return score
}

// Export produces the flat snapshot consumed by the export collaborator.
func (s *ResultsService) Export(ctx context.Context, sessionID string) (*model.SessionExport, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, apperr.ErrSessionNotFound
	}

	questions, err := s.questionRepo.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	export := &model.SessionExport{Session: session}
	for _, q := range questions {
		results, err := s.aggregate(ctx, q, false)
		if err != nil {
			return nil, err
		}
		export.Questions = append(export.Questions, results)
	}

	engagement, err := s.Engagement(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	export.Engagement = engagement
	return export, nil
}
