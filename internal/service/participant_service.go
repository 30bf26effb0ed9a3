package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"time"

	"github.com/google/uuid"

	"crowddeck/internal/apperr"
	"crowddeck/internal/cache"
	"crowddeck/internal/model"
	"crowddeck/internal/repository"
)

// identityTokenPattern is the expected shape of a client-held identity
// token: 32 lowercase hex characters.
var identityTokenPattern = regexp.MustCompile(`^[a-f0-9]{32}$`)

// ParticipantService is the identity and connection tracker. A durable
// identity token maps to at most one participant row per session; the live
// connection id is ephemeral and rebound on every reconnect.
type ParticipantService struct {
	participantRepo repository.ParticipantRepo
	leaderboard     cache.LeaderboardCache
	sessionSvc      *SessionService
	authSvc         *AuthService
	broadcaster     Broadcaster
}

// NewParticipantService creates a new participant service.
func NewParticipantService(
	participantRepo repository.ParticipantRepo,
	leaderboard cache.LeaderboardCache,
	sessionSvc *SessionService,
	authSvc *AuthService,
) *ParticipantService {
	return &ParticipantService{
		participantRepo: participantRepo,
		leaderboard:     leaderboard,
		sessionSvc:      sessionSvc,
		authSvc:         authSvc,
	}
}

// SetBroadcaster injects the broadcaster for realtime events.
func (s *ParticipantService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// ResolveIdentity returns the presented token unchanged when it is well
// formed, otherwise mints a fresh one. Idempotent for valid tokens, so a
// reconnecting client keeps its identity.
func (s *ParticipantService) ResolveIdentity(existing string) (string, error) {
	if identityTokenPattern.MatchString(existing) {
		return existing, nil
	}
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to mint identity token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Join resolves a join code and attaches the identity to the session,
// returning the channel token for the realtime connection.
func (s *ParticipantService) Join(ctx context.Context, code, existingToken, nickname string) (*model.JoinResponse, error) {
	session, err := s.sessionSvc.ResolveJoinCode(ctx, code)
	if err != nil {
		return nil, err
	}

	token, err := s.ResolveIdentity(existingToken)
	if err != nil {
		return nil, err
	}

	participant, err := s.Attach(ctx, session.ID, token, "", nickname)
	if err != nil {
		return nil, err
	}

	channelToken, err := s.authSvc.GenerateChannelToken(session.ID, participant.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate channel token: %w", err)
	}

	return &model.JoinResponse{
		SessionID:     session.ID,
		ParticipantID: participant.ID,
		IdentityToken: token,
		ChannelToken:  channelToken,
		Title:         session.Title,
		Mode:          string(session.Mode),
		ExpiresAt:     session.ExpiresAt,
	}, nil
}

// Attach binds an identity to a live connection. The reconnect path rebinds
// the existing row; a fresh identity creates one. When two connections race
// on the same new identity, the unique index lets one insert win and the
// other retries as a lookup, so the participant and its score are never
// duplicated.
func (s *ParticipantService) Attach(ctx context.Context, sessionID, identityToken, connectionID, nickname string) (*model.Participant, error) {
	now := time.Now()

	existing, err := s.participantRepo.GetByToken(ctx, sessionID, identityToken)
	if err != nil {
		return nil, fmt.Errorf("failed to look up participant: %w", err)
	}
	if existing != nil {
		return s.rebind(ctx, existing, connectionID, nickname, now)
	}

	participant := &model.Participant{
		ID:            uuid.New().String(),
		SessionID:     sessionID,
		IdentityToken: identityToken,
		ConnectionID:  connectionID,
		Nickname:      nickname,
		IsConnected:   connectionID != "",
		TotalScore:    0,
		JoinedAt:      now,
		LastSeenAt:    now,
	}
	err = s.participantRepo.Create(ctx, participant)
	if errors.Is(err, repository.ErrIdentityTaken) {
		existing, err = s.participantRepo.GetByToken(ctx, sessionID, identityToken)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, apperr.ErrParticipantNotFound
		}
		return s.rebind(ctx, existing, connectionID, nickname, now)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create participant: %w", err)
	}

	if err := s.leaderboard.SetScore(ctx, sessionID, participant.ID, 0); err != nil {
		return nil, fmt.Errorf("failed to init leaderboard: %w", err)
	}
	return participant, nil
}

// Connect binds a realtime connection to an already-joined participant.
// Presence events track live connections, so joined fires here rather than
// at the join call.
func (s *ParticipantService) Connect(ctx context.Context, sessionID, participantID, connectionID string) (*model.Participant, error) {
	participant, err := s.participantRepo.GetByID(ctx, participantID)
	if err != nil {
		return nil, err
	}
	if participant == nil || participant.SessionID != sessionID {
		return nil, apperr.ErrParticipantNotFound
	}
	participant, err = s.rebind(ctx, participant, connectionID, "", time.Now())
	if err != nil {
		return nil, err
	}
	s.notifyPresence(ctx, sessionID, EventParticipantJoined, participant)
	return participant, nil
}

func (s *ParticipantService) rebind(ctx context.Context, participant *model.Participant, connectionID, nickname string, now time.Time) (*model.Participant, error) {
	if participant.IsRemoved {
		return nil, apperr.ErrParticipantRemoved
	}
	if err := s.participantRepo.Rebind(ctx, participant.ID, connectionID, nickname, now); err != nil {
		return nil, fmt.Errorf("failed to rebind connection: %w", err)
	}
	participant.ConnectionID = connectionID
	participant.IsConnected = connectionID != ""
	participant.LastSeenAt = now
	if nickname != "" {
		participant.Nickname = nickname
	}
	return participant, nil
}

// Detach records a transport disconnect. The participant row survives for
// later reconnect and final reporting.
func (s *ParticipantService) Detach(ctx context.Context, connectionID string) {
	participant, err := s.participantRepo.DetachConnection(ctx, connectionID, time.Now())
	if err != nil {
		// Disconnects are best effort; the next attach rebinds anyway.
		return
	}
	if participant != nil {
		s.notifyPresence(ctx, participant.SessionID, EventParticipantLeft, participant)
	}
}

// Remove soft-removes a participant (moderation ban). Responses persist.
func (s *ParticipantService) Remove(ctx context.Context, sessionID, participantID string) error {
	participant, err := s.participantRepo.GetByID(ctx, participantID)
	if err != nil {
		return err
	}
	if participant == nil || participant.SessionID != sessionID {
		return apperr.ErrParticipantNotFound
	}
	if err := s.participantRepo.SoftRemove(ctx, participantID); err != nil {
		return err
	}
	s.notifyPresence(ctx, sessionID, EventParticipantLeft, participant)
	return nil
}

// GetParticipant returns the participant by id.
func (s *ParticipantService) GetParticipant(ctx context.Context, participantID string) (*model.Participant, error) {
	participant, err := s.participantRepo.GetByID(ctx, participantID)
	if err != nil {
		return nil, err
	}
	if participant == nil {
		return nil, apperr.ErrParticipantNotFound
	}
	return participant, nil
}

// CountConnected returns the number of participants currently connected.
func (s *ParticipantService) CountConnected(ctx context.Context, sessionID string) (int64, error) {
	return s.participantRepo.CountConnected(ctx, sessionID)
}

// Leaderboard returns the top participants with nicknames filled in. When
// the ZSET is gone (ended session, cache restart) the standings are rebuilt
// from the stored totals, which remain authoritative.
func (s *ParticipantService) Leaderboard(ctx context.Context, sessionID string, limit int) ([]cache.LeaderboardEntry, error) {
	entries, err := s.leaderboard.GetTop(ctx, sessionID, limit)
	if err != nil {
		return nil, err
	}

	participants, err := s.participantRepo.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return standingsFromTotals(participants, limit), nil
	}

	nicknames := make(map[string]string, len(participants))
	for _, p := range participants {
		nicknames[p.ID] = p.Nickname
	}
	for i := range entries {
		entries[i].Nickname = nicknames[entries[i].ParticipantID]
	}
	return entries, nil
}

// standingsFromTotals ranks participants by their stored total score,
// breaking ties by join order.
func standingsFromTotals(participants []*model.Participant, limit int) []cache.LeaderboardEntry {
	sorted := make([]*model.Participant, len(participants))
	copy(sorted, participants)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].TotalScore != sorted[j].TotalScore {
			return sorted[i].TotalScore > sorted[j].TotalScore
		}
		return sorted[i].JoinedAt.Before(sorted[j].JoinedAt)
	})
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	entries := make([]cache.LeaderboardEntry, len(sorted))
	for i, p := range sorted {
		entries[i] = cache.LeaderboardEntry{
			ParticipantID: p.ID,
			Nickname:      p.Nickname,
			Score:         p.TotalScore,
			Rank:          i + 1,
		}
	}
	return entries
}

func (s *ParticipantService) notifyPresence(ctx context.Context, sessionID, event string, participant *model.Participant) {
	if s.broadcaster == nil {
		return
	}
	count, err := s.participantRepo.CountConnected(ctx, sessionID)
	if err != nil {
		count = 0
	}
	s.broadcaster.BroadcastToSession(sessionID, event, map[string]interface{}{
		"participantId": participant.ID,
		"nickname":      participant.Nickname,
		"count":         count,
	})
}
