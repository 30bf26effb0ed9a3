package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// LeaderboardCache handles Redis ZSET operations ranking participants by
// total score within a session.
type LeaderboardCache interface {
	SetScore(ctx context.Context, sessionID, participantID string, score int) error
	// IncrScore atomically adds delta and returns the new total, so two
	// in-flight submissions never clobber each other's running sum.
	IncrScore(ctx context.Context, sessionID, participantID string, delta int) (int, error)
	GetTop(ctx context.Context, sessionID string, limit int) ([]LeaderboardEntry, error)
	GetRank(ctx context.Context, sessionID, participantID string) (int64, error)
	Delete(ctx context.Context, sessionID string) error
}

// LeaderboardEntry is a single leaderboard row.
type LeaderboardEntry struct {
	ParticipantID string `json:"participantId"`
	Nickname      string `json:"nickname,omitempty"`
	Score         int    `json:"score"`
	Rank          int    `json:"rank"`
}

type leaderboardCache struct {
	client *redis.Client
}

// NewLeaderboardCache creates a new leaderboard cache.
func NewLeaderboardCache(client *redis.Client) LeaderboardCache {
	return &leaderboardCache{client: client}
}

func (c *leaderboardCache) key(sessionID string) string {
	return fmt.Sprintf("session:%s:lb", sessionID)
}

func (c *leaderboardCache) SetScore(ctx context.Context, sessionID, participantID string, score int) error {
	return c.client.ZAdd(ctx, c.key(sessionID), redis.Z{
		Score:  float64(score),
		Member: participantID,
	}).Err()
}

func (c *leaderboardCache) IncrScore(ctx context.Context, sessionID, participantID string, delta int) (int, error) {
	total, err := c.client.ZIncrBy(ctx, c.key(sessionID), float64(delta), participantID).Result()
	if err != nil {
		return 0, err
	}
	return int(total), nil
}

func (c *leaderboardCache) GetTop(ctx context.Context, sessionID string, limit int) ([]LeaderboardEntry, error) {
	results, err := c.client.ZRevRangeWithScores(ctx, c.key(sessionID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, len(results))
	for i, z := range results {
		entries[i] = LeaderboardEntry{
			ParticipantID: z.Member.(string),
			Score:         int(z.Score),
			Rank:          i + 1,
		}
	}
	return entries, nil
}

func (c *leaderboardCache) GetRank(ctx context.Context, sessionID, participantID string) (int64, error) {
	rank, err := c.client.ZRevRank(ctx, c.key(sessionID), participantID).Result()
	if err == redis.Nil {
		return -1, nil
	}
	return rank + 1, err // 1-indexed
}

func (c *leaderboardCache) Delete(ctx context.Context, sessionID string) error {
	return c.client.Del(ctx, c.key(sessionID)).Err()
}
