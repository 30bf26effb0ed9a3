package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// CounterCache keeps live per-question counters in Redis so result updates
// can be broadcast after each accepted response without re-reading Mongo.
// Counters are advisory: on-demand aggregation over the stored responses is
// the authoritative result.
type CounterCache interface {
	IncrResponses(ctx context.Context, questionID string) (int64, error)
	IncrOption(ctx context.Context, questionID string, optionIndex int) error
	GetLive(ctx context.Context, questionID string, optionCount int) (*LiveCounts, error)
	Reset(ctx context.Context, questionID string) error
}

// LiveCounts is the low-latency counter snapshot for a question.
type LiveCounts struct {
	QuestionID string `json:"questionId"`
	Responses  int64  `json:"responses"`
	Options    []int  `json:"options,omitempty"`
}

type counterCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCounterCache creates a new live counter cache.
func NewCounterCache(client *redis.Client, ttl time.Duration) CounterCache {
	return &counterCache{client: client, ttl: ttl}
}

func (c *counterCache) countKey(questionID string) string {
	return fmt.Sprintf("question:%s:responses", questionID)
}

func (c *counterCache) histKey(questionID string) string {
	return fmt.Sprintf("question:%s:options", questionID)
}

func (c *counterCache) IncrResponses(ctx context.Context, questionID string) (int64, error) {
	key := c.countKey(questionID)
	n, err := c.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	c.client.Expire(ctx, key, c.ttl)
	return n, nil
}

func (c *counterCache) IncrOption(ctx context.Context, questionID string, optionIndex int) error {
	key := c.histKey(questionID)
	if err := c.client.HIncrBy(ctx, key, strconv.Itoa(optionIndex), 1).Err(); err != nil {
		return err
	}
	return c.client.Expire(ctx, key, c.ttl).Err()
}

func (c *counterCache) GetLive(ctx context.Context, questionID string, optionCount int) (*LiveCounts, error) {
	live := &LiveCounts{QuestionID: questionID}

	n, err := c.client.Get(ctx, c.countKey(questionID)).Int64()
	if err != nil && err != redis.Nil {
		return nil, err
	}
	live.Responses = n

	if optionCount > 0 {
		hist, err := c.client.HGetAll(ctx, c.histKey(questionID)).Result()
		if err != nil {
			return nil, err
		}
		live.Options = make([]int, optionCount)
		for field, value := range hist {
			idx, err := strconv.Atoi(field)
			if err != nil || idx < 0 || idx >= optionCount {
				continue
			}
			count, _ := strconv.Atoi(value)
			live.Options[idx] = count
		}
	}
	return live, nil
}

func (c *counterCache) Reset(ctx context.Context, questionID string) error {
	return c.client.Del(ctx, c.countKey(questionID), c.histKey(questionID)).Err()
}
