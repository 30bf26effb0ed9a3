package ws

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"
)

// Scope selects who an envelope is delivered to within a session.
type Scope string

const (
	ScopeSession     Scope = "session"     // everyone subscribed to the session
	ScopePresenter   Scope = "presenter"   // the presenter connection only
	ScopeParticipant Scope = "participant" // one participant
	ScopeDisconnect  Scope = "disconnect"  // drop every connection of the session
)

// Envelope is the broadcast unit carried over the backplane. All broadcasts
// travel through it, so connections held by other instances see the same
// events as local ones.
type Envelope struct {
	SessionID     string          `json:"sessionId"`
	Scope         Scope           `json:"scope"`
	ParticipantID string          `json:"participantId,omitempty"`
	Event         string          `json:"event"`
	Payload       json.RawMessage `json:"payload,omitempty"`
}

// Backplane is the pluggable pub/sub fabric between server instances.
type Backplane interface {
	Publish(ctx context.Context, env *Envelope) error
	// Subscribe blocks, invoking deliver for every envelope until ctx is
	// cancelled. Publishers receive their own envelopes back; delivery to
	// local connections happens only here.
	Subscribe(ctx context.Context, deliver func(*Envelope)) error
}

const backplaneChannel = "crowddeck:events"

// RedisBackplane fans envelopes out across instances via Redis pub/sub.
type RedisBackplane struct {
	client *redis.Client
}

// NewRedisBackplane creates a Redis-backed backplane.
func NewRedisBackplane(client *redis.Client) *RedisBackplane {
	return &RedisBackplane{client: client}
}

func (b *RedisBackplane) Publish(ctx context.Context, env *Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, backplaneChannel, data).Err()
}

func (b *RedisBackplane) Subscribe(ctx context.Context, deliver func(*Envelope)) error {
	sub := b.client.Subscribe(ctx, backplaneChannel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var env Envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				log.Printf("backplane: dropping malformed envelope: %v", err)
				continue
			}
			deliver(&env)
		}
	}
}

// LocalBackplane is the single-instance backplane: a buffered channel loop
// with the same delivery semantics as the Redis one.
type LocalBackplane struct {
	ch chan *Envelope
}

// NewLocalBackplane creates an in-process backplane.
func NewLocalBackplane() *LocalBackplane {
	return &LocalBackplane{ch: make(chan *Envelope, 256)}
}

func (b *LocalBackplane) Publish(ctx context.Context, env *Envelope) error {
	select {
	case b.ch <- env:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *LocalBackplane) Subscribe(ctx context.Context, deliver func(*Envelope)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case env := <-b.ch:
			deliver(env)
		}
	}
}
