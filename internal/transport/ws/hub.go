package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"
)

// Message is the websocket envelope format, both directions.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Connection represents one websocket connection bound to a session.
type Connection struct {
	ID            string
	SessionID     string
	ParticipantID string // empty for presenter connections
	IsPresenter   bool
	Send          chan []byte

	mu     sync.Mutex
	closed bool
}

// trySend enqueues without blocking: a slow consumer loses frames rather
// than stalling the fan-out, and a connection already replaced by a
// reconnect absorbs the frame instead of panicking on its closed channel.
func (c *Connection) trySend(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.Send <- data:
	default:
	}
}

// shutdown closes Send exactly once; later sends become no-ops.
func (c *Connection) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.Send)
}

// Hub manages the connections subscribed to each session and routes
// broadcast envelopes to them. Every broadcast goes out through the
// backplane and comes back through the subscription, so instances sharing a
// backplane stay consistent. The hub is constructed and injected at process
// start; there is no package-level instance.
type Hub struct {
	backplane Backplane

	mu sync.RWMutex
	// presenterConns is keyed by session id, participantConns by session id
	// then participant id.
	presenterConns   map[string]*Connection
	participantConns map[string]map[string]*Connection

	register   chan *Connection
	unregister chan *Connection
}

// NewHub creates a hub on the given backplane.
func NewHub(backplane Backplane) *Hub {
	return &Hub{
		backplane:        backplane,
		presenterConns:   make(map[string]*Connection),
		participantConns: make(map[string]map[string]*Connection),
		register:         make(chan *Connection),
		unregister:       make(chan *Connection),
	}
}

// Run blocks, processing registrations and backplane deliveries until ctx
// is cancelled.
func (h *Hub) Run(ctx context.Context) {
	go func() {
		if err := h.backplane.Subscribe(ctx, h.deliver); err != nil && ctx.Err() == nil {
			log.Printf("backplane subscription ended: %v", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case conn := <-h.register:
			h.add(conn)
		case conn := <-h.unregister:
			h.remove(conn)
		}
	}
}

// Register adds a connection.
func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

// Unregister removes a connection.
func (h *Hub) Unregister(conn *Connection) {
	h.unregister <- conn
}

func (h *Hub) add(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conn.IsPresenter {
		if prior, ok := h.presenterConns[conn.SessionID]; ok {
			prior.shutdown()
		}
		h.presenterConns[conn.SessionID] = conn
		log.Printf("presenter connected to session %s", conn.SessionID)
		return
	}
	if h.participantConns[conn.SessionID] == nil {
		h.participantConns[conn.SessionID] = make(map[string]*Connection)
	}
	// A reconnect replaces the stale connection for the same identity.
	if prior, ok := h.participantConns[conn.SessionID][conn.ParticipantID]; ok {
		prior.shutdown()
	}
	h.participantConns[conn.SessionID][conn.ParticipantID] = conn
	log.Printf("participant %s connected to session %s", conn.ParticipantID, conn.SessionID)
}

func (h *Hub) remove(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conn.IsPresenter {
		if existing, ok := h.presenterConns[conn.SessionID]; ok && existing == conn {
			delete(h.presenterConns, conn.SessionID)
			conn.shutdown()
			log.Printf("presenter disconnected from session %s", conn.SessionID)
		}
		return
	}
	if participants, ok := h.participantConns[conn.SessionID]; ok {
		if existing, ok := participants[conn.ParticipantID]; ok && existing == conn {
			delete(participants, conn.ParticipantID)
			conn.shutdown()
			log.Printf("participant %s disconnected from session %s", conn.ParticipantID, conn.SessionID)
		}
	}
}

// deliver routes one backplane envelope to the local connections it targets.
func (h *Hub) deliver(env *Envelope) {
	if env.Scope == ScopeDisconnect {
		h.dropSession(env.SessionID)
		return
	}

	data, err := json.Marshal(&Message{Type: env.Event, Payload: env.Payload})
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	switch env.Scope {
	case ScopePresenter:
		if conn, ok := h.presenterConns[env.SessionID]; ok {
			conn.trySend(data)
		}
	case ScopeParticipant:
		if participants, ok := h.participantConns[env.SessionID]; ok {
			if conn, ok := participants[env.ParticipantID]; ok {
				conn.trySend(data)
			}
		}
	case ScopeSession:
		if conn, ok := h.presenterConns[env.SessionID]; ok {
			conn.trySend(data)
		}
		for _, conn := range h.participantConns[env.SessionID] {
			conn.trySend(data)
		}
	}
}

// dropSession closes every connection of an ended session.
func (h *Hub) dropSession(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conn, ok := h.presenterConns[sessionID]; ok {
		conn.shutdown()
	}
	delete(h.presenterConns, sessionID)
	for _, conn := range h.participantConns[sessionID] {
		conn.shutdown()
	}
	delete(h.participantConns, sessionID)
}

func (h *Hub) publish(env *Envelope) {
	if err := h.backplane.Publish(context.Background(), env); err != nil {
		log.Printf("broadcast publish failed: %v", err)
	}
}

// BroadcastToSession implements service.Broadcaster.
func (h *Hub) BroadcastToSession(sessionID string, event string, payload interface{}) {
	data, _ := json.Marshal(payload)
	h.publish(&Envelope{SessionID: sessionID, Scope: ScopeSession, Event: event, Payload: data})
}

// BroadcastToPresenter implements service.Broadcaster.
func (h *Hub) BroadcastToPresenter(sessionID string, event string, payload interface{}) {
	data, _ := json.Marshal(payload)
	h.publish(&Envelope{SessionID: sessionID, Scope: ScopePresenter, Event: event, Payload: data})
}

// BroadcastToParticipant implements service.Broadcaster.
func (h *Hub) BroadcastToParticipant(sessionID, participantID string, event string, payload interface{}) {
	data, _ := json.Marshal(payload)
	h.publish(&Envelope{SessionID: sessionID, Scope: ScopeParticipant, ParticipantID: participantID, Event: event, Payload: data})
}

// DisconnectSession implements service.Broadcaster.
func (h *Hub) DisconnectSession(sessionID string) {
	h.publish(&Envelope{SessionID: sessionID, Scope: ScopeDisconnect})
}
