package ws

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func testConn(sessionID, participantID string, presenter bool) *Connection {
	return &Connection{
		ID:            sessionID + "/" + participantID,
		SessionID:     sessionID,
		ParticipantID: participantID,
		IsPresenter:   presenter,
		Send:          make(chan []byte, 8),
	}
}

func drain(t *testing.T, conn *Connection) *Message {
	t.Helper()
	select {
	case data, ok := <-conn.Send:
		if !ok {
			return nil
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("malformed frame: %v", err)
		}
		return &msg
	default:
		return nil
	}
}

func TestHubDeliversSessionScope(t *testing.T) {
	h := NewHub(NewLocalBackplane())
	presenter := testConn("s1", "", true)
	p1 := testConn("s1", "pa", false)
	p2 := testConn("s1", "pb", false)
	other := testConn("s2", "pc", false)
	for _, c := range []*Connection{presenter, p1, p2, other} {
		h.add(c)
	}

	h.deliver(&Envelope{SessionID: "s1", Scope: ScopeSession, Event: "question_activated"})

	for _, c := range []*Connection{presenter, p1, p2} {
		msg := drain(t, c)
		if msg == nil || msg.Type != "question_activated" {
			t.Fatalf("connection %s missed the broadcast: %+v", c.ID, msg)
		}
	}
	if msg := drain(t, other); msg != nil {
		t.Fatalf("other session received the broadcast: %+v", msg)
	}
}

func TestHubDeliversPresenterScope(t *testing.T) {
	h := NewHub(NewLocalBackplane())
	presenter := testConn("s1", "", true)
	participant := testConn("s1", "pa", false)
	h.add(presenter)
	h.add(participant)

	h.deliver(&Envelope{SessionID: "s1", Scope: ScopePresenter, Event: "live_update"})

	if msg := drain(t, presenter); msg == nil || msg.Type != "live_update" {
		t.Fatalf("presenter missed the event: %+v", msg)
	}
	if msg := drain(t, participant); msg != nil {
		t.Fatalf("participant received a presenter-scoped event: %+v", msg)
	}
}

func TestHubDeliversParticipantScope(t *testing.T) {
	h := NewHub(NewLocalBackplane())
	p1 := testConn("s1", "pa", false)
	p2 := testConn("s1", "pb", false)
	h.add(p1)
	h.add(p2)

	h.deliver(&Envelope{SessionID: "s1", Scope: ScopeParticipant, ParticipantID: "pb", Event: "response_accepted"})

	if msg := drain(t, p1); msg != nil {
		t.Fatalf("wrong participant received the event: %+v", msg)
	}
	if msg := drain(t, p2); msg == nil || msg.Type != "response_accepted" {
		t.Fatalf("target participant missed the event: %+v", msg)
	}
}

func TestHubDisconnectScopeClosesConnections(t *testing.T) {
	h := NewHub(NewLocalBackplane())
	presenter := testConn("s1", "", true)
	participant := testConn("s1", "pa", false)
	h.add(presenter)
	h.add(participant)

	h.deliver(&Envelope{SessionID: "s1", Scope: ScopeDisconnect})

	for _, c := range []*Connection{presenter, participant} {
		if _, open := <-c.Send; open {
			t.Fatalf("connection %s send channel should be closed", c.ID)
		}
	}
	if len(h.presenterConns) != 0 || len(h.participantConns["s1"]) != 0 {
		t.Fatal("connection maps should be emptied")
	}
}

func TestHubReconnectReplacesStaleConnection(t *testing.T) {
	h := NewHub(NewLocalBackplane())
	stale := testConn("s1", "pa", false)
	h.add(stale)
	fresh := &Connection{ID: "fresh", SessionID: "s1", ParticipantID: "pa", Send: make(chan []byte, 8)}
	h.add(fresh)

	if _, open := <-stale.Send; open {
		t.Fatal("stale connection should be closed on reconnect")
	}

	h.deliver(&Envelope{SessionID: "s1", Scope: ScopeParticipant, ParticipantID: "pa", Event: "e"})
	if msg := drain(t, fresh); msg == nil {
		t.Fatal("fresh connection missed the event")
	}
}

func TestSendAfterReconnectDoesNotPanic(t *testing.T) {
	h := NewHub(NewLocalBackplane())
	stale := testConn("s1", "pa", false)
	h.add(stale)

	// The join ack races the reconnect: by the time it is sent, the same
	// identity has registered a fresh connection and the stale one is closed.
	fresh := &Connection{ID: "fresh", SessionID: "s1", ParticipantID: "pa", Send: make(chan []byte, 8)}
	h.add(fresh)

	stale.trySend([]byte(`{"type":"session_joined"}`))
	if msg := drain(t, stale); msg != nil {
		t.Fatalf("closed connection should drop the frame, got %+v", msg)
	}

	// Closing again is a no-op, not a double-close panic.
	stale.shutdown()

	fresh.trySend([]byte(`{"type":"session_joined"}`))
	if msg := drain(t, fresh); msg == nil || msg.Type != "session_joined" {
		t.Fatalf("fresh connection missed the ack: %+v", msg)
	}
}

func TestLocalBackplaneRoundTrip(t *testing.T) {
	b := NewLocalBackplane()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan *Envelope, 1)
	go b.Subscribe(ctx, func(env *Envelope) { got <- env })

	if err := b.Publish(ctx, &Envelope{SessionID: "s1", Scope: ScopeSession, Event: "e"}); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	select {
	case env := <-got:
		if env.SessionID != "s1" || env.Event != "e" {
			t.Fatalf("unexpected envelope: %+v", env)
		}
	case <-time.After(time.Second):
		t.Fatal("envelope never delivered")
	}
}
