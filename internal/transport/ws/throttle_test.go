package ws

import (
	"testing"
	"time"
)

func TestThrottleAllowsUpToLimit(t *testing.T) {
	th := NewThrottle(3, time.Second)
	for i := 0; i < 3; i++ {
		if !th.Allow("conn1", "submit_response") {
			t.Fatalf("event %d within limit was rejected", i)
		}
	}
	if th.Allow("conn1", "submit_response") {
		t.Fatal("event over the limit was allowed")
	}
}

func TestThrottleIsPerEventType(t *testing.T) {
	th := NewThrottle(1, time.Second)
	if !th.Allow("conn1", "submit_response") {
		t.Fatal("first submit rejected")
	}
	if !th.Allow("conn1", "vote_idea") {
		t.Fatal("different event type must have its own window")
	}
	if th.Allow("conn1", "submit_response") {
		t.Fatal("second submit should be rejected")
	}
}

func TestThrottleIsPerConnection(t *testing.T) {
	th := NewThrottle(1, time.Second)
	if !th.Allow("conn1", "vote_idea") {
		t.Fatal("first connection rejected")
	}
	if !th.Allow("conn2", "vote_idea") {
		t.Fatal("second connection must have its own window")
	}
}

func TestThrottleWindowSlides(t *testing.T) {
	th := NewThrottle(2, 20*time.Millisecond)
	if !th.Allow("conn1", "e") || !th.Allow("conn1", "e") {
		t.Fatal("initial events rejected")
	}
	if th.Allow("conn1", "e") {
		t.Fatal("third event inside the window was allowed")
	}
	time.Sleep(30 * time.Millisecond)
	if !th.Allow("conn1", "e") {
		t.Fatal("event after the window expired was rejected")
	}
}

func TestThrottleForget(t *testing.T) {
	th := NewThrottle(1, time.Minute)
	th.Allow("conn1", "e")
	if th.Allow("conn1", "e") {
		t.Fatal("limit should be hit")
	}
	th.Forget("conn1")
	if !th.Allow("conn1", "e") {
		t.Fatal("state should reset after Forget")
	}
}
