package events

import (
	"testing"
	"time"
)

func TestSubscribeUnsubscribe(t *testing.T) {
	// Start with no subscribers
	initial := SubscriberCount()

	sub1 := Subscribe()
	if SubscriberCount() != initial+1 {
		t.Errorf("expected %d subscribers after first subscribe, got %d", initial+1, SubscriberCount())
	}

	sub2 := Subscribe()
	if SubscriberCount() != initial+2 {
		t.Errorf("expected %d subscribers after second subscribe, got %d", initial+2, SubscriberCount())
	}

	Unsubscribe(sub1)
	if SubscriberCount() != initial+1 {
		t.Errorf("expected %d subscribers after unsubscribe, got %d", initial+1, SubscriberCount())
	}

	Unsubscribe(sub2)
	if SubscriberCount() != initial {
		t.Errorf("expected %d subscribers after all unsubscribed, got %d", initial, SubscriberCount())
	}
}

func TestBroadcastToSubscribers(t *testing.T) {
	sub := Subscribe()
	defer Unsubscribe(sub)

	// Emit an event
	Emit("info", "stage.opened", "test", map[string]interface{}{"stage_id": "test_stage"})

	// Should receive the event
	select {
	case e := <-sub:
		if e.Name != "stage.opened" {
			t.Errorf("expected event name 'stage.opened', got '%s'", e.Name)
		}
		if e.Fields["stage_id"] != "test_stage" {
			t.Errorf("expected stage_id 'test_stage', got '%v'", e.Fields["stage_id"])
		}
		if e.SessionID != SessionID() {
			t.Errorf("expected session id %q, got %q", SessionID(), e.SessionID)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("timeout waiting for broadcast event")
	}
}

func TestRecentEvents(t *testing.T) {
	Clear()

	// Emit some events
	for i := 0; i < 10; i++ {
		Emit("info", "stage.opened", "", map[string]interface{}{"i": i})
	}

	// Get recent 5
	recent := RecentEvents(5)
	if len(recent) != 5 {
		t.Errorf("expected 5 recent events, got %d", len(recent))
	}

	// First recent event should be i=5 (the 6th event, since we're getting last 5)
	if recent[0].Fields["i"] != 5 {
		t.Errorf("expected first recent event i=5, got %v", recent[0].Fields["i"])
	}

	// Get more than available
	all := RecentEvents(100)
	if len(all) != 10 {
		t.Errorf("expected 10 events when requesting 100, got %d", len(all))
	}

	// Get 0 should return all
	zero := RecentEvents(0)
	if len(zero) != 10 {
		t.Errorf("expected 10 events when requesting 0, got %d", len(zero))
	}
}

func TestMultipleSubscribersReceiveEvents(t *testing.T) {
	sub1 := Subscribe()
	sub2 := Subscribe()
	defer Unsubscribe(sub1)
	defer Unsubscribe(sub2)

	Emit("info", "map.started", "", map[string]interface{}{"content_id": "intro"})

	// Both should receive
	select {
	case e := <-sub1:
		if e.Name != "map.started" {
			t.Errorf("sub1: expected 'map.started', got '%s'", e.Name)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("sub1: timeout waiting for event")
	}

	select {
	case e := <-sub2:
		if e.Name != "map.started" {
			t.Errorf("sub2: expected 'map.started', got '%s'", e.Name)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("sub2: timeout waiting for event")
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	sub := Subscribe()
	Unsubscribe(sub)

	// Channel should be closed
	_, ok := <-sub
	if ok {
		t.Error("expected channel to be closed after unsubscribe")
	}
}

func TestCloseAllSubscribers(t *testing.T) {
	// Clear any existing subscribers
	CloseAllSubscribers()

	// Create multiple subscribers
	sub1 := Subscribe()
	sub2 := Subscribe()
	sub3 := Subscribe()

	if SubscriberCount() != 3 {
		t.Errorf("expected 3 subscribers, got %d", SubscriberCount())
	}

	// Close all subscribers
	CloseAllSubscribers()

	// All channels should be closed
	_, ok1 := <-sub1
	_, ok2 := <-sub2
	_, ok3 := <-sub3

	if ok1 || ok2 || ok3 {
		t.Error("expected all channels to be closed")
	}

	// Subscriber count should be 0
	if SubscriberCount() != 0 {
		t.Errorf("expected 0 subscribers after CloseAllSubscribers, got %d", SubscriberCount())
	}
}

func TestUnsubscribeAfterCloseAll(t *testing.T) {
	sub := Subscribe()
	CloseAllSubscribers()

	// must not panic on double close
	Unsubscribe(sub)
}

func TestEmitRejectsUnknownEvent(t *testing.T) {
	before := TotalCount()
	if _, err := Emit("info", "node.started", "", nil); err == nil {
		t.Error("expected error for unknown event")
	}
	if TotalCount() != before {
		t.Error("rejected events must not be counted")
	}
}

func TestNewSession(t *testing.T) {
	old := SessionID()
	next := NewSession()
	if next == old || next == "" {
		t.Errorf("expected a fresh session id, got %q (old %q)", next, old)
	}
	if SessionID() != next {
		t.Errorf("expected SessionID to return the new id")
	}
}

func TestRingBufferWraps(t *testing.T) {
	rb := NewRingBuffer(3)
	for i := 0; i < 5; i++ {
		rb.Add(Event{Name: "stage.opened", Fields: map[string]interface{}{"i": i}})
	}
	snap := rb.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("expected 3 events, got %d", len(snap))
	}
	if snap[0].Fields["i"] != 2 || snap[2].Fields["i"] != 4 {
		t.Errorf("unexpected order: %v, %v", snap[0].Fields, snap[2].Fields)
	}
	rb.Clear()
	if len(rb.Snapshot()) != 0 {
		t.Error("expected empty buffer after Clear")
	}
}

func TestRingBufferLast(t *testing.T) {
	rb := NewRingBuffer(4)
	for i := 0; i < 6; i++ {
		rb.Add(Event{Fields: map[string]interface{}{"i": i}})
	}
	if rb.Len() != 4 {
		t.Fatalf("expected 4 buffered events, got %d", rb.Len())
	}
	last := rb.Last(2)
	if len(last) != 2 || last[0].Fields["i"] != 4 || last[1].Fields["i"] != 5 {
		t.Errorf("unexpected Last(2): %v", last)
	}
}

func TestSlowSubscriberDropsEvents(t *testing.T) {
	Clear()
	CloseAllSubscribers()
	sub := Subscribe()
	defer Unsubscribe(sub)

	before := DroppedCount()
	for i := 0; i < subscriberBuffer+3; i++ {
		Emit("info", "stage.opened", "", nil)
	}
	if got := DroppedCount() - before; got != 3 {
		t.Errorf("expected 3 dropped deliveries, got %d", got)
	}
	if len(sub) != subscriberBuffer {
		t.Errorf("expected full subscriber buffer, got %d", len(sub))
	}
}

func TestNames(t *testing.T) {
	stage := Names("stage.")
	if len(stage) != 8 || stage[0] != "stage.created" {
		t.Errorf("unexpected stage names: %v", stage)
	}
	for _, n := range Names("") {
		if err := Validate(n); err != nil {
			t.Errorf("listed name %s does not validate", n)
		}
	}
	if err := Validate("stage.flew_away"); err == nil {
		t.Error("expected unknown event to be rejected")
	}
}
