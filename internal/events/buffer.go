package events

import "sync"

// RingBuffer keeps the most recent events for late subscribers and /events.
type RingBuffer struct {
	mu    sync.RWMutex
	slots []Event
	start int // oldest event
	n     int
}

func NewRingBuffer(size int) *RingBuffer {
	return &RingBuffer{slots: make([]Event, size)}
}

// Add stores e, overwriting the oldest event when full.
func (rb *RingBuffer) Add(e Event) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	if rb.n < len(rb.slots) {
		rb.slots[(rb.start+rb.n)%len(rb.slots)] = e
		rb.n++
		return
	}
	rb.slots[rb.start] = e
	rb.start = (rb.start + 1) % len(rb.slots)
}

// Last returns up to n of the newest events, oldest first. n <= 0 means all.
func (rb *RingBuffer) Last(n int) []Event {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	if n <= 0 || n > rb.n {
		n = rb.n
	}
	out := make([]Event, n)
	first := rb.start + rb.n - n
	for i := range out {
		out[i] = rb.slots[(first+i)%len(rb.slots)]
	}
	return out
}

// Snapshot returns every buffered event, oldest first.
func (rb *RingBuffer) Snapshot() []Event { return rb.Last(0) }

func (rb *RingBuffer) Len() int {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.n
}

func (rb *RingBuffer) Clear() {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	clear(rb.slots)
	rb.start, rb.n = 0, 0
}
