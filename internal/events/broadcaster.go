package events

import (
	"sync"
	"sync/atomic"
)

// Subscriber receives live events. Its channel is closed on Unsubscribe or
// CloseAllSubscribers.
type Subscriber chan Event

// subscriberBuffer is how many events a slow subscriber may lag before
// events are dropped for it.
const subscriberBuffer = 64

// Broadcaster fans events out to live subscribers (WebSocket clients, the
// MQTT reporter). Delivery never blocks Emit.
type Broadcaster struct {
	mu      sync.RWMutex
	subs    map[Subscriber]struct{}
	dropped atomic.Int64
}

func newBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[Subscriber]struct{})}
}

var broadcaster = newBroadcaster()

func (b *Broadcaster) subscribe() Subscriber {
	ch := make(Subscriber, subscriberBuffer)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// unsubscribe is a no-op for a subscriber that is already closed.
func (b *Broadcaster) unsubscribe(sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[sub]; ok {
		delete(b.subs, sub)
		close(sub)
	}
}

func (b *Broadcaster) send(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for sub := range b.subs {
		select {
		case sub <- e:
		default:
			b.dropped.Add(1)
		}
	}
}

func (b *Broadcaster) closeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for sub := range b.subs {
		close(sub)
	}
	b.subs = make(map[Subscriber]struct{})
}

func (b *Broadcaster) count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Subscribe adds a live subscriber.
func Subscribe() Subscriber { return broadcaster.subscribe() }

// Unsubscribe removes sub and closes its channel.
func Unsubscribe(sub Subscriber) { broadcaster.unsubscribe(sub) }

func broadcast(e Event) { broadcaster.send(e) }

// CloseAllSubscribers removes and closes every subscriber. Used on shutdown.
func CloseAllSubscribers() { broadcaster.closeAll() }

// SubscriberCount returns the current number of subscribers.
func SubscriberCount() int { return broadcaster.count() }

// DroppedCount returns how many deliveries were skipped because a
// subscriber's buffer was full.
func DroppedCount() int64 { return broadcaster.dropped.Load() }

// RecentEvents returns up to the last n buffered events, oldest first.
// n <= 0 returns all of them.
func RecentEvents(n int) []Event { return buffer.Last(n) }
