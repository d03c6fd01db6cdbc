package events

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// DefaultHistoryCap is the default size of the history ring.
const DefaultHistoryCap = 1000

// subQueueSize bounds each subscriber's delivery queue. Fan-out never
// blocks: a full queue drops the event for that subscriber (at-most-once,
// no retry).
const subQueueSize = 256

// Subscription is one reader's FIFO queue of published events.
type Subscription struct {
	ID string
	C  <-chan Event

	ch chan Event
}

// Bus is a process-wide pub/sub hub with a bounded history ring.
// Publish is serialized: concurrent publishers produce one total order
// observed identically by all subscribers.
type Bus struct {
	mu      sync.Mutex
	subs    map[string]*Subscription
	history []Event
	cap     int
	dropped uint64
}

// NewBus creates a bus with the given history capacity (≤0 uses the default).
func NewBus(historyCap int) *Bus {
	if historyCap <= 0 {
		historyCap = DefaultHistoryCap
	}
	return &Bus{
		subs: make(map[string]*Subscription),
		cap:  historyCap,
	}
}

// Subscribe registers a new reader and returns its queue.
func (b *Bus) Subscribe() *Subscription {
	ch := make(chan Event, subQueueSize)
	sub := &Subscription{ID: uuid.NewString(), C: ch, ch: ch}
	b.mu.Lock()
	b.subs[sub.ID] = sub
	b.mu.Unlock()
	return sub
}

// Unsubscribe detaches a reader and closes its queue.
func (b *Bus) Unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[sub.ID]; !ok {
		return
	}
	delete(b.subs, sub.ID)
	close(sub.ch)
}

// Publish appends the event to the history ring (oldest dropped at capacity)
// and fans it out to every subscriber without blocking.
func (b *Bus) Publish(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.history = append(b.history, e)
	if len(b.history) > b.cap {
		b.history = b.history[len(b.history)-b.cap:]
	}

	for _, sub := range b.subs {
		select {
		case sub.ch <- e:
		default:
			b.dropped++
			slog.Debug("event dropped for slow subscriber",
				"subscription", sub.ID, "type", e.Type)
		}
	}
}

// History returns the most recent limit events in insertion order.
// limit ≤ 0 returns the whole ring.
func (b *Bus) History(limit int) []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := len(b.history)
	if limit > 0 && limit < n {
		return append([]Event(nil), b.history[n-limit:]...)
	}
	return append([]Event(nil), b.history...)
}

// Subscribers returns the current subscriber count.
func (b *Bus) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Dropped returns the cumulative count of per-subscriber drops.
func (b *Bus) Dropped() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}
