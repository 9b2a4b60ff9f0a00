package editor

import (
	"sync"
	"time"
)

// EventKind identifies the type of surface event.
type EventKind string

const (
	// EventViewClosed fires when a buffer is torn down by the host.
	EventViewClosed EventKind = "view_closed"
	// EventSelectionModified fires when the user moves or changes the
	// selection in a buffer.
	EventSelectionModified EventKind = "selection_modified"
)

// Event is an immutable notification of surface activity.
type Event struct {
	Kind      EventKind
	ViewID    string
	Region    Region
	Timestamp time.Time
}

// Subscription receives events from an EventBus.
type Subscription struct {
	C  <-chan Event
	ch chan Event
}

// EventBus fans out surface events to all active subscribers. It is safe for
// concurrent use; hosts publish from their own threads.
type EventBus struct {
	mu   sync.RWMutex
	subs map[*Subscription]struct{}
}

// NewEventBus creates an EventBus ready for use.
func NewEventBus() *EventBus {
	return &EventBus{
		subs: make(map[*Subscription]struct{}),
	}
}

// Subscribe creates a new subscription with the given channel buffer size.
// The caller should read from sub.C and eventually call Unsubscribe.
func (b *EventBus) Subscribe(bufSize int) *Subscription {
	ch := make(chan Event, bufSize)
	sub := &Subscription{C: ch, ch: ch}

	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()

	return sub
}

// Unsubscribe removes the subscription and closes its channel.
func (b *EventBus) Unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subs[sub]; ok {
		delete(b.subs, sub)
		close(sub.ch)
	}
}

// Publish sends an event to all subscribers. If a subscriber's buffer is full
// the event is dropped for that subscriber so a slow consumer cannot stall
// the editing thread.
func (b *EventBus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subs {
		select {
		case sub.ch <- e:
		default:
		}
	}
}
