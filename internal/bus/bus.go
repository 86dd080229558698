// Package bus provides the in-process notification bus that fans out
// help-request state changes to connected observers.
//
// Delivery is best-effort and at-most-once per subscriber: a subscriber with
// a full buffer misses the event, and a subscriber connecting after an event
// never sees it. Observers re-fetch authoritative state on a polling cadence
// as the consistency backstop.
package bus

import "sync"

// EventType identifies the kind of state change being announced.
type EventType string

const (
	EventNewHelpRequest  EventType = "new_help_request"
	EventRequestResolved EventType = "request_resolved"
)

// Event is one state-change notification.
type Event struct {
	Type       EventType `json:"type"`
	RequestID  string    `json:"request_id,omitempty"`
	Question   string    `json:"question,omitempty"`
	CustomerID string    `json:"customer_id,omitempty"`
}

// subscriberBuffer bounds each subscriber's pending events.
const subscriberBuffer = 16

// Bus is a single-producer/multi-consumer publish channel.
type Bus struct {
	mu   sync.Mutex
	subs map[*Subscriber]struct{}
}

// Subscriber receives published events until closed.
type Subscriber struct {
	bus  *Bus
	ch   chan Event
	once sync.Once
}

// New creates an empty Bus.
func New() *Bus {
	return &Bus{subs: make(map[*Subscriber]struct{})}
}

// Subscribe registers a new observer with a bounded event buffer.
func (b *Bus) Subscribe() *Subscriber {
	sub := &Subscriber{bus: b, ch: make(chan Event, subscriberBuffer)}
	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()
	return sub
}

// Publish delivers ev to every current subscriber without blocking.
// A subscriber whose buffer is full drops the event.
func (b *Bus) Publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for sub := range b.subs {
		select {
		case sub.ch <- ev:
		default:
		}
	}
}

// Subscribers returns the number of registered observers.
func (b *Bus) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Events returns the subscriber's receive channel. It is closed by Close.
func (s *Subscriber) Events() <-chan Event {
	return s.ch
}

// Close unregisters the subscriber and closes its channel. Safe to call
// more than once.
func (s *Subscriber) Close() {
	s.once.Do(func() {
		s.bus.mu.Lock()
		delete(s.bus.subs, s)
		close(s.ch)
		s.bus.mu.Unlock()
	})
}
