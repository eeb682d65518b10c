// Package progress pushes batch progress to remote consumers.
//
// A Hub holds at most one subscriber per session id. Publishers never block:
// messages for a session nobody listens to, or whose listener has fallen
// behind, are dropped. A Tracker turns status transitions of a run into
// percentage events, and ServeSSE streams a subscription as Server-Sent
// Events.
package progress

import (
	"sync"
)

// DefaultBuffer is the per-subscriber queue length.
const DefaultBuffer = 64

// Event is one progress message.
type Event struct {
	// Progress is the completed share of the run, 0 to 100.
	Progress int `json:"progress"`

	// CompletedItem is the id of the track whose completion caused the event.
	CompletedItem string `json:"completedItem,omitempty"`

	// Status is the terminal status of CompletedItem.
	Status string `json:"status,omitempty"`

	// Done marks the last event of a run. The session is torn down after it.
	Done bool `json:"done,omitempty"`
}

// Publisher accepts events for a session.
type Publisher interface {
	Publish(session string, ev Event) bool
}

// Subscription is the receiving end of a session.
type Subscription struct {
	session string
	ch      chan Event
}

// Session returns the session id the subscription listens to.
func (s *Subscription) Session() string {
	return s.session
}

// Events returns the event channel. It is closed when the run's final event
// has been delivered, when the subscription is replaced, or on Unsubscribe.
func (s *Subscription) Events() <-chan Event {
	return s.ch
}

// Hub routes events to per-session subscribers.
type Hub struct {
	mu     sync.Mutex
	subs   map[string]*Subscription
	buffer int
}

// NewHub creates a Hub whose subscribers queue up to buffer events.
func NewHub(buffer int) *Hub {
	if buffer < 1 {
		buffer = DefaultBuffer
	}
	return &Hub{
		subs:   make(map[string]*Subscription),
		buffer: buffer,
	}
}

// Subscribe registers a consumer for session. An existing subscriber of the
// same session is closed and replaced.
func (h *Hub) Subscribe(session string) *Subscription {
	sub := &Subscription{
		session: session,
		ch:      make(chan Event, h.buffer),
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if old, ok := h.subs[session]; ok {
		close(old.ch)
	}
	h.subs[session] = sub
	return sub
}

// Unsubscribe removes sub if it is still the session's subscriber.
func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if cur, ok := h.subs[sub.session]; ok && cur == sub {
		close(sub.ch)
		delete(h.subs, sub.session)
	}
}

// Publish delivers ev to the subscriber of session without blocking.
//
// It reports whether the event was queued. A final event (Done set) that
// finds the queue full evicts the oldest queued event so consumers always
// see it. After it the subscription is closed and removed.
func (h *Hub) Publish(session string, ev Event) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub, ok := h.subs[session]
	if !ok {
		return false
	}

	sent := false
	select {
	case sub.ch <- ev:
		sent = true
	default:
		if ev.Done {
			// The final event replaces the oldest queued one.
			select {
			case <-sub.ch:
			default:
			}
			select {
			case sub.ch <- ev:
				sent = true
			default:
			}
		}
	}

	if ev.Done {
		close(sub.ch)
		delete(h.subs, session)
	}
	return sent
}

// Len returns the number of active sessions.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
