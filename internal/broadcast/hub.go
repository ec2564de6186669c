// Package broadcast fans out full-collection snapshots to every connected
// observer. Delivery is fire-and-forget: a slow observer loses events rather
// than blocking the mutation path or other observers.
package broadcast

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/mealrounds/cartsync/internal/cart"
)

// Event names on the real-time feed. These are wire-visible and must stay
// stable for deployed clients.
const (
	EventCartsUpdated   = "carts_updated"
	EventHistoryUpdated = "history_updated"
)

// Event carries one full collection snapshot. Exactly one of Carts or
// History is meaningful, selected by Type.
type Event struct {
	Type    string
	Carts   []cart.Cart
	History []cart.HistoryEntry
}

// CartsEvent builds a carts_updated event.
func CartsEvent(carts []cart.Cart) Event {
	return Event{Type: EventCartsUpdated, Carts: carts}
}

// HistoryEvent builds a history_updated event.
func HistoryEvent(entries []cart.HistoryEntry) Event {
	return Event{Type: EventHistoryUpdated, History: entries}
}

// DefaultBuffer is the per-observer outbound queue size. Sixteen events is
// ample for the service's mutation rate; an observer that falls this far
// behind is better served by dropped events than by backpressure.
const DefaultBuffer = 16

// Observer is one connected real-time client.
type Observer struct {
	id     string
	events chan Event
	hub    *Hub
}

// ID returns the observer's unique id.
func (o *Observer) ID() string {
	return o.id
}

// Events returns the observer's receive channel. The channel is closed when
// the observer is unsubscribed or the hub shuts down.
func (o *Observer) Events() <-chan Event {
	return o.events
}

// Close unsubscribes the observer and closes its channel. Safe to call more
// than once.
func (o *Observer) Close() {
	o.hub.unsubscribe(o.id)
}

// Hub maintains the set of connected observers. All observers see all
// events; there is no per-observer filtering.
type Hub struct {
	mu        sync.Mutex
	observers map[string]*Observer
	buffer    int
	closed    bool
}

// Option configures a Hub.
type Option func(*Hub)

// WithBuffer sets the per-observer outbound queue size.
func WithBuffer(n int) Option {
	return func(h *Hub) {
		h.buffer = n
	}
}

// New creates an empty hub.
func New(opts ...Option) *Hub {
	h := &Hub{
		observers: make(map[string]*Observer),
		buffer:    DefaultBuffer,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Subscribe registers a new observer and queues the given initial events
// before any subsequent publish can be delivered. Callers pass the current
// carts and history snapshots so a late joiner needs no separate fetch.
//
// Returns nil if the hub has been closed.
func (h *Hub) Subscribe(initial ...Event) *Observer {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}

	buffer := h.buffer
	if buffer < len(initial) {
		buffer = len(initial)
	}

	o := &Observer{
		id:     uuid.NewString(),
		events: make(chan Event, buffer),
		hub:    h,
	}
	for _, ev := range initial {
		o.events <- ev
	}
	h.observers[o.id] = o

	slog.Debug("observer connected", "observer", o.id, "total", len(h.observers))
	return o
}

// Publish delivers an event to every connected observer. An observer whose
// queue is full misses the event; it will converge on the next snapshot it
// does receive, since every event carries the full collection.
func (h *Hub) Publish(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, o := range h.observers {
		select {
		case o.events <- ev:
		default:
			slog.Warn("observer queue full, dropping event",
				"observer", id,
				"event", ev.Type,
			)
		}
	}
}

// Len returns the number of connected observers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.observers)
}

// Close disconnects all observers. Subsequent Subscribe calls return nil and
// Publish calls are no-ops.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true

	for id, o := range h.observers {
		close(o.events)
		delete(h.observers, id)
	}
}

// unsubscribe removes one observer and closes its channel.
func (h *Hub) unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	o, ok := h.observers[id]
	if !ok {
		return
	}
	delete(h.observers, id)
	close(o.events)

	slog.Debug("observer disconnected", "observer", id, "total", len(h.observers))
}
