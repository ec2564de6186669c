package engine

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mealrounds/cartsync/internal/broadcast"
	"github.com/mealrounds/cartsync/internal/cart"
	"github.com/mealrounds/cartsync/internal/store"
)

// Engine owns the cart registry and the history log.
//
// Thread-safety model:
//   - All exported methods are safe from any goroutine.
//   - One mutex serializes every operation, so each read-modify-write cycle
//     is atomic with respect to all others.
//   - Broadcast delivery never blocks a mutation (the hub drops events for
//     slow observers).
type Engine struct {
	mu      sync.Mutex
	store   store.Store
	hub     *broadcast.Hub
	clock   Clock
	carts   []cart.Cart
	history []cart.HistoryEntry
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the wall clock used for history entry ids and
// timestamps. Used by tests for deterministic output.
func WithClock(c Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// New creates an engine seeded from the store. The loaded collections are
// authoritative from here on; the store is only written, never re-read.
func New(ctx context.Context, st store.Store, hub *broadcast.Hub, opts ...Option) *Engine {
	e := &Engine{
		store: st,
		hub:   hub,
		clock: SystemClock{},
	}
	for _, opt := range opts {
		opt(e)
	}

	e.carts = st.LoadCarts(ctx)
	e.history = st.LoadHistory(ctx)

	slog.Info("engine ready", "carts", len(e.carts), "history", len(e.history))
	return e
}

// Carts returns a snapshot of the full cart registry.
func (e *Engine) Carts() []cart.Cart {
	e.mu.Lock()
	defer e.mu.Unlock()
	return cart.Clone(e.carts)
}

// History returns a snapshot of the full history log, newest first.
func (e *Engine) History() []cart.HistoryEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return cart.CloneHistory(e.history)
}

// FindCart returns the cart with the given id, or NotFoundError.
func (e *Engine) FindCart(id int) (cart.Cart, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, c := range e.carts {
		if c.ID == id {
			return c, nil
		}
	}
	return cart.Cart{}, &NotFoundError{ID: id}
}

// ChangeState applies a state transition to one cart.
//
// The new state is accepted as any string; only the literal "service" value
// yields the moved-to-floor action description, everything else is recorded
// as a kitchen return. On success the updated registry and history are
// persisted and broadcast, and the updated cart is returned.
func (e *Engine) ChangeState(ctx context.Context, id int, newState, user string) (cart.Cart, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := -1
	for i, c := range e.carts {
		if c.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return cart.Cart{}, &NotFoundError{ID: id}
	}

	e.carts[idx].State = newState
	updated := e.carts[idx]

	if err := e.store.SaveCarts(ctx, e.carts); err != nil {
		slog.Error("persisting carts failed", "cart", id, "error", err)
	}

	entry := e.newHistoryEntry(updated.Name, cart.DeriveAction(newState, updated.Floor), user)
	e.prependHistory(ctx, entry)

	slog.Info("cart state changed",
		"cart", id,
		"name", updated.Name,
		"state", newState,
		"user", user,
	)

	e.hub.Publish(broadcast.CartsEvent(cart.Clone(e.carts)))
	e.hub.Publish(broadcast.HistoryEvent(cart.CloneHistory(e.history)))

	return updated, nil
}

// ReplaceCarts overwrites the entire registry with caller-supplied carts.
// No shape or consistency validation is performed; administrative callers
// are trusted. A non-empty user additionally records the fixed
// configuration-change history entry and broadcasts the history.
func (e *Engine) ReplaceCarts(ctx context.Context, carts []cart.Cart, user string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.carts = cart.Clone(carts)

	if err := e.store.SaveCarts(ctx, e.carts); err != nil {
		slog.Error("persisting carts failed", "error", err)
	}

	if user != "" {
		entry := e.newHistoryEntry(cart.ConfigurationName, cart.ConfigurationAction, user)
		e.prependHistory(ctx, entry)
		e.hub.Publish(broadcast.HistoryEvent(cart.CloneHistory(e.history)))
	}

	slog.Info("cart registry replaced", "carts", len(e.carts), "user", user)
	e.hub.Publish(broadcast.CartsEvent(cart.Clone(e.carts)))
}

// ClearHistory truncates the history log to empty. Destructive, immediate,
// and idempotent; the empty log is persisted and broadcast.
func (e *Engine) ClearHistory(ctx context.Context, user string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.history = []cart.HistoryEntry{}

	if err := e.store.SaveHistory(ctx, e.history); err != nil {
		slog.Error("persisting history failed", "error", err)
	}

	slog.Info("history cleared", "user", user)
	e.hub.Publish(broadcast.HistoryEvent([]cart.HistoryEntry{}))
}

// Subscribe connects a new observer. The observer's first two events are
// snapshots of the current carts and history, queued before any later
// mutation can be delivered.
func (e *Engine) Subscribe() *broadcast.Observer {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.hub.Subscribe(
		broadcast.CartsEvent(cart.Clone(e.carts)),
		broadcast.HistoryEvent(cart.CloneHistory(e.history)),
	)
}

// newHistoryEntry stamps a history entry with the clock's current time. The
// id is the wall-clock millisecond; two entries in the same millisecond
// share an id, which is accepted.
func (e *Engine) newHistoryEntry(cartName, action, user string) cart.HistoryEntry {
	now := e.clock.Now()
	return cart.HistoryEntry{
		ID:        now.UnixMilli(),
		CartName:  cartName,
		Action:    action,
		User:      user,
		Timestamp: now.Format(cart.TimestampLayout),
	}
}

// prependHistory inserts an entry at the head and persists the log.
// Caller must hold e.mu.
func (e *Engine) prependHistory(ctx context.Context, entry cart.HistoryEntry) {
	e.history = append([]cart.HistoryEntry{entry}, e.history...)

	if err := e.store.SaveHistory(ctx, e.history); err != nil {
		slog.Error("persisting history failed", "error", err)
	}
}
