package store

import (
	"context"

	"github.com/mealrounds/cartsync/internal/cart"
)

// Store is the persistence contract shared by all backends.
//
// LoadCarts and LoadHistory never fail: read errors are handled inside the
// store (logged, fallback returned). SaveCarts and SaveHistory return write
// errors so the caller can log them, but the caller proceeds either way;
// in-memory state stays authoritative until the next successful save.
type Store interface {
	// LoadCarts returns the full cart collection. On first-ever load with
	// no durable state it seeds the default fleet and persists it before
	// returning.
	LoadCarts(ctx context.Context) []cart.Cart

	// SaveCarts overwrites the cart collection wholesale.
	SaveCarts(ctx context.Context, carts []cart.Cart) error

	// LoadHistory returns the full history log, head first.
	LoadHistory(ctx context.Context) []cart.HistoryEntry

	// SaveHistory overwrites the history log wholesale.
	SaveHistory(ctx context.Context, entries []cart.HistoryEntry) error

	// Close releases backend resources.
	Close() error
}
