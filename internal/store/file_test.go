package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mealrounds/cartsync/internal/cart"
)

func newFileStore(t *testing.T) *FileStore {
	t.Helper()
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestFileStore_FirstLoadSeedsDefaultFleet(t *testing.T) {
	s := newFileStore(t)
	ctx := context.Background()

	carts := s.LoadCarts(ctx)
	assert.Equal(t, cart.DefaultFleet(), carts)

	// The seed must be durable before LoadCarts returns.
	_, err := os.Stat(filepath.Join(s.Dir(), cartsFile))
	assert.NoError(t, err, "carts file should exist after first load")
}

func TestFileStore_CartsRoundTrip(t *testing.T) {
	s := newFileStore(t)
	ctx := context.Background()

	want := []cart.Cart{
		{ID: 1, Name: "Mat", Floor: 2, State: cart.StateService, Active: true},
		{ID: 2, Name: "Onco", Floor: 0, State: cart.StateKitchen, Active: false},
	}
	require.NoError(t, s.SaveCarts(ctx, want))

	assert.Equal(t, want, s.LoadCarts(ctx))
}

func TestFileStore_SaveOverwritesWholesale(t *testing.T) {
	s := newFileStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveCarts(ctx, cart.DefaultFleet()))
	require.NoError(t, s.SaveCarts(ctx, []cart.Cart{{ID: 99, Name: "Solo", State: cart.StateKitchen}}))

	carts := s.LoadCarts(ctx)
	require.Len(t, carts, 1)
	assert.Equal(t, 99, carts[0].ID)
}

func TestFileStore_CorruptCartsFallsBackToSeed(t *testing.T) {
	s := newFileStore(t)
	ctx := context.Background()

	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), cartsFile), []byte("{not json"), 0o644))

	assert.Equal(t, cart.DefaultFleet(), s.LoadCarts(ctx))
}

func TestFileStore_HistoryEmptyWhenMissing(t *testing.T) {
	s := newFileStore(t)

	entries := s.LoadHistory(context.Background())
	assert.Empty(t, entries)
	assert.NotNil(t, entries)
}

func TestFileStore_HistoryRoundTrip(t *testing.T) {
	s := newFileStore(t)
	ctx := context.Background()

	want := []cart.HistoryEntry{
		{ID: 2000, CartName: "Urgence", Action: "Moved to floor 0", User: "alice", Timestamp: "27/08/2026 12:00:02"},
		{ID: 1000, CartName: "Mat", Action: "Returned to kitchen", User: "bob", Timestamp: "27/08/2026 12:00:01"},
	}
	require.NoError(t, s.SaveHistory(ctx, want))

	got := s.LoadHistory(ctx)
	assert.Equal(t, want, got, "head-first order must survive the round trip")
}

func TestFileStore_CorruptHistoryFallsBackToEmpty(t *testing.T) {
	s := newFileStore(t)
	ctx := context.Background()

	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), historyFile), []byte("[[["), 0o644))

	assert.Empty(t, s.LoadHistory(ctx))
}

func TestFileStore_WithSeed(t *testing.T) {
	seed := []cart.Cart{{ID: 7, Name: "Test", Floor: 1, State: cart.StateKitchen, Active: true}}
	s, err := NewFileStore(t.TempDir(), WithSeed(seed))
	require.NoError(t, err)

	assert.Equal(t, seed, s.LoadCarts(context.Background()))
}
