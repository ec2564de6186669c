package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mealrounds/cartsync/internal/broadcast"
	"github.com/mealrounds/cartsync/internal/cart"
	"github.com/mealrounds/cartsync/internal/store"
)

// testInstant pins the clock for deterministic history ids and timestamps.
var testInstant = time.Date(2026, 8, 27, 12, 0, 0, 0, time.Local)

func newTestEngine(t *testing.T) (*Engine, *FixedClock, *broadcast.Hub, store.Store) {
	t.Helper()

	st, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)

	clock := NewFixedClock(testInstant)
	hub := broadcast.New()
	t.Cleanup(hub.Close)

	eng := New(context.Background(), st, hub, WithClock(clock))
	return eng, clock, hub, st
}

func TestEngine_SeedsFromStore(t *testing.T) {
	eng, _, _, _ := newTestEngine(t)

	carts := eng.Carts()
	assert.Equal(t, cart.DefaultFleet(), carts)
	assert.Empty(t, eng.History())
}

func TestChangeState_ToService(t *testing.T) {
	eng, _, _, _ := newTestEngine(t)
	ctx := context.Background()

	// Cart 14 is "Urgence" on floor 0.
	updated, err := eng.ChangeState(ctx, 14, cart.StateService, "alice")
	require.NoError(t, err)

	assert.Equal(t, 14, updated.ID)
	assert.Equal(t, "Urgence", updated.Name)
	assert.Equal(t, cart.StateService, updated.State)

	history := eng.History()
	require.Len(t, history, 1)
	head := history[0]
	assert.Equal(t, "Urgence", head.CartName)
	assert.Equal(t, "Moved to floor 0", head.Action)
	assert.Equal(t, "alice", head.User)
	assert.Equal(t, testInstant.UnixMilli(), head.ID)
	assert.Equal(t, "27/08/2026 12:00:00", head.Timestamp)
}

func TestChangeState_AnyOtherStateReturnsToKitchen(t *testing.T) {
	eng, _, _, _ := newTestEngine(t)
	ctx := context.Background()

	for _, state := range []string{cart.StateKitchen, "maintenance", "", "Service"} {
		_, err := eng.ChangeState(ctx, 1, state, "bob")
		require.NoError(t, err)

		head := eng.History()[0]
		assert.Equal(t, "Returned to kitchen", head.Action, "state %q", state)
	}
}

func TestChangeState_UnknownID(t *testing.T) {
	eng, _, _, _ := newTestEngine(t)

	before := eng.Carts()
	_, err := eng.ChangeState(context.Background(), 999, cart.StateKitchen, "bob")

	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.EqualError(t, err, "cart 999 not found")

	assert.Equal(t, before, eng.Carts(), "registry must be unchanged")
	assert.Empty(t, eng.History(), "no history entry on rejected transition")
}

func TestChangeState_HistoryIsNewestFirst(t *testing.T) {
	eng, clock, _, _ := newTestEngine(t)
	ctx := context.Background()

	ids := []int{1, 2, 3, 4}
	for _, id := range ids {
		_, err := eng.ChangeState(ctx, id, cart.StateService, "alice")
		require.NoError(t, err)
		clock.Advance(time.Second)
	}

	history := eng.History()
	require.Len(t, history, len(ids))

	// Log order is the reverse of call order.
	for i, id := range []int{4, 3, 2, 1} {
		c, err := eng.FindCart(id)
		require.NoError(t, err)
		assert.Equal(t, c.Name, history[i].CartName)
	}
	assert.Greater(t, history[0].ID, history[3].ID)
}

func TestChangeState_SameMillisecondSharesID(t *testing.T) {
	eng, _, _, _ := newTestEngine(t)
	ctx := context.Background()

	// The clock never advances; entry ids collide and that is accepted.
	_, err := eng.ChangeState(ctx, 1, cart.StateService, "alice")
	require.NoError(t, err)
	_, err = eng.ChangeState(ctx, 2, cart.StateService, "alice")
	require.NoError(t, err)

	history := eng.History()
	require.Len(t, history, 2)
	assert.Equal(t, history[0].ID, history[1].ID)
	assert.NotEqual(t, history[0].CartName, history[1].CartName)
}

func TestChangeState_WritesThroughToStore(t *testing.T) {
	eng, _, _, st := newTestEngine(t)
	ctx := context.Background()

	_, err := eng.ChangeState(ctx, 14, cart.StateService, "alice")
	require.NoError(t, err)

	// A second engine over the same store must see the mutation.
	hub := broadcast.New()
	defer hub.Close()
	fresh := New(ctx, st, hub)

	c, err := fresh.FindCart(14)
	require.NoError(t, err)
	assert.Equal(t, cart.StateService, c.State)
	require.Len(t, fresh.History(), 1)
}

func TestReplaceCarts_WithUserRecordsConfiguration(t *testing.T) {
	eng, _, _, _ := newTestEngine(t)
	ctx := context.Background()

	obs := eng.Subscribe()
	drainSnapshot(t, obs)

	newFleet := []cart.Cart{{ID: 1, Name: "Solo", Floor: 2, State: cart.StateKitchen, Active: true}}
	eng.ReplaceCarts(ctx, newFleet, "admin")

	assert.Equal(t, newFleet, eng.Carts())

	history := eng.History()
	require.Len(t, history, 1)
	assert.Equal(t, cart.ConfigurationName, history[0].CartName)
	assert.Equal(t, cart.ConfigurationAction, history[0].Action)
	assert.Equal(t, "admin", history[0].User)

	// Both collections are broadcast: history first, then carts.
	ev1 := <-obs.Events()
	ev2 := <-obs.Events()
	types := []string{ev1.Type, ev2.Type}
	assert.Contains(t, types, broadcast.EventHistoryUpdated)
	assert.Contains(t, types, broadcast.EventCartsUpdated)
}

func TestReplaceCarts_WithoutUserSkipsHistory(t *testing.T) {
	eng, _, _, _ := newTestEngine(t)

	obs := eng.Subscribe()
	drainSnapshot(t, obs)

	eng.ReplaceCarts(context.Background(), []cart.Cart{{ID: 1, Name: "Solo"}}, "")

	assert.Empty(t, eng.History())

	ev := <-obs.Events()
	assert.Equal(t, broadcast.EventCartsUpdated, ev.Type)
	select {
	case extra := <-obs.Events():
		t.Fatalf("unexpected extra event %v", extra.Type)
	default:
	}
}

func TestClearHistory_Idempotent(t *testing.T) {
	eng, _, _, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := eng.ChangeState(ctx, 1, cart.StateService, "alice")
	require.NoError(t, err)
	require.NotEmpty(t, eng.History())

	eng.ClearHistory(ctx, "admin")
	assert.Empty(t, eng.History())

	eng.ClearHistory(ctx, "admin")
	assert.Empty(t, eng.History())
}

func TestSubscribe_SnapshotBeforeMutations(t *testing.T) {
	eng, _, _, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := eng.ChangeState(ctx, 3, cart.StateKitchen, "alice")
	require.NoError(t, err)

	obs := eng.Subscribe()

	_, err = eng.ChangeState(ctx, 5, cart.StateKitchen, "bob")
	require.NoError(t, err)

	// Exactly one carts snapshot and one history snapshot arrive first,
	// reflecting state at subscription time.
	first := <-obs.Events()
	require.Equal(t, broadcast.EventCartsUpdated, first.Type)
	assert.Len(t, first.Carts, 17)

	second := <-obs.Events()
	require.Equal(t, broadcast.EventHistoryUpdated, second.Type)
	require.Len(t, second.History, 1, "snapshot predates the second transition")
	assert.Equal(t, "Chir B2", second.History[0].CartName)

	// Then the mutation events.
	third := <-obs.Events()
	assert.Equal(t, broadcast.EventCartsUpdated, third.Type)
}

func TestChangeState_ConcurrentTransitionsDoNotClobber(t *testing.T) {
	eng, _, _, _ := newTestEngine(t)
	ctx := context.Background()

	ids := []int{1, 2, 3, 4, 5, 6, 7, 8}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			_, err := eng.ChangeState(ctx, id, cart.StateService, "alice")
			assert.NoError(t, err)
		}(id)
	}
	wg.Wait()

	for _, id := range ids {
		c, err := eng.FindCart(id)
		require.NoError(t, err)
		assert.Equal(t, cart.StateService, c.State, "cart %d change must not be lost", id)
	}
	assert.Len(t, eng.History(), len(ids))
}

func TestFindCart(t *testing.T) {
	eng, _, _, _ := newTestEngine(t)

	c, err := eng.FindCart(10)
	require.NoError(t, err)
	assert.Equal(t, "Mat", c.Name)

	_, err = eng.FindCart(0)
	assert.True(t, IsNotFound(err))
}

// drainSnapshot consumes the two initial snapshot events of a fresh observer.
func drainSnapshot(t *testing.T, obs *broadcast.Observer) {
	t.Helper()
	require.Equal(t, broadcast.EventCartsUpdated, (<-obs.Events()).Type)
	require.Equal(t, broadcast.EventHistoryUpdated, (<-obs.Events()).Type)
}
