package cart

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velvetshop/storefront/internal/domain"
)

func openStore(t *testing.T, slot *recordingSlot) *Store {
	t.Helper()
	adapter := NewAdapter(slot, DefaultSlotKey, testLogger())
	s := Open(context.Background(), adapter, testLogger())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.Close(ctx)
	})
	return s
}

// waitForWrites blocks until the slot has seen at least n writes.
func waitForWrites(t *testing.T, slot *recordingSlot, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return slot.writeCount() >= n
	}, 2*time.Second, 5*time.Millisecond)
}

func TestOpen_HydratesBeforeAcceptingMutations(t *testing.T) {
	slot := newRecordingSlot()

	// Seed the slot with a previous visit's cart.
	seed := NewAdapter(slot, DefaultSlotKey, testLogger())
	prev, _ := domain.EmptyCart().Add(sampleItem())
	require.NoError(t, seed.Save(context.Background(), prev))

	s := openStore(t, slot)

	// The first mutation applies to the hydrated base, not an empty
	// placeholder.
	state := s.Add(domain.LineItem{ProductID: "p-9", Name: "Scarf", UnitPrice: 2000, Quantity: 1})
	require.Len(t, state.Items, 2)
	assert.Equal(t, "p-1", state.Items[0].ProductID)
	assert.Equal(t, "p-9", state.Items[1].ProductID)
}

func TestNewStore_EmptyAndNeverPersists(t *testing.T) {
	s := NewStore(testLogger())

	assert.Empty(t, s.Snapshot().Items)

	state := s.Add(sampleItem())
	assert.Len(t, state.Items, 1)

	// Close on a storage-less store is a no-op.
	assert.NoError(t, s.Close(context.Background()))
}

func TestStore_MutationPersists(t *testing.T) {
	slot := newRecordingSlot()
	s := openStore(t, slot)

	s.Add(sampleItem())
	waitForWrites(t, slot, 1)

	// A fresh store hydrates what the first one wrote.
	s2 := openStore(t, slot)
	got := s2.Snapshot()
	require.Len(t, got.Items, 1)
	assert.Equal(t, 2, got.Items[0].Quantity)
}

func TestStore_NoOpDoesNotPersist(t *testing.T) {
	slot := newRecordingSlot()
	s := openStore(t, slot)

	before := s.Snapshot()
	after := s.Remove("absent", domain.Variant{})
	assert.Equal(t, before.Items, after.Items)

	after = s.SetQuantity("absent", domain.Variant{}, 3)
	assert.Equal(t, before.Items, after.Items)

	// Give the worker a moment; nothing must have been written.
	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, slot.writeCount())
}

func TestStore_WritesCoalesceToLatest(t *testing.T) {
	slot := newRecordingSlot()
	s := openStore(t, slot)

	s.Add(sampleItem())
	s.Add(sampleItem())
	s.SetQuantity("p-1", domain.Variant{Color: "Black", Size: "M"}, 1)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Close(ctx))

	// Whatever got written, the final snapshot on disk is the latest state.
	s2 := Open(context.Background(), NewAdapter(slot, DefaultSlotKey, testLogger()), testLogger())
	defer s2.Close(context.Background())

	got := s2.Snapshot()
	require.Len(t, got.Items, 1)
	assert.Equal(t, 1, got.Items[0].Quantity)
}

func TestStore_CloseFlushesPending(t *testing.T) {
	slot := newRecordingSlot()
	adapter := NewAdapter(slot, DefaultSlotKey, testLogger())
	s := Open(context.Background(), adapter, testLogger())

	s.Add(sampleItem())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Close(ctx))

	assert.GreaterOrEqual(t, slot.writeCount(), 1)

	got := adapter.Load(context.Background())
	require.Len(t, got.Items, 1)
}

func TestStore_SurvivesWriteFailures(t *testing.T) {
	adapter := NewAdapter(&faultySlot{err: assert.AnError}, DefaultSlotKey, testLogger())
	s := Open(context.Background(), adapter, testLogger())
	defer s.Close(context.Background())

	// The mutation succeeds even though persistence fails.
	state := s.Add(sampleItem())
	require.Len(t, state.Items, 1)
	assert.Equal(t, state.Items, s.Snapshot().Items)
}

func TestStore_ClearPersistsEmptySnapshot(t *testing.T) {
	slot := newRecordingSlot()
	s := openStore(t, slot)

	s.Add(sampleItem())
	s.Clear()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Close(ctx))

	s2 := Open(context.Background(), NewAdapter(slot, DefaultSlotKey, testLogger()), testLogger())
	defer s2.Close(context.Background())
	assert.Empty(t, s2.Snapshot().Items)
}

func TestStore_AddCapped_RejectsNewRowAtCap(t *testing.T) {
	slot := newRecordingSlot()
	s := openStore(t, slot)

	s.Add(sampleItem())

	state, ok := s.AddCapped(domain.LineItem{ProductID: "p-2", Name: "Cap", UnitPrice: 1500, Quantity: 1}, 1)
	assert.False(t, ok)
	assert.Len(t, state.Items, 1)
}

func TestStore_AddCapped_MergesExistingRowAtCap(t *testing.T) {
	slot := newRecordingSlot()
	s := openStore(t, slot)

	s.Add(sampleItem())

	// A full cart still accepts quantity on a row it already has.
	state, ok := s.AddCapped(sampleItem(), 1)
	assert.True(t, ok)
	require.Len(t, state.Items, 1)
	assert.Equal(t, 4, state.Items[0].Quantity)
}

func TestStore_AddCapped_ConcurrentAddsStayAtCap(t *testing.T) {
	slot := newRecordingSlot()
	s := openStore(t, slot)

	const maxRows = 5

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.AddCapped(domain.LineItem{
				ProductID: fmt.Sprintf("p-%d", i),
				Name:      "Item",
				UnitPrice: 100,
				Quantity:  1,
			}, maxRows)
		}(i)
	}
	wg.Wait()

	assert.Len(t, s.Snapshot().Items, maxRows)
}

func TestStore_MutationAfterCloseIsDroppedWithLog(t *testing.T) {
	slot := newRecordingSlot()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	adapter := NewAdapter(slot, DefaultSlotKey, logger)
	s := Open(context.Background(), adapter, logger)

	s.Add(sampleItem())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Close(ctx))

	// The in-memory state still moves, but the snapshot is dropped with a
	// log instead of sitting in pending forever.
	state := s.Add(domain.LineItem{ProductID: "p-9", Name: "Scarf", UnitPrice: 2000, Quantity: 1})
	require.Len(t, state.Items, 2)
	assert.Contains(t, buf.String(), "store is closed")

	got := adapter.Load(context.Background())
	require.Len(t, got.Items, 1)
	assert.Equal(t, "p-1", got.Items[0].ProductID)
}

func TestStore_SnapshotIsolatedFromLaterMutations(t *testing.T) {
	slot := newRecordingSlot()
	s := openStore(t, slot)

	s.Add(sampleItem())
	before := s.Snapshot()

	s.SetQuantity("p-1", domain.Variant{Color: "Black", Size: "M"}, 7)

	// The earlier snapshot still shows the old quantity.
	assert.Equal(t, 2, before.Items[0].Quantity)
}
