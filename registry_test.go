package dispatch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nopHandle() *Handle[int] {
	return NewHandleFunc[int](func(context.Context, Event[int]) error {
		return nil
	})
}

func TestRegistry_AddRemoveOrder(t *testing.T) {
	r := newRegistry[int]()

	h1, h2, h3 := nopHandle(), nopHandle(), nopHandle()
	r.add(h1)
	r.add(h2)
	r.add(h3)
	require.Equal(t, 3, r.size())

	r.remove(h2)

	got := r.handles()
	require.Len(t, got, 2)
	assert.Same(t, h1, got[0])
	assert.Same(t, h3, got[1])
}

func TestRegistry_DuplicateAddIsNoOp(t *testing.T) {
	r := newRegistry[int]()

	h1, h2 := nopHandle(), nopHandle()
	r.add(h1)
	r.add(h2)
	r.add(h1)

	require.Equal(t, 2, r.size())
	got := r.handles()
	assert.Same(t, h1, got[0])
	assert.Same(t, h2, got[1])
}

func TestRegistry_RemoveAbsent(t *testing.T) {
	r := newRegistry[int]()

	require.NotPanics(t, func() {
		r.remove(nopHandle())
	})
	assert.Zero(t, r.size())
}

func TestRegistry_TombstoneDuringIteration(t *testing.T) {
	r := newRegistry[int]()

	h1, h2, h3 := nopHandle(), nopHandle(), nopHandle()
	r.add(h1)
	r.add(h2)
	r.add(h3)

	r.beginIter()

	r.remove(h2)

	// Slot indexes stay stable while the iteration is in flight.
	got, ok := r.slot(0)
	require.True(t, ok)
	assert.Same(t, h1, got)

	got, ok = r.slot(1)
	require.True(t, ok)
	assert.Nil(t, got) // tombstoned, skipped by the engine

	got, ok = r.slot(2)
	require.True(t, ok)
	assert.Same(t, h3, got)

	r.endIter()

	// Compaction runs once the iteration ends.
	r.mu.Lock()
	assert.Len(t, r.slots, 2)
	assert.Zero(t, r.tombstones)
	r.mu.Unlock()
}

func TestRegistry_AppendDuringIteration(t *testing.T) {
	r := newRegistry[int]()

	h1 := nopHandle()
	r.add(h1)

	r.beginIter()
	defer r.endIter()

	h2 := nopHandle()
	r.add(h2)

	got, ok := r.slot(1)
	require.True(t, ok)
	assert.Same(t, h2, got)

	_, ok = r.slot(2)
	assert.False(t, ok)
}

func TestRegistry_ClearDuringIteration(t *testing.T) {
	r := newRegistry[int]()

	r.add(nopHandle())
	r.add(nopHandle())

	r.beginIter()
	r.clear()

	got, ok := r.slot(0)
	require.True(t, ok)
	assert.Nil(t, got)

	got, ok = r.slot(1)
	require.True(t, ok)
	assert.Nil(t, got)

	assert.Zero(t, r.size())

	r.endIter()

	r.mu.Lock()
	assert.Empty(t, r.slots)
	r.mu.Unlock()
}

func TestRegistry_NestedIterationDefersCompaction(t *testing.T) {
	r := newRegistry[int]()

	h1, h2 := nopHandle(), nopHandle()
	r.add(h1)
	r.add(h2)

	r.beginIter()
	r.beginIter()

	r.remove(h1)

	r.endIter()

	// The outer iteration still holds indexes; the tombstone must survive.
	r.mu.Lock()
	assert.Len(t, r.slots, 2)
	assert.Equal(t, 1, r.tombstones)
	r.mu.Unlock()

	r.endIter()

	r.mu.Lock()
	assert.Len(t, r.slots, 1)
	assert.Zero(t, r.tombstones)
	r.mu.Unlock()
}

func TestRegistry_ReaddAfterRemoveGoesToEnd(t *testing.T) {
	r := newRegistry[int]()

	h1, h2 := nopHandle(), nopHandle()
	r.add(h1)
	r.add(h2)
	r.remove(h1)
	r.add(h1)

	got := r.handles()
	require.Len(t, got, 2)
	assert.Same(t, h2, got[0])
	assert.Same(t, h1, got[1])
}
