package dispatch

import "sync"

// entry is one registry slot. Removal tombstones the slot instead of splicing
// the slice so that indexes held by an in-flight dispatch stay stable.
type entry[T any] struct {
	handle  *Handle[T]
	removed bool
}

// registry is an ordered, duplicate-free, identity-keyed set of handles.
//
// Iteration is live: a dispatch walks slots by index while mutations land in
// the same slice. A handle tombstoned before the iterator reaches its slot is
// skipped; a handle appended during iteration is reached. Tombstones are
// compacted only when no iteration is in flight.
type registry[T any] struct {
	mu         sync.Mutex
	slots      []*entry[T]
	index      map[*Handle[T]]*entry[T]
	iterating  int
	tombstones int
}

func newRegistry[T any]() *registry[T] {
	return &registry[T]{
		index: make(map[*Handle[T]]*entry[T]),
	}
}

// add appends the handle unless it is already registered. An existing handle
// keeps its original position.
func (r *registry[T]) add(h *Handle[T]) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.index[h]; ok {
		return
	}

	e := &entry[T]{handle: h}
	r.slots = append(r.slots, e)
	r.index[h] = e
}

// remove tombstones the handle's slot. Removing an absent handle is a no-op.
func (r *registry[T]) remove(h *Handle[T]) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.index[h]
	if !ok {
		return
	}

	e.removed = true
	r.tombstones++
	delete(r.index, h)

	r.compact()
}

// clear tombstones every live slot.
func (r *registry[T]) clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.slots {
		if !e.removed {
			e.removed = true
			r.tombstones++
		}
	}
	r.index = make(map[*Handle[T]]*entry[T])

	r.compact()
}

// size returns the number of live handles.
func (r *registry[T]) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.index)
}

// handles returns an ordered snapshot of the live handles.
func (r *registry[T]) handles() []*Handle[T] {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.index) == 0 {
		return nil
	}

	out := make([]*Handle[T], 0, len(r.index))
	for _, e := range r.slots {
		if !e.removed {
			out = append(out, e.handle)
		}
	}
	return out
}

// beginIter and endIter bracket one live iteration. Iterations nest when a
// handler dispatches reentrantly.
func (r *registry[T]) beginIter() {
	r.mu.Lock()
	r.iterating++
	r.mu.Unlock()
}

func (r *registry[T]) endIter() {
	r.mu.Lock()
	r.iterating--
	r.compact()
	r.mu.Unlock()
}

// slot returns the handle at position i. ok is false once i is past the end
// of the slice; a nil handle with ok true marks a tombstoned slot the caller
// must skip.
func (r *registry[T]) slot(i int) (h *Handle[T], ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if i >= len(r.slots) {
		return nil, false
	}

	e := r.slots[i]
	if e.removed {
		return nil, true
	}
	return e.handle, true
}

// compact drops tombstoned slots once no iteration holds indexes into the
// slice. Caller must hold mu.
func (r *registry[T]) compact() {
	if r.iterating > 0 || r.tombstones == 0 {
		return
	}

	live := r.slots[:0]
	for _, e := range r.slots {
		if !e.removed {
			live = append(live, e)
		}
	}
	for i := len(live); i < len(r.slots); i++ {
		r.slots[i] = nil
	}
	r.slots = live
	r.tombstones = 0
}
