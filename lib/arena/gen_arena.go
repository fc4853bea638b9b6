package arena

// Generational arena backend. Records live in a flat slot slice; freed
// slots are chained into a free list and recycled by later inserts. Each
// slot carries a generation counter that is bumped on remove, so a stale
// handle into a recycled slot fails the generation match instead of
// aliasing the new occupant.
//
// References:
// https://docs.rs/generational-arena
type genArena[V any] struct {
	slots []arenaSlot[V]
	// Index+1 of the first free slot, 0 when the free list is empty.
	freeHead uint32
	count    int64
}

type arenaSlot[V any] struct {
	value V
	// Starts at 1 so the zero Handle never names a live record.
	generation uint32
	// Index+1 of the next free slot, 0 terminates the free list.
	nextFree uint32
	occupied bool
}

// NewGenArena creates a generational-arena Store. capacityHint, if
// given, pre-sizes the slot slice.
func NewGenArena[V any](capacityHint ...int) Store[V] {
	hint := 0
	if len(capacityHint) > 0 && capacityHint[0] > 0 {
		hint = capacityHint[0]
	}
	return &genArena[V]{
		slots: make([]arenaSlot[V], 0, hint),
	}
}

func (a *genArena[V]) Insert(value V) Handle {
	if a.freeHead != 0 {
		idx := a.freeHead - 1
		slot := &a.slots[idx]
		a.freeHead = slot.nextFree
		slot.nextFree = 0
		slot.occupied = true
		slot.value = value
		a.count++
		return Handle{index: idx, generation: slot.generation}
	}

	a.slots = append(a.slots, arenaSlot[V]{
		value:      value,
		generation: 1,
		occupied:   true,
	})
	a.count++
	return Handle{index: uint32(len(a.slots) - 1), generation: 1}
}

func (a *genArena[V]) slotOf(h Handle) *arenaSlot[V] {
	if h.IsNil() || h.index >= uint32(len(a.slots)) {
		return nil
	}
	slot := &a.slots[h.index]
	if !slot.occupied || slot.generation != h.generation {
		return nil
	}
	return slot
}

func (a *genArena[V]) Get(h Handle) (*V, bool) {
	slot := a.slotOf(h)
	if slot == nil {
		return nil, false
	}
	return &slot.value, true
}

func (a *genArena[V]) GetMut(h Handle) (*V, bool) {
	return a.Get(h)
}

func (a *genArena[V]) Remove(h Handle) (V, bool) {
	slot := a.slotOf(h)
	if slot == nil {
		var zero V
		return zero, false
	}

	removed := slot.value
	var zero V
	slot.value = zero
	slot.occupied = false
	// The bumped generation invalidates every handle minted for this
	// occupancy, including h itself.
	slot.generation++
	slot.nextFree = a.freeHead
	a.freeHead = h.index + 1
	a.count--
	return removed, true
}

func (a *genArena[V]) Len() int64 {
	return a.count
}
