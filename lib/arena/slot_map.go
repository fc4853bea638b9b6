package arena

// Slot-keyed map backend. Every insert mints a fresh monotonically
// increasing key, so a removed handle can only ever miss the map; no
// generation bookkeeping is required for stale detection.
type slotMap[V any] struct {
	records map[Handle]*V
	nextKey uint32
}

// Generation tag shared by every slot-map handle. It only has to be
// non-zero so the zero Handle stays the nil sentinel.
const slotMapGeneration uint32 = 1

// NewSlotMap creates a map-backed Store.
func NewSlotMap[V any]() Store[V] {
	return &slotMap[V]{
		records: make(map[Handle]*V, 8),
	}
}

func (m *slotMap[V]) Insert(value V) Handle {
	m.nextKey++
	h := Handle{index: m.nextKey, generation: slotMapGeneration}
	m.records[h] = &value
	return h
}

func (m *slotMap[V]) Get(h Handle) (*V, bool) {
	record, ok := m.records[h]
	if !ok {
		return nil, false
	}
	return record, true
}

func (m *slotMap[V]) GetMut(h Handle) (*V, bool) {
	return m.Get(h)
}

func (m *slotMap[V]) Remove(h Handle) (V, bool) {
	record, ok := m.records[h]
	if !ok {
		var zero V
		return zero, false
	}
	delete(m.records, h)
	return *record, true
}

func (m *slotMap[V]) Len() int64 {
	return int64(len(m.records))
}
