package arena

import "strconv"

// Handle is an opaque, stable reference to a record held by a Store.
// It stays valid until the record it names is removed; any use after
// that is reported as not-found instead of aliasing a later record.
// The zero Handle refers to nothing.
type Handle struct {
	index      uint32
	generation uint32
}

// IsNil reports whether the handle refers to nothing.
// Live handles always carry a non-zero generation.
func (h Handle) IsNil() bool {
	return h.generation == 0
}

func (h Handle) String() string {
	if h.IsNil() {
		return "nil"
	}
	return strconv.FormatUint(uint64(h.index), 10) + "@" + strconv.FormatUint(uint64(h.generation), 10)
}

// Store is keyed storage of records with stable handles. All operations
// are O(1) amortized. Implementations are not thread safe.
type Store[V any] interface {
	// Insert stores value and returns the handle that names it.
	Insert(value V) Handle
	// Get returns the record named by h, or false for a nil, stale or
	// foreign handle. The pointer is only valid until the next Insert;
	// a growing backend may relocate its records.
	Get(h Handle) (*V, bool)
	// GetMut is the mutable accessor of Get. Both return an aliasing
	// pointer in Go; the split mirrors stores with copy-on-read Get.
	GetMut(h Handle) (*V, bool)
	// Remove deletes the record named by h and returns it. The handle is
	// permanently invalid afterwards.
	Remove(h Handle) (V, bool)
	// Len returns the number of live records.
	Len() int64
}
