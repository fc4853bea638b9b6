package tree

import (
	"errors"

	"github.com/seqtree/seqtree/lib/arena"
)

// go install golang.org/x/tools/cmd/stringer@latest

//go:generate stringer -type=RBColor
type RBColor uint8

const (
	Black RBColor = iota
	Red
)

//go:generate stringer -type=RBDirection
type RBDirection int8

const (
	Left RBDirection = -1 + iota
	Root
	Right
)

var (
	ErrSeqTreeRootOccupied = errors.New("[seqtree] root already exists")
	ErrSeqTreeStaleHandle  = errors.New("[seqtree] stale or foreign node handle")
)

// SeqTree is an ordered container without keys. It is a red-black tree
// whose nodes are threaded into a doubly linked order chain that always
// mirrors the in-order sequence, so the position of every element is
// chosen by the caller through anchors instead of by comparison.
// Insert and delete are O(log n), prev/next navigation is O(1).
// Not thread safe.
type SeqTree[V any] interface {
	Len() int64
	HasRoot() bool
	// Root returns the root handle, or the nil handle for an empty tree.
	Root() arena.Handle
	// CreateRoot creates the first node of an empty tree. It fails with
	// ErrSeqTreeRootOccupied if a root already exists.
	CreateRoot(v V) (arena.Handle, error)
	// InsertBefore creates a new node holding v immediately before
	// anchor in the order chain and rebalances the tree.
	InsertBefore(anchor arena.Handle, v V) (arena.Handle, error)
	// InsertAfter creates a new node holding v immediately after anchor
	// in the order chain and rebalances the tree.
	InsertAfter(anchor arena.Handle, v V) (arena.Handle, error)
	// Delete removes the node named by h and rebalances the tree.
	// The handle is permanently invalid afterwards.
	Delete(h arena.Handle) error
	GetContents(h arena.Handle) (V, error)
	// GetMutContents returns a pointer to the payload. It is only valid
	// until the next insertion; the store may relocate records while
	// growing.
	GetMutContents(h arena.Handle) (*V, error)
	SetContents(h arena.Handle, v V) error
	Color(h arena.Handle) (RBColor, error)
	GetParent(h arena.Handle) (arena.Handle, error)
	GetLeft(h arena.Handle) (arena.Handle, error)
	GetRight(h arena.Handle) (arena.Handle, error)
	GetPrev(h arena.Handle) (arena.Handle, error)
	GetNext(h arena.Handle) (arena.Handle, error)
	// Front returns the first handle of the order chain, Back the last.
	Front() arena.Handle
	Back() arena.Handle
	// Foreach walks the order chain from front to back until action
	// returns false.
	Foreach(action func(idx int64, h arena.Handle, v V) bool)
	ReverseForeach(action func(idx int64, h arena.Handle, v V) bool)
	// LevelOrderForeach walks the tree breadth first, root first.
	LevelOrderForeach(action func(idx int64, h arena.Handle, v V) bool)
	Release()
}
