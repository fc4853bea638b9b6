package tree

import (
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/seqtree/seqtree/lib/arena"
	"github.com/seqtree/seqtree/lib/infra"
)

type seqNode[V any] struct {
	parent arena.Handle
	left   arena.Handle
	right  arena.Handle

	// Order chain. Always mirrors the in-order sequence of the tree;
	// rotations never touch it and the structural swap leaves it with
	// the original handles.
	prev arena.Handle
	next arena.Handle

	color    RBColor
	contents V
}

type seqTree[V any] struct {
	store arena.Store[seqNode[V]]
	root  arena.Handle
	// Non-nil enables the post-mutation self check.
	sanity *zap.Logger
}

type SeqTreeOpt[V any] func(*seqTree[V])

// WithSeqTreeSlotMapStore backs the tree with the slot-keyed map store
// instead of the default generational arena.
func WithSeqTreeSlotMapStore[V any]() SeqTreeOpt[V] {
	return func(tree *seqTree[V]) {
		tree.store = arena.NewSlotMap[seqNode[V]]()
	}
}

// WithSeqTreeSanityCheck revalidates every invariant family after each
// mutating operation. A violation is logged through lgr and then aborts,
// since a corrupted tree could pass many more operations before
// manifesting. Intended for testing builds.
func WithSeqTreeSanityCheck[V any](lgr *zap.Logger) SeqTreeOpt[V] {
	return func(tree *seqTree[V]) {
		tree.sanity = lgr
	}
}

func NewSeqTree[V any](opts ...SeqTreeOpt[V]) SeqTree[V] {
	tree := &seqTree[V]{}
	for _, o := range opts {
		o(tree)
	}
	if tree.store == nil {
		tree.store = arena.NewGenArena[seqNode[V]]()
	}
	return tree
}

// mustNode resolves a handle the engine itself produced. A miss means a
// tree link names a removed record, which is a bug in the engine, not a
// caller error.
//
// Pointers returned here must not be held across a store.Insert call;
// the arena backend may relocate its slots while growing.
func (tree *seqTree[V]) mustNode(h arena.Handle) *seqNode[V] {
	node, ok := tree.store.GetMut(h)
	if !ok {
		// impossible run to here
		panic("[seqtree] dangling handle inside the engine: " + h.String())
	}
	return node
}

func (tree *seqTree[V]) liveNode(h arena.Handle) (*seqNode[V], error) {
	node, ok := tree.store.GetMut(h)
	if !ok {
		return nil, ErrSeqTreeStaleHandle
	}
	return node, nil
}

func (tree *seqTree[V]) parentOf(h arena.Handle) arena.Handle {
	return tree.mustNode(h).parent
}

func (tree *seqTree[V]) leftOf(h arena.Handle) arena.Handle {
	return tree.mustNode(h).left
}

func (tree *seqTree[V]) rightOf(h arena.Handle) arena.Handle {
	return tree.mustNode(h).right
}

func (tree *seqTree[V]) prevOf(h arena.Handle) arena.Handle {
	return tree.mustNode(h).prev
}

func (tree *seqTree[V]) nextOf(h arena.Handle) arena.Handle {
	return tree.mustNode(h).next
}

// colorOf treats the nil handle and removed records as BLACK, the
// nil-leaves-are-black convention.
func (tree *seqTree[V]) colorOf(h arena.Handle) RBColor {
	if h.IsNil() {
		return Black
	}
	node, ok := tree.store.Get(h)
	if !ok {
		return Black
	}
	return node.color
}

func (tree *seqTree[V]) isRed(h arena.Handle) bool {
	return tree.colorOf(h) == Red
}

func (tree *seqTree[V]) isBlack(h arena.Handle) bool {
	return tree.colorOf(h) == Black
}

func (tree *seqTree[V]) setColor(h arena.Handle, color RBColor) {
	tree.mustNode(h).color = color
}

func (tree *seqTree[V]) Len() int64 {
	return tree.store.Len()
}

func (tree *seqTree[V]) HasRoot() bool {
	return !tree.root.IsNil()
}

func (tree *seqTree[V]) Root() arena.Handle {
	return tree.root
}

func (tree *seqTree[V]) CreateRoot(v V) (arena.Handle, error) {
	if tree.HasRoot() {
		return arena.Handle{}, infra.WrapErrorStackWithMessage(ErrSeqTreeRootOccupied, "create root")
	}
	root := tree.store.Insert(seqNode[V]{color: Black, contents: v})
	tree.root = root
	tree.postMutationCheck("create root")
	return root, nil
}

func (tree *seqTree[V]) InsertAfter(anchor arena.Handle, v V) (arena.Handle, error) {
	if _, err := tree.liveNode(anchor); err != nil {
		return arena.Handle{}, infra.WrapErrorStackWithMessage(err, "insert after")
	}

	newNode := tree.store.Insert(seqNode[V]{color: Red, contents: v})
	anchorNext := tree.nextOf(anchor)
	if tree.rightOf(anchor).IsNil() {
		tree.mustNode(anchor).right = newNode
		tree.mustNode(newNode).parent = anchor
	} else {
		// The anchor has a right subtree, so its order successor exists
		// and, being the leftmost of that subtree, has a free left slot.
		tree.mustNode(anchorNext).left = newNode
		tree.mustNode(newNode).parent = anchorNext
	}

	tree.mustNode(newNode).next = anchorNext
	if !anchorNext.IsNil() {
		tree.mustNode(anchorNext).prev = newNode
	}
	tree.mustNode(newNode).prev = anchor
	tree.mustNode(anchor).next = newNode

	tree.insertRebalance(newNode)
	tree.postMutationCheck("insert after")
	return newNode, nil
}

func (tree *seqTree[V]) InsertBefore(anchor arena.Handle, v V) (arena.Handle, error) {
	if _, err := tree.liveNode(anchor); err != nil {
		return arena.Handle{}, infra.WrapErrorStackWithMessage(err, "insert before")
	}

	newNode := tree.store.Insert(seqNode[V]{color: Red, contents: v})
	anchorPrev := tree.prevOf(anchor)
	if tree.leftOf(anchor).IsNil() {
		tree.mustNode(anchor).left = newNode
		tree.mustNode(newNode).parent = anchor
	} else {
		tree.mustNode(anchorPrev).right = newNode
		tree.mustNode(newNode).parent = anchorPrev
	}

	tree.mustNode(newNode).prev = anchorPrev
	if !anchorPrev.IsNil() {
		tree.mustNode(anchorPrev).next = newNode
	}
	tree.mustNode(newNode).next = anchor
	tree.mustNode(anchor).prev = newNode

	tree.insertRebalance(newNode)
	tree.postMutationCheck("insert before")
	return newNode, nil
}

func (tree *seqTree[V]) Delete(h arena.Handle) error {
	if _, err := tree.liveNode(h); err != nil {
		return infra.WrapErrorStackWithMessage(err, "delete node")
	}
	tree.deleteNode(h)
	tree.postMutationCheck("delete node")
	return nil
}

func (tree *seqTree[V]) deleteNode(node arena.Handle) {
	if !tree.leftOf(node).IsNil() && !tree.rightOf(node).IsNil() {
		// Move the node into its order successor's position so it ends
		// up with at most one child. Contents and order links stay with
		// their handles, so the order chain is untouched and the handle
		// being deleted is the one left structurally removable.
		tree.swapNodes(node, tree.nextOf(node))
	}

	replacement := tree.replacementOf(node)
	bothBlack := tree.colorOf(node) == Black && tree.colorOf(replacement) == Black

	if replacement.IsNil() {
		// The node is a leaf.
		if node == tree.root {
			tree.root = arena.Handle{}
		} else {
			if bothBlack {
				// Run the fixup while the leaf is still attached; it
				// inspects the leaf's sibling and parent chain.
				tree.fixDoubleBlack(node)
			} else {
				// The leaf is red.
				if sibling := tree.siblingOf(node); !sibling.IsNil() {
					tree.setColor(sibling, Red)
				}
			}
			parent := tree.parentOf(node)
			switch tree.direction(node) {
			case Left:
				tree.mustNode(parent).left = arena.Handle{}
			case Right:
				tree.mustNode(parent).right = arena.Handle{}
			default:
				// impossible run to here
				panic("[seqtree] non-root leaf without a parent slot")
			}
		}
		tree.spliceOrder(node)
		tree.store.Remove(node)
		return
	}

	if node == tree.root {
		// One child under the root. The swap hands the root position,
		// and with it the black color, to the replacement.
		tree.swapNodes(node, replacement)
		tree.mustNode(replacement).left = arena.Handle{}
		tree.mustNode(replacement).right = arena.Handle{}
		tree.spliceOrder(node)
		tree.store.Remove(node)
		return
	}

	parent := tree.parentOf(node)
	switch tree.direction(node) {
	case Left:
		tree.mustNode(parent).left = replacement
	case Right:
		tree.mustNode(parent).right = replacement
	default:
		// impossible run to here
		panic("[seqtree] non-root node without a parent slot")
	}
	tree.mustNode(replacement).parent = parent
	tree.spliceOrder(node)
	tree.store.Remove(node)
	if bothBlack {
		// Kept after the physical removal on purpose: the fixup starts
		// from the vacated position and reads only its sibling and
		// parent chain. A lone child is red in a balanced tree, so this
		// branch is reachable only from an already corrupted tree.
		tree.fixDoubleBlack(node)
	} else {
		tree.setColor(replacement, Black)
	}
}

// spliceOrder re-links the deleted node's order-chain neighbors around
// it.
func (tree *seqTree[V]) spliceOrder(node arena.Handle) {
	next, prev := tree.nextOf(node), tree.prevOf(node)
	if !next.IsNil() {
		tree.mustNode(next).prev = prev
	}
	if !prev.IsNil() {
		tree.mustNode(prev).next = next
	}
}

func (tree *seqTree[V]) GetContents(h arena.Handle) (V, error) {
	node, err := tree.liveNode(h)
	if err != nil {
		var zero V
		return zero, infra.WrapErrorStackWithMessage(err, "get contents")
	}
	return node.contents, nil
}

func (tree *seqTree[V]) GetMutContents(h arena.Handle) (*V, error) {
	node, err := tree.liveNode(h)
	if err != nil {
		return nil, infra.WrapErrorStackWithMessage(err, "get mut contents")
	}
	return &node.contents, nil
}

func (tree *seqTree[V]) SetContents(h arena.Handle, v V) error {
	node, err := tree.liveNode(h)
	if err != nil {
		return infra.WrapErrorStackWithMessage(err, "set contents")
	}
	node.contents = v
	return nil
}

func (tree *seqTree[V]) Color(h arena.Handle) (RBColor, error) {
	node, err := tree.liveNode(h)
	if err != nil {
		return Black, infra.WrapErrorStackWithMessage(err, "color")
	}
	return node.color, nil
}

func (tree *seqTree[V]) GetParent(h arena.Handle) (arena.Handle, error) {
	node, err := tree.liveNode(h)
	if err != nil {
		return arena.Handle{}, infra.WrapErrorStackWithMessage(err, "get parent")
	}
	return node.parent, nil
}

func (tree *seqTree[V]) GetLeft(h arena.Handle) (arena.Handle, error) {
	node, err := tree.liveNode(h)
	if err != nil {
		return arena.Handle{}, infra.WrapErrorStackWithMessage(err, "get left")
	}
	return node.left, nil
}

func (tree *seqTree[V]) GetRight(h arena.Handle) (arena.Handle, error) {
	node, err := tree.liveNode(h)
	if err != nil {
		return arena.Handle{}, infra.WrapErrorStackWithMessage(err, "get right")
	}
	return node.right, nil
}

func (tree *seqTree[V]) GetPrev(h arena.Handle) (arena.Handle, error) {
	node, err := tree.liveNode(h)
	if err != nil {
		return arena.Handle{}, infra.WrapErrorStackWithMessage(err, "get prev")
	}
	return node.prev, nil
}

func (tree *seqTree[V]) GetNext(h arena.Handle) (arena.Handle, error) {
	node, err := tree.liveNode(h)
	if err != nil {
		return arena.Handle{}, infra.WrapErrorStackWithMessage(err, "get next")
	}
	return node.next, nil
}

func (tree *seqTree[V]) Front() arena.Handle {
	h := tree.root
	if h.IsNil() {
		return h
	}
	for !tree.leftOf(h).IsNil() {
		h = tree.leftOf(h)
	}
	return h
}

func (tree *seqTree[V]) Back() arena.Handle {
	h := tree.root
	if h.IsNil() {
		return h
	}
	for !tree.rightOf(h).IsNil() {
		h = tree.rightOf(h)
	}
	return h
}

func (tree *seqTree[V]) Foreach(action func(idx int64, h arena.Handle, v V) bool) {
	idx := int64(0)
	for h := tree.Front(); !h.IsNil(); h = tree.nextOf(h) {
		if !action(idx, h, tree.mustNode(h).contents) {
			return
		}
		idx++
	}
}

func (tree *seqTree[V]) ReverseForeach(action func(idx int64, h arena.Handle, v V) bool) {
	idx := int64(0)
	for h := tree.Back(); !h.IsNil(); h = tree.prevOf(h) {
		if !action(idx, h, tree.mustNode(h).contents) {
			return
		}
		idx++
	}
}

func (tree *seqTree[V]) LevelOrderForeach(action func(idx int64, h arena.Handle, v V) bool) {
	if tree.root.IsNil() {
		return
	}
	queue := make([]arena.Handle, 0, tree.Len()>>1+1)
	queue = append(queue, tree.root)
	idx := int64(0)
	for len(queue) > 0 {
		aux := queue[0]
		queue = queue[1:]
		if !action(idx, aux, tree.mustNode(aux).contents) {
			return
		}
		idx++
		if left := tree.leftOf(aux); !left.IsNil() {
			queue = append(queue, left)
		}
		if right := tree.rightOf(aux); !right.IsNil() {
			queue = append(queue, right)
		}
	}
}

func (tree *seqTree[V]) Release() {
	h := tree.Front()
	tree.root = arena.Handle{}
	for !h.IsNil() {
		next := tree.nextOf(h)
		tree.store.Remove(h)
		h = next
	}
}

func (tree *seqTree[V]) postMutationCheck(op string) {
	if tree.sanity == nil {
		return
	}
	err := multierr.Combine(
		StructureViolationValidate[V](tree),
		RedViolationValidate[V](tree),
		BlackViolationValidate[V](tree),
		OrderViolationValidate[V](tree),
	)
	if err != nil {
		tree.sanity.Error("seqtree invariant violation",
			zap.String("op", op),
			zap.Error(err),
		)
		panic("[seqtree] invariant violation after " + op)
	}
}
