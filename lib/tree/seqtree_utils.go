package tree

import (
	"errors"
	"fmt"

	"github.com/samber/lo"
	"go.uber.org/multierr"

	"github.com/seqtree/seqtree/lib/arena"
)

// seqtree rule validation utilities. They only go through the public
// surface, so they hold for any store backend.

func inorderHandles[V any](tree SeqTree[V]) []arena.Handle {
	root := tree.Root()
	if root.IsNil() {
		return nil
	}

	handles := make([]arena.Handle, 0, tree.Len())
	stack := make([]arena.Handle, 0, tree.Len()>>1+1)
	for aux := root; !aux.IsNil(); aux = lo.Must(tree.GetLeft(aux)) {
		stack = append(stack, aux)
	}

	for size := len(stack); size > 0; size = len(stack) {
		aux := stack[size-1]
		stack = stack[:size-1]
		handles = append(handles, aux)
		if right := lo.Must(tree.GetRight(aux)); !right.IsNil() {
			for aux = right; !aux.IsNil(); aux = lo.Must(tree.GetLeft(aux)) {
				stack = append(stack, aux)
			}
		}
	}
	return handles
}

// RedViolationValidate reports any RED node with a RED parent or child.
func RedViolationValidate[V any](tree SeqTree[V]) error {
	for _, aux := range inorderHandles(tree) {
		if lo.Must(tree.Color(aux)) != Red {
			continue
		}
		parent := lo.Must(tree.GetParent(aux))
		left, right := lo.Must(tree.GetLeft(aux)), lo.Must(tree.GetRight(aux))
		if (!parent.IsNil() && lo.Must(tree.Color(parent)) == Red) ||
			(!left.IsNil() && lo.Must(tree.Color(left)) == Red) ||
			(!right.IsNil() && lo.Must(tree.Color(right)) == Red) {
			return errors.New("[seqtree] red violation at " + aux.String())
		}
	}
	return nil
}

// BFS traversal to load all nodes adjacent to at least one nil leaf.
func bfsLeaves[V any](tree SeqTree[V]) []arena.Handle {
	root := tree.Root()
	if root.IsNil() {
		return nil
	}

	leaves := make([]arena.Handle, 0, tree.Len()>>1+1)
	queue := make([]arena.Handle, 0, tree.Len()>>1+1)
	queue = append(queue, root)
	for len(queue) > 0 {
		aux := queue[0]
		queue = queue[1:]
		left, right := lo.Must(tree.GetLeft(aux)), lo.Must(tree.GetRight(aux))
		if left.IsNil() || right.IsNil() {
			leaves = append(leaves, aux)
		}
		if !left.IsNil() {
			queue = append(queue, left)
		}
		if !right.IsNil() {
			queue = append(queue, right)
		}
	}
	return leaves
}

func blackDepthTo[V any](tree SeqTree[V], target, to arena.Handle) int {
	depth := 0
	for aux := target; aux != to; aux = lo.Must(tree.GetParent(aux)) {
		if lo.Must(tree.Color(aux)) == Black {
			depth++
		}
	}
	return depth
}

// BlackViolationValidate checks that every downward path to a nil leaf
// crosses the same number of BLACK nodes. Every such path ends under a
// node with at least one nil child, so comparing the black depth of
// those nodes to the root covers all paths.
func BlackViolationValidate[V any](tree SeqTree[V]) error {
	leaves := bfsLeaves(tree)
	if leaves == nil {
		return nil
	}

	var merr error
	blackDepth := blackDepthTo(tree, leaves[0], tree.Root())
	for i := 1; i < len(leaves); i++ {
		if blackDepthTo(tree, leaves[i], tree.Root()) != blackDepth {
			merr = multierr.Append(merr, errors.New("[seqtree] black violation at "+leaves[i].String()))
		}
	}
	return merr
}

// OrderViolationValidate checks invariant coupling between the order
// chain and the tree: the next-walk from the leftmost node must visit
// exactly the live nodes, in the same sequence as the in-order
// traversal, with mutually consistent prev links.
func OrderViolationValidate[V any](tree SeqTree[V]) error {
	var merr error

	chain := make([]arena.Handle, 0, tree.Len())
	prev := arena.Handle{}
	for h := tree.Front(); !h.IsNil(); h = lo.Must(tree.GetNext(h)) {
		if lo.Must(tree.GetPrev(h)) != prev {
			merr = multierr.Append(merr, errors.New("[seqtree] broken prev link at "+h.String()))
		}
		chain = append(chain, h)
		prev = h
	}

	if int64(len(chain)) != tree.Len() {
		merr = multierr.Append(merr,
			fmt.Errorf("[seqtree] order chain visits %d nodes, store holds %d", len(chain), tree.Len()))
	}
	if back := tree.Back(); back != prev {
		merr = multierr.Append(merr,
			fmt.Errorf("[seqtree] order chain ends at %s, rightmost node is %s", prev, back))
	}

	inorder := inorderHandles(tree)
	if len(inorder) != len(chain) {
		merr = multierr.Append(merr,
			fmt.Errorf("[seqtree] order chain length %d != in-order length %d", len(chain), len(inorder)))
		return merr
	}
	for i := range inorder {
		if inorder[i] != chain[i] {
			merr = multierr.Append(merr,
				fmt.Errorf("[seqtree] order chain diverges from in-order at position %d: %s != %s",
					i, chain[i], inorder[i]))
		}
	}
	return merr
}

// StructureViolationValidate checks the pointer bookkeeping: the root
// is BLACK and parentless, and every child points back to its parent.
func StructureViolationValidate[V any](tree SeqTree[V]) error {
	root := tree.Root()
	if root.IsNil() {
		return nil
	}

	var merr error
	if !lo.Must(tree.GetParent(root)).IsNil() {
		merr = multierr.Append(merr, errors.New("[seqtree] root has a parent"))
	}
	if lo.Must(tree.Color(root)) != Black {
		merr = multierr.Append(merr, errors.New("[seqtree] root is not black"))
	}

	queue := []arena.Handle{root}
	for len(queue) > 0 {
		aux := queue[0]
		queue = queue[1:]
		for _, child := range []arena.Handle{lo.Must(tree.GetLeft(aux)), lo.Must(tree.GetRight(aux))} {
			if child.IsNil() {
				continue
			}
			if lo.Must(tree.GetParent(child)) != aux {
				merr = multierr.Append(merr,
					fmt.Errorf("[seqtree] child %s does not point back to parent %s", child, aux))
			}
			queue = append(queue, child)
		}
	}
	return merr
}
