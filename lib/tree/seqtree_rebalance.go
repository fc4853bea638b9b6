package tree

import (
	"github.com/seqtree/seqtree/lib/arena"
)

// References:
// https://elixir.bootlin.com/linux/latest/source/lib/rbtree.c
// https://en.wikipedia.org/wiki/Red%E2%80%93black_tree#Properties
// p1. Every node is either red or black.
// p2. All NIL nodes are considered black.
// p3. A red node does not have a red child. (red-violation)
// p4. Every path from a given node to any of its descendant
//   NIL nodes goes through the same number of black nodes. (black-violation)
// p5. The root is black.
// (Conclusion) A node with exactly one child has a red child, because a
// black lone child would put its NIL descendants at a different black
// depth than the node's own NIL slot, violating p4.
//
// Unlike a key-ordered rbtree there is no compare path here: placement
// is decided by the order chain, and the chain never has to be fixed up
// afterwards because rotations preserve the in-order sequence and the
// structural swap leaves prev/next with their original handles.

// direction classifies a node as the left child, the right child, or
// the root. Derived from the parent pointer on demand; never stored.
func (tree *seqTree[V]) direction(node arena.Handle) RBDirection {
	parent := tree.parentOf(node)
	if parent.IsNil() {
		return Root
	}
	if tree.leftOf(parent) == node {
		return Left
	}
	return Right
}

func (tree *seqTree[V]) siblingOf(node arena.Handle) arena.Handle {
	parent := tree.parentOf(node)
	switch tree.direction(node) {
	case Left:
		return tree.rightOf(parent)
	case Right:
		return tree.leftOf(parent)
	default:
	}
	return arena.Handle{}
}

func (tree *seqTree[V]) uncleOf(node arena.Handle) arena.Handle {
	parent := tree.parentOf(node)
	if parent.IsNil() {
		return arena.Handle{}
	}
	return tree.siblingOf(parent)
}

// replacementOf returns the node that takes a deleted node's place in
// the tree: its sole child, or the nil handle for a leaf. The two-child
// case is eliminated by the order-successor swap before this query runs.
func (tree *seqTree[V]) replacementOf(node arena.Handle) arena.Handle {
	left, right := tree.leftOf(node), tree.rightOf(node)
	if !left.IsNil() && !right.IsNil() {
		// impossible run to here
		panic("[seqtree] replacement query on a node with two children")
	}
	if !left.IsNil() {
		return left
	}
	return right
}

/*
		 |                         |
		 X                         S
		/ \     leftRotate(X)     / \
	   L   S    ============>    X   Sd
		  / \                   / \
		Sc   Sd                L   Sc
*/
func (tree *seqTree[V]) leftRotate(rotationRoot arena.Handle) {
	pivot := tree.rightOf(rotationRoot)
	if pivot.IsNil() {
		// impossible run to here
		panic("[seqtree] left rotate without a right child pivot")
	}
	pivotLeft := tree.leftOf(pivot)
	parent := tree.parentOf(rotationRoot)
	dir := tree.direction(rotationRoot)

	tree.mustNode(rotationRoot).right = pivotLeft
	if !pivotLeft.IsNil() {
		tree.mustNode(pivotLeft).parent = rotationRoot
	}

	tree.mustNode(pivot).parent = parent
	switch dir {
	case Left:
		tree.mustNode(parent).left = pivot
	case Right:
		tree.mustNode(parent).right = pivot
	case Root:
		tree.root = pivot
	}

	tree.mustNode(pivot).left = rotationRoot
	tree.mustNode(rotationRoot).parent = pivot
}

/*
		 |                         |
		 X                         S
		/ \     rightRotate(X)    / \
	   S   R    ============>    Sc  X
	  / \                           / \
	Sc   Sd                       Sd   R
*/
func (tree *seqTree[V]) rightRotate(rotationRoot arena.Handle) {
	pivot := tree.leftOf(rotationRoot)
	if pivot.IsNil() {
		// impossible run to here
		panic("[seqtree] right rotate without a left child pivot")
	}
	pivotRight := tree.rightOf(pivot)
	parent := tree.parentOf(rotationRoot)
	dir := tree.direction(rotationRoot)

	tree.mustNode(rotationRoot).left = pivotRight
	if !pivotRight.IsNil() {
		tree.mustNode(pivotRight).parent = rotationRoot
	}

	tree.mustNode(pivot).parent = parent
	switch dir {
	case Left:
		tree.mustNode(parent).left = pivot
	case Right:
		tree.mustNode(parent).right = pivot
	case Root:
		tree.root = pivot
	}

	tree.mustNode(pivot).right = rotationRoot
	tree.mustNode(rotationRoot).parent = pivot
}

/*
New node X is red on arrival.

<X> is a RED node.
[X] is a BLACK node (or NIL).

im1: Parent P and uncle U are both red, grandpa G is black.
Repainting pushes the red conflict up to G; recurse from there.

	    [G]             <G>
	    / \             / \
	  <P> <U>  ====>  [P] [U]
	  /               /
	<X>             <X>

im2: Uncle U is black and X sits on the inner side ("opposite" to P's
direction). Rotating P lines X and P up for im3.

	  [G]                 [G]
	  / \    rotate(P)    / \
	<P> [U]  ========>  <X> [U]
	  \                 /
	  <X>             <P>

im3: Uncle U is black and X sits on the outer side. Recolor and rotate
G away from the conflict; the subtree root is black again.

	    [G]                 [P]
	    / \    repaint      / \
	  <P> [U]  + rotate:  <X> <G>
	  /                         \
	<X>                         [U]
*/
func (tree *seqTree[V]) insertRebalance(node arena.Handle) {
	for tree.isRed(tree.parentOf(node)) {
		// A red parent is never the root, so a grandparent exists.
		parent := tree.parentOf(node)
		grandpa := tree.parentOf(parent)
		uncle := tree.uncleOf(node)

		if /* im1 */ tree.isRed(uncle) {
			tree.setColor(uncle, Black)
			tree.setColor(parent, Black)
			tree.setColor(grandpa, Red)
			node = grandpa
			continue
		}

		parentDir := tree.direction(parent)
		if /* im2 */ tree.direction(node) != parentDir {
			if parentDir == Left {
				tree.leftRotate(parent)
			} else {
				tree.rightRotate(parent)
			}
			// The rotation swapped the roles of node and parent.
			node = parent
			parent = tree.parentOf(node)
		}

		/* im3 */
		tree.setColor(parent, Black)
		tree.setColor(grandpa, Red)
		if tree.direction(parent) == Left {
			tree.rightRotate(grandpa)
		} else {
			tree.leftRotate(grandpa)
		}
	}
	tree.setColor(tree.root, Black)
}

/*
fixDoubleBlack resolves a one-unit black-height deficit at node, looping
until the deficit dies out or reaches the root.

<X> is a RED node.
[X] is a BLACK node (or NIL).
{X} is either.

dm1: No sibling. The deficit is pushed to the parent.

dm2: Sibling S is red, so parent P and the nephews are black. Rotate P
toward S's side and repaint; the deficit persists under a new sibling.

	  [P]                   <S>               [S]
	  / \    l-rotate(P)    / \    repaint    / \
	[X] <S>  ==========>  [P] [Sd]  ======>  <P> [Sd]
	    / \               / \               / \
	 [Sc] [Sd]          [X] [Sc]          [X] [Sc]

dm3: Sibling S is black with a red child. One or two rotations and a
repaint terminate, in four shapes depending on which side S and its red
child sit (left-left, right-left, left-right, right-right).

dm4: Sibling S is black with two black children. Repaint S red; if P is
black the deficit moves to P, otherwise painting P black absorbs it.

	  {P}             {P}
	  / \             / \
	[X] [S]  ====>  [X] <S>
	    / \             / \
	 [Sc] [Sd]       [Sc] [Sd]
*/
func (tree *seqTree[V]) fixDoubleBlack(node arena.Handle) {
	for node != tree.root {
		sibling := tree.siblingOf(node)
		parent := tree.parentOf(node)

		if /* dm1 */ sibling.IsNil() {
			node = parent
			continue
		}

		if /* dm2 */ tree.isRed(sibling) {
			tree.setColor(parent, Red)
			tree.setColor(sibling, Black)
			switch tree.direction(sibling) {
			case Left:
				tree.rightRotate(parent)
			case Right:
				tree.leftRotate(parent)
			default:
				// impossible run to here
				panic("[seqtree] a sibling can not be the root")
			}
			continue
		}

		if /* dm3 */ siblingLeft := tree.leftOf(sibling); tree.isRed(siblingLeft) {
			switch tree.direction(sibling) {
			case Left: // left-left
				tree.setColor(siblingLeft, tree.colorOf(sibling))
				tree.setColor(sibling, tree.colorOf(parent))
				tree.rightRotate(parent)
			case Right: // right-left
				tree.setColor(siblingLeft, tree.colorOf(parent))
				tree.rightRotate(sibling)
				tree.leftRotate(parent)
			default:
				// impossible run to here
				panic("[seqtree] a sibling can not be the root")
			}
			tree.setColor(parent, Black)
			return
		} else if siblingRight := tree.rightOf(sibling); tree.isRed(siblingRight) {
			switch tree.direction(sibling) {
			case Left: // left-right
				tree.setColor(siblingRight, tree.colorOf(parent))
				tree.leftRotate(sibling)
				tree.rightRotate(parent)
			case Right: // right-right
				tree.setColor(siblingRight, tree.colorOf(sibling))
				tree.setColor(sibling, tree.colorOf(parent))
				tree.leftRotate(parent)
			default:
				// impossible run to here
				panic("[seqtree] a sibling can not be the root")
			}
			tree.setColor(parent, Black)
			return
		}

		/* dm4 */
		tree.setColor(sibling, Red)
		if tree.isBlack(parent) {
			node = parent
		} else {
			tree.setColor(parent, Black)
			return
		}
	}
}

// swapNodes exchanges the tree roles of a and b: parent, children and
// color. Contents and the prev/next order links stay with their original
// handles. The deletion path only ever calls this with b equal to a's
// order successor, which keeps the order chain valid by construction.
func (tree *seqTree[V]) swapNodes(a, b arena.Handle) {
	aParent, bParent := tree.parentOf(a), tree.parentOf(b)
	aLeft, bLeft := tree.leftOf(a), tree.leftOf(b)
	aRight, bRight := tree.rightOf(a), tree.rightOf(b)

	// When one is the other's direct child, blindly exchanging parents
	// would write a self-loop; substitute the self reference up front.
	if aParent == b {
		aParent = a
	} else if bParent == a {
		bParent = b
	}

	switch tree.direction(a) {
	case Left:
		tree.mustNode(aParent).left = b
	case Right:
		tree.mustNode(aParent).right = b
	case Root:
		tree.root = b
	}
	switch tree.direction(b) {
	case Left:
		tree.mustNode(bParent).left = a
	case Right:
		tree.mustNode(bParent).right = a
	case Root:
		tree.root = a
	}
	tree.mustNode(a).parent = bParent
	tree.mustNode(b).parent = aParent

	if bLeft != a {
		tree.mustNode(a).left = bLeft
		if !bLeft.IsNil() {
			tree.mustNode(bLeft).parent = a
		}
	}
	if aLeft != b {
		tree.mustNode(b).left = aLeft
		if !aLeft.IsNil() {
			tree.mustNode(aLeft).parent = b
		}
	}

	if bRight != a {
		tree.mustNode(a).right = bRight
		if !bRight.IsNil() {
			tree.mustNode(bRight).parent = a
		}
	}
	if aRight != b {
		tree.mustNode(b).right = aRight
		if !aRight.IsNil() {
			tree.mustNode(aRight).parent = b
		}
	}

	aColor := tree.colorOf(a)
	tree.setColor(a, tree.colorOf(b))
	tree.setColor(b, aColor)
}
