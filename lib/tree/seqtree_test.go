package tree

import (
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/seqtree/seqtree/lib/arena"
)

func orderValues(tree SeqTree[int]) []int {
	out := make([]int, 0, tree.Len())
	tree.Foreach(func(idx int64, h arena.Handle, v int) bool {
		out = append(out, v)
		return true
	})
	return out
}

func levelOrderValues(tree SeqTree[int]) []int {
	out := make([]int, 0, tree.Len())
	tree.LevelOrderForeach(func(idx int64, h arena.Handle, v int) bool {
		out = append(out, v)
		return true
	})
	return out
}

// Black height counted the classic way: a nil leaf contributes 1, so a
// lone black root has height 2.
func blackHeightOf(t *testing.T, tree SeqTree[int], h arena.Handle) int {
	if h.IsNil() {
		return 1
	}
	left := blackHeightOf(t, tree, lo.Must(tree.GetLeft(h)))
	right := blackHeightOf(t, tree, lo.Must(tree.GetRight(h)))
	require.Equalf(t, left, right, "unequal black heights under %s", h)
	if lo.Must(tree.Color(h)) == Black {
		return left + 1
	}
	return left
}

func requireNoViolations(t *testing.T, tree SeqTree[int]) {
	require.NoError(t, StructureViolationValidate[int](tree))
	require.NoError(t, RedViolationValidate[int](tree))
	require.NoError(t, BlackViolationValidate[int](tree))
	require.NoError(t, OrderViolationValidate[int](tree))
}

func seqTreeBackends() map[string]func() SeqTree[int] {
	return map[string]func() SeqTree[int]{
		"gen arena": func() SeqTree[int] { return NewSeqTree[int]() },
		"slot map":  func() SeqTree[int] { return NewSeqTree[int](WithSeqTreeSlotMapStore[int]()) },
	}
}

func seqTreeScenarioInsertionRunCore(t *testing.T, tree SeqTree[int]) {
	seven, err := tree.CreateRoot(7)
	require.NoError(t, err)
	require.True(t, tree.HasRoot())
	require.Equal(t, 2, blackHeightOf(t, tree, tree.Root()))
	require.Equal(t, []int{7}, levelOrderValues(tree))
	require.Equal(t, []int{7}, orderValues(tree))

	six := lo.Must(tree.InsertBefore(seven, 6))
	require.Equal(t, 2, blackHeightOf(t, tree, tree.Root()))
	require.Equal(t, []int{7, 6}, levelOrderValues(tree))
	require.Equal(t, []int{6, 7}, orderValues(tree))

	five := lo.Must(tree.InsertBefore(six, 5))
	require.Equal(t, 2, blackHeightOf(t, tree, tree.Root()))
	require.Equal(t, []int{6, 5, 7}, levelOrderValues(tree))
	require.Equal(t, []int{5, 6, 7}, orderValues(tree))

	four := lo.Must(tree.InsertBefore(five, 4))
	require.Equal(t, 3, blackHeightOf(t, tree, tree.Root()))
	require.Equal(t, []int{6, 5, 7, 4}, levelOrderValues(tree))
	require.Equal(t, []int{4, 5, 6, 7}, orderValues(tree))

	three := lo.Must(tree.InsertBefore(four, 3))
	require.Equal(t, 3, blackHeightOf(t, tree, tree.Root()))
	require.Equal(t, []int{6, 4, 7, 3, 5}, levelOrderValues(tree))
	require.Equal(t, []int{3, 4, 5, 6, 7}, orderValues(tree))

	two := lo.Must(tree.InsertBefore(three, 2))
	require.Equal(t, 3, blackHeightOf(t, tree, tree.Root()))
	require.Equal(t, []int{6, 4, 7, 3, 5, 2}, levelOrderValues(tree))
	require.Equal(t, []int{2, 3, 4, 5, 6, 7}, orderValues(tree))

	_ = lo.Must(tree.InsertBefore(two, 1))
	require.Equal(t, []int{6, 4, 7, 2, 5, 1, 3}, levelOrderValues(tree))
	require.Equal(t, []int{1, 2, 3, 4, 5, 6, 7}, orderValues(tree))
	require.Equal(t, 3, blackHeightOf(t, tree, tree.Root()))

	requireNoViolations(t, tree)
}

func TestSeqTreeScenarioInsertion(t *testing.T) {
	for name, newTree := range seqTreeBackends() {
		t.Run(name, func(tt *testing.T) {
			seqTreeScenarioInsertionRunCore(tt, newTree())
		})
	}
}

// Builds the deletion scenario tree. Order sequence:
// 2 3 6 7 8 10 11 13 18 22 26
func buildScenarioDeletionTree(t *testing.T, tree SeqTree[int]) map[int]arena.Handle {
	seven := lo.Must(tree.CreateRoot(7))
	three := lo.Must(tree.InsertBefore(seven, 3))
	eighteen := lo.Must(tree.InsertAfter(seven, 18))
	ten := lo.Must(tree.InsertAfter(seven, 10))
	twentyTwo := lo.Must(tree.InsertAfter(eighteen, 22))
	eight := lo.Must(tree.InsertBefore(ten, 8))
	eleven := lo.Must(tree.InsertAfter(ten, 11))
	twentySix := lo.Must(tree.InsertAfter(twentyTwo, 26))
	two := lo.Must(tree.InsertBefore(three, 2))
	six := lo.Must(tree.InsertBefore(seven, 6))
	thirteen := lo.Must(tree.InsertAfter(eleven, 13))

	require.Equal(t, []int{10, 7, 18, 3, 8, 11, 22, 2, 6, 13, 26}, levelOrderValues(tree))
	require.Equal(t, []int{2, 3, 6, 7, 8, 10, 11, 13, 18, 22, 26}, orderValues(tree))
	require.Equal(t, 3, blackHeightOf(t, tree, tree.Root()))

	return map[int]arena.Handle{
		2: two, 3: three, 6: six, 7: seven, 8: eight, 10: ten,
		11: eleven, 13: thirteen, 18: eighteen, 22: twentyTwo, 26: twentySix,
	}
}

func seqTreeScenarioDeletionRunCore(t *testing.T, tree SeqTree[int]) {
	handles := buildScenarioDeletionTree(t, tree)

	require.NoError(t, tree.Delete(handles[18]))
	require.Equal(t, []int{10, 7, 22, 3, 8, 11, 26, 2, 6, 13}, levelOrderValues(tree))
	require.Equal(t, []int{2, 3, 6, 7, 8, 10, 11, 13, 22, 26}, orderValues(tree))
	requireNoViolations(t, tree)

	require.NoError(t, tree.Delete(handles[11]))
	require.Equal(t, []int{10, 7, 22, 3, 8, 13, 26, 2, 6}, levelOrderValues(tree))
	require.Equal(t, []int{2, 3, 6, 7, 8, 10, 13, 22, 26}, orderValues(tree))
	requireNoViolations(t, tree)

	require.NoError(t, tree.Delete(handles[3]))
	require.Equal(t, []int{10, 7, 22, 6, 8, 13, 26, 2}, levelOrderValues(tree))
	require.Equal(t, []int{2, 6, 7, 8, 10, 13, 22, 26}, orderValues(tree))
	requireNoViolations(t, tree)

	require.NoError(t, tree.Delete(handles[10]))
	require.Equal(t, []int{13, 7, 22, 6, 8, 26, 2}, levelOrderValues(tree))
	require.Equal(t, []int{2, 6, 7, 8, 13, 22, 26}, orderValues(tree))
	requireNoViolations(t, tree)

	require.NoError(t, tree.Delete(handles[22]))
	require.Equal(t, []int{13, 7, 26, 6, 8, 2}, levelOrderValues(tree))
	require.Equal(t, []int{2, 6, 7, 8, 13, 26}, orderValues(tree))
	require.Equal(t, 3, blackHeightOf(t, tree, tree.Root()))
	requireNoViolations(t, tree)
}

func TestSeqTreeScenarioDeletion(t *testing.T) {
	for name, newTree := range seqTreeBackends() {
		t.Run(name, func(tt *testing.T) {
			seqTreeScenarioDeletionRunCore(tt, newTree())
		})
	}
}

func TestSeqTreeCreateRootPrecondition(t *testing.T) {
	tree := NewSeqTree[int]()
	root, err := tree.CreateRoot(1)
	require.NoError(t, err)

	second, err := tree.CreateRoot(2)
	require.ErrorIs(t, err, ErrSeqTreeRootOccupied)
	require.True(t, second.IsNil())

	// The failed call must not have mutated anything.
	require.Equal(t, int64(1), tree.Len())
	require.Equal(t, root, tree.Root())
	require.Equal(t, 1, lo.Must(tree.GetContents(root)))
}

func TestSeqTreeStaleHandle(t *testing.T) {
	tree := NewSeqTree[int]()
	root := lo.Must(tree.CreateRoot(1))
	second := lo.Must(tree.InsertAfter(root, 2))
	require.NoError(t, tree.Delete(second))

	_, err := tree.GetContents(second)
	require.ErrorIs(t, err, ErrSeqTreeStaleHandle)
	_, err = tree.GetMutContents(second)
	require.ErrorIs(t, err, ErrSeqTreeStaleHandle)
	require.ErrorIs(t, tree.SetContents(second, 3), ErrSeqTreeStaleHandle)
	_, err = tree.InsertAfter(second, 3)
	require.ErrorIs(t, err, ErrSeqTreeStaleHandle)
	_, err = tree.InsertBefore(second, 3)
	require.ErrorIs(t, err, ErrSeqTreeStaleHandle)
	require.ErrorIs(t, tree.Delete(second), ErrSeqTreeStaleHandle)
	_, err = tree.GetNext(second)
	require.ErrorIs(t, err, ErrSeqTreeStaleHandle)

	var nilHandle arena.Handle
	_, err = tree.GetContents(nilHandle)
	require.ErrorIs(t, err, ErrSeqTreeStaleHandle)

	// The survivor is untouched.
	require.Equal(t, int64(1), tree.Len())
	require.Equal(t, 1, lo.Must(tree.GetContents(root)))
}

func TestSeqTreeContentsAccessors(t *testing.T) {
	tree := NewSeqTree[int]()
	root := lo.Must(tree.CreateRoot(10))
	after := lo.Must(tree.InsertAfter(root, 20))

	require.NoError(t, tree.SetContents(root, 11))
	require.Equal(t, 11, lo.Must(tree.GetContents(root)))

	contents := lo.Must(tree.GetMutContents(after))
	*contents = 21
	require.Equal(t, 21, lo.Must(tree.GetContents(after)))

	// Contents stay with their handle across the structural swap that
	// deletion of a two-child node performs.
	before := lo.Must(tree.InsertBefore(root, 5))
	require.NoError(t, tree.Delete(root))
	require.Equal(t, []int{5, 21}, orderValues(tree))
	require.Equal(t, 5, lo.Must(tree.GetContents(before)))
	require.Equal(t, 21, lo.Must(tree.GetContents(after)))
}

func TestSeqTreeNavigation(t *testing.T) {
	tree := NewSeqTree[int]()
	handles := buildScenarioDeletionTree(t, tree)

	// Level order is 10 7 18 ..., so 10 is the root.
	require.Equal(t, handles[10], tree.Root())
	require.True(t, lo.Must(tree.GetParent(handles[10])).IsNil())
	require.Equal(t, handles[7], lo.Must(tree.GetLeft(handles[10])))
	require.Equal(t, handles[18], lo.Must(tree.GetRight(handles[10])))
	require.Equal(t, handles[10], lo.Must(tree.GetParent(handles[7])))

	require.Equal(t, handles[2], tree.Front())
	require.Equal(t, handles[26], tree.Back())
	require.True(t, lo.Must(tree.GetPrev(handles[2])).IsNil())
	require.True(t, lo.Must(tree.GetNext(handles[26])).IsNil())
	require.Equal(t, handles[8], lo.Must(tree.GetNext(handles[7])))
	require.Equal(t, handles[7], lo.Must(tree.GetPrev(handles[8])))

	require.Equal(t, Black, lo.Must(tree.Color(handles[10])))
}

func TestSeqTreeTraversals(t *testing.T) {
	tree := NewSeqTree[int]()
	buildScenarioDeletionTree(t, tree)

	reversed := make([]int, 0, tree.Len())
	tree.ReverseForeach(func(idx int64, h arena.Handle, v int) bool {
		reversed = append(reversed, v)
		return true
	})
	require.Equal(t, []int{26, 22, 18, 13, 11, 10, 8, 7, 6, 3, 2}, reversed)

	// Early stop.
	visited := 0
	tree.Foreach(func(idx int64, h arena.Handle, v int) bool {
		visited++
		return idx < 2
	})
	require.Equal(t, 3, visited)

	visited = 0
	tree.LevelOrderForeach(func(idx int64, h arena.Handle, v int) bool {
		visited++
		return false
	})
	require.Equal(t, 1, visited)
}

func TestSeqTreeRelease(t *testing.T) {
	tree := NewSeqTree[int]()
	buildScenarioDeletionTree(t, tree)

	tree.Release()
	require.False(t, tree.HasRoot())
	require.Equal(t, int64(0), tree.Len())
	require.True(t, tree.Front().IsNil())

	// The tree is reusable after a release.
	root := lo.Must(tree.CreateRoot(42))
	require.Equal(t, []int{42}, orderValues(tree))
	require.NoError(t, tree.Delete(root))
	require.False(t, tree.HasRoot())
}

func TestSeqTreeEmptyAndSingle(t *testing.T) {
	tree := NewSeqTree[int]()
	require.False(t, tree.HasRoot())
	require.True(t, tree.Root().IsNil())
	require.True(t, tree.Front().IsNil())
	require.True(t, tree.Back().IsNil())
	requireNoViolations(t, tree)

	root := lo.Must(tree.CreateRoot(1))
	require.Equal(t, root, tree.Front())
	require.Equal(t, root, tree.Back())
	requireNoViolations(t, tree)

	require.NoError(t, tree.Delete(root))
	require.False(t, tree.HasRoot())
	require.Equal(t, int64(0), tree.Len())
	requireNoViolations(t, tree)
}

func TestSeqTreeRootWithSingleChildDeletion(t *testing.T) {
	type testcase struct {
		name        string
		insertAfter bool
	}
	testcases := []testcase{
		{name: "child before root"},
		{name: "child after root", insertAfter: true},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(tt *testing.T) {
			tree := NewSeqTree[int]()
			root := lo.Must(tree.CreateRoot(1))
			var child arena.Handle
			if tc.insertAfter {
				child = lo.Must(tree.InsertAfter(root, 2))
			} else {
				child = lo.Must(tree.InsertBefore(root, 0))
			}

			require.NoError(tt, tree.Delete(root))
			require.Equal(tt, child, tree.Root())
			require.Equal(tt, Black, lo.Must(tree.Color(child)))
			require.True(tt, lo.Must(tree.GetPrev(child)).IsNil())
			require.True(tt, lo.Must(tree.GetNext(child)).IsNil())
			requireNoViolations(tt, tree)

			require.NoError(tt, tree.Delete(child))
			require.False(tt, tree.HasRoot())
		})
	}
}

func TestSeqTreeSanityCheckOption(t *testing.T) {
	tree := NewSeqTree[int](WithSeqTreeSanityCheck[int](zaptest.NewLogger(t)))
	seven := lo.Must(tree.CreateRoot(7))
	anchor := seven
	for v := 6; v >= 1; v-- {
		anchor = lo.Must(tree.InsertBefore(anchor, v))
	}
	require.Equal(t, []int{1, 2, 3, 4, 5, 6, 7}, orderValues(tree))
	for _, h := range inorderHandles[int](tree) {
		require.NoError(t, tree.Delete(h))
	}
	require.False(t, tree.HasRoot())
}
