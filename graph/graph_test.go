package graph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"findidentical/fingerprint"
	"findidentical/types"
)

func a(i int) types.ImageRef { return types.Ref(types.CollectionA, i) }
func b(i int) types.ImageRef { return types.Ref(types.CollectionB, i) }

func newSet(t *testing.T, c types.Collection, mode fingerprint.Mode, indices []int, fps [][]byte) *fingerprint.Set {
	t.Helper()
	set, err := fingerprint.FromFingerprints(c, mode, indices, fps)
	require.NoError(t, err)
	return set
}

func TestGraphEdges(t *testing.T) {
	g := New()
	g.AddEdge(a(2), a(1))
	g.AddEdge(a(1), a(2))
	g.AddEdge(a(3), a(3))
	g.AddEdge(a(1), b(0))

	assert.Equal(t, 2, g.EdgeCount())
	assert.Equal(t, 3, g.Len())
	assert.Equal(t, []types.ImageRef{a(1), a(2), b(0)}, g.Vertices())
	assert.Equal(t, []types.ImageRef{a(2), b(0)}, g.Neighbors(a(1)))
	assert.Empty(t, g.Neighbors(a(9)))
}

func TestBuildSingle(t *testing.T) {
	set := newSet(t, types.CollectionA, fingerprint.ModeSparse,
		[]int{4, 7, 9, 12},
		[][]byte{{1, 2}, {3, 4}, {1, 2}, nil})

	g := BuildSingle(set)
	assert.Equal(t, 1, g.EdgeCount())
	assert.Equal(t, []types.ImageRef{a(9)}, g.Neighbors(a(4)))
	assert.Empty(t, g.Neighbors(a(12)))
}

func TestBuildSingleAllEqualIsComplete(t *testing.T) {
	fps := [][]byte{{5}, {5}, {5}, {5}}
	set := newSet(t, types.CollectionA, fingerprint.ModeSparse, []int{0, 1, 2, 3}, fps)
	g := BuildSingle(set)
	assert.Equal(t, 6, g.EdgeCount())

	groups, err := Components(g)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, types.Group{a(0), a(1), a(2), a(3)}, groups[0])
}

func TestBuildCrossOnlyLinksAcrossCollections(t *testing.T) {
	left := newSet(t, types.CollectionA, fingerprint.ModeSparse,
		[]int{0, 1}, [][]byte{{9, 9}, {9, 9}})
	right := newSet(t, types.CollectionB, fingerprint.ModeSparse,
		[]int{5, 6}, [][]byte{{9, 9}, {1, 1}})

	g, err := BuildCross(left, right)
	require.NoError(t, err)
	assert.Equal(t, 2, g.EdgeCount())
	assert.Equal(t, []types.ImageRef{b(5)}, g.Neighbors(a(0)))
	assert.Equal(t, []types.ImageRef{a(0), a(1)}, g.Neighbors(b(5)))

	groups, err := Components(g)
	require.NoError(t, err)
	assert.Equal(t, []types.Group{{a(0), a(1), b(5)}}, groups)
}

func TestBuildCrossModeMismatch(t *testing.T) {
	left := newSet(t, types.CollectionA, fingerprint.ModeSparse, []int{0}, [][]byte{{1}})
	right := newSet(t, types.CollectionB, fingerprint.ModeExhaustive, []int{0}, [][]byte{{1}})

	_, err := BuildCross(left, right)
	assert.True(t, errors.Is(err, ErrModeMismatch))
}

func TestComponentsCoverEveryVertexOnce(t *testing.T) {
	g := New()
	// chain 0-1-2, pair 5-3, cross pair 4-b0
	g.AddEdge(a(0), a(1))
	g.AddEdge(a(1), a(2))
	g.AddEdge(a(5), a(3))
	g.AddEdge(a(4), b(0))

	groups, err := Components(g)
	require.NoError(t, err)
	assert.Equal(t, []types.Group{
		{a(0), a(1), a(2)},
		{a(3), a(5)},
		{a(4), b(0)},
	}, groups)

	seen := map[types.ImageRef]int{}
	for _, grp := range groups {
		assert.GreaterOrEqual(t, len(grp), 2)
		for _, v := range grp {
			seen[v]++
		}
	}
	for _, v := range g.Vertices() {
		assert.Equal(t, 1, seen[v], v.String())
	}
}

func TestComponentsLongChainNoRecursion(t *testing.T) {
	g := New()
	const n = 200000
	for i := 0; i < n-1; i++ {
		g.AddEdge(a(i), a(i+1))
	}
	groups, err := Components(g)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Len(t, groups[0], n)
}

func TestComponentsEmptyGraph(t *testing.T) {
	groups, err := Components(New())
	require.NoError(t, err)
	assert.Empty(t, groups)
}
