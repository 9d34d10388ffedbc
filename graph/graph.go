// Package graph links images whose fingerprints are identical and splits
// the resulting graph into groups.
package graph

import (
	"errors"
	"fmt"
	"sort"

	"findidentical/fingerprint"
	"findidentical/types"
)

var (
	// ErrModeMismatch is returned when two fingerprint sets cannot be compared
	ErrModeMismatch = errors.New("fingerprint sets were extracted differently")
	// ErrEmptyComponent signals a traversal that produced no members
	ErrEmptyComponent = errors.New("connected component has no members")
)

// Graph is an undirected graph over image references
type Graph struct {
	adj   map[types.ImageRef]map[types.ImageRef]struct{}
	edges int
}

// New creates an empty graph
func New() *Graph {
	return &Graph{adj: make(map[types.ImageRef]map[types.ImageRef]struct{})}
}

// AddEdge links a and b; self loops and repeated edges are ignored
func (g *Graph) AddEdge(a, b types.ImageRef) {
	if a == b {
		return
	}
	if _, ok := g.adj[a][b]; ok {
		return
	}
	g.link(a, b)
	g.link(b, a)
	g.edges++
}

func (g *Graph) link(from, to types.ImageRef) {
	set, ok := g.adj[from]
	if !ok {
		set = make(map[types.ImageRef]struct{})
		g.adj[from] = set
	}
	set[to] = struct{}{}
}

// Neighbors returns the vertices adjacent to v in ascending order
func (g *Graph) Neighbors(v types.ImageRef) []types.ImageRef {
	out := make([]types.ImageRef, 0, len(g.adj[v]))
	for n := range g.adj[v] {
		out = append(out, n)
	}
	sortRefs(out)
	return out
}

// Vertices returns every vertex with at least one edge, ascending
func (g *Graph) Vertices() []types.ImageRef {
	out := make([]types.ImageRef, 0, len(g.adj))
	for v := range g.adj {
		out = append(out, v)
	}
	sortRefs(out)
	return out
}

// Len is the number of vertices
func (g *Graph) Len() int {
	return len(g.adj)
}

// EdgeCount is the number of undirected edges
func (g *Graph) EdgeCount() int {
	return g.edges
}

// BuildSingle compares every pair of valid fingerprints in set
func BuildSingle(set *fingerprint.Set) *Graph {
	g := New()
	n := set.Len()
	for i := 0; i < n; i++ {
		fi := set.Get(i)
		if fi == nil {
			continue
		}
		for j := i + 1; j < n; j++ {
			fj := set.Get(j)
			if fj != nil && fingerprint.Equal(fi, fj) {
				g.AddEdge(set.Ref(i), set.Ref(j))
			}
		}
	}
	return g
}

// BuildCross compares every fingerprint of a with every fingerprint of b,
// never two from the same side
func BuildCross(a, b *fingerprint.Set) (*Graph, error) {
	if a.Mode != b.Mode || a.Length != b.Length {
		return nil, fmt.Errorf("%w: %s/%d vs %s/%d", ErrModeMismatch, a.Mode, a.Length, b.Mode, b.Length)
	}

	g := New()
	for i := 0; i < a.Len(); i++ {
		fa := a.Get(i)
		if fa == nil {
			continue
		}
		for j := 0; j < b.Len(); j++ {
			fb := b.Get(j)
			if fb != nil && fingerprint.Equal(fa, fb) {
				g.AddEdge(a.Ref(i), b.Ref(j))
			}
		}
	}
	return g, nil
}

func sortRefs(refs []types.ImageRef) {
	sort.Slice(refs, func(i, j int) bool { return refs[i].Less(refs[j]) })
}
