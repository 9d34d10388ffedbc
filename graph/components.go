package graph

import (
	"findidentical/types"
)

// Components splits g into its connected components. Every vertex ends up in
// exactly one group; groups are sorted and ordered by their smallest member.
func Components(g *Graph) ([]types.Group, error) {
	visited := make(map[types.ImageRef]bool, g.Len())
	var groups []types.Group

	for _, start := range g.Vertices() {
		if visited[start] {
			continue
		}

		var members []types.ImageRef
		stack := []types.ImageRef{start}
		visited[start] = true
		for len(stack) > 0 {
			v := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			members = append(members, v)

			for n := range g.adj[v] {
				if !visited[n] {
					visited[n] = true
					stack = append(stack, n)
				}
			}
		}

		if len(members) == 0 {
			return nil, ErrEmptyComponent
		}
		groups = append(groups, types.NewGroup(members))
	}

	types.SortGroups(groups)
	return groups, nil
}
