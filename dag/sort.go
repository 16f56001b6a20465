package dag

import (
	"sort"

	"github.com/kbukum/strategykit/strategy"
)

// Sort returns the node ids of s in a dependency-respecting order. Among
// nodes that are ready at the same time the one earlier in the document
// goes first, so identical input always sorts identically.
//
// s must already have passed graph validation. Should a cycle slip through
// anyway, the nodes on it are appended in document order so the result is
// still a permutation of the node ids.
func Sort(s *strategy.Strategy) []string {
	return FromStrategy(s).Sort()
}

// Sort orders g with Kahn's algorithm, breaking ties by document position.
func (g *Graph) Sort() []string {
	inDegree, dependents := g.inDegrees()

	// ready holds document positions, kept ascending.
	var ready []int
	push := func(id string) {
		pos := g.index[id]
		i := sort.SearchInts(ready, pos)
		ready = append(ready, 0)
		copy(ready[i+1:], ready[i:])
		ready[i] = pos
	}
	for _, id := range g.Order {
		if inDegree[id] == 0 {
			push(id)
		}
	}

	order := make([]string, 0, len(g.Order))
	emitted := make(map[string]bool, len(g.Order))
	for len(ready) > 0 {
		id := g.Order[ready[0]]
		ready = ready[1:]
		order = append(order, id)
		emitted[id] = true
		for _, dep := range dependents[id] {
			inDegree[dep]--
			if inDegree[dep] == 0 {
				push(dep)
			}
		}
	}

	for _, id := range g.Order {
		if !emitted[id] {
			order = append(order, id)
		}
	}
	return order
}
