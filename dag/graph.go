package dag

import (
	"fmt"
	"sort"

	"github.com/kbukum/strategykit/strategy"
)

// Arc is a dependency: To runs after From. EdgeID is empty for arcs implied
// by an input reference.
type Arc struct {
	From     string
	To       string
	EdgeID   string
	Implicit bool
}

// Graph is the dependency graph of a strategy: declared edges plus one arc
// per input reference. Arcs touching unknown nodes are left out; reference
// integrity reports them.
type Graph struct {
	// Order lists node ids in document order, first occurrence only.
	Order []string
	Nodes map[string]*strategy.Node
	Arcs  []Arc

	index map[string]int
	succ  map[string][]string
}

// FromStrategy builds the dependency graph of s.
func FromStrategy(s *strategy.Strategy) *Graph {
	g := &Graph{
		Nodes: make(map[string]*strategy.Node, len(s.Nodes)),
		index: make(map[string]int, len(s.Nodes)),
	}
	for i := range s.Nodes {
		n := &s.Nodes[i]
		if _, dup := g.Nodes[n.ID]; dup {
			continue
		}
		g.Nodes[n.ID] = n
		g.index[n.ID] = len(g.Order)
		g.Order = append(g.Order, n.ID)
	}

	for _, e := range s.Edges {
		if g.has(e.Source) && g.has(e.Target) {
			g.Arcs = append(g.Arcs, Arc{From: e.Source, To: e.Target, EdgeID: e.ID})
		}
	}
	for _, id := range g.Order {
		for _, c := range g.Nodes[id].Consumed() {
			ref, err := strategy.ParseReference(c.Ref)
			if err != nil || ref.Gas || !g.has(ref.Node) {
				continue
			}
			g.Arcs = append(g.Arcs, Arc{From: ref.Node, To: id, Implicit: true})
		}
	}
	g.link()
	return g
}

// link derives the distinct successor lists from the arcs.
func (g *Graph) link() {
	g.succ = make(map[string][]string, len(g.Order))
	seen := make(map[Arc]bool, len(g.Arcs))
	for _, a := range g.Arcs {
		key := Arc{From: a.From, To: a.To}
		if seen[key] {
			continue
		}
		seen[key] = true
		g.succ[a.From] = append(g.succ[a.From], a.To)
	}
	for id, out := range g.succ {
		sort.Slice(out, func(i, j int) bool { return g.index[out[i]] < g.index[out[j]] })
		g.succ[id] = out
	}
}

func (g *Graph) has(id string) bool {
	_, ok := g.Nodes[id]
	return ok
}

// Successors returns the distinct successors of id in document order.
func (g *Graph) Successors(id string) []string {
	return g.succ[id]
}

// Position returns the document position of id, or -1.
func (g *Graph) Position(id string) int {
	if i, ok := g.index[id]; ok {
		return i
	}
	return -1
}

// inDegrees counts distinct predecessors per node.
func (g *Graph) inDegrees() (map[string]int, map[string][]string) {
	inDegree := make(map[string]int, len(g.Order))
	dependents := make(map[string][]string, len(g.Order))
	for _, id := range g.Order {
		inDegree[id] = 0
	}
	for _, id := range g.Order {
		for _, to := range g.Successors(id) {
			inDegree[to]++
			dependents[id] = append(dependents[id], to)
		}
	}
	return inDegree, dependents
}

// BuildLevels uses Kahn's algorithm to group nodes by dependency level.
// Nodes within the same level do not depend on each other and keep document
// order. Returns an error if a cycle is detected.
func BuildLevels(g *Graph) ([][]string, error) {
	inDegree, dependents := g.inDegrees()

	var queue []string
	for _, id := range g.Order {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	var levels [][]string
	visited := 0

	for len(queue) > 0 {
		levels = append(levels, queue)
		visited += len(queue)

		var next []string
		for _, id := range queue {
			for _, dep := range dependents[id] {
				inDegree[dep]--
				if inDegree[dep] == 0 {
					next = append(next, dep)
				}
			}
		}
		sort.Slice(next, func(i, j int) bool { return g.index[next[i]] < g.index[next[j]] })
		queue = next
	}

	if visited != len(g.Order) {
		return nil, fmt.Errorf("dag: cycle detected, processed %d of %d nodes", visited, len(g.Order))
	}

	return levels, nil
}
