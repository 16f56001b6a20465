// Package dag holds the dependency graph of a strategy and everything that
// works on it: the graph checks (resource pairing, type compatibility,
// acyclicity, command budget, reference integrity), the deterministic
// topological sort, dependency levels, a level-based concurrent task engine
// and the per-compile result cache.
//
// The graph is the union of declared edges and the arcs implied by input
// references, so a strategy that validates always resolves every reference
// in sorted order.
package dag
