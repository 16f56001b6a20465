// Package strategy defines the strategy document: nodes, their declared
// outputs and input references, and the edges between them.
//
// Edges carry a tagged class, ValueEdge or ReceiptEdge, rather than a flag.
// Node parameters stay as a raw map on the document and are decoded into
// per-kind structs with DecodeParams or Node.TypedParams:
//
//	s, err := strategy.Load("flash.yaml")
//	for _, n := range s.Nodes {
//	    p, err := n.TypedParams()
//	    ...
//	}
package strategy
