// Package compiler turns a strategy into an atomic command sequence.
//
// Compile runs schema validation, graph validation, a concurrent
// pre-estimate pass over swap nodes, a deterministic topological sort and
// finally emission, where every node is handed to its protocol adapter or
// to a native handler (split, merge, call) and its outputs are cached for
// the nodes that consume them.
//
// Each Compile call works on its own result cache and transaction builder,
// so a Compiler may be shared. A compile either returns the full program or
// an error; partial programs are discarded.
package compiler
