package strategy

import (
	"sort"
	"time"
)

// NodeKind is the operation a node performs.
type NodeKind string

const (
	KindBorrow NodeKind = "borrow"
	KindRepay  NodeKind = "repay"
	KindSwap   NodeKind = "swap"
	KindSplit  NodeKind = "split"
	KindMerge  NodeKind = "merge"
	KindCall   NodeKind = "call"
)

// Kinds lists every node kind in document order.
var Kinds = []NodeKind{KindBorrow, KindRepay, KindSwap, KindSplit, KindMerge, KindCall}

// Valid reports whether k is a known kind.
func (k NodeKind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// Native reports whether nodes of this kind are handled by the compiler
// itself rather than a protocol adapter.
func (k NodeKind) Native() bool {
	return k == KindSplit || k == KindMerge || k == KindCall
}

// ProtocolNative tags nodes that need no adapter.
const ProtocolNative = "native"

// OutputClass distinguishes freely transferable values from linear receipts.
type OutputClass string

const (
	ClassValue   OutputClass = "value"
	ClassReceipt OutputClass = "receipt"
)

// Output is a slot declared by a producing node.
type Output struct {
	ID    string      `json:"id" yaml:"id" validate:"required,slot_id"`
	Type  string      `json:"type,omitempty" yaml:"type,omitempty" validate:"omitempty,move_type"`
	Class OutputClass `json:"class" yaml:"class" validate:"required,oneof=value receipt"`
}

// Node is one declared operation.
type Node struct {
	ID       string            `json:"id" yaml:"id" validate:"required,slot_id"`
	Kind     NodeKind          `json:"kind" yaml:"kind" validate:"required,oneof=borrow repay swap split merge call"`
	Protocol string            `json:"protocol" yaml:"protocol" validate:"required"`
	Params   map[string]any    `json:"params,omitempty" yaml:"params,omitempty"`
	Outputs  []Output          `json:"outputs,omitempty" yaml:"outputs,omitempty" validate:"dive"`
	Inputs   map[string]string `json:"inputs,omitempty" yaml:"inputs,omitempty"`
}

// Output returns the declared output with the given id.
func (n *Node) Output(id string) (Output, bool) {
	for _, o := range n.Outputs {
		if o.ID == id {
			return o, true
		}
	}
	return Output{}, false
}

// Receipts returns the node's receipt-class outputs.
func (n *Node) Receipts() []Output {
	var out []Output
	for _, o := range n.Outputs {
		if o.Class == ClassReceipt {
			out = append(out, o)
		}
	}
	return out
}

// Values returns the node's value-class outputs in declaration order.
func (n *Node) Values() []Output {
	var out []Output
	for _, o := range n.Outputs {
		if o.Class == ClassValue {
			out = append(out, o)
		}
	}
	return out
}

// InputNames returns the node's input names in sorted order.
func (n *Node) InputNames() []string {
	names := make([]string, 0, len(n.Inputs))
	for name := range n.Inputs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Asset returns the "asset" parameter of borrow and repay nodes, or "".
func (n *Node) Asset() string {
	s, _ := n.Params["asset"].(string)
	return s
}

// Consumption is one reference read by a node. Slot is the input name, or
// "arguments[i]" for call arguments.
type Consumption struct {
	Slot string
	Ref  string
}

// Consumed lists every reference the node reads: inputs in name order
// followed by call arguments in position order.
func (n *Node) Consumed() []Consumption {
	out := make([]Consumption, 0, len(n.Inputs))
	for _, name := range n.InputNames() {
		out = append(out, Consumption{Slot: name, Ref: n.Inputs[name]})
	}
	if n.Kind != KindCall {
		return out
	}
	params, err := DecodeParams[CallParams](n.Params)
	if err != nil {
		return out
	}
	for i, arg := range params.Arguments {
		if (arg.Kind == ArgRef || arg.Kind == ArgVector) && arg.Ref != "" {
			out = append(out, Consumption{Slot: ArgumentSlot(i), Ref: arg.Ref})
		}
	}
	return out
}

// Metadata describes a strategy for humans.
type Metadata struct {
	Name        string    `json:"name" yaml:"name" validate:"required"`
	Author      string    `json:"author,omitempty" yaml:"author,omitempty"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitzero" yaml:"created_at,omitempty"`
	UpdatedAt   time.Time `json:"updated_at,omitzero" yaml:"updated_at,omitempty"`
	Tags        []string  `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// Strategy is the top-level document. It is treated as immutable input.
type Strategy struct {
	ID       string   `json:"id" yaml:"id" validate:"required"`
	Version  string   `json:"version" yaml:"version" validate:"required"`
	Metadata Metadata `json:"metadata" yaml:"metadata"`
	Nodes    []Node   `json:"nodes" yaml:"nodes" validate:"required,min=1,dive"`
	Edges    []Edge   `json:"edges" yaml:"edges"`
}

// Node returns the node with the given id.
func (s *Strategy) Node(id string) (*Node, bool) {
	for i := range s.Nodes {
		if s.Nodes[i].ID == id {
			return &s.Nodes[i], true
		}
	}
	return nil, false
}

// Index maps node ids to their position in the document. For duplicate
// ids the first position wins.
func (s *Strategy) Index() map[string]int {
	idx := make(map[string]int, len(s.Nodes))
	for i, n := range s.Nodes {
		if _, dup := idx[n.ID]; !dup {
			idx[n.ID] = i
		}
	}
	return idx
}
