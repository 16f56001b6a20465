package strategy

import (
	"encoding/json"
	"fmt"

	"go.yaml.in/yaml/v3"
)

// Edge kinds on the wire.
const (
	EdgeKindValue   = "value"
	EdgeKindReceipt = "receipt"
)

// EdgeClass is the tagged class of an edge: ValueEdge or ReceiptEdge.
// New linear-resource kinds are added as further implementations.
type EdgeClass interface {
	Kind() string
	edgeClass()
}

// ValueEdge carries a transferable value of AssetType. AssetType may be
// empty when the author left it to be inferred.
type ValueEdge struct {
	AssetType string
}

func (ValueEdge) Kind() string { return EdgeKindValue }
func (ValueEdge) edgeClass()   {}

// ReceiptEdge carries a linear receipt that must be consumed exactly once.
type ReceiptEdge struct{}

func (ReceiptEdge) Kind() string { return EdgeKindReceipt }
func (ReceiptEdge) edgeClass()   {}

// Edge is a declared data dependency from a producer output to a consumer
// input. Class is nil when the document names an unknown kind; RawKind
// keeps what was written.
type Edge struct {
	ID           string
	Source       string
	SourceOutput string
	Target       string
	TargetInput  string
	Class        EdgeClass

	rawKind string
}

// NewValueEdge builds a value edge.
func NewValueEdge(id, source, sourceOutput, target, targetInput, assetType string) Edge {
	return Edge{ID: id, Source: source, SourceOutput: sourceOutput, Target: target,
		TargetInput: targetInput, Class: ValueEdge{AssetType: assetType}}
}

// NewReceiptEdge builds a receipt edge.
func NewReceiptEdge(id, source, sourceOutput, target, targetInput string) Edge {
	return Edge{ID: id, Source: source, SourceOutput: sourceOutput, Target: target,
		TargetInput: targetInput, Class: ReceiptEdge{}}
}

// RawKind returns the kind as written in the document.
func (e Edge) RawKind() string {
	if e.Class != nil {
		return e.Class.Kind()
	}
	return e.rawKind
}

// IsReceipt reports whether the edge carries a receipt.
func (e Edge) IsReceipt() bool {
	_, ok := e.Class.(ReceiptEdge)
	return ok
}

// AssetType returns the declared asset type of a value edge, or "".
func (e Edge) AssetType() string {
	if v, ok := e.Class.(ValueEdge); ok {
		return v.AssetType
	}
	return ""
}

type edgeWire struct {
	ID           string `json:"id" yaml:"id"`
	Source       string `json:"source" yaml:"source"`
	SourceOutput string `json:"source_output" yaml:"source_output"`
	Target       string `json:"target" yaml:"target"`
	TargetInput  string `json:"target_input,omitempty" yaml:"target_input,omitempty"`
	Kind         string `json:"kind" yaml:"kind"`
	AssetType    string `json:"asset_type,omitempty" yaml:"asset_type,omitempty"`
}

func (e Edge) toWire() edgeWire {
	return edgeWire{
		ID: e.ID, Source: e.Source, SourceOutput: e.SourceOutput,
		Target: e.Target, TargetInput: e.TargetInput,
		Kind: e.RawKind(), AssetType: e.AssetType(),
	}
}

func (e *Edge) fromWire(w edgeWire) {
	*e = Edge{
		ID: w.ID, Source: w.Source, SourceOutput: w.SourceOutput,
		Target: w.Target, TargetInput: w.TargetInput,
	}
	switch w.Kind {
	case EdgeKindValue:
		e.Class = ValueEdge{AssetType: w.AssetType}
	case EdgeKindReceipt:
		e.Class = ReceiptEdge{}
	default:
		e.rawKind = w.Kind
	}
}

// MarshalJSON implements json.Marshaler.
func (e Edge) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.toWire())
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *Edge) UnmarshalJSON(data []byte) error {
	var w edgeWire
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("decoding edge: %w", err)
	}
	e.fromWire(w)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (e Edge) MarshalYAML() (any, error) {
	return e.toWire(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (e *Edge) UnmarshalYAML(value *yaml.Node) error {
	var w edgeWire
	if err := value.Decode(&w); err != nil {
		return fmt.Errorf("decoding edge: %w", err)
	}
	e.fromWire(w)
	return nil
}
