package validation

import (
	"fmt"
	"strings"

	"github.com/kbukum/strategykit/strategy"
	"github.com/kbukum/strategykit/version"
)

// Schema rule ids.
const (
	RuleSchemaField     = "SCHEMA_FIELD"
	RuleSchemaVersion   = "SCHEMA_VERSION"
	RuleSchemaNodeDup   = "SCHEMA_NODE_DUP"
	RuleSchemaOutputDup = "SCHEMA_OUTPUT_DUP"
	RuleSchemaParams    = "SCHEMA_PARAMS"
	RuleSchemaShape     = "SCHEMA_SHAPE"
	RuleSchemaProtocol  = "SCHEMA_PROTOCOL"
	RuleSchemaRef       = "SCHEMA_REF"
	RuleSchemaEdge      = "SCHEMA_EDGE"
	RuleSchemaEdgeDup   = "SCHEMA_EDGE_DUP"
)

// SchemaValidator checks a strategy against its structural shape: required
// fields, per-kind parameters and slot declarations. It never inspects the
// graph formed by edges.
type SchemaValidator struct{}

// NewSchemaValidator returns a SchemaValidator.
func NewSchemaValidator() *SchemaValidator { return &SchemaValidator{} }

// ValidateDocument decodes raw and validates it. The error is non-nil only
// when raw is not a strategy document at all.
func (v *SchemaValidator) ValidateDocument(raw []byte, format strategy.Format) (*Result, *strategy.Strategy, error) {
	s, err := strategy.Decode(raw, format)
	if err != nil {
		return nil, nil, fmt.Errorf("validation: not a strategy document: %w", err)
	}
	return v.Validate(s), s, nil
}

// Validate returns every structural finding. s is not modified.
func (v *SchemaValidator) Validate(s *strategy.Strategy) *Result {
	r := NewResult()
	if s == nil {
		r.Errorf(RuleSchemaShape, Location{}, "no strategy document")
		return r
	}

	for _, fe := range ValidateStruct(s) {
		r.Errorf(RuleSchemaField, locateField(s, fe.Field), "%s %s", fe.Field, fe.Message)
	}
	if s.Version != "" {
		if err := version.CheckSchema(s.Version); err != nil {
			r.Errorf(RuleSchemaVersion, Location{}, "%v", err)
		}
	}

	seen := make(map[string]bool, len(s.Nodes))
	for i := range s.Nodes {
		n := &s.Nodes[i]
		if n.ID != "" {
			if seen[n.ID] {
				r.Errorf(RuleSchemaNodeDup, AtNode(n.ID), "node id %q is declared more than once", n.ID)
			}
			seen[n.ID] = true
		}
		v.checkNode(r, n)
	}

	edgeIDs := make(map[string]bool, len(s.Edges))
	for _, e := range s.Edges {
		v.checkEdge(r, e)
		if e.ID != "" {
			if edgeIDs[e.ID] {
				r.Errorf(RuleSchemaEdgeDup, AtEdge(e.ID), "edge id %q is declared more than once", e.ID)
			}
			edgeIDs[e.ID] = true
		}
	}
	return r
}

func (v *SchemaValidator) checkNode(r *Result, n *strategy.Node) {
	at := AtNode(n.ID)

	outputs := make(map[string]bool, len(n.Outputs))
	for _, o := range n.Outputs {
		if o.ID == "" {
			continue
		}
		if outputs[o.ID] {
			r.Errorf(RuleSchemaOutputDup, at, "output id %q is declared more than once on node %q", o.ID, n.ID)
		}
		outputs[o.ID] = true
	}

	if !n.Kind.Valid() {
		// Reported by the struct tags; nothing kind-specific to check.
		return
	}

	if n.Kind.Native() && n.Protocol != "" && n.Protocol != strategy.ProtocolNative {
		r.Errorf(RuleSchemaProtocol, at, "%s nodes must use protocol %q, got %q", n.Kind, strategy.ProtocolNative, n.Protocol)
	}
	if !n.Kind.Native() && n.Protocol == strategy.ProtocolNative {
		r.Errorf(RuleSchemaProtocol, at, "%s nodes need a protocol adapter, not %q", n.Kind, strategy.ProtocolNative)
	}

	params, err := n.TypedParams()
	if err != nil {
		r.Errorf(RuleSchemaParams, at, "params: %v", err)
	} else if params != nil {
		for _, fe := range ValidateStruct(params) {
			r.Errorf(RuleSchemaParams, at, "params.%s %s", fe.Field, fe.Message)
		}
	}

	for _, c := range n.Consumed() {
		if c.Ref == strategy.RefAll {
			r.Errorf(RuleSchemaRef, at, "%s: %q is only valid as a swap amount", c.Slot, strategy.RefAll)
			continue
		}
		if _, err := strategy.ParseReference(c.Ref); err != nil {
			r.Errorf(RuleSchemaRef, at, "%s: %v", c.Slot, err)
		}
	}

	v.checkShape(r, n, params)
}

// checkShape enforces the inputs and outputs each kind needs to be emitted.
func (v *SchemaValidator) checkShape(r *Result, n *strategy.Node, params any) {
	at := AtNode(n.ID)
	values := len(n.Values())
	receipts := len(n.Receipts())
	requireInputs := func(names ...string) {
		for _, name := range names {
			if _, ok := n.Inputs[name]; !ok {
				r.Errorf(RuleSchemaShape, at, "%s node requires input %q", n.Kind, name)
			}
		}
	}
	onlyInputs := func(names ...string) {
		allowed := make(map[string]bool, len(names))
		for _, name := range names {
			allowed[name] = true
		}
		var extra []string
		for _, name := range n.InputNames() {
			if !allowed[name] {
				extra = append(extra, name)
			}
		}
		if len(extra) > 0 {
			r.Errorf(RuleSchemaShape, at, "%s node does not accept input(s) %s", n.Kind, strings.Join(extra, ", "))
		}
	}
	noReceipts := func() {
		if receipts > 0 {
			r.Errorf(RuleSchemaShape, at, "%s nodes cannot declare receipt outputs", n.Kind)
		}
	}

	switch n.Kind {
	case strategy.KindBorrow:
		onlyInputs()
		if values != 1 {
			r.Errorf(RuleSchemaShape, at, "borrow node must declare exactly one value output, got %d", values)
		}
		if receipts > 1 {
			r.Errorf(RuleSchemaShape, at, "borrow node must declare at most one receipt output, got %d", receipts)
		}
	case strategy.KindRepay:
		requireInputs(strategy.InputCoin, strategy.InputReceipt)
		onlyInputs(strategy.InputCoin, strategy.InputReceipt)
		if len(n.Outputs) > 0 {
			r.Errorf(RuleSchemaShape, at, "repay node declares no outputs; surplus goes back to the sender")
		}
	case strategy.KindSwap:
		requireInputs(strategy.InputCoin)
		onlyInputs(strategy.InputCoin)
		noReceipts()
		if values < 1 || values > 2 {
			r.Errorf(RuleSchemaShape, at, "swap node must declare one or two value outputs, got %d", values)
		}
	case strategy.KindSplit:
		requireInputs(strategy.InputCoin)
		onlyInputs(strategy.InputCoin)
		noReceipts()
		if p, ok := params.(strategy.SplitParams); ok && len(p.Amounts) > 0 && values != len(p.Amounts) {
			r.Errorf(RuleSchemaShape, at, "split node declares %d value outputs for %d amounts", values, len(p.Amounts))
		}
	case strategy.KindMerge:
		requireInputs(strategy.InputTarget)
		if len(n.Inputs) < 2 {
			r.Errorf(RuleSchemaShape, at, "merge node needs at least one source input besides %q", strategy.InputTarget)
		}
		noReceipts()
		if values != 1 {
			r.Errorf(RuleSchemaShape, at, "merge node must declare exactly one value output, got %d", values)
		}
	case strategy.KindCall:
		if len(n.Inputs) > 0 {
			r.Errorf(RuleSchemaShape, at, "call node takes references through arguments, not inputs (%s)",
				strings.Join(n.InputNames(), ", "))
		}
	}
}

func (v *SchemaValidator) checkEdge(r *Result, e strategy.Edge) {
	at := Location{EdgeID: e.ID}
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"id", e.ID}, {"source", e.Source}, {"source_output", e.SourceOutput}, {"target", e.Target},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		r.Errorf(RuleSchemaEdge, at, "edge is missing %s", strings.Join(missing, ", "))
	}
	if e.Class == nil {
		r.Errorf(RuleSchemaEdge, at, "edge kind %q must be %q or %q", e.RawKind(), strategy.EdgeKindValue, strategy.EdgeKindReceipt)
	}
	if t := e.AssetType(); t != "" {
		if _, err := strategy.ParseTypeTag(t); err != nil {
			r.Errorf(RuleSchemaEdge, at, "asset_type: %v", err)
		}
	}
}

// locateField attaches a node id to struct errors under nodes[i].
func locateField(s *strategy.Strategy, field string) Location {
	var i int
	if _, err := fmt.Sscanf(field, "nodes[%d]", &i); err == nil && i >= 0 && i < len(s.Nodes) {
		return AtNode(s.Nodes[i].ID)
	}
	return Location{}
}
