package dag

import (
	"github.com/kbukum/strategykit/strategy"
	"github.com/kbukum/strategykit/validation"
)

// Graph rule ids.
const (
	RuleHotPotatoNoReceipt  = "HOT_POTATO_1"
	RuleHotPotatoUnconsumed = "HOT_POTATO_2"
	RuleHotPotatoTarget     = "HOT_POTATO_3"
	RuleHotPotatoProtocol   = "HOT_POTATO_4"
	RuleHotPotatoOrphan     = "HOT_POTATO_5"
	RuleAssetMismatch       = "ASSET_1"

	RuleTypeMismatch    = "TYPE_1"
	RuleTypeUnannotated = "TYPE_W1"

	RuleCycle = "CYCLE_1"

	RuleBudget       = "BUDGET_1"
	RuleBudgetNear   = "BUDGET_W1"
	RulePerformance  = "PERF_W1"
	RuleEdgeSource   = "REF_1"
	RuleEdgeTarget   = "REF_2"
	RuleEdgeOutput   = "REF_3"
	RuleInputRef     = "REF_4"
	RuleEdgeConflict = "EDGE_1"
	RuleEdgeMissing  = "EDGE_W1"
)

// checkHotPotato enforces borrow/repay pairing. A repay whose receipt input
// points at a borrow already reported as unconsumed is not reported again as
// orphaned.
func checkHotPotato(s *strategy.Strategy, g *Graph, r *validation.Result) {
	unconsumed := make(map[string]bool)

	for _, id := range g.Order {
		b := g.Nodes[id]
		if b.Kind != strategy.KindBorrow {
			continue
		}
		at := validation.AtNode(b.ID)
		receipts := b.Receipts()
		if len(receipts) == 0 {
			r.Errorf(RuleHotPotatoNoReceipt, at, "borrow %q declares no receipt output", b.ID)
			continue
		}
		receipt := receipts[0]

		var out []strategy.Edge
		for _, e := range s.Edges {
			if e.Source == b.ID && e.SourceOutput == receipt.ID {
				out = append(out, e)
			}
		}
		if len(out) != 1 {
			unconsumed[b.ID] = true
			r.Errorf(RuleHotPotatoUnconsumed, at,
				"receipt %s.%s must be consumed by exactly one edge, found %d", b.ID, receipt.ID, len(out))
			continue
		}

		e := out[0]
		edgeAt := validation.Location{NodeID: b.ID, EdgeID: e.ID}
		before := len(r.Errors)
		if !e.IsReceipt() {
			r.Errorf(RuleHotPotatoTarget, edgeAt, "receipt %s.%s leaves on a %q edge, want %q",
				b.ID, receipt.ID, e.RawKind(), strategy.EdgeKindReceipt)
		}
		repay, ok := g.Nodes[e.Target]
		if !ok {
			continue
		}
		if repay.Kind != strategy.KindRepay {
			r.Errorf(RuleHotPotatoTarget, edgeAt, "receipt %s.%s flows into %s node %q, want a repay",
				b.ID, receipt.ID, repay.Kind, repay.ID)
			continue
		}
		if repay.Protocol != b.Protocol {
			r.Errorf(RuleHotPotatoProtocol, edgeAt, "borrow %q uses protocol %q but repay %q uses %q",
				b.ID, b.Protocol, repay.ID, repay.Protocol)
		}
		if !strategy.SameType(b.Asset(), repay.Asset()) {
			r.Errorf(RuleAssetMismatch, edgeAt, "borrow %q borrows %s but repay %q repays %s",
				b.ID, b.Asset(), repay.ID, repay.Asset())
		}
		if len(r.Errors) == before {
			checkReceiptReaders(g, b, receipt, repay, r)
		}
	}

	for _, id := range g.Order {
		p := g.Nodes[id]
		if p.Kind != strategy.KindRepay {
			continue
		}
		n := 0
		for _, e := range s.Edges {
			if e.Target == p.ID && e.IsReceipt() {
				n++
			}
		}
		checkRepayReceiptInput(g, p, r)
		switch {
		case n == 1:
		case n == 0:
			if ref, err := strategy.ParseReference(p.Inputs[strategy.InputReceipt]); err == nil && unconsumed[ref.Node] {
				continue
			}
			r.Errorf(RuleHotPotatoOrphan, validation.AtNode(p.ID), "repay %q has no incoming receipt edge", p.ID)
		default:
			r.Errorf(RuleHotPotatoOrphan, validation.AtNode(p.ID), "repay %q has %d incoming receipt edges, want one", p.ID, n)
		}
	}
}

// checkReceiptReaders follows references rather than edges, since emission
// resolves inputs by reference. The receipt must be read exactly once, by the
// receipt input of the repay its edge points at.
func checkReceiptReaders(g *Graph, b *strategy.Node, receipt strategy.Output, repay *strategy.Node, r *validation.Result) {
	slot := b.ID + "." + receipt.ID
	var readers []string
	pairedRead := false
	for _, id := range g.Order {
		n := g.Nodes[id]
		for _, c := range n.Consumed() {
			ref, err := strategy.ParseReference(c.Ref)
			if err != nil || ref.Node != b.ID || ref.Output != receipt.ID {
				continue
			}
			readers = append(readers, n.ID+"."+c.Slot)
			if n.ID == repay.ID && c.Slot == strategy.InputReceipt {
				pairedRead = true
			}
		}
	}
	at := validation.AtNode(b.ID)
	switch {
	case len(readers) != 1:
		r.Errorf(RuleHotPotatoUnconsumed, at, "receipt %s must be read exactly once, read by %v", slot, readers)
	case !pairedRead:
		r.Errorf(RuleHotPotatoTarget, at, "receipt %s is read by %s, want %s.%s",
			slot, readers[0], repay.ID, strategy.InputReceipt)
	}
}

// checkRepayReceiptInput rejects a repay whose receipt input references
// anything other than a borrow's receipt output. Unparseable or dangling
// references are left to the reference checks.
func checkRepayReceiptInput(g *Graph, p *strategy.Node, r *validation.Result) {
	ref, err := strategy.ParseReference(p.Inputs[strategy.InputReceipt])
	if err != nil {
		return
	}
	at := validation.AtNode(p.ID)
	if ref.Gas {
		r.Errorf(RuleHotPotatoTarget, at, "repay %q takes the gas coin as its receipt", p.ID)
		return
	}
	src, ok := g.Nodes[ref.Node]
	if !ok {
		return
	}
	o, ok := src.Output(ref.Output)
	if !ok {
		return
	}
	if src.Kind != strategy.KindBorrow || o.Class != strategy.ClassReceipt {
		r.Errorf(RuleHotPotatoTarget, at, "repay %q receipt input %s is a %s output of a %s node, want a borrow receipt",
			p.ID, ref, o.Class, src.Kind)
	}
}

// checkTypes rejects merges that mix asset types and flags value edges
// without an asset type.
func checkTypes(s *strategy.Strategy, g *Graph, r *validation.Result) {
	for _, id := range g.Order {
		m := g.Nodes[id]
		if m.Kind != strategy.KindMerge {
			continue
		}
		var first string
		for _, e := range s.Edges {
			if e.Target != m.ID || e.AssetType() == "" {
				continue
			}
			if first == "" {
				first = e.AssetType()
				continue
			}
			if !strategy.SameType(first, e.AssetType()) {
				r.Errorf(RuleTypeMismatch, validation.AtNode(m.ID), "merge %q mixes %s and %s", m.ID, first, e.AssetType())
				break
			}
		}
	}
	for _, e := range s.Edges {
		if v, ok := e.Class.(strategy.ValueEdge); ok && v.AssetType == "" {
			r.Warnf(RuleTypeUnannotated, validation.AtEdge(e.ID), "value edge %q declares no asset type", e.ID)
		}
	}
}

// checkAcyclic runs a depth-first traversal with a recursion stack and
// reports each node at which a back arc is found.
func checkAcyclic(g *Graph, r *validation.Result) {
	const (
		white = iota
		grey
		black
	)
	color := make(map[string]int, len(g.Order))
	reported := make(map[string]bool)

	var visit func(id string)
	visit = func(id string) {
		color[id] = grey
		for _, next := range g.Successors(id) {
			switch color[next] {
			case white:
				visit(next)
			case grey:
				if !reported[next] {
					reported[next] = true
					r.Errorf(RuleCycle, validation.AtNode(next), "cycle detected at node %q (reached again from %q)", next, id)
				}
			}
		}
		color[id] = black
	}
	for _, id := range g.Order {
		if color[id] == white {
			visit(id)
		}
	}
}

// checkBudget projects the command count from the node count.
func checkBudget(s *strategy.Strategy, cfg Config, r *validation.Result) {
	projected := len(s.Nodes) * cfg.CommandsPerNode
	switch {
	case projected > cfg.MaxCommands:
		r.Errorf(RuleBudget, validation.Location{}, "%d nodes project to %d commands, over the limit of %d",
			len(s.Nodes), projected, cfg.MaxCommands)
	case float64(projected) > cfg.BudgetWarnRatio*float64(cfg.MaxCommands):
		r.Warnf(RuleBudgetNear, validation.Location{}, "%d nodes project to %d commands, above %.0f%% of the limit of %d",
			len(s.Nodes), projected, cfg.BudgetWarnRatio*100, cfg.MaxCommands)
	}
	if len(s.Nodes) > cfg.NodeWarnThreshold {
		r.Warnf(RulePerformance, validation.Location{}, "%d nodes is above the recommended %d",
			len(s.Nodes), cfg.NodeWarnThreshold)
	}
}

// checkReferences verifies edge endpoints and input references, and that
// edges agree with the references they describe.
func checkReferences(s *strategy.Strategy, g *Graph, r *validation.Result) {
	for _, e := range s.Edges {
		at := validation.AtEdge(e.ID)
		src, srcOK := g.Nodes[e.Source]
		tgt, tgtOK := g.Nodes[e.Target]
		if !srcOK {
			r.Errorf(RuleEdgeSource, at, "edge %q starts at unknown node %q", e.ID, e.Source)
		}
		if !tgtOK {
			r.Errorf(RuleEdgeTarget, at, "edge %q ends at unknown node %q", e.ID, e.Target)
		}
		if srcOK {
			if _, ok := src.Output(e.SourceOutput); !ok {
				r.Errorf(RuleEdgeOutput, at, "edge %q reads output %q that node %q does not declare", e.ID, e.SourceOutput, e.Source)
			}
		}
		if !srcOK || !tgtOK || e.TargetInput == "" {
			continue
		}
		ref, found := consumedAt(tgt, e.TargetInput)
		switch {
		case !found:
			r.Errorf(RuleEdgeConflict, at, "edge %q feeds input %q that node %q does not read", e.ID, e.TargetInput, tgt.ID)
		case ref != e.Source+"."+e.SourceOutput:
			r.Errorf(RuleEdgeConflict, at, "edge %q feeds %s.%s into %s.%s, but the input references %q",
				e.ID, e.Source, e.SourceOutput, tgt.ID, e.TargetInput, ref)
		}
	}

	for _, id := range g.Order {
		n := g.Nodes[id]
		for _, c := range n.Consumed() {
			ref, err := strategy.ParseReference(c.Ref)
			if err != nil || ref.Gas {
				continue
			}
			src, ok := g.Nodes[ref.Node]
			if !ok {
				r.Errorf(RuleInputRef, validation.AtNode(n.ID), "%s references unknown node %q", c.Slot, ref.Node)
				continue
			}
			if _, ok := src.Output(ref.Output); !ok {
				r.Errorf(RuleInputRef, validation.AtNode(n.ID), "%s references output %q that node %q does not declare",
					c.Slot, ref.Output, ref.Node)
				continue
			}
			if !hasEdge(s, ref, n.ID, c.Slot) {
				r.Warnf(RuleEdgeMissing, validation.AtNode(n.ID), "%s reads %s without a declared edge", c.Slot, c.Ref)
			}
		}
	}
}

func consumedAt(n *strategy.Node, slot string) (string, bool) {
	for _, c := range n.Consumed() {
		if c.Slot == slot {
			return c.Ref, true
		}
	}
	return "", false
}

func hasEdge(s *strategy.Strategy, ref strategy.Reference, target, slot string) bool {
	for _, e := range s.Edges {
		if e.Source == ref.Node && e.SourceOutput == ref.Output && e.Target == target &&
			(e.TargetInput == "" || e.TargetInput == slot) {
			return true
		}
	}
	return false
}
