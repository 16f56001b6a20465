package compiler

import (
	"fmt"

	"github.com/kbukum/strategykit/adapter"
	"github.com/kbukum/strategykit/ptb"
	"github.com/kbukum/strategykit/strategy"
)

func (s *session) emitNative(node *strategy.Node, in adapter.Inputs) (adapter.Outputs, error) {
	switch node.Kind {
	case strategy.KindSplit:
		return s.split(node, in)
	case strategy.KindMerge:
		return s.merge(node, in)
	case strategy.KindCall:
		return s.call(node)
	default:
		return nil, fmt.Errorf("%s is not a native kind", node.Kind)
	}
}

// split emits one SplitCoins and binds the new coins to the value outputs
// by position.
func (s *session) split(node *strategy.Node, in adapter.Inputs) (adapter.Outputs, error) {
	p, err := strategy.DecodeParams[strategy.SplitParams](node.Params)
	if err != nil {
		return nil, err
	}
	coin, ok := in[strategy.InputCoin]
	if !ok {
		return nil, fmt.Errorf("missing %q input", strategy.InputCoin)
	}
	values := node.Values()
	if len(values) != len(p.Amounts) {
		return nil, fmt.Errorf("%d amounts for %d outputs", len(p.Amounts), len(values))
	}

	amounts := make([]ptb.Argument, len(p.Amounts))
	for i, a := range p.Amounts {
		if amounts[i], err = s.tx.PureAmount(a); err != nil {
			return nil, fmt.Errorf("amounts[%d]: %w", i, err)
		}
	}
	r := s.tx.SplitCoins(coin.Arg, amounts...)

	out := make(adapter.Outputs, len(values))
	for i, o := range values {
		h := coin
		h.Arg = r.Nested(uint16(i))
		h.Amount = p.Amounts[i]
		out[o.ID] = h
	}
	return out, nil
}

// merge folds every non-target input into the target, in input name order.
// The target handle, now holding the sum, becomes the output.
func (s *session) merge(node *strategy.Node, in adapter.Inputs) (adapter.Outputs, error) {
	target, ok := in[strategy.InputTarget]
	if !ok {
		return nil, fmt.Errorf("missing %q input", strategy.InputTarget)
	}
	var sources []ptb.Argument
	for _, name := range node.InputNames() {
		if name != strategy.InputTarget {
			sources = append(sources, in[name].Arg)
		}
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("nothing to merge into %q", strategy.InputTarget)
	}
	s.tx.MergeCoins(target.Arg, sources...)

	values := node.Values()
	if len(values) != 1 {
		return nil, fmt.Errorf("merge declares %d value outputs, want 1", len(values))
	}
	target.Amount = ""
	return adapter.Outputs{values[0].ID: target}, nil
}

// call emits one MoveCall and binds its return values to the declared
// outputs by position.
func (s *session) call(node *strategy.Node) (adapter.Outputs, error) {
	p, err := strategy.DecodeParams[strategy.CallParams](node.Params)
	if err != nil {
		return nil, err
	}

	args := make([]ptb.Argument, len(p.Arguments))
	for i, a := range p.Arguments {
		if args[i], err = s.callArgument(node.ID, a); err != nil {
			return nil, fmt.Errorf("arguments[%d]: %w", i, err)
		}
	}
	r, err := s.tx.CallTarget(p.Target, p.TypeArguments, args...)
	if err != nil {
		return nil, err
	}

	out := make(adapter.Outputs, len(node.Outputs))
	for i, o := range node.Outputs {
		arg := r
		if len(node.Outputs) > 1 {
			arg = r.Nested(uint16(i))
		}
		h := adapter.Handle{Arg: arg, Type: o.Type, Class: o.Class}
		if inner, ok := strategy.CoinInner(o.Type); ok {
			h.CoinType = inner
		}
		out[o.ID] = h
	}
	return out, nil
}

func (s *session) callArgument(nodeID string, a strategy.CallArgument) (ptb.Argument, error) {
	switch a.Kind {
	case strategy.ArgPure:
		return s.tx.Pure(a.Type, a.Value)
	case strategy.ArgObject:
		return s.tx.Object(a.ObjectID)
	case strategy.ArgRef:
		h, err := s.resolve(nodeID, a.Ref)
		if err != nil {
			return ptb.Argument{}, err
		}
		return h.Arg, nil
	case strategy.ArgVector:
		h, err := s.resolve(nodeID, a.Ref)
		if err != nil {
			return ptb.Argument{}, err
		}
		return s.tx.MakeMoveVec(a.ElementType, h.Arg), nil
	default:
		return ptb.Argument{}, fmt.Errorf("unknown argument kind %q", a.Kind)
	}
}
