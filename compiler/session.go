package compiler

import (
	"context"
	"fmt"

	"github.com/kbukum/strategykit/adapter"
	"github.com/kbukum/strategykit/dag"
	apperrors "github.com/kbukum/strategykit/errors"
	"github.com/kbukum/strategykit/logger"
	"github.com/kbukum/strategykit/observability"
	"github.com/kbukum/strategykit/ptb"
	"github.com/kbukum/strategykit/strategy"
)

// session is the mutable state of one compile: the result cache, the
// transaction being built and the swap estimates. It is created by Compile
// and dropped when Compile returns.
type session struct {
	c         *Compiler
	s         *strategy.Strategy
	graph     *dag.Graph
	cache     *dag.Cache[adapter.Handle]
	tx        *ptb.Builder
	estimates *estimates
	log       *logger.Logger
}

func newSession(c *Compiler, s *strategy.Strategy, log *logger.Logger) *session {
	return &session{
		c:         c,
		s:         s,
		graph:     dag.FromStrategy(s),
		cache:     dag.NewCache[adapter.Handle](),
		tx:        ptb.NewBuilder(),
		estimates: &estimates{byID: make(map[string]adapter.Estimate)},
		log:       log,
	}
}

// emit walks order and builds the program.
func (s *session) emit(ctx context.Context, order []string) (*ptb.Program, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanEmit)
	defer span.End()

	for _, id := range order {
		node := s.graph.Nodes[id]
		err := s.tx.Group(id, string(node.Kind), func() error {
			return s.emitNode(ctx, node)
		})
		if err != nil {
			return nil, err
		}
	}

	program := s.tx.Build()
	if err := program.Check(); err != nil {
		return nil, apperrors.Internal(err)
	}
	return program, nil
}

func (s *session) emitNode(ctx context.Context, node *strategy.Node) error {
	in := make(adapter.Inputs, len(node.Inputs))
	for _, name := range node.InputNames() {
		h, err := s.resolve(node.ID, node.Inputs[name])
		if err != nil {
			return err
		}
		in[name] = h
	}

	var (
		out adapter.Outputs
		err error
	)
	if node.Kind.Native() {
		out, err = s.emitNative(node, in)
	} else {
		a, ok := s.c.adapters.Lookup(node.Protocol)
		if !ok {
			return apperrors.UnknownProtocol(node.ID, node.Protocol)
		}
		var est *adapter.Estimate
		if e, ok := s.estimates.get(node.ID); ok {
			est = &e
		}
		out, err = a.Encode(ctx, s.tx, node, in, est)
	}
	if err != nil {
		if _, ok := apperrors.AsAppError(err); ok {
			return err
		}
		return apperrors.EncodingFailed(node.ID, err).WithDetail("protocol", node.Protocol)
	}

	for _, o := range node.Outputs {
		h, ok := out[o.ID]
		if !ok {
			return apperrors.EncodingFailed(node.ID, fmt.Errorf("output %q was not produced", o.ID))
		}
		if h.Type == "" && o.Type != "" {
			h.Type = o.Type
		}
		if err := s.cache.Put(dag.Slot{Node: node.ID, Output: o.ID}, h); err != nil {
			return apperrors.EncodingFailed(node.ID, err)
		}
	}
	return nil
}

// slots returns the bound outputs in emission order.
func (s *session) slots() []string {
	bound := s.cache.Slots()
	out := make([]string, len(bound))
	for i, slot := range bound {
		out[i] = slot.String()
	}
	return out
}

// resolve looks a reference up in the result cache. GAS is the gas coin.
func (s *session) resolve(nodeID, raw string) (adapter.Handle, error) {
	ref, err := strategy.ParseReference(raw)
	if err != nil {
		return adapter.Handle{}, apperrors.UnresolvedReference(nodeID, raw).WithCause(err)
	}
	if ref.Gas {
		return adapter.CoinHandle(ptb.GasCoin(), strategy.CoinSUI), nil
	}
	h, ok := s.cache.Get(dag.Slot{Node: ref.Node, Output: ref.Output})
	if !ok {
		return adapter.Handle{}, apperrors.UnresolvedReference(nodeID, raw)
	}
	return h, nil
}
