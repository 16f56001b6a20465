package compiler

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/kbukum/strategykit/adapter"
	"github.com/kbukum/strategykit/dag"
	apperrors "github.com/kbukum/strategykit/errors"
	"github.com/kbukum/strategykit/logger"
	"github.com/kbukum/strategykit/observability"
	"github.com/kbukum/strategykit/strategy"
)

// estimates holds the swap estimates of one compile. The pre-estimate pass
// writes it from several goroutines.
type estimates struct {
	mu   sync.RWMutex
	byID map[string]adapter.Estimate
}

func (e *estimates) get(id string) (adapter.Estimate, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	est, ok := e.byID[id]
	return est, ok
}

func (e *estimates) put(est adapter.Estimate) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.byID[est.NodeID] = est
}

func (e *estimates) snapshot() map[string]adapter.Estimate {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(map[string]adapter.Estimate, len(e.byID))
	for k, v := range e.byID {
		out[k] = v
	}
	return out
}

// estimate runs the pre-estimate pass. Swaps are estimated level by level
// so a swap spending ALL of another swap's output sees that swap's estimate
// as its upstream amount. Failures degrade to no estimate and never abort
// the compile.
func (s *session) estimate(ctx context.Context) {
	ctx, span := observability.StartSpan(ctx, observability.SpanEstimate)
	defer span.End()

	levels, err := dag.BuildLevels(s.graph)
	if err != nil {
		// unreachable after graph validation
		s.log.Warn("skipping estimates", logger.ErrorFields("levels", err))
		return
	}
	var swaps [][]string
	for _, level := range levels {
		var ids []string
		for _, id := range level {
			if s.graph.Nodes[id].Kind == strategy.KindSwap {
				ids = append(ids, id)
			}
		}
		if len(ids) > 0 {
			swaps = append(swaps, ids)
		}
	}
	if len(swaps) == 0 {
		return
	}

	task := dag.WithLogging(dag.WithTracing(s.estimateNode, observability.SpanEstimate), s.log)
	if s.c.taskMetrics != nil {
		task = dag.WithMetrics(task, "compiler.estimate", s.c.taskMetrics)
	}
	engine := &dag.Engine{MaxParallel: s.c.cfg.EstimateParallelism}
	result, err := engine.Run(ctx, swaps, task)
	if err != nil {
		s.log.Warn("estimate pass interrupted", logger.ErrorFields("estimate", err))
	}
	if failed := result.Failed(); len(failed) > 0 {
		s.log.Warn("swaps left unestimated", logger.Fields("nodes", failed, logger.FieldDuration, result.Duration.Milliseconds()))
		observability.SetSpanAttribute(ctx, "estimate.failed", len(failed))
	}
}

func (s *session) estimateNode(ctx context.Context, id string) error {
	node := s.graph.Nodes[id]
	a, ok := s.c.adapters.Lookup(node.Protocol)
	if !ok {
		// reported during emission
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.c.cfg.EstimateTimeout)
	defer cancel()

	est, err := a.Estimate(ctx, node, s.upstreamHint(node))
	if err != nil {
		s.c.metrics.RecordEstimate(ctx, node.Protocol, "error")
		return apperrors.EstimationFailed(id, node.Protocol, err)
	}
	est.NodeID = id
	s.estimates.put(est)
	s.c.metrics.RecordEstimate(ctx, node.Protocol, string(est.Source))

	if est.Source == adapter.SourceFallback {
		fields := logger.NodeFields(id, string(node.Kind), node.Protocol)
		fields["cause"] = est.Cause
		s.log.Warn("using fallback estimate", fields)
	}
	return nil
}

// upstreamHint returns the output estimate of the swap whose output an ALL
// swap consumes. Only the direct producer is considered; an ALL swap fed
// through a split or merge gets no hint.
func (s *session) upstreamHint(node *strategy.Node) *decimal.Decimal {
	p, err := strategy.DecodeParams[strategy.SwapParams](node.Params)
	if err != nil || !p.UsesAll() {
		return nil
	}
	ref, err := strategy.ParseReference(node.Inputs[strategy.InputCoin])
	if err != nil || ref.Gas {
		return nil
	}
	producer, ok := s.graph.Nodes[ref.Node]
	if !ok || producer.Kind != strategy.KindSwap {
		return nil
	}
	if vs := producer.Values(); len(vs) == 0 || vs[0].ID != ref.Output {
		return nil
	}
	est, ok := s.estimates.get(producer.ID)
	if !ok || est.Source == adapter.SourceFallback {
		return nil
	}
	out := est.AmountOut
	return &out
}
