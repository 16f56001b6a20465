package dag

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kbukum/strategykit/logger"
	"github.com/kbukum/strategykit/observability"
	"github.com/kbukum/strategykit/strategy"
)

func TestGraphImplicitArcs(t *testing.T) {
	s := pair()
	s.Edges = nil
	g := FromStrategy(s)
	if len(g.Arcs) != 2 {
		t.Fatalf("expected 2 implicit arcs, got %+v", g.Arcs)
	}
	for _, a := range g.Arcs {
		if !a.Implicit || a.From != "borrow" || a.To != "repay" {
			t.Errorf("unexpected arc %+v", a)
		}
	}
	if got := g.Successors("borrow"); !reflect.DeepEqual(got, []string{"repay"}) {
		t.Errorf("expected distinct successors, got %v", got)
	}
	if g.Position("repay") != 1 || g.Position("ghost") != -1 {
		t.Error("unexpected positions")
	}
}

func TestGraphSkipsUnknownAndGas(t *testing.T) {
	s := pair()
	s.Nodes[1].Inputs[strategy.InputCoin] = strategy.RefGas
	s.Edges = append(s.Edges, strategy.NewValueEdge("e3", "ghost", "coin", "repay", "", ""))
	g := FromStrategy(s)
	for _, a := range g.Arcs {
		if a.From == "ghost" {
			t.Errorf("expected arcs from unknown nodes to be skipped, got %+v", a)
		}
	}
}

func TestSortTemplate(t *testing.T) {
	s := strategy.FlashLoanTemplate(strategy.TemplateOptions{Name: "t", Lender: "navi", Exchange: "cetus", PoolAB: "0xa", PoolBA: "0xb"})
	// reverse the document so only dependencies dictate the order
	for i, j := 0, len(s.Nodes)-1; i < j; i, j = i+1, j-1 {
		s.Nodes[i], s.Nodes[j] = s.Nodes[j], s.Nodes[i]
	}
	want := []string{"borrow", "swap_out", "swap_back", "repay"}
	if got := Sort(s); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestSortTieBreak(t *testing.T) {
	s := calls(4)
	// n3 -> n1; n0 and n2 are free
	s.Edges = []strategy.Edge{strategy.NewValueEdge("e1", "n3", "out", "n1", "", "")}
	want := []string{"n0", "n2", "n3", "n1"}
	if got := Sort(s); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if got := Sort(s); !reflect.DeepEqual(got, want) {
		t.Errorf("expected the same order on a second sort, got %v", got)
	}
}

func TestSortIsPermutationRespectingArcs(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for round := range 20 {
		s := calls(30)
		rng.Shuffle(len(s.Nodes), func(i, j int) { s.Nodes[i], s.Nodes[j] = s.Nodes[j], s.Nodes[i] })
		for k := range 60 {
			a, b := rng.Intn(30), rng.Intn(30)
			if a == b {
				continue
			}
			if a > b {
				a, b = b, a
			}
			s.Edges = append(s.Edges, strategy.NewValueEdge(
				fmt.Sprintf("e%d", k), fmt.Sprintf("n%d", a), "out", fmt.Sprintf("n%d", b), "", ""))
		}

		if r := validate(s); r.Count(RuleCycle) != 0 {
			t.Fatalf("round %d: expected no cycle errors, got %+v", round, r.Errors)
		}

		order := Sort(s)
		if len(order) != len(s.Nodes) {
			t.Fatalf("round %d: expected %d ids, got %d", round, len(s.Nodes), len(order))
		}
		pos := make(map[string]int, len(order))
		for i, id := range order {
			if _, dup := pos[id]; dup {
				t.Fatalf("round %d: %s emitted twice", round, id)
			}
			pos[id] = i
		}
		for _, e := range s.Edges {
			if pos[e.Source] >= pos[e.Target] {
				t.Errorf("round %d: %s sorted after %s", round, e.Source, e.Target)
			}
		}
	}
}

func TestSortCycleStillPermutation(t *testing.T) {
	s := calls(3)
	s.Edges = []strategy.Edge{
		strategy.NewValueEdge("e1", "n1", "out", "n2", "", ""),
		strategy.NewValueEdge("e2", "n2", "out", "n1", "", ""),
	}
	if got := Sort(s); !reflect.DeepEqual(got, []string{"n0", "n1", "n2"}) {
		t.Errorf("unexpected order %v", got)
	}
}

func TestBuildLevels(t *testing.T) {
	s := calls(3)
	s.Edges = []strategy.Edge{
		strategy.NewValueEdge("e1", "n1", "out", "n0", "", ""),
		strategy.NewValueEdge("e2", "n2", "out", "n0", "", ""),
	}
	levels, err := BuildLevels(FromStrategy(s))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := [][]string{{"n1", "n2"}, {"n0"}}
	if !reflect.DeepEqual(levels, want) {
		t.Errorf("expected %v, got %v", want, levels)
	}

	s.Edges = append(s.Edges, strategy.NewValueEdge("e3", "n0", "out", "n1", "", ""))
	if _, err := BuildLevels(FromStrategy(s)); err == nil {
		t.Error("expected cycle error")
	}
}

func TestCache(t *testing.T) {
	c := NewCache[int]()
	a := Slot{Node: "borrow", Output: "coin"}
	b := Slot{Node: "borrow", Output: "receipt"}
	if err := c.Put(b, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := c.Put(a, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := c.Put(a, 3); err == nil {
		t.Error("expected error writing a slot twice")
	}
	if v, ok := c.Get(a); !ok || v != 1 {
		t.Errorf("expected 1, got %d (ok=%v)", v, ok)
	}
	if _, ok := c.Get(Slot{Node: "repay"}); ok {
		t.Error("expected missing slot")
	}
	if got := c.Slots(); !reflect.DeepEqual(got, []Slot{b, a}) {
		t.Errorf("expected write order, got %v", got)
	}
	if a.String() != "borrow.coin" {
		t.Errorf("unexpected slot string %q", a)
	}
	c.Reset()
	if c.Len() != 0 {
		t.Errorf("expected empty cache, got %d", c.Len())
	}
	if err := c.Put(a, 4); err != nil {
		t.Errorf("expected put after reset, got %v", err)
	}
}

func TestEngineLevelsRunInOrder(t *testing.T) {
	var done atomic.Int32
	levels := [][]string{{"a", "b", "c"}, {"d"}}
	e := &Engine{MaxParallel: 2}

	result, err := e.Run(context.Background(), levels, func(_ context.Context, id string) error {
		if id == "d" && done.Load() != 3 {
			return fmt.Errorf("d started before its level finished")
		}
		time.Sleep(5 * time.Millisecond)
		done.Add(1)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.NodeResults) != 4 {
		t.Fatalf("expected 4 results, got %d", len(result.NodeResults))
	}
	for id, nr := range result.NodeResults {
		if nr.Status != StatusCompleted {
			t.Errorf("expected %s completed, got %+v", id, nr)
		}
	}
}

func TestEngineLimitsParallelism(t *testing.T) {
	var running, peak atomic.Int32
	e := &Engine{MaxParallel: 2}
	_, err := e.Run(context.Background(), [][]string{{"a", "b", "c", "d", "e"}}, func(_ context.Context, _ string) error {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		running.Add(-1)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if peak.Load() > 2 {
		t.Errorf("expected at most 2 concurrent tasks, got %d", peak.Load())
	}
}

func TestEngineRecordsFailures(t *testing.T) {
	boom := errors.New("boom")
	e := &Engine{}
	result, err := e.Run(context.Background(), [][]string{{"a", "b"}, {"c"}}, func(_ context.Context, id string) error {
		if id == "a" {
			return boom
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if nr := result.NodeResults["a"]; nr.Status != StatusFailed || !errors.Is(nr.Error, boom) {
		t.Errorf("expected a failed, got %+v", nr)
	}
	if result.NodeResults["c"].Status != StatusCompleted {
		t.Error("expected later levels to run after a failure")
	}
	if got := result.Failed(); !reflect.DeepEqual(got, []string{"a"}) {
		t.Errorf("expected [a], got %v", got)
	}
}

func TestEngineContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := (&Engine{}).Run(ctx, [][]string{{"a"}}, func(context.Context, string) error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestTaskWrappers(t *testing.T) {
	metrics, err := observability.NewMetrics(observability.Meter("dag-test"))
	if err != nil {
		t.Fatalf("failed to create metrics: %v", err)
	}
	boom := errors.New("boom")
	var count atomic.Int32
	task := func(_ context.Context, id string) error {
		count.Add(1)
		if id == "bad" {
			return boom
		}
		return nil
	}
	wrapped := WithTracing(WithLogging(WithMetrics(task, "estimate", metrics), logger.Nop()), "compiler.estimate")

	if err := wrapped(context.Background(), "good"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := wrapped(context.Background(), "bad"); !errors.Is(err, boom) {
		t.Errorf("expected task error, got %v", err)
	}
	if count.Load() != 2 {
		t.Errorf("expected 2 calls, got %d", count.Load())
	}
}
