package exchange

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/kbukum/strategykit/adapter"
	"github.com/kbukum/strategykit/ptb"
	"github.com/kbukum/strategykit/strategy"
)

type fakeReader struct {
	state PoolState
	err   error
	calls atomic.Int32
}

func (f *fakeReader) ReadPool(_ context.Context, id string) (PoolState, error) {
	f.calls.Add(1)
	if f.err != nil {
		return PoolState{}, f.err
	}
	s := f.state
	s.ID = id
	return s, nil
}

func suiUSDC() PoolState {
	return PoolState{
		CoinTypeA: strategy.CoinSUI,
		CoinTypeB: strategy.CoinUSDC,
		ReserveA:  decimal.NewFromInt(1_000_000),
		ReserveB:  decimal.NewFromInt(2_000_000),
		FeeRate:   decimal.RequireFromString("0.003"),
	}
}

func swapNode(in, out, amount string, outputs ...string) *strategy.Node {
	n := &strategy.Node{
		ID: "swap", Kind: strategy.KindSwap, Protocol: "cetus",
		Params: map[string]any{"pool": "0xb0a1", "coin_type_in": in, "coin_type_out": out, "amount": amount},
		Inputs: map[string]string{strategy.InputCoin: "borrow.coin"},
	}
	for _, id := range outputs {
		n.Outputs = append(n.Outputs, strategy.Output{ID: id, Class: strategy.ClassValue})
	}
	return n
}

func newAdapter(r PoolReader, threshold string) *Adapter {
	return New("cetus", Config{
		Package: "0xcc", GlobalConfig: "0xc0f", ThresholdTarget: threshold, MaxAttempts: 1,
	}, r)
}

func TestEstimateQuoted(t *testing.T) {
	r := &fakeReader{state: suiUSDC()}
	est, err := newAdapter(r, "").Estimate(context.Background(), swapNode(strategy.CoinSUI, strategy.CoinUSDC, "1000", "coin"), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if est.Source != adapter.SourceQuoted || !est.AToB {
		t.Errorf("expected a quoted a-to-b estimate, got %+v", est)
	}
	// fee 3, 2_000_000 * 997 / 1_000_997
	if !est.Fee.Equal(decimal.NewFromInt(3)) || !est.AmountOut.Equal(decimal.NewFromInt(1992)) {
		t.Errorf("unexpected fee/out %s/%s", est.Fee, est.AmountOut)
	}
	if !est.MinAmountOut.Equal(decimal.NewFromInt(1982)) {
		t.Errorf("expected min out 1982 at 50bps, got %s", est.MinAmountOut)
	}
	if !est.PriceLimit.GreaterThan(MinSqrtPrice) || !est.PriceLimit.LessThan(suiUSDC().SqrtPrice()) {
		t.Errorf("expected a limit below the current price %s, got %s", suiUSDC().SqrtPrice(), est.PriceLimit)
	}
}

func TestEstimateInvertedPool(t *testing.T) {
	r := &fakeReader{state: suiUSDC()}
	node := swapNode(strategy.CoinUSDC, "0x0002::sui::SUI", "2000", "coin")
	node.Params["slippage_bps"] = 100
	est, err := newAdapter(r, "").Estimate(context.Background(), node, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if est.AToB {
		t.Errorf("expected b-to-a, got %+v", est)
	}
	if !est.PriceLimit.GreaterThan(suiUSDC().SqrtPrice()) || !est.PriceLimit.LessThan(MaxSqrtPrice) {
		t.Errorf("expected a limit above the current price, got %s", est.PriceLimit)
	}
	// fee 6, 1_000_000 * 1994 / 2_001_994
	if !est.AmountOut.Equal(decimal.NewFromInt(996)) || !est.MinAmountOut.Equal(decimal.NewFromInt(986)) {
		t.Errorf("unexpected out/min %s/%s", est.AmountOut, est.MinAmountOut)
	}
}

func TestEstimateAllAmount(t *testing.T) {
	r := &fakeReader{state: suiUSDC()}
	a := newAdapter(r, "")
	node := swapNode(strategy.CoinSUI, strategy.CoinUSDC, strategy.RefAll, "coin")

	hint := decimal.NewFromInt(5000)
	est, err := a.Estimate(context.Background(), node, &hint)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !est.AmountIn.Equal(hint) || est.Source != adapter.SourceQuoted {
		t.Errorf("expected upstream amount to be used, got %+v", est)
	}

	est, err = a.Estimate(context.Background(), node, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if est.AmountIn.String() != DefaultPlaceholderAmount || est.Source != adapter.SourcePlaceholder {
		t.Errorf("expected placeholder amount, got %+v", est)
	}
	if !est.PriceLimit.Equal(MinSqrtPrice) {
		t.Errorf("expected the widest limit for a placeholder amount, got %s", est.PriceLimit)
	}
}

func TestEstimateFallsBack(t *testing.T) {
	tests := []struct {
		name   string
		reader PoolReader
	}{
		{"read error", &fakeReader{err: errors.New("connection refused")}},
		{"no reader", nil},
		{"wrong pair", &fakeReader{state: PoolState{CoinTypeA: "0x3::a::A", CoinTypeB: "0x3::b::B"}}},
		{"empty pool", &fakeReader{state: PoolState{CoinTypeA: strategy.CoinSUI, CoinTypeB: strategy.CoinUSDC}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			est, err := newAdapter(tt.reader, "").Estimate(context.Background(),
				swapNode(strategy.CoinSUI, strategy.CoinUSDC, strategy.RefAll, "coin"), nil)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if est.Source != adapter.SourceFallback || est.Cause == "" {
				t.Errorf("expected a fallback estimate with a cause, got %+v", est)
			}
			if !est.MinAmountOut.IsZero() || !est.AToB {
				t.Errorf("expected permissive limits, got %+v", est)
			}
		})
	}
}

func TestBreakerOpensAfterFailures(t *testing.T) {
	r := &fakeReader{err: errors.New("down")}
	a := New("cetus", Config{Package: "0xcc", MaxAttempts: 1, BreakerFailures: 2}, r)
	node := swapNode(strategy.CoinSUI, strategy.CoinUSDC, "10", "coin")
	for range 4 {
		if _, err := a.Estimate(context.Background(), node, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if got := r.calls.Load(); got != 2 {
		t.Errorf("expected the breaker to stop reads after 2 failures, got %d reads", got)
	}
	if a.IsAvailable(context.Background()) {
		t.Error("expected adapter to report unavailable while open")
	}
}

func TestEncodeAllWithThreshold(t *testing.T) {
	r := &fakeReader{state: suiUSDC()}
	a := newAdapter(r, "0xcc::router::check_coin_threshold")
	node := swapNode(strategy.CoinSUI, strategy.CoinUSDC, strategy.RefAll, "coin")
	hint := decimal.NewFromInt(1000)
	est, _ := a.Estimate(context.Background(), node, &hint)

	tx := ptb.NewBuilder()
	coin := adapter.CoinHandle(ptb.GasCoin(), strategy.CoinSUI)
	out, err := a.Encode(context.Background(), tx, node, adapter.Inputs{strategy.InputCoin: coin}, &est)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p := tx.Build()
	names := []string{"value", "zero", "swap", "check_coin_threshold"}
	if len(p.Commands) != 5 {
		t.Fatalf("expected 5 commands, got %d", len(p.Commands))
	}
	for i, name := range names {
		if c := p.Commands[i].(ptb.MoveCall); c.Function != name {
			t.Errorf("command %d: expected %s, got %s", i, name, c.Function)
		}
	}
	swap := p.Commands[2].(ptb.MoveCall)
	if len(swap.Args) != 9 || swap.Args[2] != coin.Arg || swap.Args[3] != ptb.Result(1) || swap.Args[6] != ptb.Result(0) {
		t.Errorf("unexpected swap arguments %v", swap.Args)
	}
	if swap.TypeArguments[0] != strategy.NormalizeType(strategy.CoinSUI) {
		t.Errorf("expected coin A first, got %v", swap.TypeArguments)
	}
	if out["coin"].Arg != ptb.NestedResult(2, 1) || out["coin"].CoinType != strategy.CoinUSDC {
		t.Errorf("unexpected output %+v", out["coin"])
	}
	if tr := p.Commands[4].(ptb.TransferObjects); tr.Objects[0] != ptb.NestedResult(2, 0) {
		t.Errorf("expected remainder transferred, got %+v", tr)
	}
	clock := p.Inputs[swap.Args[8].Index]
	if clock.Mutable {
		t.Error("expected an immutable clock")
	}
	if err := p.Check(); err != nil {
		t.Errorf("unexpected check error: %v", err)
	}
}

func TestEncodeInvertedWithRemainderOutput(t *testing.T) {
	r := &fakeReader{state: suiUSDC()}
	a := newAdapter(r, "0xcc::router::check_coin_threshold")
	node := swapNode(strategy.CoinUSDC, strategy.CoinSUI, "2000", "coin", "change")
	est, _ := a.Estimate(context.Background(), node, nil)

	tx := ptb.NewBuilder()
	coin := adapter.CoinHandle(ptb.GasCoin(), strategy.CoinUSDC)
	out, err := a.Encode(context.Background(), tx, node, adapter.Inputs{strategy.InputCoin: coin}, &est)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p := tx.Build()
	if len(p.Commands) != 3 {
		t.Fatalf("expected zero, swap and threshold, got %d commands", len(p.Commands))
	}
	swap := p.Commands[1].(ptb.MoveCall)
	if swap.Args[2] != ptb.Result(0) || swap.Args[3] != coin.Arg {
		t.Errorf("expected input coin on the B side, got %v", swap.Args)
	}
	if out["coin"].Arg != ptb.NestedResult(1, 0) || out["change"].Arg != ptb.NestedResult(1, 1) {
		t.Errorf("unexpected outputs %+v", out)
	}
}

func TestSlippageLimit(t *testing.T) {
	pool := suiUSDC()
	tight := pool.SlippageLimit(decimal.NewFromInt(997), decimal.NewFromInt(1992), true, 10)
	loose := pool.SlippageLimit(decimal.NewFromInt(997), decimal.NewFromInt(1992), true, 500)
	if !loose.LessThan(tight) || !tight.LessThan(pool.SqrtPrice()) {
		t.Errorf("expected %s < %s < %s", loose, tight, pool.SqrtPrice())
	}
	if got := pool.SlippageLimit(decimal.NewFromInt(1), decimal.NewFromInt(3_000_000), true, 50); !got.Equal(MinSqrtPrice) {
		t.Errorf("expected a drained pool to fall back to the widest limit, got %s", got)
	}
}

func TestQuotedSwapIsBounded(t *testing.T) {
	node := swapNode(strategy.CoinSUI, strategy.CoinUSDC, "1000", "coin")
	coin := adapter.CoinHandle(ptb.GasCoin(), strategy.CoinSUI)

	build := func(r PoolReader) (*ptb.Program, ptb.MoveCall) {
		t.Helper()
		a := newAdapter(r, "")
		est, err := a.Estimate(context.Background(), node, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		tx := ptb.NewBuilder()
		if _, err := a.Encode(context.Background(), tx, node, adapter.Inputs{strategy.InputCoin: coin}, &est); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		p := tx.Build()
		return p, p.Commands[1].(ptb.MoveCall)
	}

	quoted, qSwap := build(&fakeReader{state: suiUSDC()})
	fallback, fSwap := build(&fakeReader{err: errors.New("down")})

	qLimit := quoted.Inputs[qSwap.Args[7].Index].Value
	fLimit := fallback.Inputs[fSwap.Args[7].Index].Value
	if qLimit == fLimit {
		t.Errorf("expected the quoted limit to differ from the fallback limit %v", fLimit)
	}
	if fLimit != MinSqrtPrice.String() {
		t.Errorf("expected the fallback to use the widest limit, got %v", fLimit)
	}
}

func TestEncodeWithoutEstimate(t *testing.T) {
	a := newAdapter(nil, "0xcc::router::check_coin_threshold")
	node := swapNode(strategy.CoinSUI, strategy.CoinUSDC, "10", "coin")
	tx := ptb.NewBuilder()
	_, err := a.Encode(context.Background(), tx, node, adapter.Inputs{strategy.InputCoin: adapter.CoinHandle(ptb.GasCoin(), strategy.CoinSUI)}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tx.Len() != 3 {
		t.Errorf("expected zero, swap and transfer without a threshold check, got %d", tx.Len())
	}
}

func TestEncodeErrors(t *testing.T) {
	a := newAdapter(nil, "")
	node := swapNode(strategy.CoinSUI, strategy.CoinUSDC, "10", "coin")
	if _, err := a.Encode(context.Background(), ptb.NewBuilder(), node, adapter.Inputs{}, nil); err == nil {
		t.Error("expected error for a missing coin input")
	}
	node.Kind = strategy.KindSplit
	if _, err := a.Encode(context.Background(), ptb.NewBuilder(), node, adapter.Inputs{}, nil); err == nil {
		t.Error("expected error for a non-swap node")
	}
}

func TestFactory(t *testing.T) {
	f := NewFactory(&fakeReader{state: suiUSDC()})
	a, err := f("cetus", map[string]any{"package": "0xcc", "timeout": "2s", "max_attempts": 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Family() != Family || !a.IsAvailable(context.Background()) {
		t.Errorf("unexpected adapter %s", a.Family())
	}
	if _, err := f("cetus", map[string]any{"package": "0xcc", "threshold_target": "nope"}); err == nil {
		t.Error("expected error for a bad threshold target")
	}
}
