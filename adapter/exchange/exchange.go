package exchange

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kbukum/strategykit/adapter"
	"github.com/kbukum/strategykit/logger"
	"github.com/kbukum/strategykit/observability"
	"github.com/kbukum/strategykit/provider"
	"github.com/kbukum/strategykit/ptb"
	"github.com/kbukum/strategykit/resilience"
	"github.com/kbukum/strategykit/strategy"
)

// Family is the registry family name.
const Family = adapter.FamilyExchange

// DefaultPlaceholderAmount stands in for an ALL amount with no upstream
// estimate.
const DefaultPlaceholderAmount = "1000000000"

// Config describes a pool protocol's swap entry point and how its pools
// are read.
type Config struct {
	Package  string `mapstructure:"package" validate:"required,object_id"`
	Module   string `mapstructure:"module"`
	Function string `mapstructure:"function"`
	// GlobalConfig is passed ahead of the pool when set.
	GlobalConfig string `mapstructure:"global_config" validate:"omitempty,object_id"`
	Clock        string `mapstructure:"clock" validate:"omitempty,object_id"`
	// ThresholdTarget is called as target<Out>(&coin, min_out) after the swap
	// to enforce the slippage bound.
	ThresholdTarget   string `mapstructure:"threshold_target" validate:"omitempty,move_target"`
	PlaceholderAmount string `mapstructure:"placeholder_amount" validate:"omitempty,amount"`

	Timeout         time.Duration `mapstructure:"timeout"`
	MaxAttempts     int           `mapstructure:"max_attempts" validate:"min=0,max=10"`
	BreakerFailures int           `mapstructure:"breaker_failures" validate:"min=0"`
	MaxConcurrent   int           `mapstructure:"max_concurrent" validate:"min=0"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Module == "" {
		c.Module = "pool_script"
	}
	if c.Function == "" {
		c.Function = "swap"
	}
	if c.Clock == "" {
		c.Clock = "0x6"
	}
	if c.PlaceholderAmount == "" {
		c.PlaceholderAmount = DefaultPlaceholderAmount
	}
	if c.Timeout == 0 {
		c.Timeout = 3 * time.Second
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = 3
	}
	if c.BreakerFailures == 0 {
		c.BreakerFailures = 5
	}
	if c.MaxConcurrent == 0 {
		c.MaxConcurrent = 8
	}
}

// Policy returns the protection stack for pool reads.
func (c *Config) Policy(name string) *resilience.Policy {
	retry := resilience.DefaultRetryConfig()
	retry.MaxAttempts = c.MaxAttempts
	breaker := resilience.DefaultCircuitBreakerConfig(name)
	breaker.MaxFailures = c.BreakerFailures
	bulkhead := resilience.DefaultBulkheadConfig(name)
	bulkhead.MaxConcurrent = c.MaxConcurrent
	return resilience.NewPolicy(resilience.PolicyConfig{
		Name:           name,
		Timeout:        c.Timeout,
		Retry:          &retry,
		CircuitBreaker: &breaker,
		Bulkhead:       &bulkhead,
	})
}

// Option configures an Adapter.
type Option func(*options)

type options struct {
	log     *logger.Logger
	metrics *observability.Metrics
}

// WithLogger sets the adapter's logger.
func WithLogger(log *logger.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithMetrics records pool reads.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// Adapter estimates and encodes swaps against one pool protocol.
type Adapter struct {
	name  string
	cfg   Config
	pools provider.RequestResponse[string, PoolState]
	log   *logger.Logger
}

// New creates an exchange adapter registered under name. Pool reads go
// through tracing, logging, metrics and the resilience policy built from
// cfg.
func New(name string, cfg Config, reader PoolReader, opts ...Option) *Adapter {
	cfg.ApplyDefaults()
	o := options{log: logger.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	log := o.log.WithComponent("adapter.exchange").WithFields(logger.Fields(logger.FieldProtocol, name))

	var read func(ctx context.Context, id string) (PoolState, error)
	if reader != nil {
		read = reader.ReadPool
	}
	base := provider.Func[string, PoolState]{ProviderName: name + ".pool", Fn: read}

	var metrics provider.Middleware[string, PoolState]
	if o.metrics != nil {
		metrics = provider.WithMetrics[string, PoolState](o.metrics, "adapter.exchange")
	}
	chain := provider.Chain(
		provider.WithTracing[string, PoolState]("adapter.exchange"),
		provider.WithLogging[string, PoolState](log),
		metrics,
		provider.WithResilience[string, PoolState](cfg.Policy("pool:"+name)),
	)
	return &Adapter{name: name, cfg: cfg, pools: chain(base), log: log}
}

// NewFactory returns a registry factory that builds adapters reading pools
// through reader.
func NewFactory(reader PoolReader, opts ...Option) adapter.Factory {
	return func(name string, settings map[string]any) (adapter.Adapter, error) {
		cfg, err := adapter.DecodeSettings[Config](settings)
		if err != nil {
			return nil, err
		}
		return New(name, cfg, reader, opts...), nil
	}
}

var _ adapter.Adapter = (*Adapter)(nil)

func (a *Adapter) Name() string   { return a.name }
func (a *Adapter) Family() string { return Family }

// IsAvailable is false while pool reads are failing fast.
func (a *Adapter) IsAvailable(ctx context.Context) bool { return a.pools.IsAvailable(ctx) }

// Estimate quotes a swap node against the pool's reserves. A quoted
// estimate bounds the swap at the post-swap price moved by the node's
// slippage. An ALL amount uses upstream, or the placeholder amount when
// upstream is nil. A failed pool read yields a fallback estimate with no
// minimum output and the declared direction; it is not an error.
func (a *Adapter) Estimate(ctx context.Context, node *strategy.Node, upstream *decimal.Decimal) (adapter.Estimate, error) {
	p, err := strategy.DecodeParams[strategy.SwapParams](node.Params)
	if err != nil {
		return adapter.Estimate{NodeID: node.ID}, err
	}

	source := adapter.SourceQuoted
	var amountIn decimal.Decimal
	switch {
	case !p.UsesAll():
		amountIn, err = decimal.NewFromString(p.Amount)
		if err != nil {
			return adapter.Estimate{NodeID: node.ID}, fmt.Errorf("amount: %w", err)
		}
	case upstream != nil:
		amountIn = *upstream
	default:
		amountIn = decimal.RequireFromString(a.cfg.PlaceholderAmount)
		source = adapter.SourcePlaceholder
	}

	if !a.pools.IsAvailable(ctx) {
		return Fallback(node.ID, p, amountIn, errors.New("pool reader unavailable")), nil
	}
	state, err := a.pools.Execute(ctx, p.Pool)
	if err != nil {
		return Fallback(node.ID, p, amountIn, err), nil
	}
	aToB, err := state.Direction(p.CoinTypeIn, p.CoinTypeOut)
	if err != nil {
		return Fallback(node.ID, p, amountIn, err), nil
	}
	out, fee, err := state.Quote(amountIn, aToB)
	if err != nil {
		return Fallback(node.ID, p, amountIn, err), nil
	}
	// A placeholder amount says nothing about how far the price will move.
	limit := PriceLimit(aToB)
	if source == adapter.SourceQuoted {
		limit = state.SlippageLimit(amountIn.Sub(fee), out, aToB, p.Slippage())
	}

	return adapter.Estimate{
		NodeID:       node.ID,
		AmountIn:     amountIn,
		AmountOut:    out,
		Fee:          fee,
		MinAmountOut: adapter.ApplySlippage(out, p.Slippage()),
		PriceLimit:   limit,
		AToB:         aToB,
		CoinTypeA:    state.CoinTypeA,
		CoinTypeB:    state.CoinTypeB,
		Source:       source,
	}, nil
}

// Fallback returns the best-effort estimate used when the pool cannot be
// read: the declared direction, the widest price limit and no minimum.
func Fallback(nodeID string, p strategy.SwapParams, amountIn decimal.Decimal, cause error) adapter.Estimate {
	est := adapter.Estimate{
		NodeID:     nodeID,
		AmountIn:   amountIn,
		PriceLimit: PriceLimit(true),
		AToB:       true,
		CoinTypeA:  p.CoinTypeIn,
		CoinTypeB:  p.CoinTypeOut,
		Source:     adapter.SourceFallback,
	}
	if cause != nil {
		est.Cause = cause.Error()
	}
	return est
}

// Encode emits the swap. The pool takes one coin per side and returns both;
// the side the node receives becomes its first output and the unspent input
// becomes the second output, or goes back to the sender. An ALL amount reads
// the input coin's value at execution time.
func (a *Adapter) Encode(_ context.Context, tx *ptb.Builder, node *strategy.Node, in adapter.Inputs, est *adapter.Estimate) (adapter.Outputs, error) {
	if node.Kind != strategy.KindSwap {
		return nil, fmt.Errorf("%s adapter cannot encode %s node %q", Family, node.Kind, node.ID)
	}
	p, err := strategy.DecodeParams[strategy.SwapParams](node.Params)
	if err != nil {
		return nil, err
	}
	coin, ok := in[strategy.InputCoin]
	if !ok {
		return nil, fmt.Errorf("swap %q: missing %q input", node.ID, strategy.InputCoin)
	}
	values := node.Values()
	if len(values) == 0 {
		return nil, fmt.Errorf("swap %q declares no value output", node.ID)
	}
	if est == nil {
		f := Fallback(node.ID, p, decimal.Zero, errors.New("not estimated"))
		est = &f
	}

	var amount ptb.Argument
	if p.UsesAll() {
		amount = tx.Call(strategy.FrameworkAddress, "coin", "value", []string{p.CoinTypeIn}, coin.Arg)
	} else if amount, err = tx.PureAmount(p.Amount); err != nil {
		return nil, fmt.Errorf("swap %q: amount: %w", node.ID, err)
	}
	zero := tx.Call(strategy.FrameworkAddress, "coin", "zero", []string{p.CoinTypeOut})

	coinA, coinB := coin.Arg, zero
	if !est.AToB {
		coinA, coinB = zero, coin.Arg
	}
	limit, err := tx.Pure("u128", est.PriceLimit.String())
	if err != nil {
		return nil, fmt.Errorf("swap %q: price limit: %w", node.ID, err)
	}

	var args []ptb.Argument
	if a.cfg.GlobalConfig != "" {
		cfgArg, err := tx.Object(a.cfg.GlobalConfig)
		if err != nil {
			return nil, err
		}
		args = append(args, cfgArg)
	}
	pool, err := tx.Object(p.Pool)
	if err != nil {
		return nil, fmt.Errorf("swap %q: pool: %w", node.ID, err)
	}
	clock, err := tx.ImmutableObject(a.cfg.Clock)
	if err != nil {
		return nil, err
	}
	args = append(args, pool, coinA, coinB, tx.PureBool(est.AToB), tx.PureBool(true), amount, limit, clock)

	swap := tx.Call(a.cfg.Package, a.cfg.Module, a.cfg.Function, []string{est.CoinTypeA, est.CoinTypeB}, args...)
	received, remainder := swap.Nested(1), swap.Nested(0)
	if !est.AToB {
		received, remainder = remainder, received
	}

	if a.cfg.ThresholdTarget != "" && est.Source == adapter.SourceQuoted && est.MinAmountOut.Sign() > 0 {
		minOut, err := tx.PureAmount(est.MinAmountOut.String())
		if err != nil {
			return nil, fmt.Errorf("swap %q: min out: %w", node.ID, err)
		}
		if _, err := tx.CallTarget(a.cfg.ThresholdTarget, []string{p.CoinTypeOut}, received, minOut); err != nil {
			return nil, err
		}
	}

	out := adapter.Outputs{values[0].ID: adapter.CoinHandle(received, p.CoinTypeOut)}
	if len(values) > 1 {
		out[values[1].ID] = adapter.CoinHandle(remainder, p.CoinTypeIn)
	} else {
		tx.TransferObjects([]ptb.Argument{remainder}, ptb.Sender())
	}
	return out, nil
}
