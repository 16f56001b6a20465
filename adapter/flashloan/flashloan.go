package flashloan

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/kbukum/strategykit/adapter"
	"github.com/kbukum/strategykit/ptb"
	"github.com/kbukum/strategykit/strategy"
)

// Family is the registry family name.
const Family = adapter.FamilyFlashLoan

// Config describes a lending protocol's flash-loan entry points.
type Config struct {
	// Package is the protocol's package id.
	Package        string `mapstructure:"package" validate:"required,object_id"`
	Module         string `mapstructure:"module"`
	BorrowFunction string `mapstructure:"borrow_function"`
	RepayFunction  string `mapstructure:"repay_function"`
	// Objects are passed, in order, ahead of the amount to borrow and ahead
	// of the payment on repay (protocol config, lending pool).
	Objects []string `mapstructure:"objects" validate:"dive,object_id"`
	// FeeBps is the flash-loan fee in basis points of the principal.
	FeeBps int `mapstructure:"fee_bps" validate:"min=0,max=10000"`
	// UsesBalance is set for protocols that lend and take back a
	// Balance<T> rather than a Coin<T>.
	UsesBalance bool `mapstructure:"uses_balance"`
}

// ApplyDefaults fills the usual entry point names.
func (c *Config) ApplyDefaults() {
	if c.Module == "" {
		c.Module = "flash_loan"
	}
	if c.BorrowFunction == "" {
		c.BorrowFunction = "flash_loan"
	}
	if c.RepayFunction == "" {
		c.RepayFunction = "repay_flash_loan"
	}
}

// Adapter encodes borrow and repay nodes for one lending protocol.
type Adapter struct {
	name string
	cfg  Config
}

// New creates a flash-loan adapter registered under name.
func New(name string, cfg Config) *Adapter {
	cfg.ApplyDefaults()
	return &Adapter{name: name, cfg: cfg}
}

// Factory builds an Adapter from a settings map.
func Factory(name string, settings map[string]any) (adapter.Adapter, error) {
	cfg, err := adapter.DecodeSettings[Config](settings)
	if err != nil {
		return nil, err
	}
	return New(name, cfg), nil
}

var _ adapter.FlashLoaner = (*Adapter)(nil)

func (a *Adapter) Name() string                     { return a.name }
func (a *Adapter) Family() string                   { return Family }
func (a *Adapter) IsAvailable(context.Context) bool { return true }

// Fee returns the fee owed on principal, rounded up.
func (a *Adapter) Fee(principal decimal.Decimal) decimal.Decimal {
	return adapter.FeeOf(principal, a.cfg.FeeBps)
}

// Estimate reports the principal and fee of a borrow. Repay nodes have
// nothing to estimate.
func (a *Adapter) Estimate(_ context.Context, node *strategy.Node, _ *decimal.Decimal) (adapter.Estimate, error) {
	est := adapter.Estimate{NodeID: node.ID, Source: adapter.SourceQuoted}
	if node.Kind != strategy.KindBorrow {
		return est, nil
	}
	p, err := strategy.DecodeParams[strategy.BorrowParams](node.Params)
	if err != nil {
		return est, err
	}
	amount, err := decimal.NewFromString(p.Amount)
	if err != nil {
		return est, fmt.Errorf("amount: %w", err)
	}
	est.AmountOut = amount
	est.Fee = a.Fee(amount)
	est.CoinTypeA = p.Asset
	return est, nil
}

// Encode dispatches borrow and repay nodes.
func (a *Adapter) Encode(_ context.Context, tx *ptb.Builder, node *strategy.Node, in adapter.Inputs, _ *adapter.Estimate) (adapter.Outputs, error) {
	switch node.Kind {
	case strategy.KindBorrow:
		value, receipt, err := a.Borrow(tx, node)
		if err != nil {
			return nil, err
		}
		out := adapter.Outputs{}
		if vs := node.Values(); len(vs) > 0 {
			out[vs[0].ID] = value
		}
		if rs := node.Receipts(); len(rs) > 0 {
			out[rs[0].ID] = receipt
		}
		return out, nil
	case strategy.KindRepay:
		value, ok := in[strategy.InputCoin]
		if !ok {
			return nil, fmt.Errorf("repay %q: missing %q input", node.ID, strategy.InputCoin)
		}
		receipt, ok := in[strategy.InputReceipt]
		if !ok {
			return nil, fmt.Errorf("repay %q: missing %q input", node.ID, strategy.InputReceipt)
		}
		return adapter.Outputs{}, a.Repay(tx, node, value, receipt)
	default:
		return nil, fmt.Errorf("%s adapter cannot encode %s node %q", Family, node.Kind, node.ID)
	}
}

// Borrow emits the flash-loan call. The call returns the borrowed funds and
// the receipt; balances are wrapped into a coin.
func (a *Adapter) Borrow(tx *ptb.Builder, node *strategy.Node) (adapter.Handle, adapter.Handle, error) {
	p, err := strategy.DecodeParams[strategy.BorrowParams](node.Params)
	if err != nil {
		return adapter.Handle{}, adapter.Handle{}, err
	}
	args, err := a.objects(tx)
	if err != nil {
		return adapter.Handle{}, adapter.Handle{}, err
	}
	amount, err := tx.PureAmount(p.Amount)
	if err != nil {
		return adapter.Handle{}, adapter.Handle{}, fmt.Errorf("amount: %w", err)
	}
	args = append(args, amount)

	asset := []string{p.Asset}
	call := tx.Call(a.cfg.Package, a.cfg.Module, a.cfg.BorrowFunction, asset, args...)
	funds := call.Nested(0)
	if a.cfg.UsesBalance {
		funds = tx.Call(strategy.FrameworkAddress, "coin", "from_balance", asset, funds)
	}

	value := adapter.CoinHandle(funds, p.Asset)
	receipt := adapter.Handle{Arg: call.Nested(1), Amount: p.Amount, CoinType: p.Asset, Class: strategy.ClassReceipt}
	return value, receipt, nil
}

// Repay splits principal plus fee off value, repays with it and transfers
// whatever is left of value to the sender.
func (a *Adapter) Repay(tx *ptb.Builder, node *strategy.Node, value, receipt adapter.Handle) error {
	p, err := strategy.DecodeParams[strategy.RepayParams](node.Params)
	if err != nil {
		return err
	}
	if receipt.Amount == "" {
		return fmt.Errorf("repay %q: receipt carries no principal", node.ID)
	}
	principal, err := decimal.NewFromString(receipt.Amount)
	if err != nil {
		return fmt.Errorf("repay %q: principal: %w", node.ID, err)
	}
	owed := principal.Add(a.Fee(principal))

	amount, err := tx.PureAmount(owed.String())
	if err != nil {
		return fmt.Errorf("repay %q: amount owed: %w", node.ID, err)
	}
	asset := []string{p.Asset}
	payment := tx.SplitCoins(value.Arg, amount).Nested(0)
	if a.cfg.UsesBalance {
		payment = tx.Call(strategy.FrameworkAddress, "coin", "into_balance", asset, payment)
	}

	args, err := a.objects(tx)
	if err != nil {
		return err
	}
	args = append(args, payment, receipt.Arg)
	tx.Call(a.cfg.Package, a.cfg.Module, a.cfg.RepayFunction, asset, args...)

	tx.TransferObjects([]ptb.Argument{value.Arg}, ptb.Sender())
	return nil
}

func (a *Adapter) objects(tx *ptb.Builder) ([]ptb.Argument, error) {
	args := make([]ptb.Argument, 0, len(a.cfg.Objects)+2)
	for _, id := range a.cfg.Objects {
		arg, err := tx.Object(id)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	return args, nil
}
