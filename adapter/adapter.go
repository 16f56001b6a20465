package adapter

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/kbukum/strategykit/provider"
	"github.com/kbukum/strategykit/ptb"
	"github.com/kbukum/strategykit/strategy"
)

// Adapter families.
const (
	FamilyFlashLoan = "flashloan"
	FamilyExchange  = "exchange"
)

// Handle is a value or receipt produced during emission: the transaction
// argument that carries it plus what is known about it statically.
type Handle struct {
	Arg ptb.Argument
	// Type is the full Move type, when known.
	Type string
	// CoinType is the asset type X of a Coin<X> handle.
	CoinType string
	// Amount is the principal carried by a receipt.
	Amount string
	Class  strategy.OutputClass
}

// Inputs maps a node's input names to resolved handles.
type Inputs map[string]Handle

// Outputs maps a node's output ids to produced handles.
type Outputs map[string]Handle

// Adapter is the capability contract every protocol integration implements.
// Estimate is advisory and must not fail on an unreachable protocol: it
// returns a fallback estimate instead. Encode emits the node's commands into
// tx and returns a handle per declared output.
type Adapter interface {
	provider.Provider

	// Family returns the adapter family.
	Family() string

	// Estimate computes expected amounts for node. upstream, when not nil,
	// replaces an ALL amount.
	Estimate(ctx context.Context, node *strategy.Node, upstream *decimal.Decimal) (Estimate, error)

	// Encode emits node. est is nil when no estimate was computed.
	Encode(ctx context.Context, tx *ptb.Builder, node *strategy.Node, in Inputs, est *Estimate) (Outputs, error)
}

// FlashLoaner is implemented by flash-loan adapters. Borrow returns the
// borrowed value and its receipt; Repay consumes both and sends any surplus
// back to the sender.
type FlashLoaner interface {
	Adapter
	Borrow(tx *ptb.Builder, node *strategy.Node) (value, receipt Handle, err error)
	Repay(tx *ptb.Builder, node *strategy.Node, value, receipt Handle) error
}

// CoinHandle returns a value handle for a Coin<coinType> argument.
func CoinHandle(arg ptb.Argument, coinType string) Handle {
	h := Handle{Arg: arg, CoinType: coinType, Class: strategy.ClassValue}
	if coinType != "" {
		h.Type = CoinOf(coinType)
	}
	return h
}

// CoinOf returns "0x2::coin::Coin<coinType>".
func CoinOf(coinType string) string {
	return strategy.NormalizeType("0x2::coin::Coin<" + coinType + ">")
}
