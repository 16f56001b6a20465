package adapter

import "github.com/shopspring/decimal"

// EstimateSource says where an estimate's numbers came from.
type EstimateSource string

const (
	// SourceQuoted estimates are computed from live protocol state.
	SourceQuoted EstimateSource = "quoted"
	// SourcePlaceholder estimates use a placeholder input amount for an ALL
	// swap with no upstream hint.
	SourcePlaceholder EstimateSource = "placeholder"
	// SourceFallback estimates use permissive limits because protocol state
	// could not be read.
	SourceFallback EstimateSource = "fallback"
)

// Estimate is the advisory pre-computation for one node. It lives for one
// compile only.
type Estimate struct {
	NodeID       string          `json:"node_id"`
	AmountIn     decimal.Decimal `json:"amount_in"`
	AmountOut    decimal.Decimal `json:"amount_out"`
	Fee          decimal.Decimal `json:"fee"`
	MinAmountOut decimal.Decimal `json:"min_amount_out"`
	// PriceLimit is the sqrt-price bound passed to the pool.
	PriceLimit decimal.Decimal `json:"price_limit"`
	// AToB is true when the node's input coin is the pool's coin A.
	AToB      bool           `json:"a_to_b"`
	CoinTypeA string         `json:"coin_type_a,omitempty"`
	CoinTypeB string         `json:"coin_type_b,omitempty"`
	Source    EstimateSource `json:"source"`
	Cause     string         `json:"cause,omitempty"`
}

// Degraded reports whether the estimate did not come from live state.
func (e Estimate) Degraded() bool { return e.Source != SourceQuoted }

// ApplySlippage returns amount reduced by bps basis points, rounded down.
func ApplySlippage(amount decimal.Decimal, bps int) decimal.Decimal {
	keep := decimal.NewFromInt(int64(10000 - bps))
	return amount.Mul(keep).Div(decimal.NewFromInt(10000)).Floor()
}

// FeeOf returns amount * bps / 10000 rounded up, so the fee is never
// underpaid.
func FeeOf(amount decimal.Decimal, bps int) decimal.Decimal {
	return amount.Mul(decimal.NewFromInt(int64(bps))).Div(decimal.NewFromInt(10000)).Ceil()
}
