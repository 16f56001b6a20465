package exchange

import (
	"context"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/kbukum/strategykit/strategy"
)

// Sqrt-price bounds of a concentrated-liquidity pool, as Q64.64 values.
var (
	MinSqrtPrice = decimal.RequireFromString("4295048016")
	MaxSqrtPrice = decimal.RequireFromString("79226673515401279992447579055")
)

// PoolState is the part of an on-chain pool the estimate needs.
type PoolState struct {
	ID        string          `json:"id"`
	CoinTypeA string          `json:"coin_type_a"`
	CoinTypeB string          `json:"coin_type_b"`
	ReserveA  decimal.Decimal `json:"reserve_a"`
	ReserveB  decimal.Decimal `json:"reserve_b"`
	// FeeRate is the swap fee as a fraction of the input, e.g. 0.0025.
	FeeRate decimal.Decimal `json:"fee_rate"`
}

// PoolReader reads pool state from the ledger.
type PoolReader interface {
	ReadPool(ctx context.Context, poolID string) (PoolState, error)
}

// Direction reports whether swapping coinIn for coinOut runs from the
// pool's coin A to coin B. It fails when the pool does not trade the pair.
func (s PoolState) Direction(coinIn, coinOut string) (bool, error) {
	switch {
	case strategy.SameType(s.CoinTypeA, coinIn) && strategy.SameType(s.CoinTypeB, coinOut):
		return true, nil
	case strategy.SameType(s.CoinTypeB, coinIn) && strategy.SameType(s.CoinTypeA, coinOut):
		return false, nil
	default:
		return false, fmt.Errorf("pool %s trades %s/%s, not %s/%s", s.ID, s.CoinTypeA, s.CoinTypeB, coinIn, coinOut)
	}
}

// Quote returns the constant-product output and fee for amountIn.
func (s PoolState) Quote(amountIn decimal.Decimal, aToB bool) (out, fee decimal.Decimal, err error) {
	reserveIn, reserveOut := s.ReserveA, s.ReserveB
	if !aToB {
		reserveIn, reserveOut = reserveOut, reserveIn
	}
	if reserveIn.Sign() <= 0 || reserveOut.Sign() <= 0 {
		return decimal.Zero, decimal.Zero, fmt.Errorf("pool %s has no liquidity", s.ID)
	}
	fee = amountIn.Mul(s.FeeRate).Ceil()
	net := amountIn.Sub(fee)
	if net.Sign() <= 0 {
		return decimal.Zero, fee, nil
	}
	out, _ = reserveOut.Mul(net).QuoRem(reserveIn.Add(net), 0)
	return out, fee, nil
}

// PriceLimit returns the most permissive sqrt-price bound for a direction.
func PriceLimit(aToB bool) decimal.Decimal {
	if aToB {
		return MinSqrtPrice
	}
	return MaxSqrtPrice
}

// SqrtPrice returns the pool's current sqrt price of A in B as Q64.64.
func (s PoolState) SqrtPrice() decimal.Decimal {
	return sqrtPriceX64(s.ReserveA, s.ReserveB, 10000)
}

// SlippageLimit returns the sqrt-price bound for a quoted swap: the
// post-swap price moved a further bps basis points in the swap's direction,
// clamped to the pool's range. net is the input after fees.
func (s PoolState) SlippageLimit(net, out decimal.Decimal, aToB bool, bps int) decimal.Decimal {
	reserveA, reserveB := s.ReserveA.Add(net), s.ReserveB.Sub(out)
	factor := int64(10000 - bps)
	if !aToB {
		reserveA, reserveB = s.ReserveA.Sub(out), s.ReserveB.Add(net)
		factor = int64(10000 + bps)
	}
	if reserveA.Sign() <= 0 || reserveB.Sign() <= 0 {
		return PriceLimit(aToB)
	}
	limit := sqrtPriceX64(reserveA, reserveB, factor)
	switch {
	case limit.LessThan(MinSqrtPrice):
		return MinSqrtPrice
	case limit.GreaterThan(MaxSqrtPrice):
		return MaxSqrtPrice
	}
	return limit
}

// sqrtPriceX64 computes sqrt(b/a * factor/10000) * 2^64, rounded down.
func sqrtPriceX64(a, b decimal.Decimal, factor int64) decimal.Decimal {
	if a.Sign() <= 0 || b.Sign() <= 0 {
		return decimal.Zero
	}
	num := new(big.Int).Mul(b.BigInt(), big.NewInt(factor))
	num.Lsh(num, 128)
	den := new(big.Int).Mul(a.BigInt(), big.NewInt(10000))
	num.Quo(num, den)
	return decimal.NewFromBigInt(num.Sqrt(num), 0)
}
