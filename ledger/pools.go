package ledger

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/kbukum/strategykit/adapter/exchange"
	"github.com/kbukum/strategykit/strategy"
)

// PoolLayout names the pool object fields holding the reserves and fee.
type PoolLayout struct {
	ReserveA string `mapstructure:"reserve_a"`
	ReserveB string `mapstructure:"reserve_b"`
	Fee      string `mapstructure:"fee"`
	// FeeDenominator turns the stored fee into a fraction.
	FeeDenominator int64 `mapstructure:"fee_denominator"`
}

// DefaultPoolLayout matches pools that store coin_a, coin_b and a fee
// rate in millionths.
func DefaultPoolLayout() PoolLayout {
	return PoolLayout{ReserveA: "coin_a", ReserveB: "coin_b", Fee: "fee_rate", FeeDenominator: 1_000_000}
}

// PoolReader reads pool objects through a Client.
type PoolReader struct {
	client Client
	layout PoolLayout
}

var _ exchange.PoolReader = (*PoolReader)(nil)

// NewPoolReader returns a reader using layout. Zero fields take the
// defaults.
func NewPoolReader(client Client, layout PoolLayout) *PoolReader {
	def := DefaultPoolLayout()
	if layout.ReserveA == "" {
		layout.ReserveA = def.ReserveA
	}
	if layout.ReserveB == "" {
		layout.ReserveB = def.ReserveB
	}
	if layout.Fee == "" {
		layout.Fee = def.Fee
	}
	if layout.FeeDenominator <= 0 {
		layout.FeeDenominator = def.FeeDenominator
	}
	return &PoolReader{client: client, layout: layout}
}

// ReadPool reads a Pool<A, B> object. The coin types come from the
// object's type parameters.
func (r *PoolReader) ReadPool(ctx context.Context, poolID string) (exchange.PoolState, error) {
	obj, err := r.client.GetObject(ctx, poolID)
	if err != nil {
		return exchange.PoolState{}, err
	}
	if obj.Content == nil || obj.Content.DataType != "moveObject" {
		return exchange.PoolState{}, fmt.Errorf("object %s is not a Move object", poolID)
	}
	typ := obj.Content.Type
	if typ == "" {
		typ = obj.Type
	}
	tag, err := strategy.ParseTypeTag(typ)
	if err != nil {
		return exchange.PoolState{}, err
	}
	if tag.Kind != strategy.TypeKindStruct || len(tag.Params) < 2 {
		return exchange.PoolState{}, fmt.Errorf("object %s has type %s, want a pool of two coin types", poolID, typ)
	}

	fields := obj.Content.Fields
	reserveA, err := numericField(fields, r.layout.ReserveA)
	if err != nil {
		return exchange.PoolState{}, fmt.Errorf("pool %s: %w", poolID, err)
	}
	reserveB, err := numericField(fields, r.layout.ReserveB)
	if err != nil {
		return exchange.PoolState{}, fmt.Errorf("pool %s: %w", poolID, err)
	}
	fee, err := numericField(fields, r.layout.Fee)
	if err != nil {
		return exchange.PoolState{}, fmt.Errorf("pool %s: %w", poolID, err)
	}

	return exchange.PoolState{
		ID:        poolID,
		CoinTypeA: tag.Params[0].String(),
		CoinTypeB: tag.Params[1].String(),
		ReserveA:  reserveA,
		ReserveB:  reserveB,
		FeeRate:   fee.Div(decimal.NewFromInt(r.layout.FeeDenominator)),
	}, nil
}

// numericField reads a u64 field stored as a string, a number, or a
// Balance struct wrapping a value.
func numericField(fields map[string]any, name string) (decimal.Decimal, error) {
	v, ok := fields[name]
	if !ok {
		return decimal.Zero, fmt.Errorf("missing field %q", name)
	}
	switch v := v.(type) {
	case string:
		return decimal.NewFromString(v)
	case float64:
		return decimal.NewFromFloat(v), nil
	case map[string]any:
		if inner, ok := v["fields"].(map[string]any); ok {
			return numericField(inner, "value")
		}
		return numericField(v, "value")
	default:
		return decimal.Zero, fmt.Errorf("field %q has unexpected type %T", name, v)
	}
}
