package ledger

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/kbukum/strategykit/strategy"
)

func poolObject(fields map[string]any) *Object {
	typ := "0xcc::pool::Pool<0x2::sui::SUI, " + strategy.CoinUSDC + ">"
	return &Object{
		ObjectRef: ObjectRef{ObjectID: "0xb0a1", Version: 1, Digest: digest(1)},
		Type:      typ,
		Owner:     Owner{Kind: OwnerShared, InitialSharedVersion: 1},
		Content:   &ObjectContent{DataType: "moveObject", Type: typ, Fields: fields},
	}
}

func TestReadPool(t *testing.T) {
	c := newFakeClient()
	c.objects["0xb0a1"] = poolObject(map[string]any{
		"coin_a":   "1000000",
		"coin_b":   map[string]any{"type": "0x2::balance::Balance<0x2::sui::SUI>", "fields": map[string]any{"value": "2000000"}},
		"fee_rate": "2500",
	})

	state, err := NewPoolReader(c, PoolLayout{}).ReadPool(context.Background(), "0xb0a1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strategy.SameType(state.CoinTypeA, strategy.CoinSUI) || !strategy.SameType(state.CoinTypeB, strategy.CoinUSDC) {
		t.Errorf("unexpected coin types %s / %s", state.CoinTypeA, state.CoinTypeB)
	}
	if !state.ReserveA.Equal(decimal.NewFromInt(1_000_000)) || !state.ReserveB.Equal(decimal.NewFromInt(2_000_000)) {
		t.Errorf("unexpected reserves %s / %s", state.ReserveA, state.ReserveB)
	}
	if !state.FeeRate.Equal(decimal.RequireFromString("0.0025")) {
		t.Errorf("expected fee rate 0.0025, got %s", state.FeeRate)
	}
}

func TestReadPoolCustomLayout(t *testing.T) {
	c := newFakeClient()
	c.objects["0xb0a1"] = poolObject(map[string]any{"reserve_x": "5", "reserve_y": "7", "fee_bps": "30"})
	layout := PoolLayout{ReserveA: "reserve_x", ReserveB: "reserve_y", Fee: "fee_bps", FeeDenominator: 10_000}

	state, err := NewPoolReader(c, layout).ReadPool(context.Background(), "0xb0a1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !state.FeeRate.Equal(decimal.RequireFromString("0.003")) {
		t.Errorf("expected fee rate 0.003, got %s", state.FeeRate)
	}
}

func TestReadPoolMissingField(t *testing.T) {
	c := newFakeClient()
	c.objects["0xb0a1"] = poolObject(map[string]any{"coin_a": "1"})
	if _, err := NewPoolReader(c, PoolLayout{}).ReadPool(context.Background(), "0xb0a1"); err == nil {
		t.Error("expected an error for a missing reserve")
	}
}

func TestReadPoolNotAPool(t *testing.T) {
	c := newFakeClient()
	obj := poolObject(nil)
	obj.Content.Type = "0x2::coin::Coin<0x2::sui::SUI>"
	c.objects["0xb0a1"] = obj
	if _, err := NewPoolReader(c, PoolLayout{}).ReadPool(context.Background(), "0xb0a1"); err == nil {
		t.Error("expected an error for an object with one type parameter")
	}
}
