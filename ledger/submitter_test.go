package ledger

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	apperrors "github.com/kbukum/strategykit/errors"
	"github.com/kbukum/strategykit/ptb"
	"github.com/kbukum/strategykit/strategy"
)

const sender = "0x5e"

type fakeClient struct {
	gasPrice uint64
	objects  map[string]*Object
	coins    []Coin
	result   *ExecutionResult
	dryRuns  [][]byte
	executed [][]byte
	sigs     []string
}

func (f *fakeClient) ReferenceGasPrice(context.Context) (uint64, error) { return f.gasPrice, nil }

func (f *fakeClient) GetObject(_ context.Context, id string) (*Object, error) {
	want, _ := strategy.NormalizeAddress(id)
	for k, obj := range f.objects {
		if got, _ := strategy.NormalizeAddress(k); got == want {
			return obj, nil
		}
	}
	return nil, apperrors.NotFound("object", id)
}

func (f *fakeClient) GetCoins(context.Context, string, string) ([]Coin, error) { return f.coins, nil }

func (f *fakeClient) DryRun(_ context.Context, txBytes []byte) (*ExecutionResult, error) {
	f.dryRuns = append(f.dryRuns, txBytes)
	return f.result, nil
}

func (f *fakeClient) Execute(_ context.Context, txBytes []byte, sigs []string) (*ExecutionResult, error) {
	f.executed = append(f.executed, txBytes)
	f.sigs = append(f.sigs, sigs...)
	return f.result, nil
}

type fakeSigner struct{ err error }

func (fakeSigner) Address() string { return sender }

func (s fakeSigner) Sign(context.Context, []byte) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "c2lnbmF0dXJl", nil
}

func digest(b byte) string { return encodeBase58(bytes.Repeat([]byte{b}, 32)) }

func newFakeClient() *fakeClient {
	return &fakeClient{
		gasPrice: 750,
		objects: map[string]*Object{
			"0xb0a1": {
				ObjectRef: ObjectRef{ObjectID: "0xb0a1", Version: 40, Digest: digest(4)},
				Owner:     Owner{Kind: OwnerShared, InitialSharedVersion: 3},
			},
			"0xcafe": {
				ObjectRef: ObjectRef{ObjectID: "0xcafe", Version: 12, Digest: digest(5)},
				Owner:     Owner{Kind: OwnerAddress, Address: sender},
			},
		},
		coins: []Coin{
			{CoinObjectID: "0xc1", Version: 1, Digest: digest(1), Balance: decimal.NewFromInt(10_000_000)},
			{CoinObjectID: "0xc2", Version: 2, Digest: digest(2), Balance: decimal.NewFromInt(60_000_000)},
		},
		result: &ExecutionResult{
			Digest: "tx1",
			Effects: Effects{
				Status:  ExecutionStatus{Status: StatusSuccess},
				GasUsed: GasUsed{ComputationCost: 1000, StorageCost: 3000, StorageRebate: 500},
			},
			BalanceChanges: []BalanceChange{
				{Owner: Owner{Kind: OwnerAddress, Address: sender}, CoinType: strategy.CoinSUI, Amount: decimal.NewFromInt(-3500)},
			},
		},
	}
}

// program splits 100 off the gas coin, touches a shared pool and an owned
// object, and sends the new coin to the sender.
func program(t *testing.T) *ptb.Program {
	t.Helper()
	tx := ptb.NewBuilder()
	pool, err := tx.Object("0xb0a1")
	if err != nil {
		t.Fatal(err)
	}
	owned, err := tx.Object("0xcafe")
	if err != nil {
		t.Fatal(err)
	}
	r := tx.SplitCoins(ptb.GasCoin(), tx.PureU64(100))
	tx.Call("0xcc", "pool", "touch", nil, pool, owned)
	tx.TransferObjects([]ptb.Argument{r.Nested(0)}, ptb.Sender())
	return tx.Build()
}

func TestGasPriceFloor(t *testing.T) {
	c := newFakeClient()
	s := NewSubmitter(c, Config{MinGasPrice: 1000}, nil)

	price, err := s.GasPrice(context.Background())
	if err != nil || price != 1000 {
		t.Errorf("expected the floor 1000, got %d, %v", price, err)
	}
	c.gasPrice = 1500
	if price, _ := s.GasPrice(context.Background()); price != 1500 {
		t.Errorf("expected the reference price 1500, got %d", price)
	}
}

func TestBuildPinsObjectsAndGas(t *testing.T) {
	s := NewSubmitter(newFakeClient(), Config{GasBudget: 50_000_000}, nil)
	tx, err := s.Build(context.Background(), program(t), sender)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(tx.Inputs) != 4 {
		t.Fatalf("expected 4 inputs including the bound sender, got %d", len(tx.Inputs))
	}
	pool := tx.Inputs[0].Object
	if pool == nil || !pool.Shared || pool.InitialSharedVersion != 3 || !pool.Mutable {
		t.Errorf("expected a mutable shared pool at version 3, got %+v", pool)
	}
	owned := tx.Inputs[1].Object
	if owned == nil || owned.Shared || owned.Ref.Version != 12 {
		t.Errorf("expected an owned ref at version 12, got %+v", owned)
	}
	if tx.Inputs[3].Object != nil || len(tx.Inputs[3].Pure) != 32 {
		t.Errorf("expected the sender as a pure address, got %+v", tx.Inputs[3])
	}

	// the larger coin alone covers the budget
	if len(tx.Gas.Payment) != 1 || tx.Gas.Payment[0].ObjectID != "0xc2" {
		t.Errorf("expected payment from 0xc2, got %+v", tx.Gas.Payment)
	}
	if tx.Gas.Price != DefaultMinGasPrice || tx.Gas.Budget != 50_000_000 || tx.Gas.Owner != sender {
		t.Errorf("unexpected gas data %+v", tx.Gas)
	}
	if _, err := tx.Marshal(); err != nil {
		t.Errorf("expected the transaction to serialise, got %v", err)
	}
}

func TestBuildNeedsSender(t *testing.T) {
	s := NewSubmitter(newFakeClient(), Config{}, nil)
	_, err := s.Build(context.Background(), program(t), "")
	if !apperrors.HasCode(err, apperrors.ErrCodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}
}

func TestBuildInsufficientGas(t *testing.T) {
	c := newFakeClient()
	c.coins = c.coins[:1]
	s := NewSubmitter(c, Config{GasBudget: 50_000_000}, nil)
	_, err := s.Build(context.Background(), program(t), sender)
	if !apperrors.HasCode(err, apperrors.ErrCodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}
}

func TestBuildSkipsCoinsUsedAsInputs(t *testing.T) {
	c := newFakeClient()
	c.objects["0xc2"] = &Object{
		ObjectRef: ObjectRef{ObjectID: "0xc2", Version: 2, Digest: digest(2)},
		Owner:     Owner{Kind: OwnerAddress, Address: sender},
	}
	tx := ptb.NewBuilder()
	coin, _ := tx.Object("0xc2")
	tx.TransferObjects([]ptb.Argument{coin}, ptb.Sender())

	s := NewSubmitter(c, Config{GasBudget: 5_000_000}, nil)
	data, err := s.Build(context.Background(), tx.Build(), sender)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(data.Gas.Payment) != 1 || data.Gas.Payment[0].ObjectID != "0xc1" {
		t.Errorf("expected payment from 0xc1 only, got %+v", data.Gas.Payment)
	}
}

func TestSimulate(t *testing.T) {
	c := newFakeClient()
	s := NewSubmitter(c, Config{Sender: sender}, nil)
	report, err := s.Simulate(context.Background(), program(t), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !report.Success || report.Sender != sender {
		t.Errorf("unexpected report %+v", report)
	}
	if report.NetGas != 3500 {
		t.Errorf("expected net gas 3500, got %d", report.NetGas)
	}
	if len(report.BalanceChanges) != 1 || !report.BalanceChanges[0].Amount.Equal(decimal.NewFromInt(-3500)) {
		t.Errorf("unexpected balance changes %+v", report.BalanceChanges)
	}
	if len(c.dryRuns) != 1 || len(c.dryRuns[0]) == 0 {
		t.Errorf("expected one dry-run with bytes, got %d", len(c.dryRuns))
	}
}

func TestSimulateFailureIsAReport(t *testing.T) {
	c := newFakeClient()
	c.result.Effects.Status = ExecutionStatus{Status: "failure", Error: "MoveAbort(repay, 3)"}
	report, err := NewSubmitter(c, Config{}, nil).Simulate(context.Background(), program(t), sender)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Success || report.Error == "" {
		t.Errorf("expected a failed report, got %+v", report)
	}
}

func TestSubmit(t *testing.T) {
	c := newFakeClient()
	report, err := NewSubmitter(c, Config{}, nil).Submit(context.Background(), program(t), fakeSigner{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Digest != "tx1" || len(c.sigs) != 1 {
		t.Errorf("unexpected report %+v, sigs %v", report, c.sigs)
	}
}

func TestSubmitRejected(t *testing.T) {
	c := newFakeClient()
	c.result.Effects.Status = ExecutionStatus{Status: "failure", Error: "InsufficientGas"}
	report, err := NewSubmitter(c, Config{}, nil).Submit(context.Background(), program(t), fakeSigner{})
	if !apperrors.HasCode(err, apperrors.ErrCodeLedgerRejected) {
		t.Fatalf("expected LEDGER_REJECTED, got %v", err)
	}
	if report == nil || report.Success {
		t.Errorf("expected the failed report alongside the error, got %+v", report)
	}
}

func TestSubmitSignerFailure(t *testing.T) {
	c := newFakeClient()
	_, err := NewSubmitter(c, Config{}, nil).Submit(context.Background(), program(t), fakeSigner{err: errors.New("locked")})
	if err == nil {
		t.Fatal("expected an error")
	}
	if len(c.executed) != 0 {
		t.Error("expected nothing to be executed")
	}
}
