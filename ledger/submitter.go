package ledger

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	apperrors "github.com/kbukum/strategykit/errors"
	"github.com/kbukum/strategykit/logger"
	"github.com/kbukum/strategykit/ptb"
	"github.com/kbukum/strategykit/strategy"
)

// maxGasCoins is the most gas payment objects a transaction may carry.
const maxGasCoins = 256

// StatusSuccess is the execution status of a successful transaction.
const StatusSuccess = "success"

// Report is the outcome of a dry-run or submission.
type Report struct {
	Success        bool            `json:"success"`
	Error          string          `json:"error,omitempty"`
	Digest         string          `json:"digest,omitempty"`
	Sender         string          `json:"sender"`
	GasPrice       uint64          `json:"gas_price"`
	GasBudget      uint64          `json:"gas_budget"`
	GasUsed        GasUsed         `json:"gas_used"`
	NetGas         int64           `json:"net_gas"`
	BalanceChanges []BalanceChange `json:"balance_changes"`
}

// Signer signs transaction bytes for its address. The signature is in
// the ledger's serialized form.
type Signer interface {
	Address() string
	Sign(ctx context.Context, txBytes []byte) (string, error)
}

// Submitter turns compiled programs into transactions and hands them to
// the ledger.
type Submitter struct {
	client Client
	cfg    Config
	log    *logger.Logger
}

// NewSubmitter creates a Submitter. log may be nil.
func NewSubmitter(client Client, cfg Config, log *logger.Logger) *Submitter {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.Nop()
	}
	return &Submitter{client: client, cfg: cfg, log: log.WithComponent("ledger")}
}

// GasPrice returns the reference gas price, raised to the configured
// floor.
func (s *Submitter) GasPrice(ctx context.Context) (uint64, error) {
	ref, err := s.client.ReferenceGasPrice(ctx)
	if err != nil {
		return 0, err
	}
	return max(ref, s.cfg.MinGasPrice), nil
}

// Build binds sender into program, pins every object input and attaches
// gas payment, price and budget. An empty sender falls back to the
// configured one.
func (s *Submitter) Build(ctx context.Context, program *ptb.Program, sender string) (*TransactionData, error) {
	if sender == "" {
		sender = s.cfg.Sender
	}
	if sender == "" {
		return nil, apperrors.InvalidInput("sender", "no sender given and none configured")
	}
	if !strategy.IsObjectID(sender) {
		return nil, apperrors.InvalidInput("sender", fmt.Sprintf("%q is not a hex address", sender))
	}
	if err := program.Check(); err != nil {
		return nil, apperrors.InvalidInput("program", err.Error())
	}

	bound, err := program.BindSender(sender)
	if err != nil {
		return nil, apperrors.InvalidInput("sender", err.Error())
	}
	inputs, used, err := s.resolveInputs(ctx, bound.Inputs)
	if err != nil {
		return nil, err
	}
	price, err := s.GasPrice(ctx)
	if err != nil {
		return nil, err
	}
	payment, err := s.gasPayment(ctx, sender, used)
	if err != nil {
		return nil, err
	}

	return &TransactionData{
		Sender:   sender,
		Inputs:   inputs,
		Commands: bound.Commands,
		Gas:      GasData{Payment: payment, Owner: sender, Price: price, Budget: s.cfg.GasBudget},
	}, nil
}

// resolveInputs pins object inputs to their current version or shared
// version. It also returns the ids of every object used.
func (s *Submitter) resolveInputs(ctx context.Context, args []ptb.CallArg) ([]Input, map[string]bool, error) {
	inputs := make([]Input, len(args))
	used := make(map[string]bool)
	for i, arg := range args {
		if arg.Kind == ptb.InputPure {
			inputs[i] = Input{Pure: arg.Bytes}
			continue
		}
		obj, err := s.client.GetObject(ctx, arg.ObjectID)
		if err != nil {
			return nil, nil, err
		}
		id, err := strategy.NormalizeAddress(arg.ObjectID)
		if err != nil {
			return nil, nil, apperrors.InvalidInput("object_id", err.Error())
		}
		used[id] = true
		in := &ObjectInput{Ref: obj.ObjectRef, Mutable: arg.Mutable}
		if obj.Owner.Kind == OwnerShared {
			in.Shared = true
			in.InitialSharedVersion = obj.Owner.InitialSharedVersion
			in.Ref.ObjectID = arg.ObjectID
		}
		inputs[i] = Input{Object: in}
	}
	return inputs, used, nil
}

// gasPayment picks the sender's largest SUI coins until they cover the
// budget. Coins already used as inputs are skipped.
func (s *Submitter) gasPayment(ctx context.Context, sender string, used map[string]bool) ([]ObjectRef, error) {
	coins, err := s.client.GetCoins(ctx, sender, strategy.CoinSUI)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(coins, func(i, j int) bool { return coins[i].Balance.GreaterThan(coins[j].Balance) })

	budget := decimal.NewFromInt(int64(s.cfg.GasBudget))
	total := decimal.Zero
	var refs []ObjectRef
	for _, c := range coins {
		if id, err := strategy.NormalizeAddress(c.CoinObjectID); err == nil && used[id] {
			continue
		}
		refs = append(refs, c.Ref())
		total = total.Add(c.Balance)
		if total.GreaterThanOrEqual(budget) || len(refs) == maxGasCoins {
			break
		}
	}
	if total.LessThan(budget) {
		return nil, apperrors.InvalidInput("sender",
			fmt.Sprintf("%s holds %s MIST for gas, budget is %s", sender, total, budget))
	}
	return refs, nil
}

// Simulate dry-runs program as sender. A transaction the ledger would
// abort is reported with Success false, not as an error.
func (s *Submitter) Simulate(ctx context.Context, program *ptb.Program, sender string) (*Report, error) {
	tx, err := s.Build(ctx, program, sender)
	if err != nil {
		return nil, err
	}
	raw, err := tx.Marshal()
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	res, err := s.client.DryRun(ctx, raw)
	if err != nil {
		return nil, err
	}
	report := newReport(tx, res)
	s.log.Info("dry-run finished", logger.Fields(
		"success", report.Success,
		"net_gas", report.NetGas,
		logger.FieldCommands, len(tx.Commands),
	))
	return report, nil
}

// Submit signs and executes program. A transaction the ledger aborts is
// returned with its report and a LEDGER_REJECTED error.
func (s *Submitter) Submit(ctx context.Context, program *ptb.Program, signer Signer) (*Report, error) {
	tx, err := s.Build(ctx, program, signer.Address())
	if err != nil {
		return nil, err
	}
	raw, err := tx.Marshal()
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	sig, err := signer.Sign(ctx, raw)
	if err != nil {
		return nil, apperrors.InvalidInput("signature", err.Error())
	}
	res, err := s.client.Execute(ctx, raw, []string{sig})
	if err != nil {
		return nil, err
	}
	report := newReport(tx, res)
	s.log.Info("transaction executed", logger.Fields(
		logger.FieldDigest, report.Digest,
		"success", report.Success,
		"net_gas", report.NetGas,
	))
	if !report.Success {
		return report, apperrors.LedgerRejected(report.Error).WithDetail("digest", report.Digest)
	}
	return report, nil
}

func newReport(tx *TransactionData, res *ExecutionResult) *Report {
	changes := res.BalanceChanges
	if changes == nil {
		changes = []BalanceChange{}
	}
	return &Report{
		Success:        res.Effects.Status.Status == StatusSuccess,
		Error:          res.Effects.Status.Error,
		Digest:         res.Digest,
		Sender:         tx.Sender,
		GasPrice:       tx.Gas.Price,
		GasBudget:      tx.Gas.Budget,
		GasUsed:        res.Effects.GasUsed,
		NetGas:         res.Effects.GasUsed.Net(),
		BalanceChanges: changes,
	}
}
