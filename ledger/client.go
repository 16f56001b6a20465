package ledger

import (
	"context"
	"encoding/base64"
	"fmt"

	apperrors "github.com/kbukum/strategykit/errors"
	"github.com/kbukum/strategykit/observability"
)

// RPC method names.
const (
	MethodReferenceGasPrice = "suix_getReferenceGasPrice"
	MethodDryRun            = "sui_dryRunTransactionBlock"
	MethodExecute           = "sui_executeTransactionBlock"
	MethodGetObject         = "sui_getObject"
	MethodGetCoins          = "suix_getCoins"
)

// Client is what the submitter and pool reader need from a full node.
type Client interface {
	ReferenceGasPrice(ctx context.Context) (uint64, error)
	GetObject(ctx context.Context, id string) (*Object, error)
	GetCoins(ctx context.Context, owner, coinType string) ([]Coin, error)
	DryRun(ctx context.Context, txBytes []byte) (*ExecutionResult, error)
	Execute(ctx context.Context, txBytes []byte, signatures []string) (*ExecutionResult, error)
}

var (
	_ Client                      = (*RPC)(nil)
	_ observability.HealthChecker = (*RPC)(nil)
)

// ReferenceGasPrice returns the current epoch's reference gas price.
func (r *RPC) ReferenceGasPrice(ctx context.Context) (uint64, error) {
	var price Uint64
	if err := r.Call(ctx, MethodReferenceGasPrice, nil, &price); err != nil {
		return 0, err
	}
	return uint64(price), nil
}

// GetObject reads an object with its type, owner and content.
func (r *RPC) GetObject(ctx context.Context, id string) (*Object, error) {
	var resp struct {
		Data  *Object `json:"data"`
		Error *struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	opts := map[string]bool{"showType": true, "showOwner": true, "showContent": true}
	if err := r.Call(ctx, MethodGetObject, []any{id, opts}, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		code := "notExists"
		if resp.Error != nil {
			code = resp.Error.Code
		}
		return nil, apperrors.NotFound("object", id).WithDetail("reason", code)
	}
	return resp.Data, nil
}

// GetCoins lists every coin of coinType held by owner, following pages.
func (r *RPC) GetCoins(ctx context.Context, owner, coinType string) ([]Coin, error) {
	var (
		coins  []Coin
		cursor any
	)
	for {
		var page struct {
			Data        []Coin  `json:"data"`
			NextCursor  *string `json:"nextCursor"`
			HasNextPage bool    `json:"hasNextPage"`
		}
		if err := r.Call(ctx, MethodGetCoins, []any{owner, coinType, cursor, nil}, &page); err != nil {
			return nil, err
		}
		coins = append(coins, page.Data...)
		if !page.HasNextPage || page.NextCursor == nil {
			return coins, nil
		}
		cursor = *page.NextCursor
	}
}

// DryRun executes txBytes without committing.
func (r *RPC) DryRun(ctx context.Context, txBytes []byte) (*ExecutionResult, error) {
	var res ExecutionResult
	if err := r.Call(ctx, MethodDryRun, []any{base64.StdEncoding.EncodeToString(txBytes)}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Execute submits signed txBytes and waits for local execution.
func (r *RPC) Execute(ctx context.Context, txBytes []byte, signatures []string) (*ExecutionResult, error) {
	if len(signatures) == 0 {
		return nil, apperrors.InvalidInput("signatures", "at least one signature is required")
	}
	opts := map[string]bool{"showEffects": true, "showBalanceChanges": true}
	params := []any{base64.StdEncoding.EncodeToString(txBytes), signatures, opts, "WaitForLocalExecution"}
	var res ExecutionResult
	if err := r.Call(ctx, MethodExecute, params, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// CheckHealth reports the node reachable when a gas price can be read.
func (r *RPC) CheckHealth(ctx context.Context) observability.Health {
	h := observability.Health{Name: service, Status: observability.HealthStatusUp}
	if !r.Available() {
		h.Status = observability.HealthStatusDegraded
		h.Message = "circuit open"
		return h
	}
	price, err := r.ReferenceGasPrice(ctx)
	if err != nil {
		h.Status = observability.HealthStatusDown
		h.Message = err.Error()
		return h
	}
	h.Details = map[string]string{"reference_gas_price": fmt.Sprint(price)}
	return h
}
