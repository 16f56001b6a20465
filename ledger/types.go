package ledger

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// OwnerKind says who owns an object.
type OwnerKind string

const (
	OwnerAddress   OwnerKind = "address"
	OwnerObject    OwnerKind = "object"
	OwnerShared    OwnerKind = "shared"
	OwnerImmutable OwnerKind = "immutable"
)

// Owner is an object's ownership. InitialSharedVersion is set for shared
// objects; Address for address- and object-owned ones.
type Owner struct {
	Kind                 OwnerKind
	Address              string
	InitialSharedVersion uint64
}

// UnmarshalJSON accepts "Immutable", {"AddressOwner": a}, {"ObjectOwner": a}
// and {"Shared": {"initial_shared_version": v}}.
func (o *Owner) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s != "Immutable" {
			return fmt.Errorf("unknown owner %q", s)
		}
		*o = Owner{Kind: OwnerImmutable}
		return nil
	}
	var w struct {
		AddressOwner string `json:"AddressOwner"`
		ObjectOwner  string `json:"ObjectOwner"`
		Shared       *struct {
			InitialSharedVersion Uint64 `json:"initial_shared_version"`
		} `json:"Shared"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	switch {
	case w.Shared != nil:
		*o = Owner{Kind: OwnerShared, InitialSharedVersion: uint64(w.Shared.InitialSharedVersion)}
	case w.AddressOwner != "":
		*o = Owner{Kind: OwnerAddress, Address: w.AddressOwner}
	case w.ObjectOwner != "":
		*o = Owner{Kind: OwnerObject, Address: w.ObjectOwner}
	default:
		return fmt.Errorf("unknown owner %s", data)
	}
	return nil
}

// MarshalJSON writes the same shapes UnmarshalJSON reads.
func (o Owner) MarshalJSON() ([]byte, error) {
	switch o.Kind {
	case OwnerImmutable:
		return json.Marshal("Immutable")
	case OwnerShared:
		return json.Marshal(map[string]any{"Shared": map[string]uint64{"initial_shared_version": o.InitialSharedVersion}})
	case OwnerObject:
		return json.Marshal(map[string]string{"ObjectOwner": o.Address})
	default:
		return json.Marshal(map[string]string{"AddressOwner": o.Address})
	}
}

// Uint64 decodes a u64 sent either as a JSON number or a decimal string.
type Uint64 uint64

func (u *Uint64) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		var n uint64
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("u64: %s", data)
		}
		*u = Uint64(n)
		return nil
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fmt.Errorf("u64: %w", err)
	}
	*u = Uint64(n)
	return nil
}

// ObjectRef pins an object to a version.
type ObjectRef struct {
	ObjectID string `json:"objectId"`
	Version  Uint64 `json:"version"`
	Digest   string `json:"digest"`
}

// Object is the subset of sui_getObject data the client uses.
type Object struct {
	ObjectRef
	Type    string         `json:"type"`
	Owner   Owner          `json:"owner"`
	Content *ObjectContent `json:"content,omitempty"`
}

// ObjectContent is a Move object's type and fields.
type ObjectContent struct {
	DataType string         `json:"dataType"`
	Type     string         `json:"type"`
	Fields   map[string]any `json:"fields"`
}

// Coin is one coin object held by an address.
type Coin struct {
	CoinType     string          `json:"coinType"`
	CoinObjectID string          `json:"coinObjectId"`
	Version      Uint64          `json:"version"`
	Digest       string          `json:"digest"`
	Balance      decimal.Decimal `json:"balance"`
}

// Ref returns the coin's object reference.
func (c Coin) Ref() ObjectRef {
	return ObjectRef{ObjectID: c.CoinObjectID, Version: c.Version, Digest: c.Digest}
}

// GasUsed is the gas summary of an execution.
type GasUsed struct {
	ComputationCost         Uint64 `json:"computationCost"`
	StorageCost             Uint64 `json:"storageCost"`
	StorageRebate           Uint64 `json:"storageRebate"`
	NonRefundableStorageFee Uint64 `json:"nonRefundableStorageFee"`
}

// Net returns computation plus storage minus rebate. It can be negative.
func (g GasUsed) Net() int64 {
	return int64(g.ComputationCost) + int64(g.StorageCost) - int64(g.StorageRebate)
}

// ExecutionStatus is "success" or "failure" with an error message.
type ExecutionStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Effects is the subset of transaction effects the client uses.
type Effects struct {
	Status  ExecutionStatus `json:"status"`
	GasUsed GasUsed         `json:"gasUsed"`
}

// BalanceChange is the net change of one coin type for one owner.
type BalanceChange struct {
	Owner    Owner           `json:"owner"`
	CoinType string          `json:"coinType"`
	Amount   decimal.Decimal `json:"amount"`
}

// ExecutionResult is the outcome of a dry-run or an execution.
type ExecutionResult struct {
	Digest         string          `json:"digest,omitempty"`
	Effects        Effects         `json:"effects"`
	BalanceChanges []BalanceChange `json:"balanceChanges"`
}
