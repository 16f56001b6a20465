package strategy

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// DefaultSlippageBps applies when a swap does not set slippage_bps.
const DefaultSlippageBps = 50

// BorrowParams are the parameters of a borrow node.
type BorrowParams struct {
	Asset  string `mapstructure:"asset" json:"asset" validate:"required,move_type"`
	Amount string `mapstructure:"amount" json:"amount" validate:"required,amount"`
}

// RepayParams are the parameters of a repay node. The coin to repay from
// and the receipt arrive through the "coin" and "receipt" inputs.
type RepayParams struct {
	Asset string `mapstructure:"asset" json:"asset" validate:"required,move_type"`
}

// Repay input names.
const (
	InputCoin    = "coin"
	InputReceipt = "receipt"
	InputTarget  = "target"
)

// SwapParams are the parameters of a swap node. Amount is a digit string
// or RefAll.
type SwapParams struct {
	Pool        string `mapstructure:"pool" json:"pool" validate:"required,object_id"`
	CoinTypeIn  string `mapstructure:"coin_type_in" json:"coin_type_in" validate:"required,move_type"`
	CoinTypeOut string `mapstructure:"coin_type_out" json:"coin_type_out" validate:"required,move_type,nefield=CoinTypeIn"`
	Amount      string `mapstructure:"amount" json:"amount" validate:"required,amount_or_all"`
	SlippageBps *int   `mapstructure:"slippage_bps" json:"slippage_bps,omitempty" validate:"omitempty,min=0,max=10000"`
}

// UsesAll reports whether the swap spends its whole input.
func (p SwapParams) UsesAll() bool { return p.Amount == RefAll }

// Slippage returns the configured slippage in basis points.
func (p SwapParams) Slippage() int {
	if p.SlippageBps == nil {
		return DefaultSlippageBps
	}
	return *p.SlippageBps
}

// SplitParams are the parameters of a split node. One output is produced
// per amount, by position.
type SplitParams struct {
	Amounts []string `mapstructure:"amounts" json:"amounts" validate:"required,min=1,dive,amount"`
}

// ArgKind says how a call argument is supplied.
type ArgKind string

const (
	ArgPure   ArgKind = "pure"
	ArgObject ArgKind = "object"
	ArgRef    ArgKind = "ref"
	ArgVector ArgKind = "vector"
)

// CallArgument is one argument of an arbitrary call.
//
//   - pure: Value encoded as Type (bool, u8..u256, address, string).
//   - object: ObjectID passed by reference.
//   - ref: a cached slot named by Ref.
//   - vector: the slot named by Ref wrapped in a one-element vector<ElementType>.
type CallArgument struct {
	Kind        ArgKind `mapstructure:"kind" json:"kind" validate:"required,oneof=pure object ref vector"`
	Value       any     `mapstructure:"value" json:"value,omitempty"`
	Type        string  `mapstructure:"type" json:"type,omitempty"`
	ObjectID    string  `mapstructure:"object_id" json:"object_id,omitempty"`
	Ref         string  `mapstructure:"ref" json:"ref,omitempty"`
	ElementType string  `mapstructure:"element_type" json:"element_type,omitempty"`
}

// CallParams are the parameters of a call node.
type CallParams struct {
	Target        string         `mapstructure:"target" json:"target" validate:"required,move_target"`
	TypeArguments []string       `mapstructure:"type_arguments" json:"type_arguments,omitempty" validate:"dive,move_type"`
	Arguments     []CallArgument `mapstructure:"arguments" json:"arguments,omitempty" validate:"dive"`
}

// DecodeParams decodes a node's raw parameter map into T. Unknown keys and
// mistyped values are errors.
func DecodeParams[T any](params map[string]any) (T, error) {
	var out T
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &out,
		ErrorUnused: true,
		TagName:     "mapstructure",
	})
	if err != nil {
		return out, err
	}
	if err := dec.Decode(params); err != nil {
		return out, err
	}
	return out, nil
}

// TypedParams decodes n.Params into the parameter struct for n.Kind.
func (n *Node) TypedParams() (any, error) {
	switch n.Kind {
	case KindBorrow:
		return DecodeParams[BorrowParams](n.Params)
	case KindRepay:
		return DecodeParams[RepayParams](n.Params)
	case KindSwap:
		return DecodeParams[SwapParams](n.Params)
	case KindSplit:
		return DecodeParams[SplitParams](n.Params)
	case KindCall:
		return DecodeParams[CallParams](n.Params)
	case KindMerge:
		if len(n.Params) > 0 {
			return nil, fmt.Errorf("merge takes no parameters")
		}
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown node kind %q", n.Kind)
	}
}
