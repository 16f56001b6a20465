package ptb

import (
	"encoding/json"
	"fmt"
)

// ArgumentKind selects what an Argument refers to.
type ArgumentKind uint8

const (
	ArgGasCoin ArgumentKind = iota
	ArgInput
	ArgResult
	ArgNestedResult
	// ArgSender is a placeholder for the sender address, bound by
	// Program.BindSender before serialisation.
	ArgSender
)

// Argument refers to a transaction input, a command result, the gas coin or
// the sender.
type Argument struct {
	Kind  ArgumentKind
	Index uint16
	Sub   uint16
}

// GasCoin refers to the transaction's gas coin.
func GasCoin() Argument { return Argument{Kind: ArgGasCoin} }

// Input refers to input i.
func Input(i uint16) Argument { return Argument{Kind: ArgInput, Index: i} }

// Result refers to the whole result of command i.
func Result(i uint16) Argument { return Argument{Kind: ArgResult, Index: i} }

// NestedResult refers to value j of the tuple returned by command i.
func NestedResult(i, j uint16) Argument { return Argument{Kind: ArgNestedResult, Index: i, Sub: j} }

// Sender refers to the sender address.
func Sender() Argument { return Argument{Kind: ArgSender} }

// Nested returns value j of a command result. It panics when a is not a
// Result; that is a programming error in the caller.
func (a Argument) Nested(j uint16) Argument {
	if a.Kind != ArgResult {
		panic(fmt.Sprintf("ptb: Nested on %s", a))
	}
	return NestedResult(a.Index, j)
}

func (a Argument) String() string {
	switch a.Kind {
	case ArgGasCoin:
		return "GasCoin"
	case ArgInput:
		return fmt.Sprintf("Input(%d)", a.Index)
	case ArgResult:
		return fmt.Sprintf("Result(%d)", a.Index)
	case ArgNestedResult:
		return fmt.Sprintf("NestedResult(%d,%d)", a.Index, a.Sub)
	case ArgSender:
		return "Sender"
	default:
		return fmt.Sprintf("Argument(%d)", a.Kind)
	}
}

// MarshalJSON renders "GasCoin", {"Input":0}, {"Result":1},
// {"NestedResult":[1,0]} or "Sender".
func (a Argument) MarshalJSON() ([]byte, error) {
	switch a.Kind {
	case ArgGasCoin:
		return json.Marshal("GasCoin")
	case ArgSender:
		return json.Marshal("Sender")
	case ArgInput:
		return json.Marshal(map[string]uint16{"Input": a.Index})
	case ArgResult:
		return json.Marshal(map[string]uint16{"Result": a.Index})
	case ArgNestedResult:
		return json.Marshal(map[string][2]uint16{"NestedResult": {a.Index, a.Sub}})
	default:
		return nil, fmt.Errorf("ptb: unknown argument kind %d", a.Kind)
	}
}
