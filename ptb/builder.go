package ptb

import (
	"fmt"

	"github.com/kbukum/strategykit/strategy"
)

// InputKind says whether an input is a pure value or an object.
type InputKind string

const (
	InputPure   InputKind = "pure"
	InputObject InputKind = "object"
)

// CallArg is one transaction input. Pure inputs carry their BCS bytes;
// object inputs carry only the id, the ledger client resolves version and
// ownership when the transaction is built.
type CallArg struct {
	Kind      InputKind `json:"type"`
	ValueType string    `json:"valueType,omitempty"`
	Value     string    `json:"value,omitempty"`
	Bytes     []byte    `json:"-"`
	ObjectID  string    `json:"objectId,omitempty"`
	Mutable   bool      `json:"mutable,omitempty"`
}

// Builder accumulates inputs and commands. It is not safe for concurrent
// use; each compile owns one.
type Builder struct {
	inputs   []CallArg
	commands []Command
	objects  map[string]uint16
	groups   []Group
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{objects: make(map[string]uint16)}
}

// Len returns the number of commands emitted so far.
func (b *Builder) Len() int { return len(b.commands) }

// Pure adds a pure input of type typ.
func (b *Builder) Pure(typ string, v any) (Argument, error) {
	data, err := EncodePure(typ, v)
	if err != nil {
		return Argument{}, err
	}
	return b.addInput(CallArg{Kind: InputPure, ValueType: typ, Value: displayValue(v), Bytes: data}), nil
}

// PureU64 adds a u64 input.
func (b *Builder) PureU64(v uint64) Argument {
	arg, _ := b.Pure("u64", v)
	return arg
}

// PureBool adds a bool input.
func (b *Builder) PureBool(v bool) Argument {
	arg, _ := b.Pure("bool", v)
	return arg
}

// PureAmount adds a u64 input from a digit string.
func (b *Builder) PureAmount(digits string) (Argument, error) {
	return b.Pure("u64", digits)
}

// Object adds a mutable object input. The same id always maps to the same
// input.
func (b *Builder) Object(id string) (Argument, error) {
	return b.object(id, true)
}

// ImmutableObject adds an object input used by reference only, such as the
// clock. A later mutable use of the same id upgrades it.
func (b *Builder) ImmutableObject(id string) (Argument, error) {
	return b.object(id, false)
}

func (b *Builder) object(id string, mutable bool) (Argument, error) {
	norm, err := strategy.NormalizeAddress(id)
	if err != nil {
		return Argument{}, fmt.Errorf("object id: %w", err)
	}
	if i, ok := b.objects[norm]; ok {
		if mutable {
			b.inputs[i].Mutable = true
		}
		return Input(i), nil
	}
	arg := b.addInput(CallArg{Kind: InputObject, ObjectID: norm, Mutable: mutable})
	b.objects[norm] = arg.Index
	return arg, nil
}

func (b *Builder) addInput(in CallArg) Argument {
	b.inputs = append(b.inputs, in)
	return Input(uint16(len(b.inputs) - 1))
}

func (b *Builder) add(c Command) Argument {
	b.commands = append(b.commands, c)
	return Result(uint16(len(b.commands) - 1))
}

// Call emits a MoveCall. Type arguments are normalised.
func (b *Builder) Call(pkg, module, function string, typeArgs []string, args ...Argument) Argument {
	norm := make([]string, len(typeArgs))
	for i, t := range typeArgs {
		norm[i] = strategy.NormalizeType(t)
	}
	if p, err := strategy.NormalizeAddress(pkg); err == nil {
		pkg = p
	}
	return b.add(MoveCall{Package: pkg, Module: module, Function: function, TypeArguments: norm, Args: args})
}

// CallTarget emits a MoveCall for "package::module::function".
func (b *Builder) CallTarget(target string, typeArgs []string, args ...Argument) (Argument, error) {
	mt, err := strategy.ParseMoveTarget(target)
	if err != nil {
		return Argument{}, err
	}
	return b.Call(mt.Package, mt.Module, mt.Function, typeArgs, args...), nil
}

// SplitCoins emits a SplitCoins; the result holds one coin per amount.
func (b *Builder) SplitCoins(coin Argument, amounts ...Argument) Argument {
	return b.add(SplitCoins{Coin: coin, Amounts: amounts})
}

// MergeCoins emits a MergeCoins into dst.
func (b *Builder) MergeCoins(dst Argument, sources ...Argument) Argument {
	return b.add(MergeCoins{Destination: dst, Sources: sources})
}

// TransferObjects emits a TransferObjects.
func (b *Builder) TransferObjects(objects []Argument, address Argument) Argument {
	return b.add(TransferObjects{Objects: objects, Address: address})
}

// MakeMoveVec emits a MakeMoveVec.
func (b *Builder) MakeMoveVec(elementType string, elements ...Argument) Argument {
	if elementType != "" {
		elementType = strategy.NormalizeType(elementType)
	}
	return b.add(MakeMoveVec{ElementType: elementType, Elements: elements})
}

// Group runs emit and records the commands it added under nodeID. Nothing
// is recorded when emit fails.
func (b *Builder) Group(nodeID, kind string, emit func() error) error {
	start := len(b.commands)
	if err := emit(); err != nil {
		return err
	}
	b.groups = append(b.groups, Group{NodeID: nodeID, Kind: kind, Start: start, End: len(b.commands)})
	return nil
}

// Build returns the finished program. The builder must not be used after.
func (b *Builder) Build() *Program {
	p := &Program{Inputs: b.inputs, Commands: b.commands, Groups: b.groups}
	if p.Inputs == nil {
		p.Inputs = []CallArg{}
	}
	if p.Commands == nil {
		p.Commands = []Command{}
	}
	if p.Groups == nil {
		p.Groups = []Group{}
	}
	return p
}
