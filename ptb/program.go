package ptb

import (
	"fmt"
)

// Group is the half-open range [Start, End) of commands emitted for one
// node.
type Group struct {
	NodeID string `json:"node_id"`
	Kind   string `json:"kind"`
	Start  int    `json:"start"`
	End    int    `json:"end"`
}

// Size returns the number of commands in the group.
func (g Group) Size() int { return g.End - g.Start }

// Program is a compiled, atomic command sequence.
type Program struct {
	Inputs   []CallArg `json:"inputs"`
	Commands []Command `json:"commands"`
	Groups   []Group   `json:"groups"`
}

// GroupSizes returns the command count per node, in execution order.
func (p *Program) GroupSizes() []int {
	sizes := make([]int, len(p.Groups))
	for i, g := range p.Groups {
		sizes[i] = g.Size()
	}
	return sizes
}

// Check verifies that every argument points at an existing input or at an
// earlier command.
func (p *Program) Check() error {
	for ci, c := range p.Commands {
		for _, a := range c.Arguments() {
			switch a.Kind {
			case ArgInput:
				if int(a.Index) >= len(p.Inputs) {
					return fmt.Errorf("command %d (%s) uses %s but there are %d inputs", ci, c.Name(), a, len(p.Inputs))
				}
			case ArgResult, ArgNestedResult:
				if int(a.Index) >= ci {
					return fmt.Errorf("command %d (%s) uses %s before it exists", ci, c.Name(), a)
				}
			}
		}
	}
	return nil
}

// UsesSender reports whether any command refers to the sender placeholder.
func (p *Program) UsesSender() bool {
	for _, c := range p.Commands {
		for _, a := range c.Arguments() {
			if a.Kind == ArgSender {
				return true
			}
		}
	}
	return false
}

// BindSender returns a copy of p in which the sender placeholder is replaced
// by a pure address input.
func (p *Program) BindSender(address string) (*Program, error) {
	out := &Program{
		Inputs:   append([]CallArg{}, p.Inputs...),
		Commands: make([]Command, len(p.Commands)),
		Groups:   append([]Group{}, p.Groups...),
	}
	copy(out.Commands, p.Commands)
	if !p.UsesSender() {
		return out, nil
	}

	data, err := EncodePure("address", address)
	if err != nil {
		return nil, fmt.Errorf("sender: %w", err)
	}
	out.Inputs = append(out.Inputs, CallArg{Kind: InputPure, ValueType: "address", Value: address, Bytes: data})
	sender := Input(uint16(len(out.Inputs) - 1))
	bind := func(args []Argument) []Argument {
		res := make([]Argument, len(args))
		for i, a := range args {
			if a.Kind == ArgSender {
				a = sender
			}
			res[i] = a
		}
		return res
	}
	bindOne := func(a Argument) Argument { return bind([]Argument{a})[0] }

	for i, c := range out.Commands {
		switch c := c.(type) {
		case MoveCall:
			c.Args = bind(c.Args)
			out.Commands[i] = c
		case SplitCoins:
			out.Commands[i] = SplitCoins{Coin: bindOne(c.Coin), Amounts: bind(c.Amounts)}
		case MergeCoins:
			out.Commands[i] = MergeCoins{Destination: bindOne(c.Destination), Sources: bind(c.Sources)}
		case TransferObjects:
			out.Commands[i] = TransferObjects{Objects: bind(c.Objects), Address: bindOne(c.Address)}
		case MakeMoveVec:
			out.Commands[i] = MakeMoveVec{ElementType: c.ElementType, Elements: bind(c.Elements)}
		}
	}
	return out, nil
}
