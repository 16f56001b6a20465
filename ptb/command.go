package ptb

import "encoding/json"

// Command is one atomic instruction. The concrete types are MoveCall,
// SplitCoins, MergeCoins, TransferObjects and MakeMoveVec.
type Command interface {
	// Name is the command's variant name.
	Name() string
	// Arguments lists every argument the command reads.
	Arguments() []Argument
	command()
}

// MoveCall calls package::module::function.
type MoveCall struct {
	Package       string     `json:"package"`
	Module        string     `json:"module"`
	Function      string     `json:"function"`
	TypeArguments []string   `json:"type_arguments"`
	Args          []Argument `json:"arguments"`
}

// SplitCoins splits Amounts off Coin, producing one coin per amount.
type SplitCoins struct {
	Coin    Argument
	Amounts []Argument
}

// MergeCoins folds Sources into Destination.
type MergeCoins struct {
	Destination Argument
	Sources     []Argument
}

// TransferObjects sends Objects to Address.
type TransferObjects struct {
	Objects []Argument
	Address Argument
}

// MakeMoveVec builds a vector<ElementType> from Elements. ElementType may
// be empty when the elements are objects.
type MakeMoveVec struct {
	ElementType string
	Elements    []Argument
}

func (MoveCall) Name() string        { return "MoveCall" }
func (SplitCoins) Name() string      { return "SplitCoins" }
func (MergeCoins) Name() string      { return "MergeCoins" }
func (TransferObjects) Name() string { return "TransferObjects" }
func (MakeMoveVec) Name() string     { return "MakeMoveVec" }

func (c MoveCall) Arguments() []Argument { return c.Args }
func (c SplitCoins) Arguments() []Argument {
	return append([]Argument{c.Coin}, c.Amounts...)
}
func (c MergeCoins) Arguments() []Argument {
	return append([]Argument{c.Destination}, c.Sources...)
}
func (c TransferObjects) Arguments() []Argument {
	return append(append([]Argument{}, c.Objects...), c.Address)
}
func (c MakeMoveVec) Arguments() []Argument { return c.Elements }

func (MoveCall) command()        {}
func (SplitCoins) command()      {}
func (MergeCoins) command()      {}
func (TransferObjects) command() {}
func (MakeMoveVec) command()     {}

// Target returns "package::module::function".
func (c MoveCall) Target() string {
	return c.Package + "::" + c.Module + "::" + c.Function
}

func (c MoveCall) MarshalJSON() ([]byte, error) {
	type plain MoveCall
	p := plain(c)
	if p.TypeArguments == nil {
		p.TypeArguments = []string{}
	}
	if p.Args == nil {
		p.Args = []Argument{}
	}
	return json.Marshal(map[string]plain{"MoveCall": p})
}

func (c SplitCoins) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string][2]any{"SplitCoins": {c.Coin, nonNil(c.Amounts)}})
}

func (c MergeCoins) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string][2]any{"MergeCoins": {c.Destination, nonNil(c.Sources)}})
}

func (c TransferObjects) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string][2]any{"TransferObjects": {nonNil(c.Objects), c.Address}})
}

func (c MakeMoveVec) MarshalJSON() ([]byte, error) {
	var typ any
	if c.ElementType != "" {
		typ = c.ElementType
	}
	return json.Marshal(map[string][2]any{"MakeMoveVec": {typ, nonNil(c.Elements)}})
}

func nonNil(args []Argument) []Argument {
	if args == nil {
		return []Argument{}
	}
	return args
}
