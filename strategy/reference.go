package strategy

import (
	"fmt"
	"strconv"
	"strings"
)

// Sentinel references.
const (
	// RefGas names the transaction's gas coin.
	RefGas = "GAS"
	// RefAll means "everything available upstream". It is only meaningful
	// as a swap amount.
	RefAll = "ALL"
)

// Reference points at a slot produced by an earlier node, or at the gas coin.
type Reference struct {
	Node   string
	Output string
	Gas    bool
}

// ParseReference parses "node.output" or "GAS". "ALL" is not a slot and is
// rejected here; callers that accept it check for it first.
func ParseReference(s string) (Reference, error) {
	switch s {
	case RefGas:
		return Reference{Gas: true}, nil
	case RefAll:
		return Reference{}, fmt.Errorf("%q is an amount sentinel, not a slot reference", s)
	case "":
		return Reference{}, fmt.Errorf("empty reference")
	}
	i := strings.LastIndexByte(s, '.')
	if i <= 0 || i == len(s)-1 {
		return Reference{}, fmt.Errorf("reference %q must have the form node.output", s)
	}
	return Reference{Node: s[:i], Output: s[i+1:]}, nil
}

// String returns the wire form.
func (r Reference) String() string {
	if r.Gas {
		return RefGas
	}
	return r.Node + "." + r.Output
}

// ArgumentSlot names the i-th call argument as a consumption slot.
func ArgumentSlot(i int) string {
	return "arguments[" + strconv.Itoa(i) + "]"
}
