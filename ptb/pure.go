package ptb

import (
	"encoding/hex"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/kbukum/strategykit/ptb/bcs"
)

// PureTypes lists the value types accepted for pure inputs.
var PureTypes = []string{
	"bool", "u8", "u16", "u32", "u64", "u128", "u256", "address", "string", "vector<u8>",
}

// IsPureType reports whether typ can be passed as a pure input.
func IsPureType(typ string) bool {
	for _, t := range PureTypes {
		if t == typ {
			return true
		}
	}
	return false
}

var uintBits = map[string]int{"u8": 8, "u16": 16, "u32": 32, "u64": 64, "u128": 128, "u256": 256}

// EncodePure BCS-encodes v as typ. Integers may be given as digit strings
// or integral numbers; addresses as hex; vector<u8> as 0x-hex or a list of
// byte values.
func EncodePure(typ string, v any) ([]byte, error) {
	var w bcs.Writer
	switch typ {
	case "bool":
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("bool value must be true or false, got %T", v)
		}
		w.Bool(b)
	case "u8", "u16", "u32", "u64", "u128", "u256":
		n, err := toBigUint(v)
		if err != nil {
			return nil, fmt.Errorf("%s value: %w", typ, err)
		}
		bits := uintBits[typ]
		if n.BitLen() > bits {
			return nil, fmt.Errorf("%s value %s out of range", typ, n)
		}
		if err := w.BigUint(n, bits/8); err != nil {
			return nil, err
		}
	case "address":
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("address value must be a hex string, got %T", v)
		}
		if err := w.Address(s); err != nil {
			return nil, err
		}
	case "string":
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("string value must be a string, got %T", v)
		}
		w.String(s)
	case "vector<u8>":
		b, err := toBytes(v)
		if err != nil {
			return nil, err
		}
		w.ByteVector(b)
	default:
		return nil, fmt.Errorf("unsupported pure type %q", typ)
	}
	return w.Bytes(), nil
}

func toBigUint(v any) (*big.Int, error) {
	switch x := v.(type) {
	case string:
		if x == "" || strings.TrimLeft(x, "0123456789") != "" {
			return nil, fmt.Errorf("%q is not a string of digits", x)
		}
		n, _ := new(big.Int).SetString(x, 10)
		return n, nil
	case int:
		if x < 0 {
			return nil, fmt.Errorf("negative value %d", x)
		}
		return big.NewInt(int64(x)), nil
	case int64:
		if x < 0 {
			return nil, fmt.Errorf("negative value %d", x)
		}
		return big.NewInt(x), nil
	case uint64:
		return new(big.Int).SetUint64(x), nil
	case float64:
		if x < 0 || x != math.Trunc(x) || x > 1<<53 {
			return nil, fmt.Errorf("%v is not an exact non-negative integer; use a digit string", x)
		}
		return big.NewInt(int64(x)), nil
	default:
		return nil, fmt.Errorf("unsupported integer value of type %T", v)
	}
}

func toBytes(v any) ([]byte, error) {
	switch x := v.(type) {
	case string:
		if !strings.HasPrefix(x, "0x") {
			return nil, fmt.Errorf("vector<u8> string must be 0x-prefixed hex")
		}
		return hex.DecodeString(x[2:])
	case []any:
		out := make([]byte, len(x))
		for i, e := range x {
			n, err := toBigUint(e)
			if err != nil || n.BitLen() > 8 {
				return nil, fmt.Errorf("vector<u8> element %d is not a byte", i)
			}
			out[i] = byte(n.Uint64())
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported vector<u8> value of type %T", v)
	}
}

// displayValue renders a pure value for JSON output.
func displayValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case *big.Int:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
