package strategy

import (
	"fmt"
	"strings"
)

// TypeTag is a parsed Move type.
type TypeTag struct {
	// Kind is a primitive name ("bool", "u8".."u256", "address", "signer"),
	// "vector" or "struct".
	Kind    string
	Address string
	Module  string
	Name    string
	Params  []TypeTag
	Elem    *TypeTag
}

const (
	TypeKindVector = "vector"
	TypeKindStruct = "struct"
)

var primitiveTypes = map[string]bool{
	"bool": true, "u8": true, "u16": true, "u32": true, "u64": true,
	"u128": true, "u256": true, "address": true, "signer": true,
}

// IsPrimitiveType reports whether name is a Move primitive.
func IsPrimitiveType(name string) bool { return primitiveTypes[name] }

// ParseTypeTag parses a Move type such as "0x2::coin::Coin<0x2::sui::SUI>"
// or "vector<u8>". Struct addresses are normalised to 32 bytes.
func ParseTypeTag(s string) (TypeTag, error) {
	p := &typeParser{src: s}
	t, err := p.parse()
	if err != nil {
		return TypeTag{}, fmt.Errorf("invalid type %q: %w", s, err)
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return TypeTag{}, fmt.Errorf("invalid type %q: trailing %q", s, p.src[p.pos:])
	}
	return t, nil
}

// String renders t with full-length addresses.
func (t TypeTag) String() string {
	switch t.Kind {
	case TypeKindVector:
		return "vector<" + t.Elem.String() + ">"
	case TypeKindStruct:
		var b strings.Builder
		b.WriteString(t.Address + "::" + t.Module + "::" + t.Name)
		if len(t.Params) > 0 {
			b.WriteByte('<')
			for i, p := range t.Params {
				if i > 0 {
					b.WriteString(", ")
				}
				b.WriteString(p.String())
			}
			b.WriteByte('>')
		}
		return b.String()
	default:
		return t.Kind
	}
}

// NormalizeType returns the canonical form of a Move type, or the trimmed
// input when it does not parse. Two spellings of one type normalise equal.
func NormalizeType(s string) string {
	t, err := ParseTypeTag(s)
	if err != nil {
		return strings.TrimSpace(s)
	}
	return t.String()
}

// SameType reports whether a and b name the same Move type.
func SameType(a, b string) bool {
	return NormalizeType(a) == NormalizeType(b)
}

// CoinInner returns X for "0x2::coin::Coin<X>".
func CoinInner(s string) (string, bool) {
	t, err := ParseTypeTag(s)
	if err != nil || t.Kind != TypeKindStruct || len(t.Params) != 1 {
		return "", false
	}
	if t.Address != FrameworkAddress || t.Module != "coin" || t.Name != "Coin" {
		return "", false
	}
	return t.Params[0].String(), true
}

// FrameworkAddress is the normalised address of the Sui framework (0x2).
var FrameworkAddress = mustAddress("0x2")

// NormalizeAddress returns a 0x-prefixed, lowercase, 64 hex digit address.
func NormalizeAddress(s string) (string, error) {
	h := strings.TrimSpace(s)
	if strings.HasPrefix(h, "0x") || strings.HasPrefix(h, "0X") {
		h = h[2:]
	}
	if h == "" || len(h) > 64 {
		return "", fmt.Errorf("address %q must have 1 to 64 hex digits", s)
	}
	for _, c := range h {
		if !isHex(c) {
			return "", fmt.Errorf("address %q is not hex", s)
		}
	}
	return "0x" + strings.Repeat("0", 64-len(h)) + strings.ToLower(h), nil
}

// IsObjectID reports whether s is a 0x-prefixed object id.
func IsObjectID(s string) bool {
	if !strings.HasPrefix(s, "0x") {
		return false
	}
	_, err := NormalizeAddress(s)
	return err == nil
}

// MoveTarget is a parsed "package::module::function".
type MoveTarget struct {
	Package  string
	Module   string
	Function string
}

// ParseMoveTarget parses "package::module::function".
func ParseMoveTarget(s string) (MoveTarget, error) {
	parts := strings.Split(s, "::")
	if len(parts) != 3 {
		return MoveTarget{}, fmt.Errorf("target %q must have the form package::module::function", s)
	}
	pkg, err := NormalizeAddress(parts[0])
	if err != nil {
		return MoveTarget{}, err
	}
	if !isIdent(parts[1]) || !isIdent(parts[2]) {
		return MoveTarget{}, fmt.Errorf("target %q has an invalid module or function name", s)
	}
	return MoveTarget{Package: pkg, Module: parts[1], Function: parts[2]}, nil
}

func mustAddress(s string) string {
	a, err := NormalizeAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

func isHex(c rune) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

type typeParser struct {
	src string
	pos int
}

func (p *typeParser) skipSpace() {
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
}

func (p *typeParser) token() string {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) && !strings.ContainsRune("<>, ", rune(p.src[p.pos])) {
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *typeParser) peek() byte {
	p.skipSpace()
	if p.pos < len(p.src) {
		return p.src[p.pos]
	}
	return 0
}

func (p *typeParser) expect(c byte) error {
	if p.peek() != c {
		return fmt.Errorf("expected %q at offset %d", c, p.pos)
	}
	p.pos++
	return nil
}

func (p *typeParser) parse() (TypeTag, error) {
	tok := p.token()
	if tok == "" {
		return TypeTag{}, fmt.Errorf("expected a type at offset %d", p.pos)
	}
	if primitiveTypes[tok] {
		return TypeTag{Kind: tok}, nil
	}
	if tok == TypeKindVector {
		if err := p.expect('<'); err != nil {
			return TypeTag{}, err
		}
		elem, err := p.parse()
		if err != nil {
			return TypeTag{}, err
		}
		if err := p.expect('>'); err != nil {
			return TypeTag{}, err
		}
		return TypeTag{Kind: TypeKindVector, Elem: &elem}, nil
	}

	parts := strings.Split(tok, "::")
	if len(parts) != 3 {
		return TypeTag{}, fmt.Errorf("%q is not address::module::name", tok)
	}
	addr, err := NormalizeAddress(parts[0])
	if err != nil {
		return TypeTag{}, err
	}
	if !isIdent(parts[1]) || !isIdent(parts[2]) {
		return TypeTag{}, fmt.Errorf("%q has an invalid module or name", tok)
	}
	t := TypeTag{Kind: TypeKindStruct, Address: addr, Module: parts[1], Name: parts[2]}
	if p.peek() != '<' {
		return t, nil
	}
	p.pos++
	for {
		param, err := p.parse()
		if err != nil {
			return TypeTag{}, err
		}
		t.Params = append(t.Params, param)
		switch p.peek() {
		case ',':
			p.pos++
		case '>':
			p.pos++
			return t, nil
		default:
			return TypeTag{}, fmt.Errorf("expected ',' or '>' at offset %d", p.pos)
		}
	}
}
