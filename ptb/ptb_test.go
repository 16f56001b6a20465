package ptb

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestBuilderThreadsResults(t *testing.T) {
	tx := NewBuilder()
	amt := tx.PureU64(1000)
	split := tx.SplitCoins(GasCoin(), amt)
	if split != Result(0) {
		t.Fatalf("expected Result(0), got %s", split)
	}
	tx.TransferObjects([]Argument{split.Nested(0)}, Sender())

	p := tx.Build()
	if len(p.Commands) != 2 || len(p.Inputs) != 1 {
		t.Fatalf("expected 2 commands and 1 input, got %d/%d", len(p.Commands), len(p.Inputs))
	}
	if err := p.Check(); err != nil {
		t.Errorf("expected well-formed program, got %v", err)
	}
	if !p.UsesSender() {
		t.Error("expected sender placeholder to be detected")
	}
}

func TestObjectInputsAreDeduplicated(t *testing.T) {
	tx := NewBuilder()
	a, err := tx.ImmutableObject("0x6")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := tx.Object("0x0000000000000000000000000000000000000000000000000000000000000006")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a != b {
		t.Errorf("expected one input for both spellings, got %s and %s", a, b)
	}
	p := tx.Build()
	if len(p.Inputs) != 1 || !p.Inputs[0].Mutable {
		t.Errorf("expected a single input upgraded to mutable, got %+v", p.Inputs)
	}
	if _, err := tx.Object("pool"); err == nil {
		t.Error("expected error for a non-hex id")
	}
}

func TestGroupRecordsRangeOnlyOnSuccess(t *testing.T) {
	tx := NewBuilder()
	err := tx.Group("borrow", "borrow", func() error {
		tx.Call("0x1", "m", "f", nil)
		tx.Call("0x1", "m", "g", nil)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_ = tx.Group("bad", "call", func() error {
		return errFake
	})
	p := tx.Build()
	if len(p.Groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(p.Groups))
	}
	if g := p.Groups[0]; g.Start != 0 || g.End != 2 || g.Size() != 2 {
		t.Errorf("unexpected group %+v", g)
	}
	if sizes := p.GroupSizes(); len(sizes) != 1 || sizes[0] != 2 {
		t.Errorf("unexpected group sizes %v", sizes)
	}
}

type fakeErr struct{}

func (fakeErr) Error() string { return "fake" }

var errFake = fakeErr{}

func TestCheckCatchesForwardReference(t *testing.T) {
	p := &Program{Commands: []Command{MergeCoins{Destination: GasCoin(), Sources: []Argument{Result(0)}}}}
	if err := p.Check(); err == nil {
		t.Error("expected self reference to fail")
	}
	p = &Program{Commands: []Command{SplitCoins{Coin: GasCoin(), Amounts: []Argument{Input(3)}}}}
	if err := p.Check(); err == nil {
		t.Error("expected missing input to fail")
	}
}

func TestBindSender(t *testing.T) {
	tx := NewBuilder()
	coin := tx.SplitCoins(GasCoin(), tx.PureU64(1))
	tx.TransferObjects([]Argument{coin.Nested(0)}, Sender())
	p := tx.Build()

	bound, err := p.BindSender("0xa11ce")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bound.UsesSender() {
		t.Error("expected no placeholder after binding")
	}
	if !p.UsesSender() {
		t.Error("expected original program to be left untouched")
	}
	last := bound.Inputs[len(bound.Inputs)-1]
	if last.ValueType != "address" || len(last.Bytes) != 32 {
		t.Errorf("expected 32-byte address input, got %+v", last)
	}
	transfer := bound.Commands[1].(TransferObjects)
	if transfer.Address != Input(uint16(len(bound.Inputs)-1)) {
		t.Errorf("expected transfer to the bound input, got %s", transfer.Address)
	}
	if _, err := p.BindSender("nope"); err == nil {
		t.Error("expected error for invalid sender")
	}
}

func TestEncodePure(t *testing.T) {
	tests := []struct {
		typ     string
		v       any
		want    []byte
		wantErr bool
	}{
		{typ: "bool", v: true, want: []byte{1}},
		{typ: "u8", v: "255", want: []byte{0xff}},
		{typ: "u8", v: "256", wantErr: true},
		{typ: "u16", v: float64(513), want: []byte{0x01, 0x02}},
		{typ: "u64", v: "1000000000", want: []byte{0x00, 0xca, 0x9a, 0x3b, 0, 0, 0, 0}},
		{typ: "u64", v: "-1", wantErr: true},
		{typ: "u64", v: 1.5, wantErr: true},
		{typ: "string", v: "hi", want: []byte{2, 'h', 'i'}},
		{typ: "vector<u8>", v: "0x0102", want: []byte{2, 1, 2}},
		{typ: "vector<u8>", v: []any{float64(7)}, want: []byte{1, 7}},
		{typ: "signer", v: "0x1", wantErr: true},
		{typ: "bool", v: "true", wantErr: true},
	}
	for _, tt := range tests {
		got, err := EncodePure(tt.typ, tt.v)
		if tt.wantErr {
			if err == nil {
				t.Errorf("%s %v: expected error", tt.typ, tt.v)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s %v: unexpected error %v", tt.typ, tt.v, err)
			continue
		}
		if !bytes.Equal(got, tt.want) {
			t.Errorf("%s %v: expected %x, got %x", tt.typ, tt.v, tt.want, got)
		}
	}
}

func TestProgramJSON(t *testing.T) {
	tx := NewBuilder()
	pool, _ := tx.Object("0xabc")
	amt := tx.PureU64(5)
	res := tx.Call("0x2", "coin", "zero", []string{"0x2::sui::SUI"})
	tx.Call("0x1", "router", "swap", nil, pool, amt, res, GasCoin())
	tx.MakeMoveVec("", res)
	p := tx.Build()

	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	s := string(data)
	for _, want := range []string{
		`"MoveCall"`, `"function":"zero"`, `{"Input":0}`, `{"Result":0}`, `"GasCoin"`,
		`"MakeMoveVec":[null,[{"Result":0}]]`, `"objectId":"0x0000`, `"valueType":"u64"`, `"value":"5"`,
		`0x0000000000000000000000000000000000000000000000000000000000000002::sui::SUI`,
	} {
		if !strings.Contains(s, want) {
			t.Errorf("expected %s in %s", want, s)
		}
	}
}
