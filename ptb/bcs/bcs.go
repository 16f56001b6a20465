// Package bcs writes the Binary Canonical Serialization used by the ledger:
// little-endian fixed-width integers, ULEB128 lengths and enum tags.
package bcs

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
)

// Writer accumulates BCS bytes.
type Writer struct {
	buf bytes.Buffer
}

// Bytes returns the encoded bytes.
func (w *Writer) Bytes() []byte { return w.buf.Bytes() }

// Bool writes one byte.
func (w *Writer) Bool(v bool) {
	if v {
		w.buf.WriteByte(1)
		return
	}
	w.buf.WriteByte(0)
}

func (w *Writer) U8(v uint8) { w.buf.WriteByte(v) }

func (w *Writer) U16(v uint16) { w.buf.Write(binary.LittleEndian.AppendUint16(nil, v)) }

func (w *Writer) U32(v uint32) { w.buf.Write(binary.LittleEndian.AppendUint32(nil, v)) }

func (w *Writer) U64(v uint64) { w.buf.Write(binary.LittleEndian.AppendUint64(nil, v)) }

// BigUint writes v as an unsigned little-endian integer of size bytes.
func (w *Writer) BigUint(v *big.Int, size int) error {
	if v.Sign() < 0 {
		return fmt.Errorf("negative value %s", v)
	}
	be := v.Bytes()
	if len(be) > size {
		return fmt.Errorf("value %s overflows %d bytes", v, size)
	}
	le := make([]byte, size)
	for i, b := range be {
		le[len(be)-1-i] = b
	}
	w.buf.Write(le)
	return nil
}

// ULEB128 writes a variable-length unsigned integer, used for lengths and
// enum variant tags.
func (w *Writer) ULEB128(v uint64) {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			w.buf.WriteByte(b | 0x80)
			continue
		}
		w.buf.WriteByte(b)
		return
	}
}

// Variant writes an enum tag.
func (w *Writer) Variant(tag int) { w.ULEB128(uint64(tag)) }

// Len writes a sequence length.
func (w *Writer) Len(n int) { w.ULEB128(uint64(n)) }

// ByteVector writes a length-prefixed byte vector.
func (w *Writer) ByteVector(b []byte) {
	w.Len(len(b))
	w.buf.Write(b)
}

// String writes a length-prefixed UTF-8 string.
func (w *Writer) String(s string) {
	w.Len(len(s))
	w.buf.WriteString(s)
}

// Raw writes b without a length prefix.
func (w *Writer) Raw(b []byte) { w.buf.Write(b) }

// Address writes a 32-byte address given in hex, with or without 0x.
func (w *Writer) Address(addr string) error {
	b, err := AddressBytes(addr)
	if err != nil {
		return err
	}
	w.buf.Write(b)
	return nil
}

// AddressBytes decodes a hex address into 32 bytes, left-padding short forms.
func AddressBytes(addr string) ([]byte, error) {
	h := strings.TrimPrefix(strings.TrimPrefix(addr, "0x"), "0X")
	if len(h) == 0 || len(h) > 64 {
		return nil, fmt.Errorf("address %q must have 1 to 64 hex digits", addr)
	}
	h = strings.Repeat("0", 64-len(h)) + h
	b, err := hex.DecodeString(h)
	if err != nil {
		return nil, fmt.Errorf("address %q: %w", addr, err)
	}
	return b, nil
}
