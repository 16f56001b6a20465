package ledger

import (
	"fmt"

	"github.com/kbukum/strategykit/ptb"
	"github.com/kbukum/strategykit/ptb/bcs"
	"github.com/kbukum/strategykit/strategy"
)

// digestLen is the length of an object digest.
const digestLen = 32

// ObjectInput is an object input pinned for serialisation. Shared objects
// carry their initial shared version; owned and immutable ones a full ref.
type ObjectInput struct {
	Ref                  ObjectRef
	Shared               bool
	InitialSharedVersion uint64
	Mutable              bool
}

// Input is one resolved transaction input: either Pure bytes or an Object.
type Input struct {
	Pure   []byte
	Object *ObjectInput
}

// GasData is the gas payment of a transaction.
type GasData struct {
	Payment []ObjectRef
	Owner   string
	Price   uint64
	Budget  uint64
}

// TransactionData is a programmable transaction ready to be signed.
type TransactionData struct {
	Sender   string
	Inputs   []Input
	Commands []ptb.Command
	Gas      GasData
}

// Marshal returns the BCS encoding of TransactionData::V1 with no
// expiration.
func (t *TransactionData) Marshal() ([]byte, error) {
	w := &bcs.Writer{}
	w.Variant(0) // V1
	w.Variant(0) // ProgrammableTransaction

	w.Len(len(t.Inputs))
	for i, in := range t.Inputs {
		if err := writeInput(w, in); err != nil {
			return nil, fmt.Errorf("input %d: %w", i, err)
		}
	}
	w.Len(len(t.Commands))
	for i, c := range t.Commands {
		if err := writeCommand(w, c); err != nil {
			return nil, fmt.Errorf("command %d (%s): %w", i, c.Name(), err)
		}
	}

	if err := w.Address(t.Sender); err != nil {
		return nil, fmt.Errorf("sender: %w", err)
	}
	w.Len(len(t.Gas.Payment))
	for i, ref := range t.Gas.Payment {
		if err := writeObjectRef(w, ref); err != nil {
			return nil, fmt.Errorf("gas payment %d: %w", i, err)
		}
	}
	if err := w.Address(t.Gas.Owner); err != nil {
		return nil, fmt.Errorf("gas owner: %w", err)
	}
	w.U64(t.Gas.Price)
	w.U64(t.Gas.Budget)
	w.Variant(0) // TransactionExpiration::None
	return w.Bytes(), nil
}

func writeInput(w *bcs.Writer, in Input) error {
	switch {
	case in.Object == nil:
		w.Variant(0)
		w.ByteVector(in.Pure)
	case in.Object.Shared:
		w.Variant(1)
		w.Variant(1)
		if err := w.Address(in.Object.Ref.ObjectID); err != nil {
			return err
		}
		w.U64(in.Object.InitialSharedVersion)
		w.Bool(in.Object.Mutable)
	default:
		w.Variant(1)
		w.Variant(0)
		return writeObjectRef(w, in.Object.Ref)
	}
	return nil
}

func writeObjectRef(w *bcs.Writer, ref ObjectRef) error {
	if err := w.Address(ref.ObjectID); err != nil {
		return err
	}
	w.U64(uint64(ref.Version))
	digest, err := decodeBase58(ref.Digest)
	if err != nil {
		return fmt.Errorf("digest: %w", err)
	}
	if len(digest) != digestLen {
		return fmt.Errorf("digest %q decodes to %d bytes, want %d", ref.Digest, len(digest), digestLen)
	}
	w.ByteVector(digest)
	return nil
}

func writeCommand(w *bcs.Writer, c ptb.Command) error {
	switch c := c.(type) {
	case ptb.MoveCall:
		w.Variant(0)
		if err := w.Address(c.Package); err != nil {
			return err
		}
		w.String(c.Module)
		w.String(c.Function)
		w.Len(len(c.TypeArguments))
		for _, t := range c.TypeArguments {
			if err := writeTypeString(w, t); err != nil {
				return err
			}
		}
		return writeArguments(w, c.Args)
	case ptb.TransferObjects:
		w.Variant(1)
		if err := writeArguments(w, c.Objects); err != nil {
			return err
		}
		return writeArgument(w, c.Address)
	case ptb.SplitCoins:
		w.Variant(2)
		if err := writeArgument(w, c.Coin); err != nil {
			return err
		}
		return writeArguments(w, c.Amounts)
	case ptb.MergeCoins:
		w.Variant(3)
		if err := writeArgument(w, c.Destination); err != nil {
			return err
		}
		return writeArguments(w, c.Sources)
	case ptb.MakeMoveVec:
		w.Variant(5)
		if c.ElementType == "" {
			w.Variant(0)
		} else {
			w.Variant(1)
			if err := writeTypeString(w, c.ElementType); err != nil {
				return err
			}
		}
		return writeArguments(w, c.Elements)
	default:
		return fmt.Errorf("unsupported command %T", c)
	}
}

func writeArguments(w *bcs.Writer, args []ptb.Argument) error {
	w.Len(len(args))
	for _, a := range args {
		if err := writeArgument(w, a); err != nil {
			return err
		}
	}
	return nil
}

func writeArgument(w *bcs.Writer, a ptb.Argument) error {
	switch a.Kind {
	case ptb.ArgGasCoin:
		w.Variant(0)
	case ptb.ArgInput:
		w.Variant(1)
		w.U16(a.Index)
	case ptb.ArgResult:
		w.Variant(2)
		w.U16(a.Index)
	case ptb.ArgNestedResult:
		w.Variant(3)
		w.U16(a.Index)
		w.U16(a.Sub)
	case ptb.ArgSender:
		return fmt.Errorf("sender placeholder is not bound")
	default:
		return fmt.Errorf("unknown argument %s", a)
	}
	return nil
}

// typeTagVariants are the TypeTag enum tags of the primitives.
var typeTagVariants = map[string]int{
	"bool": 0, "u8": 1, "u64": 2, "u128": 3, "address": 4, "signer": 5,
	"u16": 8, "u32": 9, "u256": 10,
}

func writeTypeString(w *bcs.Writer, s string) error {
	t, err := strategy.ParseTypeTag(s)
	if err != nil {
		return err
	}
	return writeTypeTag(w, t)
}

func writeTypeTag(w *bcs.Writer, t strategy.TypeTag) error {
	switch t.Kind {
	case strategy.TypeKindVector:
		w.Variant(6)
		return writeTypeTag(w, *t.Elem)
	case strategy.TypeKindStruct:
		w.Variant(7)
		if err := w.Address(t.Address); err != nil {
			return err
		}
		w.String(t.Module)
		w.String(t.Name)
		w.Len(len(t.Params))
		for _, p := range t.Params {
			if err := writeTypeTag(w, p); err != nil {
				return err
			}
		}
		return nil
	default:
		tag, ok := typeTagVariants[t.Kind]
		if !ok {
			return fmt.Errorf("unknown type %q", t.Kind)
		}
		w.Variant(tag)
		return nil
	}
}
