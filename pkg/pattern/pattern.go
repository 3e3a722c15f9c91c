package pattern

import (
	"fmt"

	"github.com/oisee/irgraph/pkg/opcode"
)

// TokenKind distinguishes the special structural tags from a plain
// opcode entry in a recorded pattern.
type TokenKind uint8

const (
	TokOp TokenKind = iota
	TokIConst
	TokEmpty
	TokOption
	TokRef
	TokEnd
)

// Token is one element of a recorded pattern: either an opcode (only
// the opcode number is recorded, not its arity), an integer constant
// payload, an empty/placeholder slot, an option marker, a back-
// reference to an earlier position in the same pattern (for shared
// substructure), or an explicit end-of-list marker.
type Token struct {
	Kind  TokenKind
	Op    opcode.Op
	Value uint32 // IConst payload, or Ref target index
}

// Pattern is a flat, self-delimiting sequence of Tokens describing one
// recorded graph shape (the collector's unit of frequency counting).
type Pattern []Token

// Encode serializes p into a byte-for-byte wire format: each Token is
// tag-prefixed so Decode is total over any buffer Encode produced.
func Encode(p Pattern) []byte {
	w := NewBitWriter()
	for _, t := range p {
		switch t.Kind {
		case TokOp:
			w.WriteVLC(uint32(t.Op))
		case TokIConst:
			w.WriteByte(TagIConst)
			w.WriteVLC(t.Value)
		case TokEmpty:
			w.WriteByte(TagEmpty)
		case TokOption:
			w.WriteByte(TagOption)
		case TokRef:
			w.WriteByte(TagRef)
			w.WriteVLC(t.Value)
		case TokEnd:
			w.WriteByte(TagEnd)
		}
	}
	w.WriteByte(TagEnd)
	return w.Bytes()
}

// Decode parses a byte buffer produced by Encode back into a Pattern.
// It is total over any buffer Encode can produce: malformed input
// yields an error rather than a panic.
func Decode(buf []byte) (Pattern, error) {
	r := NewBitReader(buf)
	var p Pattern
	for r.Len() > 0 {
		b, err := r.PeekByte()
		if err != nil {
			return nil, err
		}
		switch {
		case b == TagEnd:
			r.ReadByte()
			if r.Len() == 0 {
				return p, nil // the terminator Encode appends
			}
			p = append(p, Token{Kind: TokEnd})
		case b == TagEmpty:
			r.ReadByte()
			p = append(p, Token{Kind: TokEmpty})
		case b == TagOption:
			r.ReadByte()
			p = append(p, Token{Kind: TokOption})
		case b == TagIConst:
			r.ReadByte()
			v, err := r.ReadVLC()
			if err != nil {
				return nil, fmt.Errorf("pattern: IConst: %w", err)
			}
			p = append(p, Token{Kind: TokIConst, Value: v})
		case b == TagRef:
			r.ReadByte()
			v, err := r.ReadVLC()
			if err != nil {
				return nil, fmt.Errorf("pattern: Ref: %w", err)
			}
			p = append(p, Token{Kind: TokRef, Value: v})
		default:
			v, err := r.ReadVLC()
			if err != nil {
				return nil, fmt.Errorf("pattern: Op: %w", err)
			}
			p = append(p, Token{Kind: TokOp, Op: opcode.Op(v)})
		}
	}
	return nil, fmt.Errorf("pattern: %w: missing terminating TAG_END", ErrTruncated)
}
