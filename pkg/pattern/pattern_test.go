package pattern

import (
	"testing"

	"github.com/oisee/irgraph/pkg/opcode"
)

func TestPatternRoundTrip(t *testing.T) {
	p := Pattern{
		{Kind: TokOp, Op: opcode.OpAdd},
		{Kind: TokIConst, Value: 42},
		{Kind: TokRef, Value: 0},
		{Kind: TokEmpty},
		{Kind: TokOption},
	}
	encoded := Encode(p)
	decoded, err := Decode(encoded)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(decoded) != len(p) {
		t.Fatalf("round trip length mismatch: got %d, want %d", len(decoded), len(p))
	}
	for i := range p {
		if decoded[i] != p[i] {
			t.Fatalf("token %d mismatch: got %+v, want %+v", i, decoded[i], p[i])
		}
	}
}

func TestVLCBoundaries(t *testing.T) {
	vals := []uint32{0, 1, 0x7F, 0x80, 0x3FFF, 0x4000, 0x1FFFFF, 0x200000, 0xFFFFFFF, 0x10000000, 0xFFFFFFFF}
	for _, v := range vals {
		w := NewBitWriter()
		w.WriteVLC(v)
		r := NewBitReader(w.Bytes())
		got, err := r.ReadVLC()
		if err != nil {
			t.Fatalf("ReadVLC(%d): %v", v, err)
		}
		if got != v {
			t.Fatalf("VLC round trip: got %d, want %d", got, v)
		}
	}
}

// TestStoreRoundTrip exercises P7: the FPS1 binary format round-trips
// through Marshal/Unmarshal exactly.
func TestStoreRoundTrip(t *testing.T) {
	records := []Record{
		{Counter: 7, Pattern: Pattern{{Kind: TokOp, Op: opcode.OpMul}}},
		{Counter: 0, Pattern: Pattern{}},
		{Counter: 1 << 40, Pattern: Pattern{{Kind: TokIConst, Value: 99}, {Kind: TokOp, Op: opcode.OpCmp}}},
	}
	data, err := Marshal(records)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data[:4]) != "FPS1" {
		t.Fatalf("expected FPS1 magic, got %q", data[:4])
	}
	got, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(got) != len(records) {
		t.Fatalf("record count mismatch: got %d, want %d", len(got), len(records))
	}
	for i := range records {
		if got[i].Counter != records[i].Counter {
			t.Fatalf("record %d counter mismatch: got %d, want %d", i, got[i].Counter, records[i].Counter)
		}
		if len(got[i].Pattern) != len(records[i].Pattern) {
			t.Fatalf("record %d pattern length mismatch", i)
		}
	}
}

func TestDecodeTruncatedIsError(t *testing.T) {
	if _, err := Decode([]byte{TagIConst}); err == nil {
		t.Fatalf("expected error decoding truncated IConst token")
	}
}
