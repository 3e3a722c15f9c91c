package pattern

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// magic identifies a pattern-history file.
var magic = [4]byte{'F', 'P', 'S', '1'}

// Record is one frequency-counted pattern: how many times it was
// observed, and its encoded shape.
type Record struct {
	Counter uint64
	Pattern Pattern
}

// WriteStore serializes records to w in the FPS1 format: magic,
// little-endian u64 count, then each record as
// (counter u64, length u32, bytes[length]).
func WriteStore(w io.Writer, records []Record) error {
	if _, err := w.Write(magic[:]); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint64(len(records))); err != nil {
		return err
	}
	for i, rec := range records {
		encoded := Encode(rec.Pattern)
		if err := binary.Write(w, binary.LittleEndian, rec.Counter); err != nil {
			return fmt.Errorf("record %d: counter: %w", i, err)
		}
		if err := binary.Write(w, binary.LittleEndian, uint32(len(encoded))); err != nil {
			return fmt.Errorf("record %d: length: %w", i, err)
		}
		if _, err := w.Write(encoded); err != nil {
			return fmt.Errorf("record %d: bytes: %w", i, err)
		}
	}
	return nil
}

// ReadStore parses an FPS1 file from r.
func ReadStore(r io.Reader) ([]Record, error) {
	var gotMagic [4]byte
	if _, err := io.ReadFull(r, gotMagic[:]); err != nil {
		return nil, fmt.Errorf("pattern: reading magic: %w", err)
	}
	if gotMagic != magic {
		return nil, fmt.Errorf("pattern: bad magic %q, want %q", gotMagic, magic)
	}

	var count uint64
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("pattern: reading count: %w", err)
	}

	records := make([]Record, 0, count)
	for i := uint64(0); i < count; i++ {
		var rec Record
		if err := binary.Read(r, binary.LittleEndian, &rec.Counter); err != nil {
			return nil, fmt.Errorf("pattern: record %d: counter: %w", i, err)
		}
		var length uint32
		if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
			return nil, fmt.Errorf("pattern: record %d: length: %w", i, err)
		}
		buf := make([]byte, length)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("pattern: record %d: bytes: %w", i, err)
		}
		p, err := Decode(buf)
		if err != nil {
			return nil, fmt.Errorf("pattern: record %d: %w", i, err)
		}
		rec.Pattern = p
		records = append(records, rec)
	}
	return records, nil
}

// Marshal is a convenience wrapper returning the serialized bytes
// directly, for callers that don't want to manage an io.Writer (the
// CLI's `pattern` subcommand, which writes to a file path).
func Marshal(records []Record) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteStore(&buf, records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal is the Marshal counterpart.
func Unmarshal(data []byte) ([]Record, error) {
	return ReadStore(bytes.NewReader(data))
}
