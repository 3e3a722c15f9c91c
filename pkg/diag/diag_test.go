package diag

import "testing"

func TestSetSinkReceivesReports(t *testing.T) {
	orig := defaultSink
	defer func() { defaultSink = orig }()

	s := &collectingSink{}
	SetSink(s)
	Report("f.go", 12, "Fn", "value %d out of range", 7)

	if len(s.findings) != 1 {
		t.Fatalf("expected 1 finding collected, got %d", len(s.findings))
	}
	if got := s.findings[0].String(); got != "f.go:12: Fn: value 7 out of range" {
		t.Fatalf("unexpected finding string: %q", got)
	}
}

func TestFatalfPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected Fatalf to panic")
		}
	}()
	Fatalf("f.go", 1, "Fn", "unreachable: %s", "bad state")
}
