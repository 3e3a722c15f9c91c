package program

import (
	"testing"

	"github.com/spf13/pflag"
)

func TestRegisterDefaults(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	f := Register(fs)
	if err := fs.Parse(nil); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !f.CSE || !f.ConstFold {
		t.Fatalf("expected cse and const-fold to default on, got %+v", f)
	}
	if f.VerifyOnMature {
		t.Fatalf("expected verify-on-mature to default off")
	}
	if f.Workers != 0 {
		t.Fatalf("expected workers to default to 0 (GOMAXPROCS), got %d", f.Workers)
	}
}

func TestRegisterParsesFlags(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	f := Register(fs)
	if err := fs.Parse([]string{"--cse=false", "--workers=4"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if f.CSE {
		t.Fatalf("expected --cse=false to disable CSE")
	}
	if f.Workers != 4 {
		t.Fatalf("expected --workers=4, got %d", f.Workers)
	}
}

func TestOptionsLength(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	f := Register(fs)
	if opts := f.Options(); len(opts) != 3 {
		t.Fatalf("expected 3 graph.Options (cse, const-fold, verify-on-mature), got %d", len(opts))
	}
}
