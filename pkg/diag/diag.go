// Package diag is the structured diagnostic sink: a panic-shaped fatal
// reporter for programmer errors and a Finding-collecting path for
// report-mode verification, both feeding a single sink an embedder can
// swap out.
package diag

import "fmt"

// Finding is one structured diagnostic emitted in report mode (as
// opposed to strict mode, which is fatal).
type Finding struct {
	File string
	Line int
	Func string
	Msg  string
}

func (f Finding) String() string {
	return fmt.Sprintf("%s:%d: %s: %s", f.File, f.Line, f.Func, f.Msg)
}

// Sink receives diagnostics. The default Sink collects Findings in
// memory; an embedder may install its own (e.g. to forward to a log
// pipeline) via SetSink.
type Sink interface {
	Report(f Finding)
}

type collectingSink struct {
	findings []Finding
}

func (s *collectingSink) Report(f Finding) { s.findings = append(s.findings, f) }

var defaultSink Sink = &collectingSink{}

// SetSink installs the process-wide diagnostic sink.
func SetSink(s Sink) { defaultSink = s }

// Report emits a non-fatal structured Finding to the installed sink.
func Report(file string, line int, fn, format string, args ...any) {
	defaultSink.Report(Finding{File: file, Line: line, Func: fn, Msg: fmt.Sprintf(format, args...)})
}

// Fatalf reports a programmer-error / invariant violation and panics:
// these are never recoverable without leaving the graph
// half-rewritten, so they must abort rather than return an error.
func Fatalf(file string, line int, fn, format string, args ...any) {
	msg := fmt.Sprintf("%s:%d: %s: %s", file, line, fn, fmt.Sprintf(format, args...))
	panic(msg)
}
