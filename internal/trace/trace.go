// Package trace is a minimal wrapper around an io.Writer used for the
// solver's and suite note's optional diagnostic output, grounded on
// golang-dep's log.Logger (Logln/Logf/LogDepfln).
package trace

import (
	"fmt"
	"io"
)

// Tracer is a minimal wrapper around an io.Writer. A nil *Tracer is valid
// and silently discards everything, so callers that don't want tracing can
// simply leave the field zero rather than branching on a bool everywhere.
type Tracer struct {
	io.Writer
}

// New returns a new Tracer which writes to w.
func New(w io.Writer) *Tracer {
	return &Tracer{Writer: w}
}

// Logln logs a line.
func (t *Tracer) Logln(args ...interface{}) {
	if t == nil {
		return
	}
	fmt.Fprintln(t, args...)
}

// Logf logs a formatted string, without a trailing newline.
func (t *Tracer) Logf(f string, args ...interface{}) {
	if t == nil {
		return
	}
	fmt.Fprintf(t, f, args...)
}

// Logfln logs a formatted line, prefixed with "distcheck: ".
func (t *Tracer) Logfln(format string, args ...interface{}) {
	if t == nil {
		return
	}
	fmt.Fprintf(t, "distcheck: "+format+"\n", args...)
}
