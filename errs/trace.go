package errs

import (
	"runtime"
	"strconv"
	"strings"
)

// Trace is a captured call stack, recorded at the point a variant was
// constructed. Rendering is deferred until String is actually called —
// capturing program counters is cheap, resolving them to file/line/func
// names is not, and most errors are never printed.
type Trace struct {
	pcs []uintptr
}

// captureTrace records the call stack starting at its caller (normally
// the variant constructor), skipping skip further frames beyond that;
// runtime.Callers and captureTrace itself are never included.
func captureTrace(skip int) Trace {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(skip+2, pcs)
	return Trace{pcs: pcs[:n]}
}

// String renders the trace with two lines per frame: the function name,
// then a tab-indented "file:line".
func (t Trace) String() string {
	if len(t.pcs) == 0 {
		return ""
	}
	frames := runtime.CallersFrames(t.pcs)
	var b strings.Builder
	for {
		frame, more := frames.Next()
		b.WriteString(frame.Function)
		b.WriteString("\n\t")
		b.WriteString(frame.File)
		b.WriteString(":")
		b.WriteString(strconv.Itoa(frame.Line))
		b.WriteString("\n")
		if !more {
			break
		}
	}
	return b.String()
}

// IsEmpty reports whether no frames were captured.
func (t Trace) IsEmpty() bool {
	return len(t.pcs) == 0
}
