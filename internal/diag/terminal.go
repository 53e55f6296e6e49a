package diag

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
)

var (
	warningColor = color.New(color.FgYellow, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	locColor     = color.New(color.Faint)
)

// TerminalSink prints colorized one-line diagnostics for interactive use.
type TerminalSink struct {
	mu  sync.Mutex
	out io.Writer
}

// NewTerminalSink writes to out, or stderr when out is nil.
func NewTerminalSink(out io.Writer) *TerminalSink {
	if out == nil {
		out = os.Stderr
	}
	return &TerminalSink{out: out}
}

func (s *TerminalSink) Emit(d Diagnostic) {
	label := warningColor.Sprint("warning")
	if d.Severity == SeverityError {
		label = errorColor.Sprint("error")
	}
	loc := d.Location()
	if loc != "" {
		loc = locColor.Sprint(loc) + ": "
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = fmt.Fprintf(s.out, "%s[%s] %s%s\n", label, d.Code, loc, d.Message)
}
