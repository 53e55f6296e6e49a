// Package diag relays generation diagnostics to the host.
//
// A Sink is a side-effect-only relay: Emit never blocks on the caller for long
// and never fails. Ordering is the order of Emit calls, which the generator
// keeps in stage order.
package diag

import (
	"fmt"
	"sync"
)

// Severity of a diagnostic.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Stable diagnostic codes.
const (
	CodeNoSources           = "NO_SOURCES"
	CodeParseFailed         = "PARSE_FAILED"
	CodeIncludeFailed       = "INCLUDE_FAILED"
	CodeSampleFailed        = "SAMPLE_FAILED"
	CodeUnresolvedReference = "UNRESOLVED_REFERENCE"
	CodeUnknownSample       = "UNKNOWN_SAMPLE"
	CodeBrokenLink          = "BROKEN_LINK"
	CodeIOFailure           = "IO_FAILURE"
)

// Diagnostic is a single message produced while generating documentation.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Stage    string   `json:"stage"`
	Code     string   `json:"code"`
	File     string   `json:"file,omitempty"`
	Line     int      `json:"line,omitempty"`
	Message  string   `json:"message"`
}

// Location renders "file:line", "file" or "" depending on what is known.
func (d Diagnostic) Location() string {
	switch {
	case d.File == "":
		return ""
	case d.Line > 0:
		return fmt.Sprintf("%s:%d", d.File, d.Line)
	default:
		return d.File
	}
}

func (d Diagnostic) String() string {
	loc := d.Location()
	if loc != "" {
		loc += ": "
	}
	return fmt.Sprintf("%s[%s] %s%s", d.Severity, d.Code, loc, d.Message)
}

// Warning builds a warning diagnostic.
func Warning(stage, code, file string, line int, format string, args ...any) Diagnostic {
	return Diagnostic{Severity: SeverityWarning, Stage: stage, Code: code, File: file, Line: line, Message: fmt.Sprintf(format, args...)}
}

// Error builds an error diagnostic.
func Error(stage, code, file string, line int, format string, args ...any) Diagnostic {
	return Diagnostic{Severity: SeverityError, Stage: stage, Code: code, File: file, Line: line, Message: fmt.Sprintf(format, args...)}
}

// Sink receives diagnostics.
type Sink interface {
	Emit(d Diagnostic)
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(Diagnostic)

func (f SinkFunc) Emit(d Diagnostic) { f(d) }

// Discard drops every diagnostic.
var Discard Sink = SinkFunc(func(Diagnostic) {})

// Multi fans out to each sink in order.
type Multi []Sink

func (m Multi) Emit(d Diagnostic) {
	for _, s := range m {
		if s != nil {
			s.Emit(d)
		}
	}
}

// Collector keeps diagnostics in memory in emission order. Safe for concurrent use.
type Collector struct {
	mu    sync.Mutex
	items []Diagnostic
}

func (c *Collector) Emit(d Diagnostic) {
	c.mu.Lock()
	c.items = append(c.items, d)
	c.mu.Unlock()
}

// Diagnostics returns a copy of everything collected so far.
func (c *Collector) Diagnostics() []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Diagnostic, len(c.items))
	copy(out, c.items)
	return out
}

// Count returns how many collected diagnostics have the given severity.
func (c *Collector) Count(sev Severity) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, d := range c.items {
		if d.Severity == sev {
			n++
		}
	}
	return n
}

// Codes lists the codes of collected diagnostics in order.
func (c *Collector) Codes() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.items))
	for _, d := range c.items {
		out = append(out, d.Code)
	}
	return out
}
