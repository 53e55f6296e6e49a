// Package logfields holds the canonical slog attribute keys used across docgen.
package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyModule     = "module"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyPath       = "path"
	KeyFile       = "file"
	KeyLine       = "line"
	KeyPackage    = "package"
	KeyFormat     = "format"
	KeyCode       = "code"
	KeyCount      = "count"
	KeyOutcome    = "outcome"
	KeySubject    = "subject"
	KeyURL        = "url"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Module(name string) slog.Attr    { return slog.String(KeyModule, name) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func File(f string) slog.Attr         { return slog.String(KeyFile, f) }
func Line(n int) slog.Attr            { return slog.Int(KeyLine, n) }
func Package(p string) slog.Attr      { return slog.String(KeyPackage, p) }
func Format(f string) slog.Attr       { return slog.String(KeyFormat, f) }
func Code(c string) slog.Attr         { return slog.String(KeyCode, c) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func Outcome(o string) slog.Attr      { return slog.String(KeyOutcome, o) }
func Subject(s string) slog.Attr      { return slog.String(KeySubject, s) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
