package diag

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/docgen/internal/logfields"
)

// LogSink writes diagnostics to a slog.Logger; warnings at Warn, errors at Error.
type LogSink struct {
	Logger *slog.Logger
}

// NewLogSink returns a LogSink; a nil logger means slog.Default().
func NewLogSink(l *slog.Logger) *LogSink {
	if l == nil {
		l = slog.Default()
	}
	return &LogSink{Logger: l}
}

func (s *LogSink) Emit(d Diagnostic) {
	level := slog.LevelWarn
	if d.Severity == SeverityError {
		level = slog.LevelError
	}
	attrs := []slog.Attr{logfields.Stage(d.Stage), logfields.Code(d.Code)}
	if d.File != "" {
		attrs = append(attrs, logfields.File(d.File))
	}
	if d.Line > 0 {
		attrs = append(attrs, logfields.Line(d.Line))
	}
	s.Logger.LogAttrs(context.Background(), level, d.Message, attrs...)
}
