package errors

import (
	"bytes"
	"fmt"
	"log/slog"
	"testing"
)

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "nil error", err: nil, expected: 0},
		{
			name:     "validation error",
			err:      NewError(CategoryValidation, "invalid input").Build(),
			expected: 2,
		},
		{
			name:     "config error",
			err:      ConfigError("unknown classpath source").WithCode(CodeUnknownClasspathSource).Build(),
			expected: 7,
		},
		{
			name:     "generation error",
			err:      GenerationError("unresolved reference").WithCode(CodeUnresolvedReference).Build(),
			expected: 11,
		},
		{
			name:     "wrapped filesystem error",
			err:      fmt.Errorf("render: %w", FileSystemError("cannot write").WithCode(CodeIOFailure).Build()),
			expected: 11,
		},
		{
			name:     "internal error",
			err:      InternalError("boom").Build(),
			expected: 10,
		},
		{
			name:     "unclassified error",
			err:      fmt.Errorf("plain"),
			expected: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := adapter.ExitCodeFor(tt.err); got != tt.expected {
				t.Errorf("ExitCodeFor() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	quiet := NewCLIErrorAdapter(false, slog.Default())
	verbose := NewCLIErrorAdapter(true, slog.Default())

	cfgErr := ConfigError("link mapping requires dir").WithCode(CodeInvalidLinkMapping).Build()
	if got := quiet.FormatError(cfgErr); got != "Configuration error: link mapping requires dir" {
		t.Errorf("unexpected quiet format: %q", got)
	}
	if got := verbose.FormatError(cfgErr); got != cfgErr.Error() {
		t.Errorf("verbose format should be full error, got %q", got)
	}
	if got := quiet.FormatError(InternalError("x").Build()); got != "Internal error occurred (use -v for details)" {
		t.Errorf("unexpected internal format: %q", got)
	}
}

func TestCLIErrorAdapter_HandleError(t *testing.T) {
	var out bytes.Buffer
	code := -1
	adapter := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	adapter.out = &out
	adapter.exit = func(c int) { code = c }

	adapter.HandleError(ConfigError("bad option").Build())

	if code != 7 {
		t.Errorf("expected exit code 7, got %d", code)
	}
	if out.String() != "Configuration error: bad option\n" {
		t.Errorf("unexpected output %q", out.String())
	}
}
