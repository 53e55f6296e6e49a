package logfields

import (
	"errors"
	"log/slog"
	"testing"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    slog.Attr
	}{
		{"RunID", KeyRunID, "r1", RunID("r1")},
		{"Module", KeyModule, "example.com/m", Module("example.com/m")},
		{"Stage", KeyStage, "parse", Stage("parse")},
		{"Path", KeyPath, "/tmp/x", Path("/tmp/x")},
		{"File", KeyFile, "a.go", File("a.go")},
		{"Package", KeyPackage, "p", Package("p")},
		{"Format", KeyFormat, "html", Format("html")},
		{"Code", KeyCode, "PARSE_FAILED", Code("PARSE_FAILED")},
		{"Outcome", KeyOutcome, "success", Outcome("success")},
		{"Subject", KeySubject, "docgen.diagnostics", Subject("docgen.diagnostics")},
		{"URL", KeyURL, "http://example", URL("http://example")},
	}

	for _, tc := range cases {
		if tc.attr.Key != tc.attrKey {
			// Key drift would break log ingestion schemas.
			t.Fatalf("%s: expected key %s, got %s", tc.name, tc.attrKey, tc.attr.Key)
		}
		if got := tc.attr.Value.String(); got != tc.attrVal {
			t.Fatalf("%s: expected value %s, got %v", tc.name, tc.attrVal, got)
		}
	}
}

func TestNumericHelpers(t *testing.T) {
	if v := Line(12); v.Key != KeyLine || v.Value.Int64() != 12 {
		t.Fatalf("Line mismatch: %v", v)
	}
	if v := Count(3); v.Key != KeyCount || v.Value.Int64() != 3 {
		t.Fatalf("Count mismatch: %v", v)
	}
	if v := DurationMS(1.5); v.Key != KeyDurationMS || v.Value.Float64() != 1.5 {
		t.Fatalf("DurationMS mismatch: %v", v)
	}
}

func TestErrorHelper(t *testing.T) {
	if v := Error(nil); v.Value.String() != "" {
		t.Fatalf("nil error should render empty, got %q", v.Value.String())
	}
	if v := Error(errors.New("boom")); v.Key != KeyError || v.Value.String() != "boom" {
		t.Fatalf("unexpected error attr: %v", v)
	}
}
