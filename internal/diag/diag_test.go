package diag

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCollectorKeepsOrder(t *testing.T) {
	var c Collector
	c.Emit(Error("parse", CodeParseFailed, "a.go", 3, "bad %s", "syntax"))
	c.Emit(Warning("analyze", CodeUnresolvedReference, "b.go", 0, "unresolved"))

	got := c.Diagnostics()
	require.Len(t, got, 2)
	require.Equal(t, "bad syntax", got[0].Message)
	require.Equal(t, []string{CodeParseFailed, CodeUnresolvedReference}, c.Codes())
	require.Equal(t, 1, c.Count(SeverityError))
	require.Equal(t, 1, c.Count(SeverityWarning))
}

func TestDiagnosticString(t *testing.T) {
	d := Error("parse", CodeParseFailed, "a.go", 3, "boom")
	require.Equal(t, "error[PARSE_FAILED] a.go:3: boom", d.String())
	require.Equal(t, "warning[NO_SOURCES] nothing", Warning("resolve", CodeNoSources, "", 0, "nothing").String())
	require.Equal(t, "x.md", Diagnostic{File: "x.md"}.Location())
}

func TestMultiFansOutInOrder(t *testing.T) {
	var order []string
	a := SinkFunc(func(Diagnostic) { order = append(order, "a") })
	b := SinkFunc(func(Diagnostic) { order = append(order, "b") })
	Multi{a, nil, b}.Emit(Diagnostic{})
	require.Equal(t, []string{"a", "b"}, order)
}

func TestLogSinkLevels(t *testing.T) {
	var buf bytes.Buffer
	s := NewLogSink(slog.New(slog.NewTextHandler(&buf, nil)))
	s.Emit(Warning("analyze", CodeUnresolvedReference, "a.go", 9, "missing Foo"))
	s.Emit(Error("parse", CodeParseFailed, "b.go", 0, "broken"))

	out := buf.String()
	require.Contains(t, out, "level=WARN")
	require.Contains(t, out, "level=ERROR")
	require.Contains(t, out, "code=UNRESOLVED_REFERENCE")
	require.Contains(t, out, "line=9")
}

func TestTerminalSink(t *testing.T) {
	var buf bytes.Buffer
	NewTerminalSink(&buf).Emit(Error("parse", CodeParseFailed, "a.go", 1, "boom"))
	require.Contains(t, buf.String(), "[PARSE_FAILED]")
	require.Contains(t, buf.String(), "boom")
}

type fakePublisher struct {
	subject string
	data    [][]byte
	err     error
}

func (f *fakePublisher) Publish(subject string, data []byte) error {
	f.subject = subject
	f.data = append(f.data, data)
	return f.err
}

func TestNATSSinkPublishesJSON(t *testing.T) {
	pub := &fakePublisher{}
	s := &NATSSink{pub: pub, subject: "docs.diag", Extra: map[string]string{"run_id": "r1"}}
	s.Emit(Warning("render", CodeBrokenLink, "index.html", 0, "broken"))

	require.Equal(t, "docs.diag", pub.subject)
	require.Len(t, pub.data, 1)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(pub.data[0], &decoded))
	require.Equal(t, "BROKEN_LINK", decoded["code"])
	require.Equal(t, "warning", decoded["severity"])
	require.Equal(t, "r1", decoded["extra"].(map[string]any)["run_id"])
}

func TestNATSSinkNeverFails(t *testing.T) {
	pub := &fakePublisher{err: errors.New("no connection")}
	s := &NATSSink{pub: pub, subject: DefaultSubject}
	require.NotPanics(t, func() { s.Emit(Diagnostic{Code: "X"}) })

	var nilSink *NATSSink
	require.NotPanics(t, func() { nilSink.Emit(Diagnostic{}) })
	require.NotPanics(t, nilSink.Close)
}
