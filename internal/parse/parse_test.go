package parse

import (
	"go/ast"
	"go/doc"
	"go/token"
	"os"
	"path/filepath"
	"testing"

	"git.home.luguber.info/inful/docgen/internal/diag"
	"git.home.luguber.info/inful/docgen/internal/docgen"
	"git.home.luguber.info/inful/docgen/internal/model"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func newRequest(t *testing.T, sources []string, mutate func(*docgen.OptionsInput)) *docgen.Request {
	t.Helper()
	in := docgen.OptionsInput{ModuleName: "example.com/m", OutputDirectory: t.TempDir()}
	if mutate != nil {
		mutate(&in)
	}
	opts, err := docgen.NewOptions(in)
	require.NoError(t, err)
	return &docgen.Request{Sources: sources, Options: opts}
}

const widgetsSrc = `// Package widgets builds widgets.
package widgets

import "io"

// Size is a widget size.
type Size int

// Widget is a thing.
//
// @see Size
type Widget struct {
	io.Reader
	Base
	// Name of the widget.
	Name string
	secret int
}

// Base holds common behaviour.
type Base struct{}

// Reset clears state.
func (Base) Reset() {}

// NewWidget creates a Widget.
//
// @sample SampleNewWidget
func NewWidget() *Widget { return &Widget{} }

// Grow grows w.
func (w *Widget) Grow(n int) error { return nil }

// Deprecated: use Grow.
func (w *Widget) Enlarge() {}

// Shape is implemented by drawable things.
type Shape interface {
	io.Closer
	Area() float64
}

const (
	Small Size = 1
	Large Size = 2
)

var Default = NewWidget()
`

func TestParseBuildsModel(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "widgets.go"), widgetsSrc)
	writeFile(t, filepath.Join(root, "sub", "sub.go"), "// Package sub is nested.\npackage sub\n\nfunc Do() {}\n")

	var sink diag.Collector
	res, err := (&Parser{Sink: &sink}).Parse(t.Context(), newRequest(t, []string{root}, nil))
	require.NoError(t, err)
	require.Empty(t, sink.Diagnostics())
	require.Equal(t, 2, res.FilesParsed)

	m := res.Module
	require.Len(t, m.Packages, 2)
	pkg := m.Packages[0]
	require.Equal(t, "example.com/m", pkg.ImportPath)
	require.Equal(t, "widgets", pkg.Slug)
	require.Equal(t, "Package widgets builds widgets.\n", pkg.Doc)
	require.Equal(t, "example.com/m/sub", m.Packages[1].ImportPath)
	require.Equal(t, "sub", m.Packages[1].Slug)

	w := pkg.Type("Widget")
	require.NotNil(t, w)
	require.Equal(t, model.TypeStruct, w.TypeKind)
	require.Equal(t, []string{"Size"}, w.SeeTags)
	require.NotContains(t, w.Doc, "@see")
	require.Equal(t, []model.TypeRef{{Package: "io", Name: "Reader"}, {Name: "Base"}}, w.Embedded)
	require.Contains(t, w.Signature, "type Widget struct")
	require.NotContains(t, w.Signature, "secret")

	var fieldNames []string
	for _, f := range w.Fields {
		fieldNames = append(fieldNames, f.Name)
	}
	require.Equal(t, []string{"Reader", "Base", "Name"}, fieldNames)
	require.Equal(t, "Name of the widget.\n", w.Fields[2].Doc)

	require.Len(t, w.Funcs, 1)
	require.Equal(t, "NewWidget", w.Funcs[0].Name)
	require.Equal(t, []string{"SampleNewWidget"}, w.Funcs[0].Samples)
	require.Equal(t, "func NewWidget() *Widget", w.Funcs[0].Signature)

	var methods []string
	for _, fn := range w.Methods {
		methods = append(methods, fn.Name)
		require.Equal(t, "Widget", fn.Recv)
	}
	require.Equal(t, []string{"Enlarge", "Grow"}, methods)
	require.True(t, w.Methods[0].Deprecated)
	require.Equal(t, filepath.Join(root, "widgets.go"), w.File)
	require.Equal(t, 12, w.Line)

	shape := pkg.Type("Shape")
	require.Equal(t, model.TypeInterface, shape.TypeKind)
	require.Equal(t, []model.TypeRef{{Package: "io", Name: "Closer"}}, shape.Embedded)
	require.Equal(t, "Area() float64", shape.Methods[0].Signature)

	d, _ := pkg.Lookup("Large")
	require.NotNil(t, d)
	require.Equal(t, model.KindConst, d.Kind)
	d, _ = pkg.Lookup("Default")
	require.Equal(t, model.KindVar, d.Kind)
}

func TestParseExcludesUnparsableFilesOnly(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "good.go"), "package p\n\n// Good is fine.\nfunc Good() {}\n")
	writeFile(t, filepath.Join(root, "bad.go"), "package p\n\nfunc Broken( {\n")

	var sink diag.Collector
	res, err := (&Parser{Sink: &sink}).Parse(t.Context(), newRequest(t, []string{root}, nil))
	require.NoError(t, err)
	require.Equal(t, 1, res.FilesParsed)
	require.Equal(t, 1, res.FilesFailed)

	diags := sink.Diagnostics()
	require.Len(t, diags, 1)
	require.Equal(t, diag.CodeParseFailed, diags[0].Code)
	require.Equal(t, diag.SeverityError, diags[0].Severity)
	require.Equal(t, filepath.Join(root, "bad.go"), diags[0].File)
	require.NotZero(t, diags[0].Line)

	require.Len(t, res.Module.Packages, 1)
	d, _ := res.Module.Packages[0].Lookup("Good")
	require.NotNil(t, d, "sibling declarations survive")
}

func TestParseSkipsIgnoredDirectoriesAndTests(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.go"), "package a\n\nfunc A() {}\n")
	writeFile(t, filepath.Join(root, "a_test.go"), "package a\n\nfunc ExampleA() {\n\tA()\n\t// Output:\n}\n")
	for _, dir := range []string{"testdata", "vendor", ".hidden", "_old"} {
		writeFile(t, filepath.Join(root, dir, "x.go"), "package x\n\nfunc X() {}\n")
	}

	res, err := (&Parser{}).Parse(t.Context(), newRequest(t, []string{root}, nil))
	require.NoError(t, err)
	require.Equal(t, 1, res.FilesParsed)
	require.Len(t, res.Module.Packages, 1)

	res, err = (&Parser{}).Parse(t.Context(), newRequest(t, []string{root}, func(in *docgen.OptionsInput) { in.IncludeTests = true }))
	require.NoError(t, err)
	require.Equal(t, 2, res.FilesParsed)
	a, _ := res.Module.Packages[0].Lookup("A")
	require.Len(t, a.Examples, 1, "examples in test files attach to their target")
	require.Equal(t, "A()\n", a.Examples[0].Code)
}

func TestParseIncludeUnexported(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.go"), "package a\n\nfunc hidden() {}\n\nfunc Shown() {}\n")

	res, err := (&Parser{}).Parse(t.Context(), newRequest(t, []string{root}, nil))
	require.NoError(t, err)
	require.Len(t, res.Module.Packages[0].Funcs, 1)

	res, err = (&Parser{}).Parse(t.Context(), newRequest(t, []string{root}, func(in *docgen.OptionsInput) { in.IncludeUnexported = true }))
	require.NoError(t, err)
	require.Len(t, res.Module.Packages[0].Funcs, 2)
}

func TestParseSecondRootIsNamespaced(t *testing.T) {
	first := t.TempDir()
	second := filepath.Join(t.TempDir(), "extra")
	writeFile(t, filepath.Join(first, "a.go"), "package a\n")
	writeFile(t, filepath.Join(second, "b.go"), "package b\n")

	res, err := (&Parser{}).Parse(t.Context(), newRequest(t, []string{first, second}, nil))
	require.NoError(t, err)
	require.Equal(t, "example.com/m", res.Module.Packages[0].ImportPath)
	require.Equal(t, "example.com/m/extra", res.Module.Packages[1].ImportPath)
}

func TestParseHonorsCancellation(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.go"), "package a\n")
	ctx, cancel := contextCanceled(t)
	defer cancel()
	_, err := (&Parser{}).Parse(ctx, newRequest(t, []string{root}, nil))
	require.Error(t, err)
}

func TestImportName(t *testing.T) {
	require.Equal(t, "io", importName("io"))
	require.Equal(t, "http", importName("net/http"))
	require.Equal(t, "yaml", importName("gopkg.in/yaml.v3"))
	require.Equal(t, "gocron", importName("github.com/go-co-op/gocron/v2"))
	require.Equal(t, "git", importName("github.com/go-git/go-git/v5"))
}

func TestParseSourceKeepsFileScopeForGoDoc(t *testing.T) {
	path := filepath.Join(t.TempDir(), "widgets.go")
	writeFile(t, path, widgetsSrc)

	fset := token.NewFileSet()
	f, err := parseSource(fset, path)
	require.NoError(t, err)
	require.NotNil(t, f.Scope)
	require.NotEmpty(t, f.Scope.Objects)

	dpkg, err := doc.NewFromFiles(fset, []*ast.File{f}, "example.com/m")
	require.NoError(t, err)
	require.Equal(t, "widgets", dpkg.Name)
}
