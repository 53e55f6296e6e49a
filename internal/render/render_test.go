package render

import (
	"context"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"git.home.luguber.info/inful/docgen/internal/diag"
	"git.home.luguber.info/inful/docgen/internal/docgen"
	derrors "git.home.luguber.info/inful/docgen/internal/foundation/errors"
	"git.home.luguber.info/inful/docgen/internal/frontmatter"
	"git.home.luguber.info/inful/docgen/internal/model"
)

func sampleModule() *model.Module {
	const path = "example.com/m/widgets"
	widget := &model.Declaration{
		Kind:      model.KindType,
		Name:      "Widget",
		TypeKind:  model.TypeStruct,
		Signature: "type Widget struct {\n\tSize int\n}",
		Doc:       "Widget is a thing. It grows with [Widget.Grow] and uses [Missing].\n",
		SourceURL: "https://git.example.com/blob/main/widgets.go#L5",
		Refs: []model.Reference{
			{Key: "Missing", Text: "Missing"},
			{Key: "Widget.Grow", Text: "Widget.Grow", Resolved: true, Package: path, Page: "Widget", Anchor: "Widget.Grow"},
		},
		Fields: []*model.Declaration{
			{Kind: model.KindField, Name: "Size", Recv: "Widget", Signature: "int", Doc: "Size in units.\n"},
		},
		Funcs: []*model.Declaration{
			{Kind: model.KindFunc, Name: "NewWidget", Signature: "func NewWidget() *Widget"},
		},
		Methods: []*model.Declaration{
			{
				Kind: model.KindMethod, Name: "Grow", Recv: "Widget", Signature: "func (w *Widget) Grow()",
				Doc: "Grow enlarges [Widget.Size]. See [io.Reader].\n",
				Refs: []model.Reference{
					{Key: "Widget.Size", Text: "Widget.Size", Resolved: true, Package: path, Page: "Widget", Anchor: "Widget.Size"},
					{Key: "io.Reader", Text: "io.Reader", Resolved: true, URL: "https://pkg.go.dev/io@go1.6#Reader"},
				},
				Examples: []*model.Example{{Name: "Widget_Grow", Code: "w.Grow()\n", Output: "grown\n"}},
			},
		},
		Inherited: []model.Inherited{{Kind: model.KindMethod, Name: "Reset", Origin: "Base", Signature: "func (b *Base) Reset()"}},
		SeeAlso: []model.Reference{
			{Key: "NewWidget", Text: "NewWidget", Resolved: true, Package: path, Page: "Widget", Anchor: "NewWidget"},
			{Key: "https://example.com", Text: "https://example.com", Resolved: true, URL: "https://example.com"},
		},
	}
	return &model.Module{
		Name: "example.com/m",
		Doc:  "<p>Module overview.</p>\n",
		Packages: []*model.Package{{
			Name:       "widgets",
			ImportPath: path,
			Slug:       "widgets",
			Doc:        "Package widgets builds [Widget] values.\n",
			Aliases:    []model.Import{{Name: "io", Path: "io"}},
			Refs:       []model.Reference{{Key: "Widget", Text: "Widget", Resolved: true, Package: path, Page: "Widget"}},
			Consts: []*model.Declaration{
				{Kind: model.KindConst, Name: "Small", Names: []string{"Small", "Large"}, Signature: "const (\n\tSmall = 1\n\tLarge = 2\n)"},
			},
			Types: []*model.Declaration{widget},
		}},
	}
}

func options(t *testing.T, dir, format string) docgen.Options {
	t.Helper()
	opts, err := docgen.NewOptions(docgen.OptionsInput{ModuleName: "example.com/m", OutputDirectory: dir, OutputFormat: format})
	require.NoError(t, err)
	return opts
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func TestRenderHTML(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	var sink diag.Collector
	stats, err := (&Renderer{Sink: &sink}).Render(t.Context(), options(t, dir, "html"), sampleModule())
	require.NoError(t, err)
	require.Equal(t, 4, stats.Files)
	require.Zero(t, stats.BrokenLinks)
	require.Empty(t, sink.Diagnostics())

	for _, rel := range []string{MarkerFile, "index.html", "widgets/index.html", "widgets/Widget.html", "assets/style.css"} {
		require.FileExists(t, filepath.Join(dir, rel))
	}

	index := readFile(t, filepath.Join(dir, "index.html"))
	require.Contains(t, index, `<a href="widgets/index.html">example.com/m/widgets</a>`)
	require.Contains(t, index, "Package widgets builds Widget values.")
	require.Contains(t, index, "<p>Module overview.</p>")

	pkg := readFile(t, filepath.Join(dir, "widgets", "index.html"))
	require.Contains(t, pkg, `<a href="../widgets/Widget.html">Widget</a>`)
	require.Contains(t, pkg, `<span id="Large"></span>`)
	require.Contains(t, pkg, "<h2>Constants</h2>")

	typ := readFile(t, filepath.Join(dir, "widgets", "Widget.html"))
	require.Contains(t, typ, `href="../widgets/Widget.html#Widget.Grow"`)
	require.Contains(t, typ, `href="https://pkg.go.dev/io@go1.6#Reader"`)
	require.Contains(t, typ, `id="Widget.Size"`)
	require.Contains(t, typ, `<tr id="Widget.Reset">`)
	require.Contains(t, typ, "<h2>Inherited Members</h2>")
	require.Contains(t, typ, `<a class="source" href="https://git.example.com/blob/main/widgets.go#L5">source</a>`)
	require.Contains(t, typ, "uses Missing.")
	require.NotContains(t, typ, "Missing.html")
}

func TestRenderHTMLReportsBrokenLinks(t *testing.T) {
	dir := t.TempDir()
	m := sampleModule()
	m.Packages[0].IncludeDoc = `<p><a href="nowhere.html">gone</a></p>`

	var sink diag.Collector
	stats, err := (&Renderer{Sink: &sink}).Render(t.Context(), options(t, dir, "html"), m)
	require.NoError(t, err)
	require.Equal(t, 1, stats.BrokenLinks)
	require.Equal(t, []string{diag.CodeBrokenLink}, sink.Codes())
	d := sink.Diagnostics()[0]
	require.Equal(t, diag.SeverityWarning, d.Severity)
	require.Equal(t, filepath.Join(dir, "widgets", "index.html"), d.File)
}

func TestRenderMarkdown(t *testing.T) {
	dir := t.TempDir()
	stats, err := (&Renderer{}).Render(t.Context(), options(t, dir, "md"), sampleModule())
	require.NoError(t, err)
	require.Equal(t, 3, stats.Files)
	require.NoFileExists(t, filepath.Join(dir, "assets", "style.css"))

	content := readFile(t, filepath.Join(dir, "widgets", "Widget.md"))
	fm, body, had, err := frontmatter.Split([]byte(content))
	require.NoError(t, err)
	require.True(t, had)
	fields, err := frontmatter.ParseYAML(fm)
	require.NoError(t, err)
	require.Equal(t, "type", fields["kind"])
	require.Equal(t, "widgets.Widget", fields["title"])
	require.Equal(t, "example.com/m/widgets", fields["package"])
	require.Equal(t, "example.com/m", fields["module"])

	ok, err := frontmatter.Verify([]byte(content))
	require.NoError(t, err)
	require.True(t, ok)

	require.Contains(t, string(body), "[Widget.Grow](../widgets/Widget.md#Widget.Grow)")
	require.Contains(t, string(body), "## Methods")

	index := readFile(t, filepath.Join(dir, "index.md"))
	require.Contains(t, index, "| [example.com/m/widgets](widgets/index.md) |")
}

func TestRenderJSON(t *testing.T) {
	dir := t.TempDir()
	stats, err := (&Renderer{}).Render(t.Context(), options(t, dir, "json"), sampleModule())
	require.NoError(t, err)
	require.Equal(t, 1, stats.Files)

	var got model.Module
	require.NoError(t, json.Unmarshal([]byte(readFile(t, filepath.Join(dir, "module.json"))), &got))
	require.Equal(t, "example.com/m", got.Name)
	require.Len(t, got.Packages, 1)
	require.Equal(t, "Widget", got.Packages[0].Types[0].Name)
	require.Empty(t, got.Packages[0].Aliases)
}

func TestRenderMsgpack(t *testing.T) {
	dir := t.TempDir()
	_, err := (&Renderer{}).Render(t.Context(), options(t, dir, "msgpack"), sampleModule())
	require.NoError(t, err)

	b, err := os.ReadFile(filepath.Join(dir, "module.msgpack"))
	require.NoError(t, err)
	var got model.Module
	require.NoError(t, msgpack.Unmarshal(b, &got))
	require.Equal(t, "example.com/m", got.Name)
	require.Equal(t, "Grow", got.Packages[0].Types[0].Methods[0].Name)
}

func snapshot(t *testing.T, root string) map[string]string {
	t.Helper()
	out := map[string]string{}
	require.NoError(t, filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		out[filepath.ToSlash(rel)] = readFile(t, p)
		return nil
	}))
	return out
}

func TestRenderIsDeterministic(t *testing.T) {
	for _, format := range []string{"html", "markdown", "json", "msgpack"} {
		t.Run(format, func(t *testing.T) {
			a, b := t.TempDir(), t.TempDir()
			_, err := (&Renderer{}).Render(t.Context(), options(t, a, format), sampleModule())
			require.NoError(t, err)
			_, err = (&Renderer{}).Render(t.Context(), options(t, b, format), sampleModule())
			require.NoError(t, err)
			require.Equal(t, snapshot(t, a), snapshot(t, b))
		})
	}
}

func TestRenderReplacesPreviousOutput(t *testing.T) {
	dir := t.TempDir()
	_, err := (&Renderer{}).Render(t.Context(), options(t, dir, "html"), sampleModule())
	require.NoError(t, err)

	_, err = (&Renderer{}).Render(t.Context(), options(t, dir, "json"), sampleModule())
	require.NoError(t, err)
	require.NoFileExists(t, filepath.Join(dir, "index.html"))
	require.FileExists(t, filepath.Join(dir, "module.json"))
	require.FileExists(t, filepath.Join(dir, MarkerFile))
}

func TestRenderRefusesForeignDirectory(t *testing.T) {
	dir := t.TempDir()
	keep := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(keep, []byte("mine"), 0o600))

	_, err := (&Renderer{}).Render(t.Context(), options(t, dir, "html"), sampleModule())
	require.Error(t, err)
	require.True(t, derrors.HasCode(err, derrors.CodeIOFailure))
	require.True(t, derrors.HasCategory(err, derrors.CategoryFileSystem))
	require.FileExists(t, keep)
	require.NoFileExists(t, filepath.Join(dir, "index.html"))
}

func TestRenderStopsOnCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	_, err := (&Renderer{}).Render(ctx, options(t, t.TempDir(), "html"), sampleModule())
	require.ErrorIs(t, err, context.Canceled)
}

func TestHeading(t *testing.T) {
	m := sampleModule()
	w := m.Packages[0].Types[0]
	require.Equal(t, "type Widget", heading(w))
	require.Equal(t, "func (Widget) Grow", heading(w.Methods[0]))
	require.Equal(t, "func NewWidget", heading(w.Funcs[0]))
	require.Equal(t, "const Small, Large", heading(m.Packages[0].Consts[0]))
	require.Equal(t, "Size", heading(w.Fields[0]))
	require.True(t, strings.HasPrefix(heading(&model.Declaration{Kind: model.KindVar, Name: "X"}), "var X"))
}

func TestRenderTypePagesNeverShadowPackageIndex(t *testing.T) {
	dir := t.TempDir()
	m := sampleModule()
	pkg := m.Packages[0]
	pkg.Types = append(pkg.Types,
		&model.Declaration{Kind: model.KindType, Name: "Index", TypeKind: model.TypeStruct, Signature: "type Index struct{}"},
		&model.Declaration{Kind: model.KindType, Name: "index", TypeKind: model.TypeStruct, Signature: "type index struct{}"},
	)

	stats, err := (&Renderer{}).Render(t.Context(), options(t, dir, "html"), m)
	require.NoError(t, err)
	require.Equal(t, 6, stats.Files)
	require.Zero(t, stats.BrokenLinks)

	index := readFile(t, filepath.Join(dir, "widgets", "index.html"))
	require.Contains(t, index, "<title>Package widgets</title>")
	require.Contains(t, index, `href="../widgets/Index-1.html"`)
	require.Contains(t, index, `href="../widgets/index-2.html"`)
	require.Contains(t, readFile(t, filepath.Join(dir, "widgets", "Index-1.html")), "<title>widgets.Index</title>")
	require.Contains(t, readFile(t, filepath.Join(dir, "widgets", "index-2.html")), "<title>widgets.index</title>")

	p := &page{Module: m, ext: ".html", files: assignTypeFiles(m)}
	ref := model.Reference{Resolved: true, Package: pkg.ImportPath, Page: "index", Anchor: "index"}
	require.Equal(t, "widgets/index-2.html#index", p.Href(ref))
	require.Equal(t, "widgets/index.html", p.Href(model.Reference{Resolved: true, Package: pkg.ImportPath}))
}
