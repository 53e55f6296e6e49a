// Package render writes the analyzed documentation model to the output
// directory as an HTML site, a markdown tree, or a JSON or msgpack dump.
package render

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	htmltemplate "html/template"
	"log/slog"
	"path/filepath"
	texttemplate "text/template"

	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"git.home.luguber.info/inful/docgen/internal/diag"
	"git.home.luguber.info/inful/docgen/internal/docgen"
	derrors "git.home.luguber.info/inful/docgen/internal/foundation/errors"
	"git.home.luguber.info/inful/docgen/internal/frontmatter"
	"git.home.luguber.info/inful/docgen/internal/linkverify"
	"git.home.luguber.info/inful/docgen/internal/logfields"
	"git.home.luguber.info/inful/docgen/internal/model"
)

// StageName is used on every diagnostic this package emits.
const StageName = "render"

//go:embed templates/*.tmpl templates/style.css
var templateFS embed.FS

var (
	htmlTemplates     = htmltemplate.Must(htmltemplate.ParseFS(templateFS, "templates/*.html.tmpl"))
	markdownTemplates = texttemplate.Must(texttemplate.ParseFS(templateFS, "templates/*.md.tmpl"))
)

// Stats summarizes one render.
type Stats struct {
	Files       int
	BrokenLinks int
}

// Renderer writes output. It is not safe for concurrent use.
type Renderer struct {
	Sink diag.Sink
}

// Render clears the output directory and writes m in the configured format.
// Write failures are fatal and leave partial output in place.
func (r *Renderer) Render(ctx context.Context, opts docgen.Options, m *model.Module) (*Stats, error) {
	if r.Sink == nil {
		r.Sink = diag.Discard
	}
	dir := opts.OutputDirectory()
	if err := prepareOutput(dir); err != nil {
		return nil, err
	}

	w := &writer{ctx: ctx, dir: dir}
	var err error
	switch opts.OutputFormat() {
	case docgen.FormatMarkdown:
		err = w.pages(m, ".md", true)
	case docgen.FormatJSON:
		err = w.json(m)
	case docgen.FormatMsgpack:
		err = w.msgpack(m)
	default:
		err = w.pages(m, ".html", false)
		if err == nil {
			err = w.asset("style.css")
		}
	}
	stats := &Stats{Files: w.files}
	if err != nil {
		return stats, err
	}

	if opts.OutputFormat() == docgen.FormatHTML {
		stats.BrokenLinks = r.verify(dir)
	}
	slog.Debug("Rendered output", logfields.Path(dir), logfields.Format(string(opts.OutputFormat())), logfields.Count(stats.Files))
	return stats, nil
}

func (r *Renderer) verify(dir string) int {
	broken, err := linkverify.VerifyTree(dir)
	if err != nil {
		slog.Warn("Link verification failed", logfields.Path(dir), logfields.Error(err))
		return 0
	}
	for _, b := range broken {
		r.Sink.Emit(diag.Warning(StageName, diag.CodeBrokenLink, filepath.Join(dir, filepath.FromSlash(b.Page)), 0,
			"broken link %q: %s", b.URL, b.Reason))
	}
	return len(broken)
}

type writer struct {
	ctx   context.Context
	dir   string
	files int
}

func (w *writer) write(rel string, content []byte) error {
	if err := w.ctx.Err(); err != nil {
		return err
	}
	if err := writeFile(w.dir, rel, content); err != nil {
		return err
	}
	w.files++
	return nil
}

// pages writes the index, one page per package and one page per type.
func (w *writer) pages(m *model.Module, ext string, markdown bool) error {
	caser := cases.Title(language.English)
	files := assignTypeFiles(m)
	newPage := func(root string) *page {
		return &page{Root: root, Module: m, ext: ext, markdown: markdown, caser: caser, files: files}
	}

	index := newPage("")
	index.Title = m.Name
	if err := w.page("index"+ext, "index", index, map[string]any{"kind": "module"}); err != nil {
		return err
	}
	for _, pkg := range m.Packages {
		p := newPage("../")
		p.Title, p.Package = "Package "+pkg.Name, pkg
		fields := map[string]any{"kind": "package", "package": pkg.ImportPath}
		if err := w.page(pkg.Slug+"/index"+ext, "package", p, fields); err != nil {
			return err
		}
		for _, t := range pkg.Types {
			tp := newPage("../")
			tp.Title, tp.Package, tp.Type = pkg.Name+"."+t.Name, pkg, t
			fields := map[string]any{"kind": "type", "package": pkg.ImportPath}
			if err := w.page(pkg.Slug+"/"+files.file(pkg, t.Name)+ext, "type", tp, fields); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *writer) page(rel, tmpl string, p *page, fields map[string]any) error {
	var buf bytes.Buffer
	if p.markdown {
		if err := markdownTemplates.ExecuteTemplate(&buf, tmpl+".md.tmpl", p); err != nil {
			return derrors.WrapError(err, derrors.CategoryInternal, "execute template "+tmpl).Build()
		}
		fields["title"] = p.Title
		fields["module"] = p.Module.Name
		out, err := frontmatter.Compose(fields, buf.Bytes())
		if err != nil {
			return derrors.WrapError(err, derrors.CategoryInternal, "compose frontmatter for "+rel).Build()
		}
		return w.write(rel, out)
	}
	if err := htmlTemplates.ExecuteTemplate(&buf, tmpl+".html.tmpl", p); err != nil {
		return derrors.WrapError(err, derrors.CategoryInternal, "execute template "+tmpl).Build()
	}
	return w.write(rel, buf.Bytes())
}

func (w *writer) asset(name string) error {
	b, err := templateFS.ReadFile("templates/" + name)
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryInternal, "embedded asset missing: "+name).Build()
	}
	return w.write("assets/"+name, b)
}

func (w *writer) json(m *model.Module) error {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryInternal, "encode module as json").Build()
	}
	return w.write("module.json", append(b, '\n'))
}

func (w *writer) msgpack(m *model.Module) error {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(m); err != nil {
		return derrors.WrapError(err, derrors.CategoryInternal, "encode module as msgpack").Build()
	}
	return w.write("module.msgpack", buf.Bytes())
}
