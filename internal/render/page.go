package render

import (
	"fmt"
	"go/doc"
	"go/doc/comment"
	"html/template"
	"strings"

	"golang.org/x/text/cases"

	"git.home.luguber.info/inful/docgen/internal/model"
)

// page is the value every template executes against.
type page struct {
	Title   string
	Root    string // relative path from the page to the output root
	Module  *model.Module
	Package *model.Package
	Type    *model.Declaration

	ext      string
	markdown bool
	caser    cases.Caser
	files    typeFiles
}

// typeFiles maps import path and type name to the base name of the type page.
type typeFiles map[string]map[string]string

// assignTypeFiles gives every type a page name that stays unique on
// case-insensitive file systems and never shadows the package index.
// Go identifiers cannot contain '-', so suffixed names never meet a real type.
func assignTypeFiles(m *model.Module) typeFiles {
	out := make(typeFiles, len(m.Packages))
	for _, pkg := range m.Packages {
		names := make(map[string]string, len(pkg.Types))
		taken := map[string]bool{"index": true}
		for _, t := range pkg.Types {
			base := t.Name
			for i := 1; taken[strings.ToLower(base)]; i++ {
				base = fmt.Sprintf("%s-%d", t.Name, i)
			}
			taken[strings.ToLower(base)] = true
			names[t.Name] = base
		}
		out[pkg.ImportPath] = names
	}
	return out
}

func (f typeFiles) file(pkg *model.Package, name string) string {
	if base, ok := f[pkg.ImportPath][name]; ok {
		return base
	}
	return name
}

// item wraps one declaration rendered by the "decl" template.
type item struct {
	Page    *page
	Decl    *model.Declaration
	ID      string
	Aliases []string // further anchors, one per extra name of a const or var group
	Heading string
}

type seeItem struct {
	Text string
	Href string
}

func (p *page) PackageHref(pkg *model.Package) string {
	return p.Root + pkg.Slug + "/index" + p.ext
}

func (p *page) TypeHref(pkg *model.Package, t *model.Declaration) string {
	return p.Root + pkg.Slug + "/" + p.files.file(pkg, t.Name) + p.ext
}

// Raw marks include HTML, already rendered by goldmark, as safe.
func (p *page) Raw(s string) template.HTML {
	return template.HTML(s) // #nosec G203 -- produced by goldmark with raw HTML disabled
}

// Synopsis returns the first sentence of a doc comment with links flattened
// to their text.
func (p *page) Synopsis(text string) string {
	parser := &comment.Parser{LookupSym: func(string, string) bool { return true }}
	printer := &comment.Printer{TextWidth: -1}
	var dp doc.Package
	return dp.Synopsis(string(printer.Text(parser.Parse(text))))
}

func (p *page) Label(s string) string {
	return p.caser.String(s)
}

func (p *page) Item(d *model.Declaration) item {
	it := item{Page: p, Decl: d, ID: model.Anchor(d.Recv, d.Name), Heading: heading(d)}
	if len(d.Names) > 1 {
		it.Aliases = d.Names[1:]
	}
	return it
}

func heading(d *model.Declaration) string {
	switch d.Kind {
	case model.KindMethod:
		return "func (" + d.Recv + ") " + d.Name
	case model.KindFunc:
		return "func " + d.Name
	case model.KindType:
		return "type " + d.Name
	case model.KindConst, model.KindVar:
		names := d.Names
		if len(names) == 0 {
			names = []string{d.Name}
		}
		return string(d.Kind) + " " + strings.Join(names, ", ")
	default:
		return d.Name
	}
}

// Href returns the link target of ref, or "" when it cannot be linked.
func (p *page) Href(ref model.Reference) string {
	if !ref.Resolved {
		return ""
	}
	if ref.URL != "" {
		return ref.URL
	}
	target := p.Module.Package(ref.Package)
	if target == nil {
		return ""
	}
	name := "index"
	if ref.Page != "" {
		name = p.files.file(target, ref.Page)
	}
	href := p.Root + target.Slug + "/" + name + p.ext
	if ref.Anchor != "" {
		href += "#" + ref.Anchor
	}
	return href
}

func (p *page) SeeList(refs []model.Reference) []seeItem {
	out := make([]seeItem, 0, len(refs))
	for _, r := range refs {
		out = append(out, seeItem{Text: r.Text, Href: p.Href(r)})
	}
	return out
}

// Doc renders a doc comment. Links are classified exactly as analysis did:
// qualifiers go through the package's recorded aliases and symbols only
// count when analysis produced a reference for them.
func (p *page) Doc(text string, refs []model.Reference) template.HTML {
	if text == "" {
		return ""
	}
	parser := &comment.Parser{
		LookupPackage: p.lookupPackage,
		LookupSym: func(recv, name string) bool {
			_, ok := model.FindRef(refs, model.RefKey("", recv, name))
			return ok
		},
	}
	printer := &comment.Printer{
		DocLinkURL: func(l *comment.DocLink) string {
			ref, ok := model.FindRef(refs, model.RefKey(l.ImportPath, l.Recv, l.Name))
			if !ok {
				return ""
			}
			return p.Href(ref)
		},
		HeadingLevel: 4,
	}
	d := parser.Parse(text)
	if p.markdown {
		return template.HTML(printer.Markdown(d)) // #nosec G203 -- text/template output
	}
	return template.HTML(printer.HTML(d)) // #nosec G203 -- comment.Printer escapes text
}

func (p *page) lookupPackage(name string) (string, bool) {
	if p.Package != nil {
		for _, a := range p.Package.Aliases {
			if a.Name == name {
				return a.Path, true
			}
		}
	}
	return "", false
}
