package parse

import (
	"bytes"
	"go/ast"
	"go/doc"
	"go/printer"
	"go/token"
	"path"
	"regexp"
	"sort"
	"strings"

	"git.home.luguber.info/inful/docgen/internal/model"
)

var (
	deprecatedRe = regexp.MustCompile(`(?m)^Deprecated: `)
	majorRe      = regexp.MustCompile(`^v[0-9]+$`)
)

// converter turns one go/doc package into a model.Package.
type converter struct {
	fset       *token.FileSet
	imports    map[string]map[string]string // filename -> local name -> path
	unexported bool
}

func convertPackage(fset *token.FileSet, dp *doc.Package, files []*ast.File, unexported bool) *model.Package {
	c := &converter{fset: fset, imports: map[string]map[string]string{}, unexported: unexported}
	all := map[string]string{}
	for _, f := range files {
		names := map[string]string{}
		for _, spec := range f.Imports {
			p := strings.Trim(spec.Path.Value, `"`)
			local := importName(p)
			if spec.Name != nil {
				local = spec.Name.Name
			}
			names[local] = p
			if local != "_" && local != "." {
				all[local] = p
			}
		}
		c.imports[fset.Position(f.Package).Filename] = names
	}

	pkg := &model.Package{
		Name:       dp.Name,
		ImportPath: dp.ImportPath,
	}
	pkg.Doc, _, _ = extractTags(dp.Doc)
	locals := make([]string, 0, len(all))
	for local := range all {
		locals = append(locals, local)
	}
	sort.Strings(locals)
	for _, local := range locals {
		pkg.Imports = append(pkg.Imports, model.Import{Name: local, Path: all[local]})
	}

	pkg.Consts = c.values(model.KindConst, dp.Consts)
	pkg.Vars = c.values(model.KindVar, dp.Vars)
	for _, f := range dp.Funcs {
		pkg.Funcs = append(pkg.Funcs, c.function(f))
	}
	for _, t := range dp.Types {
		pkg.Types = append(pkg.Types, c.typ(t))
		pkg.Consts = append(pkg.Consts, c.values(model.KindConst, t.Consts)...)
		pkg.Vars = append(pkg.Vars, c.values(model.KindVar, t.Vars)...)
	}
	for _, ex := range dp.Examples {
		pkg.Examples = append(pkg.Examples, c.example(ex))
	}
	return pkg
}

func (c *converter) values(kind model.Kind, vals []*doc.Value) []*model.Declaration {
	out := make([]*model.Declaration, 0, len(vals))
	for _, v := range vals {
		if len(v.Names) == 0 {
			continue
		}
		decl := *v.Decl
		decl.Doc = nil
		d := &model.Declaration{
			Kind:      kind,
			Name:      v.Names[0],
			Names:     append([]string(nil), v.Names...),
			Signature: c.print(&decl),
		}
		c.describe(d, v.Doc, v.Decl.Pos())
		out = append(out, d)
	}
	return out
}

func (c *converter) function(f *doc.Func) *model.Declaration {
	decl := *f.Decl
	decl.Doc = nil
	decl.Body = nil
	kind := model.KindFunc
	if f.Recv != "" {
		kind = model.KindMethod
	}
	d := &model.Declaration{
		Kind:      kind,
		Name:      f.Name,
		Recv:      strings.TrimPrefix(f.Recv, "*"),
		Signature: c.print(&decl),
	}
	c.describe(d, f.Doc, f.Decl.Pos())
	for _, ex := range f.Examples {
		d.Examples = append(d.Examples, c.example(ex))
	}
	return d
}

func (c *converter) typ(t *doc.Type) *model.Declaration {
	d := &model.Declaration{Kind: model.KindType, Name: t.Name, TypeKind: model.TypeOther}
	var spec *ast.TypeSpec
	for _, s := range t.Decl.Specs {
		if ts, ok := s.(*ast.TypeSpec); ok && ts.Name.Name == t.Name {
			spec = ts
			break
		}
	}
	pos := t.Decl.Pos()
	if spec != nil {
		pos = spec.Pos()
		cp := *spec
		cp.Doc = nil
		cp.Comment = nil
		d.Signature = c.print(&ast.GenDecl{Tok: token.TYPE, Specs: []ast.Spec{&cp}})
		c.members(d, spec)
	}
	c.describe(d, t.Doc, pos)

	for _, f := range t.Funcs {
		d.Funcs = append(d.Funcs, c.function(f))
	}
	for _, m := range t.Methods {
		if m.Level > 0 {
			decl := *m.Decl
			decl.Doc, decl.Body = nil, nil
			d.Inherited = append(d.Inherited, model.Inherited{
				Kind:      model.KindMethod,
				Name:      m.Name,
				Origin:    strings.TrimPrefix(m.Orig, "*"),
				Signature: c.print(&decl),
			})
			continue
		}
		fn := c.function(m)
		fn.Recv = t.Name
		d.Methods = append(d.Methods, fn)
	}
	for _, ex := range t.Examples {
		d.Examples = append(d.Examples, c.example(ex))
	}
	return d
}

// members records fields, interface methods and embedded types.
func (c *converter) members(d *model.Declaration, spec *ast.TypeSpec) {
	if spec.Assign.IsValid() {
		d.TypeKind = model.TypeAlias
		return
	}
	file := c.fset.Position(spec.Pos()).Filename
	switch st := spec.Type.(type) {
	case *ast.StructType:
		d.TypeKind = model.TypeStruct
		for _, field := range st.Fields.List {
			if len(field.Names) == 0 {
				ref, ok := c.typeRef(file, field.Type)
				if !ok {
					continue
				}
				d.Embedded = append(d.Embedded, ref)
				fd := &model.Declaration{Kind: model.KindField, Name: ref.Name, Recv: d.Name, Signature: c.print(field.Type)}
				c.describe(fd, fieldDoc(field), field.Pos())
				d.Fields = append(d.Fields, fd)
				continue
			}
			for _, name := range field.Names {
				if !c.unexported && !name.IsExported() {
					continue
				}
				fd := &model.Declaration{
					Kind:      model.KindField,
					Name:      name.Name,
					Recv:      d.Name,
					Signature: name.Name + " " + c.print(field.Type),
				}
				c.describe(fd, fieldDoc(field), name.Pos())
				d.Fields = append(d.Fields, fd)
			}
		}
	case *ast.InterfaceType:
		d.TypeKind = model.TypeInterface
		for _, field := range st.Methods.List {
			if len(field.Names) == 0 {
				if ref, ok := c.typeRef(file, field.Type); ok {
					d.Embedded = append(d.Embedded, ref)
				}
				continue
			}
			ft, ok := field.Type.(*ast.FuncType)
			if !ok {
				continue
			}
			for _, name := range field.Names {
				if !c.unexported && !name.IsExported() {
					continue
				}
				md := &model.Declaration{
					Kind:      model.KindMethod,
					Name:      name.Name,
					Recv:      d.Name,
					Signature: name.Name + strings.TrimPrefix(c.print(ft), "func"),
				}
				c.describe(md, fieldDoc(field), name.Pos())
				d.Methods = append(d.Methods, md)
			}
		}
	}
}

func fieldDoc(f *ast.Field) string {
	if text := f.Doc.Text(); text != "" {
		return text
	}
	return f.Comment.Text()
}

// typeRef resolves an embedded type expression to a package-qualified name.
func (c *converter) typeRef(file string, expr ast.Expr) (model.TypeRef, bool) {
	switch e := expr.(type) {
	case *ast.StarExpr:
		return c.typeRef(file, e.X)
	case *ast.IndexExpr:
		return c.typeRef(file, e.X)
	case *ast.IndexListExpr:
		return c.typeRef(file, e.X)
	case *ast.Ident:
		return model.TypeRef{Name: e.Name}, true
	case *ast.SelectorExpr:
		x, ok := e.X.(*ast.Ident)
		if !ok {
			return model.TypeRef{}, false
		}
		p := c.imports[file][x.Name]
		if p == "" {
			p = x.Name
		}
		return model.TypeRef{Package: p, Name: e.Sel.Name}, true
	}
	return model.TypeRef{}, false
}

// describe fills the documentation and position fields shared by all declarations.
func (c *converter) describe(d *model.Declaration, text string, pos token.Pos) {
	d.Doc, d.Samples, d.SeeTags = extractTags(text)
	d.Deprecated = deprecatedRe.MatchString(d.Doc)
	p := c.fset.Position(pos)
	d.File = p.Filename
	d.Line = p.Line
}

func (c *converter) example(ex *doc.Example) *model.Example {
	return &model.Example{
		Name:   ex.Name,
		Suffix: ex.Suffix,
		Code:   blockBody(c.fset, ex.Code, ex.Comments),
		Output: ex.Output,
		File:   c.fset.Position(ex.Code.Pos()).Filename,
	}
}

func (c *converter) print(node any) string {
	var buf bytes.Buffer
	cfg := printer.Config{Mode: printer.UseSpaces | printer.TabIndent, Tabwidth: 8}
	if err := cfg.Fprint(&buf, c.fset, node); err != nil {
		return ""
	}
	return buf.String()
}

// extractTags removes @sample and @see lines from a doc comment and returns them separately.
func extractTags(text string) (docText string, samples, see []string) {
	if !strings.Contains(text, "@") {
		return text, nil, nil
	}
	var kept []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "@sample "):
			samples = append(samples, strings.TrimSpace(strings.TrimPrefix(trimmed, "@sample ")))
		case strings.HasPrefix(trimmed, "@see "):
			see = append(see, strings.TrimSpace(strings.TrimPrefix(trimmed, "@see ")))
		default:
			kept = append(kept, line)
		}
	}
	docText = strings.Join(kept, "\n")
	docText = strings.TrimRight(docText, "\n")
	if docText != "" {
		docText += "\n"
	}
	return docText, samples, see
}

// importName guesses the package name of an import path: the last element,
// skipping a major version suffix and trimming a ".vN" gopkg.in suffix.
func importName(p string) string {
	base := path.Base(p)
	if majorRe.MatchString(base) {
		base = path.Base(path.Dir(p))
	}
	if i := strings.Index(base, ".v"); i > 0 {
		base = base[:i]
	}
	return strings.TrimPrefix(base, "go-")
}
