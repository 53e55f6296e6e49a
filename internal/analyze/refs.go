package analyze

import (
	"fmt"
	"go/doc/comment"
	"sort"
	"strings"

	"git.home.luguber.info/inful/docgen/internal/model"
)

// resolver finds the target of a reference. Lookup order: the referencing
// package, the rest of the module, the classpath, then the standard library.
type resolver struct {
	module          *model.Module
	classpath       *classpathIndex
	platformVersion uint8
}

// lookupPackage maps a qualifier as written in a doc comment to an import path.
func (r *resolver) lookupPackage(pkg *model.Package, qual string) (string, bool) {
	for _, imp := range pkg.Imports {
		if imp.Name == qual {
			return imp.Path, true
		}
	}
	if p := r.modulePackage(qual); p != nil {
		return p.ImportPath, true
	}
	if p := r.classpath.find(qual); p != nil {
		return p.ImportPath, true
	}
	return comment.DefaultLookupPackage(qual)
}

func (r *resolver) modulePackage(qual string) *model.Package {
	if p := r.module.Package(qual); p != nil {
		return p
	}
	for _, p := range r.module.Packages {
		if strings.HasSuffix(p.ImportPath, "/"+qual) {
			return p
		}
	}
	for _, p := range r.module.Packages {
		if p.Name == qual {
			return p
		}
	}
	return nil
}

// resolve builds the Reference for importPath.recv.name as seen from pkg.
func (r *resolver) resolve(pkg *model.Package, importPath, recv, name, text string) model.Reference {
	ref := model.Reference{Key: model.RefKey(importPath, recv, name), Text: text}

	if importPath == "" {
		if inPackage(pkg, recv, name, &ref) {
			return ref
		}
		if recv == "" {
			for _, other := range r.module.Packages {
				if other != pkg && inPackage(other, "", name, &ref) {
					return ref
				}
			}
		}
		return ref
	}

	if target := r.modulePackage(importPath); target != nil {
		if name == "" {
			ref.Resolved, ref.Package = true, target.ImportPath
			return ref
		}
		inPackage(target, recv, name, &ref)
		return ref
	}
	if cp := r.classpath.find(importPath); cp != nil {
		if cp.has(recv, name) {
			ref.Resolved = true
			ref.URL = "https://pkg.go.dev/" + cp.ImportPath + fragment(recv, name)
		}
		return ref
	}
	if std, ok := comment.DefaultLookupPackage(importPath); ok {
		ref.Resolved = true
		ref.URL = fmt.Sprintf("https://pkg.go.dev/%s@go1.%d%s", std, r.platformVersion, fragment(recv, name))
	}
	return ref
}

// inPackage resolves recv.name inside pkg, filling ref on success.
func inPackage(pkg *model.Package, recv, name string, ref *model.Reference) bool {
	if recv != "" {
		t := pkg.Type(recv)
		if t == nil {
			return false
		}
		if _, ok := t.Member(name); !ok {
			return false
		}
		ref.Resolved, ref.Package, ref.Page, ref.Anchor = true, pkg.ImportPath, recv, model.Anchor(recv, name)
		return true
	}
	d, page := pkg.Lookup(name)
	if d == nil {
		return false
	}
	ref.Resolved, ref.Package, ref.Page = true, pkg.ImportPath, page
	if page != name {
		ref.Anchor = name
	}
	return true
}

func fragment(recv, name string) string {
	if name == "" {
		return ""
	}
	return "#" + model.Anchor(recv, name)
}

// parser returns a doc comment parser that recognizes links into pkg's scope.
// Exported identifiers are always treated as links so unresolved ones can be reported.
func (r *resolver) parser(pkg *model.Package) *comment.Parser {
	return &comment.Parser{
		LookupPackage: func(name string) (string, bool) {
			path, ok := r.lookupPackage(pkg, name)
			if ok {
				recordAlias(pkg, name, path)
			}
			return path, ok
		},
		LookupSym: func(recv, name string) bool {
			if model.IsExported(name) {
				return true
			}
			var ref model.Reference
			return inPackage(pkg, recv, name, &ref)
		},
	}
}

// recordAlias remembers how a qualifier resolved so renderers classify doc
// links exactly as analysis did. Aliases stay sorted by name.
func recordAlias(pkg *model.Package, name, path string) {
	i := sort.Search(len(pkg.Aliases), func(i int) bool { return pkg.Aliases[i].Name >= name })
	if i < len(pkg.Aliases) && pkg.Aliases[i].Name == name {
		return
	}
	pkg.Aliases = append(pkg.Aliases, model.Import{})
	copy(pkg.Aliases[i+1:], pkg.Aliases[i:])
	pkg.Aliases[i] = model.Import{Name: name, Path: path}
}

// docLinks returns the doc links of a comment in document order.
func docLinks(d *comment.Doc) []*comment.DocLink {
	var out []*comment.DocLink
	var texts func([]comment.Text)
	texts = func(ts []comment.Text) {
		for _, t := range ts {
			switch x := t.(type) {
			case *comment.DocLink:
				out = append(out, x)
			case *comment.Link:
				texts(x.Text)
			}
		}
	}
	var blocks func([]comment.Block)
	blocks = func(bs []comment.Block) {
		for _, b := range bs {
			switch x := b.(type) {
			case *comment.Paragraph:
				texts(x.Text)
			case *comment.Heading:
				texts(x.Text)
			case *comment.List:
				for _, item := range x.Items {
					blocks(item.Content)
				}
			}
		}
	}
	blocks(d.Content)
	return out
}

func linkText(l *comment.DocLink) string {
	var b strings.Builder
	for _, t := range l.Text {
		switch x := t.(type) {
		case comment.Plain:
			b.WriteString(string(x))
		case comment.Italic:
			b.WriteString(string(x))
		}
	}
	return b.String()
}

// splitSee splits an @see target into import path, receiver and name.
func (r *resolver) splitSee(pkg *model.Package, target string) (importPath, recv, name string) {
	target = strings.TrimSuffix(strings.TrimPrefix(target, "["), "]")
	prefix := ""
	rest := target
	if i := strings.LastIndex(target, "/"); i >= 0 {
		prefix, rest = target[:i+1], target[i+1:]
	}
	parts := strings.Split(rest, ".")
	if prefix != "" {
		importPath = prefix + parts[0]
		parts = parts[1:]
		switch len(parts) {
		case 0:
			return importPath, "", ""
		case 1:
			return importPath, "", parts[0]
		default:
			return importPath, parts[0], parts[1]
		}
	}
	switch len(parts) {
	case 1:
		return "", "", parts[0]
	case 2:
		if p, ok := r.lookupPackage(pkg, parts[0]); ok {
			return p, "", parts[1]
		}
		return "", parts[0], parts[1]
	default:
		p, ok := r.lookupPackage(pkg, parts[0])
		if !ok {
			p = parts[0]
		}
		return p, parts[1], parts[2]
	}
}
