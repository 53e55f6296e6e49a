// Package model defines the documentation model shared by the parse, analyze
// and render stages. Every slice is kept in a deterministic order.
package model

import "strings"

// Kind identifies what a Declaration documents.
type Kind string

const (
	KindType   Kind = "type"
	KindFunc   Kind = "func"
	KindMethod Kind = "method"
	KindConst  Kind = "const"
	KindVar    Kind = "var"
	KindField  Kind = "field"
)

// TypeKind refines KindType declarations.
type TypeKind string

const (
	TypeStruct    TypeKind = "struct"
	TypeInterface TypeKind = "interface"
	TypeAlias     TypeKind = "alias"
	TypeOther     TypeKind = "other"
)

// Module is the root of the documentation model.
type Module struct {
	Name     string     `json:"name" msgpack:"name"`
	Doc      string     `json:"doc,omitempty" msgpack:"doc,omitempty"` // HTML from includes
	Packages []*Package `json:"packages" msgpack:"packages"`
}

// Package documents one Go package.
type Package struct {
	Name       string `json:"name" msgpack:"name"`
	ImportPath string `json:"import_path" msgpack:"import_path"`
	// Slug is the output directory name of the package pages.
	Slug       string   `json:"slug" msgpack:"slug"`
	Dir        string   `json:"-" msgpack:"-"`
	Doc        string   `json:"doc,omitempty" msgpack:"doc,omitempty"`
	IncludeDoc string   `json:"include_doc,omitempty" msgpack:"include_doc,omitempty"`
	Imports    []Import `json:"-" msgpack:"-"`
	// Aliases records the qualifiers doc comments used for other packages.
	Aliases  []Import       `json:"-" msgpack:"-"`
	Consts   []*Declaration `json:"consts,omitempty" msgpack:"consts,omitempty"`
	Vars     []*Declaration `json:"vars,omitempty" msgpack:"vars,omitempty"`
	Funcs    []*Declaration `json:"funcs,omitempty" msgpack:"funcs,omitempty"`
	Types    []*Declaration `json:"types,omitempty" msgpack:"types,omitempty"`
	Examples []*Example     `json:"examples,omitempty" msgpack:"examples,omitempty"`
	Refs     []Reference    `json:"refs,omitempty" msgpack:"refs,omitempty"`
	SeeAlso  []Reference    `json:"see_also,omitempty" msgpack:"see_also,omitempty"`
}

// Import is one import of a package's files.
type Import struct {
	Name string // local name: alias or last path element
	Path string
}

// Declaration documents a type, function, method, value group or field.
type Declaration struct {
	Kind       Kind     `json:"kind" msgpack:"kind"`
	Name       string   `json:"name" msgpack:"name"`
	Names      []string `json:"names,omitempty" msgpack:"names,omitempty"` // value groups
	Recv       string   `json:"recv,omitempty" msgpack:"recv,omitempty"`
	TypeKind   TypeKind `json:"type_kind,omitempty" msgpack:"type_kind,omitempty"`
	Signature  string   `json:"signature" msgpack:"signature"`
	Doc        string   `json:"doc,omitempty" msgpack:"doc,omitempty"`
	File       string   `json:"file" msgpack:"file"`
	Line       int      `json:"line" msgpack:"line"`
	Deprecated bool     `json:"deprecated,omitempty" msgpack:"deprecated,omitempty"`
	SourceURL  string   `json:"source_url,omitempty" msgpack:"source_url,omitempty"`

	Fields    []*Declaration `json:"fields,omitempty" msgpack:"fields,omitempty"`
	Methods   []*Declaration `json:"methods,omitempty" msgpack:"methods,omitempty"`
	Funcs     []*Declaration `json:"funcs,omitempty" msgpack:"funcs,omitempty"` // constructors
	Embedded  []TypeRef      `json:"embedded,omitempty" msgpack:"embedded,omitempty"`
	Inherited []Inherited    `json:"inherited,omitempty" msgpack:"inherited,omitempty"`
	Examples  []*Example     `json:"examples,omitempty" msgpack:"examples,omitempty"`
	Refs      []Reference    `json:"refs,omitempty" msgpack:"refs,omitempty"`
	SeeAlso   []Reference    `json:"see_also,omitempty" msgpack:"see_also,omitempty"`
	// Samples lists @sample targets named in the doc comment.
	Samples []string `json:"-" msgpack:"-"`
	// SeeTags lists raw @see targets; analysis turns them into SeeAlso.
	SeeTags []string `json:"-" msgpack:"-"`
}

// TypeRef names an embedded type. Package is an import path, empty for the
// declaring package.
type TypeRef struct {
	Package string `json:"package,omitempty" msgpack:"package,omitempty"`
	Name    string `json:"name" msgpack:"name"`
}

func (r TypeRef) String() string {
	if r.Package == "" {
		return r.Name
	}
	return r.Package + "." + r.Name
}

// Inherited is a member promoted through embedding.
type Inherited struct {
	Kind      Kind   `json:"kind" msgpack:"kind"`
	Name      string `json:"name" msgpack:"name"`
	Origin    string `json:"origin" msgpack:"origin"`
	Signature string `json:"signature" msgpack:"signature"`
}

// Example is a runnable example or sample attached to a declaration.
type Example struct {
	Name   string `json:"name" msgpack:"name"`
	Suffix string `json:"suffix,omitempty" msgpack:"suffix,omitempty"`
	Code   string `json:"code" msgpack:"code"`
	Output string `json:"output,omitempty" msgpack:"output,omitempty"`
	File   string `json:"-" msgpack:"-"`
}

// Reference is a resolved cross-reference. Exactly one of URL (external) or
// Package (internal, an import path within the module) is set when Resolved.
type Reference struct {
	Key      string `json:"key" msgpack:"key"`
	Text     string `json:"text" msgpack:"text"`
	Resolved bool   `json:"resolved" msgpack:"resolved"`
	URL      string `json:"url,omitempty" msgpack:"url,omitempty"`
	Package  string `json:"package,omitempty" msgpack:"package,omitempty"`
	Page     string `json:"page,omitempty" msgpack:"page,omitempty"` // type name, empty for the package page
	Anchor   string `json:"anchor,omitempty" msgpack:"anchor,omitempty"`
}

// RefKey builds the lookup key of a doc link target.
func RefKey(importPath, recv, name string) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{importPath, recv, name} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ".")
}

// Anchor is the in-page anchor of a member.
func Anchor(recv, name string) string {
	if recv == "" {
		return name
	}
	return recv + "." + name
}

// FindRef returns the reference with the given key.
func FindRef(refs []Reference, key string) (Reference, bool) {
	for _, r := range refs {
		if r.Key == key {
			return r, true
		}
	}
	return Reference{}, false
}

// Package returns the package with the given import path, or nil.
func (m *Module) Package(importPath string) *Package {
	for _, p := range m.Packages {
		if p.ImportPath == importPath {
			return p
		}
	}
	return nil
}

// Type returns the named type declaration, or nil.
func (p *Package) Type(name string) *Declaration {
	for _, t := range p.Types {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// Lookup finds a package-level symbol: a type, function, or a name in a
// value group. It returns the declaration and the page it is documented on.
func (p *Package) Lookup(name string) (*Declaration, string) {
	if t := p.Type(name); t != nil {
		return t, t.Name
	}
	for _, f := range p.Funcs {
		if f.Name == name {
			return f, ""
		}
	}
	for _, t := range p.Types {
		for _, f := range t.Funcs {
			if f.Name == name {
				return f, t.Name
			}
		}
	}
	for _, group := range [][]*Declaration{p.Consts, p.Vars} {
		for _, v := range group {
			for _, n := range v.Names {
				if n == name {
					return v, ""
				}
			}
		}
	}
	return nil, ""
}

// Member finds a method, field or inherited member of the type.
func (d *Declaration) Member(name string) (Kind, bool) {
	for _, m := range d.Methods {
		if m.Name == name {
			return KindMethod, true
		}
	}
	for _, f := range d.Fields {
		if f.Name == name {
			return f.Kind, true
		}
	}
	for _, in := range d.Inherited {
		if in.Name == name {
			return in.Kind, true
		}
	}
	return "", false
}

// Walk calls fn for every declaration of the package, nested members included,
// in document order.
func (p *Package) Walk(fn func(*Declaration)) {
	for _, group := range [][]*Declaration{p.Consts, p.Vars, p.Funcs} {
		for _, d := range group {
			fn(d)
		}
	}
	for _, t := range p.Types {
		fn(t)
		for _, group := range [][]*Declaration{t.Fields, t.Funcs, t.Methods} {
			for _, d := range group {
				fn(d)
			}
		}
	}
}

// Count returns the number of declarations in the module.
func (m *Module) Count() int {
	n := 0
	for _, p := range m.Packages {
		p.Walk(func(*Declaration) { n++ })
	}
	return n
}

// IsExported reports whether name starts with an upper-case letter.
func IsExported(name string) bool {
	if name == "" {
		return false
	}
	c := name[0]
	return c >= 'A' && c <= 'Z'
}
