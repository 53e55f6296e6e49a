package analyze

import (
	"bufio"
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/docgen/internal/logfields"
	"git.home.luguber.info/inful/docgen/internal/model"
)

// classpathPackage lists the exported symbols of one dependency package.
type classpathPackage struct {
	ImportPath string
	Name       string
	Symbols    map[string]bool // "Name" or "Recv.Name"
}

// classpathIndex holds the packages found under the dependency roots, in root then path order.
type classpathIndex struct {
	packages []*classpathPackage
}

// buildClasspathIndex parses declarations only. Unreadable roots and files
// are skipped; they only make references unresolvable.
func buildClasspathIndex(roots []string) *classpathIndex {
	idx := &classpathIndex{}
	byDir := map[string]*classpathPackage{}
	for _, root := range roots {
		modPath := modulePath(root)
		err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				name := d.Name()
				if p != root && (name == "testdata" || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")) {
					return filepath.SkipDir
				}
				return nil
			}
			if !strings.HasSuffix(p, ".go") || strings.HasSuffix(p, "_test.go") {
				return nil
			}
			f, perr := parser.ParseFile(token.NewFileSet(), p, nil, parser.SkipObjectResolution)
			if perr != nil {
				slog.Debug("Skipping unparsable classpath file", logfields.File(p), logfields.Error(perr))
				return nil
			}
			dir := filepath.Dir(p)
			pkg, ok := byDir[dir]
			if !ok {
				pkg = &classpathPackage{
					ImportPath: classpathImportPath(modPath, root, dir),
					Name:       f.Name.Name,
					Symbols:    map[string]bool{},
				}
				byDir[dir] = pkg
				idx.packages = append(idx.packages, pkg)
			}
			collectSymbols(f, pkg.Symbols)
			return nil
		})
		if err != nil {
			slog.Debug("Skipping classpath root", logfields.Path(root), logfields.Error(err))
		}
	}
	return idx
}

func collectSymbols(f *ast.File, into map[string]bool) {
	for _, decl := range f.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			if !d.Name.IsExported() {
				continue
			}
			if d.Recv != nil && len(d.Recv.List) > 0 {
				if recv := receiverName(d.Recv.List[0].Type); recv != "" {
					into[recv+"."+d.Name.Name] = true
				}
				continue
			}
			into[d.Name.Name] = true
		case *ast.GenDecl:
			for _, spec := range d.Specs {
				switch s := spec.(type) {
				case *ast.TypeSpec:
					if s.Name.IsExported() {
						into[s.Name.Name] = true
					}
				case *ast.ValueSpec:
					for _, n := range s.Names {
						if n.IsExported() {
							into[n.Name] = true
						}
					}
				}
			}
		}
	}
}

func receiverName(expr ast.Expr) string {
	switch e := expr.(type) {
	case *ast.StarExpr:
		return receiverName(e.X)
	case *ast.IndexExpr:
		return receiverName(e.X)
	case *ast.IndexListExpr:
		return receiverName(e.X)
	case *ast.Ident:
		return e.Name
	}
	return ""
}

// modulePath reads the module directive of root/go.mod, or returns "".
func modulePath(root string) string {
	f, err := os.Open(filepath.Join(root, "go.mod"))
	if err != nil {
		return ""
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if rest, ok := strings.CutPrefix(line, "module "); ok {
			return strings.Trim(strings.TrimSpace(rest), `"`)
		}
	}
	return ""
}

func classpathImportPath(modPath, root, dir string) string {
	rel, err := filepath.Rel(root, dir)
	if err != nil {
		rel = "."
	}
	rel = filepath.ToSlash(rel)
	switch {
	case modPath == "" && rel == ".":
		return filepath.Base(root)
	case modPath == "":
		return rel
	case rel == ".":
		return modPath
	default:
		return path.Join(modPath, rel)
	}
}

// find matches by import path, then import path suffix, then package name.
func (c *classpathIndex) find(qual string) *classpathPackage {
	for _, p := range c.packages {
		if p.ImportPath == qual {
			return p
		}
	}
	for _, p := range c.packages {
		if strings.HasSuffix(p.ImportPath, "/"+qual) {
			return p
		}
	}
	for _, p := range c.packages {
		if p.Name == qual {
			return p
		}
	}
	return nil
}

func (c *classpathPackage) has(recv, name string) bool {
	if name == "" {
		return true
	}
	return c.Symbols[model.RefKey("", recv, name)]
}
