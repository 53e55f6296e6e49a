// Package parse turns source directories into the documentation model.
//
// Files are parsed in parallel, one fragment per file, and merged once in
// path order. A file that fails to parse is reported and left out; its
// siblings are still documented.
package parse

import (
	"context"
	"errors"
	"fmt"
	"go/ast"
	"go/doc"
	"go/parser"
	"go/scanner"
	"go/token"
	"log/slog"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"git.home.luguber.info/inful/docgen/internal/diag"
	"git.home.luguber.info/inful/docgen/internal/docgen"
	derrors "git.home.luguber.info/inful/docgen/internal/foundation/errors"
	"git.home.luguber.info/inful/docgen/internal/logfields"
	"git.home.luguber.info/inful/docgen/internal/model"
	"golang.org/x/sync/errgroup"
)

// StageName is used on every diagnostic this package emits.
const StageName = "parse"

// Result is the outcome of the parsing stage.
type Result struct {
	Module      *model.Module
	Samples     []Sample
	FilesParsed int
	FilesFailed int
}

// Parser parses one request. Jobs bounds parallelism; zero means GOMAXPROCS.
type Parser struct {
	Jobs int
	Sink diag.Sink
}

// fragment is the parse result of one file.
type fragment struct {
	file *ast.File
	err  error
}

// Parse documents every package under req.Sources and attaches includes.
// Samples are parsed and returned unbound.
func (p *Parser) Parse(ctx context.Context, req *docgen.Request) (*Result, error) {
	sink := p.Sink
	if sink == nil {
		sink = diag.Discard
	}
	opts := req.Options

	files, err := discover(req.Sources, opts.IncludeTests())
	if err != nil {
		return nil, derrors.FileSystemError("cannot list source directories").
			WithCode(derrors.CodeIOFailure).
			WithCause(err).
			Fatal().
			Build()
	}

	fset := token.NewFileSet()
	results := make([]fragment, len(files))
	jobs := p.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(jobs, len(files))))
	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			af, err := parseSource(fset, f.Path)
			results[i] = fragment{file: af, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Fan-in: diagnostics and grouping happen in path order.
	res := &Result{Module: &model.Module{Name: opts.ModuleName()}}
	groups := map[groupKey]*group{}
	var order []groupKey
	for i, f := range files {
		frag := results[i]
		if frag.err != nil {
			res.FilesFailed++
			sink.Emit(diag.Error(StageName, diag.CodeParseFailed, f.Path, errorLine(frag.err), "%s", firstError(frag.err)))
			continue
		}
		res.FilesParsed++
		key := groupKey{dir: filepath.Dir(f.Path), name: strings.TrimSuffix(frag.file.Name.Name, "_test")}
		grp, ok := groups[key]
		if !ok {
			grp = &group{root: f.Root}
			groups[key] = grp
			order = append(order, key)
		}
		grp.files = append(grp.files, frag.file)
	}

	mode := doc.Mode(0)
	if opts.IncludeUnexported() {
		mode |= doc.AllDecls
	}
	for _, key := range order {
		grp := groups[key]
		importPath := importPathFor(opts.ModuleName(), req.Sources, grp.root, key.dir)
		dpkg, err := doc.NewFromFiles(fset, grp.files, importPath, mode)
		if err != nil {
			sink.Emit(diag.Error(StageName, diag.CodeParseFailed, key.dir, 0, "%v", err))
			continue
		}
		pkg := convertPackage(fset, dpkg, grp.files, opts.IncludeUnexported())
		pkg.Dir = key.dir
		res.Module.Packages = append(res.Module.Packages, pkg)
	}
	sort.SliceStable(res.Module.Packages, func(a, b int) bool {
		return res.Module.Packages[a].ImportPath < res.Module.Packages[b].ImportPath
	})
	assignSlugs(res.Module)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	attachIncludes(res.Module, req.Includes, sink)
	res.Samples = parseSamples(req.Samples, sink)

	slog.Debug("Parsed sources",
		logfields.Module(opts.ModuleName()),
		logfields.Count(res.FilesParsed),
		slog.Int("failed", res.FilesFailed),
		slog.Int("packages", len(res.Module.Packages)))
	return res, nil
}

type groupKey struct {
	dir  string
	name string
}

type group struct {
	root  int
	files []*ast.File
}

// importPathFor derives a package import path from the module name. Packages
// under the first source root hang off the module path directly; later roots
// are namespaced by their directory name so paths stay unique.
func importPathFor(module string, roots []string, root int, dir string) string {
	base := module
	if root > 0 {
		base = module + "/" + filepath.Base(roots[root])
	}
	rel, err := filepath.Rel(roots[root], dir)
	if err != nil || rel == "." {
		return base
	}
	return base + "/" + filepath.ToSlash(rel)
}

// assignSlugs gives every package a unique output directory name.
func assignSlugs(m *model.Module) {
	used := map[string]int{}
	for _, p := range m.Packages {
		slug := strings.TrimPrefix(p.ImportPath, m.Name)
		slug = strings.Trim(slug, "/")
		if slug == "" {
			slug = p.Name
		}
		slug = strings.ReplaceAll(slug, "/", "-")
		used[slug]++
		if n := used[slug]; n > 1 {
			slug = fmt.Sprintf("%s-%d", slug, n)
		}
		p.Slug = slug
	}
}

func errorLine(err error) int {
	var list scanner.ErrorList
	if errors.As(err, &list) && len(list) > 0 {
		return list[0].Pos.Line
	}
	return 0
}

func firstError(err error) string {
	var list scanner.ErrorList
	if errors.As(err, &list) && len(list) > 0 {
		return list[0].Msg
	}
	return err.Error()
}

// parseSource parses one package file with comments and object resolution.
// go/doc reads file.Scope when it builds the package before Go 1.25.
func parseSource(fset *token.FileSet, path string) (*ast.File, error) {
	return parser.ParseFile(fset, path, nil, parser.ParseComments)
}
