package parse

import (
	"bytes"
	"go/ast"
	"go/parser"
	"go/printer"
	"go/token"
	"strings"

	"git.home.luguber.info/inful/docgen/internal/diag"
	"git.home.luguber.info/inful/docgen/internal/model"
)

// Sample is a function from a sample file. Functions named Example* bind to
// the declaration their name designates; any function can be named by an
// @sample tag.
type Sample struct {
	Package string // package clause with any _test suffix trimmed
	Func    string
	Example *model.Example
}

// IsExample reports whether the function follows the Example naming convention.
func (s Sample) IsExample() bool {
	return s.Func == "Example" || strings.HasPrefix(s.Func, "Example")
}

// parseSamples parses each sample file and collects its top-level functions in
// file then source order. Unreadable or unparsable files are reported and skipped.
func parseSamples(paths []string, sink diag.Sink) []Sample {
	var out []Sample
	for _, path := range paths {
		fset := token.NewFileSet()
		f, err := parser.ParseFile(fset, path, nil, parser.ParseComments|parser.SkipObjectResolution)
		if err != nil {
			sink.Emit(diag.Error(StageName, diag.CodeSampleFailed, path, errorLine(err), "cannot read sample: %s", firstError(err)))
			continue
		}
		pkg := strings.TrimSuffix(f.Name.Name, "_test")
		for _, d := range f.Decls {
			fn, ok := d.(*ast.FuncDecl)
			if !ok || fn.Recv != nil || fn.Body == nil {
				continue
			}
			out = append(out, Sample{
				Package: pkg,
				Func:    fn.Name.Name,
				Example: &model.Example{
					Name:   strings.TrimPrefix(fn.Name.Name, "Example"),
					Code:   blockBody(fset, fn.Body, commentsWithin(f.Comments, fn.Body)),
					Output: exampleOutput(f.Comments, fn.Body),
					File:   path,
				},
			})
		}
	}
	return out
}

func commentsWithin(groups []*ast.CommentGroup, n ast.Node) []*ast.CommentGroup {
	var out []*ast.CommentGroup
	for _, g := range groups {
		if g.Pos() >= n.Pos() && g.End() <= n.End() {
			out = append(out, g)
		}
	}
	return out
}

// exampleOutput returns the text of a trailing "// Output:" comment in the body.
func exampleOutput(groups []*ast.CommentGroup, body *ast.BlockStmt) string {
	inner := commentsWithin(groups, body)
	if len(inner) == 0 {
		return ""
	}
	text := inner[len(inner)-1].Text()
	for _, prefix := range []string{"Output:", "Unordered output:"} {
		if rest, ok := strings.CutPrefix(text, prefix); ok {
			return strings.TrimSpace(rest) + "\n"
		}
	}
	return ""
}

// blockBody prints the statements of a block without its braces, dedented one
// level. Output comments are dropped; they are rendered separately.
func blockBody(fset *token.FileSet, node ast.Node, comments []*ast.CommentGroup) string {
	var kept []*ast.CommentGroup
	for _, g := range comments {
		text := g.Text()
		if strings.HasPrefix(text, "Output:") || strings.HasPrefix(text, "Unordered output:") {
			continue
		}
		kept = append(kept, g)
	}
	var buf bytes.Buffer
	cfg := printer.Config{Mode: printer.UseSpaces | printer.TabIndent, Tabwidth: 8}
	if err := cfg.Fprint(&buf, fset, &printer.CommentedNode{Node: node, Comments: kept}); err != nil {
		return ""
	}
	src := buf.String()
	if _, ok := node.(*ast.BlockStmt); !ok {
		return src
	}
	src = strings.TrimSpace(src)
	src = strings.TrimPrefix(src, "{")
	src = strings.TrimSuffix(src, "}")
	lines := strings.Split(strings.Trim(src, "\n"), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimPrefix(l, "\t")
	}
	out := strings.Join(lines, "\n")
	if strings.TrimSpace(out) == "" {
		return ""
	}
	return out + "\n"
}
