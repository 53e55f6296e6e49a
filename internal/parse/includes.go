package parse

import (
	"bufio"
	"bytes"
	"os"
	"strings"

	"git.home.luguber.info/inful/docgen/internal/diag"
	"git.home.luguber.info/inful/docgen/internal/model"
	"github.com/yuin/goldmark"
)

// section is one "# Module" or "# Package" block of an include file.
type section struct {
	kind   string // "Module" or "Package"
	target string
	line   int
	body   []byte
}

// splitSections splits include markdown on level-1 "Module"/"Package"
// headings. Text before the first heading is ignored; headings inside fenced
// code blocks are not section boundaries.
func splitSections(src []byte) []section {
	var (
		out     []section
		current *section
		fenced  bool
		lineNo  int
	)
	sc := bufio.NewScanner(bytes.NewReader(src))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			fenced = !fenced
		}
		if !fenced && strings.HasPrefix(line, "# ") {
			fields := strings.Fields(strings.TrimPrefix(line, "# "))
			if len(fields) >= 1 && (fields[0] == "Module" || fields[0] == "Package") {
				if current != nil {
					out = append(out, *current)
				}
				target := ""
				if len(fields) > 1 {
					target = fields[1]
				}
				current = &section{kind: fields[0], target: target, line: lineNo}
				continue
			}
		}
		if current != nil {
			current.body = append(current.body, line...)
			current.body = append(current.body, '\n')
		}
	}
	if current != nil {
		out = append(out, *current)
	}
	return out
}

// attachIncludes renders include sections to HTML and attaches them to the
// module or the named package, in include order.
func attachIncludes(m *model.Module, paths []string, sink diag.Sink) {
	md := goldmark.New()
	for _, path := range paths {
		src, err := os.ReadFile(path)
		if err != nil {
			sink.Emit(diag.Error(StageName, diag.CodeIncludeFailed, path, 0, "cannot read include: %v", err))
			continue
		}
		for _, sec := range splitSections(src) {
			var html bytes.Buffer
			if err := md.Convert(sec.body, &html); err != nil {
				sink.Emit(diag.Error(StageName, diag.CodeIncludeFailed, path, sec.line, "cannot render include section: %v", err))
				continue
			}
			if sec.kind == "Module" {
				m.Doc += html.String()
				continue
			}
			pkg := findPackage(m, sec.target)
			if pkg == nil {
				sink.Emit(diag.Warning(StageName, diag.CodeIncludeFailed, path, sec.line, "include names unknown package %q", sec.target))
				continue
			}
			pkg.IncludeDoc += html.String()
		}
	}
}

// findPackage matches by import path, then import path suffix, then package name.
func findPackage(m *model.Module, target string) *model.Package {
	if target == "" {
		return nil
	}
	if p := m.Package(target); p != nil {
		return p
	}
	for _, p := range m.Packages {
		if strings.HasSuffix(p.ImportPath, "/"+target) {
			return p
		}
	}
	for _, p := range m.Packages {
		if p.Name == target {
			return p
		}
	}
	return nil
}
