// Package analyze resolves cross-references, promoted members, samples and
// source links on a parsed documentation model. It runs single-threaded.
package analyze

import (
	"context"
	"go/doc/comment"
	"log/slog"
	"sort"
	"strings"

	"git.home.luguber.info/inful/docgen/internal/diag"
	"git.home.luguber.info/inful/docgen/internal/docgen"
	derrors "git.home.luguber.info/inful/docgen/internal/foundation/errors"
	"git.home.luguber.info/inful/docgen/internal/linkmap"
	"git.home.luguber.info/inful/docgen/internal/logfields"
	"git.home.luguber.info/inful/docgen/internal/model"
	"git.home.luguber.info/inful/docgen/internal/parse"
)

// StageName is used on every diagnostic this package emits.
const StageName = "analyze"

// Stats summarizes an analysis pass.
type Stats struct {
	References  int
	Unresolved  int
	Inherited   int
	Examples    int
	SourceLinks int
}

// Analyzer enriches a model in place.
type Analyzer struct {
	Sink diag.Sink
	// Registry overrides the registry built from the request's link mappings.
	Registry *linkmap.Registry
}

// Analyze resolves references (fatal when strict), promoted members, samples
// and source links.
func (a *Analyzer) Analyze(ctx context.Context, req *docgen.Request, m *model.Module, samples []parse.Sample) (*Stats, error) {
	sink := a.Sink
	if sink == nil {
		sink = diag.Discard
	}
	opts := req.Options
	reg := a.Registry
	if reg == nil {
		var err error
		reg, err = linkmap.FromMappings(opts.SourceLinks())
		if err != nil {
			return nil, err
		}
		reg = reg.WithRevisionExpansion()
	}

	r := &resolver{
		module:          m,
		classpath:       buildClasspathIndex(req.Classpath),
		platformVersion: opts.PlatformVersion(),
	}
	stats := &Stats{}
	var firstUnresolved *model.Reference

	report := func(ref model.Reference, file string, line int) {
		stats.References++
		if ref.Resolved {
			return
		}
		stats.Unresolved++
		if firstUnresolved == nil {
			cp := ref
			firstUnresolved = &cp
		}
		if opts.IsStrict() {
			sink.Emit(diag.Error(StageName, diag.CodeUnresolvedReference, file, line, "unresolved reference %q", ref.Text))
			return
		}
		sink.Emit(diag.Warning(StageName, diag.CodeUnresolvedReference, file, line, "unresolved reference %q", ref.Text))
	}

	for _, pkg := range m.Packages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := r.parser(pkg)
		pkg.Refs, pkg.SeeAlso = a.links(r, p, pkg, pkg.Doc, nil, func(ref model.Reference) { report(ref, pkg.Dir, 0) })
		pkg.Walk(func(d *model.Declaration) {
			d.Refs, d.SeeAlso = a.links(r, p, pkg, d.Doc, d.SeeTags, func(ref model.Reference) { report(ref, d.File, d.Line) })
		})
	}

	for _, pkg := range m.Packages {
		for _, t := range pkg.Types {
			stats.Inherited += promote(m, pkg, t)
		}
	}

	stats.Examples = bindSamples(m, samples, sink)

	for _, pkg := range m.Packages {
		pkg.Walk(func(d *model.Declaration) {
			if d.File == "" {
				return
			}
			if url, ok := reg.Resolve(d.File, d.Line); ok {
				d.SourceURL = url
				stats.SourceLinks++
			}
		})
	}

	slog.Debug("Analyzed module",
		logfields.Module(m.Name),
		slog.Int("references", stats.References),
		slog.Int("unresolved", stats.Unresolved),
		slog.Int("inherited", stats.Inherited),
		slog.Int("source_links", stats.SourceLinks))

	if firstUnresolved != nil && opts.IsStrict() {
		return stats, derrors.GenerationError("unresolved reference "+firstUnresolved.Text).
			WithCode(derrors.CodeUnresolvedReference).
			WithContext("reference", firstUnresolved.Text).
			WithContext("unresolved", stats.Unresolved).
			Fatal().
			Build()
	}
	return stats, nil
}

// links resolves the doc links of text and the @see tags. Each distinct key
// is reported once per declaration.
func (a *Analyzer) links(r *resolver, p *comment.Parser, pkg *model.Package, text string, see []string, report func(model.Reference)) (refs, seeAlso []model.Reference) {
	seen := map[string]bool{}
	if text != "" {
		for _, l := range docLinks(p.Parse(text)) {
			key := model.RefKey(l.ImportPath, l.Recv, l.Name)
			if seen[key] {
				continue
			}
			seen[key] = true
			ref := r.resolve(pkg, l.ImportPath, l.Recv, l.Name, linkText(l))
			report(ref)
			refs = append(refs, ref)
		}
	}
	for _, target := range see {
		if strings.Contains(target, "://") {
			seeAlso = append(seeAlso, model.Reference{Key: target, Text: target, Resolved: true, URL: target})
			continue
		}
		importPath, recv, name := r.splitSee(pkg, target)
		ref := r.resolve(pkg, importPath, recv, name, target)
		report(ref)
		seeAlso = append(seeAlso, ref)
	}
	sort.SliceStable(refs, func(i, j int) bool { return refs[i].Key < refs[j].Key })
	return refs, seeAlso
}
