package analyze

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"git.home.luguber.info/inful/docgen/internal/diag"
	"git.home.luguber.info/inful/docgen/internal/model"
	"git.home.luguber.info/inful/docgen/internal/parse"
)

// bindSamples attaches Example functions to the declarations their names
// designate and @sample targets to the declarations naming them. Packages
// whose name matches the sample file's package are searched first.
func bindSamples(m *model.Module, samples []parse.Sample, sink diag.Sink) int {
	bound := 0
	for _, s := range samples {
		if !s.IsExample() {
			continue
		}
		target, method, suffix := splitExampleName(s.Example.Name)
		ex := *s.Example
		ex.Suffix = suffix
		attached := false
		for _, pkg := range searchOrder(m, s.Package) {
			if target == "" {
				pkg.Examples = append(pkg.Examples, &ex)
				attached = true
				break
			}
			if d := exampleTarget(pkg, target, method); d != nil {
				d.Examples = append(d.Examples, &ex)
				attached = true
				break
			}
		}
		if attached {
			bound++
			continue
		}
		sink.Emit(diag.Warning(StageName, diag.CodeUnknownSample, s.Example.File, 0,
			"example %s does not match any declaration", s.Func))
	}

	for _, pkg := range m.Packages {
		pkg.Walk(func(d *model.Declaration) {
			for _, tag := range d.Samples {
				s, ok := findSample(samples, pkg.Name, tag)
				if !ok {
					sink.Emit(diag.Warning(StageName, diag.CodeUnknownSample, d.File, d.Line,
						"@sample %s names an unknown function", tag))
					continue
				}
				ex := *s.Example
				ex.Name = s.Func
				d.Examples = append(d.Examples, &ex)
				bound++
			}
		})
	}
	return bound
}

// splitExampleName splits "T_M_suffix" into type, method and suffix. A part
// starting with a lower-case letter begins the suffix.
func splitExampleName(name string) (target, method, suffix string) {
	if name == "" {
		return "", "", ""
	}
	parts := strings.Split(name, "_")
	target = parts[0]
	rest := parts[1:]
	if len(rest) > 0 && startsUpper(rest[0]) {
		method = rest[0]
		rest = rest[1:]
	}
	return target, method, strings.Join(rest, "_")
}

func startsUpper(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsUpper(r)
}

func exampleTarget(pkg *model.Package, target, method string) *model.Declaration {
	if method == "" {
		d, _ := pkg.Lookup(target)
		return d
	}
	t := pkg.Type(target)
	if t == nil {
		return nil
	}
	for _, fn := range t.Methods {
		if fn.Name == method {
			return fn
		}
	}
	return nil
}

func searchOrder(m *model.Module, name string) []*model.Package {
	out := make([]*model.Package, 0, len(m.Packages))
	for _, p := range m.Packages {
		if p.Name == name {
			out = append(out, p)
		}
	}
	for _, p := range m.Packages {
		if p.Name != name {
			out = append(out, p)
		}
	}
	return out
}

// findSample matches the last dotted element of tag against function names,
// preferring samples declared for pkgName.
func findSample(samples []parse.Sample, pkgName, tag string) (parse.Sample, bool) {
	fn := tag
	if i := strings.LastIndex(tag, "."); i >= 0 {
		fn = tag[i+1:]
	}
	var fallback *parse.Sample
	for i := range samples {
		if samples[i].Func != fn {
			continue
		}
		if samples[i].Package == pkgName {
			return samples[i], true
		}
		if fallback == nil {
			fallback = &samples[i]
		}
	}
	if fallback != nil {
		return *fallback, true
	}
	return parse.Sample{}, false
}
