package analyze

import "git.home.luguber.info/inful/docgen/internal/model"

// promote records the members a type gains through embedding, breadth first
// so shallower members shadow deeper ones. Own members always win. Only types
// documented in this module are followed.
func promote(m *model.Module, pkg *model.Package, t *model.Declaration) int {
	if len(t.Embedded) == 0 {
		return 0
	}
	seen := map[string]bool{}
	for _, d := range t.Methods {
		seen[d.Name] = true
	}
	for _, d := range t.Fields {
		seen[d.Name] = true
	}
	for _, in := range t.Inherited {
		seen[in.Name] = true
	}

	type pending struct {
		pkg *model.Package
		ref model.TypeRef
	}
	visited := map[string]bool{pkg.ImportPath + "." + t.Name: true}
	var level []pending
	for _, ref := range t.Embedded {
		level = append(level, pending{pkg: pkg, ref: ref})
	}

	added := 0
	for len(level) > 0 {
		var next []pending
		var found []model.Inherited
		for _, p := range level {
			owner := p.pkg
			if p.ref.Package != "" {
				owner = m.Package(p.ref.Package)
			}
			if owner == nil {
				continue
			}
			key := owner.ImportPath + "." + p.ref.Name
			if visited[key] {
				continue
			}
			visited[key] = true
			origin := owner.Type(p.ref.Name)
			if origin == nil {
				continue
			}
			originName := origin.Name
			if owner != pkg {
				originName = owner.Name + "." + origin.Name
			}
			for _, d := range origin.Fields {
				found = append(found, model.Inherited{Kind: model.KindField, Name: d.Name, Origin: originName, Signature: d.Signature})
			}
			for _, d := range origin.Methods {
				found = append(found, model.Inherited{Kind: model.KindMethod, Name: d.Name, Origin: originName, Signature: d.Signature})
			}
			found = append(found, origin.Inherited...)
			for _, ref := range origin.Embedded {
				next = append(next, pending{pkg: owner, ref: ref})
			}
		}
		for _, in := range found {
			if seen[in.Name] {
				continue
			}
			seen[in.Name] = true
			t.Inherited = append(t.Inherited, in)
			added++
		}
		level = next
	}
	return added
}
