// Package linkmap maps local source directories to hosted source URLs.
package linkmap

import (
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	derrors "git.home.luguber.info/inful/docgen/internal/foundation/errors"
)

// Mapping associates a local directory with the URL its files are browsable at.
// When Suffix is set the declaration line number is appended after it.
type Mapping struct {
	Dir    string `json:"dir" yaml:"dir" toml:"dir"`
	URL    string `json:"url" yaml:"url" toml:"url"`
	Suffix string `json:"suffix,omitempty" yaml:"suffix,omitempty" toml:"suffix"`
}

// Registry holds validated link mappings in registration order.
type Registry struct {
	mu       sync.RWMutex
	mappings []Mapping
	expand   func(Mapping) string
}

// NewRegistry returns an empty registry. URLs are used verbatim; see WithRevisionExpansion.
func NewRegistry() *Registry {
	return &Registry{}
}

// FromMappings builds a registry by registering every mapping in order.
func FromMappings(ms []Mapping) (*Registry, error) {
	r := NewRegistry()
	for _, m := range ms {
		if err := r.Register(m.Dir, m.URL, m.Suffix); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register validates and appends a mapping. Duplicates are kept. The registry
// is left unchanged on error.
func (r *Registry) Register(dir, url, suffix string) error {
	dir = strings.TrimSpace(dir)
	url = strings.TrimSpace(url)
	if dir == "" || url == "" {
		field := "dir"
		if dir != "" {
			field = "url"
		}
		return derrors.NewError(derrors.CategoryConfig, "link mapping "+field+" must not be empty").
			WithCode(derrors.CodeInvalidLinkMapping).
			WithContext("dir", dir).
			WithContext("url", url).
			Fatal().
			Build()
	}
	r.mu.Lock()
	r.mappings = append(r.mappings, Mapping{Dir: dir, URL: url, Suffix: suffix})
	r.mu.Unlock()
	return nil
}

// Mappings returns a copy of the registered mappings in insertion order.
func (r *Registry) Mappings() []Mapping {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Mapping, len(r.mappings))
	copy(out, r.mappings)
	return out
}

// Len reports the number of registered mappings.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.mappings)
}

// Resolve returns the source URL for a file. The mapping with the longest
// directory prefix (by path components) wins; among equally long prefixes the
// last registered wins. A non-positive line is not appended.
func (r *Registry) Resolve(path string, line int) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	best := -1
	bestDepth := -1
	var bestRel string
	for i, m := range r.mappings {
		rel, ok := relativeTo(m.Dir, path)
		if !ok {
			continue
		}
		depth := componentCount(m.Dir)
		if depth >= bestDepth {
			best, bestDepth, bestRel = i, depth, rel
		}
	}
	if best < 0 {
		return "", false
	}

	m := r.mappings[best]
	base := m.URL
	if r.expand != nil {
		base = r.expand(m)
	}
	url := strings.TrimSuffix(base, "/")
	if bestRel != "" {
		url += "/" + bestRel
	}
	if m.Suffix != "" && line > 0 {
		url += m.Suffix + strconv.Itoa(line)
	}
	return url, true
}

// relativeTo reports whether path lies under dir (component-wise) and returns
// the slash-separated remainder.
func relativeTo(dir, path string) (string, bool) {
	dir = filepath.Clean(dir)
	path = filepath.Clean(path)
	if dir == path {
		return "", true
	}
	rel, err := filepath.Rel(dir, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	if filepath.IsAbs(dir) != filepath.IsAbs(path) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func componentCount(dir string) int {
	clean := filepath.ToSlash(filepath.Clean(dir))
	if clean == "." || clean == "/" {
		return 0
	}
	return len(strings.Split(strings.Trim(clean, "/"), "/"))
}
