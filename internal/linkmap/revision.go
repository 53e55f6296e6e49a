package linkmap

import (
	"log/slog"
	"strings"
	"sync"

	"git.home.luguber.info/inful/docgen/internal/logfields"
	"github.com/go-git/go-git/v5"
)

// RevisionPlaceholder in a mapping URL is replaced by the HEAD commit of the
// repository containing the mapping directory.
const RevisionPlaceholder = "{revision}"

// WithRevisionExpansion enables {revision} substitution. Lookups are cached per directory.
func (r *Registry) WithRevisionExpansion() *Registry {
	var (
		mu    sync.Mutex
		cache = map[string]string{}
	)
	r.mu.Lock()
	r.expand = func(m Mapping) string {
		if !strings.Contains(m.URL, RevisionPlaceholder) {
			return m.URL
		}
		mu.Lock()
		rev, ok := cache[m.Dir]
		if !ok {
			rev = HeadRevision(m.Dir)
			cache[m.Dir] = rev
		}
		mu.Unlock()
		return strings.ReplaceAll(m.URL, RevisionPlaceholder, rev)
	}
	r.mu.Unlock()
	return r
}

// HeadRevision returns the HEAD commit hash of the git repository containing
// dir, or "HEAD" when dir is not inside a repository.
func HeadRevision(dir string) string {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		slog.Warn("No git repository for link mapping, using HEAD", logfields.Path(dir), logfields.Error(err))
		return "HEAD"
	}
	ref, err := repo.Head()
	if err != nil {
		slog.Warn("Unable to resolve HEAD for link mapping", logfields.Path(dir), logfields.Error(err))
		return "HEAD"
	}
	return ref.Hash().String()
}
