package parse

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// sourceFile is one .go file found under a source root.
type sourceFile struct {
	Path string
	Root int // index into the request's source roots
}

// skipDir reports whether a directory below a source root is ignored, the
// same way the go tool ignores it.
func skipDir(name string) bool {
	return name == "testdata" || name == "vendor" ||
		strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")
}

// discover walks every source root and returns the .go files to parse,
// sorted by path. A file reachable from two roots is kept once, under the
// first root.
func discover(roots []string, includeTests bool) ([]sourceFile, error) {
	seen := map[string]bool{}
	var out []sourceFile
	for i, root := range roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != root && skipDir(d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}
			name := d.Name()
			if !strings.HasSuffix(name, ".go") || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
				return nil
			}
			if !includeTests && strings.HasSuffix(name, "_test.go") {
				return nil
			}
			if seen[path] {
				return nil
			}
			seen[path] = true
			out = append(out, sourceFile{Path: path, Root: i})
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Path < out[b].Path })
	return out, nil
}
