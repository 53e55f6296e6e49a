package linkverify

import (
	"io/fs"
	"net/url"
	"path"
	"path/filepath"
	"strings"
)

// BrokenLink is an internal link whose target file or anchor does not exist.
type BrokenLink struct {
	Page   string // slash-separated path of the page, relative to the root
	URL    string
	Reason string
}

// VerifyTree checks every internal link of every .html file under root.
// Results are in page then link order.
func VerifyTree(root string) ([]BrokenLink, error) {
	pages := map[string]*Page{}
	var order []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(p, ".html") {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		page, err := ExtractPage(p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		pages[key] = page
		order = append(order, key)
		return nil
	})
	if err != nil {
		return nil, err
	}

	files := map[string]bool{}
	_ = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			if rel, rerr := filepath.Rel(root, p); rerr == nil {
				files[filepath.ToSlash(rel)] = true
			}
		}
		return nil
	})

	var broken []BrokenLink
	for _, key := range order {
		for _, l := range pages[key].Links {
			if !l.IsInternal() {
				continue
			}
			if reason := check(key, l.URL, pages, files); reason != "" {
				broken = append(broken, BrokenLink{Page: key, URL: l.URL, Reason: reason})
			}
		}
	}
	return broken, nil
}

func check(page, raw string, pages map[string]*Page, files map[string]bool) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "malformed link"
	}
	target := page
	if u.Path != "" {
		target = path.Clean(path.Join(path.Dir(page), u.Path))
		if strings.HasPrefix(target, "../") || target == ".." {
			return "points outside the output directory"
		}
		if strings.HasSuffix(u.Path, "/") {
			target = path.Join(target, "index.html")
		}
		if !files[target] {
			return "target does not exist"
		}
	}
	if u.Fragment == "" {
		return ""
	}
	p, ok := pages[target]
	if !ok {
		return ""
	}
	if !p.IDs[u.Fragment] {
		return "anchor #" + u.Fragment + " does not exist"
	}
	return ""
}
