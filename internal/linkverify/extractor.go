// Package linkverify checks the internal links of a rendered HTML tree.
package linkverify

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/docgen/internal/foundation/errors"
)

// Link represents an extracted link from HTML content.
type Link struct {
	URL       string // The URL or path as written
	Tag       string // HTML tag (a, img, link, script)
	Attribute string // Attribute containing the link (href or src)
}

// IsInternal reports whether the link points into the same tree: no scheme,
// no host and not protocol-relative.
func (l Link) IsInternal() bool {
	u := l.URL
	if u == "" || strings.HasPrefix(u, "//") {
		return false
	}
	if i := strings.IndexAny(u, ":/?#"); i >= 0 && u[i] == ':' {
		return false
	}
	return true
}

// Page is what a single HTML file contributes to verification.
type Page struct {
	Links []Link
	IDs   map[string]bool
}

// ExtractPage extracts links and element ids from an HTML file.
func ExtractPage(htmlPath string) (*Page, error) {
	file, err := os.Open(filepath.Clean(htmlPath))
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to open HTML file").
			WithContext("html_path", htmlPath).
			Build()
	}
	defer func() {
		_ = file.Close()
	}()
	return ExtractPageFromReader(file)
}

// ExtractPageFromReader extracts links and element ids from an HTML reader.
func ExtractPageFromReader(r io.Reader) (*Page, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryValidation, "failed to parse HTML").Build()
	}
	page := &Page{IDs: map[string]bool{}}
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if id := getAttr(n, "id"); id != "" {
				page.IDs[id] = true
			}
			extractElementLinks(n, page)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return page, nil
}

func extractElementLinks(n *html.Node, page *Page) {
	var attr string
	switch n.Data {
	case "a", "link":
		attr = "href"
	case "img", "script":
		attr = "src"
	default:
		return
	}
	if v := getAttr(n, attr); v != "" {
		page.Links = append(page.Links, Link{URL: v, Tag: n.Data, Attribute: attr})
	}
}

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
