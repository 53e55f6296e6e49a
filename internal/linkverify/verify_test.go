package linkverify

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func write(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
}

func TestExtractPageFromReader(t *testing.T) {
	page, err := ExtractPageFromReader(strings.NewReader(`<html><head><link rel="stylesheet" href="assets/style.css"></head>
<body><h2 id="Grow">Grow</h2><a href="pkg/index.html#Foo">x</a><img src="i.png"><a href="https://example.com">e</a></body></html>`))
	require.NoError(t, err)
	require.True(t, page.IDs["Grow"])
	require.Len(t, page.Links, 4)
	require.Equal(t, "link", page.Links[0].Tag)
	require.Equal(t, "src", page.Links[2].Attribute)
	require.False(t, page.Links[3].IsInternal())
}

func TestLinkIsInternal(t *testing.T) {
	for u, want := range map[string]bool{
		"index.html":          true,
		"../a/b.html#x":       true,
		"#anchor":             true,
		"https://example.com": false,
		"mailto:a@b.c":        false,
		"//cdn.example.com/x": false,
		"":                    false,
	} {
		require.Equal(t, want, Link{URL: u}.IsInternal(), u)
	}
}

func TestVerifyTree(t *testing.T) {
	root := t.TempDir()
	write(t, root, "index.html", `<a href="pkg/index.html">ok</a><a href="missing.html">bad</a><a href="#top">self</a><h1 id="top">t</h1>`)
	write(t, root, "pkg/index.html", `<a href="../index.html#top">ok</a><a href="Widget.html#Nope">bad anchor</a><a href="../../escape.html">out</a>`)
	write(t, root, "pkg/Widget.html", `<h2 id="Widget.Grow">Grow</h2><a href="https://pkg.go.dev/io">ext</a>`)

	broken, err := VerifyTree(root)
	require.NoError(t, err)
	require.Len(t, broken, 3)
	require.Equal(t, BrokenLink{Page: "index.html", URL: "missing.html", Reason: "target does not exist"}, broken[0])
	require.Equal(t, "pkg/index.html", broken[1].Page)
	require.Equal(t, "anchor #Nope does not exist", broken[1].Reason)
	require.Equal(t, "points outside the output directory", broken[2].Reason)
}
