package linkverify

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const samplePage = `<!doctype html><html><head>
<link rel="stylesheet" href="style.css">
</head><body>
<a href="https://nbviewer.org/github/o/r/blob/main/notebooks/x.ipynb">View <b>(nbviewer)</b></a>
<a href="#top">top</a>
<a href="mailto:a@b.c">mail</a>
<a href="/projects.html">root</a>
<img src="img/a%26b.png" alt="a&amp;b">
<img src="img/missing.png" alt="gone">
<img src="../outside.png" alt="escape">
<script src="app.js"></script>
</body></html>`

func TestExtractLinksFromReader(t *testing.T) {
	links, err := ExtractLinksFromReader(strings.NewReader(samplePage))
	require.NoError(t, err)
	require.Len(t, links, 9)

	require.Equal(t, Link{URL: "style.css", Text: "stylesheet", Tag: "link", Attribute: "href", IsLocal: true}, links[0])
	require.Equal(t, "View(nbviewer)", links[1].Text)
	require.False(t, links[1].IsLocal)
	require.False(t, links[2].IsLocal, "anchor")
	require.False(t, links[3].IsLocal, "mailto")
	require.False(t, links[4].IsLocal, "site-root path")
	require.Equal(t, Link{URL: "img/a%26b.png", Text: "a&b", Tag: "img", Attribute: "src", IsLocal: true}, links[5])
	require.Equal(t, "script", links[8].Tag)
}

func TestVerifyLocal(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "img"), 0o750))
	for _, name := range []string{"style.css", "app.js", filepath.Join("img", "a&b.png")} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600))
	}
	page := filepath.Join(dir, "index.html")
	require.NoError(t, os.WriteFile(page, []byte(samplePage), 0o600))

	broken, err := VerifyLocal(page)
	require.NoError(t, err)
	require.Len(t, broken, 2)
	require.Equal(t, "img/missing.png", broken[0].Link.URL)
	require.Equal(t, filepath.Join(dir, "img", "missing.png"), broken[0].Path)
	require.Equal(t, "../outside.png", broken[1].Link.URL)
	require.Empty(t, broken[1].Path)
}

func TestVerifyLocal_MissingPage(t *testing.T) {
	_, err := VerifyLocal(filepath.Join(t.TempDir(), "index.html"))
	require.Error(t, err)
}
