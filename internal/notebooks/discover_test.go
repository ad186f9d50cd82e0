package notebooks

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

var stmSource = Source{Repo: "kl543/stm-toolkit", Branch: "main", Dir: "notebooks"}

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o750))
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("{}"), 0o600))
	}
}

func TestDiscover_OrderAndFilter(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "b_analysis.ipynb", "Z-last.IPYNB", "a-intro.ipynb", "notes.md", "data.csv")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "checkpoints.ipynb"), 0o750))

	entries, err := Discover(dir, stmSource)
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name)
	}
	require.Equal(t, []string{"Z-last.IPYNB", "a-intro.ipynb", "b_analysis.ipynb"}, names)
	require.Equal(t, "a intro", entries[1].Title)
	require.Equal(t, "b analysis", entries[2].Title)
}

func TestDiscover_MissingDir(t *testing.T) {
	entries, err := Discover(filepath.Join(t.TempDir(), "notebooks"), stmSource)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestDiscover_URLs(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "My Notebook.ipynb")

	entries, err := Discover(dir, stmSource)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	require.Equal(t,
		"https://nbviewer.org/github/kl543/stm-toolkit/blob/main/notebooks/My%20Notebook.ipynb",
		entries[0].ViewerURL)
	require.Equal(t,
		"https://raw.githubusercontent.com/kl543/stm-toolkit/main/notebooks/My%20Notebook.ipynb",
		entries[0].DownloadURL)
	require.Equal(t, "My Notebook", entries[0].Title)
}

func TestTitle(t *testing.T) {
	tests := map[string]string{
		"dI-dV_maps.ipynb":  "dI dV maps",
		"plain.ipynb":       "plain",
		"multi.part.ipynb":  "multi.part",
		"__leading__.ipynb": "  leading  ",
		"a&b <draft>.ipynb": "a&b <draft>",
	}
	for in, want := range tests {
		require.Equal(t, want, Title(in), in)
	}
}
