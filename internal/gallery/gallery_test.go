package gallery

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	ferrors "github.com/kl543/stmdocs/internal/foundation/errors"
)

func touch(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestStage_TruncatesToMax(t *testing.T) {
	base := t.TempDir()
	src := filepath.Join(base, "assets", "img")
	dst := filepath.Join(base, "docs", "img")
	for i := 9; i >= 0; i-- {
		touch(t, src, fmt.Sprintf("fig%02d.png", i), fmt.Sprintf("png-%d", i))
	}

	entries, err := Stage(Options{SourceDir: src, DestDir: dst, PublishedDir: "img", Max: 6})
	require.NoError(t, err)
	require.Len(t, entries, 6)

	want := []string{"fig00.png", "fig01.png", "fig02.png", "fig03.png", "fig04.png", "fig05.png"}
	for i, e := range entries {
		require.Equal(t, want[i], e.Name)
		require.Equal(t, "img/"+want[i], e.PublishedPath)
		require.Equal(t, filepath.Join(src, want[i]), e.SourcePath)
	}
	require.Equal(t, want, listDir(t, dst))

	data, err := os.ReadFile(filepath.Join(dst, "fig03.png"))
	require.NoError(t, err)
	require.Equal(t, "png-3", string(data))

	st, err := os.Stat(filepath.Join(dst, "fig03.png"))
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o644), st.Mode().Perm())
}

func TestStage_ZeroMeansUnlimited(t *testing.T) {
	base := t.TempDir()
	src := filepath.Join(base, "src")
	for i := 0; i < 8; i++ {
		touch(t, src, fmt.Sprintf("p%d.jpg", i), "x")
	}

	entries, err := Stage(Options{SourceDir: src, DestDir: filepath.Join(base, "out"), PublishedDir: "img"})
	require.NoError(t, err)
	require.Len(t, entries, 8)
}

func TestStage_FiltersByExtension(t *testing.T) {
	base := t.TempDir()
	src := filepath.Join(base, "src")
	touch(t, src, "notes.txt", "x")
	touch(t, src, "plot.PNG", "x")
	touch(t, src, "scan.webp", "x")
	touch(t, src, "data.csv", "x")
	require.NoError(t, os.MkdirAll(filepath.Join(src, "nested.png"), 0o750))

	entries, err := Stage(Options{SourceDir: src, DestDir: filepath.Join(base, "out"), PublishedDir: "img"})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "plot.PNG", entries[0].Name)
	require.Equal(t, "scan.webp", entries[1].Name)
}

func TestStage_MissingSourceEmptiesOutput(t *testing.T) {
	base := t.TempDir()
	dst := filepath.Join(base, "docs", "img")
	touch(t, dst, "old.png", "stale")

	entries, err := Stage(Options{
		SourceDir:    filepath.Join(base, "missing"),
		DestDir:      dst,
		PublishedDir: "img",
		Max:          6,
	})
	require.NoError(t, err)
	require.Empty(t, entries)
	require.Empty(t, listDir(t, dst))
}

func TestStage_RemovesStaleImagesOnly(t *testing.T) {
	base := t.TempDir()
	src := filepath.Join(base, "src")
	dst := filepath.Join(base, "out")
	touch(t, src, "keep.png", "new")
	touch(t, dst, "keep.png", "old")
	touch(t, dst, "gone.gif", "old")
	touch(t, dst, "README.txt", "mine")

	_, err := Stage(Options{SourceDir: src, DestDir: dst, PublishedDir: "img", Max: 6})
	require.NoError(t, err)
	require.Equal(t, []string{"README.txt", "keep.png"}, listDir(t, dst))

	data, err := os.ReadFile(filepath.Join(dst, "keep.png"))
	require.NoError(t, err)
	require.Equal(t, "new", string(data))
}

func TestStage_Idempotent(t *testing.T) {
	base := t.TempDir()
	src := filepath.Join(base, "src")
	dst := filepath.Join(base, "out")
	touch(t, src, "a.png", "a")
	touch(t, src, "b.png", "b")
	opts := Options{SourceDir: src, DestDir: dst, PublishedDir: "img", Max: 6}

	first, err := Stage(opts)
	require.NoError(t, err)
	second, err := Stage(opts)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, []string{"a.png", "b.png"}, listDir(t, dst))
}

func TestStage_RefusesDestinationAliasingSource(t *testing.T) {
	base := t.TempDir()
	src := filepath.Join(base, "assets", "img")
	for i := range 10 {
		touch(t, src, fmt.Sprintf("fig_%02d.png", i), "png")
	}
	require.NoError(t, os.MkdirAll(filepath.Join(base, "docs"), 0o750))
	dst := filepath.Join(base, "docs", "img")
	require.NoError(t, os.Symlink(filepath.Join("..", "assets", "img"), dst))

	_, err := Stage(Options{SourceDir: src, DestDir: dst, PublishedDir: "img", Max: 6})
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))
	require.Len(t, listDir(t, src), 10, "source images must survive")
}

func TestCaption(t *testing.T) {
	tests := map[string]string{
		"dI-dV_map.png":  "dI dV map",
		"a&b.png":        "a&b",
		"topo.2024.jpeg": "topo.2024",
		"plain":          "plain",
	}
	for in, want := range tests {
		require.Equal(t, want, Caption(in), in)
	}
}

func TestPublishedPath(t *testing.T) {
	require.Equal(t, "img/a.png", publishedPath("img", "a.png"))
	require.Equal(t, "img/a.png", publishedPath("img/", "a.png"))
	require.Equal(t, "a.png", publishedPath(".", "a.png"))
	require.Equal(t, "a.png", publishedPath("", "a.png"))
}
