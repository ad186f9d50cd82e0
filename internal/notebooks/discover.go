package notebooks

import (
	"path/filepath"
	"strings"

	ferrors "github.com/kl543/stmdocs/internal/foundation/errors"
	"github.com/kl543/stmdocs/internal/fsutil"
)

// Extension is the recognized notebook file extension, matched case-insensitively.
const Extension = ".ipynb"

// Entry is one discovered notebook.
type Entry struct {
	Name        string // file name, e.g. "My Notebook.ipynb"
	Title       string
	ViewerURL   string
	DownloadURL string
}

// Discover lists notebooks in dir ordered by file name (byte order). A
// missing dir yields an empty list.
func Discover(dir string, src Source) ([]Entry, error) {
	names, err := fsutil.ListFiles(dir, IsNotebook)
	if err != nil {
		return nil, ferrors.FileSystemError("read notebooks directory").
			WithCause(err).WithContext("path", dir).Build()
	}

	entries := make([]Entry, 0, len(names))
	for _, name := range names {
		entries = append(entries, Entry{
			Name:        name,
			Title:       Title(name),
			ViewerURL:   src.ViewerURL(name),
			DownloadURL: src.DownloadURL(name),
		})
	}
	return entries, nil
}

// IsNotebook reports whether name has the notebook extension.
func IsNotebook(name string) bool {
	return strings.EqualFold(filepath.Ext(name), Extension)
}

// Title derives a display title: the stem with "_" and "-" turned into spaces.
func Title(name string) string {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	return titleReplacer.Replace(stem)
}

var titleReplacer = strings.NewReplacer("_", " ", "-", " ")
