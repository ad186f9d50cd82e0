// Package gallery selects the figures shown on the docs page and stages
// copies of them next to the published page.
package gallery

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	ferrors "github.com/kl543/stmdocs/internal/foundation/errors"
	"github.com/kl543/stmdocs/internal/fsutil"
	"github.com/kl543/stmdocs/internal/logfields"
)

// Extensions is the image allowlist, matched case-insensitively.
var Extensions = []string{".png", ".jpg", ".jpeg", ".webp", ".gif"}

// Entry is one staged figure.
type Entry struct {
	Name          string
	SourcePath    string
	PublishedPath string // slash-separated, relative to the output dir
	Caption       string
}

// Options configures Stage.
type Options struct {
	SourceDir    string
	DestDir      string
	PublishedDir string // DestDir relative to the output dir, slash-separated
	Max          int    // 0 means unlimited
}

// IsImage reports whether name carries an allowlisted extension.
func IsImage(name string) bool {
	ext := filepath.Ext(name)
	for _, allowed := range Extensions {
		if strings.EqualFold(ext, allowed) {
			return true
		}
	}
	return false
}

// Select returns the first max image names in dir in byte order. A missing
// dir yields an empty list.
func Select(dir string, max int) ([]string, error) {
	names, err := fsutil.ListFiles(dir, IsImage)
	if err != nil {
		return nil, ferrors.FileSystemError("read images directory").
			WithCause(err).WithContext("path", dir).Build()
	}
	if max > 0 && len(names) > max {
		names = names[:max]
	}
	return names, nil
}

// Stage selects figures from opts.SourceDir and copies them into
// opts.DestDir under their original names. Previously staged images that are
// no longer selected are removed, so DestDir mirrors the selection.
func Stage(opts Options) ([]Entry, error) {
	names, err := Select(opts.SourceDir, opts.Max)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(opts.DestDir, 0o755); err != nil {
		return nil, ferrors.FileSystemError("create output image directory").
			WithCause(err).WithContext("path", opts.DestDir).Build()
	}
	// prune would otherwise delete unselected source images.
	if fsutil.SameDir(opts.SourceDir, opts.DestDir) {
		return nil, ferrors.ValidationError("output image directory resolves to the source image directory").
			WithContext("source", opts.SourceDir).WithContext("dest", opts.DestDir).Build()
	}
	if err := prune(opts.DestDir, names); err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(names))
	for _, name := range names {
		src := filepath.Join(opts.SourceDir, name)
		dst := filepath.Join(opts.DestDir, name)
		if err := fsutil.CopyFile(src, dst); err != nil {
			return nil, ferrors.FileSystemError("copy figure").
				WithCause(err).WithContext("path", src).Build()
		}
		slog.Debug("Staged figure", logfields.File(name), logfields.Path(dst))
		entries = append(entries, Entry{
			Name:          name,
			SourcePath:    src,
			PublishedPath: publishedPath(opts.PublishedDir, name),
			Caption:       Caption(name),
		})
	}
	return entries, nil
}

// prune removes staged images from dir that are not in keep. Files that are
// not images were not produced by Stage and are left alone.
func prune(dir string, keep []string) error {
	existing, err := fsutil.ListFiles(dir, IsImage)
	if err != nil {
		return ferrors.FileSystemError("read output image directory").
			WithCause(err).WithContext("path", dir).Build()
	}
	wanted := make(map[string]struct{}, len(keep))
	for _, name := range keep {
		wanted[name] = struct{}{}
	}
	for _, name := range existing {
		if _, ok := wanted[name]; ok {
			continue
		}
		path := filepath.Join(dir, name)
		if err := os.Remove(path); err != nil {
			return ferrors.FileSystemError("remove stale figure").
				WithCause(err).WithContext("path", path).Build()
		}
		slog.Debug("Removed stale figure", logfields.Path(path))
	}
	return nil
}

func publishedPath(dir, name string) string {
	dir = strings.Trim(dir, "/")
	if dir == "" || dir == "." {
		return name
	}
	return dir + "/" + name
}

// Caption derives a caption from the file stem, "_" and "-" read as spaces.
func Caption(name string) string {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	return strings.NewReplacer("_", " ", "-", " ").Replace(stem)
}
