// Package publish writes the rendered page and its companion files into the
// output directory.
package publish

import (
	"log/slog"
	"os"

	ferrors "github.com/kl543/stmdocs/internal/foundation/errors"
	"github.com/kl543/stmdocs/internal/fsutil"
	"github.com/kl543/stmdocs/internal/logfields"
)

// Target names the files a publish touches.
type Target struct {
	OutputDir string
	ImagesDir string
	PagePath  string
	// MarkerPath is an empty file that turns off Jekyll processing on GitHub Pages.
	MarkerPath string
}

// Prepare creates the output directory and its image subdirectory.
func Prepare(t Target) error {
	for _, dir := range []string{t.OutputDir, t.ImagesDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return ferrors.FileSystemError("create output directory").
				WithCause(err).WithContext("path", dir).Build()
		}
	}
	return nil
}

// Write stores page at t.PagePath and ensures the marker file exists. The
// page replaces any previous version atomically.
func Write(t Target, page []byte) error {
	if err := Prepare(t); err != nil {
		return err
	}
	if err := fsutil.WriteFile(t.PagePath, page); err != nil {
		return ferrors.FileSystemError("write page").
			WithCause(err).WithContext("path", t.PagePath).Build()
	}
	if err := fsutil.WriteFile(t.MarkerPath, nil); err != nil {
		return ferrors.FileSystemError("write marker file").
			WithCause(err).WithContext("path", t.MarkerPath).Build()
	}
	slog.Debug("Published page", logfields.Path(t.PagePath))
	return nil
}
