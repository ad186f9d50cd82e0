// Package fsutil holds the small filesystem helpers shared by the discovery
// and publishing stages.
package fsutil

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/natefinch/atomic"

	ferrors "github.com/kl543/stmdocs/internal/foundation/errors"
)

// ListFiles returns the names of regular files in dir accepted by keep,
// sorted in byte order. Symlinks to regular files count as files. A missing
// dir is reported as (nil, nil).
func ListFiles(dir string, keep func(name string) bool) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if keep != nil && !keep(e.Name()) {
			continue
		}
		if !isRegular(dir, e) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

func isRegular(dir string, e fs.DirEntry) bool {
	if e.Type().IsRegular() {
		return true
	}
	if e.Type()&fs.ModeSymlink == 0 {
		return false
	}
	st, err := os.Stat(filepath.Join(dir, e.Name()))
	return err == nil && st.Mode().IsRegular()
}

// SameDir reports whether a and b both exist and are the same directory,
// following symlinks. Case-insensitive filesystems are covered as well.
func SameDir(a, b string) bool {
	sa, err := os.Stat(a)
	if err != nil || !sa.IsDir() {
		return false
	}
	sb, err := os.Stat(b)
	if err != nil || !sb.IsDir() {
		return false
	}
	return os.SameFile(sa, sb)
}

// FileMode is applied to every published file. Temp files created for atomic
// writes are owner-only, which a static file server could not read.
const FileMode fs.FileMode = 0o644

// CopyFile copies src to dst atomically: readers of dst see either the old
// file or the complete new one.
func CopyFile(src, dst string) error {
	// #nosec G304 -- src comes from a directory listing of a configured input dir.
	in, err := os.Open(src)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "open source file").
			WithContext("path", src).Build()
	}
	defer func() {
		_ = in.Close()
	}()

	return writeAtomic(dst, in)
}

// WriteFile writes data to path atomically.
func WriteFile(path string, data []byte) error {
	return writeAtomic(path, bytes.NewReader(data))
}

func writeAtomic(path string, r io.Reader) error {
	if err := atomic.WriteFile(path, r); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "write file").
			WithContext("path", path).Build()
	}
	if err := os.Chmod(path, FileMode); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "set file mode").
			WithContext("path", path).Build()
	}
	return nil
}
