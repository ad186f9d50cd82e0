package linkverify

import (
	"errors"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	ferrors "github.com/kl543/stmdocs/internal/foundation/errors"
)

// Broken is a local link whose target is missing.
type Broken struct {
	Link Link
	Path string // resolved filesystem path
}

// VerifyLocal checks every local link in the page at pagePath against the
// files in the page's directory. Links that escape that directory count as
// broken.
func VerifyLocal(pagePath string) ([]Broken, error) {
	links, err := ExtractLinks(pagePath)
	if err != nil {
		return nil, err
	}

	base := filepath.Dir(pagePath)
	var broken []Broken
	for _, link := range links {
		if !link.IsLocal {
			continue
		}
		target, ok := localPath(base, link.URL)
		if !ok {
			broken = append(broken, Broken{Link: link})
			continue
		}
		if _, err := os.Stat(target); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, ferrors.FileSystemError("stat link target").
					WithCause(err).WithContext("path", target).Build()
			}
			broken = append(broken, Broken{Link: link, Path: target})
		}
	}
	return broken, nil
}

// localPath maps a relative URL onto base, decoding percent escapes.
func localPath(base, linkURL string) (string, bool) {
	u, err := url.Parse(linkURL)
	if err != nil {
		return "", false
	}
	rel := filepath.Clean(filepath.FromSlash(u.Path))
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.Join(base, rel), true
}
