package notebooks

import (
	"fmt"
	"strings"
)

const (
	viewerURLFormat   = "https://nbviewer.org/github/%s/blob/%s/%s"
	downloadURLFormat = "https://raw.githubusercontent.com/%s/%s/%s"
)

// Source identifies where notebooks are published on GitHub.
type Source struct {
	Repo   string // owner/name
	Branch string
	Dir    string // repository-relative, slash-separated notebooks dir
}

// RepoPath is the repository-relative path of a notebook file name.
func (s Source) RepoPath(name string) string {
	dir := strings.Trim(s.Dir, "/")
	if dir == "" || dir == "." {
		return name
	}
	return dir + "/" + name
}

// ViewerURL returns the nbviewer link for a notebook file name.
func (s Source) ViewerURL(name string) string {
	return fmt.Sprintf(viewerURLFormat, s.Repo, s.Branch, EscapePath(s.RepoPath(name)))
}

// DownloadURL returns the raw-content link for a notebook file name.
func (s Source) DownloadURL(name string) string {
	return fmt.Sprintf(downloadURLFormat, s.Repo, s.Branch, EscapePath(s.RepoPath(name)))
}

// EscapePath percent-encodes a slash-separated path. Only unreserved
// characters (ALPHA, DIGIT, "-", ".", "_", "~") and "/" are kept literal;
// every other byte of the UTF-8 encoding becomes %XX with upper-case hex.
func EscapePath(p string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(p))
	for i := 0; i < len(p); i++ {
		c := p[i]
		if isUnreserved(c) || c == '/' {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	case c == '-', c == '.', c == '_', c == '~':
		return true
	}
	return false
}
