package git

import (
	"errors"
	"net/url"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	ferrors "github.com/kl543/stmdocs/internal/foundation/errors"
)

// ErrNotRepository is returned when no git repository encloses the path.
var ErrNotRepository = errors.New("not a git repository")

// Info is what could be detected; empty fields were not detectable.
type Info struct {
	Repo   string // owner/name on github.com
	Branch string
	Remote string // raw origin URL
}

// Detect opens the repository containing path (searching parent directories)
// and reports the origin slug and the branch HEAD points at. HEAD is read
// without resolving so an unborn branch is still reported.
func Detect(path string) (Info, error) {
	repo, err := gogit.PlainOpenWithOptions(path, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, gogit.ErrRepositoryNotExists) {
			return Info{}, ErrNotRepository
		}
		return Info{}, ferrors.WrapError(err, ferrors.CategoryFileSystem, "open repository").
			WithContext("path", path).Build()
	}

	var info Info
	if head, herr := repo.Reference(plumbing.HEAD, false); herr == nil {
		switch {
		case head.Type() == plumbing.SymbolicReference && head.Target().IsBranch():
			info.Branch = head.Target().Short()
		case head.Name().IsBranch():
			info.Branch = head.Name().Short()
		}
	}

	if remote, rerr := repo.Remote("origin"); rerr == nil {
		if urls := remote.Config().URLs; len(urls) > 0 {
			info.Remote = urls[0]
			if slug, ok := ParseGitHubSlug(urls[0]); ok {
				info.Repo = slug
			}
		}
	}
	return info, nil
}

// ParseGitHubSlug extracts owner/name from a github.com remote URL in https,
// ssh:// or scp-like (git@github.com:owner/name.git) form.
func ParseGitHubSlug(remote string) (string, bool) {
	remote = strings.TrimSpace(remote)
	var path string
	if rest, ok := strings.CutPrefix(remote, "git@github.com:"); ok {
		path = rest
	} else {
		u, err := url.Parse(remote)
		if err != nil || u.Hostname() != "github.com" {
			return "", false
		}
		switch u.Scheme {
		case "https", "http", "ssh", "git":
		default:
			return "", false
		}
		path = u.Path
	}

	path = strings.Trim(path, "/")
	path = strings.TrimSuffix(path, ".git")
	owner, name, ok := strings.Cut(path, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", false
	}
	return owner + "/" + name, true
}
