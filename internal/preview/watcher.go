package preview

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/kl543/stmdocs/internal/config"
	ferrors "github.com/kl543/stmdocs/internal/foundation/errors"
	"github.com/kl543/stmdocs/internal/logfields"
)

// inputWatcher watches the build inputs: the notebooks and images
// directories (and their ancestors up to the root, so they are noticed when
// created) plus the directories holding header candidates. The output
// directory is never watched.
type inputWatcher struct {
	w       *fsnotify.Watcher
	root    string
	inputs  []string // directories whose direct children are inputs
	headers []string // header candidate files
}

func newInputWatcher(cfg *config.Config) (*inputWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, ferrors.InternalError("create file watcher").WithCause(err).Build()
	}
	iw := &inputWatcher{
		w:       w,
		root:    cfg.Root,
		inputs:  []string{cfg.NotebooksPath(), cfg.ImagesPath()},
		headers: cfg.HeaderCandidates(),
	}
	iw.addWatches()
	return iw, nil
}

func (iw *inputWatcher) Close() error { return iw.w.Close() }

// watchDirs lists every directory that should be watched, existing or not.
func (iw *inputWatcher) watchDirs() []string {
	seen := map[string]bool{}
	var dirs []string
	add := func(d string) {
		if !seen[d] {
			seen[d] = true
			dirs = append(dirs, d)
		}
	}
	for _, in := range iw.inputs {
		for _, d := range ancestors(iw.root, in) {
			add(d)
		}
	}
	for _, h := range iw.headers {
		add(filepath.Dir(h))
	}
	return dirs
}

// ancestors returns root, the directories between root and dir, and dir.
func ancestors(root, dir string) []string {
	rel, err := filepath.Rel(root, dir)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return []string{dir}
	}
	out := []string{root}
	cur := root
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		cur = filepath.Join(cur, part)
		out = append(out, cur)
	}
	return out
}

func (iw *inputWatcher) addWatches() {
	for _, d := range iw.watchDirs() {
		if st, err := os.Stat(d); err != nil || !st.IsDir() {
			continue
		}
		if err := iw.w.Add(d); err != nil {
			slog.Warn("watch add failed", logfields.Path(d), logfields.Error(err))
		}
	}
}

// relevant reports whether a change at path can affect the page.
func (iw *inputWatcher) relevant(path string) bool {
	for _, h := range iw.headers {
		if path == h {
			return true
		}
	}
	for _, in := range iw.inputs {
		if path == in || filepath.Dir(path) == in {
			return true
		}
		if rel, err := filepath.Rel(path, in); err == nil && !strings.HasPrefix(rel, "..") {
			return true
		}
	}
	return false
}

// run dispatches filesystem events until ctx is done or the server fails.
func (iw *inputWatcher) run(ctx context.Context, trigger func(), serveErr <-chan error) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-serveErr:
			if ok && err != nil {
				return ferrors.InternalError("preview server failed").WithCause(err).Build()
			}
			serveErr = nil
		case ev, ok := <-iw.w.Events:
			if !ok {
				return nil
			}
			iw.handleEvent(ev, trigger)
		case err, ok := <-iw.w.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watcher error", logfields.Error(err))
		}
	}
}

func (iw *inputWatcher) handleEvent(ev fsnotify.Event, trigger func()) {
	if shouldIgnoreEvent(ev.Name) || !iw.relevant(ev.Name) {
		return
	}
	if ev.Op&fsnotify.Create == fsnotify.Create {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			iw.addWatches()
		}
	}
	slog.Debug("File change detected", logfields.Path(ev.Name), logfields.Op(ev.Op.String()))
	trigger()
}

// shouldIgnoreEvent returns true for filesystem events that should not trigger rebuilds.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)

	if strings.HasPrefix(base, ".") {
		return true
	}
	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}
	return base == "Thumbs.db"
}
