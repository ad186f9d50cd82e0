// Package preview serves the generated page locally and rebuilds it when
// notebooks, figures or the shared header change.
package preview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/kl543/stmdocs/internal/build"
	"github.com/kl543/stmdocs/internal/config"
	ferrors "github.com/kl543/stmdocs/internal/foundation/errors"
	"github.com/kl543/stmdocs/internal/logfields"
	"github.com/kl543/stmdocs/internal/metrics"
)

// DefaultDebounce is how long the watcher waits for changes to settle.
const DefaultDebounce = 300 * time.Millisecond

// Options configures a preview Server.
type Options struct {
	// Addr is the listen address, e.g. ":8000".
	Addr     string
	Debounce time.Duration
	// Registry, when set, is served on /metrics.
	Registry *prom.Registry
}

// Server builds the page, serves the output directory and rebuilds on change.
type Server struct {
	cfg    *config.Config
	svc    build.BuildService
	opts   Options
	status buildStatus
}

// New creates a preview server for cfg.
func New(cfg *config.Config, svc build.BuildService, opts Options) *Server {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	return &Server{cfg: cfg, svc: svc, opts: opts}
}

// buildStatus tracks the current build state for error display.
type buildStatus struct {
	mu           sync.RWMutex
	lastError    error
	hasGoodBuild bool
}

func (bs *buildStatus) setError(err error) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.lastError = err
}

func (bs *buildStatus) setSuccess() {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.lastError = nil
	bs.hasGoodBuild = true
}

func (bs *buildStatus) getStatus() (hasGoodBuild bool, err error) {
	bs.mu.RLock()
	defer bs.mu.RUnlock()
	return bs.hasGoodBuild, bs.lastError
}

// ListenAndRun binds opts.Addr and calls Run.
func (s *Server) ListenAndRun(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return ferrors.ConfigError("listen for preview").WithCause(err).WithContext("addr", s.opts.Addr).Build()
	}
	return s.Run(ctx, ln)
}

// Run performs an initial build, serves the output directory on ln and
// rebuilds on input changes until ctx is cancelled. A failed build does not
// stop the server; the error is served until the next successful build.
func (s *Server) Run(ctx context.Context, ln net.Listener) error {
	s.rebuild(ctx)

	watcher, err := newInputWatcher(s.cfg)
	if err != nil {
		_ = ln.Close()
		return err
	}
	defer func() { _ = watcher.Close() }()

	httpServer := &http.Server{
		Handler:           s.handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()
	slog.Info("Preview server listening",
		logfields.Addr(ln.Addr().String()),
		logfields.URL(fmt.Sprintf("http://%s/", ln.Addr().String())))

	rebuildReq, trigger, stop := setupRebuildDebouncer(s.opts.Debounce)
	defer stop()
	workerDone := s.startRebuildWorker(ctx, rebuildReq)

	loopErr := watcher.run(ctx, trigger, serveErr)

	slog.Info("Shutting down preview server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Warn("HTTP server shutdown error", logfields.Error(err))
	}
	<-workerDone
	return loopErr
}

func (s *Server) handler() http.Handler {
	files := http.FileServer(http.Dir(s.cfg.OutputPath()))
	mux := http.NewServeMux()
	mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if good, err := s.status.getStatus(); err != nil && !good {
			http.Error(w, "build failed: "+err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Cache-Control", "no-store")
		files.ServeHTTP(w, r)
	}))
	if s.opts.Registry != nil {
		mux.Handle("/metrics", metrics.HTTPHandler(s.opts.Registry))
	}
	return mux
}

// setupRebuildDebouncer creates the rebuild channel and a trigger that fires
// it once events have been quiet for delay. stop cancels a pending timer.
func setupRebuildDebouncer(delay time.Duration) (<-chan struct{}, func(), func()) {
	var mu sync.Mutex
	var timer *time.Timer
	rebuildReq := make(chan struct{}, 1)

	trigger := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(delay, func() {
			select {
			case rebuildReq <- struct{}{}:
			default:
			}
		})
	}
	stop := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
	}
	return rebuildReq, trigger, stop
}

// startRebuildWorker runs builds one at a time. Requests arriving during a
// build collapse into the single buffered slot and cause one more build.
func (s *Server) startRebuildWorker(ctx context.Context, rebuildReq <-chan struct{}) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case <-rebuildReq:
				slog.Info("Change detected; rebuilding page")
				s.rebuild(ctx)
			}
		}
	}()
	return done
}

func (s *Server) rebuild(ctx context.Context) {
	res, err := s.svc.Run(ctx, build.BuildRequest{Config: s.cfg})
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		slog.Warn("Build failed", logfields.Error(err))
		s.status.setError(err)
		return
	}
	s.status.setSuccess()
	slog.Info("Page rebuilt",
		logfields.Path(res.PagePath),
		slog.Int("notebooks", len(res.Notebooks)),
		slog.Int("figures", len(res.Figures)))
}
