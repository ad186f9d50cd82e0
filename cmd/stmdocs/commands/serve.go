package commands

import (
	"context"
	"fmt"
	"net"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/kl543/stmdocs/internal/build"
	"github.com/kl543/stmdocs/internal/metrics"
	"github.com/kl543/stmdocs/internal/preview"
)

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	ProjectFlags `embed:""`

	Host string `help:"Interface to listen on" default:"localhost"`
	Port int    `short:"p" help:"Port to serve the docs page on" default:"8000"`
}

func (s *ServeCmd) Run(g *Global, root *CLI) error {
	cfg, err := s.LoadConfig(root)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	recorder := metrics.NewPrometheusRecorder(nil)
	svc := build.NewBuildService().WithRecorder(recorder)
	addr := net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
	_, _ = fmt.Fprintf(g.Stdout, "[%s] Serving %s on http://%s/\n", cfg.Site.Project, cfg.OutputPath(), addr)

	return preview.New(cfg, svc, preview.Options{
		Addr:     addr,
		Registry: recorder.Registry(),
	}).ListenAndRun(ctx)
}
