package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/kl543/stmdocs/internal/build"
	"github.com/kl543/stmdocs/internal/metrics"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	ProjectFlags `embed:""`

	MetricsFile string `name:"metrics-file" help:"Write build metrics in Prometheus textfile format to this path"`
	NoLinkCheck bool   `name:"no-link-check" help:"Skip checking local links on the generated page"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := b.LoadConfig(root)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	svc := build.NewBuildService()
	var recorder *metrics.PrometheusRecorder
	if b.MetricsFile != "" {
		recorder = metrics.NewPrometheusRecorder(nil)
		svc.WithRecorder(recorder)
	}

	res, err := svc.Run(ctx, build.BuildRequest{
		Config:  cfg,
		Options: build.BuildOptions{SkipLinkCheck: b.NoLinkCheck},
	})
	if recorder != nil {
		if mErr := metrics.WriteTextfile(recorder.Registry(), b.MetricsFile); mErr != nil && err == nil {
			err = mErr
		}
	}
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(g.Stdout, "[%s] Wrote %s (%d notebooks, %d figures)\n",
		cfg.Site.Project, res.PagePath, len(res.Notebooks), len(res.Figures))
	return nil
}
