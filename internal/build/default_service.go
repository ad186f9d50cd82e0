package build

import (
	"context"
	"errors"
	"html/template"
	"log/slog"
	"path/filepath"
	"time"

	ferrors "github.com/kl543/stmdocs/internal/foundation/errors"
	"github.com/kl543/stmdocs/internal/gallery"
	"github.com/kl543/stmdocs/internal/header"
	"github.com/kl543/stmdocs/internal/linkverify"
	"github.com/kl543/stmdocs/internal/logfields"
	"github.com/kl543/stmdocs/internal/metrics"
	"github.com/kl543/stmdocs/internal/notebooks"
	"github.com/kl543/stmdocs/internal/page"
	"github.com/kl543/stmdocs/internal/publish"
)

// Stage names, used for logs and metric labels.
const (
	StageNotebooks = "notebooks"
	StageFigures   = "figures"
	StageHeader    = "header"
	StageIntro     = "intro"
	StageRender    = "render"
	StagePublish   = "publish"
	StageVerify    = "verify"
)

type stage struct {
	name string
	run  func() error
}

// DefaultBuildService is the standard implementation of BuildService.
type DefaultBuildService struct {
	recorder metrics.Recorder
	now      func() time.Time
}

// NewBuildService creates a DefaultBuildService that records nothing and
// stamps pages with the wall clock.
func NewBuildService() *DefaultBuildService {
	return &DefaultBuildService{
		recorder: metrics.NoopRecorder{},
		now:      time.Now,
	}
}

// WithRecorder sets the metrics recorder.
func (s *DefaultBuildService) WithRecorder(r metrics.Recorder) *DefaultBuildService {
	if r == nil {
		r = metrics.NoopRecorder{}
	}
	s.recorder = r
	return s
}

// WithClock sets the clock used for the page timestamp (for testing).
func (s *DefaultBuildService) WithClock(now func() time.Time) *DefaultBuildService {
	s.now = now
	return s
}

// Run executes the complete build pipeline.
func (s *DefaultBuildService) Run(ctx context.Context, req BuildRequest) (*BuildResult, error) {
	startTime := time.Now()
	result := &BuildResult{StartTime: startTime}

	if req.Config == nil {
		return s.finish(result, ferrors.ConfigError("config required").Build())
	}
	cfg := req.Config
	result.PagePath = cfg.PagePath()

	slog.Info("Building docs page",
		logfields.Repository(cfg.Repo),
		logfields.Branch(cfg.Branch),
		logfields.Path(cfg.Root))

	var (
		hdr   header.Header
		intro template.HTML
		html  []byte
	)

	stages := []stage{
		{StageNotebooks, func() error {
			src := notebooks.Source{Repo: cfg.Repo, Branch: cfg.Branch, Dir: cfg.NotebooksRepoPath()}
			nbs, err := notebooks.Discover(cfg.NotebooksPath(), src)
			result.Notebooks = nbs
			return err
		}},
		{StageFigures, func() error {
			figs, err := gallery.Stage(gallery.Options{
				SourceDir:    cfg.ImagesPath(),
				DestDir:      cfg.OutputImagesPath(),
				PublishedDir: cfg.PublishedImagesPath(),
				Max:          cfg.MaxImages,
			})
			result.Figures = figs
			return err
		}},
		{StageHeader, func() error {
			var err error
			hdr, err = header.Resolve(cfg.HeaderCandidates(), cfg.Site)
			result.HeaderPath = hdr.Path
			return err
		}},
		{StageIntro, func() error {
			var err error
			intro, err = page.RenderIntro(filepath.Join(cfg.NotebooksPath(), page.IntroFile))
			return err
		}},
		{StageRender, func() error {
			result.GeneratedAt = s.now().UTC()
			var err error
			html, err = page.Render(page.Page{
				Header:      hdr.HTML,
				Intro:       intro,
				Notebooks:   result.Notebooks,
				Images:      result.Figures,
				GeneratedAt: result.GeneratedAt,
			})
			return err
		}},
		{StagePublish, func() error {
			return publish.Write(publish.Target{
				OutputDir:  cfg.OutputPath(),
				ImagesDir:  cfg.OutputImagesPath(),
				PagePath:   cfg.PagePath(),
				MarkerPath: cfg.MarkerPath(),
			}, html)
		}},
	}
	if !req.Options.SkipLinkCheck {
		stages = append(stages, stage{StageVerify, func() error {
			broken, err := linkverify.VerifyLocal(cfg.PagePath())
			result.BrokenLinks = broken
			return err
		}})
	}

	for _, st := range stages {
		if err := s.runStage(ctx, st.name, st.run); err != nil {
			return s.finish(result, err)
		}
	}

	for _, b := range result.BrokenLinks {
		slog.Warn("Broken local link on page",
			logfields.URL(b.Link.URL),
			slog.String("tag", b.Link.Tag),
			logfields.Path(b.Path))
	}

	s.recorder.SetNotebooks(len(result.Notebooks))
	s.recorder.SetFigures(len(result.Figures))
	s.recorder.SetBrokenLinks(len(result.BrokenLinks))

	res, err := s.finish(result, nil)
	slog.Info("Build complete",
		logfields.Path(result.PagePath),
		slog.Int("notebooks", len(result.Notebooks)),
		slog.Int("figures", len(result.Figures)),
		logfields.DurationMS(float64(result.Duration.Microseconds())/1000))
	return res, err
}

// runStage checks for cancellation, runs fn and records its duration and result.
func (s *DefaultBuildService) runStage(ctx context.Context, name string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		s.recorder.IncStageResult(name, metrics.ResultCanceled)
		return err
	}
	start := time.Now()
	err := fn()
	d := time.Since(start)
	s.recorder.ObserveStageDuration(name, d)
	if err != nil {
		s.recorder.IncStageResult(name, metrics.ResultFatal)
		slog.Error("Build stage failed", logfields.Stage(name), logfields.Error(err))
		return err
	}
	s.recorder.IncStageResult(name, metrics.ResultSuccess)
	slog.Debug("Build stage complete", logfields.Stage(name), logfields.DurationMS(float64(d.Microseconds())/1000))
	return nil
}

// finish stamps the result with its final status and records the outcome.
func (s *DefaultBuildService) finish(result *BuildResult, err error) (*BuildResult, error) {
	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)
	s.recorder.ObserveBuildDuration(result.Duration)

	switch {
	case err == nil:
		result.Status = BuildStatusSuccess
		s.recorder.IncBuildOutcome(metrics.BuildOutcomeSuccess)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		result.Status = BuildStatusCancelled
		s.recorder.IncBuildOutcome(metrics.BuildOutcomeCanceled)
	default:
		result.Status = BuildStatusFailed
		s.recorder.IncBuildOutcome(metrics.BuildOutcomeFailed)
	}
	return result, err
}
