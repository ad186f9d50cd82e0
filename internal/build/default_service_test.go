package build

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kl543/stmdocs/internal/config"
	ferrors "github.com/kl543/stmdocs/internal/foundation/errors"
	"github.com/kl543/stmdocs/internal/metrics"
	helpers "github.com/kl543/stmdocs/internal/testutil/testutils"
)

var fixedNow = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }

// newProject returns a project root nested one level down so the parent
// header lookup stays inside the test's temp dir.
func newProject(t *testing.T) (*config.Config, string) {
	t.Helper()
	root := filepath.Join(t.TempDir(), "stm-toolkit")
	require.NoError(t, os.MkdirAll(root, 0o750))
	return config.Default(root), root
}

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func run(t *testing.T, cfg *config.Config) *BuildResult {
	t.Helper()
	res, err := NewBuildService().WithClock(fixedNow).Run(context.Background(), BuildRequest{Config: cfg})
	require.NoError(t, err)
	require.Equal(t, BuildStatusSuccess, res.Status)
	return res
}

func TestRun_EmptyProject(t *testing.T) {
	cfg, root := newProject(t)

	res := run(t, cfg)

	require.Empty(t, res.Notebooks)
	require.Empty(t, res.Figures)
	require.Empty(t, res.BrokenLinks)
	require.Empty(t, res.HeaderPath)
	require.Equal(t, filepath.Join(root, "docs", "index.html"), res.PagePath)

	helpers.NewFileAssertions(t, root).
		AssertFileContains("docs/index.html", "No notebooks yet.").
		AssertFileContains("docs/index.html", "No figures yet.").
		AssertFileContains("docs/index.html", "Last updated: 2025-01-02 03:04 UTC").
		AssertFileNotContains("docs/index.html", "View (nbviewer)").
		AssertFileEmpty("docs/.nojekyll").
		AssertDirFiles("docs/img")
}

func TestRun_NotebooksAndFigures(t *testing.T) {
	cfg, root := newProject(t)
	write(t, filepath.Join(root, "notebooks", "My Notebook.ipynb"), "{}")
	write(t, filepath.Join(root, "notebooks", "analysis_dIdV.ipynb"), "{}")
	write(t, filepath.Join(root, "notebooks", "notes.txt"), "skip")
	for i := 0; i < 10; i++ {
		write(t, filepath.Join(root, "assets", "img", fmt.Sprintf("fig_%02d.png", i)), "png")
	}

	res := run(t, cfg)

	require.Len(t, res.Notebooks, 2)
	require.Equal(t, "My Notebook.ipynb", res.Notebooks[0].Name)
	require.Len(t, res.Figures, 6)
	require.Empty(t, res.BrokenLinks)

	helpers.NewFileAssertions(t, root).
		AssertFileContains("docs/index.html",
			`href="https://nbviewer.org/github/kl543/stm-toolkit/blob/main/notebooks/My%20Notebook.ipynb"`).
		AssertFileContains("docs/index.html",
			`href="https://raw.githubusercontent.com/kl543/stm-toolkit/main/notebooks/My%20Notebook.ipynb"`).
		AssertFileContains("docs/index.html", "<b>analysis dIdV</b>").
		AssertFileContains("docs/index.html", `src="img/fig_05.png"`).
		AssertFileNotContains("docs/index.html", "fig_06").
		AssertDirFiles("docs/img", "fig_00.png", "fig_01.png", "fig_02.png", "fig_03.png", "fig_04.png", "fig_05.png")
}

func TestRun_Idempotent(t *testing.T) {
	cfg, root := newProject(t)
	write(t, filepath.Join(root, "notebooks", "a.ipynb"), "{}")
	write(t, filepath.Join(root, "assets", "img", "a&b.png"), "png")

	run(t, cfg)
	first, err := os.ReadFile(cfg.PagePath())
	require.NoError(t, err)

	run(t, cfg)
	second, err := os.ReadFile(cfg.PagePath())
	require.NoError(t, err)
	require.Equal(t, string(first), string(second))
	require.Contains(t, string(first), `alt="a&amp;b"`)
}

func TestRun_IdenticalApartFromTimestamp(t *testing.T) {
	cfg, root := newProject(t)
	write(t, filepath.Join(root, "notebooks", "a.ipynb"), "{}")

	svc := NewBuildService()
	_, err := svc.WithClock(fixedNow).Run(context.Background(), BuildRequest{Config: cfg})
	require.NoError(t, err)
	first, err := os.ReadFile(cfg.PagePath())
	require.NoError(t, err)

	_, err = svc.WithClock(func() time.Time { return fixedNow().Add(36 * time.Hour) }).
		Run(context.Background(), BuildRequest{Config: cfg})
	require.NoError(t, err)
	second, err := os.ReadFile(cfg.PagePath())
	require.NoError(t, err)

	stamp := regexp.MustCompile(`Last updated: [0-9: -]+ UTC`)
	require.NotEqual(t, string(first), string(second))
	require.Equal(t, stamp.ReplaceAllString(string(first), ""), stamp.ReplaceAllString(string(second), ""))
}

func TestRun_SharedHeader(t *testing.T) {
	cfg, root := newProject(t)
	write(t, filepath.Join(filepath.Dir(root), "_site-header.html"), "<!doctype html><header>shared</header>")

	res := run(t, cfg)
	require.Equal(t, filepath.Join(filepath.Dir(root), "_site-header.html"), res.HeaderPath)
	helpers.NewFileAssertions(t, root).
		AssertFileContains("docs/index.html", "<!doctype html><header>shared</header>\n<main class=\"container\">").
		AssertFileNotContains("docs/index.html", "Back to Projects")
}

func TestRun_BuiltinHeaderAndIntro(t *testing.T) {
	cfg, root := newProject(t)
	write(t, filepath.Join(root, "notebooks", "README.md"), "Notebooks for **STM** data.\n")

	run(t, cfg)
	helpers.NewFileAssertions(t, root).
		AssertFileContains("docs/index.html", "Back to Projects").
		AssertFileContains("docs/index.html", "<strong>STM</strong>")
}

func TestRun_RemovedFigureIsUnstaged(t *testing.T) {
	cfg, root := newProject(t)
	img := filepath.Join(root, "assets", "img", "old.png")
	write(t, img, "png")
	run(t, cfg)
	require.NoError(t, os.Remove(img))

	res := run(t, cfg)
	require.Empty(t, res.Figures)
	helpers.NewFileAssertions(t, root).
		AssertFileNotExists("docs/img/old.png").
		AssertFileContains("docs/index.html", "No figures yet.")
}

func TestRun_BrokenHeaderLinkIsReported(t *testing.T) {
	cfg, root := newProject(t)
	write(t, filepath.Join(root, "_site-header.html"), `<link rel="stylesheet" href="style.css">`)

	res := run(t, cfg)
	require.Len(t, res.BrokenLinks, 1)
	require.Equal(t, "style.css", res.BrokenLinks[0].Link.URL)

	res, err := NewBuildService().Run(context.Background(), BuildRequest{
		Config:  cfg,
		Options: BuildOptions{SkipLinkCheck: true},
	})
	require.NoError(t, err)
	require.Empty(t, res.BrokenLinks)
}

func TestRun_NilConfig(t *testing.T) {
	res, err := NewBuildService().Run(context.Background(), BuildRequest{})
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
	require.Equal(t, BuildStatusFailed, res.Status)
}

func TestRun_Cancelled(t *testing.T) {
	cfg, _ := newProject(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := NewBuildService().Run(ctx, BuildRequest{Config: cfg})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, BuildStatusCancelled, res.Status)
	require.NoFileExists(t, cfg.PagePath())
}

func TestRun_PublishFailure(t *testing.T) {
	cfg, root := newProject(t)
	write(t, filepath.Join(root, "docs"), "not a directory")

	res, err := NewBuildService().Run(context.Background(), BuildRequest{Config: cfg})
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryFileSystem))
	require.Equal(t, BuildStatusFailed, res.Status)
}

func TestRun_OutputImagesAliasingSourceKeepsInputs(t *testing.T) {
	cfg, root := newProject(t)
	for i := 0; i < 10; i++ {
		write(t, filepath.Join(root, "assets", "img", fmt.Sprintf("fig_%02d.png", i)), "png")
	}
	require.NoError(t, os.MkdirAll(filepath.Join(root, "docs"), 0o750))
	require.NoError(t, os.Symlink(filepath.Join("..", "assets", "img"), filepath.Join(root, "docs", "img")))

	res, err := NewBuildService().Run(context.Background(), BuildRequest{Config: cfg})
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))
	require.Equal(t, BuildStatusFailed, res.Status)

	entries, err := os.ReadDir(filepath.Join(root, "assets", "img"))
	require.NoError(t, err)
	require.Len(t, entries, 10)
}

type countingRecorder struct {
	metrics.NoopRecorder
	stages   map[string]metrics.ResultLabel
	outcome  metrics.BuildOutcomeLabel
	figures  int
	notebook int
}

func (c *countingRecorder) IncStageResult(stage string, r metrics.ResultLabel) { c.stages[stage] = r }
func (c *countingRecorder) IncBuildOutcome(o metrics.BuildOutcomeLabel)        { c.outcome = o }
func (c *countingRecorder) SetFigures(n int)                                   { c.figures = n }
func (c *countingRecorder) SetNotebooks(n int)                                 { c.notebook = n }

func TestRun_RecordsMetrics(t *testing.T) {
	cfg, root := newProject(t)
	write(t, filepath.Join(root, "notebooks", "a.ipynb"), "{}")
	write(t, filepath.Join(root, "assets", "img", "a.png"), "png")
	rec := &countingRecorder{stages: map[string]metrics.ResultLabel{}}

	_, err := NewBuildService().WithRecorder(rec).Run(context.Background(), BuildRequest{Config: cfg})
	require.NoError(t, err)

	require.Equal(t, metrics.BuildOutcomeSuccess, rec.outcome)
	require.Equal(t, 1, rec.figures)
	require.Equal(t, 1, rec.notebook)
	for _, st := range []string{StageNotebooks, StageFigures, StageHeader, StageIntro, StageRender, StagePublish, StageVerify} {
		require.Equal(t, metrics.ResultSuccess, rec.stages[st], st)
	}
}
