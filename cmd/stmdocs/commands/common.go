package commands

import (
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/kl543/stmdocs/internal/config"
	ferrors "github.com/kl543/stmdocs/internal/foundation/errors"
	"github.com/kl543/stmdocs/internal/git"
	"github.com/kl543/stmdocs/internal/logfields"
	"github.com/kl543/stmdocs/internal/version"
)

// Global is shared state bound into every command.
type Global struct {
	Stdout io.Writer
	Stderr io.Writer
	// Exit is called by kong for --help and --version; nil means os.Exit.
	Exit func(int)
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path, relative to the project root" default:"stmdocs.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build BuildCmd `cmd:"" default:"withargs" help:"Generate the docs page (default command)"`
	Serve ServeCmd `cmd:"" help:"Serve the docs page locally and rebuild on changes"`
	Init  InitCmd  `cmd:"" help:"Write an example configuration file"`
}

// AfterApply runs after flag parsing; setup logging once.
func (c *CLI) AfterApply(g *Global) error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(g.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// Execute parses args into cli and runs the selected command.
func Execute(cli *CLI, g *Global, args []string) error {
	exit := g.Exit
	if exit == nil {
		exit = os.Exit
	}
	parser, err := kong.New(cli,
		kong.Name("stmdocs"),
		kong.Description("Generate a static docs page listing notebooks and selected figures."),
		kong.UsageOnError(),
		kong.Writers(g.Stdout, g.Stderr),
		kong.Exit(exit),
		kong.Vars{"version": version.String()},
		kong.Bind(g),
	)
	if err != nil {
		return ferrors.InternalError("build command line parser").WithCause(err).Build()
	}
	ctx, err := parser.Parse(args)
	if err != nil {
		return ferrors.ValidationError("invalid arguments").WithCause(err).Build()
	}
	return ctx.Run()
}

// ProjectFlags select and override the project configuration.
type ProjectFlags struct {
	Root       string `short:"r" help:"Project root directory" default:"." type:"path"`
	MaxImages  int    `name:"max-images" help:"Maximum number of figures (0 = unlimited, -1 = from config)" default:"-1"`
	DetectRepo bool   `name:"detect-repo" help:"Derive repository and branch from the local git checkout"`
}

// LoadConfig resolves the configuration for the project: defaults, config
// file and environment, then git detection, then flags.
func (p *ProjectFlags) LoadConfig(cli *CLI) (*config.Config, error) {
	cfg, err := config.Load(p.Root, cli.Config)
	if err != nil {
		return nil, err
	}

	if p.DetectRepo {
		info, err := git.Detect(cfg.Root)
		switch {
		case errors.Is(err, git.ErrNotRepository):
			slog.Warn("Repository detection skipped: not a git checkout", logfields.Path(cfg.Root))
		case err != nil:
			slog.Warn("Repository detection failed", logfields.Path(cfg.Root), logfields.Error(err))
		default:
			cfg.FillDetected(info.Repo, info.Branch)
			slog.Debug("Detected repository",
				logfields.Repository(info.Repo),
				logfields.Branch(info.Branch),
				logfields.Source(string(config.OriginGit)))
		}
	}

	if p.MaxImages >= 0 {
		cfg.MaxImages = p.MaxImages
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	slog.Debug("Configuration resolved",
		logfields.Repository(cfg.Repo),
		slog.String("repository_origin", string(cfg.Origins.Repo)),
		logfields.Branch(cfg.Branch),
		slog.String("branch_origin", string(cfg.Origins.Branch)),
		slog.Int("max_images", cfg.MaxImages))
	return cfg, nil
}
