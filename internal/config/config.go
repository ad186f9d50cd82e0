package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	ferrors "github.com/kl543/stmdocs/internal/foundation/errors"
	"github.com/kl543/stmdocs/internal/fsutil"
	"github.com/kl543/stmdocs/internal/logfields"
)

// Built-in defaults. Directory fields are relative to Root, except
// OutputImagesDir which is relative to OutputDir.
const (
	DefaultRepo            = "kl543/stm-toolkit"
	DefaultBranch          = "main"
	DefaultNotebooksDir    = "notebooks"
	DefaultImagesDir       = "assets/img"
	DefaultOutputDir       = "docs"
	DefaultOutputImagesDir = "img"
	DefaultPageFile        = "index.html"
	DefaultMarkerFile      = ".nojekyll"
	DefaultHeaderFile      = "_site-header.html"
	DefaultMaxImages       = 6
	DefaultSiteURL         = "https://kl543.github.io"
	DefaultSiteTitle       = "STM Data Toolkit"
	DefaultTagline         = "Minimal notebooks + selected figures"
	DefaultProject         = "stm-toolkit"
	DefaultConfigFile      = "stmdocs.yaml"
)

// Origin records which layer supplied a value.
type Origin string

const (
	OriginDefault Origin = "default"
	OriginFile    Origin = "file"
	OriginEnv     Origin = "env"
	OriginGit     Origin = "git"
	OriginFlag    Origin = "flag"
)

// Config is the explicit configuration passed into the builder.
type Config struct {
	Root string `yaml:"-"`

	Repo   string `yaml:"repo"`
	Branch string `yaml:"branch"`

	NotebooksDir    string `yaml:"notebooks_dir"`
	ImagesDir       string `yaml:"images_dir"`
	OutputDir       string `yaml:"output_dir"`
	OutputImagesDir string `yaml:"output_images_dir"`
	PageFile        string `yaml:"page_file"`
	MarkerFile      string `yaml:"marker_file"`
	HeaderFile      string `yaml:"header_file"`

	// MaxImages bounds the figure gallery; 0 means unlimited.
	MaxImages int `yaml:"max_images"`

	Site SiteConfig `yaml:"site"`

	Origins Origins `yaml:"-"`
}

// SiteConfig feeds the built-in fallback header.
type SiteConfig struct {
	URL     string `yaml:"url"`
	Title   string `yaml:"title"`
	Tagline string `yaml:"tagline"`
	Project string `yaml:"project"`
}

// Origins tracks where the externally-visible URL parameters came from.
type Origins struct {
	Repo   Origin
	Branch Origin
}

// Default returns the built-in configuration rooted at root.
func Default(root string) *Config {
	return &Config{
		Root:            root,
		Repo:            DefaultRepo,
		Branch:          DefaultBranch,
		NotebooksDir:    DefaultNotebooksDir,
		ImagesDir:       DefaultImagesDir,
		OutputDir:       DefaultOutputDir,
		OutputImagesDir: DefaultOutputImagesDir,
		PageFile:        DefaultPageFile,
		MarkerFile:      DefaultMarkerFile,
		HeaderFile:      DefaultHeaderFile,
		MaxImages:       DefaultMaxImages,
		Site: SiteConfig{
			URL:     DefaultSiteURL,
			Title:   DefaultSiteTitle,
			Tagline: DefaultTagline,
			Project: DefaultProject,
		},
		Origins: Origins{Repo: OriginDefault, Branch: OriginDefault},
	}
}

// Load builds the configuration for root. Layers, lowest first: built-in
// defaults, the optional YAML file at configPath (relative paths resolve
// against root), then the process environment. The root's .env file is loaded
// into the environment before the YAML file so ${VAR} references can use it.
func Load(root, configPath string) (*Config, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, ferrors.ConfigError("resolve project root").WithCause(err).WithContext("root", root).Build()
	}
	cfg := Default(absRoot)

	if err := loadEnvFile(absRoot); err != nil {
		return nil, err
	}

	if configPath != "" {
		if !filepath.IsAbs(configPath) {
			configPath = filepath.Join(absRoot, configPath)
		}
		if err := cfg.mergeFile(configPath); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeFile overlays the YAML file onto cfg. A missing file is not an error.
func (c *Config) mergeFile(path string) error {
	// #nosec G304 -- path is the operator-supplied config location.
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Debug("No config file, using defaults", logfields.Path(path))
			return nil
		}
		return ferrors.ConfigError("read config file").WithCause(err).WithContext("path", path).Build()
	}

	expanded := os.ExpandEnv(string(data))
	dec := yaml.NewDecoder(strings.NewReader(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return ferrors.ConfigError("parse config file").WithCause(err).WithContext("path", path).Build()
	}

	// Provenance follows key presence, so a file restating a default still pins it.
	var present struct {
		Repo   *string `yaml:"repo"`
		Branch *string `yaml:"branch"`
	}
	if err := yaml.Unmarshal([]byte(expanded), &present); err != nil {
		return ferrors.ConfigError("parse config file").WithCause(err).WithContext("path", path).Build()
	}
	if present.Repo != nil {
		c.Origins.Repo = OriginFile
	}
	if present.Branch != nil {
		c.Origins.Branch = OriginFile
	}
	slog.Debug("Loaded config file", logfields.Path(path))
	return nil
}

// Validate checks the invariants the builder relies on.
func (c *Config) Validate() error {
	st, err := os.Stat(c.Root)
	if err != nil || !st.IsDir() {
		return ferrors.ConfigError("project root does not exist or is not a directory").
			WithCause(err).WithContext("root", c.Root).Build()
	}
	if !validRepoSlug(c.Repo) {
		return ferrors.ValidationError(fmt.Sprintf("repository must look like owner/name, got %q", c.Repo)).Build()
	}
	if strings.TrimSpace(c.Branch) == "" {
		return ferrors.ValidationError("branch must not be empty").Build()
	}
	if c.MaxImages < 0 {
		return ferrors.ValidationError(fmt.Sprintf("max_images must be >= 0, got %d", c.MaxImages)).Build()
	}
	for name, dir := range map[string]string{
		"notebooks_dir":     c.NotebooksDir,
		"images_dir":        c.ImagesDir,
		"output_dir":        c.OutputDir,
		"output_images_dir": c.OutputImagesDir,
	} {
		if dir == "" || filepath.IsAbs(dir) || strings.HasPrefix(filepath.Clean(dir), "..") {
			return ferrors.ValidationError(name+" must be a relative path inside the project").
				WithContext("value", dir).Build()
		}
	}
	if c.PageFile == "" || strings.ContainsAny(c.PageFile, `/\`) {
		return ferrors.ValidationError("page_file must be a plain file name").WithContext("value", c.PageFile).Build()
	}
	if c.MarkerFile == "" || strings.ContainsAny(c.MarkerFile, `/\`) {
		return ferrors.ValidationError("marker_file must be a plain file name").WithContext("value", c.MarkerFile).Build()
	}
	if filepath.Clean(c.OutputImagesPath()) == filepath.Clean(c.ImagesPath()) ||
		fsutil.SameDir(c.OutputImagesPath(), c.ImagesPath()) {
		return ferrors.ValidationError("output image directory must differ from the source image directory").
			WithContext("path", c.ImagesPath()).Build()
	}
	return nil
}

func validRepoSlug(s string) bool {
	owner, name, ok := strings.Cut(s, "/")
	return ok && owner != "" && name != "" && !strings.ContainsAny(name, "/ ") && !strings.Contains(owner, " ")
}

// FillDetected applies repository and branch values detected from git, but
// only where no file, env or flag layer has set them.
func (c *Config) FillDetected(repo, branch string) {
	if repo != "" && c.Origins.Repo == OriginDefault {
		c.Repo = repo
		c.Origins.Repo = OriginGit
	}
	if branch != "" && c.Origins.Branch == OriginDefault {
		c.Branch = branch
		c.Origins.Branch = OriginGit
	}
}

func (c *Config) NotebooksPath() string { return filepath.Join(c.Root, c.NotebooksDir) }
func (c *Config) ImagesPath() string    { return filepath.Join(c.Root, c.ImagesDir) }
func (c *Config) OutputPath() string    { return filepath.Join(c.Root, c.OutputDir) }
func (c *Config) PagePath() string      { return filepath.Join(c.OutputPath(), c.PageFile) }
func (c *Config) MarkerPath() string    { return filepath.Join(c.OutputPath(), c.MarkerFile) }

func (c *Config) OutputImagesPath() string {
	return filepath.Join(c.OutputPath(), c.OutputImagesDir)
}

// NotebooksRepoPath is the repository-relative, slash-separated notebooks dir.
func (c *Config) NotebooksRepoPath() string {
	return filepath.ToSlash(filepath.Clean(c.NotebooksDir))
}

// PublishedImagesPath is the output-relative, slash-separated image dir.
func (c *Config) PublishedImagesPath() string {
	return filepath.ToSlash(filepath.Clean(c.OutputImagesDir))
}

// HeaderCandidates lists the shared header locations in lookup order: the
// project root, then its parent directory.
func (c *Config) HeaderCandidates() []string {
	if c.HeaderFile == "" {
		return nil
	}
	if filepath.IsAbs(c.HeaderFile) {
		return []string{c.HeaderFile}
	}
	return []string{
		filepath.Join(c.Root, c.HeaderFile),
		filepath.Join(filepath.Dir(c.Root), c.HeaderFile),
	}
}
