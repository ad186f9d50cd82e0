package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	ferrors "github.com/kl543/stmdocs/internal/foundation/errors"
	"github.com/kl543/stmdocs/internal/logfields"
)

// Environment variables read by applyEnv.
const (
	EnvRepo      = "GITHUB_REPOSITORY"
	EnvBranch    = "GITHUB_REF_NAME"
	EnvMaxImages = "STMDOCS_MAX_IMAGES"
	EnvSiteURL   = "STMDOCS_SITE_URL"
)

var envFiles = []string{".env", ".env.local"}

// loadEnvFile loads the first .env file found under root. Variables already
// present in the process environment are never overridden.
func loadEnvFile(root string) error {
	for _, name := range envFiles {
		path := filepath.Join(root, name)
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return ferrors.ConfigError("load env file").WithCause(err).WithContext("path", path).Build()
		}
		slog.Debug("Loaded environment variables", logfields.Path(path))
		return nil
	}
	return nil
}

// applyEnv overlays environment values. Empty values count as unset.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get(EnvRepo); ok {
		c.Repo = v
		c.Origins.Repo = OriginEnv
	}
	if v, ok := get(EnvBranch); ok {
		c.Branch = v
		c.Origins.Branch = OriginEnv
	}
	if v, ok := get(EnvMaxImages); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return ferrors.ConfigError("invalid "+EnvMaxImages).WithCause(err).WithContext("value", v).Build()
		}
		c.MaxImages = n
	}
	if v, ok := get(EnvSiteURL); ok {
		c.Site.URL = strings.TrimRight(v, "/")
	}
	return nil
}
