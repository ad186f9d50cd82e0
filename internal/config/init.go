package config

import (
	"bytes"
	"os"

	"gopkg.in/yaml.v3"

	ferrors "github.com/kl543/stmdocs/internal/foundation/errors"
)

const exampleHeader = `# stmdocs configuration. Every key is optional; omitted keys keep their defaults.
# Environment overrides: GITHUB_REPOSITORY, GITHUB_REF_NAME, STMDOCS_MAX_IMAGES, STMDOCS_SITE_URL.
# repo and branch are commented out so --detect-repo can still fill them.
`

// Init writes an example configuration file populated with the defaults.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return ferrors.ValidationError("configuration file already exists (use --force to overwrite)").
			WithContext("path", configPath).Build()
	}

	var buf bytes.Buffer
	buf.WriteString(exampleHeader)
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(Default("")); err != nil {
		return ferrors.InternalError("marshal example config").WithCause(err).Build()
	}
	if err := enc.Close(); err != nil {
		return ferrors.InternalError("marshal example config").WithCause(err).Build()
	}

	if err := os.WriteFile(configPath, commentOutKeys(buf.Bytes(), "repo", "branch"), 0o644); err != nil {
		return ferrors.FileSystemError("write config file").WithCause(err).WithContext("path", configPath).Build()
	}
	return nil
}

// commentOutKeys prefixes the given top-level keys with "# ".
func commentOutKeys(data []byte, keys ...string) []byte {
	lines := bytes.Split(data, []byte("\n"))
	for i, line := range lines {
		for _, key := range keys {
			if bytes.HasPrefix(line, []byte(key+":")) {
				lines[i] = append([]byte("# "), line...)
			}
		}
	}
	return bytes.Join(lines, []byte("\n"))
}
