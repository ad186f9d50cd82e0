package git

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	helpers "github.com/kl543/stmdocs/internal/testutil/testutils"
)

func TestDetect(t *testing.T) {
	dir := helpers.SetupTestGitRepo(t, "main", "https://github.com/kl543/stm-toolkit.git")

	info, err := Detect(dir)
	require.NoError(t, err)
	require.Equal(t, "kl543/stm-toolkit", info.Repo)
	require.Equal(t, "main", info.Branch)
	require.Equal(t, "https://github.com/kl543/stm-toolkit.git", info.Remote)
}

func TestDetect_FromSubdirectory(t *testing.T) {
	dir := helpers.SetupTestGitRepo(t, "gh-pages", "git@github.com:kl543/stm-toolkit.git")
	sub := filepath.Join(dir, "notebooks")
	require.NoError(t, os.MkdirAll(sub, 0o750))

	info, err := Detect(sub)
	require.NoError(t, err)
	require.Equal(t, "kl543/stm-toolkit", info.Repo)
	require.Equal(t, "gh-pages", info.Branch)
}

func TestDetect_NonGitHubRemote(t *testing.T) {
	dir := helpers.SetupTestGitRepo(t, "main", "https://gitlab.com/kl543/stm-toolkit.git")

	info, err := Detect(dir)
	require.NoError(t, err)
	require.Empty(t, info.Repo)
	require.Equal(t, "main", info.Branch)
}

func TestDetect_NotRepository(t *testing.T) {
	_, err := Detect(t.TempDir())
	require.ErrorIs(t, err, ErrNotRepository)
}

func TestParseGitHubSlug(t *testing.T) {
	tests := []struct {
		remote string
		want   string
		ok     bool
	}{
		{"https://github.com/kl543/stm-toolkit.git", "kl543/stm-toolkit", true},
		{"https://github.com/kl543/stm-toolkit", "kl543/stm-toolkit", true},
		{"https://github.com/kl543/stm-toolkit/", "kl543/stm-toolkit", true},
		{"git@github.com:kl543/stm-toolkit.git", "kl543/stm-toolkit", true},
		{"ssh://git@github.com/kl543/stm-toolkit.git", "kl543/stm-toolkit", true},
		{"https://gitlab.com/kl543/stm-toolkit.git", "", false},
		{"https://github.com/kl543", "", false},
		{"https://github.com/kl543/stm-toolkit/tree/main", "", false},
		{"file:///srv/git/stm-toolkit.git", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.remote, func(t *testing.T) {
			got, ok := ParseGitHubSlug(tt.remote)
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.want, got)
		})
	}
}
