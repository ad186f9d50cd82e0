package build

import (
	"context"
	"time"

	"github.com/kl543/stmdocs/internal/config"
	"github.com/kl543/stmdocs/internal/gallery"
	"github.com/kl543/stmdocs/internal/linkverify"
	"github.com/kl543/stmdocs/internal/notebooks"
)

// BuildService is the canonical interface for executing page builds.
type BuildService interface {
	Run(ctx context.Context, req BuildRequest) (*BuildResult, error)
}

// BuildRequest contains all inputs required to execute a build.
type BuildRequest struct {
	Config  *config.Config
	Options BuildOptions
}

// BuildOptions provides optional build behavior modifiers.
type BuildOptions struct {
	// SkipLinkCheck disables verification of local links on the written page.
	SkipLinkCheck bool
}

// BuildResult contains the outcome of a build execution.
type BuildResult struct {
	Status BuildStatus

	// PagePath is the written page.
	PagePath string

	// HeaderPath is the shared header file used; empty for the built-in header.
	HeaderPath string

	Notebooks []notebooks.Entry
	Figures   []gallery.Entry

	// BrokenLinks lists local references on the page whose target is missing.
	BrokenLinks []linkverify.Broken

	// GeneratedAt is the time stamped on the page.
	GeneratedAt time.Time

	Duration  time.Duration
	StartTime time.Time
	EndTime   time.Time
}

// BuildStatus represents the outcome of a build execution.
type BuildStatus string

const (
	BuildStatusSuccess   BuildStatus = "success"
	BuildStatusFailed    BuildStatus = "failed"
	BuildStatusCancelled BuildStatus = "cancelled"
)

// IsSuccess returns true if the build completed successfully.
func (s BuildStatus) IsSuccess() bool {
	return s == BuildStatusSuccess
}
