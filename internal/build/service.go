package build

import (
	"context"
	"time"

	"git.home.luguber.info/inful/sitebake/internal/config"
	"git.home.luguber.info/inful/sitebake/internal/markdown"
)

// BuildService is the canonical interface for executing site builds.
type BuildService interface {
	// Run executes a complete build: clean → discovery → collision guard →
	// template → registry (assets) → pages → manifest.
	// Returns a BuildResult with detailed outcomes and any error encountered.
	Run(ctx context.Context, req BuildRequest) (*BuildResult, error)
}

// BuildRequest contains all inputs required to execute a build.
type BuildRequest struct {
	// Config is the loaded configuration for this build.
	Config *config.Config

	// Documents restricts the build to these document paths (relative to the
	// source directory, extension optional). Empty means every document found.
	Documents []string

	// Renderer overrides the primary content renderer. Nil uses the one the
	// registry selects from configuration.
	Renderer markdown.Renderer
}

// BuildResult contains the outcome of a build execution.
type BuildResult struct {
	// Status indicates overall build outcome.
	Status BuildStatus

	// BuildID identifies the run in logs and in the manifest.
	BuildID string

	// OutputPath is the output directory.
	OutputPath string

	// Pages lists the output files written, in document order.
	Pages []string

	// AssetsCopied is the number of asset files copied.
	AssetsCopied int

	// Warnings counts recovered front matter problems.
	Warnings int

	// ManifestPath is where the manifest was written ("" when disabled).
	ManifestPath string

	// PreviousBuildID is the id found in the manifest left by the last build.
	PreviousBuildID string

	// Unchanged reports that the previous manifest recorded the same inputs
	// and outputs.
	Unchanged bool

	// Unfilled lists template placeholders that no page defined. Lenient
	// builds leave them in the output verbatim.
	Unfilled []string

	// Duration is the total build execution time.
	Duration time.Duration

	// StartTime is when the build started.
	StartTime time.Time

	// EndTime is when the build completed.
	EndTime time.Time
}

// BuildStatus represents the outcome of a build execution.
type BuildStatus string

const (
	// BuildStatusSuccess indicates the build completed successfully.
	BuildStatusSuccess BuildStatus = "success"

	// BuildStatusFailed indicates the build encountered an error.
	BuildStatusFailed BuildStatus = "failed"

	// BuildStatusCancelled indicates the build was cancelled.
	BuildStatusCancelled BuildStatus = "cancelled"
)

// IsSuccess returns true if the build completed successfully.
func (s BuildStatus) IsSuccess() bool {
	return s == BuildStatusSuccess
}
