package build

import (
	"context"
	"time"

	"git.home.luguber.info/inful/cargo-vitasdk/internal/pipeline"
)

// BuildService executes cargo-vitasdk builds. The CLI is a thin wrapper over it.
type BuildService interface {
	// Run builds with req.Args forwarded to the build tool and post-processes
	// every produced executable. The result is returned even when err != nil.
	Run(ctx context.Context, req BuildRequest) (*BuildResult, error)
}

// BuildRequest contains the inputs of one build.
type BuildRequest struct {
	// Args are forwarded verbatim to the build tool.
	Args []string
}

// BuildResult contains the outcome of a build execution.
type BuildResult struct {
	// BuildID identifies the build in logs and the event history.
	BuildID string

	// Status indicates overall build outcome.
	Status BuildStatus

	// Artifacts holds one outcome per spawned pipeline, in spawn order.
	Artifacts []pipeline.Outcome

	// Duration is the total build execution time.
	Duration time.Duration

	// StartTime is when the build started.
	StartTime time.Time

	// EndTime is when the last pipeline finished.
	EndTime time.Time
}

// Failed returns the outcomes that did not produce a package.
func (r *BuildResult) Failed() []pipeline.Outcome {
	var failed []pipeline.Outcome
	for _, o := range r.Artifacts {
		if o.Err != nil {
			failed = append(failed, o)
		}
	}
	return failed
}

// BuildStatus represents the outcome of a build execution.
type BuildStatus string

const (
	// BuildStatusSuccess indicates the build and every pipeline succeeded.
	BuildStatusSuccess BuildStatus = "success"

	// BuildStatusFailed indicates the build or at least one pipeline failed.
	BuildStatusFailed BuildStatus = "failed"
)

// IsSuccess returns true if the build completed successfully.
func (s BuildStatus) IsSuccess() bool {
	return s == BuildStatusSuccess
}
