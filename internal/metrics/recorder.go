package metrics

import "time"

// ResultLabel enumerates stage result categories for counters.
type ResultLabel string

const (
	ResultRan      ResultLabel = "ran"
	ResultSkipped  ResultLabel = "skipped"
	ResultFailed   ResultLabel = "failed"
	ResultTimedOut ResultLabel = "timed_out"
)

// BuildOutcomeLabel is the final status of a build.
type BuildOutcomeLabel string

const (
	BuildOutcomeSuccess        BuildOutcomeLabel = "success"
	BuildOutcomeBuildFailed    BuildOutcomeLabel = "build_failed"
	BuildOutcomeProtocol       BuildOutcomeLabel = "protocol_error"
	BuildOutcomeArtifactFailed BuildOutcomeLabel = "artifact_failed"
)

// Recorder defines observability hooks for build and stage metrics.
// Implementations must be safe for concurrent use; pipelines for different
// artifacts report at the same time.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	IncStageRetry(tool string)
	IncArtifactOutcome(success bool)
	ObserveBuildDuration(d time.Duration)
	IncBuildOutcome(outcome BuildOutcomeLabel)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) IncStageResult(string, ResultLabel)         {}
func (NoopRecorder) IncStageRetry(string)                       {}
func (NoopRecorder) IncArtifactOutcome(bool)                    {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)         {}
func (NoopRecorder) IncBuildOutcome(BuildOutcomeLabel)          {}
