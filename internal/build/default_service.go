package build

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/cargo-vitasdk/internal/config"
	"git.home.luguber.info/inful/cargo-vitasdk/internal/eventstore"
	"git.home.luguber.info/inful/cargo-vitasdk/internal/logfields"
	"git.home.luguber.info/inful/cargo-vitasdk/internal/metrics"
	"git.home.luguber.info/inful/cargo-vitasdk/internal/observability"
	"git.home.luguber.info/inful/cargo-vitasdk/internal/pipeline"
	"git.home.luguber.info/inful/cargo-vitasdk/internal/staleness"
	"git.home.luguber.info/inful/cargo-vitasdk/internal/stream"
	"git.home.luguber.info/inful/cargo-vitasdk/internal/taskgroup"
	"git.home.luguber.info/inful/cargo-vitasdk/internal/toolchain"
)

// BuildRunner runs the build tool with args and calls spawn for every
// reported executable. It returns the number of spawned artifacts.
type BuildRunner func(ctx context.Context, spawn stream.SpawnFunc, args []string) (int, error)

// DefaultBuildService is the standard implementation of BuildService.
type DefaultBuildService struct {
	command     stream.Command
	tools       config.ToolsConfig
	runner      toolchain.Runner
	oracle      pipeline.StalenessChecker
	buildRunner BuildRunner
	recorder    metrics.Recorder
	store       eventstore.Store
}

// NewBuildService creates a service that builds with the configured build
// tool and runs packaging tools through runner.
func NewBuildService(cfg *config.Config, runner toolchain.Runner) *DefaultBuildService {
	s := &DefaultBuildService{
		command:  stream.CommandFromConfig(cfg.Toolchain),
		tools:    cfg.Tools,
		runner:   runner,
		oracle:   staleness.New(),
		recorder: metrics.NoopRecorder{},
	}
	s.buildRunner = s.runBuildTool
	return s
}

// WithRecorder sets the metrics recorder.
func (s *DefaultBuildService) WithRecorder(r metrics.Recorder) *DefaultBuildService {
	if r != nil {
		s.recorder = r
	}
	return s
}

// WithEventStore enables the event history.
func (s *DefaultBuildService) WithEventStore(store eventstore.Store) *DefaultBuildService {
	s.store = store
	return s
}

// WithBuildRunner replaces the build tool subprocess (for testing).
func (s *DefaultBuildService) WithBuildRunner(br BuildRunner) *DefaultBuildService {
	s.buildRunner = br
	return s
}

// WithStalenessChecker replaces the mtime oracle (for testing).
func (s *DefaultBuildService) WithStalenessChecker(o pipeline.StalenessChecker) *DefaultBuildService {
	s.oracle = o
	return s
}

func (s *DefaultBuildService) runBuildTool(ctx context.Context, spawn stream.SpawnFunc, args []string) (int, error) {
	d := &stream.Driver{Command: s.command, Spawn: spawn}
	return d.Run(ctx, args)
}

// Run executes the build and all artifact pipelines.
func (s *DefaultBuildService) Run(ctx context.Context, req BuildRequest) (*BuildResult, error) {
	startTime := time.Now()
	buildID := uuid.NewString()
	ctx = observability.WithBuildID(ctx, buildID)

	result := &BuildResult{BuildID: buildID, StartTime: startTime}
	s.appendEvent(ctx, func() (*eventstore.BaseEvent, error) {
		return eventstore.NewBuildStarted(buildID, eventstore.BuildStartedData{
			Command: s.command.Program + " " + strings.Join(s.command.Args(req.Args), " "),
			Args:    req.Args,
		})
	})
	observability.InfoContext(ctx, "Build started", logfields.Command(strings.Join(req.Args, " ")))

	p := pipeline.New(s.runner, s.oracle,
		pipeline.WithTools(s.tools),
		pipeline.WithRecorder(s.recorder),
		pipeline.WithObserver(&eventObserver{ctx: ctx, svc: s, buildID: buildID}))

	// The group is owned here: every handle appended by spawn is drained below
	// before Run returns.
	var group taskgroup.Group[pipeline.Outcome]
	spawn := func(ctx context.Context, art pipeline.Artifact) {
		// spawn is called sequentially by the driver, so Len is this
		// artifact's position. Store writes stay off the read loop.
		index := group.Len()
		group.Go(func() pipeline.Outcome {
			s.appendEvent(ctx, func() (*eventstore.BaseEvent, error) {
				return eventstore.NewArtifactDiscovered(buildID, art.Executable, eventstore.ArtifactDiscoveredData{
					PackageID:    art.PackageID,
					ManifestPath: art.ManifestPath,
					Index:        index,
				})
			})
			out := p.Run(ctx, art)
			s.appendEvent(ctx, func() (*eventstore.BaseEvent, error) {
				return eventstore.NewArtifactCompleted(buildID, art.Executable, completedData(out))
			})
			return out
		})
	}

	_, driverErr := s.buildRunner(ctx, spawn, req.Args)
	if driverErr != nil && group.Len() > 0 {
		observability.WarnContext(ctx, "Build aborted, waiting for running artifact pipelines",
			logfields.Count(group.Len()), logfields.Error(driverErr))
	}

	result.Artifacts = group.Wait()
	err := aggregate(driverErr, result.Artifacts)

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(startTime)
	result.Status = BuildStatusSuccess
	if err != nil {
		result.Status = BuildStatusFailed
	}

	s.recorder.ObserveBuildDuration(result.Duration)
	s.recorder.IncBuildOutcome(outcomeLabel(err))
	s.appendEvent(ctx, func() (*eventstore.BaseEvent, error) {
		return eventstore.NewBuildCompleted(buildID, eventstore.BuildCompletedData{
			Status:     string(result.Status),
			Artifacts:  len(result.Artifacts),
			Failed:     len(result.Failed()),
			DurationMS: result.Duration.Milliseconds(),
			Error:      errString(err),
		})
	})

	if err != nil {
		observability.ErrorContext(ctx, "Build failed",
			logfields.Count(len(result.Artifacts)), logfields.Error(err))
		return result, err
	}
	observability.InfoContext(ctx, "Build completed",
		logfields.Count(len(result.Artifacts)),
		logfields.DurationMS(float64(result.Duration.Milliseconds())))
	return result, nil
}

func completedData(out pipeline.Outcome) eventstore.ArtifactCompletedData {
	d := eventstore.ArtifactCompletedData{
		Success:    out.Err == nil,
		Package:    out.Paths.Package,
		DurationMS: out.Duration.Milliseconds(),
		Error:      errString(out.Err),
	}
	for _, st := range out.Ran {
		d.Ran = append(d.Ran, string(st))
	}
	for _, st := range out.Skipped {
		d.Skipped = append(d.Skipped, string(st))
	}
	return d
}

// appendEvent records an event when the history is enabled. Failing to
// record history never fails a build.
func (s *DefaultBuildService) appendEvent(ctx context.Context, build func() (*eventstore.BaseEvent, error)) {
	if s.store == nil {
		return
	}
	ev, err := build()
	if err == nil {
		err = s.store.Append(context.WithoutCancel(ctx), ev)
	}
	if err != nil {
		observability.WarnContext(ctx, "Failed to record build event", logfields.Error(err))
	}
}
