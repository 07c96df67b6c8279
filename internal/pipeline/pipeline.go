// Package pipeline post-processes one compiled executable into an installable
// package through four stages:
//
//	mksfoex ───────────────────────┐
//	                               ├─> pack_vpk
//	elf_create ─> make_fself ──────┘
//
// The two branches run concurrently and the packer runs only after both have
// completed. Every stage is skipped when its output is newer than its inputs.
package pipeline

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/cargo-vitasdk/internal/artifact"
	"git.home.luguber.info/inful/cargo-vitasdk/internal/config"
	vserrors "git.home.luguber.info/inful/cargo-vitasdk/internal/errors"
	"git.home.luguber.info/inful/cargo-vitasdk/internal/logfields"
	"git.home.luguber.info/inful/cargo-vitasdk/internal/manifest"
	"git.home.luguber.info/inful/cargo-vitasdk/internal/metrics"
	"git.home.luguber.info/inful/cargo-vitasdk/internal/observability"
	"git.home.luguber.info/inful/cargo-vitasdk/internal/toolchain"
)

// StalenessChecker decides whether a stage output is up to date.
type StalenessChecker interface {
	IsCached(ctx context.Context, output string, inputs []string) (bool, error)
}

// Artifact is one executable reported by the build tool.
type Artifact struct {
	Executable   string
	ManifestPath string // Cargo.toml of the owning package; may be empty
	PackageID    string
}

// Outcome is the result of one pipeline run. Err is nil on success.
type Outcome struct {
	Artifact Artifact
	Paths    artifact.Paths
	Err      error
	Ran      []StageName
	Skipped  []StageName
	Duration time.Duration
}

// Success reports whether the package was produced or already up to date.
func (o Outcome) Success() bool { return o.Err == nil }

// Pipeline runs the fixed stage graph. It holds no per-artifact state, so one
// Pipeline serves every artifact of a build concurrently.
type Pipeline struct {
	runner       toolchain.Runner
	oracle       StalenessChecker
	tools        config.ToolsConfig
	recorder     metrics.Recorder
	observer     Observer
	loadManifest func(path string) (*manifest.Metadata, error)
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithTools sets the default tool settings.
func WithTools(tools config.ToolsConfig) Option {
	return func(p *Pipeline) { p.tools = tools }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(p *Pipeline) {
		if r != nil {
			p.recorder = r
		}
	}
}

// WithObserver sets the stage observer.
func WithObserver(o Observer) Option {
	return func(p *Pipeline) {
		if o != nil {
			p.observer = o
		}
	}
}

// WithManifestLoader replaces manifest.Load.
func WithManifestLoader(load func(string) (*manifest.Metadata, error)) Option {
	return func(p *Pipeline) { p.loadManifest = load }
}

// New creates a pipeline that runs tools with runner and checks staleness
// with oracle.
func New(runner toolchain.Runner, oracle StalenessChecker, opts ...Option) *Pipeline {
	p := &Pipeline{
		runner:       runner,
		oracle:       oracle,
		recorder:     metrics.NoopRecorder{},
		observer:     NoopObserver{},
		loadManifest: manifest.Load,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run post-processes art. It always returns after every tool it started has
// exited, even when the other branch failed first.
func (p *Pipeline) Run(ctx context.Context, art Artifact) Outcome {
	start := time.Now()
	ctx = observability.WithArtifact(ctx, art.Executable)
	r := &run{p: p, art: art}
	out := Outcome{Artifact: art, Paths: artifact.PathsFor(art.Executable)}

	out.Err = r.execute(ctx, out.Paths)

	out.Ran, out.Skipped = r.ran, r.skipped
	out.Duration = time.Since(start)
	p.recorder.IncArtifactOutcome(out.Err == nil)
	if out.Err != nil {
		observability.ErrorContext(ctx, "Artifact post-processing failed", logfields.Error(out.Err))
	} else {
		observability.InfoContext(ctx, "Artifact packaged",
			logfields.Path(out.Paths.Package),
			logfields.Count(len(out.Ran)),
			logfields.DurationMS(float64(out.Duration.Milliseconds())))
	}
	return out
}

// run carries the per-artifact bookkeeping of one Pipeline.Run.
type run struct {
	p   *Pipeline
	art Artifact

	mu      sync.Mutex
	ran     []StageName
	skipped []StageName
}

func (r *run) execute(ctx context.Context, paths artifact.Paths) error {
	var md *manifest.Metadata
	if r.art.ManifestPath != "" {
		var err error
		md, err = r.p.loadManifest(r.art.ManifestPath)
		if err != nil {
			return vserrors.Wrap(err, vserrors.CategoryConfig, vserrors.SeverityError, "reading package metadata").
				WithContext("path", r.art.ManifestPath)
		}
	}

	pl, err := buildPlan(r.art, paths, r.p.tools, md)
	if err != nil {
		return vserrors.Wrap(err, vserrors.CategoryConfig, vserrors.SeverityError, "planning stages").
			WithContext("artifact", r.art.Executable)
	}
	if pl.pack.inputs, err = expandAssetDirs(pl.pack.inputs); err != nil {
		return err
	}

	// gctx is only consulted before a stage starts: a failure in one branch
	// stops the other from starting new stages but never kills its tool.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return r.runStage(gctx, pl.meta)
	})
	g.Go(func() error {
		if err := r.runStage(gctx, pl.elf); err != nil {
			return err
		}
		return r.runStage(gctx, pl.fself)
	})
	if err := g.Wait(); err != nil {
		return err
	}

	return r.runStage(ctx, pl.pack)
}

func (r *run) runStage(ctx context.Context, s stage) error {
	if err := ctx.Err(); err != nil {
		return &StageError{Kind: StageErrorCanceled, Stage: s.name, Artifact: r.art.Executable, Err: err}
	}
	ctx = observability.WithStage(ctx, string(s.name))

	cached, err := r.p.oracle.IsCached(ctx, s.output, s.inputs)
	if err != nil {
		r.p.recorder.IncStageResult(string(s.name), metrics.ResultFailed)
		r.p.observer.OnStageComplete(r.art, s.name, 0, err)
		return newStageError(s.name, r.art.Executable, err)
	}
	if cached {
		observability.DebugContext(ctx, "Skipping stage, output up to date", logfields.Path(s.output))
		r.p.recorder.IncStageResult(string(s.name), metrics.ResultSkipped)
		r.p.observer.OnStageSkip(r.art, s.name)
		r.record(s.name, true)
		return nil
	}

	r.p.observer.OnStageStart(r.art, s.name)
	span := observability.StartSpan(ctx, string(s.name))
	err = r.p.runner.Run(ctx, s.tool, s.args)
	if err != nil {
		span.RecordError(err)
	}
	d := span.End()

	r.p.recorder.ObserveStageDuration(string(s.name), d)
	r.p.observer.OnStageComplete(r.art, s.name, d, err)
	if err != nil {
		se := newStageError(s.name, r.art.Executable, err)
		result := metrics.ResultFailed
		if se.Kind == StageErrorTimedOut {
			result = metrics.ResultTimedOut
		}
		r.p.recorder.IncStageResult(string(s.name), result)
		return se
	}
	r.p.recorder.IncStageResult(string(s.name), metrics.ResultRan)
	r.record(s.name, false)
	return nil
}

func (r *run) record(name StageName, skipped bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if skipped {
		r.skipped = append(r.skipped, name)
	} else {
		r.ran = append(r.ran, name)
	}
}
