package build

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/cargo-vitasdk/internal/artifact"
	"git.home.luguber.info/inful/cargo-vitasdk/internal/config"
	vserrors "git.home.luguber.info/inful/cargo-vitasdk/internal/errors"
	"git.home.luguber.info/inful/cargo-vitasdk/internal/eventstore"
	"git.home.luguber.info/inful/cargo-vitasdk/internal/metrics"
	"git.home.luguber.info/inful/cargo-vitasdk/internal/pipeline"
	"git.home.luguber.info/inful/cargo-vitasdk/internal/stream"
	"git.home.luguber.info/inful/cargo-vitasdk/internal/toolchain"
)

// toolRunner writes every tool's output (its last argument) unless the output
// is listed in fail. delay is applied before a tool finishes.
type toolRunner struct {
	fail  map[string]bool
	delay map[string]time.Duration

	mu    sync.Mutex
	calls int
}

func (r *toolRunner) Run(_ context.Context, _ toolchain.Tool, args []string) error {
	out := args[len(args)-1]
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()

	time.Sleep(r.delay[out])
	if r.fail[out] {
		return vserrors.StageFailed("fake", fmt.Errorf("%w: exit status 1", toolchain.ErrToolFailed))
	}
	return os.WriteFile(out, []byte("ok"), 0o600)
}

// feed returns a BuildRunner that reports exes in order and then returns err.
func feed(exes []string, err error) BuildRunner {
	return func(ctx context.Context, spawn stream.SpawnFunc, _ []string) (int, error) {
		for _, exe := range exes {
			spawn(ctx, pipeline.Artifact{Executable: exe})
		}
		return len(exes), err
	}
}

func makeExecutables(t *testing.T, n int) []string {
	t.Helper()
	dir := t.TempDir()
	exes := make([]string, n)
	for i := range n {
		exes[i] = filepath.Join(dir, fmt.Sprintf("app%d", i))
		require.NoError(t, os.WriteFile(exes[i], []byte("\x7fELF"), 0o600))
	}
	return exes
}

type outcomeRecorder struct {
	metrics.NoopRecorder
	mu       sync.Mutex
	outcomes []metrics.BuildOutcomeLabel
	success  int
	failure  int
}

func (r *outcomeRecorder) IncBuildOutcome(o metrics.BuildOutcomeLabel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, o)
}

func (r *outcomeRecorder) IncArtifactOutcome(success bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if success {
		r.success++
	} else {
		r.failure++
	}
}

func newService(runner toolchain.Runner, br BuildRunner) *DefaultBuildService {
	return NewBuildService(config.Default(), runner).WithBuildRunner(br)
}

func TestRun_Success(t *testing.T) {
	exes := makeExecutables(t, 3)
	rec := &outcomeRecorder{}
	svc := newService(&toolRunner{}, feed(exes, nil)).WithRecorder(rec)

	result, err := svc.Run(t.Context(), BuildRequest{Args: []string{"--release"}})
	require.NoError(t, err)

	assert.True(t, result.Status.IsSuccess())
	assert.NotEmpty(t, result.BuildID)
	require.Len(t, result.Artifacts, 3)
	for i, o := range result.Artifacts {
		assert.Equal(t, exes[i], o.Artifact.Executable)
		assert.NoError(t, o.Err)
		assert.FileExists(t, artifact.PathsFor(exes[i]).Package)
	}
	assert.Empty(t, result.Failed())
	assert.False(t, result.EndTime.Before(result.StartTime))
	assert.Equal(t, []metrics.BuildOutcomeLabel{metrics.BuildOutcomeSuccess}, rec.outcomes)
	assert.Equal(t, 3, rec.success)
}

func TestRun_NoArtifacts(t *testing.T) {
	result, err := newService(&toolRunner{}, feed(nil, nil)).Run(t.Context(), BuildRequest{})
	require.NoError(t, err)
	assert.Empty(t, result.Artifacts)
	assert.Equal(t, BuildStatusSuccess, result.Status)
}

func TestRun_ReportsLowestFailingIndex(t *testing.T) {
	const k = 8
	exes := makeExecutables(t, k)

	// Pipeline 2 fails last; 5 and 6 fail quickly.
	runner := &toolRunner{fail: map[string]bool{}, delay: map[string]time.Duration{}}
	for _, i := range []int{2, 5, 6} {
		out := artifact.PathsFor(exes[i]).NativeExec
		runner.fail[out] = true
	}
	runner.delay[artifact.PathsFor(exes[2]).NativeExec] = 100 * time.Millisecond

	rec := &outcomeRecorder{}
	result, err := newService(runner, feed(exes, nil)).WithRecorder(rec).Run(t.Context(), BuildRequest{})
	require.Error(t, err)

	e, ok := vserrors.As(err)
	require.True(t, ok)
	assert.Equal(t, exes[2], e.Context["artifact"])
	assert.Equal(t, 2, e.Context["index"])
	assert.Equal(t, 3, e.Context["failed"])
	assert.Equal(t, k, e.Context["total"])
	assert.Equal(t, string(pipeline.StageElfCreate), e.Context["stage"])
	assert.True(t, vserrors.IsCategory(err, vserrors.CategoryStage))

	// Every pipeline was drained, including those spawned after the failures.
	require.Len(t, result.Artifacts, k)
	for i, o := range result.Artifacts {
		switch i {
		case 2, 5, 6:
			assert.Error(t, o.Err, "artifact %d", i)
		default:
			assert.NoError(t, o.Err, "artifact %d", i)
			assert.FileExists(t, o.Paths.Package)
		}
	}
	assert.Len(t, result.Failed(), 3)
	assert.Equal(t, BuildStatusFailed, result.Status)
	assert.Equal(t, []metrics.BuildOutcomeLabel{metrics.BuildOutcomeArtifactFailed}, rec.outcomes)
	assert.Equal(t, 5, rec.success)
	assert.Equal(t, 3, rec.failure)
}

func TestRun_DriverErrorTakesPrecedence(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		category vserrors.ErrorCategory
		label    metrics.BuildOutcomeLabel
	}{
		{
			name:     "protocol",
			err:      vserrors.ProtocolViolation(4, errors.New("invalid character 'x'")),
			category: vserrors.CategoryProtocol,
			label:    metrics.BuildOutcomeProtocol,
		},
		{
			name:     "build",
			err:      vserrors.BuildFailed("cargo build", stream.ErrBuildFailed),
			category: vserrors.CategoryBuild,
			label:    metrics.BuildOutcomeBuildFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exes := makeExecutables(t, 4)
			runner := &toolRunner{fail: map[string]bool{
				artifact.PathsFor(exes[0]).SignedExec: true,
			}}
			rec := &outcomeRecorder{}

			result, err := newService(runner, feed(exes, tt.err)).WithRecorder(rec).Run(t.Context(), BuildRequest{})
			require.Error(t, err)
			assert.Same(t, tt.err, err)
			assert.True(t, vserrors.IsCategory(err, tt.category))

			// Spawned pipelines still ran to completion.
			require.Len(t, result.Artifacts, 4)
			assert.Error(t, result.Artifacts[0].Err)
			for _, o := range result.Artifacts[1:] {
				assert.NoError(t, o.Err)
			}
			assert.Equal(t, []metrics.BuildOutcomeLabel{tt.label}, rec.outcomes)
		})
	}
}

func TestRun_RecordsEvents(t *testing.T) {
	store, err := eventstore.NewSQLiteStore(filepath.Join(t.TempDir(), "events.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	exes := makeExecutables(t, 2)
	result, err := newService(&toolRunner{}, feed(exes, nil)).WithEventStore(store).Run(t.Context(), BuildRequest{})
	require.NoError(t, err)

	events, err := store.GetByBuildID(t.Context(), result.BuildID)
	require.NoError(t, err)
	require.NotEmpty(t, events)
	assert.Equal(t, eventstore.TypeBuildStarted, events[0].Type())
	assert.Equal(t, eventstore.TypeBuildCompleted, events[len(events)-1].Type())

	summary := eventstore.Summarize(events)
	assert.Equal(t, result.BuildID, summary.BuildID)
	assert.Equal(t, eventstore.StatusSucceeded, summary.Status)
	assert.Equal(t, exes, summary.Artifacts)
	assert.Equal(t, 8, summary.StagesRan)
	assert.Zero(t, summary.StagesSkipped)
	assert.Zero(t, summary.FailedCount)

	latest, err := store.LatestBuildID(t.Context())
	require.NoError(t, err)
	assert.Equal(t, result.BuildID, latest)
}

// gatedStore holds every artifact_discovered append until gate is closed.
type gatedStore struct {
	eventstore.Store
	gate <-chan struct{}
}

func (g *gatedStore) Append(ctx context.Context, e eventstore.Event) error {
	if e.Type() == eventstore.TypeArtifactDiscovered {
		<-g.gate
	}
	return g.Store.Append(ctx, e)
}

func TestRun_DriverNotBlockedByEventStore(t *testing.T) {
	store, err := eventstore.NewSQLiteStore(filepath.Join(t.TempDir(), "events.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	exes := makeExecutables(t, 4)
	gate := make(chan struct{})
	fed := make(chan struct{})
	br := func(ctx context.Context, spawn stream.SpawnFunc, args []string) (int, error) {
		n, err := feed(exes, nil)(ctx, spawn, args)
		close(fed)
		return n, err
	}

	type runResult struct {
		result *BuildResult
		err    error
	}
	done := make(chan runResult, 1)
	go func() {
		result, err := newService(&toolRunner{}, br).
			WithEventStore(&gatedStore{Store: store, gate: gate}).
			Run(context.Background(), BuildRequest{})
		done <- runResult{result, err}
	}()

	select {
	case <-fed:
	case <-time.After(5 * time.Second):
		close(gate)
		t.Fatal("driver blocked on event store appends")
	}
	close(gate)

	res := <-done
	require.NoError(t, res.err)
	events, err := store.GetByBuildID(t.Context(), res.result.BuildID)
	require.NoError(t, err)
	assert.Equal(t, exes, eventstore.Summarize(events).Artifacts)
}

type alwaysCached struct{}

func (alwaysCached) IsCached(context.Context, string, []string) (bool, error) { return true, nil }

func TestRun_RecordsSkippedStages(t *testing.T) {
	store, err := eventstore.NewSQLiteStore(filepath.Join(t.TempDir(), "events.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	runner := &toolRunner{}
	exes := makeExecutables(t, 1)
	result, err := newService(runner, feed(exes, nil)).
		WithStalenessChecker(alwaysCached{}).
		WithEventStore(store).
		Run(t.Context(), BuildRequest{})
	require.NoError(t, err)

	assert.Zero(t, runner.calls)
	require.Len(t, result.Artifacts, 1)
	assert.Len(t, result.Artifacts[0].Skipped, 4)

	events, err := store.GetByBuildID(t.Context(), result.BuildID)
	require.NoError(t, err)
	summary := eventstore.Summarize(events)
	assert.Equal(t, 4, summary.StagesSkipped)
	assert.Zero(t, summary.StagesRan)
}

func TestRun_RecordsFailureEvents(t *testing.T) {
	store, err := eventstore.NewSQLiteStore(filepath.Join(t.TempDir(), "events.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	exes := makeExecutables(t, 1)
	runner := &toolRunner{fail: map[string]bool{artifact.PathsFor(exes[0]).Meta: true}}
	result, err := newService(runner, feed(exes, nil)).WithEventStore(store).Run(t.Context(), BuildRequest{})
	require.Error(t, err)

	events, err := store.GetByBuildID(t.Context(), result.BuildID)
	require.NoError(t, err)

	var failed []eventstore.Event
	for _, e := range events {
		if e.Type() == eventstore.TypeStageFailed {
			failed = append(failed, e)
		}
	}
	require.Len(t, failed, 1)
	assert.Equal(t, string(pipeline.StageMksfoex), failed[0].Stage())
	assert.Contains(t, string(failed[0].Payload()), `"kind":"stage"`)

	summary := eventstore.Summarize(events)
	assert.Equal(t, eventstore.StatusFailed, summary.Status)
	assert.Equal(t, 1, summary.FailedCount)
	assert.NotEmpty(t, summary.ErrorMessage)
}

func TestAggregate(t *testing.T) {
	require.NoError(t, aggregate(nil, nil))
	require.NoError(t, aggregate(nil, []pipeline.Outcome{{}, {}}))

	driverErr := vserrors.BuildFailed("cargo build", stream.ErrBuildFailed)
	assert.Same(t, driverErr, aggregate(driverErr, []pipeline.Outcome{{Err: errors.New("x")}}))

	err := aggregate(nil, []pipeline.Outcome{
		{},
		{Err: vserrors.MissingInput("/t/app.velf")},
		{Err: errors.New("later")},
	})
	e, ok := vserrors.As(err)
	require.True(t, ok)
	assert.Equal(t, vserrors.CategoryMissingInput, e.Category)
	assert.Equal(t, 1, e.Context["index"])
	assert.Equal(t, 2, e.Context["failed"])
	assert.Equal(t, metrics.BuildOutcomeArtifactFailed, outcomeLabel(err))
	assert.Contains(t, err.Error(), "/t/app.velf")
}
