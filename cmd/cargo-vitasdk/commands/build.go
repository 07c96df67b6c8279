package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/fatih/color"

	"git.home.luguber.info/inful/cargo-vitasdk/internal/build"
	"git.home.luguber.info/inful/cargo-vitasdk/internal/config"
	vserrors "git.home.luguber.info/inful/cargo-vitasdk/internal/errors"
	"git.home.luguber.info/inful/cargo-vitasdk/internal/eventstore"
	"git.home.luguber.info/inful/cargo-vitasdk/internal/metrics"
	"git.home.luguber.info/inful/cargo-vitasdk/internal/retry"
	"git.home.luguber.info/inful/cargo-vitasdk/internal/toolchain"
)

// BuildCmd implements the 'build' command. Every argument after `build` is
// forwarded to cargo unchanged.
type BuildCmd struct {
	Args []string `arg:"" optional:"" help:"Arguments passed to cargo build"`
}

func (b *BuildCmd) Run(ctx context.Context, g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}

	rootDir, err := cfg.ToolchainRoot()
	if err != nil {
		return err
	}
	tc, err := toolchain.New(rootDir)
	if err != nil {
		return err
	}

	recorder := metrics.NewPrometheusRecorder(nil)
	svc := build.NewBuildService(cfg, newStageRunner(tc, cfg.Stages, recorder)).WithRecorder(recorder)

	if cfg.Output.EventsDB != "" {
		store, err := eventstore.NewSQLiteStore(cfg.Output.EventsDB)
		if err != nil {
			return vserrors.FileSystemError("open event store", err).WithContext("path", cfg.Output.EventsDB)
		}
		defer func() {
			if err := store.Close(); err != nil {
				slog.Warn("Failed to close event store", "error", err)
			}
		}()
		svc.WithEventStore(store)
	}

	result, err := svc.Run(ctx, build.BuildRequest{Args: b.Args})

	if cfg.Output.MetricsFile != "" {
		if werr := recorder.WriteTextfile(cfg.Output.MetricsFile); werr != nil {
			slog.Warn("Failed to write metrics file", "path", cfg.Output.MetricsFile, "error", werr)
		}
	}

	if result != nil {
		printSummary(g.Out, result)
	}
	return err
}

// newStageRunner wires the tool executor with the configured timeout and
// retry policy.
func newStageRunner(tc *toolchain.Toolchain, sc config.StagesConfig, rec metrics.Recorder) toolchain.Runner {
	exec := toolchain.NewExecRunner(tc).WithTimeout(sc.Timeout)
	if sc.Retries == 0 {
		return exec
	}
	r := retry.NewRunner(exec, retry.FromConfig(sc))
	r.OnRetry = func(tool toolchain.Tool, _ int, _ error) {
		rec.IncStageRetry(tool.String())
	}
	return r
}

func printSummary(w io.Writer, result *build.BuildResult) {
	for _, o := range result.Artifacts {
		switch {
		case o.Err != nil:
			_, _ = fmt.Fprintf(w, "%s %s: %v\n", color.RedString("%12s", "Failed"), o.Artifact.Executable, o.Err)
		case len(o.Ran) == 0:
			_, _ = fmt.Fprintf(w, "%s %s\n", color.CyanString("%12s", "Fresh"), o.Paths.Package)
		default:
			_, _ = fmt.Fprintf(w, "%s %s\n", color.GreenString("%12s", "Packaged"), o.Paths.Package)
		}
	}

	line := fmt.Sprintf("%d artifact(s), %d failed in %s",
		len(result.Artifacts), len(result.Failed()), result.Duration.Round(time.Millisecond))
	if result.Status.IsSuccess() {
		_, _ = fmt.Fprintf(w, "%s %s\n", color.GreenString("%12s", "Finished"), line)
	} else {
		_, _ = fmt.Fprintf(w, "%s %s\n", color.RedString("%12s", "Error"), line)
	}
}
