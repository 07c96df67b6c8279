package toolchain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	vserrors "git.home.luguber.info/inful/cargo-vitasdk/internal/errors"
	"git.home.luguber.info/inful/cargo-vitasdk/internal/logfields"
	"git.home.luguber.info/inful/cargo-vitasdk/internal/observability"
)

var (
	// ErrToolFailed indicates a tool exited non-zero or could not be started.
	ErrToolFailed = errors.New("tool execution failed")
	// ErrToolTimedOut indicates a tool was killed after exceeding its deadline.
	ErrToolTimedOut = errors.New("tool execution timed out")
)

// Runner abstracts how a packaging tool is executed so pipelines can be
// exercised without the real vitasdk binaries.
//
// Contract: Run returns nil iff the tool exited with status zero. Output
// content is never inspected. Implementations do not retry.
type Runner interface {
	Run(ctx context.Context, tool Tool, args []string) error
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, tool Tool, args []string) error

// Run calls f.
func (f RunnerFunc) Run(ctx context.Context, tool Tool, args []string) error {
	return f(ctx, tool, args)
}

// ExecRunner spawns the tool binaries of a Toolchain.
type ExecRunner struct {
	toolchain *Toolchain
	// Timeout kills a tool that runs longer; zero means no deadline.
	Timeout time.Duration
	Stdout  io.Writer
	Stderr  io.Writer
}

// NewExecRunner returns a runner for tc that forwards tool output to the
// parent's standard streams.
func NewExecRunner(tc *Toolchain) *ExecRunner {
	return &ExecRunner{toolchain: tc, Stdout: os.Stdout, Stderr: os.Stderr}
}

// WithTimeout sets a per-invocation deadline.
func (r *ExecRunner) WithTimeout(d time.Duration) *ExecRunner {
	r.Timeout = d
	return r
}

// Run executes tool and waits for it to exit. Cancelling ctx does not kill a
// running tool; only Timeout does.
func (r *ExecRunner) Run(ctx context.Context, tool Tool, args []string) error {
	runCtx := context.WithoutCancel(ctx)
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(runCtx, r.Timeout)
		defer cancel()
	}

	path := r.toolchain.Path(tool)
	cmd := exec.CommandContext(runCtx, path, args...)
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	cmd.WaitDelay = time.Second

	observability.DebugContext(ctx, "Running",
		logfields.Tool(tool.String()),
		logfields.Command(path+" "+strings.Join(args, " ")))

	err := cmd.Run()
	if err == nil {
		return nil
	}

	if r.Timeout > 0 && errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		observability.ErrorContext(ctx, "Command timed out", logfields.Tool(tool.String()), logfields.Error(err))
		return vserrors.StageTimedOut(tool.String(), fmt.Errorf("%w after %s: %w", ErrToolTimedOut, r.Timeout, err)).
			WithContext("timeout", r.Timeout.String())
	}

	se := vserrors.StageFailed(tool.String(), fmt.Errorf("%w: %w", ErrToolFailed, err))
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		se.WithContext("exit_code", exitErr.ExitCode())
		observability.ErrorContext(ctx, "Command failed",
			logfields.Tool(tool.String()), logfields.ExitCode(exitErr.ExitCode()))
	} else {
		observability.ErrorContext(ctx, "Command could not be started",
			logfields.Tool(tool.String()), slog.String("path", path), logfields.Error(err))
	}
	return se
}
