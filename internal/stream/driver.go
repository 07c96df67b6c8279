// Package stream runs the build tool and turns its line-delimited JSON output
// into artifact pipelines as soon as each executable is reported.
package stream

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	vserrors "git.home.luguber.info/inful/cargo-vitasdk/internal/errors"
	"git.home.luguber.info/inful/cargo-vitasdk/internal/logfields"
	"git.home.luguber.info/inful/cargo-vitasdk/internal/observability"
	"git.home.luguber.info/inful/cargo-vitasdk/internal/pipeline"
)

// ErrBuildFailed indicates the build tool exited unsuccessfully.
var ErrBuildFailed = errors.New("build command failed")

// SpawnFunc starts post-processing of one artifact. It must not block on the
// post-processing itself.
type SpawnFunc func(ctx context.Context, art pipeline.Artifact)

// Driver runs the build command and hands every reported executable to Spawn.
type Driver struct {
	Command Command
	Spawn   SpawnFunc
	// Stderr receives the build tool's diagnostics; defaults to os.Stderr.
	Stderr io.Writer
}

// Consume reads build output from r until EOF. Every compiler-artifact
// message with an executable is passed to Spawn before the next line is read.
// A line that does not decode aborts with a protocol error. It returns the
// number of artifacts spawned.
func (d *Driver) Consume(ctx context.Context, r io.Reader) (int, error) {
	br := bufio.NewReader(r)
	spawned, lineNo := 0, 0

	for {
		line, readErr := br.ReadBytes('\n')
		if len(line) > 0 {
			lineNo++
			n, err := d.handleLine(ctx, lineNo, line)
			spawned += n
			if err != nil {
				return spawned, err
			}
		}
		if readErr == io.EOF {
			return spawned, nil
		}
		if readErr != nil {
			return spawned, vserrors.Wrap(readErr, vserrors.CategoryBuild, vserrors.SeverityFatal, "reading build output")
		}
	}
}

func (d *Driver) handleLine(ctx context.Context, lineNo int, line []byte) (int, error) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return 0, nil
	}

	msg, err := Decode(line)
	if err != nil {
		return 0, vserrors.ProtocolViolation(lineNo, err)
	}

	switch msg.Reason {
	case ReasonCompilerArtifact:
		exe, ok := msg.ExecutablePath()
		if !ok {
			return 0, nil
		}
		observability.InfoContext(ctx, "Artifact produced",
			logfields.Artifact(exe),
			slog.String("package_id", msg.PackageID),
			slog.Bool("fresh", msg.Fresh))
		if d.Spawn != nil {
			d.Spawn(ctx, pipeline.Artifact{Executable: exe, ManifestPath: msg.ManifestPath, PackageID: msg.PackageID})
		}
		return 1, nil
	case ReasonBuildFinished:
		if msg.Success != nil {
			observability.DebugContext(ctx, "Build finished", slog.Bool("success", *msg.Success))
		}
	}
	return 0, nil
}

// Run starts the build command with userArgs, consumes its standard output
// and waits for it to exit. Standard error stays attached to Stderr. When the
// output cannot be parsed the subprocess is killed and reaped and the
// protocol error returned. Otherwise a non-zero exit is a build error.
func (d *Driver) Run(ctx context.Context, userArgs []string) (int, error) {
	args := d.Command.Args(userArgs)
	program := d.Command.Program
	if program == "" {
		program = "cargo"
	}
	cmdline := program + " " + strings.Join(args, " ")

	// #nosec G204 -- program and arguments come from the user invoking cargo
	cmd := exec.Command(program, args...)
	cmd.Dir = d.Command.Dir
	cmd.Stderr = d.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return 0, vserrors.InternalError("creating build output pipe", err)
	}

	observability.DebugContext(ctx, "Starting build", logfields.Command(cmdline))
	if err := cmd.Start(); err != nil {
		return 0, vserrors.BuildFailed(cmdline, fmt.Errorf("%w: %w", ErrBuildFailed, err))
	}

	spawned, consumeErr := d.Consume(ctx, stdout)
	if consumeErr != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		observability.ErrorContext(ctx, "Build output aborted", logfields.Error(consumeErr))
		return spawned, consumeErr
	}

	if err := cmd.Wait(); err != nil {
		be := vserrors.BuildFailed(cmdline, fmt.Errorf("%w: %w", ErrBuildFailed, err))
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			be.WithContext("exit_code", exitErr.ExitCode())
		}
		return spawned, be
	}
	observability.DebugContext(ctx, "Build exited", logfields.Count(spawned))
	return spawned, nil
}
