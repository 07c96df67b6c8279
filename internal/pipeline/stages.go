package pipeline

import (
	"context"
	"errors"
	"fmt"

	vserrors "git.home.luguber.info/inful/cargo-vitasdk/internal/errors"
	"git.home.luguber.info/inful/cargo-vitasdk/internal/toolchain"
)

// StageName identifies one of the four packaging stages.
type StageName string

const (
	StageMksfoex   StageName = "mksfoex"    // metadata branch
	StageElfCreate StageName = "elf_create" // executable branch, first
	StageMakeFself StageName = "make_fself" // executable branch, second
	StagePackVpk   StageName = "pack_vpk"   // join
)

// StageErrorKind classifies a stage failure.
type StageErrorKind string

const (
	StageErrorFailed       StageErrorKind = "failed"        // tool exited non-zero or could not start
	StageErrorTimedOut     StageErrorKind = "timed_out"     // tool killed after stages.timeout
	StageErrorMissingInput StageErrorKind = "missing_input" // staleness check found an input absent
	StageErrorCanceled     StageErrorKind = "canceled"      // not started because the run was stopped
)

// StageError is a structured error carrying the failing stage, the artifact
// and the underlying cause.
type StageError struct {
	Kind     StageErrorKind
	Stage    StageName
	Artifact string
	Err      error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage %s for %s: %v", e.Kind, e.Stage, e.Artifact, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

func newStageError(stage StageName, artifact string, err error) *StageError {
	return &StageError{Kind: classify(err), Stage: stage, Artifact: artifact, Err: err}
}

func classify(err error) StageErrorKind {
	switch {
	case vserrors.IsCategory(err, vserrors.CategoryStageTimeout):
		return StageErrorTimedOut
	case vserrors.IsCategory(err, vserrors.CategoryMissingInput):
		return StageErrorMissingInput
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return StageErrorCanceled
	default:
		return StageErrorFailed
	}
}

// stage is one node of the fixed DAG: what to check and what to run.
type stage struct {
	name   StageName
	tool   toolchain.Tool
	output string
	inputs []string
	args   []string
}
