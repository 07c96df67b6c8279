package build

import (
	"errors"

	vserrors "git.home.luguber.info/inful/cargo-vitasdk/internal/errors"
	"git.home.luguber.info/inful/cargo-vitasdk/internal/metrics"
	"git.home.luguber.info/inful/cargo-vitasdk/internal/pipeline"
)

// aggregate reduces the driver error and the pipeline outcomes to the error
// reported for the whole build.
func aggregate(driverErr error, outcomes []pipeline.Outcome) error {
	if driverErr != nil {
		return driverErr
	}

	first, failed := -1, 0
	for i, o := range outcomes {
		if o.Err == nil {
			continue
		}
		failed++
		if first < 0 {
			first = i
		}
	}
	if first < 0 {
		return nil
	}

	o := outcomes[first]
	category := vserrors.CategoryStage
	if e, ok := vserrors.As(o.Err); ok {
		category = e.Category
	}
	ae := vserrors.Wrap(o.Err, category, vserrors.SeverityError, "artifact post-processing failed").
		WithContext("artifact", o.Artifact.Executable).
		WithContext("index", first).
		WithContext("failed", failed).
		WithContext("total", len(outcomes))
	var se *pipeline.StageError
	if errors.As(o.Err, &se) {
		ae.WithContext("stage", string(se.Stage))
	}
	return ae
}

func outcomeLabel(err error) metrics.BuildOutcomeLabel {
	switch {
	case err == nil:
		return metrics.BuildOutcomeSuccess
	case vserrors.IsCategory(err, vserrors.CategoryProtocol):
		return metrics.BuildOutcomeProtocol
	case vserrors.IsCategory(err, vserrors.CategoryBuild):
		return metrics.BuildOutcomeBuildFailed
	default:
		return metrics.BuildOutcomeArtifactFailed
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
