package build

import (
	"context"
	"time"

	vserrors "git.home.luguber.info/inful/cargo-vitasdk/internal/errors"
	"git.home.luguber.info/inful/cargo-vitasdk/internal/eventstore"
	"git.home.luguber.info/inful/cargo-vitasdk/internal/pipeline"
)

// eventObserver turns stage notifications of one build into history events.
type eventObserver struct {
	ctx     context.Context
	svc     *DefaultBuildService
	buildID string
}

func (o *eventObserver) OnStageStart(pipeline.Artifact, pipeline.StageName) {}

func (o *eventObserver) OnStageSkip(art pipeline.Artifact, stage pipeline.StageName) {
	o.svc.appendEvent(o.ctx, func() (*eventstore.BaseEvent, error) {
		return eventstore.NewStageSkipped(o.buildID, art.Executable, string(stage))
	})
}

func (o *eventObserver) OnStageComplete(art pipeline.Artifact, stage pipeline.StageName, d time.Duration, err error) {
	o.svc.appendEvent(o.ctx, func() (*eventstore.BaseEvent, error) {
		if err == nil {
			return eventstore.NewStageRan(o.buildID, art.Executable, string(stage), d)
		}
		return eventstore.NewStageFailed(o.buildID, art.Executable, string(stage), d, string(vserrors.GetCategory(err)), err)
	})
}
