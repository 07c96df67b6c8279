package pipeline

import "time"

// Observer receives stage lifecycle notifications. Calls arrive concurrently
// from both branches and from pipelines of different artifacts.
type Observer interface {
	OnStageStart(art Artifact, stage StageName)
	OnStageSkip(art Artifact, stage StageName)
	// OnStageComplete is called after a tool ran, or with d == 0 when the
	// staleness check itself failed.
	OnStageComplete(art Artifact, stage StageName, d time.Duration, err error)
}

// NoopObserver ignores every notification.
type NoopObserver struct{}

func (NoopObserver) OnStageStart(Artifact, StageName)                          {}
func (NoopObserver) OnStageSkip(Artifact, StageName)                           {}
func (NoopObserver) OnStageComplete(Artifact, StageName, time.Duration, error) {}
