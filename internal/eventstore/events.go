package eventstore

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event type names.
const (
	TypeBuildStarted       = "build_started"
	TypeArtifactDiscovered = "artifact_discovered"
	TypeStageRan           = "stage_ran"
	TypeStageSkipped       = "stage_skipped"
	TypeStageFailed        = "stage_failed"
	TypeArtifactCompleted  = "artifact_completed"
	TypeBuildCompleted     = "build_completed"
)

// BuildStartedData is the payload of build_started.
type BuildStartedData struct {
	Command string   `json:"command"`
	Args    []string `json:"args,omitempty"`
}

// ArtifactDiscoveredData is the payload of artifact_discovered.
type ArtifactDiscoveredData struct {
	PackageID    string `json:"package_id,omitempty"`
	ManifestPath string `json:"manifest_path,omitempty"`
	Index        int    `json:"index"` // spawn position
}

// StageData is the payload of the stage events.
type StageData struct {
	DurationMS int64  `json:"duration_ms,omitempty"`
	Kind       string `json:"kind,omitempty"` // stage_failed only
	Error      string `json:"error,omitempty"`
}

// ArtifactCompletedData is the payload of artifact_completed.
type ArtifactCompletedData struct {
	Success    bool     `json:"success"`
	Package    string   `json:"package"`
	Ran        []string `json:"ran,omitempty"`
	Skipped    []string `json:"skipped,omitempty"`
	DurationMS int64    `json:"duration_ms"`
	Error      string   `json:"error,omitempty"`
}

// BuildCompletedData is the payload of build_completed.
type BuildCompletedData struct {
	Status     string `json:"status"`
	Artifacts  int    `json:"artifacts"`
	Failed     int    `json:"failed"`
	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

func newEvent(buildID, eventType, artifact, stage string, data any) (*BaseEvent, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMarshalPayloadFailed, eventType, err)
	}
	return &BaseEvent{
		EventBuildID:   buildID,
		EventType:      eventType,
		EventTimestamp: time.Now(),
		EventArtifact:  artifact,
		EventStage:     stage,
		EventPayload:   payload,
	}, nil
}

// NewBuildStarted creates a build_started event.
func NewBuildStarted(buildID string, data BuildStartedData) (*BaseEvent, error) {
	return newEvent(buildID, TypeBuildStarted, "", "", data)
}

// NewArtifactDiscovered creates an artifact_discovered event.
func NewArtifactDiscovered(buildID, executable string, data ArtifactDiscoveredData) (*BaseEvent, error) {
	return newEvent(buildID, TypeArtifactDiscovered, executable, "", data)
}

// NewStageRan creates a stage_ran event.
func NewStageRan(buildID, executable, stage string, d time.Duration) (*BaseEvent, error) {
	return newEvent(buildID, TypeStageRan, executable, stage, StageData{DurationMS: d.Milliseconds()})
}

// NewStageSkipped creates a stage_skipped event.
func NewStageSkipped(buildID, executable, stage string) (*BaseEvent, error) {
	return newEvent(buildID, TypeStageSkipped, executable, stage, StageData{})
}

// NewStageFailed creates a stage_failed event.
func NewStageFailed(buildID, executable, stage string, d time.Duration, kind string, cause error) (*BaseEvent, error) {
	data := StageData{DurationMS: d.Milliseconds(), Kind: kind}
	if cause != nil {
		data.Error = cause.Error()
	}
	return newEvent(buildID, TypeStageFailed, executable, stage, data)
}

// NewArtifactCompleted creates an artifact_completed event.
func NewArtifactCompleted(buildID, executable string, data ArtifactCompletedData) (*BaseEvent, error) {
	return newEvent(buildID, TypeArtifactCompleted, executable, "", data)
}

// NewBuildCompleted creates a build_completed event.
func NewBuildCompleted(buildID string, data BuildCompletedData) (*BaseEvent, error) {
	return newEvent(buildID, TypeBuildCompleted, "", "", data)
}
