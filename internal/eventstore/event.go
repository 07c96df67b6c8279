package eventstore

import "time"

// Event represents one recorded step of a build.
type Event interface {
	// ID returns the unique identifier assigned by the store; 0 before Append.
	ID() int64
	// BuildID returns the build identifier this event belongs to.
	BuildID() string
	// Type returns the event type name.
	Type() string
	// Timestamp returns when the event occurred.
	Timestamp() time.Time
	// Artifact returns the executable the event concerns, if any.
	Artifact() string
	// Stage returns the pipeline stage the event concerns, if any.
	Stage() string
	// Payload returns the JSON event data.
	Payload() []byte
}

// BaseEvent provides a default implementation of Event.
type BaseEvent struct {
	EventID        int64
	EventBuildID   string
	EventType      string
	EventTimestamp time.Time
	EventArtifact  string
	EventStage     string
	EventPayload   []byte
}

func (e *BaseEvent) ID() int64            { return e.EventID }
func (e *BaseEvent) BuildID() string      { return e.EventBuildID }
func (e *BaseEvent) Type() string         { return e.EventType }
func (e *BaseEvent) Timestamp() time.Time { return e.EventTimestamp }
func (e *BaseEvent) Artifact() string     { return e.EventArtifact }
func (e *BaseEvent) Stage() string        { return e.EventStage }
func (e *BaseEvent) Payload() []byte      { return e.EventPayload }
