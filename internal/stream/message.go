package stream

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Message reasons emitted by cargo's --message-format=json.
const (
	ReasonCompilerArtifact    = "compiler-artifact"
	ReasonCompilerMessage     = "compiler-message"
	ReasonBuildScriptExecuted = "build-script-executed"
	ReasonBuildFinished       = "build-finished"
)

// Target is the cargo target that produced an artifact.
type Target struct {
	Name string   `json:"name"`
	Kind []string `json:"kind"`
}

// Message is one decoded line of build output. Only the fields needed to
// locate executables are decoded; everything else is ignored.
type Message struct {
	Reason       string  `json:"reason"`
	PackageID    string  `json:"package_id,omitempty"`
	ManifestPath string  `json:"manifest_path,omitempty"`
	Target       *Target `json:"target,omitempty"`
	Executable   *string `json:"executable,omitempty"`
	Fresh        bool    `json:"fresh,omitempty"`
	Success      *bool   `json:"success,omitempty"` // build-finished only
}

var errMissingReason = errors.New(`message has no "reason"`)

// Decode parses one line. Any line that is not a JSON object with a reason is
// an error; unknown reasons are not.
func Decode(line []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(line, &m); err != nil {
		return Message{}, fmt.Errorf("decode build message: %w", err)
	}
	if m.Reason == "" {
		return Message{}, errMissingReason
	}
	return m, nil
}

// ExecutablePath returns the produced executable of a compiler-artifact
// message, or false for every other message.
func (m Message) ExecutablePath() (string, bool) {
	if m.Reason != ReasonCompilerArtifact || m.Executable == nil || *m.Executable == "" {
		return "", false
	}
	return *m.Executable, true
}
