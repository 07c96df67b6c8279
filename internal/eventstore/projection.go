package eventstore

import (
	"cmp"
	"encoding/json"
	"slices"
	"time"
)

// Build summary statuses.
const (
	StatusRunning   = "running"
	StatusSucceeded = "success"
	StatusFailed    = "failed"
)

// BuildSummary is a read model of one build reconstructed from its events.
type BuildSummary struct {
	BuildID       string
	Status        string
	StartedAt     time.Time
	CompletedAt   *time.Time
	Duration      time.Duration
	Artifacts     []string // in spawn order, not append order
	FailedCount   int
	StagesRan     int
	StagesSkipped int
	ErrorMessage  string
}

// Summarize folds the events of one build into a BuildSummary. A build
// without a build_completed event is reported as running.
func Summarize(events []Event) BuildSummary {
	type discovered struct {
		index int
		exe   string
	}
	var found []discovered

	var s BuildSummary
	s.Status = StatusRunning
	for _, e := range events {
		if s.BuildID == "" {
			s.BuildID = e.BuildID()
		}
		switch e.Type() {
		case TypeBuildStarted:
			s.StartedAt = e.Timestamp()
		case TypeArtifactDiscovered:
			d := ArtifactDiscoveredData{Index: len(found)}
			_ = json.Unmarshal(e.Payload(), &d)
			found = append(found, discovered{index: d.Index, exe: e.Artifact()})
		case TypeStageRan:
			s.StagesRan++
		case TypeStageSkipped:
			s.StagesSkipped++
		case TypeArtifactCompleted:
			var d ArtifactCompletedData
			if json.Unmarshal(e.Payload(), &d) == nil && !d.Success {
				s.FailedCount++
			}
		case TypeBuildCompleted:
			var d BuildCompletedData
			if err := json.Unmarshal(e.Payload(), &d); err == nil {
				s.Status = d.Status
				s.ErrorMessage = d.Error
				s.Duration = time.Duration(d.DurationMS) * time.Millisecond
			}
			ts := e.Timestamp()
			s.CompletedAt = &ts
		}
	}

	slices.SortStableFunc(found, func(a, b discovered) int { return cmp.Compare(a.index, b.index) })
	for _, f := range found {
		s.Artifacts = append(s.Artifacts, f.exe)
	}
	return s
}

// SummarizeBuilds groups events by build, in order of each build's first
// event, and summarizes every group.
func SummarizeBuilds(events []Event) []BuildSummary {
	var order []string
	byBuild := make(map[string][]Event)
	for _, e := range events {
		id := e.BuildID()
		if _, seen := byBuild[id]; !seen {
			order = append(order, id)
		}
		byBuild[id] = append(byBuild[id], e)
	}

	summaries := make([]BuildSummary, 0, len(order))
	for _, id := range order {
		summaries = append(summaries, Summarize(byBuild[id]))
	}
	return summaries
}
