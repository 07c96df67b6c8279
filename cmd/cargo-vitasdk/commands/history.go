package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fatih/color"

	vserrors "git.home.luguber.info/inful/cargo-vitasdk/internal/errors"
	"git.home.luguber.info/inful/cargo-vitasdk/internal/eventstore"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	BuildID string        `name:"build-id" xor:"selection" help:"Build to show (default: the latest recorded build)"`
	Since   time.Duration `xor:"selection" help:"List every build with events recorded within this window (e.g. 24h)"`
}

func (h *HistoryCmd) Run(ctx context.Context, g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	if cfg.Output.EventsDB == "" {
		return vserrors.ConfigInvalid("output.events_db", "event history is not enabled")
	}

	store, err := eventstore.NewSQLiteStore(cfg.Output.EventsDB)
	if err != nil {
		return vserrors.FileSystemError("open event store", err).WithContext("path", cfg.Output.EventsDB)
	}
	defer func() { _ = store.Close() }()

	if h.Since > 0 {
		now := time.Now()
		events, err := store.GetRange(ctx, now.Add(-h.Since), now)
		if err != nil {
			return vserrors.FileSystemError("query event store", err)
		}
		printBuilds(g, eventstore.SummarizeBuilds(events), h.Since)
		return nil
	}

	buildID := h.BuildID
	if buildID == "" {
		buildID, err = store.LatestBuildID(ctx)
		if errors.Is(err, eventstore.ErrNoBuilds) {
			_, _ = fmt.Fprintln(g.Out, "No builds recorded")
			return nil
		}
		if err != nil {
			return vserrors.FileSystemError("query event store", err)
		}
	}

	events, err := store.GetByBuildID(ctx, buildID)
	if err != nil {
		return vserrors.FileSystemError("query event store", err)
	}
	if len(events) == 0 {
		return vserrors.New(vserrors.CategoryConfig, vserrors.SeverityError, "no events recorded for build").
			WithContext("build_id", buildID)
	}

	printHistory(g, eventstore.Summarize(events), events)
	return nil
}

func statusText(status string) string {
	switch status {
	case eventstore.StatusSucceeded:
		return color.GreenString("%s", status)
	case eventstore.StatusFailed:
		return color.RedString("%s", status)
	default:
		return color.YellowString("%s", status)
	}
}

// printBuilds lists one line per build. Builds that started before the
// window only count the events inside it.
func printBuilds(g *Global, builds []eventstore.BuildSummary, since time.Duration) {
	if len(builds) == 0 {
		_, _ = fmt.Fprintf(g.Out, "No builds recorded in the last %s\n", since)
		return
	}
	for _, s := range builds {
		started := "-"
		if !s.StartedAt.IsZero() {
			started = s.StartedAt.Format(time.RFC3339)
		}
		_, _ = fmt.Fprintf(g.Out, "%s  %-25s %s  %d artifacts (%d failed)\n",
			s.BuildID, started, statusText(s.Status), len(s.Artifacts), s.FailedCount)
	}
}

func printHistory(g *Global, s eventstore.BuildSummary, events []eventstore.Event) {
	_, _ = fmt.Fprintf(g.Out, "Build %s: %s\n", s.BuildID, statusText(s.Status))
	_, _ = fmt.Fprintf(g.Out, "  Started:   %s\n", s.StartedAt.Format(time.RFC3339))
	if s.CompletedAt != nil {
		_, _ = fmt.Fprintf(g.Out, "  Duration:  %s\n", s.Duration)
	}
	_, _ = fmt.Fprintf(g.Out, "  Artifacts: %d (%d failed)\n", len(s.Artifacts), s.FailedCount)
	_, _ = fmt.Fprintf(g.Out, "  Stages:    %d ran, %d skipped\n", s.StagesRan, s.StagesSkipped)
	if s.ErrorMessage != "" {
		_, _ = fmt.Fprintf(g.Out, "  Error:     %s\n", color.RedString("%s", s.ErrorMessage))
	}

	_, _ = fmt.Fprintln(g.Out)
	for _, e := range events {
		_, _ = fmt.Fprintf(g.Out, "%s %-20s %s %s %s\n",
			e.Timestamp().Format("15:04:05.000"), e.Type(), e.Artifact(), e.Stage(), e.Payload())
	}
}
