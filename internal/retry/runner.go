package retry

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/cargo-vitasdk/internal/logfields"
	"git.home.luguber.info/inful/cargo-vitasdk/internal/observability"
	"git.home.luguber.info/inful/cargo-vitasdk/internal/toolchain"
)

// Runner retries a failing tool according to a Policy. With MaxRetries == 0
// it behaves exactly like the wrapped runner.
type Runner struct {
	next   toolchain.Runner
	policy Policy
	sleep  func(context.Context, time.Duration) error

	// OnRetry, when set, is called before each retry attempt.
	OnRetry func(tool toolchain.Tool, attempt int, err error)
}

// NewRunner wraps next with policy.
func NewRunner(next toolchain.Runner, policy Policy) *Runner {
	return &Runner{next: next, policy: policy, sleep: sleepContext}
}

// Run implements toolchain.Runner.
func (r *Runner) Run(ctx context.Context, tool toolchain.Tool, args []string) error {
	err := r.next.Run(ctx, tool, args)
	for attempt := 1; err != nil && attempt <= r.policy.MaxRetries; attempt++ {
		delay := r.policy.Delay(attempt)
		observability.WarnContext(ctx, "Retrying tool",
			logfields.Tool(tool.String()),
			slog.Int("attempt", attempt),
			slog.Duration("delay", delay),
			logfields.Error(err))
		if r.OnRetry != nil {
			r.OnRetry(tool, attempt, err)
		}
		// A cancelled build does not start new attempts; the last failure stands.
		if serr := r.sleep(ctx, delay); serr != nil {
			return err
		}
		err = r.next.Run(ctx, tool, args)
	}
	return err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
