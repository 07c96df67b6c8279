package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/cargo-vitasdk/internal/config"
	"git.home.luguber.info/inful/cargo-vitasdk/internal/toolchain"
)

func failingN(n int, calls *int) toolchain.Runner {
	return toolchain.RunnerFunc(func(context.Context, toolchain.Tool, []string) error {
		*calls++
		if *calls <= n {
			return errors.New("transient")
		}
		return nil
	})
}

func TestRunner_NoRetriesByDefault(t *testing.T) {
	calls := 0
	r := NewRunner(failingN(1, &calls), DefaultPolicy())
	require.Error(t, r.Run(context.Background(), toolchain.ToolMksfoex, nil))
	assert.Equal(t, 1, calls)
}

func TestRunner_RetriesUntilSuccess(t *testing.T) {
	calls := 0
	var delays []time.Duration
	var retried []int
	r := NewRunner(failingN(2, &calls), NewPolicy(config.BackoffLinear, time.Millisecond, time.Second, 3))
	r.sleep = func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}
	r.OnRetry = func(_ toolchain.Tool, attempt int, _ error) { retried = append(retried, attempt) }

	require.NoError(t, r.Run(context.Background(), toolchain.ToolPackVpk, nil))
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{time.Millisecond, 2 * time.Millisecond}, delays)
	assert.Equal(t, []int{1, 2}, retried)
}

func TestRunner_ExhaustsRetries(t *testing.T) {
	calls := 0
	r := NewRunner(failingN(10, &calls), NewPolicy(config.BackoffFixed, time.Millisecond, time.Millisecond, 2))
	require.Error(t, r.Run(context.Background(), toolchain.ToolPackVpk, nil))
	assert.Equal(t, 3, calls)
}

func TestRunner_StopsOnCancellation(t *testing.T) {
	calls := 0
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := NewRunner(failingN(10, &calls), NewPolicy(config.BackoffFixed, time.Hour, time.Hour, 5))
	require.Error(t, r.Run(ctx, toolchain.ToolPackVpk, nil))
	assert.Equal(t, 1, calls)
}
