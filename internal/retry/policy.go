// Package retry applies backoff policies to packaging tool invocations.
package retry

import (
	"time"

	"git.home.luguber.info/inful/cargo-vitasdk/internal/config"
)

// Policy encapsulates retry/backoff settings for failing tool runs.
// It is immutable after construction.
type Policy struct {
	Mode       config.Backoff // fixed|linear|exponential
	Initial    time.Duration  // base delay
	Max        time.Duration  // cap for growth
	MaxRetries int            // attempts after the first failure
}

// DefaultPolicy returns the policy used without configuration: tools are run
// exactly once.
func DefaultPolicy() Policy {
	return Policy{Mode: config.BackoffLinear, Initial: time.Second, Max: 30 * time.Second, MaxRetries: 0}
}

// NewPolicy builds a policy from raw config fields; zero/invalid values fall back to defaults.
func NewPolicy(mode config.Backoff, initial, maxDuration time.Duration, maxRetries int) Policy {
	p := DefaultPolicy()
	if maxRetries >= 0 {
		p.MaxRetries = maxRetries
	}
	if initial > 0 {
		p.Initial = initial
	}
	if maxDuration > 0 {
		p.Max = maxDuration
	}
	if b, ok := config.ParseBackoff(string(mode)); ok {
		p.Mode = b
	}
	if p.Initial > p.Max {
		p.Initial = p.Max
	}
	return p
}

// FromConfig builds a policy from the stages section.
func FromConfig(sc config.StagesConfig) Policy {
	return NewPolicy(sc.RetryBackoff, sc.RetryInitial, sc.RetryMax, sc.Retries)
}

// Delay returns the backoff delay for the given retry attempt number (1-based: first retry => 1).
func (p Policy) Delay(retryCount int) time.Duration {
	if retryCount <= 0 {
		return 0
	}
	switch p.Mode {
	case config.BackoffFixed:
		return p.Initial
	case config.BackoffExponential:
		if retryCount > 32 {
			return p.Max
		}
		d := p.Initial * (1 << (retryCount - 1))
		if d > p.Max || d <= 0 {
			return p.Max
		}
		return d
	default: // linear
		d := time.Duration(retryCount) * p.Initial
		if d > p.Max {
			return p.Max
		}
		return d
	}
}
