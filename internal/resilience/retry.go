package resilience

import (
	"context"
	"time"
)

// Portal retry defaults: three attempts two seconds apart.
const (
	DefaultMaxAttempts = 3
	DefaultDelay       = 2 * time.Second
)

// RetryConfig is a fixed-delay retry policy.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts including the first.
	MaxAttempts int

	// Delay is the pause before each retry.
	Delay time.Duration

	// ShouldRetry overrides the IsTransient check when set.
	ShouldRetry func(err error) bool

	// OnRetry is called before each retry pause with the attempt that failed.
	OnRetry func(attempt int, err error)
}

// FixedDelay returns a policy of maxAttempts tries delay apart.
func FixedDelay(maxAttempts int, delay time.Duration) RetryConfig {
	return RetryConfig{MaxAttempts: maxAttempts, Delay: delay}
}

// FromDelayMs builds a policy from config values. Non-positive attempts and
// negative delays fall back to the defaults.
func FromDelayMs(maxAttempts, delayMs int) RetryConfig {
	cfg := FixedDelay(DefaultMaxAttempts, DefaultDelay)
	if maxAttempts > 0 {
		cfg.MaxAttempts = maxAttempts
	}
	if delayMs >= 0 {
		cfg.Delay = time.Duration(delayMs) * time.Millisecond
	}
	return cfg
}

// DoVal calls fn until it succeeds, returns an error that should not be
// retried, or runs out of attempts. The last error is returned. Cancelling
// ctx stops further attempts and aborts a pending pause.
func DoVal[T any](ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) (T, error)) (T, error) {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	shouldRetry := cfg.ShouldRetry
	if shouldRetry == nil {
		shouldRetry = IsTransient
	}

	var zero T
	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		val, err := fn(ctx)
		if err == nil {
			return val, nil
		}
		lastErr = err

		if ctx.Err() != nil || !shouldRetry(err) || attempt == cfg.MaxAttempts {
			break
		}
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err)
		}
		if cfg.Delay <= 0 {
			continue
		}

		timer := time.NewTimer(cfg.Delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, lastErr
		case <-timer.C:
		}
	}
	return zero, lastErr
}
