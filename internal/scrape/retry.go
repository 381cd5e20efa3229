package scrape

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Default retry/backoff knobs. Waits between attempts and between listing
// pages use the same fixed delay.
const (
	DefaultRetryAttempts = 3
	RetryDelay           = 3 * time.Second
	ProbeDelay           = 500 * time.Millisecond
)

// RetryConfig bounds a fixed-delay retry loop.
type RetryConfig struct {
	Attempts int
	Delay    time.Duration
}

// DefaultRetryConfig returns the standard bound of three attempts with a
// fixed three second delay between them.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{Attempts: DefaultRetryAttempts, Delay: RetryDelay}
}

// RetryFixed runs op up to cfg.Attempts times with a fixed delay between
// attempts. retryable reports whether a failure is worth another attempt;
// anything else aborts the loop immediately. notify observes every failure
// of a retryable kind, including the last one, before the delay.
func RetryFixed(
	ctx context.Context,
	cfg RetryConfig,
	op func() error,
	retryable func(error) bool,
	notify func(attempt int, err error),
) error {
	attempts := cfg.Attempts
	if attempts < 1 {
		attempts = 1
	}

	attempt := 0
	wrapped := func() error {
		err := op()
		if err == nil {
			return nil
		}
		if retryable != nil && !retryable(err) {
			return backoff.Permanent(err)
		}
		attempt++
		if notify != nil {
			notify(attempt, err)
		}
		return err
	}

	bo := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(cfg.Delay), uint64(attempts-1)),
		ctx,
	)
	return backoff.Retry(wrapped, bo)
}
