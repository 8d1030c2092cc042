package retry

import (
	"context"
	"time"
)

// RetryableFunc is a function that can be retried
type RetryableFunc func() error

// Options defines the configuration for retries
type Options struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
}

// DefaultOptions returns a set of sensible default retry options
func DefaultOptions() Options {
	return Options{
		MaxAttempts:     5,
		InitialInterval: 1 * time.Second,
		MaxInterval:     30 * time.Second,
		Multiplier:      2.0,
	}
}

// Do executes the function with exponential backoff retries.
// Used for startup connectivity checks only; event persistence is never retried.
func Do(ctx context.Context, fn RetryableFunc, opts Options) error {
	var lastErr error
	interval := opts.InitialInterval

	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err

		if attempt == opts.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
			next := float64(interval) * opts.Multiplier
			if next > float64(opts.MaxInterval) {
				interval = opts.MaxInterval
			} else {
				interval = time.Duration(next)
			}
		}
	}

	return lastErr
}
