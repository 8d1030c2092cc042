package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestRetryProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("retry does not exceed max attempts", prop.ForAll(
		func(maxAttempts int) bool {
			count := 0
			fn := func() error {
				count++
				return errors.New("transient error")
			}

			opts := DefaultOptions()
			opts.MaxAttempts = maxAttempts
			opts.InitialInterval = 1 * time.Microsecond // fast for testing
			opts.MaxInterval = 10 * time.Microsecond

			_ = Do(context.Background(), fn, opts)

			return count == maxAttempts
		},
		gen.IntRange(1, 10),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestRetrySuccess(t *testing.T) {
	count := 0
	fn := func() error {
		count++
		if count < 3 {
			return errors.New("not yet")
		}
		return nil
	}

	opts := DefaultOptions()
	opts.InitialInterval = 1 * time.Millisecond

	err := Do(context.Background(), fn, opts)
	assert.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestRetryContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	fn := func() error {
		return errors.New("waiting")
	}

	opts := DefaultOptions()
	opts.InitialInterval = 100 * time.Millisecond

	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	err := Do(ctx, fn, opts)
	assert.ErrorIs(t, err, context.Canceled)
}
