// Package transport holds the retry and rate-limiting primitives shared by
// the bridge and LNURL network clients.
package transport

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	fedierr "github.com/fedibtc/fedicore/pkg/errors"
)

// ErrRetryable marks a failure worth another attempt. Wrap errors with
// WrapRetryable rather than returning it bare.
var ErrRetryable = &fedierr.FediError{ //nolint:gochecknoglobals // sentinel
	Code:     "RETRYABLE_ERROR",
	Message:  "retryable error",
	ExitCode: fedierr.ExitGeneral,
}

// RetryConfig configures retry behavior.
type RetryConfig struct {
	MaxAttempts int           // attempts including the first; below one means one
	BaseDelay   time.Duration // delay before the second attempt
	MaxDelay    time.Duration // cap on any single delay
}

// DefaultRetryConfig is used for bridge dials: 3 attempts with delays of
// roughly 250ms and 500ms.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   250 * time.Millisecond,
		MaxDelay:    time.Second,
	}
}

// Retry runs operation until it succeeds, fails with an error that is not
// retryable, or runs out of attempts. No attempt starts once ctx is done.
func Retry[T any](ctx context.Context, cfg RetryConfig, operation func() (T, error)) (T, error) {
	attempts := max(cfg.MaxAttempts, 1)

	var (
		result T
		err    error
	)
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(backoff(attempt-1, cfg.BaseDelay, cfg.MaxDelay))
			select {
			case <-ctx.Done():
				timer.Stop()
				return result, fmt.Errorf("%w (last error: %w)", ctx.Err(), err)
			case <-timer.C:
			}
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, ctxErr
		}

		result, err = operation()
		if err == nil || !IsRetryable(err) {
			return result, err
		}
	}

	if attempts == 1 {
		return result, err
	}
	return result, fmt.Errorf("operation failed after %d attempts: %w", attempts, err)
}

// backoff doubles baseDelay per attempt up to maxDelay and returns a jittered
// value in [delay/2, delay).
func backoff(attempt int, baseDelay, maxDelay time.Duration) time.Duration {
	delay := baseDelay << attempt
	if delay > maxDelay || delay <= 0 {
		delay = maxDelay
	}
	half := delay / 2
	if half <= 0 {
		return delay
	}
	return half + rand.N(half) //nolint:gosec // G404: Jitter does not require cryptographic randomness
}

// IsRetryable reports whether err was marked with WrapRetryable or is a
// per-attempt deadline.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrRetryable) || errors.Is(err, context.DeadlineExceeded)
}

// WrapRetryable marks err as worth another attempt.
func WrapRetryable(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrRetryable, err)
}
