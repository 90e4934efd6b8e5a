// Package retry provides exponential backoff retry for transient failures such as a serial
// port that is briefly held by another process.
//
//	err := retry.Do(ctx, retry.Config{
//	    MaxRetries:     3,
//	    InitialBackoff: 200 * time.Millisecond,
//	}, open, func(err error) bool {
//	    return errors.Is(err, serial.ErrPortUnavailable)
//	})
//
// The backoff before attempt n (n >= 2) is InitialBackoff * 2^(n-2), capped at MaxBackoff.
// A canceled context ends the loop immediately.
package retry

import (
	"context"
	"fmt"
	"math"
	"time"
)

// Config defines the retry behavior for exponential backoff operations.
//
// The zero value is not usable; MaxRetries and InitialBackoff must be set.
type Config struct {
	// MaxRetries is the maximum number of attempts. Must be greater than 0.
	MaxRetries int

	// InitialBackoff is the base backoff duration. Must be greater than 0.
	InitialBackoff time.Duration

	// MaxBackoff caps the backoff duration. Zero means no cap.
	MaxBackoff time.Duration

	// OnRetry, when set, is called before each wait with the attempt that just failed.
	OnRetry func(attempt int, err error, backoff time.Duration)
}

// ShouldRetryFunc reports whether an error should trigger another attempt.
// A nil ShouldRetryFunc retries every error.
type ShouldRetryFunc func(error) bool

// Do executes fn with exponential backoff retry.
//
// It returns nil as soon as fn succeeds, the error itself when shouldRetry rejects it,
// the context error when ctx is canceled during a wait, and otherwise an error wrapping
// the last failure once MaxRetries attempts are exhausted.
func Do(ctx context.Context, cfg Config, fn func() error, shouldRetry ShouldRetryFunc) error {
	var lastErr error

	for attempt := 0; attempt < cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := calculateBackoff(cfg, attempt)
			if cfg.OnRetry != nil {
				cfg.OnRetry(attempt, lastErr, backoff)
			}

			timer := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}

		err := fn()
		if err == nil {
			return nil
		}

		if shouldRetry != nil && !shouldRetry(err) {
			return err
		}

		lastErr = err
	}

	return fmt.Errorf("failed after %d retries: %w", cfg.MaxRetries, lastErr)
}

// calculateBackoff computes the wait that precedes the given attempt (1-based retry index).
func calculateBackoff(cfg Config, attempt int) time.Duration {
	multiplier := math.Pow(2, float64(attempt-1))
	backoff := time.Duration(multiplier * float64(cfg.InitialBackoff))

	if cfg.MaxBackoff > 0 && backoff > cfg.MaxBackoff {
		backoff = cfg.MaxBackoff
	}

	return backoff
}
