// Package resilience provides retry with exponential backoff for
// calls to external services, primarily the LLM providers.
package resilience

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

// RetryConfig defines retry behavior
type RetryConfig struct {
	MaxAttempts     int              // Maximum number of attempts, including the first
	InitialDelay    time.Duration    // Delay before the first retry
	MaxDelay        time.Duration    // Upper bound on the backoff delay
	Multiplier      float64          // Multiplier for exponential backoff
	RandomizeFactor float64          // Jitter factor (0-1) applied to each delay
	RetryIf         func(error) bool // Decides whether an error is retryable
}

// DefaultRetryConfig returns the configuration used for provider calls
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:     3,
		InitialDelay:    100 * time.Millisecond,
		MaxDelay:        10 * time.Second,
		Multiplier:      2.0,
		RandomizeFactor: 0.1,
		RetryIf:         IsRetryable,
	}
}

// RetryWithConfig executes fn until it succeeds, the error is deemed
// non-retryable, the attempt budget is spent, or ctx is cancelled.
func RetryWithConfig(ctx context.Context, config *RetryConfig, fn func() error) error {
	if config == nil {
		config = DefaultRetryConfig()
	}

	var lastErr error
	delay := config.InitialDelay

	for attempt := 0; attempt < config.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			if config.RetryIf != nil && !config.RetryIf(err) {
				return err
			}
		}

		// No delay after the final attempt
		if attempt < config.MaxAttempts-1 {
			select {
			case <-time.After(applyJitter(delay, config.RandomizeFactor)):
			case <-ctx.Done():
				return ctx.Err()
			}

			delay = time.Duration(float64(delay) * config.Multiplier)
			if delay > config.MaxDelay {
				delay = config.MaxDelay
			}
		}
	}

	return ErrMaxRetriesExceeded{
		Attempts: config.MaxAttempts,
		LastErr:  lastErr,
	}
}

// Retry executes fn with the default retry configuration
func Retry(ctx context.Context, fn func() error) error {
	return RetryWithConfig(ctx, DefaultRetryConfig(), fn)
}

// applyJitter randomizes the delay within +/- factor
func applyJitter(delay time.Duration, factor float64) time.Duration {
	if factor <= 0 {
		return delay
	}

	jitter := float64(delay) * factor
	minDelay := float64(delay) - jitter
	maxDelay := float64(delay) + jitter

	return time.Duration(minDelay + rand.Float64()*(maxDelay-minDelay))
}

// IsRetryable reports whether an error should trigger a retry
func IsRetryable(err error) bool {
	// A cancelled context will never recover
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var perm Permanent
	if errors.As(err, &perm) {
		return false
	}
	return true
}

// Permanent marks an error as non-retryable
type Permanent struct {
	Err error
}

func (e Permanent) Error() string {
	return e.Err.Error()
}

func (e Permanent) Unwrap() error {
	return e.Err
}

// ErrMaxRetriesExceeded is returned when the attempt budget is spent
type ErrMaxRetriesExceeded struct {
	Attempts int
	LastErr  error
}

func (e ErrMaxRetriesExceeded) Error() string {
	if e.LastErr != nil {
		return "max retries exceeded: " + e.LastErr.Error()
	}
	return "max retries exceeded"
}

func (e ErrMaxRetriesExceeded) Unwrap() error {
	return e.LastErr
}
