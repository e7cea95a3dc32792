// Package retry provides an explicit retry policy with a fixed backoff schedule,
// terminal-failure classification, and an injectable sleeper for testing.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrExhausted wraps the last attempt error once every attempt has failed.
	ErrExhausted = errors.New("retry attempts exhausted")
	// ErrInvalidPolicy indicates a policy that cannot be executed.
	ErrInvalidPolicy = errors.New("invalid retry policy")
)

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Policy describes how many times an operation is attempted and how long to wait
// between attempts. Delays[i] is the wait before attempt i+2; when attempts outnumber
// delays the last delay repeats.
type Policy struct {
	MaxAttempts int
	Delays      []time.Duration

	// Retryable classifies an attempt error. Nil treats every error as retryable.
	Retryable func(error) bool
	// OnRetry is invoked before each wait with the upcoming attempt number.
	OnRetry func(attempt int, delay time.Duration, err error)
	// Sleep defaults to a context-aware timer.
	Sleep Sleeper
}

// DefaultDelays is the 1s, 2s, 4s, 8s, 16s, 32s schedule.
func DefaultDelays() []time.Duration {
	return []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
		32 * time.Second,
	}
}

// Default returns a policy of 7 attempts over DefaultDelays.
func Default() Policy {
	return Policy{
		MaxAttempts: 7,
		Delays:      DefaultDelays(),
	}
}

// Validate rejects policies with no attempts, negative delays, or a decreasing schedule.
func (p Policy) Validate() error {
	if p.MaxAttempts < 1 {
		return fmt.Errorf("%w: max_attempts must be at least 1", ErrInvalidPolicy)
	}
	for i, d := range p.Delays {
		if d < 0 {
			return fmt.Errorf("%w: delay %d is negative", ErrInvalidPolicy, i)
		}
		if i > 0 && d < p.Delays[i-1] {
			return fmt.Errorf("%w: delay %d decreases (%s < %s)", ErrInvalidPolicy, i, d, p.Delays[i-1])
		}
	}
	return nil
}

// Delay returns the wait that precedes the given attempt (1-based).
// The first attempt never waits.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt <= 1 || len(p.Delays) == 0 {
		return 0
	}
	idx := min(attempt-2, len(p.Delays)-1)
	return p.Delays[idx]
}

// Do runs fn until it succeeds, returns a non-retryable error, the context ends,
// or MaxAttempts is reached. fn receives the 1-based attempt number.
func Do[T any](ctx context.Context, p Policy, fn func(ctx context.Context, attempt int) (T, error)) (T, error) {
	var zero T

	if err := p.Validate(); err != nil {
		return zero, err
	}

	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if attempt > 1 {
			delay := p.Delay(attempt)
			if p.OnRetry != nil {
				p.OnRetry(attempt, delay, lastErr)
			}
			if err := sleep(ctx, delay); err != nil {
				return zero, fmt.Errorf("wait before attempt %d: %w (last error: %w)", attempt, err, lastErr)
			}
		}

		result, err := fn(ctx, attempt)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if p.Retryable != nil && !p.Retryable(err) {
			return zero, err
		}
		if ctx.Err() != nil {
			return zero, fmt.Errorf("attempt %d: %w", attempt, err)
		}
	}

	return zero, fmt.Errorf("%w after %d attempts: %w", ErrExhausted, p.MaxAttempts, lastErr)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
