// Package retry runs an operation with exponential backoff. The clearing
// gateway uses it so transient network failures do not fail a submit batch.
package retry

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Policy describes how aggressively an operation is retried.
type Policy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
}

// DefaultPolicy retries three times, starting at 100ms and doubling.
func DefaultPolicy() *Policy {
	return &Policy{
		MaxAttempts:    3,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     30 * time.Second,
		Multiplier:     2.0,
	}
}

// Do runs fn until it succeeds, the policy is exhausted, or the context is
// cancelled. The backoff wait itself is context-aware, so cancellation does
// not block on a sleeping retry.
func Do[T any](ctx context.Context, p *Policy, log *slog.Logger, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	backoff := p.InitialBackoff
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt == p.MaxAttempts {
			break
		}

		log.Warn("operation failed, retrying",
			slog.String("operation", op),
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", p.MaxAttempts),
			slog.Duration("backoff", backoff),
			slog.String("error", err.Error()),
		)

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(backoff):
		}

		backoff = time.Duration(float64(backoff) * p.Multiplier)
		if backoff > p.MaxBackoff {
			backoff = p.MaxBackoff
		}
	}

	return zero, fmt.Errorf("operation '%s' failed after %d attempts: %w", op, p.MaxAttempts, lastErr)
}
