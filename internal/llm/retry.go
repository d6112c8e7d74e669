package llm

import (
	"context"
	"errors"
	"time"
)

// RetryConfig controls the exponential-backoff retry loop every provider
// is wrapped in, per §5: up to 3 attempts, base delay 1s, doubling each
// attempt.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// DefaultRetryConfig is the §5 concurrency-model default: 3 attempts, 1s
// base delay.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{MaxAttempts: 3, BaseDelay: time.Second}
}

// withRetry calls fn up to cfg.MaxAttempts times, doubling the delay
// between attempts, stopping early if ctx is done or fn's error does not
// wrap ErrModelConnection (a response or validation error is never
// retried — only connectivity failures are, per the §7 taxonomy). The
// retry loop never holds an external lock, per §5's shared-resource
// policy for the model client.
func withRetry(ctx context.Context, cfg RetryConfig, fn func(context.Context) (string, error)) (string, error) {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}

	delay := cfg.BaseDelay
	var lastErr error

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		text, err := fn(ctx)
		if err == nil {
			return text, nil
		}
		lastErr = err

		if !errors.Is(err, ErrModelConnection) {
			return "", err
		}
		if attempt == cfg.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}

	return "", lastErr
}
