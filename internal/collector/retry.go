package collector

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	"github.com/naka-gawa/talentrank/internal/domain"
)

// RetryConfig holds configuration for retry behavior.
type RetryConfig struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	JitterEnabled bool
}

// DefaultRetryConfig returns the retry policy used when none is configured.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  200 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 2.0,
		JitterEnabled: true,
	}
}

// retryable reports whether err is worth another attempt. Quota exhaustion is
// not: retrying would only spend budget the limiter has already refused.
func retryable(err error) bool {
	return errors.Is(err, domain.ErrUpstreamUnavailable)
}

// retry runs fn until it succeeds, fails with a non-retryable error, or the
// attempts run out. Cancellation during a wait wins over the last error.
func retry(ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) error) error {
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = fn(ctx)
		if lastErr == nil || !retryable(lastErr) || attempt == attempts-1 {
			return lastErr
		}

		timer := time.NewTimer(backoff(cfg, attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return lastErr
}

// backoff computes initial * factor^attempt, capped, plus up to 10% jitter.
func backoff(cfg RetryConfig, attempt int) time.Duration {
	factor := cfg.BackoffFactor
	if factor < 1 {
		factor = 2
	}
	delay := time.Duration(float64(cfg.InitialDelay) * math.Pow(factor, float64(attempt)))
	if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
		delay = cfg.MaxDelay
	}
	if cfg.JitterEnabled && delay >= 10 {
		delay += time.Duration(rand.Int63n(int64(delay / 10)))
	}
	return delay
}
