// Package retry implements the bounded retry policy wrapped around every
// upstream call the dashboard makes. Policies are plain values passed to Do;
// there is no package-level state.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/superform-xyz/supervaults/internal/config"
)

// Policy bounds the attempts of one logical operation.
type Policy struct {
	MaxAttempts   int           // total tries, including the first
	BaseDelay     time.Duration // first backoff step
	MaxDelay      time.Duration // backoff ceiling before jitter, 0 = uncapped
	PerTryTimeout time.Duration // deadline applied to each attempt, 0 = none
}

// DefaultPolicy builds the standard upstream policy from the configured
// knobs: RETRY_MAX_ATTEMPTS tries with RETRY_BASE_DELAY_MS backoff, each
// attempt bounded by FETCH_TIMEOUT_SECONDS.
func DefaultPolicy(cfg *config.Config) Policy {
	return Policy{
		MaxAttempts:   cfg.RetryMaxAttempts,
		BaseDelay:     cfg.RetryBaseDelay,
		MaxDelay:      30 * time.Second,
		PerTryTimeout: cfg.FetchTimeout,
	}
}

// Do runs op under p, sleeping between failed attempts with exponential
// backoff plus jitter. It returns nil on the first success, the context
// error joined with the last attempt error when ctx ends first, or the
// last error wrapped with the attempt count once attempts are exhausted.
func Do(ctx context.Context, p Policy, op func(context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return errors.Join(err, lastErr)
		}

		err := runAttempt(ctx, p, op)
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt == attempts {
			break
		}

		select {
		case <-time.After(backoff(p, attempt)):
		case <-ctx.Done():
			return errors.Join(ctx.Err(), lastErr)
		}
	}

	return fmt.Errorf("after %d attempts: %w", attempts, lastErr)
}

func runAttempt(ctx context.Context, p Policy, op func(context.Context) error) error {
	if p.PerTryTimeout > 0 {
		attemptCtx, cancel := context.WithTimeout(ctx, p.PerTryTimeout)
		defer cancel()
		return op(attemptCtx)
	}
	return op(ctx)
}

// backoff computes the sleep before the next attempt: BaseDelay doubled per
// failure, capped at MaxDelay, plus up to one second of jitter so parallel
// workers don't hammer an upstream in lockstep.
func backoff(p Policy, attempt int) time.Duration {
	delay := float64(p.BaseDelay) * math.Pow(2, float64(attempt-1))
	if p.MaxDelay > 0 && delay > float64(p.MaxDelay) {
		delay = float64(p.MaxDelay)
	}
	return time.Duration(delay) + time.Duration(rand.Float64()*float64(time.Second))
}
