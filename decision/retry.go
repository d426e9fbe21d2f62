// ABOUTME: Retry wrapper for decision providers
// ABOUTME: Exponential backoff with bounded jitter, retrying only rate limits, timeouts, and 5xx
package decision

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// RetryPolicy bounds how a provider call is retried.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	// Jitter is the largest extra fraction of the delay added at random.
	Jitter float64
}

// DefaultRetryPolicy returns three retries from one second up to thirty.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 3,
		BaseDelay:  time.Second,
		MaxDelay:   30 * time.Second,
		Jitter:     0.3,
	}
}

// Delay returns the wait before retry number attempt (0-based), without jitter.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	d := float64(p.BaseDelay) * math.Pow(2, float64(attempt))
	if p.MaxDelay > 0 && d > float64(p.MaxDelay) {
		d = float64(p.MaxDelay)
	}
	return time.Duration(d)
}

type retryingProvider struct {
	inner  Provider
	policy RetryPolicy
	logger *zap.Logger
	sleep  func(ctx context.Context, d time.Duration) error
	jitter func() float64
}

// WithRetry wraps p so transient failures are retried under policy.
func WithRetry(p Provider, policy RetryPolicy, logger *zap.Logger) Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &retryingProvider{
		inner:  p,
		policy: policy,
		logger: logger,
		sleep:  sleepContext,
		jitter: rand.Float64,
	}
}

func (r *retryingProvider) Invoke(ctx context.Context, req Request) (Response, error) {
	var lastErr error
	for attempt := 0; attempt <= r.policy.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := r.policy.Delay(attempt - 1)
			delay += time.Duration(r.jitter() * r.policy.Jitter * float64(delay))
			r.logger.Debug("retrying AI backend call",
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
				zap.Error(lastErr))
			if err := r.sleep(ctx, delay); err != nil {
				return Response{}, lastErr
			}
		}

		resp, err := r.inner.Invoke(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !IsTransient(err) {
			return resp, err
		}
	}
	return Response{}, lastErr
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
