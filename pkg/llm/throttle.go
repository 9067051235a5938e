package llm

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Policy describes the pacing and retry behaviour applied to model calls.
// Providers commonly rate-limit large grading prompts, so the batch loop
// relies on MinInterval as its backpressure mechanism.
type Policy struct {
	MinInterval  time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
}

// DefaultPolicy matches the pacing used by the interactive grading workflow.
func DefaultPolicy() Policy {
	return Policy{
		MinInterval:  time.Second,
		MaxRetries:   2,
		RetryBackoff: 2 * time.Second,
	}
}

// Throttled wraps a Client with an explicit Policy. The last-call timestamp
// is kept per instance, not at module level, so policies stay testable and
// independent.
type Throttled struct {
	inner  Client
	policy Policy
	logger zerolog.Logger

	mu       sync.Mutex
	lastCall time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewThrottled builds a throttled client around inner.
func NewThrottled(inner Client, policy Policy, logger zerolog.Logger) *Throttled {
	return &Throttled{
		inner:  inner,
		policy: policy,
		logger: logger.With().Str("component", "llm_throttle").Logger(),
		now:    time.Now,
		sleep:  sleepContext,
	}
}

// Complete paces the call per the policy and retries transport failures.
func (t *Throttled) Complete(ctx context.Context, prompt string) (string, error) {
	attempts := t.policy.MaxRetries + 1
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := t.waitTurn(ctx); err != nil {
			return "", err
		}

		content, err := t.inner.Complete(ctx, prompt)
		if err == nil {
			return content, nil
		}

		lastErr = err
		if !IsCallError(err) {
			return "", err
		}

		if attempt < attempts-1 {
			t.logger.Warn().Err(err).Int("attempt", attempt+1).Msg("model call failed, retrying")
			if t.policy.RetryBackoff > 0 {
				if err := t.sleep(ctx, t.policy.RetryBackoff); err != nil {
					return "", err
				}
			}
		}
	}

	return "", lastErr
}

func (t *Throttled) waitTurn(ctx context.Context) error {
	if t.policy.MinInterval <= 0 {
		return nil
	}

	t.mu.Lock()
	wait := t.policy.MinInterval - t.now().Sub(t.lastCall)
	if wait < 0 {
		wait = 0
	}
	t.lastCall = t.now().Add(wait)
	t.mu.Unlock()

	if wait == 0 {
		return nil
	}

	return t.sleep(ctx, wait)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
