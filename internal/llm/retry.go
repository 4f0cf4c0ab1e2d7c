package llm

import (
	"context"
	"time"
)

// RetryPolicy bounds how often a failed LLM call is reattempted and how
// long to wait between attempts. Inject NoDelay in tests.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     func(attempt int) time.Duration
}

// DefaultRetryPolicy retries up to maxAttempts with exponential backoff
// starting at one second.
func DefaultRetryPolicy(maxAttempts int) RetryPolicy {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return RetryPolicy{
		MaxAttempts: maxAttempts,
		Backoff: func(attempt int) time.Duration {
			return time.Second << attempt
		},
	}
}

// NoDelay retries immediately.
func NoDelay(maxAttempts int) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: maxAttempts,
		Backoff:     func(int) time.Duration { return 0 },
	}
}

func (p RetryPolicy) wait(ctx context.Context, attempt int) error {
	d := p.Backoff(attempt)
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
