package policy

import (
	"context"
	"time"

	"github.com/GoSim-25-26J-441/replay-search/pkg/config"
)

// maxShift caps exponential growth so the backoff never overflows
const maxShift = 20

// retryPolicy implements RetryPolicy
type retryPolicy struct {
	maxRetries int
	backoff    string // exponential, linear, constant
	baseMs     int
	retryable  func(error) bool
}

// NewRetryPolicyFromConfig creates a retry policy from config. retryable selects the
// errors worth another attempt; nil retries every error.
func NewRetryPolicyFromConfig(cfg config.Retry, retryable func(error) bool) RetryPolicy {
	return NewRetryPolicy(cfg.MaxRetries, cfg.Backoff, cfg.BaseMs, retryable)
}

// NewRetryPolicy creates a retry policy with explicit parameters. It is disabled when
// maxRetries is not positive.
func NewRetryPolicy(maxRetries int, backoff string, baseMs int, retryable func(error) bool) RetryPolicy {
	return &retryPolicy{
		maxRetries: maxRetries,
		backoff:    backoff,
		baseMs:     baseMs,
		retryable:  retryable,
	}
}

func (p *retryPolicy) Enabled() bool {
	return p.maxRetries > 0
}

func (p *retryPolicy) Name() string {
	return "retry"
}

func (p *retryPolicy) ShouldRetry(attempt int, err error) bool {
	if err == nil || !p.Enabled() || attempt >= p.maxRetries {
		return false
	}
	return p.retryable == nil || p.retryable(err)
}

func (p *retryPolicy) GetBackoffDuration(attempt int) time.Duration {
	if !p.Enabled() || attempt <= 0 {
		return 0
	}

	base := time.Duration(p.baseMs) * time.Millisecond
	switch p.backoff {
	case "linear":
		return base * time.Duration(attempt)
	case "constant":
		return base
	default:
		// exponential: base * 2^(attempt-1)
		return base << min(attempt-1, maxShift)
	}
}

func (p *retryPolicy) GetMaxRetries() int {
	return p.maxRetries
}

// Do calls fn until it succeeds or p declines another attempt. Backoff waits end early
// when ctx is done; the last error from fn is returned either way.
func Do(ctx context.Context, p RetryPolicy, fn func(ctx context.Context) error) error {
	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if p == nil || !p.ShouldRetry(attempt, err) {
			return err
		}
		timer := time.NewTimer(p.GetBackoffDuration(attempt + 1))
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
	}
}
