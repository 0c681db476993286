package policy

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/GoSim-25-26J-441/replay-search/pkg/config"
)

var errTransient = errors.New("transient")

func onlyTransient(err error) bool { return errors.Is(err, errTransient) }

func TestNewRetryPolicyFromConfig(t *testing.T) {
	policy := NewRetryPolicyFromConfig(config.Retry{MaxRetries: 3, Backoff: "exponential", BaseMs: 10}, nil)
	if !policy.Enabled() {
		t.Fatalf("expected policy to be enabled")
	}
	if policy.Name() != "retry" {
		t.Fatalf("expected name to be 'retry', got %s", policy.Name())
	}
	if policy.GetMaxRetries() != 3 {
		t.Fatalf("expected max retries 3, got %d", policy.GetMaxRetries())
	}
	if NewRetryPolicyFromConfig(config.Retry{}, nil).Enabled() {
		t.Fatalf("expected zero retries to disable the policy")
	}
}

func TestRetryPolicyShouldRetry(t *testing.T) {
	policy := NewRetryPolicy(3, "exponential", 10, onlyTransient)

	tests := []struct {
		name    string
		attempt int
		err     error
		want    bool
	}{
		{"first failure", 0, errTransient, true},
		{"last allowed", 2, errTransient, true},
		{"budget spent", 3, errTransient, false},
		{"success", 0, nil, false},
		{"not retryable", 0, errors.New("permanent"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := policy.ShouldRetry(tt.attempt, tt.err); got != tt.want {
				t.Fatalf("ShouldRetry(%d, %v) = %v, want %v", tt.attempt, tt.err, got, tt.want)
			}
		})
	}

	if NewRetryPolicy(0, "constant", 10, nil).ShouldRetry(0, errTransient) {
		t.Fatalf("expected should not retry when disabled")
	}
}

func TestRetryPolicyGetBackoffDuration(t *testing.T) {
	tests := []struct {
		backoff string
		attempt int
		want    time.Duration
	}{
		{"exponential", 1, 10 * time.Millisecond},
		{"exponential", 2, 20 * time.Millisecond},
		{"exponential", 3, 40 * time.Millisecond},
		{"linear", 1, 10 * time.Millisecond},
		{"linear", 3, 30 * time.Millisecond},
		{"constant", 1, 10 * time.Millisecond},
		{"constant", 3, 10 * time.Millisecond},
		{"unknown", 2, 20 * time.Millisecond},
		{"exponential", 0, 0},
		{"exponential", -1, 0},
	}
	for _, tt := range tests {
		policy := NewRetryPolicy(5, tt.backoff, 10, nil)
		if got := policy.GetBackoffDuration(tt.attempt); got != tt.want {
			t.Errorf("%s attempt %d: expected %v, got %v", tt.backoff, tt.attempt, tt.want, got)
		}
	}

	if d := NewRetryPolicy(0, "constant", 10, nil).GetBackoffDuration(1); d != 0 {
		t.Fatalf("expected duration 0 when disabled, got %v", d)
	}
	if d := NewRetryPolicy(100, "exponential", 1, nil).GetBackoffDuration(90); d != time.Millisecond<<maxShift {
		t.Fatalf("expected capped backoff, got %v", d)
	}
}

func TestDo(t *testing.T) {
	policy := NewRetryPolicy(3, "constant", 0, onlyTransient)

	calls := 0
	err := Do(context.Background(), policy, func(context.Context) error {
		calls++
		if calls < 3 {
			return errTransient
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Fatalf("expected success on the third call, got %v after %d calls", err, calls)
	}

	calls = 0
	err = Do(context.Background(), policy, func(context.Context) error {
		calls++
		return errTransient
	})
	if !errors.Is(err, errTransient) || calls != 4 {
		t.Fatalf("expected 4 calls ending in the transient error, got %v after %d calls", err, calls)
	}

	calls = 0
	permanent := errors.New("permanent")
	if err := Do(context.Background(), policy, func(context.Context) error {
		calls++
		return permanent
	}); !errors.Is(err, permanent) || calls != 1 {
		t.Fatalf("expected a single call for a permanent error, got %v after %d calls", err, calls)
	}
}

func TestDoStopsWhenContextDone(t *testing.T) {
	policy := NewRetryPolicy(5, "constant", 60000, nil)
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Do(ctx, policy, func(context.Context) error {
		calls++
		cancel()
		return errTransient
	})
	if !errors.Is(err, errTransient) || calls != 1 {
		t.Fatalf("expected one call before cancellation, got %v after %d calls", err, calls)
	}
}

func TestDoWithoutPolicy(t *testing.T) {
	calls := 0
	_ = Do(context.Background(), nil, func(context.Context) error {
		calls++
		return errTransient
	})
	if calls != 1 {
		t.Fatalf("expected a single call without a policy, got %d", calls)
	}
}
