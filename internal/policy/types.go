// Package policy holds the resilience policies applied to calls into the simulation host.
package policy

import "time"

// Policy represents a generic policy interface
type Policy interface {
	// Enabled returns whether the policy is enabled
	Enabled() bool
	// Name returns the policy name for identification
	Name() string
}

// RetryPolicy decides whether a failed host call is attempted again
type RetryPolicy interface {
	Policy
	// ShouldRetry determines if a call that failed on the given attempt (0-based) is retried
	ShouldRetry(attempt int, err error) bool
	// GetBackoffDuration calculates the wait before retry number attempt (1-based)
	GetBackoffDuration(attempt int) time.Duration
	// GetMaxRetries returns the maximum number of retries allowed
	GetMaxRetries() int
}
