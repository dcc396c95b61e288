package service

import (
	"time"

	"github.com/ebalkan/notifyhub/internal/gateway"
)

const (
	// DefaultMaxAttempts is the maximum number of delivery attempts for a
	// notification, the initial attempt included.
	DefaultMaxAttempts = 3

	// DefaultBaseDelay is multiplied by the number of completed attempts
	// to compute the backoff before the next attempt.
	DefaultBaseDelay = 30 * time.Second
)

// RetryPolicy decides whether a failed delivery attempt is retried. It is a
// pure function of the attempt counter and the failure, with no ambient
// worker state.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

func NewRetryPolicy(maxAttempts int, baseDelay time.Duration) RetryPolicy {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if baseDelay <= 0 {
		baseDelay = DefaultBaseDelay
	}
	return RetryPolicy{MaxAttempts: maxAttempts, BaseDelay: baseDelay}
}

// RetryDecision is the outcome for one failed attempt: retry after a delay,
// or give up and leave the notification in its terminal failed state.
type RetryDecision struct {
	Retry bool
	Delay time.Duration
}

// Decide takes the number of completed attempts (the failed one included)
// and the failure, and returns the scheduling decision. Permanent failures
// are never retried; transient ones are retried with linearly increasing
// backoff until the attempt budget is exhausted.
func (p RetryPolicy) Decide(completedAttempts int, err error) RetryDecision {
	if err == nil {
		return RetryDecision{}
	}
	if !gateway.IsTransient(err) {
		return RetryDecision{}
	}
	if completedAttempts >= p.MaxAttempts {
		return RetryDecision{}
	}

	return RetryDecision{
		Retry: true,
		Delay: p.BaseDelay * time.Duration(completedAttempts),
	}
}
