package worker

import "time"

// RetryPolicy shapes the backoff between notification delivery attempts.
type RetryPolicy struct {
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	MaxRetries int
}

func DefaultRetryPolicy(maxRetries int) RetryPolicy {
	return RetryPolicy{
		BaseDelay:  5 * time.Second,
		MaxDelay:   10 * time.Minute,
		MaxRetries: maxRetries,
	}
}

// NextDelay doubles the base delay per attempt, capped at MaxDelay.
func (p RetryPolicy) NextDelay(attempt int) time.Duration {
	delay := p.BaseDelay
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	return delay
}

// Exhausted reports whether the notification has used up its attempts.
func (p RetryPolicy) Exhausted(retryCount int) bool {
	return retryCount >= p.MaxRetries
}
