package ntfy

import (
	"math"
	"math/rand"
	"time"
)

// RetryPolicy controls the client's internal retry loop around a single
// Send call.
type RetryPolicy struct {
	MaxAttempts  int
	BaseDelay    time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	JitterFactor float64
}

// DefaultRetryPolicy matches the daemon's delivery defaults.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  3,
		BaseDelay:    100 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.1,
	}
}

// Delay computes the wait before retrying after the given zero-based
// attempt. The exponential delay is capped at MaxDelay before jitter is
// applied, and the result never goes negative.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	base := float64(p.BaseDelay.Milliseconds())
	delay := base * math.Pow(p.Multiplier, float64(attempt))
	delay = math.Min(delay, float64(p.MaxDelay.Milliseconds()))

	jitter := delay * p.JitterFactor * (rand.Float64() - 0.5)
	final := math.Max(delay+jitter, 0)

	return time.Duration(final) * time.Millisecond
}
