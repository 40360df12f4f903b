package ntfy

import (
	"errors"
	"net/http"
	"testing"
	"time"
)

func TestRetryPolicyDelayGrowsAndCaps(t *testing.T) {
	policy := RetryPolicy{
		MaxAttempts:  5,
		BaseDelay:    100 * time.Millisecond,
		MaxDelay:     500 * time.Millisecond,
		Multiplier:   2.0,
		JitterFactor: 0,
	}
	wants := []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
		500 * time.Millisecond, // capped
		500 * time.Millisecond,
	}
	for attempt, want := range wants {
		if got := policy.Delay(attempt); got != want {
			t.Errorf("delay(%d) = %v, want %v", attempt, got, want)
		}
	}
}

func TestRetryPolicyJitterStaysInBand(t *testing.T) {
	policy := RetryPolicy{
		MaxAttempts:  3,
		BaseDelay:    100 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.1,
	}
	// Jitter moves the delay by at most +/- half the jitter factor.
	for i := 0; i < 100; i++ {
		got := policy.Delay(0)
		if got < 95*time.Millisecond || got > 105*time.Millisecond {
			t.Fatalf("jittered delay %v outside [95ms, 105ms]", got)
		}
	}
}

func TestRetryPolicyDelayNeverNegative(t *testing.T) {
	policy := RetryPolicy{
		MaxAttempts:  1,
		BaseDelay:    time.Millisecond,
		MaxDelay:     time.Millisecond,
		Multiplier:   1.0,
		JitterFactor: 4.0, // jitter larger than the delay itself
	}
	for i := 0; i < 100; i++ {
		if got := policy.Delay(0); got < 0 {
			t.Fatalf("delay went negative: %v", got)
		}
	}
}

func TestIsRetryableClassification(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"server error", &StatusError{Code: http.StatusInternalServerError}, true},
		{"bad gateway", &StatusError{Code: http.StatusBadGateway}, true},
		{"rate limited", &StatusError{Code: http.StatusTooManyRequests}, true},
		{"request timeout", &StatusError{Code: http.StatusRequestTimeout}, true},
		{"bad request", &StatusError{Code: http.StatusBadRequest}, false},
		{"forbidden", &StatusError{Code: http.StatusForbidden}, false},
		{"not found", &StatusError{Code: http.StatusNotFound}, false},
		{"generic transport error", errors.New("connection refused"), true},
		{"nil", nil, false},
	}
	for _, tc := range cases {
		if got := IsRetryable(tc.err); got != tc.want {
			t.Errorf("%s: IsRetryable = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestStatsSuccessRate(t *testing.T) {
	r := newStatsRecorder()
	if rate := r.snapshot().SuccessRate(); rate != 0 {
		t.Errorf("empty recorder success rate = %v", rate)
	}
	r.recordSuccess(10 * time.Millisecond)
	r.recordSuccess(30 * time.Millisecond)
	r.recordFailure(errors.New("boom"))
	s := r.snapshot()
	if s.MessagesSent != 2 || s.MessagesFailed != 1 {
		t.Fatalf("counters = %+v", s)
	}
	if s.MinLatencyMS != 10 || s.MaxLatencyMS != 30 {
		t.Errorf("latency bounds = %d/%d", s.MinLatencyMS, s.MaxLatencyMS)
	}
	if want := float64(2) / 3 * 100; s.SuccessRate() != want {
		t.Errorf("success rate = %v, want %v", s.SuccessRate(), want)
	}
}
