package ntfy

import (
	"math"
	"sync"
	"time"
)

// Stats is a point-in-time snapshot of a client's delivery counters.
type Stats struct {
	MessagesSent   uint64
	MessagesFailed uint64
	AvgLatencyMS   uint64
	MinLatencyMS   uint64
	MaxLatencyMS   uint64
	RetryAttempts  uint64
	LastError      string
	Uptime         time.Duration
}

// SuccessRate returns the percentage of sends that succeeded.
func (s Stats) SuccessRate() float64 {
	total := s.MessagesSent + s.MessagesFailed
	if total == 0 {
		return 0
	}
	return float64(s.MessagesSent) / float64(total) * 100
}

type statsRecorder struct {
	mu      sync.Mutex
	started time.Time

	sent       uint64
	failed     uint64
	avgLatency uint64
	minLatency uint64
	maxLatency uint64
	retries    uint64
	lastError  string
}

func newStatsRecorder() *statsRecorder {
	return &statsRecorder{
		started:    time.Now(),
		minLatency: math.MaxUint64,
	}
}

func (r *statsRecorder) recordSuccess(latency time.Duration) {
	ms := uint64(latency.Milliseconds())
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent++
	if r.sent == 1 {
		r.avgLatency = ms
	} else {
		r.avgLatency = (r.avgLatency + ms) / 2
	}
	if ms < r.minLatency {
		r.minLatency = ms
	}
	if ms > r.maxLatency {
		r.maxLatency = ms
	}
}

func (r *statsRecorder) recordFailure(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed++
	if err != nil {
		r.lastError = err.Error()
	}
}

func (r *statsRecorder) recordRetry() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.retries++
}

func (r *statsRecorder) snapshot() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	min := r.minLatency
	if r.sent == 0 {
		min = 0
	}
	return Stats{
		MessagesSent:   r.sent,
		MessagesFailed: r.failed,
		AvgLatencyMS:   r.avgLatency,
		MinLatencyMS:   min,
		MaxLatencyMS:   r.maxLatency,
		RetryAttempts:  r.retries,
		LastError:      r.lastError,
		Uptime:         time.Since(r.started),
	}
}
