package qpersist

import (
	"sort"
	"sync"
	"time"
)

/*
Metrics tracks how the worker pool spent its time. Latency percentiles are
computed over a sliding window of the most recent jobs.
*/
type Metrics struct {
	mu           sync.RWMutex
	WorkerCount  int
	JobCount     int64
	FailureCount int64
	TotalJobTime time.Duration

	AverageJobLatency time.Duration
	P95JobLatency     time.Duration
	P99JobLatency     time.Duration

	latencies  []time.Duration
	windowSize int
}

// MetricsSnapshot is the exported, serializable view of Metrics.
type MetricsSnapshot struct {
	Workers      int     `json:"workers" yaml:"workers"`
	Jobs         int64   `json:"jobs" yaml:"jobs"`
	Failures     int64   `json:"failures" yaml:"failures"`
	AvgLatencyMs float64 `json:"avg_latency_ms" yaml:"avg_latency_ms"`
	P95LatencyMs float64 `json:"p95_latency_ms" yaml:"p95_latency_ms"`
	P99LatencyMs float64 `json:"p99_latency_ms" yaml:"p99_latency_ms"`
	TotalJobMs   float64 `json:"total_job_ms" yaml:"total_job_ms"`
}

func NewMetrics() *Metrics {
	return &Metrics{
		latencies:  make([]time.Duration, 0, 1000),
		windowSize: 1000,
	}
}

func (m *Metrics) recordJobExecution(startTime time.Time, success bool) {
	duration := time.Since(startTime)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.TotalJobTime += duration
	m.JobCount++
	if !success {
		m.FailureCount++
	}

	m.updateLatencyPercentiles(duration)
}

func (m *Metrics) updateLatencyPercentiles(duration time.Duration) {
	m.AverageJobLatency = m.TotalJobTime / time.Duration(m.JobCount)

	m.latencies = append(m.latencies, duration)
	if len(m.latencies) > m.windowSize {
		m.latencies = m.latencies[1:]
	}

	sorted := make([]time.Duration, len(m.latencies))
	copy(sorted, m.latencies)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i] < sorted[j]
	})

	m.P95JobLatency = sorted[percentileIndex(len(sorted), 0.95)]
	m.P99JobLatency = sorted[percentileIndex(len(sorted), 0.99)]
}

func percentileIndex(n int, q float64) int {
	idx := int(float64(n) * q)
	if idx >= n {
		idx = n - 1
	}
	return idx
}

// Snapshot copies the current counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ms := func(d time.Duration) float64 { return float64(d) / float64(time.Millisecond) }

	return MetricsSnapshot{
		Workers:      m.WorkerCount,
		Jobs:         m.JobCount,
		Failures:     m.FailureCount,
		AvgLatencyMs: ms(m.AverageJobLatency),
		P95LatencyMs: ms(m.P95JobLatency),
		P99LatencyMs: ms(m.P99JobLatency),
		TotalJobMs:   ms(m.TotalJobTime),
	}
}
