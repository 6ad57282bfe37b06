// Package metrics provides in-memory statistics for load operations.
package metrics

import (
	"math"
	"sync"
	"time"
)

// PhaseMetrics holds aggregated timings for a single load phase.
type PhaseMetrics struct {
	Count     int64
	TotalTime time.Duration
	MinTime   time.Duration
	MaxTime   time.Duration
}

// PhaseSnapshot provides computed stats from raw phase metrics.
type PhaseSnapshot struct {
	Count       int64   `json:"count"`
	TotalTimeMs int64   `json:"total_time_ms"`
	AvgTimeMs   float64 `json:"avg_time_ms"`
	MinTimeMs   int64   `json:"min_time_ms"`
	MaxTimeMs   int64   `json:"max_time_ms"`
}

// Snapshot represents full collector state at a point in time.
type Snapshot struct {
	UptimeSeconds float64                  `json:"uptime_seconds"`
	Bytes         int64                    `json:"bytes"`
	Phases        map[string]PhaseSnapshot `json:"phases"`
}

// Collector aggregates in-memory load statistics.
// All methods are thread-safe.
type Collector struct {
	mu        sync.RWMutex
	startTime time.Time
	bytes     int64
	phases    map[string]*PhaseMetrics
}

// NewCollector creates a new metrics collector.
func NewCollector() *Collector {
	return &Collector{
		startTime: time.Now(),
		phases:    make(map[string]*PhaseMetrics),
	}
}

// Record records one timing sample for a phase.
func (c *Collector) Record(phase string, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m, ok := c.phases[phase]
	if !ok {
		m = &PhaseMetrics{MinTime: time.Duration(math.MaxInt64)}
		c.phases[phase] = m
	}
	m.Count++
	m.TotalTime += duration
	if duration < m.MinTime {
		m.MinTime = duration
	}
	if duration > m.MaxTime {
		m.MaxTime = duration
	}
}

// AddBytes accumulates a byte count (read on the client, served on the server).
func (c *Collector) AddBytes(n int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bytes += n
}

// Snapshot returns a point-in-time snapshot of all metrics.
func (c *Collector) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	phases := make(map[string]PhaseSnapshot, len(c.phases))
	for name, m := range c.phases {
		if m.Count == 0 {
			continue
		}
		phases[name] = PhaseSnapshot{
			Count:       m.Count,
			TotalTimeMs: m.TotalTime.Milliseconds(),
			AvgTimeMs:   float64(m.TotalTime.Milliseconds()) / float64(m.Count),
			MinTimeMs:   m.MinTime.Milliseconds(),
			MaxTimeMs:   m.MaxTime.Milliseconds(),
		}
	}
	return Snapshot{
		UptimeSeconds: time.Since(c.startTime).Seconds(),
		Bytes:         c.bytes,
		Phases:        phases,
	}
}
