package bridge

import (
	"sync"
	"time"
)

// CapabilityStats aggregates invocation outcomes for one capability
type CapabilityStats struct {
	Name           string        `json:"name"`
	Total          int64         `json:"total"`
	Succeeded      int64         `json:"succeeded"`
	Failed         int64         `json:"failed"`
	TimedOut       int64         `json:"timed_out"`
	AverageLatency time.Duration `json:"average_latency"`
	LastInvocation time.Time     `json:"last_invocation"`
}

type statsTracker struct {
	stats map[string]*CapabilityStats
	mu    sync.Mutex
}

func newStatsTracker() *statsTracker {
	return &statsTracker{stats: make(map[string]*CapabilityStats)}
}

func (t *statsTracker) record(name string, duration time.Duration, success, timedOut bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.stats[name]
	if !ok {
		s = &CapabilityStats{Name: name}
		t.stats[name] = s
	}

	// Running average over all invocations
	s.AverageLatency = time.Duration(
		(int64(s.AverageLatency)*s.Total + int64(duration)) / (s.Total + 1))
	s.Total++
	s.LastInvocation = time.Now()

	switch {
	case timedOut:
		s.TimedOut++
		s.Failed++
	case success:
		s.Succeeded++
	default:
		s.Failed++
	}
}

// Stats returns a snapshot of per-capability invocation statistics
func (b *Bridge) Stats() map[string]CapabilityStats {
	b.stats.mu.Lock()
	defer b.stats.mu.Unlock()

	snapshot := make(map[string]CapabilityStats, len(b.stats.stats))
	for name, s := range b.stats.stats {
		snapshot[name] = *s
	}
	return snapshot
}
