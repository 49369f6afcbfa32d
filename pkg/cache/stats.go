package cache

import (
	"sync"
	"time"
)

// Stats is a process-local, injected counter set for cache observability.
// It is never consulted for correctness decisions. Tests instantiate their
// own isolated collector.
type Stats struct {
	mu        sync.Mutex
	hits      uint64
	misses    uint64
	purges    uint64
	warms     uint64
	lastReset time.Time
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Hits      uint64    `json:"hits"`
	Misses    uint64    `json:"misses"`
	Purges    uint64    `json:"purges"`
	Warms     uint64    `json:"warms"`
	LastReset time.Time `json:"lastReset"`
}

// NewStats creates a collector with all counters at zero.
func NewStats() *Stats {
	return &Stats{lastReset: time.Now()}
}

// RecordHit increments the hit counter.
func (s *Stats) RecordHit() {
	s.mu.Lock()
	s.hits++
	s.mu.Unlock()
}

// RecordMiss increments the miss counter.
func (s *Stats) RecordMiss() {
	s.mu.Lock()
	s.misses++
	s.mu.Unlock()
}

// RecordPurge increments the purge counter.
func (s *Stats) RecordPurge() {
	s.mu.Lock()
	s.purges++
	s.mu.Unlock()
}

// RecordWarm increments the warm counter.
func (s *Stats) RecordWarm() {
	s.mu.Lock()
	s.warms++
	s.mu.Unlock()
}

// Snapshot returns a copy of the current counters.
func (s *Stats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Hits:      s.hits,
		Misses:    s.misses,
		Purges:    s.purges,
		Warms:     s.warms,
		LastReset: s.lastReset,
	}
}

// Reset zeroes all counters and stamps the reset time.
func (s *Stats) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hits, s.misses, s.purges, s.warms = 0, 0, 0, 0
	s.lastReset = time.Now()
}

// HitRate returns hits / (hits + misses), or 0 with no reads recorded.
func (sn Snapshot) HitRate() float64 {
	total := sn.Hits + sn.Misses
	if total == 0 {
		return 0
	}
	return float64(sn.Hits) / float64(total)
}
