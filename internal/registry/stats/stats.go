// Package stats maintains the running registry aggregates. Counters are
// updated incrementally alongside the store mutation that triggered them,
// never recomputed by scanning records.
package stats

import (
	"sync"
	"time"
)

// Aggregator owns the process-wide registry aggregates. Zero value is ready to
// use; counters only grow and are never reset.
type Aggregator struct {
	mu                sync.Mutex
	totalRecords      uint64
	decryptedRecords  uint64
	cumulativeLatency time.Duration
}

// Snapshot is a consistent O(1) view of the aggregates.
type Snapshot struct {
	TotalRecords     uint64
	DecryptedRecords uint64
	AverageLatency   time.Duration
}

// New constructs an empty aggregator.
func New() *Aggregator {
	return &Aggregator{}
}

// RecordAdmitted adds n newly admitted records. Batch admissions report their
// whole size in one call.
func (a *Aggregator) RecordAdmitted(n int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.totalRecords += uint64(n)
}

// RecordDecrypted counts one reconciled record and accumulates its
// submission-to-decryption latency.
func (a *Aggregator) RecordDecrypted(latency time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.decryptedRecords++
	a.cumulativeLatency += latency
}

// Snapshot returns the current aggregates. Average latency is 0 while no
// record has been decrypted.
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	snap := Snapshot{
		TotalRecords:     a.totalRecords,
		DecryptedRecords: a.decryptedRecords,
	}
	if a.decryptedRecords > 0 {
		snap.AverageLatency = a.cumulativeLatency / time.Duration(a.decryptedRecords)
	}
	return snap
}
