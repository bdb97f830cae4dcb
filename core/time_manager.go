package core

import (
	"math"
	"sync"
	"sync/atomic"
	"time"
)

// TimeManager tracks bandwidth, latency, and per-block transfer time,
// and converts a scheduler "slot index" into estimated milliseconds at
// the client. It lives for the session and is updated concurrently by
// the network-event actor (bandwidth/latency updates) and the
// scheduling thread (distribution reference time, block size).
//
// TimeManager is guarded by a RWMutex; the bandwidth scalar is
// additionally mirrored in an atomic.Value so the sender's hot path can
// read it without acquiring the lock.
type TimeManager struct {
	mu sync.RWMutex

	latencyMs      int64   // L, ms
	blockSizeMbits float64 // S, current block size in megabits
	transferMs     int64   // ceil(S / BW * 1000)
	distRefTime    time.Time
	distRefSet     bool

	bw atomic.Value // float64, Mbit/s — hot-path mirror of the locked value
}

// NewTimeManager creates a TimeManager with the given initial latency
// (ms) and bandwidth (Mbit/s).
func NewTimeManager(latencyMs int64, bandwidthMbps float64) *TimeManager {
	tm := &TimeManager{latencyMs: latencyMs}
	tm.bw.Store(bandwidthMbps)
	return tm
}

// UpdateBandwidth sets the current bandwidth estimate (Mbit/s) and
// recomputes the per-block transfer time.
func (tm *TimeManager) UpdateBandwidth(bwMbps float64) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.bw.Store(bwMbps)
	tm.recomputeTransferMsLocked()
}

// UpdateLatency sets the current latency estimate in ms.
func (tm *TimeManager) UpdateLatency(latencyMs int64) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.latencyMs = latencyMs
}

// UpdateBlockSizeMegabits sets the current block size (megabits) and
// recomputes the per-block transfer time.
func (tm *TimeManager) UpdateBlockSizeMegabits(mbits float64) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.blockSizeMbits = mbits
	tm.recomputeTransferMsLocked()
}

// recomputeTransferMsLocked must be called with tm.mu held for write.
func (tm *TimeManager) recomputeTransferMsLocked() {
	bw := tm.bw.Load().(float64)
	if bw <= 0 || tm.blockSizeMbits <= 0 {
		tm.transferMs = 0
		return
	}
	tm.transferMs = int64(math.Ceil(tm.blockSizeMbits / bw * 1000.0))
}

// UpdateDistRefTime records the instant the most recent distribution
// update was decoded; SlotToClientDelta measures elapsed time from this
// reference, so every future slot projection is anchored to the
// distribution currently driving the scheduler.
func (tm *TimeManager) UpdateDistRefTime(t time.Time) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.distRefTime = t
	tm.distRefSet = true
}

// SlotToClientDelta returns the estimated milliseconds-at-the-client
// when the slot-th future block arrives:
//
//	L/2 + elapsed_since(T0) + slot * transfer_ms
//
// This is the scheduler's bridge between its integer slot index and
// the probability model's millisecond axis.
func (tm *TimeManager) SlotToClientDelta(slot int) int64 {
	tm.mu.RLock()
	defer tm.mu.RUnlock()

	var elapsed int64
	if tm.distRefSet {
		elapsed = time.Since(tm.distRefTime).Milliseconds()
		if elapsed < 0 {
			elapsed = 0
		}
	}
	return tm.latencyMs/2 + elapsed + int64(slot)*tm.transferMs
}

// TransferMs returns the current estimated per-block transfer time in
// ms (ceil(S / BW * 1000)).
func (tm *TimeManager) TransferMs() int64 {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return tm.transferMs
}

// LatencyMs returns the current latency estimate in ms.
func (tm *TimeManager) LatencyMs() int64 {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return tm.latencyMs
}

// Bandwidth returns the current bandwidth estimate (Mbit/s) without
// acquiring tm.mu — the hot-path read the SenderLoop uses every
// pacing cycle.
func (tm *TimeManager) Bandwidth() float64 {
	return tm.bw.Load().(float64)
}

// BlockSizeMegabits returns the current block size in megabits.
func (tm *TimeManager) BlockSizeMegabits() float64 {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return tm.blockSizeMbits
}
