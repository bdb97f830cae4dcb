package core

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// BlockSink is the outbound transport a SenderLoop writes envelopes to
// (the WebSocket in the external surface). A send failure (peer gone)
// stops the SenderLoop rather than retrying; the SchedulingLoop is not
// stopped by it.
type BlockSink interface {
	Send(envelope []byte) error
}

// SenderLoop owns the outbound side: it walks the current plan,
// fetches blocks from the AppAdapter, writes them to the BlockSink, and
// paces itself to the configured bandwidth.
type SenderLoop struct {
	adapter AppAdapter
	cache   *CacheSimulator
	tm      *TimeManager
	sink    BlockSink
	seq     *DispatchSequencer

	planIn *Mailbox[[]QueryIndex]

	minWait time.Duration
	limiter *rate.Limiter

	kill atomic.Bool

	plan   []QueryIndex
	cursor int
}

// NewSenderLoop wires a sender loop. blockSizeBytes and initial
// bandwidth seed the rate.Limiter; UpdateBandwidth keeps it in sync
// with TimeManager going forward.
func NewSenderLoop(adapter AppAdapter, cache *CacheSimulator, tm *TimeManager, sink BlockSink, planIn *Mailbox[[]QueryIndex], blockSizeBytes int, minWait time.Duration) *SenderLoop {
	bytesPerSec := tm.Bandwidth() * 1e6 / 8.0
	limiter := rate.NewLimiter(rate.Limit(bytesPerSec), blockSizeBytes)
	return &SenderLoop{
		adapter: adapter,
		cache:   cache,
		tm:      tm,
		sink:    sink,
		seq:     &DispatchSequencer{},
		planIn:  planIn,
		minWait: minWait,
		limiter: limiter,
	}
}

// UpdateBandwidth retunes the sender's pacing limiter (bytes/sec) to
// the current TimeManager bandwidth and the per-block byte size.
func (s *SenderLoop) UpdateBandwidth(blockSizeBytes int) {
	bytesPerSec := s.tm.Bandwidth() * 1e6 / 8.0
	s.limiter.SetLimit(rate.Limit(bytesPerSec))
	s.limiter.SetBurst(blockSizeBytes)
}

// Kill signals the loop to exit within one pacing quantum.
func (s *SenderLoop) Kill() { s.kill.Store(true) }

// Run drives the loop until Kill is called. Meant to be launched as
// its own goroutine: `go loop.Run()`.
func (s *SenderLoop) Run() {
	ctx := context.Background()
	blockSize := s.adapter.GetBlockSize()

	for {
		if s.kill.Load() {
			logrus.Debug("sender loop: terminating")
			return
		}

		if fresh, ok := s.planIn.TryGet(); ok {
			s.plan = fresh
			s.cursor = 0
			s.adapter.PrepareSchedule(s.plan)
		}

		q, ok := s.next()
		if !ok {
			time.Sleep(time.Millisecond)
			continue
		}

		incache := s.cache.Get(q)
		blocks, err := s.adapter.GetBlocksByIndex(q, 1, incache)
		if err != nil || len(blocks) == 0 {
			logrus.Warnf("sender loop: get_nblocks(%d, 1, %d) failed: %v", q, incache, err)
			continue
		}

		for _, env := range blocks {
			waitStart := time.Now()
			if err := s.limiter.WaitN(ctx, blockSize); err != nil {
				logrus.Errorf("sender loop: pacing wait: %v", err)
				continue
			}
			// minWait is a floor on the pacing delay, not an addition
			// to it: only top up the sleep if the limiter returned
			// before minWait would have elapsed on its own.
			if elapsed := time.Since(waitStart); elapsed < s.minWait {
				time.Sleep(s.minWait - elapsed)
			}

			payload := PrependDispatchSeq(s.seq.Next(), EncodeEnvelope(env))
			if err := s.sink.Send(payload); err != nil {
				logrus.Errorf("sender loop: send failed, closing session: %v", err)
				s.Kill()
				return
			}
			s.cache.Add(q)
		}
	}
}

// next returns the next query index in the current plan iterator, or
// ok=false when the plan is exhausted.
func (s *SenderLoop) next() (QueryIndex, bool) {
	if s.cursor >= len(s.plan) {
		return 0, false
	}
	q := s.plan[s.cursor]
	s.cursor++
	return q, true
}
