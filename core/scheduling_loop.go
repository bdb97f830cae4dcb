package core

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/blockcast/blockcast/core/prob"
)

// SchedulingLoop owns the scheduler and runs the WaitForDist -> Decode
// -> SnapshotCache -> Schedule -> Publish state machine on its own
// goroutine, standing in for the original's dedicated OS thread.
type SchedulingLoop struct {
	adapter   AppAdapter
	scheduler Scheduler
	tm        *TimeManager
	cache     *CacheSimulator

	distIn  *Mailbox[PredictorState]
	planOut *Mailbox[[]QueryIndex]

	utility        []float32
	blocksPerQuery []uint32

	continues      bool
	timeToConverge time.Duration

	stateChange atomic.Bool
	kill        atomic.Bool

	onFatal func(error)

	mu          sync.Mutex // guards lastDecoded, lastDistAt
	lastDecoded *prob.Prob
	haveDecoded bool
	lastDistAt  time.Time
}

// NewSchedulingLoop wires a scheduling loop. utility/blocksPerQuery come
// from AppAdapter.GetSchedulerConfig and are fixed for the session.
func NewSchedulingLoop(adapter AppAdapter, scheduler Scheduler, tm *TimeManager, cache *CacheSimulator, distIn *Mailbox[PredictorState], planOut *Mailbox[[]QueryIndex], utility []float32, blocksPerQuery []uint32, continues bool, timeToConverge time.Duration) *SchedulingLoop {
	return &SchedulingLoop{
		adapter:        adapter,
		scheduler:      scheduler,
		tm:             tm,
		cache:          cache,
		distIn:         distIn,
		planOut:        planOut,
		utility:        utility,
		blocksPerQuery: blocksPerQuery,
		continues:      continues,
		timeToConverge: timeToConverge,
	}
}

// RaiseStateChange marks that the app's state changed (e.g. a gallery
// layout swap); the next iteration resets the CacheSimulator.
func (s *SchedulingLoop) RaiseStateChange() { s.stateChange.Store(true) }

// Kill signals the loop to exit within one poll quantum.
func (s *SchedulingLoop) Kill() { s.kill.Store(true) }

// SetOnFatal registers a callback invoked, from this loop's own
// goroutine, when a distribution fails to decode. A malformed
// distribution is unrecoverable for the whole session, not just this
// loop, so the callback is the hook the owning session uses to tear
// the rest of the pipeline down and force the client to reconnect.
// Callers must not block in the callback.
func (s *SchedulingLoop) SetOnFatal(f func(error)) { s.onFatal = f }

// Run drives the loop until Kill is called. It is meant to be launched
// as its own goroutine: `go loop.Run()`.
func (s *SchedulingLoop) Run() {
	round := 0
	for {
		if s.kill.Load() {
			logrus.Debugf("scheduling loop: terminating at round %d", round)
			return
		}

		decoded, ok := s.waitForDist()
		if !ok {
			time.Sleep(time.Millisecond)
			continue
		}

		if s.stateChange.CompareAndSwap(true, false) {
			s.cache.Reset()
		}
		head, state := s.cache.GetState()
		stateInts := make([]int, len(state))
		copy(stateInts, state)

		plan, err := s.scheduler.Schedule(decoded, s.tm, s.utility, stateInts, s.blocksPerQuery, head)
		round++
		if err != nil || len(plan) == 0 {
			logrus.Warnf("scheduling loop round %d: empty plan (%v)", round, err)
			continue
		}

		s.planOut.Put(plan)
	}
}

// waitForDist polls for a fresh distribution and decodes it; if none
// is available and continues is set and timeToConverge has elapsed
// since the last decode, it reuses the last decoded distribution
// instead of stalling.
//
// A decode failure means the client sent a distribution the declared
// model can't parse — unrecoverable for this session, not a
// transient condition to retry past. It kills this loop and hands the
// error to onFatal so the session tears the rest of the pipeline down
// and the client is forced to reconnect.
func (s *SchedulingLoop) waitForDist() (*prob.Prob, bool) {
	if userState, ok := s.distIn.TryGet(); ok {
		decoded, err := s.adapter.DecodeDist(userState)
		if err != nil {
			logrus.Errorf("scheduling loop: decode_dist failed, ending session: %v", err)
			s.Kill()
			if s.onFatal != nil {
				s.onFatal(err)
			}
			return nil, false
		}
		s.mu.Lock()
		s.lastDecoded = decoded
		s.haveDecoded = true
		s.lastDistAt = time.Now()
		s.mu.Unlock()

		s.tm.UpdateDistRefTime(decoded.CreatedAt())
		return decoded, true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.continues && s.haveDecoded && time.Since(s.lastDistAt) > s.timeToConverge {
		s.lastDistAt = time.Now()
		return s.lastDecoded, true
	}
	return nil, false
}
