package core

import (
	"fmt"
	"testing"
	"time"
)

func TestSchedulingLoop_PublishesPlanOnFreshDistribution(t *testing.T) {
	adapter := newFixtureAdapter(4, 2)
	tm := NewTimeManager(10, 100)
	tm.UpdateBlockSizeMegabits(0.01)
	cache := NewCacheSimulator(8, 4)
	sched := NewGreedyScheduler(100)

	distIn := &Mailbox[PredictorState]{}
	planOut := &Mailbox[[]QueryIndex]{}

	loop := NewSchedulingLoop(adapter, sched, tm, cache, distIn, planOut, adapter.utility, adapter.catalog.BlocksPerQuery, false, 300*time.Millisecond)

	go loop.Run()
	defer loop.Kill()

	distIn.Put(PredictorState{Model: "test"})

	deadline := time.After(time.Second)
	for {
		if plan, ok := planOut.TryGet(); ok {
			if len(plan) == 0 {
				t.Fatal("published an empty plan")
			}
			return
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for a published plan")
		case <-time.After(time.Millisecond):
		}
	}
}

func TestSchedulingLoop_StopsWithinOnePollAfterKill(t *testing.T) {
	adapter := newFixtureAdapter(2, 1)
	tm := NewTimeManager(10, 100)
	cache := NewCacheSimulator(4, 2)
	sched := NewGreedyScheduler(10)

	distIn := &Mailbox[PredictorState]{}
	planOut := &Mailbox[[]QueryIndex]{}
	loop := NewSchedulingLoop(adapter, sched, tm, cache, distIn, planOut, adapter.utility, adapter.catalog.BlocksPerQuery, false, 300*time.Millisecond)

	done := make(chan struct{})
	go func() {
		loop.Run()
		close(done)
	}()

	loop.Kill()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("loop did not exit after Kill")
	}
}

func TestSchedulingLoop_DecodeFailureKillsLoopAndCallsOnFatal(t *testing.T) {
	adapter := newFixtureAdapter(2, 1)
	adapter.decodeErr = fmt.Errorf("malformed distribution")
	tm := NewTimeManager(10, 100)
	cache := NewCacheSimulator(4, 2)
	sched := NewGreedyScheduler(10)

	distIn := &Mailbox[PredictorState]{}
	planOut := &Mailbox[[]QueryIndex]{}
	loop := NewSchedulingLoop(adapter, sched, tm, cache, distIn, planOut, adapter.utility, adapter.catalog.BlocksPerQuery, false, 300*time.Millisecond)

	fatalCh := make(chan error, 1)
	loop.SetOnFatal(func(err error) { fatalCh <- err })

	done := make(chan struct{})
	go func() {
		loop.Run()
		close(done)
	}()

	distIn.Put(PredictorState{Model: "test"})

	select {
	case err := <-fatalCh:
		if err == nil {
			t.Fatal("onFatal called with nil error")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for onFatal")
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("loop did not exit after a decode failure")
	}
}
