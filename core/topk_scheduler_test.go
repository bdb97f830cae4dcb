package core

import (
	"testing"

	"github.com/blockcast/blockcast/core/prob"
)

func TestTopKScheduler_ReturnsHighestImmediateProbability(t *testing.T) {
	const n = 5
	p := prob.New(n)
	p.SetProbsAt(map[int]float32{0: 0.05, 1: 0.6, 2: 0.05, 3: 0.05}, 0)

	blocksPerQuery := []uint32{2, 2, 2, 2, 2}
	state := make([]int, n)

	sched := NewTopKScheduler(2)
	plan, err := sched.Schedule(p, nil, nil, state, blocksPerQuery, 0)
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if len(plan) != 2 {
		t.Fatalf("plan length = %d, want 2", len(plan))
	}
	if plan[0] != QueryIndex(1) {
		t.Errorf("plan[0] = %d, want 1 (highest immediate probability)", plan[0])
	}
}

func TestTopKScheduler_SkipsExhaustedQueries(t *testing.T) {
	const n = 3
	p := prob.New(n)
	blocksPerQuery := []uint32{1, 1, 1}
	state := []int{1, 0, 1} // only query 1 has remaining capacity

	sched := NewTopKScheduler(3)
	plan, err := sched.Schedule(p, nil, nil, state, blocksPerQuery, 0)
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if len(plan) != 1 || plan[0] != QueryIndex(1) {
		t.Errorf("plan = %v, want [1]", plan)
	}
}

func TestTopKScheduler_AllExhaustedReturnsEmptyPlanError(t *testing.T) {
	p := prob.New(2)
	blocksPerQuery := []uint32{1, 1}
	state := []int{1, 1}

	sched := NewTopKScheduler(5)
	_, err := sched.Schedule(p, nil, nil, state, blocksPerQuery, 0)
	if err != ErrEmptyPlan {
		t.Errorf("err = %v, want ErrEmptyPlan", err)
	}
}
