package core

import (
	"sort"

	"github.com/blockcast/blockcast/core/prob"
)

// TopKScheduler returns the k queries with the highest immediate
// arrival probability P(q, 0), sorted descending. It ignores utility;
// state is used only to skip queries whose blocks have all been sent —
// it is a baseline, not the novel contribution.
// Grounded on scheduler/topk.rs's TopKScheduler.
//
// The original's trailing padding push (plan[0] - (plan[0] % 10^F) + K)
// had no documented purpose and depended on future-specific constants;
// it is replaced here by the AppAdapter.PrepareSchedule hook, which the
// SenderLoop calls with each fresh plan. The hook can rewrite entries
// in place but cannot lengthen the plan.
type TopKScheduler struct {
	k int
}

// NewTopKScheduler creates a TopK scheduler returning at most k queries.
func NewTopKScheduler(k int) *TopKScheduler {
	if k <= 0 {
		k = 10
	}
	return &TopKScheduler{k: k}
}

// Schedule implements Scheduler.
func (s *TopKScheduler) Schedule(p *prob.Prob, _ *TimeManager, _ []float32, state []int, blocksPerQuery []uint32, _ int) ([]QueryIndex, error) {
	n := len(blocksPerQuery)
	if n == 0 {
		return nil, nil
	}

	type scored struct {
		q QueryIndex
		p float32
	}
	candidates := make([]scored, 0, n)
	for q := 0; q < n; q++ {
		if state[q] >= int(blocksPerQuery[q]) {
			continue
		}
		candidates = append(candidates, scored{q: QueryIndex(q), p: p.Get(q, 0)})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].p > candidates[j].p
	})

	k := s.k
	if k > len(candidates) {
		k = len(candidates)
	}
	if k == 0 {
		return nil, ErrEmptyPlan
	}

	plan := make([]QueryIndex, k)
	for i := 0; i < k; i++ {
		plan[i] = candidates[i].q
	}
	return plan, nil
}
