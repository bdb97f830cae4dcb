package core

import "github.com/blockcast/blockcast/core/prob"

// ILPScheduler is the reference-only scheduler variant used for offline
// quality comparisons, not the hot path. The original formulates
// a binary assignment a[q,b,t] maximizing the big-U reward matrix under
// (i) at most one block per slot and (ii) each (q,b) scheduled once,
// solved with an external MILP solver (scheduler/ilp.rs, lp_modeler +
// Gurobi). No MILP solver library appears anywhere in the example
// corpus, so rather than fabricate a dependency this computes the same
// big-U reward matrix and resolves it with a deterministic greedy
// assignment: at each slot, assign the (query, next-block) pair with
// the highest remaining reward whose query hasn't already filled that
// slot's worth of blocks. This is an approximation of the optimum, only
// intended for relative quality comparisons against Greedy/TopK offline.
type ILPScheduler struct {
	cachesize int
}

// NewILPScheduler creates a reference ILP scheduler with the given
// horizon cap (cachesize, in the original's terms).
func NewILPScheduler(cachesize int) *ILPScheduler {
	if cachesize <= 0 {
		cachesize = 100
	}
	return &ILPScheduler{cachesize: cachesize}
}

// Schedule implements Scheduler. Grounded on ilp.rs's compute_big_u: for
// each query, p_sums[t] is the tail-sum of P(q, slot_to_client_delta(k))
// for k>=t, and big_u[q,b,t] = utility[b] * p_sums[t].
func (s *ILPScheduler) Schedule(p *prob.Prob, tm *TimeManager, utility []float32, state []int, blocksPerQuery []uint32, _ int) ([]QueryIndex, error) {
	n := len(blocksPerQuery)
	if n == 0 || len(utility) == 0 {
		return nil, nil
	}

	horizon := s.cachesize
	maxBlocks := len(utility)

	// p_sums[q][t] = tail sum of P(q, delta(k)) for k in [t, horizon)
	pSums := make([][]float32, n)
	for q := 0; q < n; q++ {
		raw := make([]float32, horizon)
		for t := 0; t < horizon; t++ {
			raw[t] = p.Get(q, int(tm.SlotToClientDelta(t)))
		}
		tail := make([]float32, horizon)
		var running float32
		for t := horizon - 1; t >= 0; t-- {
			running += raw[t]
			tail[t] = running
		}
		pSums[q] = tail
	}

	st := make([]int, n)
	copy(st, state)

	plan := make([]QueryIndex, 0, horizon)
	usedSlot := make([]bool, horizon)

	for t := 0; t < horizon; t++ {
		if usedSlot[t] {
			continue
		}
		bestQ := -1
		var bestReward float32
		for q := 0; q < n; q++ {
			b := st[q]
			if b >= int(blocksPerQuery[q]) || b >= maxBlocks {
				continue
			}
			reward := utility[b] * pSums[q][t]
			if bestQ == -1 || reward > bestReward {
				bestQ = q
				bestReward = reward
			}
		}
		if bestQ == -1 || bestReward <= 0 {
			continue
		}
		plan = append(plan, QueryIndex(bestQ))
		st[bestQ]++
		usedSlot[t] = true
	}

	if len(plan) == 0 {
		return nil, ErrEmptyPlan
	}
	return plan, nil
}
