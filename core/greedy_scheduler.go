package core

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/blockcast/blockcast/core/prob"
)

// GreedyScheduler is the primary scheduler variant: it integrates
// per-query arrival probability over each future slot, weights by
// marginal utility, and samples (rather than maximizes) proportional to
// utility*probability so low-but-nonzero-probability queries are not
// starved. Grounded on scheduler/greedy.rs's GreedyScheduler/greedy_p.
type GreedyScheduler struct {
	batch int
	rng   *rand.Rand
}

// NewGreedyScheduler creates a Greedy scheduler with the given per-round
// slot cap (batch).
func NewGreedyScheduler(batch int) *GreedyScheduler {
	if batch <= 0 {
		batch = 100
	}
	return &GreedyScheduler{batch: batch, rng: rand.New(rand.NewSource(1))}
}

// Schedule implements Scheduler. Horizon = min(cachesize - startIdx,
// batch); cachesize is inferred from len(state) via the cache capacity
// convention that the caller sizes state to the client cache capacity C.
func (g *GreedyScheduler) Schedule(p *prob.Prob, tm *TimeManager, utility []float32, state []int, blocksPerQuery []uint32, startIdx int) ([]QueryIndex, error) {
	n := len(blocksPerQuery)
	if n == 0 {
		return nil, nil
	}

	cachesize := len(state)
	horizon := cachesize - startIdx
	if horizon > g.batch {
		horizon = g.batch
	}
	if horizon <= 0 {
		return nil, nil
	}

	m := g.integrateProbs(p, tm, n, horizon)

	// copy state so we don't mutate the caller's slice
	st := make([]int, n)
	copy(st, state)

	plan := make([]QueryIndex, 0, horizon)
	rewards := make([]float32, n)

	for t := 0; t < horizon; t++ {
		var sum float32
		for q := 0; q < n; q++ {
			if st[q] < int(blocksPerQuery[q]) && st[q] < len(utility) {
				rewards[q] = utility[st[q]] * float32(m.At(q, t))
				sum += rewards[q]
			} else {
				rewards[q] = 0
			}
		}
		if sum <= 0 {
			break
		}

		qid := weightedSample(g.rng, rewards, sum)
		if st[qid] < len(utility) {
			plan = append(plan, QueryIndex(qid))
			st[qid]++
		}
	}

	if len(plan) == 0 {
		return nil, ErrEmptyPlan
	}
	return plan, nil
}

// integrateProbs builds M[q,t] = Prob.IntegrateOverRange(q, delta_t,
// horizon_delta, low_t) for t in [0,horizon). Queries not in
// Prob.GetK() share one precomputed "rest" row to avoid redundant work
// when N is large.
func (g *GreedyScheduler) integrateProbs(p *prob.Prob, tm *TimeManager, n, horizon int) *mat.Dense {
	deltas := make([]int, horizon)
	lows := make([]int, horizon)
	for t := 0; t < horizon; t++ {
		deltas[t] = int(tm.SlotToClientDelta(t))
		lows[t] = p.GetLowerBound(deltas[t])
	}
	horizonDelta := int(tm.SlotToClientDelta(horizon))

	m := mat.NewDense(n, horizon, nil)
	inK := p.GetK()

	var restRow []float64
	for q := 0; q < n; q++ {
		if _, explicit := inK[q]; explicit {
			for t := 0; t < horizon; t++ {
				m.Set(q, t, float64(p.IntegrateOverRange(q, deltas[t], horizonDelta, lows[t])))
			}
			continue
		}
		if restRow == nil {
			restRow = make([]float64, horizon)
			for t := 0; t < horizon; t++ {
				restRow[t] = float64(p.IntegrateOverRange(q, deltas[t], horizonDelta, lows[t]))
			}
		}
		m.SetRow(q, restRow)
	}
	return m
}

// weightedSample performs weighted-index sampling over non-negative
// weights summing to sum (> 0), mirroring WeightedIndex::sample in the
// original (a linear scan for the first cumulative weight above a
// uniform draw in [0, sum)).
func weightedSample(rng *rand.Rand, weights []float32, sum float32) int {
	r := rng.Float32() * sum
	var cum float32
	for i, w := range weights {
		cum += w
		if r < cum {
			return i
		}
	}
	return len(weights) - 1
}
