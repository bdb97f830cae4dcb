package core

import (
	"fmt"

	"github.com/blockcast/blockcast/core/prob"
)

// Scheduler produces an ordered plan of query indices from a Prob
// instance and the current cache state. The i-th element of the
// returned plan is the query whose next block should be sent at slot i.
// Implementations must not mutate the state slice passed in.
type Scheduler interface {
	// Schedule returns a plan of length <= horizon. state[q] is the
	// number of blocks of q already sent/cached; blocksPerQuery[q] is
	// B_q. startIdx is the current cache head (the ring buffer index
	// about to be overwritten, used by Greedy to size its horizon).
	Schedule(p *prob.Prob, tm *TimeManager, utility []float32, state []int, blocksPerQuery []uint32, startIdx int) ([]QueryIndex, error)
}

// IsValidSchedulerName reports whether name is a recognized scheduler.
func IsValidSchedulerName(name string) bool {
	switch name {
	case "", "greedy", "topk", "ilp":
		return true
	default:
		return false
	}
}

// NewScheduler is the scheduler factory: three variants satisfy the
// same Scheduler contract. batch bounds the per-round horizon; topK
// only matters for the "topk" variant. Panics on an unrecognized name
// — scheduler selection is a startup configuration error, fixed for
// the lifetime of a session (sessions do not hot-swap schedulers).
func NewScheduler(name string, batch, topK int) Scheduler {
	if !IsValidSchedulerName(name) {
		panic(fmt.Sprintf("core: unknown scheduler %q", name))
	}
	switch name {
	case "", "greedy":
		return NewGreedyScheduler(batch)
	case "topk":
		return NewTopKScheduler(topK)
	case "ilp":
		return NewILPScheduler(batch)
	default:
		panic(fmt.Sprintf("core: unhandled scheduler %q", name))
	}
}
