package core

// QueryIndex is the dense integer index assigned to a query at session
// start. The mapping between an application-defined string key and its
// QueryIndex is immutable for the session.
type QueryIndex int

// Block is an opaque refinement increment of a query's content. Block 0
// is the coarsest approximation; later blocks progressively refine it.
type Block struct {
	ID      uint32 // block_id within its query
	Query   QueryIndex
	Total   uint32 // total_blocks_in_query, B_q
	Payload []byte
}

// QueryCatalog is the ordered key<->index mapping and per-query block
// counts an AppAdapter hands the scheduler at session start
// (AppAdapter.GetSchedulerConfig).
type QueryCatalog struct {
	Keys            []string // Keys[i] is the application key for QueryIndex(i)
	BlocksPerQuery  []uint32 // BlocksPerQuery[i] = B_q for QueryIndex(i), B_q >= 1
}

// Len returns the number of queries in the catalog.
func (c *QueryCatalog) Len() int { return len(c.Keys) }

// IndexOf returns the QueryIndex for a key, and whether it was found.
func (c *QueryCatalog) IndexOf(key string) (QueryIndex, bool) {
	for i, k := range c.Keys {
		if k == key {
			return QueryIndex(i), true
		}
	}
	return 0, false
}

// MaxBlocksPerQuery returns the largest B_q across the catalog, i.e. the
// number of rows in the discretized utility vector a scheduler needs.
func (c *QueryCatalog) MaxBlocksPerQuery() uint32 {
	var max uint32
	for _, b := range c.BlocksPerQuery {
		if b > max {
			max = b
		}
	}
	return max
}

// DiscretizeUtility converts a non-decreasing utility curve U[0..] into
// the marginal vector u[i] = U[i] - U[i-1] (u[0] = U[0]) that the
// scheduler actually consumes, padded/truncated to maxBlocks entries.
//
// Grounded on the original scheduler's discretise_utility (scheduler/mod.rs):
// entries beyond the supplied curve are treated as zero marginal utility.
func DiscretizeUtility(utility []float32, maxBlocks uint32) []float32 {
	u := make([]float32, maxBlocks)
	for i := range u {
		switch {
		case i == 0:
			if len(utility) > 0 {
				u[0] = utility[0]
			}
		case i >= len(utility):
			u[i] = 0
		default:
			u[i] = utility[i] - utility[i-1]
		}
	}
	return u
}
