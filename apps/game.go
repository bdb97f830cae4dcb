package apps

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/blockcast/blockcast/core"
	"github.com/blockcast/blockcast/core/prob"
	"github.com/blockcast/blockcast/internal/backend"
)

// GameConfig is the game app's portion of the /initapp "state" object:
// the Markov action-tree shape. Grounded on apps/game/game.rs.
type GameConfig struct {
	DBName       string `json:"dbname"`
	ActionsN     int    `json:"actionsn"`    // branching factor per decision point
	Future       int    `json:"future"`      // how many decisions ahead to enumerate
	LastActionID int    `json:"lastaction"`  // the action the player most recently took
}

// GameApp predicts future query demand from a Markov chain over a
// fixed action space: future queries are sequences of `future` actions,
// and their probability is the product of transition probabilities
// along that sequence. Grounded on apps/game/game.rs + gm.rs.
type GameApp struct {
	core.NoopExtras

	store        *backend.Store
	catalog      core.QueryCatalog
	utility      []float32
	blockSize    int
	blockCount   uint32
	actionsN     int
	future       int
	lastActionID int
	tick         uint64
}

// NewGame opens the backend store and builds the catalog/utility the
// scheduler needs. The catalog is read from the store: one query per
// stored key, in the store's iteration order.
func NewGame(dbPath string, cfg GameConfig, blockCount uint32) (*GameApp, error) {
	store, err := backend.Open(dbPath)
	if err != nil {
		return nil, err
	}

	keys, counts, err := store.CollectBlocksPerQuery()
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("apps: game catalog: %w", err)
	}

	return &GameApp{
		store:        store,
		catalog:      core.QueryCatalog{Keys: keys, BlocksPerQuery: counts},
		utility:      linearUtilityCurve(maxOf(counts)),
		blockSize:    blockSize(store, keys),
		blockCount:   blockCount,
		actionsN:     cfg.ActionsN,
		future:       cfg.Future,
		lastActionID: cfg.LastActionID,
	}, nil
}

func blockSize(store *backend.Store, keys []string) int {
	if len(keys) == 0 {
		return 0
	}
	blocks, err := store.Get(keys[0])
	if err != nil || len(blocks) == 0 {
		return 0
	}
	return len(blocks[0].Content)
}

// GetSchedulerConfig implements core.AppAdapter.
func (g *GameApp) GetSchedulerConfig() (core.QueryCatalog, []float32) {
	return g.catalog, g.utility
}

// DecodeDist implements core.AppAdapter: the "markov" model carries the
// transition matrix as a JSON 2D array, indexed [from][to]. Grounded on
// scheduler/decoders.rs's decode_markov.
func (g *GameApp) DecodeDist(userState core.PredictorState) (*prob.Prob, error) {
	if userState.Model != "markov" {
		return nil, fmt.Errorf("apps: game has no decode routine for model %q", userState.Model)
	}

	var transition [][]float64
	if err := json.Unmarshal(userState.Data, &transition); err != nil {
		return nil, fmt.Errorf("apps: decode markov transition matrix: %w", err)
	}

	g.tick++
	p := prob.New(g.catalog.Len())
	if err := decodeMarkov(transition, g.future, g.actionsN, g.catalog.Len(), g.lastActionID, g.tick, p); err != nil {
		return nil, err
	}
	return p, nil
}

// decodeMarkov assigns each query id (interpreted as a base-actionsN
// digit sequence of length `future`, canonicalized by sorting so
// action order within a lookahead window doesn't matter) the product
// of transition probabilities along that action sequence starting from
// lastActionID, and installs it as a single anchor at delta=0.
// Grounded on decoders.rs's decode_markov.
func decodeMarkov(transition [][]float64, future, actionsN, queriesN, lastActionID int, tick uint64, p *prob.Prob) error {
	if future <= 0 || actionsN <= 0 {
		return fmt.Errorf("apps: game decode_markov requires future>0, actionsN>0 (got %d, %d)", future, actionsN)
	}

	dist := make(map[int]float32)
	for qid := 0; qid < queriesN; qid++ {
		actions := make([]int, future)
		rem := qid
		for d := future - 1; d >= 0; d-- {
			pow := intPow(actionsN, d)
			actions[future-1-d] = rem / pow
			rem %= pow
		}
		sort.Ints(actions)

		var sortedQid int
		for d := 0; d < future; d++ {
			sortedQid += intPow(actionsN, future-1-d) * actions[d]
		}

		probMass := 1.0
		prevAction := lastActionID
		for _, a := range actions {
			if prevAction < 0 || prevAction >= len(transition) || a < 0 || a >= len(transition[prevAction]) {
				return fmt.Errorf("apps: game transition matrix missing entry [%d][%d]", prevAction, a)
			}
			probMass *= transition[prevAction][a]
			prevAction = a
		}

		tickedQid := int(tick)*intPow(10, future) + sortedQid
		dist[tickedQid] += float32(probMass)
	}

	p.SetProbsAt(dist, 0)
	return nil
}

func intPow(base, exp int) int {
	r := 1
	for i := 0; i < exp; i++ {
		r *= base
	}
	return r
}

// GetBlockSize implements core.AppAdapter.
func (g *GameApp) GetBlockSize() int { return g.blockSize }

// GetBlocksByIndex implements core.AppAdapter.
func (g *GameApp) GetBlocksByIndex(q core.QueryIndex, count, incache int) ([]core.Envelope, error) {
	if int(q) < 0 || int(q) >= g.catalog.Len() {
		return nil, core.ErrNoBlocks
	}
	return g.blocksFor(g.catalog.Keys[q], count, incache)
}

// GetBlocksByKey implements core.AppAdapter.
func (g *GameApp) GetBlocksByKey(key string, count, incache int) ([]core.Envelope, error) {
	if _, ok := g.catalog.IndexOf(key); !ok {
		return nil, core.ErrNoBlocks
	}
	return g.blocksFor(key, count, incache)
}

func (g *GameApp) blocksFor(key string, count, incache int) ([]core.Envelope, error) {
	blocks, err := g.store.Get(key)
	if err != nil {
		return nil, fmt.Errorf("apps: game blocks for %q: %w", key, core.ErrNoBlocks)
	}

	total := uint32(len(blocks))
	if g.blockCount > 0 && g.blockCount < total {
		total = g.blockCount
	}
	if incache >= int(total) {
		return nil, core.ErrNoBlocks
	}
	end := incache + count
	if end > int(total) {
		end = int(total)
	}

	out := make([]core.Envelope, 0, end-incache)
	for i := incache; i < end; i++ {
		out = append(out, core.Envelope{
			BlockID:     blocks[i].BlockID,
			TotalBlocks: total,
			Key:         []byte(key),
			Payload:     blocks[i].Content,
		})
	}
	return out, nil
}

// Shutdown implements core.AppAdapter.
func (g *GameApp) Shutdown() { _ = g.store.Close() }
