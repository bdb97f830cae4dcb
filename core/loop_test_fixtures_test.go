package core

import (
	"fmt"

	"github.com/blockcast/blockcast/core/prob"
)

// fixtureAdapter is a minimal in-memory AppAdapter used across the
// scheduling/sender loop tests. Each query has a fixed block count;
// every block is numbered by incache and carries an 8-byte zero-filled
// payload.
type fixtureAdapter struct {
	NoopExtras
	catalog      QueryCatalog
	utility      []float32
	blockSize    int
	decodeCalls  int
	decodeErr    error
	prepareCalls [][]QueryIndex
}

func newFixtureAdapter(n int, blocksPerQuery uint32) *fixtureAdapter {
	keys := make([]string, n)
	bpq := make([]uint32, n)
	for i := range keys {
		keys[i] = fmt.Sprintf("q%d", i)
		bpq[i] = blocksPerQuery
	}
	return &fixtureAdapter{
		catalog:   QueryCatalog{Keys: keys, BlocksPerQuery: bpq},
		utility:   []float32{0.5, 1.0},
		blockSize: 1024,
	}
}

func (f *fixtureAdapter) GetSchedulerConfig() (QueryCatalog, []float32) {
	return f.catalog, f.utility
}

func (f *fixtureAdapter) DecodeDist(_ PredictorState) (*prob.Prob, error) {
	f.decodeCalls++
	if f.decodeErr != nil {
		return nil, f.decodeErr
	}
	return prob.New(f.catalog.Len()), nil
}

func (f *fixtureAdapter) GetBlockSize() int { return f.blockSize }

func (f *fixtureAdapter) GetBlocksByIndex(q QueryIndex, count, incache int) ([]Envelope, error) {
	if int(q) >= f.catalog.Len() {
		return nil, ErrNoBlocks
	}
	return []Envelope{{
		BlockID:     uint32(incache),
		TotalBlocks: f.catalog.BlocksPerQuery[q],
		Key:         []byte(f.catalog.Keys[q]),
		Payload:     make([]byte, 8),
	}}, nil
}

func (f *fixtureAdapter) PrepareSchedule(plan []QueryIndex) {
	f.prepareCalls = append(f.prepareCalls, plan)
}

// recordingSink captures every payload handed to Send.
type recordingSink struct {
	sent [][]byte
	fail bool
}

func (r *recordingSink) Send(envelope []byte) error {
	if r.fail {
		return fmt.Errorf("sink: forced failure")
	}
	r.sent = append(r.sent, envelope)
	return nil
}
