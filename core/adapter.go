package core

import "github.com/blockcast/blockcast/core/prob"

// AppAdapter is the uniform contract any concrete application (gallery,
// game) implements for the core. The core is indifferent to what a
// query means — it only sees QueryCatalog entries and Envelope bytes.
type AppAdapter interface {
	// GetSchedulerConfig returns the query catalog and the non-discretized
	// utility curve U[0..B_max] the scheduler will discretize.
	GetSchedulerConfig() (QueryCatalog, []float32)

	// DecodeDist decodes a client distribution update into a Prob
	// instance. A malformed distribution is fatal for the session: the
	// caller tears the pipeline down and the client is expected to
	// retry by reconnecting, rather than having scheduling silently
	// stall on bad input.
	DecodeDist(userState PredictorState) (*prob.Prob, error)

	// GetBlockSize returns the size of a block in bytes.
	GetBlockSize() int

	// GetBlocksByIndex retrieves up to count blocks of the query at
	// QueryIndex, starting at block incache (the number already cached).
	// Returns ErrNoBlocks (wrapped) if none are available.
	GetBlocksByIndex(q QueryIndex, count, incache int) ([]Envelope, error)

	// GetBlocksByKey is the optional synchronous single-key fetch used
	// by the scheduler-bypass endpoint. The default AppAdapter embed
	// (NoopExtras) returns ErrNoBlocks.
	GetBlocksByKey(key string, count, incache int) ([]Envelope, error)

	// Shutdown flushes and releases any resources (block store handles,
	// log writers) before session teardown.
	Shutdown()

	// GetInitState returns opaque data to initialize the client's state,
	// sent back in the init response.
	GetInitState() string

	// PrepareSchedule lets the adapter apply application-specific
	// policy to a freshly produced plan; the SenderLoop calls it with
	// each fresh plan before sending from it. The adapter can reorder or
	// overwrite entries in place; it cannot add entries, since nothing
	// is returned.
	PrepareSchedule(plan []QueryIndex)
}

// PredictorState mirrors a client-pushed distribution update: an
// application-chosen model name plus model-specific JSON data.
type PredictorState struct {
	Model string
	Data  []byte // raw JSON; application-defined shape
}

// NoopExtras implements AppAdapter's optional hooks with inert
// defaults. Concrete adapters embed it and override only what they
// need.
type NoopExtras struct{}

func (NoopExtras) GetBlocksByKey(_ string, _, _ int) ([]Envelope, error) { return nil, ErrNoBlocks }
func (NoopExtras) Shutdown()                                            {}
func (NoopExtras) GetInitState() string                                 { return "" }
func (NoopExtras) PrepareSchedule(_ []QueryIndex)                       {}
