package apps

import (
	"encoding/json"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/blockcast/blockcast/core"
	"github.com/blockcast/blockcast/core/prob"
	"github.com/blockcast/blockcast/internal/backend"
)

// GalleryConfig is the gallery's portion of the init "state" object:
// {"dbname": string, "factor": int, "dimension": int}.
// Grounded on gallery.rs's `new` config extraction.
type GalleryConfig struct {
	DBName    string `json:"dbname"`
	Dimension int    `json:"dimension"`
	Factor    int    `json:"factor"`
}

// DefaultGalleryConfig mirrors the original's hardcoded fallbacks.
func DefaultGalleryConfig() GalleryConfig {
	return GalleryConfig{DBName: "db_default_f10", Dimension: 600, Factor: 10}
}

// GalleryApp serves a factor x factor grid of progressively refinable
// image tiles, predicting future tile requests from a Gaussian field
// over pixel space. Grounded on apps/gallery/gallery.rs's GalleryApp.
type GalleryApp struct {
	core.NoopExtras

	store      *backend.Store
	layout     Layout
	catalog    core.QueryCatalog
	layoutMat  *mat.Dense
	utility    []float32
	blockSize  int
	blockCount uint32
	fakeBlocks FakeBlockMode
	maxBlocks  uint32
}

// NewGallery opens (or reuses) the bbolt store at dbPath and builds the
// catalog, layout matrix, and utility curve the scheduler needs.
func NewGallery(dbPath string, cfg GalleryConfig, blockCount uint32, fakeBlocks FakeBlockMode) (*GalleryApp, error) {
	store, err := backend.Open(dbPath)
	if err != nil {
		return nil, err
	}

	keys, counts, err := store.CollectBlocksPerQuery()
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("apps: gallery catalog: %w", err)
	}

	layout := NewLayout(float64(cfg.Dimension), uint32(cfg.Factor))
	layoutMat, err := layout.Matrix(keys)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("apps: gallery layout matrix: %w", err)
	}

	blockSize := 0
	if len(keys) > 0 {
		if blocks, err := store.Get(keys[0]); err == nil && len(blocks) > 0 {
			blockSize = len(blocks[0].Content)
		}
	}

	return &GalleryApp{
		store:      store,
		layout:     layout,
		catalog:    core.QueryCatalog{Keys: keys, BlocksPerQuery: counts},
		layoutMat:  layoutMat,
		utility:    linearUtilityCurve(maxOf(counts)),
		blockSize:  blockSize,
		blockCount: blockCount,
		fakeBlocks: fakeBlocks,
		maxBlocks:  maxOf(counts),
	}, nil
}

// linearUtilityCurve is the commented-out alternative formula in
// gallery.rs's `new` (in place of its hardcoded 49-entry table):
// U[i] = (i+1)/maxBlocks, a linear ramp to 1.0.
func linearUtilityCurve(maxBlocks uint32) []float32 {
	if maxBlocks == 0 {
		return nil
	}
	u := make([]float32, maxBlocks)
	for i := range u {
		u[i] = float32(i+1) / float32(maxBlocks)
	}
	return u
}

func maxOf(vals []uint32) uint32 {
	var m uint32
	for _, v := range vals {
		if v > m {
			m = v
		}
	}
	return m
}

// GetSchedulerConfig implements core.AppAdapter.
func (g *GalleryApp) GetSchedulerConfig() (core.QueryCatalog, []float32) {
	return g.catalog, g.utility
}

// DecodeDist implements core.AppAdapter: "GM" is a raw Gaussian field,
// "LGP" overlays a cursor-sampled point distribution on top of one.
// Grounded on layout.rs's decode_dist.
func (g *GalleryApp) DecodeDist(userState core.PredictorState) (*prob.Prob, error) {
	switch userState.Model {
	case "GM":
		return decodeGaussianModel(userState.Data, g.layoutMat, g.catalog.Len())
	case "LGP":
		return decodeLinearPointGaussian(userState.Data, g.layout, g.layoutMat, g.catalog.Len(), g.catalog.IndexOf)
	default:
		return nil, fmt.Errorf("apps: gallery has no decode routine for model %q", userState.Model)
	}
}

// GetBlockSize implements core.AppAdapter.
func (g *GalleryApp) GetBlockSize() int { return g.blockSize }

// GetBlocksByIndex implements core.AppAdapter. When a bandwidth
// emulator toggle (use_mahimahi/use_netem) is set, it emits a single
// zero-filled fake block instead of reading real tile bytes, so the
// emulator can measure transfer timing without touching the backend.
func (g *GalleryApp) GetBlocksByIndex(q core.QueryIndex, count, incache int) ([]core.Envelope, error) {
	if int(q) < 0 || int(q) >= g.catalog.Len() {
		return nil, core.ErrNoBlocks
	}
	key := g.catalog.Keys[q]
	if g.fakeBlocks.Enabled() {
		return g.fakeBlocksFor(key, incache)
	}
	return g.blocksFor(key, count, incache)
}

// GetBlocksByKey implements core.AppAdapter's scheduler-bypass fetch.
func (g *GalleryApp) GetBlocksByKey(key string, count, incache int) ([]core.Envelope, error) {
	if _, ok := g.catalog.IndexOf(key); !ok {
		return nil, core.ErrNoBlocks
	}
	return g.blocksFor(key, count, incache)
}

func (g *GalleryApp) blocksFor(key string, count, incache int) ([]core.Envelope, error) {
	blocks, err := g.store.Get(key)
	if err != nil {
		return nil, fmt.Errorf("apps: gallery blocks for %q: %w", key, core.ErrNoBlocks)
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

// fakeBlocksFor builds one zero-filled block standing in for the real
// tile content, numbered incache, capped at the gallery's widest
// catalog entry. Grounded on gallery.rs's get_fake_block_bytes.
func (g *GalleryApp) fakeBlocksFor(key string, incache int) ([]core.Envelope, error) {
	if uint32(incache) >= g.maxBlocks {
		return nil, core.ErrNoBlocks
	}
	return []core.Envelope{{
		BlockID:     uint32(incache),
		TotalBlocks: g.maxBlocks,
		Key:         []byte(key),
		Payload:     make([]byte, g.blockSize),
	}}, nil
}

// Shutdown implements core.AppAdapter: releases the backend store.
func (g *GalleryApp) Shutdown() {
	_ = g.store.Close()
}

// GetInitState implements core.AppAdapter: the client receives the
// grid dimensions back so it can build its own pixel->tile mapping.
func (g *GalleryApp) GetInitState() string {
	b, _ := json.Marshal(struct {
		Factor    uint32 `json:"factor"`
		Dimension int    `json:"dimension"`
	}{Factor: g.layout.Factor, Dimension: int(g.layout.DimensionPx)})
	return string(b)
}
