// Package apps holds the reference AppAdapter implementations the core
// is otherwise indifferent to: a gallery app driven by a
// Gaussian-over-layout point decoder, and a game app driven by a
// Markov-chain action-tree decoder. Both are external collaborators —
// the core only consumes the core.AppAdapter contract.
package apps

import (
	"encoding/json"

	"gonum.org/v1/gonum/mat"
)

// Query is the gallery's application-defined key: a tile coordinate in
// a factor x factor grid. Grounded on apps/gallery/gallery.rs's Query.
type Query struct {
	X uint32 `json:"x"`
	Y uint32 `json:"y"`
}

// EncodeKey renders q as the JSON string used as its catalog key,
// mirroring gallery.rs's GalleryApp::encode_key (serde_json::to_string).
func EncodeKey(q Query) string {
	b, _ := json.Marshal(q)
	return string(b)
}

// DecodeKey parses a catalog key back into a Query.
func DecodeKey(key string) (Query, error) {
	var q Query
	err := json.Unmarshal([]byte(key), &q)
	return q, err
}

// Layout maps pixel coordinates to grid tiles and builds the per-query
// bounding-box matrix the Gaussian decoder integrates over. Grounded on
// apps/gallery/layout.rs's Layout.
type Layout struct {
	DimensionPx float64
	Factor      uint32
	TileDim     float64
}

// NewLayout creates a Layout for a dimensionPx x dimensionPx gallery
// split into factor x factor tiles.
func NewLayout(dimensionPx float64, factor uint32) Layout {
	return Layout{
		DimensionPx: dimensionPx,
		Factor:      factor,
		TileDim:     dimensionPx / float64(factor),
	}
}

// PixelToQuery converts a client cursor position into the tile Query
// that contains it.
func (l Layout) PixelToQuery(x, y float64) Query {
	return Query{
		X: uint32(x / l.TileDim),
		Y: uint32(y / l.TileDim),
	}
}

// Matrix builds the nqueries x 4 bounding-box matrix (x_min, x_max,
// y_min, y_max) the Gaussian decoder's box-probability integral reads,
// one row per catalog key in order. Grounded on layout.rs's get_layout.
func (l Layout) Matrix(keys []string) (*mat.Dense, error) {
	m := mat.NewDense(len(keys), 4, nil)
	for i, key := range keys {
		q, err := DecodeKey(key)
		if err != nil {
			return nil, err
		}
		xMin := float64(q.X) * l.TileDim
		yMin := float64(q.Y) * l.TileDim
		xMax := float64(q.X+1) * l.TileDim
		yMax := float64(q.Y+1) * l.TileDim
		m.SetRow(i, []float64{xMin, xMax, yMin, yMax})
	}
	return m, nil
}
