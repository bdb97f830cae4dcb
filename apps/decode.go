package apps

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"github.com/blockcast/blockcast/core"
	"github.com/blockcast/blockcast/core/prob"
)

// gaussianParams is one time-keyed entry of a "GM"-model distribution
// update: an independent 2D Gaussian over pixel space at a given
// millisecond offset. Grounded on scheduler/decoders.rs's decode_model.
type gaussianParams struct {
	XMu    float64 `json:"xmu"`
	YMu    float64 `json:"ymu"`
	XSigma float64 `json:"xsigma"`
	YSigma float64 `json:"ysigma"`
}

// normCDF is the standard normal CDF evaluated at x for a Gaussian with
// mean mu and stdev sigma, via math.Erf — the pack has no ecosystem erf
// library (statrs's erf/erfc in the original has no Go counterpart in
// the retrieval pack), so this uses the standard library (see DESIGN.md).
func normCDF(x, mu, sigma float64) float64 {
	z := (x - mu) / (sigma * math.Sqrt2)
	return 0.5 * (1.0 + math.Erf(z))
}

// boxProbability returns P(xMin<=X<=xMax, yMin<=Y<=yMax) for
// independent Gaussians (Xmu,Xsigma) and (Ymu,Ysigma), the box
// probability difference-of-CDFs identity scheduler/decoders.rs's
// cdf_array builds up via four column CDFs.
func boxProbability(xMin, xMax, yMin, yMax float64, p gaussianParams) float32 {
	cxMin := normCDF(xMin, p.XMu, p.XSigma)
	cxMax := normCDF(xMax, p.XMu, p.XSigma)
	cyMin := normCDF(yMin, p.YMu, p.YSigma)
	cyMax := normCDF(yMax, p.YMu, p.YSigma)
	return float32(cxMax*cyMax - cxMax*cyMin - cxMin*cyMax + cxMin*cyMin)
}

// decodeGaussianModel decodes a "GM" distribution update: a JSON object
// keyed by millisecond-offset strings, each mapping to a gaussianParams.
// layout is the nqueries x 4 bounding-box matrix from Layout.Matrix.
// Grounded on decoders.rs's decode_model, adapted from ndarray column
// ops to a row-at-a-time gonum walk.
func decodeGaussianModel(data json.RawMessage, layout *mat.Dense, totalQueries int) (*prob.Prob, error) {
	var raw map[string]gaussianParams
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("apps: decode GM distribution: %w", err)
	}

	p := prob.New(totalQueries)
	epsilon := float32(1.0 / float64(totalQueries))

	for timeStr, params := range raw {
		delta, err := strconv.Atoi(timeStr)
		if err != nil {
			return nil, fmt.Errorf("apps: GM distribution time key %q: %w", timeStr, err)
		}

		rows, _ := layout.Dims()
		dist := make(map[int]float32, rows)
		maxIdx, maxVal := -1, float32(0)
		var sum float32
		for i := 0; i < rows; i++ {
			xMin, xMax, yMin, yMax := layout.At(i, 0), layout.At(i, 1), layout.At(i, 2), layout.At(i, 3)
			v := boxProbability(xMin, xMax, yMin, yMax, params)
			if v < epsilon {
				continue
			}
			dist[i] = v
			sum += v
			if v > maxVal {
				maxVal = v
				maxIdx = i
			}
		}
		if sum < 1.0 && maxIdx >= 0 {
			dist[maxIdx] += 1.0 - sum
		}
		p.SetProbsAt(dist, delta)
	}

	return p, nil
}

// pointModel is the point-overlay payload of an "LGP" (linear-gaussian
// point) distribution update: an (alpha, X, Y) cursor sample blended
// with an underlying Gaussian field. Grounded on decode_point_model.
type pointModel struct {
	Alpha *float64 `json:"a"`
	X     float64  `json:"X"`
	Y     float64  `json:"Y"`
}

func (p pointModel) alpha() float64 {
	if p.Alpha != nil {
		return *p.Alpha
	}
	return 1.0
}

// linearPointGaussian is the "LGP" wire payload: a point sample (p)
// overlaid on a Gaussian field (g). Grounded on decoders.rs's
// LinearPointGaussian.
type linearPointGaussian struct {
	P pointModel      `json:"p"`
	G json.RawMessage `json:"g"`
}

// decodeLinearPointGaussian decodes an "LGP" distribution update: the
// underlying Gaussian field from g, overlaid with a point distribution
// derived from the cursor sample in p. indexOf resolves a tile Query's
// key to its catalog index (0, alpha=1 if the cursor falls outside the
// catalog). Grounded on layout.rs's decode_dist "LGP" arm.
func decodeLinearPointGaussian(data json.RawMessage, layout Layout, layoutMatrix *mat.Dense, totalQueries int, indexOf func(key string) (core.QueryIndex, bool)) (*prob.Prob, error) {
	var env struct {
		Dist linearPointGaussian `json:"dist"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("apps: decode LGP distribution: %w", err)
	}

	alpha := env.Dist.P.alpha()
	key := EncodeKey(layout.PixelToQuery(env.Dist.P.X, env.Dist.P.Y))
	index, ok := indexOf(key)
	if !ok {
		alpha = 1.0
		index = 0
	}

	p, err := decodeGaussianModel(env.Dist.G, layoutMatrix, totalQueries)
	if err != nil {
		return nil, err
	}
	p.SetPointDist(float32(alpha), int(index))
	return p, nil
}
