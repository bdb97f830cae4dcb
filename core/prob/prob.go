// Package prob implements the piecewise-linear, time-indexed
// probability model that the scheduler integrates over.
//
// A Prob instance holds a sparse set of time anchors — each a mapping
// from query index to probability at a given millisecond offset — plus
// a uniform fallback and an optional point-distribution overlay. Prob
// owns all interpolation and integration; distribution decoders only
// produce anchors (ds.rs / scheduler/prob.rs in the original).
package prob

import (
	"math"
	"sort"
	"time"
)

// anchor is one (delta, explicit probabilities) sample. restDist is the
// uniform share every query not present in explicit gets:
// (1 - sum(explicit)) / totalQueries.
type anchor struct {
	explicit map[int]float32
	restDist float32
}

func (a anchor) get(key int) float32 {
	if v, ok := a.explicit[key]; ok {
		return float32(math.Abs(float64(v)))
	}
	return a.restDist
}

func (a anchor) keys() []int {
	ks := make([]int, 0, len(a.explicit))
	for k := range a.explicit {
		ks = append(ks, k)
	}
	return ks
}

// pointDist is the optional overlay blended with the anchor-derived
// probability: P(q,t) = alpha*anchorP(q,t) + (1-alpha)*delta(q==qIndex).
type pointDist struct {
	alpha   float32
	qIndex  int
}

func (p pointDist) get(key int) float32 {
	if key == p.qIndex {
		return 1.0
	}
	return 0.0
}

// Prob models P(query = q at time t ms in the future) as a piecewise
// linear function per query between sparse time anchors, with a point
// overlay blended in. It is produced fresh by an AppAdapter per client
// distribution update and consumed by exactly one scheduling round —
// not safe for concurrent mutation, safe for concurrent reads once
// built.
type Prob struct {
	totalQueries int
	anchors      map[int]anchor
	deltasMs     []int // kept sorted; mirrors the original's BTreeSet<usize>
	inf          float32
	createdAt    time.Time
	point        pointDist
}

// New creates a Prob for an application that supports totalQueries
// distinct queries, with no anchors installed (uniform 1/N fallback)
// and a point overlay pinned at query 0 with alpha=1 (i.e. inert —
// alpha=1 means the overlay contributes nothing until SetPointDist is
// called with a smaller alpha).
func New(totalQueries int) *Prob {
	return &Prob{
		totalQueries: totalQueries,
		anchors:      make(map[int]anchor),
		inf:          1.0 / float32(totalQueries),
		createdAt:    time.Now(),
		point:        pointDist{alpha: 1.0, qIndex: 0},
	}
}

// CreatedAt returns the instant this Prob was constructed — the
// "model time" instant the scheduling loop writes back into the
// TimeManager as the new distribution reference.
func (p *Prob) CreatedAt() time.Time { return p.createdAt }

// SetProbsAt installs an anchor at delta ms with explicit probabilities
// for a subset of queries. Queries absent from dist share the uniform
// rest probability (1 - sum(dist)) / totalQueries.
func (p *Prob) SetProbsAt(dist map[int]float32, delta int) {
	var sum float32
	for _, v := range dist {
		sum += v
	}
	rest := (1.0 - sum) / float32(p.totalQueries)

	explicit := make(map[int]float32, len(dist))
	for k, v := range dist {
		explicit[k] = v
	}
	p.anchors[delta] = anchor{explicit: explicit, restDist: rest}
	p.insertDeltaSorted(delta)
}

func (p *Prob) insertDeltaSorted(delta int) {
	i := sort.SearchInts(p.deltasMs, delta)
	if i < len(p.deltasMs) && p.deltasMs[i] == delta {
		return
	}
	p.deltasMs = append(p.deltasMs, 0)
	copy(p.deltasMs[i+1:], p.deltasMs[i:])
	p.deltasMs[i] = delta
}

// SetPointDist installs the point overlay (alpha, qIndex).
func (p *Prob) SetPointDist(alpha float32, qIndex int) {
	p.point = pointDist{alpha: alpha, qIndex: qIndex}
}

// GetK returns the set of query indices with any explicit
// (non-uniform) probability across all anchors, plus the point
// overlay's query index.
func (p *Prob) GetK() map[int]struct{} {
	all := make(map[int]struct{})
	for _, a := range p.anchors {
		for _, k := range a.keys() {
			all[k] = struct{}{}
		}
	}
	all[p.point.qIndex] = struct{}{}
	return all
}

// getProbsAt returns the anchor-derived-and-overlay-blended probability
// for query key at the exact anchor delta (or the uniform fallback if
// no anchor exists at that delta), blended with the point overlay.
func (p *Prob) getProbsAt(key, delta int) float32 {
	var base float32
	if a, ok := p.anchors[delta]; ok {
		base = a.get(key)
	} else {
		base = p.inf
	}
	return p.getLinearProb(key, base)
}

func (p *Prob) getLinearProb(key int, anchorP float32) float32 {
	return p.point.alpha*anchorP + (1.0-p.point.alpha)*p.point.get(key)
}

// getTimeBounds returns the nearest anchor delta <= delta (low) and the
// nearest anchor delta > delta (up); when no such anchor exists, low
// defaults to delta itself and up defaults to delta+1 — i.e. a flat
// segment of length 1 at the query point, matching the original's
// unwrap_or behavior.
func (p *Prob) getTimeBounds(delta int) (low, up int) {
	next := delta + 1
	low = delta
	for i := len(p.deltasMs) - 1; i >= 0; i-- {
		if p.deltasMs[i] < next {
			low = p.deltasMs[i]
			break
		}
	}
	up = next
	for _, d := range p.deltasMs {
		if d >= next {
			up = d
			break
		}
	}
	return low, up
}

// Get returns the interpolated probability for query key at delta ms
// in the future: linear interpolation between the two anchors
// surrounding delta, then blended with the point overlay.
func (p *Prob) Get(key, delta int) float32 {
	low, up := p.getTimeBounds(delta)
	p0 := p.getProbsAt(key, low)
	p1 := p.getProbsAt(key, up)
	if up == low {
		return p0
	}
	slope := (p1 - p0) / float32(up-low)
	return p0 + float32(delta-low)*slope
}

// GetLowerBound returns the largest anchor delta <= delta0, or delta0
// itself if none exists — the "low" argument callers should pass to
// IntegrateOverRange so it can be precomputed once per horizon slot.
func (p *Prob) GetLowerBound(delta0 int) int {
	low := delta0
	for i := len(p.deltasMs) - 1; i >= 0; i-- {
		if p.deltasMs[i] <= delta0 {
			low = p.deltasMs[i]
			break
		}
	}
	return low
}

// areaUnderCurve computes the area under the line (i, P(i)), (j, P(j))
// within the anchor segment [low, up], assuming i < j and
// low <= i, j <= up. Mirrors area_under_curve in the original: if
// P(low) > P(up) the clip window is reflected so the trapezoid is
// always computed in the monotone-up orientation.
func (p *Prob) areaUnderCurve(qid, low, up, i, j int) float32 {
	if i >= j || low > i || j > up || up < low {
		return 0.0
	}

	p0 := float32(math.Abs(float64(p.getProbsAt(qid, low))))
	pm := float32(math.Abs(float64(p.getProbsAt(qid, up))))
	if p0 > pm {
		p0, pm = pm, p0
		i, j = up-(j-low), up-(i-low)
	}

	slope := (pm - p0) / float32(up-low)
	base := float32(j - i)
	area := base * (p0 + slope*(float32(i+j)/2.0-float32(low)))
	return area
}

// IntegrateOverRange computes the expected per-ms probability mass for
// query qid over [delta0, deltaM), treating P(qid,t) as piecewise
// linear between anchors. low is the largest anchor <= delta0 (from
// GetLowerBound), passed in so callers can precompute it once per
// horizon slot. An anchor past deltaM still bounds the segment that
// deltaM falls in. When no anchor lies at or past deltaM, the stretch
// after the last anchor runs linearly toward a virtual anchor at
// deltaM+500 that carries the uniform fallback probability (blended
// with the point overlay); it is not held flat.
// Returns 0 if delta0 >= deltaM.
func (p *Prob) IntegrateOverRange(qid, delta0, deltaM, low int) float32 {
	if delta0 >= deltaM {
		return 0.0
	}

	const tailMs = 500
	inf := deltaM + tailMs

	var total float32
	upperDelta := deltaM
	lowerDelta := delta0

	for _, up := range p.deltasMs {
		if up <= delta0 {
			continue
		}
		upperDelta = up
		if upperDelta > deltaM {
			upperDelta = deltaM
		}
		lowerDelta = delta0
		if low > lowerDelta {
			lowerDelta = low
		}
		total += p.areaUnderCurve(qid, low, up, lowerDelta, upperDelta)
		low = up

		if deltaM <= upperDelta {
			break
		}
	}

	if low < deltaM {
		lowerDelta = delta0
		if low > lowerDelta {
			lowerDelta = low
		}
		total += p.areaUnderCurve(qid, low, inf, lowerDelta, deltaM)
	}

	return float32(math.Abs(float64(total)))
}
