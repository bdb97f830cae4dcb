package prob

import (
	"math"
	"testing"
)

func approxEqual(a, b, eps float32) bool {
	return math.Abs(float64(a-b)) <= float64(eps)
}

// TestProb_UniformFallbackSumsToOne covers property 1: with no anchors
// installed, Sum_q Get(q, delta) == 1 for any delta.
func TestProb_UniformFallbackSumsToOne(t *testing.T) {
	const n = 4
	p := New(n)
	for _, delta := range []int{0, 10, 500, 10000} {
		var sum float32
		for q := 0; q < n; q++ {
			sum += p.Get(q, delta)
		}
		eps := float32(1e-4 * n)
		if !approxEqual(sum, 1.0, eps) {
			t.Errorf("delta=%d: sum = %v, want ~1.0", delta, sum)
		}
	}
}

// TestProb_AnchorSumsToOne covers property 1 with an explicit anchor
// whose probabilities sum to 1 (so rest = 0).
func TestProb_AnchorSumsToOne(t *testing.T) {
	const n = 10
	p := New(n)
	p.SetProbsAt(map[int]float32{3: 0.9, 5: 0.1}, 0)

	for _, delta := range []int{0, 1, 100} {
		var sum float32
		for q := 0; q < n; q++ {
			sum += p.Get(q, delta)
		}
		eps := float32(1e-4 * n)
		if !approxEqual(sum, 1.0, eps) {
			t.Errorf("delta=%d: sum = %v, want ~1.0", delta, sum)
		}
	}
}

// TestProb_SpikeAnchor checks that a single spike anchor concentrates
// almost all mass on the spiked query at that instant.
func TestProb_SpikeAnchor(t *testing.T) {
	const n = 10
	p := New(n)
	p.SetProbsAt(map[int]float32{3: 0.9}, 0)

	if got := p.Get(3, 0); got <= 0.85 {
		t.Errorf("Get(3, 0) = %v, want > 0.85", got)
	}
}

// TestProb_CacheHalfFull checks that a spike anchor's probability
// value is unaffected by external cache state — cache gating is the
// scheduler's concern, not Prob's.
func TestProb_CacheHalfFull(t *testing.T) {
	const n = 10
	p := New(n)
	p.SetProbsAt(map[int]float32{3: 0.9}, 0)
	if got := p.Get(3, 0); got <= 0.85 {
		t.Errorf("Get(3, 0) = %v, want > 0.85", got)
	}
}

// TestProb_PointOverlayDominates checks that a low alpha lets the
// point overlay dominate: with N=5, alpha=0.1, q*=2, Get(2,t) should
// land near 0.1*(1/5) + 0.9*1 = 0.92 and every other query near
// 0.1*(1/5) = 0.02.
func TestProb_PointOverlayDominates(t *testing.T) {
	const n = 5
	p := New(n)
	p.SetPointDist(0.1, 2)

	if got, want := p.Get(2, 100), float32(0.92); !approxEqual(got, want, 1e-3) {
		t.Errorf("Get(2, 100) = %v, want ~%v", got, want)
	}
	if got, want := p.Get(0, 100), float32(0.02); !approxEqual(got, want, 1e-3) {
		t.Errorf("Get(0, 100) = %v, want ~%v", got, want)
	}
}

// TestProb_IntegrateOverRange_ZeroWhenEmptyOrInverted covers property 2's
// equals-0-iff-a>=b half.
func TestProb_IntegrateOverRange_ZeroWhenEmptyOrInverted(t *testing.T) {
	p := New(4)
	p.SetProbsAt(map[int]float32{0: 0.5}, 0)

	if got := p.IntegrateOverRange(0, 100, 100, 0); got != 0 {
		t.Errorf("a==b: got %v, want 0", got)
	}
	if got := p.IntegrateOverRange(0, 200, 100, 0); got != 0 {
		t.Errorf("a>b: got %v, want 0", got)
	}
}

// TestProb_IntegrateOverRange_MonotoneInUpperBound covers property 2's
// monotonicity half: integrate_over_range(q,a,b,low) is non-decreasing
// in b for fixed a,q,low.
func TestProb_IntegrateOverRange_MonotoneInUpperBound(t *testing.T) {
	p := New(4)
	p.SetProbsAt(map[int]float32{0: 0.7, 1: 0.2}, 0)
	p.SetProbsAt(map[int]float32{0: 0.1, 1: 0.1}, 200)

	const a = 0
	low := p.GetLowerBound(a)
	prev := float32(0)
	for _, b := range []int{10, 50, 100, 150, 200, 300, 800} {
		got := p.IntegrateOverRange(0, a, b, low)
		if got < prev-1e-6 {
			t.Fatalf("IntegrateOverRange not monotone at b=%d: %v < %v", b, got, prev)
		}
		prev = got
	}
}

// TestProb_GetLowerBound checks the nearest-anchor-at-or-below lookup.
func TestProb_GetLowerBound(t *testing.T) {
	p := New(4)
	p.SetProbsAt(map[int]float32{0: 0.5}, 0)
	p.SetProbsAt(map[int]float32{0: 0.1}, 100)

	if got := p.GetLowerBound(50); got != 0 {
		t.Errorf("GetLowerBound(50) = %d, want 0", got)
	}
	if got := p.GetLowerBound(150); got != 100 {
		t.Errorf("GetLowerBound(150) = %d, want 100", got)
	}
	if got := p.GetLowerBound(0); got != 0 {
		t.Errorf("GetLowerBound(0) = %d, want 0", got)
	}
}

// TestProb_GetK covers the explicit-plus-point-overlay key set.
func TestProb_GetK(t *testing.T) {
	p := New(10)
	p.SetProbsAt(map[int]float32{3: 0.9, 5: 0.05}, 0)
	p.SetPointDist(0.5, 7)

	k := p.GetK()
	for _, want := range []int{3, 5, 7} {
		if _, ok := k[want]; !ok {
			t.Errorf("GetK() missing %d: %v", want, k)
		}
	}
	if _, ok := k[1]; ok {
		t.Errorf("GetK() unexpectedly contains 1: %v", k)
	}
}
